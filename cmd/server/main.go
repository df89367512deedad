package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	crmapp "github.com/leadpipe/backend/internal/application/crm"
	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/leadpipe/backend/internal/infrastructure/advisory"
	"github.com/leadpipe/backend/internal/infrastructure/config"
	"github.com/leadpipe/backend/internal/infrastructure/event"
	"github.com/leadpipe/backend/internal/infrastructure/logger"
	"github.com/leadpipe/backend/internal/infrastructure/notification"
	"github.com/leadpipe/backend/internal/infrastructure/persistence"
	"github.com/leadpipe/backend/internal/interfaces/http/handler"
	"github.com/leadpipe/backend/internal/interfaces/http/middleware"
	"github.com/leadpipe/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting lead pipeline backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connected and migrated")

	// Initialize repositories and transaction manager
	leadRepo := persistence.NewGormLeadRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	agentRepo := persistence.NewGormAgentRepository(db.DB)
	historyRepo := persistence.NewGormHistoryRepository(db.DB)
	txManager := persistence.NewGormTxManager(db.DB)

	// Redis backs the advisory result cache. Losing it degrades to direct
	// scoring, so a failed ping is a warning, not a startup failure.
	var redisClient *redis.Client
	{
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis unavailable, advisory cache disabled", zap.Error(err))
			_ = client.Close()
		} else {
			redisClient = client
			defer func() {
				_ = redisClient.Close()
			}()
		}
		cancel()
	}

	// Advisory scorers: the remote advisor when configured, the rule-based
	// scorer both as fallback and as stand-in when no API key is set
	fallbackScorer := advisory.NewFallbackScorer()
	var advisor crm.AdvisoryPort = fallbackScorer
	if cfg.Advisory.APIKey != "" {
		anthropicScorer, err := advisory.NewAnthropicScorer(
			cfg.Advisory.APIKey,
			cfg.Advisory.Model,
			cfg.Advisory.RequestTimeout,
			log,
		)
		if err != nil {
			log.Fatal("Failed to initialize advisory scorer", zap.Error(err))
		}
		advisor = anthropicScorer
		log.Info("Remote advisory scorer enabled", zap.String("model", cfg.Advisory.Model))
	} else {
		log.Warn("No advisory API key configured, using rule-based scorer only")
	}
	if redisClient != nil {
		advisor = advisory.NewCachedScorer(advisor, redisClient, cfg.Advisory.CacheTTL, log)
	}

	// Initialize application services
	leadService := crmapp.NewLeadService(leadRepo, historyRepo, txManager, log)
	leadService.SetAdvisor(advisor, fallbackScorer)
	transferService := crmapp.NewTransferService(leadRepo, saleRepo, historyRepo, txManager, crmapp.TransferConfig{
		MinScore:    cfg.Advisory.MinTransferScore,
		MaxScoreAge: cfg.Advisory.MaxScoreAge,
	}, log)
	assignmentService := crmapp.NewAssignmentService(leadRepo, agentRepo, txManager, log)

	// Initialize event bus and the notification subscriber
	eventBus := event.NewInMemoryEventBus(log)

	notifier := notification.NewLogNotifier(log)
	notificationSubscriber := notification.NewEventSubscriber(notifier)
	eventBus.Subscribe(notificationSubscriber, notificationSubscriber.EventTypes()...)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	leadService.SetEventPublisher(eventBus)
	transferService.SetEventPublisher(eventBus)
	assignmentService.SetEventPublisher(eventBus)

	// Initialize HTTP handlers
	leadHandler := handler.NewLeadHandler(leadService, cfg.Assignment.OverdueAfter, cfg.Assignment.StaleAfter)
	saleHandler := handler.NewSaleHandler(transferService)
	agentHandler := handler.NewAgentHandler(assignmentService)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	r := router.NewRouter(engine, "v1")
	r.Register(router.NewCRMRoutes(leadHandler, saleHandler, agentHandler))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
