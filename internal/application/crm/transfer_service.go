package crm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/leadpipe/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TransferConfig carries the transfer gate thresholds
type TransferConfig struct {
	// MinScore is the inclusive advisory score minimum; a score exactly at
	// the threshold passes
	MinScore float64
	// MaxScoreAge bounds how old a recorded score may be; zero means
	// recorded scores never go stale
	MaxScoreAge time.Duration
}

// TransferService owns the qualified-to-sales handoff and the sales pipeline
type TransferService struct {
	leadRepo       crm.LeadRepository
	saleRepo       crm.SaleRepository
	historyRepo    crm.HistoryRepository
	txManager      shared.TransactionManager
	config         TransferConfig
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewTransferService creates a new TransferService
func NewTransferService(
	leadRepo crm.LeadRepository,
	saleRepo crm.SaleRepository,
	historyRepo crm.HistoryRepository,
	txManager shared.TransactionManager,
	config TransferConfig,
	logger *zap.Logger,
) *TransferService {
	return &TransferService{
		leadRepo:    leadRepo,
		saleRepo:    saleRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		config:      config,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *TransferService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *TransferService) publishEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, aggregate := range aggregates {
		for _, event := range aggregate.GetDomainEvents() {
			if err := s.eventPublisher.Publish(ctx, event); err != nil {
				s.logger.Warn("failed to publish domain event",
					zap.String("event_type", event.EventType()),
					zap.Error(err))
			}
		}
		aggregate.ClearDomainEvents()
	}
}

// Transfer runs the transfer gate on a lead and, on success, flips it to
// TRANSFERRED, creates the sale in NEW and appends the ledger record, all in
// one transaction. The gate reads only stored state and never calls the
// advisory collaborator.
func (s *TransferService) Transfer(ctx context.Context, leadID uuid.UUID, req TransferLeadRequest) (*TransferResponse, error) {
	var lead *crm.Lead
	var sale *crm.Sale

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		lead, err = s.leadRepo.FindByID(ctx, leadID)
		if err != nil {
			return err
		}

		if gateErr := lead.AuthorizeTransfer(s.config.MinScore, s.config.MaxScoreAge); gateErr != nil {
			return gateErr
		}

		// One sale per transferred lead
		existing, err := s.saleRepo.FindByLeadID(ctx, leadID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if existing != nil {
			return &crm.TransferPreconditionError{
				Kind:   crm.TransferAlreadyTransferred,
				Detail: "a sale already exists for this lead",
			}
		}

		from := lead.Stage
		lead.MarkTransferred()
		if err := s.leadRepo.SaveWithLock(ctx, lead); err != nil {
			return err
		}

		sale, err = crm.NewSale(lead.ID, req.Amount)
		if err != nil {
			return err
		}
		if err := s.saleRepo.Save(ctx, sale); err != nil {
			return err
		}

		record := crm.NewTransitionRecord(crm.HistoryEntityLead, lead.ID,
			from.String(), lead.Stage.String(), req.ChangedBy)
		return s.historyRepo.Append(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("lead transferred to sales",
		zap.String("lead_id", lead.ID.String()),
		zap.String("sale_id", sale.ID.String()))
	s.publishEvents(ctx, lead, sale)

	return &TransferResponse{
		Lead: ToLeadResponse(lead),
		Sale: ToSaleResponse(sale),
	}, nil
}

// GetSale retrieves a sale by ID
func (s *TransferService) GetSale(ctx context.Context, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// GetSaleByLead retrieves the sale created from a lead
func (s *TransferService) GetSaleByLead(ctx context.Context, leadID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByLeadID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// ListSales retrieves sales with pagination
func (s *TransferService) ListSales(ctx context.Context, filter shared.Filter) ([]SaleResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	sales, err := s.saleRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.saleRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]SaleResponse, len(sales))
	for i := range sales {
		responses[i] = ToSaleResponse(&sales[i])
	}
	return responses, total, nil
}

// AdvanceSale moves a sale to the target stage, with an optional amount
// update, and appends the ledger record in the same transaction
func (s *TransferService) AdvanceSale(ctx context.Context, saleID uuid.UUID, req AdvanceSaleRequest) (*SaleResponse, error) {
	var sale *crm.Sale
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.saleRepo.FindByID(ctx, saleID)
		if err != nil {
			return err
		}

		from := sale.Stage
		if err := sale.Transition(crm.SaleStage(req.TargetStage), req.Amount); err != nil {
			return err
		}
		if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
			return err
		}

		record := crm.NewTransitionRecord(crm.HistoryEntitySale, sale.ID,
			from.String(), sale.Stage.String(), req.ChangedBy)
		return s.historyRepo.Append(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)

	response := ToSaleResponse(sale)
	return &response, nil
}

// SaleHistory returns the sale's ledger, newest first
func (s *TransferService) SaleHistory(ctx context.Context, saleID uuid.UUID) ([]HistoryRecordResponse, error) {
	if _, err := s.saleRepo.FindByID(ctx, saleID); err != nil {
		return nil, err
	}
	records, err := s.historyRepo.FindByEntity(ctx, crm.HistoryEntitySale, saleID)
	if err != nil {
		return nil, err
	}
	return ToHistoryRecordResponses(records), nil
}
