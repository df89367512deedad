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

// LeadService handles lead pipeline business operations
type LeadService struct {
	leadRepo       crm.LeadRepository
	historyRepo    crm.HistoryRepository
	txManager      shared.TransactionManager
	advisor        crm.AdvisoryPort
	fallbackScorer crm.AdvisoryPort
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewLeadService creates a new LeadService
func NewLeadService(
	leadRepo crm.LeadRepository,
	historyRepo crm.HistoryRepository,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *LeadService {
	return &LeadService{
		leadRepo:    leadRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *LeadService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetAdvisor wires the external scoring collaborator and its deterministic
// fallback. The fallback is used when the advisor reports unavailable.
func (s *LeadService) SetAdvisor(advisor, fallback crm.AdvisoryPort) {
	s.advisor = advisor
	s.fallbackScorer = fallback
}

func (s *LeadService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range aggregate.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			// Event handling is best-effort; the mutation already committed
			s.logger.Warn("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
	aggregate.ClearDomainEvents()
}

// Create creates a new lead, rejecting duplicates by email first, then phone
func (s *LeadService) Create(ctx context.Context, req CreateLeadRequest) (*LeadResponse, error) {
	lead, err := crm.NewLead(crm.LeadSource(req.Source))
	if err != nil {
		return nil, err
	}
	lead.FullName = req.FullName
	lead.Phone = req.Phone
	lead.Email = req.Email
	lead.ExternalHandle = req.ExternalHandle
	lead.BusinessDomain = crm.BusinessDomain(req.BusinessDomain)

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if req.Email != "" {
			existing, err := s.leadRepo.FindByEmail(ctx, req.Email)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			if existing != nil {
				return &crm.DuplicateLeadError{Field: crm.FieldEmail, ExistingID: existing.ID}
			}
		}
		if req.Phone != "" {
			existing, err := s.leadRepo.FindByPhone(ctx, req.Phone)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			if existing != nil {
				return &crm.DuplicateLeadError{Field: crm.FieldPhone, ExistingID: existing.ID}
			}
		}
		return s.leadRepo.Save(ctx, lead)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, lead)

	response := ToLeadResponse(lead)
	return &response, nil
}

// Get retrieves a lead by ID
func (s *LeadService) Get(ctx context.Context, leadID uuid.UUID) (*LeadResponse, error) {
	lead, err := s.leadRepo.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	response := ToLeadResponse(lead)
	return &response, nil
}

// List retrieves leads with filtering and pagination
func (s *LeadService) List(ctx context.Context, filter LeadListFilter) ([]LeadResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Stage != nil {
		domainFilter.Filters["stage"] = *filter.Stage
	}
	if filter.Source != nil {
		domainFilter.Filters["source"] = *filter.Source
	}
	if filter.AssignedAgent != nil {
		domainFilter.Filters["assigned_agent"] = *filter.AssignedAgent
	}

	leads, err := s.leadRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.leadRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToLeadResponses(leads), total, nil
}

// Update updates lead contact data. Stage moves go through Transition.
func (s *LeadService) Update(ctx context.Context, leadID uuid.UUID, req UpdateLeadRequest) (*LeadResponse, error) {
	var lead *crm.Lead
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		lead, err = s.leadRepo.FindByID(ctx, leadID)
		if err != nil {
			return err
		}
		if lead.Stage.IsTerminal() {
			return &crm.TerminalStageLockedError{Stage: lead.Stage.String()}
		}

		if req.FullName != nil {
			lead.FullName = *req.FullName
		}
		if req.Phone != nil {
			lead.Phone = *req.Phone
		}
		if req.Email != nil {
			lead.Email = *req.Email
		}
		if req.ExternalHandle != nil {
			lead.ExternalHandle = *req.ExternalHandle
		}
		if req.BusinessDomain != nil {
			domain := crm.BusinessDomain(*req.BusinessDomain)
			if !domain.IsValid() {
				return shared.NewDomainError("INVALID_DOMAIN", "Unknown business domain: "+*req.BusinessDomain)
			}
			lead.BusinessDomain = domain
		}
		lead.UpdatedAt = time.Now()

		return s.leadRepo.SaveWithLock(ctx, lead)
	})
	if err != nil {
		return nil, err
	}

	response := ToLeadResponse(lead)
	return &response, nil
}

// Transition moves a lead to the target stage. The stage change and its
// ledger record commit in one transaction.
func (s *LeadService) Transition(ctx context.Context, leadID uuid.UUID, req TransitionLeadRequest) (*LeadResponse, error) {
	var lostReason *crm.LostReason
	if req.LostReason != nil {
		reason := crm.LostReason(*req.LostReason)
		lostReason = &reason
	}

	var lead *crm.Lead
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		lead, err = s.leadRepo.FindByID(ctx, leadID)
		if err != nil {
			return err
		}

		from := lead.Stage
		if err := lead.Transition(crm.LeadStage(req.TargetStage), lostReason); err != nil {
			return err
		}
		if err := s.leadRepo.SaveWithLock(ctx, lead); err != nil {
			return err
		}

		record := crm.NewTransitionRecord(crm.HistoryEntityLead, lead.ID,
			from.String(), lead.Stage.String(), req.ChangedBy)
		return s.historyRepo.Append(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, lead)

	response := ToLeadResponse(lead)
	return &response, nil
}

// Rollback reverses the last forward step with a mandatory justification
func (s *LeadService) Rollback(ctx context.Context, leadID uuid.UUID, req RollbackLeadRequest) (*LeadResponse, error) {
	var lead *crm.Lead
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		lead, err = s.leadRepo.FindByID(ctx, leadID)
		if err != nil {
			return err
		}

		from := lead.Stage
		target, err := lead.Rollback(req.Reason)
		if err != nil {
			return err
		}
		if err := s.leadRepo.SaveWithLock(ctx, lead); err != nil {
			return err
		}

		record := crm.NewRollbackRecord(crm.HistoryEntityLead, lead.ID,
			from.String(), target.String(), req.ChangedBy, req.Reason)
		return s.historyRepo.Append(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, lead)

	response := ToLeadResponse(lead)
	return &response, nil
}

// RecordAnalysis stores an externally supplied advisory result on the lead
func (s *LeadService) RecordAnalysis(ctx context.Context, leadID uuid.UUID, req RecordAnalysisRequest) (*LeadResponse, error) {
	var lead *crm.Lead
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		lead, err = s.leadRepo.FindByID(ctx, leadID)
		if err != nil {
			return err
		}
		if err := lead.RecordAnalysis(req.Score, crm.Recommendation(req.Recommendation), req.Reason); err != nil {
			return err
		}
		return s.leadRepo.SaveWithLock(ctx, lead)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, lead)

	response := ToLeadResponse(lead)
	return &response, nil
}

// Analyze asks the advisory collaborator to score the lead and persists the
// result. The network call runs outside any transaction. When the advisor
// reports unavailable the deterministic fallback scorer answers instead;
// a malformed advisor response is surfaced as-is.
func (s *LeadService) Analyze(ctx context.Context, leadID uuid.UUID) (*LeadResponse, error) {
	if s.advisor == nil {
		return nil, shared.NewDomainError("ADVISOR_NOT_CONFIGURED", "No advisory collaborator configured")
	}

	lead, err := s.leadRepo.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	features := crm.BuildFeatures(lead)
	result, err := s.advisor.Score(ctx, features)
	if err != nil {
		var unavailable *crm.AdvisorUnavailableError
		if errors.As(err, &unavailable) && s.fallbackScorer != nil {
			s.logger.Warn("advisory service unavailable, using fallback scorer",
				zap.String("lead_id", leadID.String()),
				zap.Error(err))
			result, err = s.fallbackScorer.Score(ctx, features)
		}
		if err != nil {
			return nil, err
		}
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		lead, err = s.leadRepo.FindByID(ctx, leadID)
		if err != nil {
			return err
		}
		if err := lead.RecordAnalysis(result.Score, result.Recommendation, result.Reason); err != nil {
			return err
		}
		return s.leadRepo.SaveWithLock(ctx, lead)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, lead)

	response := ToLeadResponse(lead)
	return &response, nil
}

// IncrementMessages bumps the activity counter
func (s *LeadService) IncrementMessages(ctx context.Context, leadID uuid.UUID, req IncrementMessagesRequest) (*LeadResponse, error) {
	var lead *crm.Lead
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		lead, err = s.leadRepo.FindByID(ctx, leadID)
		if err != nil {
			return err
		}
		if err := lead.IncrementMessages(req.Count); err != nil {
			return err
		}
		return s.leadRepo.SaveWithLock(ctx, lead)
	})
	if err != nil {
		return nil, err
	}

	response := ToLeadResponse(lead)
	return &response, nil
}

// Nurture records an automated touch in the ledger without changing the stage
func (s *LeadService) Nurture(ctx context.Context, leadID uuid.UUID, req NurtureLeadRequest) error {
	return s.txManager.Do(ctx, func(ctx context.Context) error {
		lead, err := s.leadRepo.FindByID(ctx, leadID)
		if err != nil {
			return err
		}
		if lead.Stage.IsTerminal() {
			return &crm.TerminalStageLockedError{Stage: lead.Stage.String()}
		}

		record := crm.NewTouchRecord(crm.HistoryEntityLead, lead.ID,
			lead.Stage.String(), req.ChangedBy, req.Note)
		return s.historyRepo.Append(ctx, record)
	})
}

// SoftDelete marks a lead as deleted. Subsequent reads exclude it.
func (s *LeadService) SoftDelete(ctx context.Context, leadID uuid.UUID) error {
	return s.txManager.Do(ctx, func(ctx context.Context) error {
		lead, err := s.leadRepo.FindByID(ctx, leadID)
		if err != nil {
			return err
		}
		lead.SoftDelete()
		return s.leadRepo.SaveWithLock(ctx, lead)
	})
}

// History returns the lead's ledger, newest first
func (s *LeadService) History(ctx context.Context, leadID uuid.UUID) ([]HistoryRecordResponse, error) {
	if _, err := s.leadRepo.FindByID(ctx, leadID); err != nil {
		return nil, err
	}
	records, err := s.historyRepo.FindByEntity(ctx, crm.HistoryEntityLead, leadID)
	if err != nil {
		return nil, err
	}
	return ToHistoryRecordResponses(records), nil
}

// OverdueUnassigned returns non-terminal leads left unassigned longer than
// maxAge and emits an overdue event per lead
func (s *LeadService) OverdueUnassigned(ctx context.Context, maxAge time.Duration) ([]LeadResponse, error) {
	cutoff := time.Now().Add(-maxAge)
	leads, err := s.leadRepo.FindOverdueUnassigned(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		for i := range leads {
			if err := s.eventPublisher.Publish(ctx, crm.NewLeadOverdueEvent(&leads[i])); err != nil {
				s.logger.Warn("failed to publish overdue event",
					zap.String("lead_id", leads[i].ID.String()),
					zap.Error(err))
			}
		}
	}

	return ToLeadResponses(leads), nil
}

// Stale returns leads sitting in NEW or CONTACTED untouched longer than maxAge
func (s *LeadService) Stale(ctx context.Context, maxAge time.Duration) ([]LeadResponse, error) {
	cutoff := time.Now().Add(-maxAge)
	leads, err := s.leadRepo.FindStale(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	return ToLeadResponses(leads), nil
}
