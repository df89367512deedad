package crm

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/leadpipe/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AssignmentService balances leads across agents. Capacity decisions always
// come from a live recount of assigned leads inside the transaction, never
// from the denormalized per-agent counter.
type AssignmentService struct {
	leadRepo       crm.LeadRepository
	agentRepo      crm.AgentRepository
	txManager      shared.TransactionManager
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	leadRepo crm.LeadRepository,
	agentRepo crm.AgentRepository,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *AssignmentService {
	return &AssignmentService{
		leadRepo:  leadRepo,
		agentRepo: agentRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *AssignmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *AssignmentService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range aggregate.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
	aggregate.ClearDomainEvents()
}

// CreateAgent registers a new agent
func (s *AssignmentService) CreateAgent(ctx context.Context, req CreateAgentRequest) (*AgentResponse, error) {
	agent, err := crm.NewAgent(req.Name, req.MaxLeads)
	if err != nil {
		return nil, err
	}
	agent.Email = req.Email
	for _, d := range req.Domains {
		if err := agent.AddDomain(crm.BusinessDomain(d)); err != nil {
			return nil, err
		}
	}

	if err := s.agentRepo.Save(ctx, agent); err != nil {
		return nil, err
	}

	response := ToAgentResponse(agent)
	return &response, nil
}

// GetAgent retrieves an agent by ID
func (s *AssignmentService) GetAgent(ctx context.Context, agentID uuid.UUID) (*AgentResponse, error) {
	agent, err := s.agentRepo.FindByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	response := ToAgentResponse(agent)
	return &response, nil
}

// ListAgents retrieves all agents
func (s *AssignmentService) ListAgents(ctx context.Context, filter shared.Filter) ([]AgentResponse, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	agents, err := s.agentRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToAgentResponses(agents), nil
}

// UpdateAgent updates an agent's activation, capacity and domain skills
func (s *AssignmentService) UpdateAgent(ctx context.Context, agentID uuid.UUID, req UpdateAgentRequest) (*AgentResponse, error) {
	var agent *crm.Agent
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		agent, err = s.agentRepo.FindByID(ctx, agentID)
		if err != nil {
			return err
		}

		if req.Active != nil {
			if *req.Active {
				agent.Activate()
			} else {
				agent.Deactivate()
			}
		}
		if req.MaxLeads != nil {
			if err := agent.SetCapacity(*req.MaxLeads); err != nil {
				return err
			}
		}
		for _, d := range req.Domains {
			if err := agent.AddDomain(crm.BusinessDomain(d)); err != nil {
				return err
			}
		}

		return s.agentRepo.SaveWithLock(ctx, agent)
	})
	if err != nil {
		return nil, err
	}

	response := ToAgentResponse(agent)
	return &response, nil
}

// Assign assigns a lead to an agent. The agent row is locked for the
// transaction and the capacity check runs against a fresh recount of
// currently assigned non-terminal leads, so two concurrent assignments to a
// nearly-full agent serialize and the second sees the first's write.
func (s *AssignmentService) Assign(ctx context.Context, leadID, agentID uuid.UUID) (*LeadResponse, error) {
	var lead *crm.Lead
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		agent, err := s.agentRepo.FindByIDForUpdate(ctx, agentID)
		if err != nil {
			return err
		}
		if !agent.Active {
			return &crm.AgentInactiveError{AgentID: agent.ID}
		}

		lead, err = s.leadRepo.FindByID(ctx, leadID)
		if err != nil {
			return err
		}
		if lead.Stage.IsTerminal() {
			return &crm.TerminalStageLockedError{Stage: lead.Stage.String()}
		}

		// Live recount, not the mirror counter. A lead already on this
		// agent is part of the count, so a repeat assignment skips the
		// check instead of tripping over its own slot.
		alreadyAssigned := lead.AssignedAgent != nil && *lead.AssignedAgent == agent.ID
		if !alreadyAssigned {
			current, err := s.leadRepo.CountAssigned(ctx, agent.ID)
			if err != nil {
				return err
			}
			if current >= int64(agent.MaxLeads) {
				return &crm.CapacityExceededError{AgentID: agent.ID, Current: current, MaxLeads: agent.MaxLeads}
			}
		}

		previous := lead.AssignedAgent
		lead.Assign(agent.ID)
		if err := s.leadRepo.SaveWithLock(ctx, lead); err != nil {
			return err
		}

		if err := s.refreshAgentLoad(ctx, agent); err != nil {
			return err
		}
		if previous != nil && *previous != agent.ID {
			if err := s.refreshAgentLoadByID(ctx, *previous); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, lead)

	response := ToLeadResponse(lead)
	return &response, nil
}

// Unassign clears a lead's agent and refreshes the former agent's load
// after the clear is visible
func (s *AssignmentService) Unassign(ctx context.Context, leadID uuid.UUID) (*LeadResponse, error) {
	var lead *crm.Lead
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		lead, err = s.leadRepo.FindByID(ctx, leadID)
		if err != nil {
			return err
		}

		previous := lead.AssignedAgent
		if previous == nil {
			return nil
		}

		lead.Unassign()
		if err := s.leadRepo.SaveWithLock(ctx, lead); err != nil {
			return err
		}
		return s.refreshAgentLoadByID(ctx, *previous)
	})
	if err != nil {
		return nil, err
	}

	response := ToLeadResponse(lead)
	return &response, nil
}

// Reassign moves a lead to a different agent. The new agent is
// capacity-checked; both agents' mirrors are refreshed in the same
// transaction.
func (s *AssignmentService) Reassign(ctx context.Context, leadID, newAgentID uuid.UUID) (*LeadResponse, error) {
	return s.Assign(ctx, leadID, newAgentID)
}

// AutoAssign picks the best agent for a lead: active agents with spare
// capacity, narrowed to domain-skill matches when the lead's domain matches
// any candidate, least loaded first. Returns nil without error when no
// candidate fits.
func (s *AssignmentService) AutoAssign(ctx context.Context, leadID uuid.UUID) (*LeadResponse, error) {
	lead, err := s.leadRepo.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Stage.IsTerminal() {
		return nil, &crm.TerminalStageLockedError{Stage: lead.Stage.String()}
	}

	agents, err := s.agentRepo.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]crm.Agent, 0, len(agents))
	for _, agent := range agents {
		if agent.HasSpareCapacity() {
			candidates = append(candidates, agent)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Narrow by domain skill when the lead's domain matches any candidate
	if lead.BusinessDomain != "" {
		matched := make([]crm.Agent, 0, len(candidates))
		for _, agent := range candidates {
			if agent.HasDomain(lead.BusinessDomain) {
				matched = append(matched, agent)
			}
		}
		if len(matched) > 0 {
			candidates = matched
		}
	}

	// Least loaded first by the mirror counter; the authoritative check is
	// the live recount inside Assign. A candidate that fills up between
	// the snapshot and the lock is skipped in favor of the next one.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CurrentLeads < candidates[j].CurrentLeads
	})

	for i := range candidates {
		resp, err := s.Assign(ctx, leadID, candidates[i].ID)
		if err != nil {
			var capacity *crm.CapacityExceededError
			var inactive *crm.AgentInactiveError
			if errors.As(err, &capacity) || errors.As(err, &inactive) {
				continue
			}
			return nil, err
		}
		return resp, nil
	}
	return nil, nil
}

func (s *AssignmentService) refreshAgentLoad(ctx context.Context, agent *crm.Agent) error {
	count, err := s.leadRepo.CountAssigned(ctx, agent.ID)
	if err != nil {
		return err
	}
	agent.RefreshLoad(count)
	return s.agentRepo.Save(ctx, agent)
}

func (s *AssignmentService) refreshAgentLoadByID(ctx context.Context, agentID uuid.UUID) error {
	agent, err := s.agentRepo.FindByID(ctx, agentID)
	if err != nil {
		return err
	}
	return s.refreshAgentLoad(ctx, agent)
}
