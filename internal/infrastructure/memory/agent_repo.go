package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/leadpipe/backend/internal/domain/shared"
)

// AgentRepo is an in-memory AgentRepository for tests and dev mode.
// FindByIDForUpdate degenerates to FindByID: mutual exclusion comes from the
// memory transaction manager's global lock.
type AgentRepo struct {
	mu     sync.RWMutex
	agents map[uuid.UUID]crm.Agent
}

// NewAgentRepo creates a new in-memory agent repository
func NewAgentRepo() *AgentRepo {
	return &AgentRepo{agents: make(map[uuid.UUID]crm.Agent)}
}

func (r *AgentRepo) FindByID(ctx context.Context, id uuid.UUID) (*crm.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &agent, nil
}

func (r *AgentRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*crm.Agent, error) {
	return r.FindByID(ctx, id)
}

func (r *AgentRepo) FindAll(ctx context.Context, filter shared.Filter) ([]crm.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]crm.Agent, 0, len(r.agents))
	for _, agent := range r.agents {
		res = append(res, agent)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return paginate(res, filter), nil
}

func (r *AgentRepo) FindActive(ctx context.Context) ([]crm.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []crm.Agent
	for _, agent := range r.agents {
		if agent.Active {
			res = append(res, agent)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (r *AgentRepo) Save(ctx context.Context, agent *crm.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agent.ID] = *agent
	return nil
}

func (r *AgentRepo) SaveWithLock(ctx context.Context, agent *crm.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.agents[agent.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != agent.Version {
		return shared.ErrConcurrencyConflict
	}
	agent.IncrementVersion()
	r.agents[agent.ID] = *agent
	return nil
}
