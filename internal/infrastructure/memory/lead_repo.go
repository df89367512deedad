package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/leadpipe/backend/internal/domain/shared"
)

// LeadRepo is an in-memory LeadRepository for tests and dev mode
type LeadRepo struct {
	mu    sync.RWMutex
	leads map[uuid.UUID]crm.Lead
}

// NewLeadRepo creates a new in-memory lead repository
func NewLeadRepo() *LeadRepo {
	return &LeadRepo{leads: make(map[uuid.UUID]crm.Lead)}
}

func (r *LeadRepo) FindByID(ctx context.Context, id uuid.UUID) (*crm.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lead, ok := r.leads[id]
	if !ok || lead.IsDeleted() {
		return nil, shared.ErrNotFound
	}
	return &lead, nil
}

func (r *LeadRepo) FindByEmail(ctx context.Context, email string) (*crm.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, lead := range r.leads {
		if !lead.IsDeleted() && lead.Email == email {
			l := lead
			return &l, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *LeadRepo) FindByPhone(ctx context.Context, phone string) (*crm.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, lead := range r.leads {
		if !lead.IsDeleted() && lead.Phone == phone {
			l := lead
			return &l, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *LeadRepo) FindAll(ctx context.Context, filter shared.Filter) ([]crm.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]crm.Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		if lead.IsDeleted() || !matchesLeadFilter(&lead, filter) {
			continue
		}
		res = append(res, lead)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return paginate(res, filter), nil
}

func (r *LeadRepo) FindAssigned(ctx context.Context, agentID uuid.UUID) ([]crm.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []crm.Lead
	for _, lead := range r.leads {
		if isAssignedTo(&lead, agentID) {
			res = append(res, lead)
		}
	}
	return res, nil
}

func (r *LeadRepo) CountAssigned(ctx context.Context, agentID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, lead := range r.leads {
		if isAssignedTo(&lead, agentID) {
			count++
		}
	}
	return count, nil
}

func (r *LeadRepo) FindOverdueUnassigned(ctx context.Context, createdBefore time.Time) ([]crm.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []crm.Lead
	for _, lead := range r.leads {
		if lead.IsDeleted() || lead.Stage.IsTerminal() || lead.AssignedAgent != nil {
			continue
		}
		if lead.CreatedAt.Before(createdBefore) {
			res = append(res, lead)
		}
	}
	return res, nil
}

func (r *LeadRepo) FindStale(ctx context.Context, updatedBefore time.Time) ([]crm.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []crm.Lead
	for _, lead := range r.leads {
		if lead.IsDeleted() {
			continue
		}
		if lead.Stage != crm.LeadStageNew && lead.Stage != crm.LeadStageContacted {
			continue
		}
		if lead.UpdatedAt.Before(updatedBefore) {
			res = append(res, lead)
		}
	}
	return res, nil
}

func (r *LeadRepo) Save(ctx context.Context, lead *crm.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads[lead.ID] = *lead
	return nil
}

func (r *LeadRepo) SaveWithLock(ctx context.Context, lead *crm.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.leads[lead.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != lead.Version {
		return shared.ErrConcurrencyConflict
	}
	lead.IncrementVersion()
	r.leads[lead.ID] = *lead
	return nil
}

func (r *LeadRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, lead := range r.leads {
		if !lead.IsDeleted() && matchesLeadFilter(&lead, filter) {
			count++
		}
	}
	return count, nil
}

func isAssignedTo(lead *crm.Lead, agentID uuid.UUID) bool {
	return !lead.IsDeleted() &&
		!lead.Stage.IsTerminal() &&
		lead.AssignedAgent != nil &&
		*lead.AssignedAgent == agentID
}

func matchesLeadFilter(lead *crm.Lead, filter shared.Filter) bool {
	for key, value := range filter.Filters {
		switch key {
		case "stage":
			if string(lead.Stage) != value.(string) {
				return false
			}
		case "source":
			if string(lead.Source) != value.(string) {
				return false
			}
		case "assigned_agent":
			if lead.AssignedAgent == nil || *lead.AssignedAgent != value.(uuid.UUID) {
				return false
			}
		}
	}
	return true
}

func paginate[T any](items []T, filter shared.Filter) []T {
	if filter.Page <= 0 || filter.PageSize <= 0 {
		return items
	}
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + filter.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
