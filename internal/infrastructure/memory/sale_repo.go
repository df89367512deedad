package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/leadpipe/backend/internal/domain/shared"
)

// SaleRepo is an in-memory SaleRepository for tests and dev mode
type SaleRepo struct {
	mu    sync.RWMutex
	sales map[uuid.UUID]crm.Sale
}

// NewSaleRepo creates a new in-memory sale repository
func NewSaleRepo() *SaleRepo {
	return &SaleRepo{sales: make(map[uuid.UUID]crm.Sale)}
}

func (r *SaleRepo) FindByID(ctx context.Context, id uuid.UUID) (*crm.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sale, ok := r.sales[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &sale, nil
}

func (r *SaleRepo) FindByLeadID(ctx context.Context, leadID uuid.UUID) (*crm.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sale := range r.sales {
		if sale.LeadID == leadID {
			s := sale
			return &s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *SaleRepo) FindAll(ctx context.Context, filter shared.Filter) ([]crm.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]crm.Sale, 0, len(r.sales))
	for _, sale := range r.sales {
		res = append(res, sale)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return paginate(res, filter), nil
}

func (r *SaleRepo) Save(ctx context.Context, sale *crm.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales[sale.ID] = *sale
	return nil
}

func (r *SaleRepo) SaveWithLock(ctx context.Context, sale *crm.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sales[sale.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != sale.Version {
		return shared.ErrConcurrencyConflict
	}
	sale.IncrementVersion()
	r.sales[sale.ID] = *sale
	return nil
}

func (r *SaleRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.sales)), nil
}
