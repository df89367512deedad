package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/crm"
)

// HistoryRepo is an in-memory append-only ledger for tests and dev mode.
// Append order is preserved; FindByEntity walks it backwards, so two records
// written in the same instant still come back newest first.
type HistoryRepo struct {
	mu      sync.RWMutex
	records []crm.HistoryRecord
}

// NewHistoryRepo creates a new in-memory history repository
func NewHistoryRepo() *HistoryRepo {
	return &HistoryRepo{}
}

func (r *HistoryRepo) Append(ctx context.Context, record *crm.HistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

func (r *HistoryRepo) FindByEntity(ctx context.Context, entityType crm.HistoryEntityType, entityID uuid.UUID) ([]crm.HistoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []crm.HistoryRecord
	for i := len(r.records) - 1; i >= 0; i-- {
		record := r.records[i]
		if record.EntityType == entityType && record.EntityID == entityID {
			res = append(res, record)
		}
	}
	return res, nil
}

func (r *HistoryRepo) CountByEntity(ctx context.Context, entityType crm.HistoryEntityType, entityID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, record := range r.records {
		if record.EntityType == entityType && record.EntityID == entityID {
			count++
		}
	}
	return count, nil
}
