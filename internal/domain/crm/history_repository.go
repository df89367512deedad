package crm

import (
	"context"

	"github.com/google/uuid"
)

// HistoryRepository defines the interface for the append-only ledger.
// Records are appended inside the same transaction as the mutation they
// describe and are never updated or deleted.
type HistoryRepository interface {
	// Append writes one record to the ledger
	Append(ctx context.Context, record *HistoryRecord) error

	// FindByEntity returns the ledger for an entity, newest first
	FindByEntity(ctx context.Context, entityType HistoryEntityType, entityID uuid.UUID) ([]HistoryRecord, error)

	// CountByEntity counts the ledger entries for an entity
	CountByEntity(ctx context.Context, entityType HistoryEntityType, entityID uuid.UUID) (int64, error)
}
