package crm

import (
	"context"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/shared"
)

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// FindByID finds a sale by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindByLeadID finds the sale created from a lead
	FindByLeadID(ctx context.Context, leadID uuid.UUID) (*Sale, error)

	// FindAll finds all sales matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Sale, error)

	// Save creates or updates a sale
	Save(ctx context.Context, sale *Sale) error

	// SaveWithLock saves a sale with an optimistic version check and fails
	// on concurrent modification
	SaveWithLock(ctx context.Context, sale *Sale) error

	// Count counts sales matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
