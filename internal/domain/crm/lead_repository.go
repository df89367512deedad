package crm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/shared"
)

// LeadRepository defines the interface for lead persistence
type LeadRepository interface {
	// FindByID finds a lead by its ID. Soft-deleted leads are excluded.
	FindByID(ctx context.Context, id uuid.UUID) (*Lead, error)

	// FindByEmail finds a non-deleted lead by email
	FindByEmail(ctx context.Context, email string) (*Lead, error)

	// FindByPhone finds a non-deleted lead by phone
	FindByPhone(ctx context.Context, phone string) (*Lead, error)

	// FindAll finds all non-deleted leads matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Lead, error)

	// FindAssigned finds the non-terminal, non-deleted leads currently
	// assigned to an agent
	FindAssigned(ctx context.Context, agentID uuid.UUID) ([]Lead, error)

	// CountAssigned is the live recount: the number of non-terminal,
	// non-deleted leads currently assigned to the agent, computed fresh
	// from stored rows at call time. Capacity checks must use this, never
	// the denormalized agent counter.
	CountAssigned(ctx context.Context, agentID uuid.UUID) (int64, error)

	// FindOverdueUnassigned finds non-terminal leads with no assigned
	// agent created before the cutoff
	FindOverdueUnassigned(ctx context.Context, createdBefore time.Time) ([]Lead, error)

	// FindStale finds leads sitting in NEW or CONTACTED untouched since
	// the cutoff
	FindStale(ctx context.Context, updatedBefore time.Time) ([]Lead, error)

	// Save creates or updates a lead
	Save(ctx context.Context, lead *Lead) error

	// SaveWithLock saves a lead with an optimistic version check and fails
	// on concurrent modification
	SaveWithLock(ctx context.Context, lead *Lead) error

	// Count counts non-deleted leads matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
