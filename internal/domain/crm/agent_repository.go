package crm

import (
	"context"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/shared"
)

// AgentRepository defines the interface for agent persistence
type AgentRepository interface {
	// FindByID finds an agent by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Agent, error)

	// FindByIDForUpdate finds an agent and takes a row-level lock on it for
	// the duration of the surrounding transaction. Assignment capacity
	// checks go through this so two concurrent assignments to one agent
	// serialize on the row.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Agent, error)

	// FindAll finds all agents matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Agent, error)

	// FindActive finds all active agents
	FindActive(ctx context.Context) ([]Agent, error)

	// Save creates or updates an agent
	Save(ctx context.Context, agent *Agent) error

	// SaveWithLock saves an agent with an optimistic version check and
	// fails on concurrent modification
	SaveWithLock(ctx context.Context, agent *Agent) error
}
