package shared

import "context"

// TransactionManager runs a unit of work atomically. Every mutating
// application operation (stage transition, rollback, transfer, assignment)
// executes inside a single Do call: entity mutation, history append and
// counter recompute commit or fail together.
//
// Implementations must guarantee at most one in-flight mutation per entity
// id (row-level or optimistic-version locking), so concurrent requests for
// the same aggregate cannot interleave into inconsistent history.
type TransactionManager interface {
	// Do executes fn within a transaction. The context passed to fn carries
	// the transaction handle; repositories resolve it to join the same
	// transaction.
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
