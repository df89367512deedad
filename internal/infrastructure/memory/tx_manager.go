package memory

import (
	"context"
	"sync"
)

// TxManager serializes mutating operations behind a single mutex. There is
// no rollback: callers get the same all-or-nothing guarantee only for the
// race they care about, mutual exclusion of read-check-write sequences.
// Used in tests and dev mode; production uses the gorm transaction manager.
type TxManager struct {
	mu sync.Mutex
}

// NewTxManager creates a new in-memory transaction manager
func NewTxManager() *TxManager {
	return &TxManager{}
}

// Do runs fn while holding the global lock
func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}
