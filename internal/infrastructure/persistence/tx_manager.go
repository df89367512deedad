package persistence

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// GormTxManager implements shared.TransactionManager on a gorm connection.
// The open transaction handle travels in the context so repositories inside
// the callback participate in the same transaction.
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager creates a new GormTxManager
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// Do runs fn inside one database transaction. Nested calls reuse the
// transaction already carried by the context.
func (m *GormTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFromContext returns the transaction handle carried by the context, or
// the fallback connection when no transaction is open
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
