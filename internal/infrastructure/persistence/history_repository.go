package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/leadpipe/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormHistoryRepository implements HistoryRepository using GORM.
// The ledger is insert-only: no update or delete path exists.
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a new GormHistoryRepository
func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

func (r *GormHistoryRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

// Append writes one record to the ledger
func (r *GormHistoryRepository) Append(ctx context.Context, record *crm.HistoryRecord) error {
	model := models.HistoryModelFromDomain(record)
	return r.conn(ctx).Create(model).Error
}

// FindByEntity returns the ledger for an entity, newest first
func (r *GormHistoryRepository) FindByEntity(ctx context.Context, entityType crm.HistoryEntityType, entityID uuid.UUID) ([]crm.HistoryRecord, error) {
	var historyModels []models.HistoryModel
	if err := r.conn(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&historyModels).Error; err != nil {
		return nil, err
	}

	records := make([]crm.HistoryRecord, len(historyModels))
	for i, model := range historyModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// CountByEntity counts the ledger entries for an entity
func (r *GormHistoryRepository) CountByEntity(ctx context.Context, entityType crm.HistoryEntityType, entityID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.HistoryModel{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Count(&count).Error
	return count, err
}

// Ensure GormHistoryRepository implements HistoryRepository
var _ crm.HistoryRepository = (*GormHistoryRepository)(nil)
