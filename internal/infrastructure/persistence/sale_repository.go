package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/leadpipe/backend/internal/domain/shared"
	"github.com/leadpipe/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

func (r *GormSaleRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

// FindByID finds a sale by its ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*crm.Sale, error) {
	var model models.SaleModel
	if err := r.conn(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLeadID finds the sale created from a lead
func (r *GormSaleRepository) FindByLeadID(ctx context.Context, leadID uuid.UUID) (*crm.Sale, error) {
	var model models.SaleModel
	if err := r.conn(ctx).First(&model, "lead_id = ?", leadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all sales matching the filter
func (r *GormSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]crm.Sale, error) {
	var saleModels []models.SaleModel
	query := r.applyFilter(r.conn(ctx).Model(&models.SaleModel{}), filter)

	if err := query.Find(&saleModels).Error; err != nil {
		return nil, err
	}

	sales := make([]crm.Sale, len(saleModels))
	for i, model := range saleModels {
		sales[i] = *model.ToDomain()
	}
	return sales, nil
}

// Save creates or updates a sale
func (r *GormSaleRepository) Save(ctx context.Context, sale *crm.Sale) error {
	model := models.SaleModelFromDomain(sale)
	return r.conn(ctx).Save(model).Error
}

// SaveWithLock saves a sale with optimistic locking (version check)
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, sale *crm.Sale) error {
	sale.IncrementVersion()
	model := models.SaleModelFromDomain(sale)

	result := r.conn(ctx).
		Model(&models.SaleModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Select("*").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Count counts sales matching the filter
func (r *GormSaleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.SaleModel{}).Count(&count).Error
	return count, err
}

func (r *GormSaleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "stage":
			query = query.Where("stage = ?", value)
		case "lead_id":
			query = query.Where("lead_id = ?", value)
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// Ensure GormSaleRepository implements SaleRepository
var _ crm.SaleRepository = (*GormSaleRepository)(nil)
