package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/leadpipe/backend/internal/domain/shared"
	"github.com/leadpipe/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLeadRepository implements LeadRepository using GORM
type GormLeadRepository struct {
	db *gorm.DB
}

// NewGormLeadRepository creates a new GormLeadRepository
func NewGormLeadRepository(db *gorm.DB) *GormLeadRepository {
	return &GormLeadRepository{db: db}
}

func (r *GormLeadRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

// FindByID finds a non-deleted lead by its ID
func (r *GormLeadRepository) FindByID(ctx context.Context, id uuid.UUID) (*crm.Lead, error) {
	var model models.LeadModel
	if err := r.conn(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByEmail finds a non-deleted lead by email
func (r *GormLeadRepository) FindByEmail(ctx context.Context, email string) (*crm.Lead, error) {
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	var model models.LeadModel
	if err := r.conn(ctx).
		Where("email = ? AND deleted_at IS NULL", email).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPhone finds a non-deleted lead by phone
func (r *GormLeadRepository) FindByPhone(ctx context.Context, phone string) (*crm.Lead, error) {
	if phone == "" {
		return nil, shared.NewDomainError("INVALID_PHONE", "Phone cannot be empty")
	}
	var model models.LeadModel
	if err := r.conn(ctx).
		Where("phone = ? AND deleted_at IS NULL", phone).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all non-deleted leads matching the filter
func (r *GormLeadRepository) FindAll(ctx context.Context, filter shared.Filter) ([]crm.Lead, error) {
	var leadModels []models.LeadModel
	query := r.applyFilter(r.conn(ctx).Model(&models.LeadModel{}).Where("deleted_at IS NULL"), filter)

	if err := query.Find(&leadModels).Error; err != nil {
		return nil, err
	}

	leads := make([]crm.Lead, len(leadModels))
	for i, model := range leadModels {
		leads[i] = *model.ToDomain()
	}
	return leads, nil
}

// FindAssigned finds the non-terminal leads currently assigned to an agent
func (r *GormLeadRepository) FindAssigned(ctx context.Context, agentID uuid.UUID) ([]crm.Lead, error) {
	var leadModels []models.LeadModel
	if err := r.conn(ctx).
		Where("assigned_agent = ? AND deleted_at IS NULL AND stage NOT IN ?",
			agentID, terminalLeadStages()).
		Find(&leadModels).Error; err != nil {
		return nil, err
	}

	leads := make([]crm.Lead, len(leadModels))
	for i, model := range leadModels {
		leads[i] = *model.ToDomain()
	}
	return leads, nil
}

// CountAssigned counts the non-terminal leads currently assigned to an
// agent, computed fresh from stored rows
func (r *GormLeadRepository) CountAssigned(ctx context.Context, agentID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.LeadModel{}).
		Where("assigned_agent = ? AND deleted_at IS NULL AND stage NOT IN ?",
			agentID, terminalLeadStages()).
		Count(&count).Error
	return count, err
}

// FindOverdueUnassigned finds non-terminal unassigned leads created before the cutoff
func (r *GormLeadRepository) FindOverdueUnassigned(ctx context.Context, createdBefore time.Time) ([]crm.Lead, error) {
	var leadModels []models.LeadModel
	if err := r.conn(ctx).
		Where("assigned_agent IS NULL AND deleted_at IS NULL AND stage NOT IN ? AND created_at < ?",
			terminalLeadStages(), createdBefore).
		Find(&leadModels).Error; err != nil {
		return nil, err
	}

	leads := make([]crm.Lead, len(leadModels))
	for i, model := range leadModels {
		leads[i] = *model.ToDomain()
	}
	return leads, nil
}

// FindStale finds leads sitting in NEW or CONTACTED untouched since the cutoff
func (r *GormLeadRepository) FindStale(ctx context.Context, updatedBefore time.Time) ([]crm.Lead, error) {
	var leadModels []models.LeadModel
	if err := r.conn(ctx).
		Where("deleted_at IS NULL AND stage IN ? AND updated_at < ?",
			[]string{crm.LeadStageNew.String(), crm.LeadStageContacted.String()}, updatedBefore).
		Find(&leadModels).Error; err != nil {
		return nil, err
	}

	leads := make([]crm.Lead, len(leadModels))
	for i, model := range leadModels {
		leads[i] = *model.ToDomain()
	}
	return leads, nil
}

// Save creates or updates a lead
func (r *GormLeadRepository) Save(ctx context.Context, lead *crm.Lead) error {
	model := models.LeadModelFromDomain(lead)
	return r.conn(ctx).Save(model).Error
}

// SaveWithLock saves a lead with optimistic locking (version check)
func (r *GormLeadRepository) SaveWithLock(ctx context.Context, lead *crm.Lead) error {
	lead.IncrementVersion()
	model := models.LeadModelFromDomain(lead)

	result := r.conn(ctx).
		Model(&models.LeadModel{}).
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

// Count counts non-deleted leads matching the filter
func (r *GormLeadRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.conn(ctx).Model(&models.LeadModel{}).Where("deleted_at IS NULL"), filter)
	err := query.Count(&count).Error
	return count, err
}

func (r *GormLeadRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

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

func (r *GormLeadRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("full_name LIKE ? OR phone LIKE ? OR email LIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "stage":
			query = query.Where("stage = ?", value)
		case "source":
			query = query.Where("source = ?", value)
		case "assigned_agent":
			query = query.Where("assigned_agent = ?", value)
		}
	}

	return query
}

func terminalLeadStages() []string {
	return []string{crm.LeadStageTransferred.String(), crm.LeadStageLost.String()}
}

// Ensure GormLeadRepository implements LeadRepository
var _ crm.LeadRepository = (*GormLeadRepository)(nil)
