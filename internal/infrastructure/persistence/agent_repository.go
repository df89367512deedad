package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/leadpipe/backend/internal/domain/shared"
	"github.com/leadpipe/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAgentRepository implements AgentRepository using GORM
type GormAgentRepository struct {
	db *gorm.DB
}

// NewGormAgentRepository creates a new GormAgentRepository
func NewGormAgentRepository(db *gorm.DB) *GormAgentRepository {
	return &GormAgentRepository{db: db}
}

func (r *GormAgentRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

// FindByID finds an agent by its ID
func (r *GormAgentRepository) FindByID(ctx context.Context, id uuid.UUID) (*crm.Agent, error) {
	var model models.AgentModel
	if err := r.conn(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds an agent and takes a row-level lock on it for the
// duration of the surrounding transaction
func (r *GormAgentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*crm.Agent, error) {
	var model models.AgentModel
	if err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all agents matching the filter
func (r *GormAgentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]crm.Agent, error) {
	var agentModels []models.AgentModel
	query := r.conn(ctx).Model(&models.AgentModel{}).Order("created_at ASC")

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&agentModels).Error; err != nil {
		return nil, err
	}

	agents := make([]crm.Agent, len(agentModels))
	for i, model := range agentModels {
		agents[i] = *model.ToDomain()
	}
	return agents, nil
}

// FindActive finds all active agents
func (r *GormAgentRepository) FindActive(ctx context.Context) ([]crm.Agent, error) {
	var agentModels []models.AgentModel
	if err := r.conn(ctx).
		Where("active = ?", true).
		Order("created_at ASC").
		Find(&agentModels).Error; err != nil {
		return nil, err
	}

	agents := make([]crm.Agent, len(agentModels))
	for i, model := range agentModels {
		agents[i] = *model.ToDomain()
	}
	return agents, nil
}

// Save creates or updates an agent
func (r *GormAgentRepository) Save(ctx context.Context, agent *crm.Agent) error {
	model := models.AgentModelFromDomain(agent)
	return r.conn(ctx).Save(model).Error
}

// SaveWithLock saves an agent with optimistic locking (version check)
func (r *GormAgentRepository) SaveWithLock(ctx context.Context, agent *crm.Agent) error {
	agent.IncrementVersion()
	model := models.AgentModelFromDomain(agent)

	result := r.conn(ctx).
		Model(&models.AgentModel{}).
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

// Ensure GormAgentRepository implements AgentRepository
var _ crm.AgentRepository = (*GormAgentRepository)(nil)
