package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/travelfair/service-promo/internal/domain"
	agentDomain "github.com/travelfair/service-promo/internal/domain/agent"
)

// AgentModel is the GORM model for the travel_agents table.
type AgentModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name           string    `gorm:"type:varchar(255);not null"`
	QuotaAllocated int       `gorm:"not null;default:0"`
	IsActive       bool      `gorm:"not null;default:true"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (AgentModel) TableName() string { return "travel_agents" }

// GormAgentRepository implements agent.Repository using GORM.
type GormAgentRepository struct {
	db *gorm.DB
}

// NewGormAgentRepository creates a new GormAgentRepository.
func NewGormAgentRepository(db *gorm.DB) *GormAgentRepository {
	return &GormAgentRepository{db: db}
}

// Save persists a new agent.
func (r *GormAgentRepository) Save(ctx context.Context, a *agentDomain.Agent) error {
	model := toAgentModel(a)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update persists agent edits.
func (r *GormAgentRepository) Update(ctx context.Context, a *agentDomain.Agent) error {
	model := toAgentModel(a)
	result := r.db.WithContext(ctx).
		Model(&AgentModel{}).
		Where("id = ?", model.ID).
		Select("Name", "QuotaAllocated", "IsActive", "UpdatedAt").
		Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Agent", model.ID.String())
	}
	return nil
}

// FindByID returns an agent by ID.
func (r *GormAgentRepository) FindByID(ctx context.Context, id uuid.UUID) (*agentDomain.Agent, error) {
	var model AgentModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Agent", id.String())
		}
		return nil, err
	}
	return toAgentDomain(&model), nil
}

// ListAll returns every agent.
func (r *GormAgentRepository) ListAll(ctx context.Context) ([]*agentDomain.Agent, error) {
	var models []AgentModel
	if err := r.db.WithContext(ctx).Order("name").Find(&models).Error; err != nil {
		return nil, err
	}
	agents := make([]*agentDomain.Agent, len(models))
	for i := range models {
		agents[i] = toAgentDomain(&models[i])
	}
	return agents, nil
}

func toAgentModel(a *agentDomain.Agent) AgentModel {
	return AgentModel{
		ID:             a.ID(),
		Name:           a.Name(),
		QuotaAllocated: a.QuotaAllocated(),
		IsActive:       a.IsActive(),
		CreatedAt:      a.CreatedAt(),
		UpdatedAt:      a.UpdatedAt(),
	}
}

func toAgentDomain(m *AgentModel) *agentDomain.Agent {
	return agentDomain.Reconstruct(m.ID, m.Name, m.QuotaAllocated, m.IsActive, m.CreatedAt, m.UpdatedAt)
}
