package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/travelfair/service-promo/internal/domain"
	eventDomain "github.com/travelfair/service-promo/internal/domain/event"
)

// EventModel is the GORM model for the events table.
type EventModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	Location    string    `gorm:"type:varchar(255)"`
	StartDate   time.Time `gorm:"type:date;not null"`
	EndDate     time.Time `gorm:"type:date;not null"`
	IsActive    bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (EventModel) TableName() string { return "events" }

// GormEventRepository implements event.Repository using GORM.
type GormEventRepository struct {
	db *gorm.DB
}

// NewGormEventRepository creates a new GormEventRepository.
func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// Save persists a new event.
func (r *GormEventRepository) Save(ctx context.Context, e *eventDomain.Event) error {
	model := toEventModel(e)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update persists event edits.
func (r *GormEventRepository) Update(ctx context.Context, e *eventDomain.Event) error {
	model := toEventModel(e)
	result := r.db.WithContext(ctx).
		Model(&EventModel{}).
		Where("id = ?", model.ID).
		Select("Name", "Description", "Location", "StartDate", "EndDate", "IsActive", "UpdatedAt").
		Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Event", model.ID.String())
	}
	return nil
}

// FindByID returns an event by ID.
func (r *GormEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*eventDomain.Event, error) {
	var model EventModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Event", id.String())
		}
		return nil, err
	}
	return toEventDomain(&model), nil
}

// ListAll returns every event.
func (r *GormEventRepository) ListAll(ctx context.Context) ([]*eventDomain.Event, error) {
	var models []EventModel
	if err := r.db.WithContext(ctx).Order("start_date DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	events := make([]*eventDomain.Event, len(models))
	for i := range models {
		events[i] = toEventDomain(&models[i])
	}
	return events, nil
}

func toEventModel(e *eventDomain.Event) EventModel {
	return EventModel{
		ID:          e.ID(),
		Name:        e.Name(),
		Description: e.Description(),
		Location:    e.Location(),
		StartDate:   e.StartDate(),
		EndDate:     e.EndDate(),
		IsActive:    e.IsActive(),
		CreatedAt:   e.CreatedAt(),
		UpdatedAt:   e.UpdatedAt(),
	}
}

func toEventDomain(m *EventModel) *eventDomain.Event {
	return eventDomain.Reconstruct(
		m.ID, m.Name, m.Description, m.Location,
		m.StartDate, m.EndDate, m.IsActive,
		m.CreatedAt, m.UpdatedAt,
	)
}
