package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/travelfair/service-promo/internal/domain/event"
)

// CreateEventRequest is the DTO for creating a travel fair event.
type CreateEventRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	EndDate     time.Time `json:"end_date" binding:"required"`
}

// UpdateEventRequest is the DTO for editing a travel fair event.
type UpdateEventRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	EndDate     time.Time `json:"end_date" binding:"required"`
	IsActive    bool      `json:"is_active"`
}

// EventDTO is the API response DTO for event data.
type EventDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventService is the application service for travel fair event administration.
type EventService struct {
	events event.Repository
	logger *zap.Logger
}

// NewEventService creates a new EventService.
func NewEventService(events event.Repository, logger *zap.Logger) *EventService {
	return &EventService{events: events, logger: logger}
}

// CreateEvent registers a new travel fair event.
func (s *EventService) CreateEvent(ctx context.Context, req CreateEventRequest) (*EventDTO, error) {
	e, err := event.NewEvent(req.Name, req.Description, req.Location, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if err := s.events.Save(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info("event created",
		zap.String("event_id", e.ID().String()),
		zap.String("name", e.Name()),
	)

	dto := toEventDTO(e)
	return &dto, nil
}

// UpdateEvent edits a travel fair event.
func (s *EventService) UpdateEvent(ctx context.Context, eventID uuid.UUID, req UpdateEventRequest) (*EventDTO, error) {
	e, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := e.Update(req.Name, req.Description, req.Location, req.StartDate, req.EndDate, req.IsActive); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, e); err != nil {
		return nil, err
	}
	dto := toEventDTO(e)
	return &dto, nil
}

// GetEvent returns one event.
func (s *EventService) GetEvent(ctx context.Context, eventID uuid.UUID) (*EventDTO, error) {
	e, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	dto := toEventDTO(e)
	return &dto, nil
}

// ListEvents returns every event.
func (s *EventService) ListEvents(ctx context.Context) ([]EventDTO, error) {
	items, err := s.events.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]EventDTO, len(items))
	for i, e := range items {
		dtos[i] = toEventDTO(e)
	}
	return dtos, nil
}

func toEventDTO(e *event.Event) EventDTO {
	return EventDTO{
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
