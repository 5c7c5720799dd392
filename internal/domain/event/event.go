package event

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/travelfair/service-promo/internal/domain"
)

// Event is a time-boxed travel fair under which promos run. The engine only
// consults its active flag; scheduling beyond that is out of scope.
type Event struct {
	id          uuid.UUID
	name        string
	description string
	location    string
	startDate   time.Time
	endDate     time.Time
	isActive    bool
	createdAt   time.Time
	updatedAt   time.Time
}

// NewEvent creates an active event.
func NewEvent(name, description, location string, startDate, endDate time.Time) (*Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("event name is required")
	}
	if endDate.Before(startDate) {
		return nil, domain.NewValidationError("end date must not be before start date")
	}

	now := time.Now().UTC()
	return &Event{
		id:          uuid.New(),
		name:        name,
		description: description,
		location:    location,
		startDate:   startDate,
		endDate:     endDate,
		isActive:    true,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds an Event from persistence.
func Reconstruct(id uuid.UUID, name, description, location string, startDate, endDate time.Time, isActive bool, createdAt, updatedAt time.Time) *Event {
	return &Event{
		id: id, name: name, description: description, location: location,
		startDate: startDate, endDate: endDate,
		isActive: isActive, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// Update replaces the mutable fields.
func (e *Event) Update(name, description, location string, startDate, endDate time.Time, isActive bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError("event name is required")
	}
	if endDate.Before(startDate) {
		return domain.NewValidationError("end date must not be before start date")
	}
	e.name = name
	e.description = description
	e.location = location
	e.startDate = startDate
	e.endDate = endDate
	e.isActive = isActive
	e.updatedAt = time.Now().UTC()
	return nil
}

// Getters.
func (e *Event) ID() uuid.UUID        { return e.id }
func (e *Event) Name() string         { return e.name }
func (e *Event) Description() string  { return e.description }
func (e *Event) Location() string     { return e.location }
func (e *Event) StartDate() time.Time { return e.startDate }
func (e *Event) EndDate() time.Time   { return e.endDate }
func (e *Event) IsActive() bool       { return e.isActive }
func (e *Event) CreatedAt() time.Time { return e.createdAt }
func (e *Event) UpdatedAt() time.Time { return e.updatedAt }
