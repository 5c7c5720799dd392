package event

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for travel fair events.
type Repository interface {
	Save(ctx context.Context, e *Event) error
	Update(ctx context.Context, e *Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*Event, error)
	ListAll(ctx context.Context) ([]*Event, error)
}
