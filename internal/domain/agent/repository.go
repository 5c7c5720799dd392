package agent

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for travel agents.
type Repository interface {
	Save(ctx context.Context, a *Agent) error
	Update(ctx context.Context, a *Agent) error
	FindByID(ctx context.Context, id uuid.UUID) (*Agent, error)
	ListAll(ctx context.Context) ([]*Agent, error)
}
