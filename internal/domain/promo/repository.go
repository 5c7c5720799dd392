package promo

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for promotions. The quota-used
// counter is not writable through it: only the booking repository's
// transactional operations move that column.
type Repository interface {
	Save(ctx context.Context, p *Promo) error
	Update(ctx context.Context, p *Promo) error
	FindByID(ctx context.Context, id uuid.UUID) (*Promo, error)
	FindByEvent(ctx context.Context, eventID uuid.UUID) ([]*Promo, error)
	FindActive(ctx context.Context) ([]*Promo, error)
	ListAll(ctx context.Context) ([]*Promo, error)
}
