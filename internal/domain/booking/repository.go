package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows booking list queries. Zero values mean "no constraint".
type Filter struct {
	AgentID  *uuid.UUID
	PromoID  *uuid.UUID
	Status   *Status
	DateFrom *time.Time
	DateTo   *time.Time
}

// Stats is the aggregate view consumed by the dashboard.
type Stats struct {
	TotalBookings    int64 `json:"total_bookings"`
	TotalCashback    int64 `json:"total_cashback"`
	TotalTicketSales int64 `json:"total_ticket_sales"`
	VoidedBookings   int64 `json:"voided_bookings"`
}

// Repository defines persistence operations for bookings. It is the exclusive
// writer of booking status and of the promo quota counter: both composite
// operations couple the booking write and the counter move in one transaction.
type Repository interface {
	// SaveReserved persists a confirmed booking and consumes one unit of the
	// promo's quota in a single transaction. The promo row is locked first, so
	// the global check, the derived per-agent confirmed count and the insert
	// form one indivisible step: racing submissions for the last unit, or for
	// an agent's last capped slot, see exactly one winner. Fails with
	// domain.ErrQuotaExhausted or domain.ErrAgentQuotaExhausted without
	// writing anything.
	SaveReserved(ctx context.Context, b *Booking) error

	// MarkVoided persists the voided transition and returns the booking's
	// quota unit to the promo's pool, floored at zero, in a single
	// transaction. The status flip is conditional on the stored row still
	// being confirmed, so concurrent voids of the same booking admit exactly
	// one winner; the losers observe domain.ErrAlreadyVoided and the unit is
	// released exactly once.
	MarkVoided(ctx context.Context, b *Booking) error

	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	List(ctx context.Context, filter Filter, page, limit int) ([]*Booking, int64, error)

	// CountConfirmed derives an agent's consumption of a promo by counting
	// its confirmed bookings. Voids self-correct the count.
	CountConfirmed(ctx context.Context, promoID, agentID uuid.UUID) (int64, error)

	// CountConfirmedByAgent reports an agent's aggregate confirmed bookings
	// across all promos, for the organizational allocation report.
	CountConfirmedByAgent(ctx context.Context, agentID uuid.UUID) (int64, error)

	GetStats(ctx context.Context, filter Filter) (*Stats, error)
}
