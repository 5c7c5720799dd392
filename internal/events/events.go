package events

import (
	"time"

	"github.com/google/uuid"
)

// Topic carrying booking lifecycle events for downstream consumers
// (reporting, export, reconciliation).
const TopicBookingEvents = "promo.booking.events"

// Event types.
const (
	BookingConfirmed = "promo.booking.confirmed"
	BookingVoided    = "promo.booking.voided"
)

// BookingConfirmedEvent is published after a booking commits.
type BookingConfirmedEvent struct {
	BookingID      uuid.UUID `json:"booking_id"`
	BookingNumber  string    `json:"booking_number"`
	PromoID        uuid.UUID `json:"promo_id"`
	PromoKind      string    `json:"promo_kind"`
	AgentID        uuid.UUID `json:"agent_id"`
	OperatorID     uuid.UUID `json:"operator_id"`
	TicketAmount   int64     `json:"ticket_amount"`
	CashbackAmount int64     `json:"cashback_amount"`
	GuaranteedCode *string   `json:"guaranteed_code,omitempty"`
	BookedAt       time.Time `json:"booked_at"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// BookingVoidedEvent is published after a booking is voided and its quota
// unit released. The guaranteed code, when any, stays consumed.
type BookingVoidedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	PromoID       uuid.UUID `json:"promo_id"`
	AgentID       uuid.UUID `json:"agent_id"`
	VoidedBy      uuid.UUID `json:"voided_by"`
	OccurredAt    time.Time `json:"occurred_at"`
}
