package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/travelfair/service-promo/internal/domain"
	"github.com/travelfair/service-promo/internal/domain/promo"
)

// Status is the booking state machine: confirmed on creation, with a single
// terminal transition to voided.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusVoided    Status = "voided"
)

// Customer holds the contact fields captured at the sales terminal.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Booking is the aggregate root for a recorded, quota-consuming transaction.
// Promo name and kind are captured at booking time so reports stay stable when
// the promo is later edited.
type Booking struct {
	id             uuid.UUID
	number         string
	bookedAt       time.Time
	agentID        uuid.UUID
	agentName      string
	operatorID     uuid.UUID
	operatorName   string
	customer       Customer
	ticketAmount   int64
	promoID        uuid.UUID
	promoName      string
	promoKind      promo.Kind
	guaranteedCode *string
	cashbackAmount int64
	status         Status
	notes          string
	voidedAt       *time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

// NewBooking creates a confirmed booking. The identifier is random, so
// concurrent submissions can never collide on it; the human-facing number is
// derived from it rather than from a count of existing records.
func NewBooking(agentID uuid.UUID, agentName string, operatorID uuid.UUID, operatorName string, customer Customer, ticketAmount int64, p *promo.Promo, guaranteedCode *string, cashbackAmount int64, notes string, now time.Time) (*Booking, error) {
	if strings.TrimSpace(customer.Name) == "" {
		return nil, domain.NewValidationError("customer name is required")
	}
	if ticketAmount <= 0 {
		return nil, domain.NewValidationError("ticket amount must be positive")
	}

	id := uuid.New()
	ts := now.UTC()
	return &Booking{
		id:             id,
		number:         NumberFromID(id),
		bookedAt:       ts,
		agentID:        agentID,
		agentName:      agentName,
		operatorID:     operatorID,
		operatorName:   operatorName,
		customer:       customer,
		ticketAmount:   ticketAmount,
		promoID:        p.ID(),
		promoName:      p.Name(),
		promoKind:      p.Kind(),
		guaranteedCode: guaranteedCode,
		cashbackAmount: cashbackAmount,
		status:         StatusConfirmed,
		notes:          strings.TrimSpace(notes),
		createdAt:      ts,
		updatedAt:      ts,
	}, nil
}

// NumberFromID derives the human-facing booking number from the identifier.
// Twelve hex digits keep the collision odds negligible for any realistic
// booking volume behind the unique index.
func NumberFromID(id uuid.UUID) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	return fmt.Sprintf("TRX-%s", strings.ToUpper(hex[:12]))
}

// Reconstruct rebuilds a Booking from persistence.
func Reconstruct(id uuid.UUID, number string, bookedAt time.Time, agentID uuid.UUID, agentName string, operatorID uuid.UUID, operatorName string, customer Customer, ticketAmount int64, promoID uuid.UUID, promoName string, promoKind promo.Kind, guaranteedCode *string, cashbackAmount int64, status Status, notes string, voidedAt *time.Time, createdAt, updatedAt time.Time) *Booking {
	return &Booking{
		id: id, number: number, bookedAt: bookedAt,
		agentID: agentID, agentName: agentName,
		operatorID: operatorID, operatorName: operatorName,
		customer: customer, ticketAmount: ticketAmount,
		promoID: promoID, promoName: promoName, promoKind: promoKind,
		guaranteedCode: guaranteedCode, cashbackAmount: cashbackAmount,
		status: status, notes: notes, voidedAt: voidedAt,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// Void transitions confirmed -> voided. The transition is terminal: a voided
// booking is immutable and a second void fails with domain.ErrAlreadyVoided.
// The booking's guaranteed code stays permanently consumed.
func (b *Booking) Void() error {
	if b.status == StatusVoided {
		return domain.ErrAlreadyVoided
	}
	now := time.Now().UTC()
	b.status = StatusVoided
	b.voidedAt = &now
	b.updatedAt = now
	return nil
}

// Getters.
func (b *Booking) ID() uuid.UUID           { return b.id }
func (b *Booking) Number() string          { return b.number }
func (b *Booking) BookedAt() time.Time     { return b.bookedAt }
func (b *Booking) AgentID() uuid.UUID      { return b.agentID }
func (b *Booking) AgentName() string       { return b.agentName }
func (b *Booking) OperatorID() uuid.UUID   { return b.operatorID }
func (b *Booking) OperatorName() string    { return b.operatorName }
func (b *Booking) Customer() Customer      { return b.customer }
func (b *Booking) TicketAmount() int64     { return b.ticketAmount }
func (b *Booking) PromoID() uuid.UUID      { return b.promoID }
func (b *Booking) PromoName() string       { return b.promoName }
func (b *Booking) PromoKind() promo.Kind   { return b.promoKind }
func (b *Booking) GuaranteedCode() *string { return b.guaranteedCode }
func (b *Booking) CashbackAmount() int64   { return b.cashbackAmount }
func (b *Booking) Status() Status          { return b.status }
func (b *Booking) Notes() string           { return b.notes }
func (b *Booking) VoidedAt() *time.Time    { return b.voidedAt }
func (b *Booking) CreatedAt() time.Time    { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time    { return b.updatedAt }
