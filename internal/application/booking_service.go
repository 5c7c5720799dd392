package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/travelfair/service-promo/internal/domain"
	"github.com/travelfair/service-promo/internal/domain/agent"
	"github.com/travelfair/service-promo/internal/domain/booking"
	"github.com/travelfair/service-promo/internal/domain/code"
	"github.com/travelfair/service-promo/internal/domain/event"
	"github.com/travelfair/service-promo/internal/domain/promo"
	"github.com/travelfair/service-promo/internal/events"
	"github.com/travelfair/service-promo/internal/kafka"
	"github.com/travelfair/service-promo/internal/saga"
)

const eventSource = "service-promo"

// SubmitBookingRequest is the DTO for recording a sale at the terminal.
type SubmitBookingRequest struct {
	PromoID        uuid.UUID `json:"promo_id" binding:"required"`
	CustomerName   string    `json:"customer_name" binding:"required"`
	CustomerPhone  string    `json:"customer_phone"`
	CustomerEmail  string    `json:"customer_email"`
	TicketAmount   int64     `json:"ticket_amount" binding:"required,gt=0"`
	GuaranteedCode *string   `json:"guaranteed_code,omitempty"`
	Notes          string    `json:"notes"`
}

// ListBookingsQuery narrows and pages the booking list.
type ListBookingsQuery struct {
	AgentID  *uuid.UUID
	PromoID  *uuid.UUID
	Status   *string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	Limit    int
}

// BookingDTO is the API response DTO for booking data.
type BookingDTO struct {
	ID             uuid.UUID        `json:"id"`
	Number         string           `json:"number"`
	BookedAt       time.Time        `json:"booked_at"`
	AgentID        uuid.UUID        `json:"agent_id"`
	AgentName      string           `json:"agent_name"`
	OperatorID     uuid.UUID        `json:"operator_id"`
	OperatorName   string           `json:"operator_name"`
	Customer       booking.Customer `json:"customer"`
	TicketAmount   int64            `json:"ticket_amount"`
	PromoID        uuid.UUID        `json:"promo_id"`
	PromoName      string           `json:"promo_name"`
	PromoKind      string           `json:"promo_kind"`
	GuaranteedCode *string          `json:"guaranteed_code,omitempty"`
	CashbackAmount int64            `json:"cashback_amount"`
	Status         string           `json:"status"`
	Notes          string           `json:"notes,omitempty"`
	VoidedAt       *time.Time       `json:"voided_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// BookingService orchestrates the booking lifecycle: submission with its
// claim-then-reserve-then-persist sequence, voiding, and reads.
type BookingService struct {
	bookings booking.Repository
	promos   promo.Repository
	codes    code.Registry
	agents   agent.Repository
	fairs    event.Repository
	producer *kafka.Producer
	logger   *zap.Logger
	now      func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings booking.Repository,
	promos promo.Repository,
	codes code.Registry,
	agents agent.Repository,
	fairs event.Repository,
	producer *kafka.Producer,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		promos:   promos,
		codes:    codes,
		agents:   agents,
		fairs:    fairs,
		producer: producer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SubmitBooking records a confirmed sale. Validation runs up front so nothing
// is mutated for a doomed request; the mutating sequence (claim the code, then
// the quota-reserving insert) runs as a saga so a failed insert unwinds the
// claim. A compensation failure leaves the store partially mutated and is
// surfaced as a storage fault for manual reconciliation.
func (s *BookingService) SubmitBooking(ctx context.Context, agentID, operatorID uuid.UUID, operatorName string, req SubmitBookingRequest) (*BookingDTO, error) {
	now := s.now()

	p, err := s.promos.FindByID(ctx, req.PromoID)
	if err != nil {
		return nil, err
	}
	if !p.BookableAt(now) {
		return nil, domain.ErrPromotionInactive
	}

	fair, err := s.fairs.FindByID(ctx, p.EventID())
	if err != nil {
		return nil, err
	}
	if !fair.IsActive() {
		return nil, domain.ErrPromotionInactive
	}

	a, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !a.IsActive() {
		return nil, domain.NewValidationError("travel agent is inactive")
	}

	cashback := p.CashbackFor(req.TicketAmount)
	if cashback == 0 {
		return nil, domain.ErrAmountBelowThreshold
	}

	var normalized string
	if p.Kind() == promo.KindGuaranteedCode {
		if req.GuaranteedCode == nil || code.Normalize(*req.GuaranteedCode) == "" {
			return nil, domain.NewValidationError("a guaranteed code is required for this promotion")
		}
		normalized = code.Normalize(*req.GuaranteedCode)

		c, err := s.codes.FindByCode(ctx, normalized)
		if err != nil {
			return nil, err
		}
		if c.PromoID() != p.ID() {
			return nil, domain.ErrCodeNotFound
		}
	} else if req.GuaranteedCode != nil {
		return nil, domain.NewValidationError("this promotion does not accept guaranteed codes")
	}

	var codeRef *string
	if normalized != "" {
		codeRef = &normalized
	}

	b, err := booking.NewBooking(agentID, a.Name(), operatorID, operatorName, booking.Customer{
		Name:  req.CustomerName,
		Phone: req.CustomerPhone,
		Email: req.CustomerEmail,
	}, req.TicketAmount, p, codeRef, cashback, req.Notes, now)
	if err != nil {
		return nil, err
	}

	submission := saga.New("submit_booking", s.logger)

	if normalized != "" {
		claimant := fmt.Sprintf("%s (%s)", b.Customer().Name, b.Number())
		submission.AddStep(saga.Step{
			Name: "claim_code",
			Execute: func(ctx context.Context) error {
				_, err := s.codes.Claim(ctx, normalized, claimant, now)
				return err
			},
			Compensate: func(ctx context.Context) error {
				return s.codes.Unclaim(ctx, normalized)
			},
		})
	}

	// Quota check and booking insert are one store transaction, so nothing
	// can slip between the per-agent count and the write.
	submission.AddStep(saga.Step{
		Name: "record_booking",
		Execute: func(ctx context.Context) error {
			return s.bookings.SaveReserved(ctx, b)
		},
		Compensate: nil,
	})

	if err := submission.Execute(ctx); err != nil {
		var compErr *saga.CompensationError
		if errors.As(err, &compErr) {
			s.logger.Error("booking submission left partial state, manual reconciliation required",
				zap.String("booking_number", b.Number()),
				zap.String("promo_id", p.ID().String()),
				zap.Strings("unrecovered_steps", compErr.Unrecovered),
				zap.Error(err),
			)
			return nil, domain.NewStorageFault("submit booking", err)
		}
		return nil, err
	}

	s.logger.Info("booking confirmed",
		zap.String("booking_number", b.Number()),
		zap.String("promo_id", p.ID().String()),
		zap.String("agent_id", agentID.String()),
		zap.Int64("ticket_amount", b.TicketAmount()),
		zap.Int64("cashback_amount", b.CashbackAmount()),
	)

	s.publishConfirmed(ctx, b)

	dto := toBookingDTO(b)
	return &dto, nil
}

// VoidBooking transitions a booking to voided and returns its quota unit to
// the promo's global pool. The guaranteed code, when any, stays consumed.
// agentScope restricts non-administrator callers to their own agency.
func (s *BookingService) VoidBooking(ctx context.Context, bookingID, voidedBy uuid.UUID, agentScope *uuid.UUID) (*BookingDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if agentScope != nil && b.AgentID() != *agentScope {
		return nil, domain.NewNotFoundError("Booking", bookingID.String())
	}

	if err := b.Void(); err != nil {
		return nil, err
	}
	// Conditional on the stored row still being confirmed: a racing void loses
	// here with ErrAlreadyVoided, and the quota unit is released exactly once,
	// in the same transaction as the status flip.
	if err := s.bookings.MarkVoided(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("booking voided",
		zap.String("booking_number", b.Number()),
		zap.String("voided_by", voidedBy.String()),
	)

	s.publishVoided(ctx, b, voidedBy)

	dto := toBookingDTO(b)
	return &dto, nil
}

// GetBooking returns one booking. agentScope restricts non-administrator
// callers to their own agency.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID, agentScope *uuid.UUID) (*BookingDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if agentScope != nil && b.AgentID() != *agentScope {
		return nil, domain.NewNotFoundError("Booking", bookingID.String())
	}
	dto := toBookingDTO(b)
	return &dto, nil
}

// ListBookings returns a filtered page of bookings, newest first, plus the
// total match count.
func (s *BookingService) ListBookings(ctx context.Context, q ListBookingsQuery) ([]BookingDTO, int64, error) {
	filter, err := toFilter(q)
	if err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(q.Page, q.Limit)
	items, total, err := s.bookings.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]BookingDTO, len(items))
	for i, b := range items {
		dtos[i] = toBookingDTO(b)
	}
	return dtos, total, nil
}

// GetStats returns the dashboard aggregates for the given filter.
func (s *BookingService) GetStats(ctx context.Context, q ListBookingsQuery) (*booking.Stats, error) {
	filter, err := toFilter(q)
	if err != nil {
		return nil, err
	}
	return s.bookings.GetStats(ctx, filter)
}

func (s *BookingService) publishConfirmed(ctx context.Context, b *booking.Booking) {
	event := events.BookingConfirmedEvent{
		BookingID:      b.ID(),
		BookingNumber:  b.Number(),
		PromoID:        b.PromoID(),
		PromoKind:      string(b.PromoKind()),
		AgentID:        b.AgentID(),
		OperatorID:     b.OperatorID(),
		TicketAmount:   b.TicketAmount(),
		CashbackAmount: b.CashbackAmount(),
		GuaranteedCode: b.GuaranteedCode(),
		BookedAt:       b.BookedAt(),
		OccurredAt:     s.now(),
	}
	s.publish(ctx, events.BookingConfirmed, event)
}

func (s *BookingService) publishVoided(ctx context.Context, b *booking.Booking, voidedBy uuid.UUID) {
	event := events.BookingVoidedEvent{
		BookingID:     b.ID(),
		BookingNumber: b.Number(),
		PromoID:       b.PromoID(),
		AgentID:       b.AgentID(),
		VoidedBy:      voidedBy,
		OccurredAt:    s.now(),
	}
	s.publish(ctx, events.BookingVoided, event)
}

// publish is best effort: the booking is already committed, so a bus outage
// only costs downstream consumers a notification, never the sale.
func (s *BookingService) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.producer == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, payload)
	if err != nil {
		s.logger.Error("failed to create cloud event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.producer.PublishEvent(ctx, events.TopicBookingEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish booking event", zap.String("type", eventType), zap.Error(err))
	}
}

func toFilter(q ListBookingsQuery) (booking.Filter, error) {
	filter := booking.Filter{
		AgentID:  q.AgentID,
		PromoID:  q.PromoID,
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
	}
	if q.Status != nil {
		st := booking.Status(*q.Status)
		if st != booking.StatusConfirmed && st != booking.StatusVoided {
			return booking.Filter{}, domain.NewValidationError("invalid booking status: " + *q.Status)
		}
		filter.Status = &st
	}
	return filter, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func toBookingDTO(b *booking.Booking) BookingDTO {
	return BookingDTO{
		ID:             b.ID(),
		Number:         b.Number(),
		BookedAt:       b.BookedAt(),
		AgentID:        b.AgentID(),
		AgentName:      b.AgentName(),
		OperatorID:     b.OperatorID(),
		OperatorName:   b.OperatorName(),
		Customer:       b.Customer(),
		TicketAmount:   b.TicketAmount(),
		PromoID:        b.PromoID(),
		PromoName:      b.PromoName(),
		PromoKind:      string(b.PromoKind()),
		GuaranteedCode: b.GuaranteedCode(),
		CashbackAmount: b.CashbackAmount(),
		Status:         string(b.Status()),
		Notes:          b.Notes(),
		VoidedAt:       b.VoidedAt(),
		CreatedAt:      b.CreatedAt(),
		UpdatedAt:      b.UpdatedAt(),
	}
}
