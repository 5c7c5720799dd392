package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/travelfair/service-promo/internal/domain/booking"
	"github.com/travelfair/service-promo/internal/domain/promo"
)

// CreatePromoRequest is the DTO for creating a promotion.
type CreatePromoRequest struct {
	EventID       uuid.UUID            `json:"event_id" binding:"required"`
	Name          string               `json:"name" binding:"required"`
	Kind          string               `json:"kind" binding:"required"`
	Description   string               `json:"description"`
	QuotaTotal    int                  `json:"quota_total"`
	QuotaPerAgent *int                 `json:"quota_per_agent,omitempty"`
	Tiers         []promo.CashbackTier `json:"tiers" binding:"required"`
	ValidFrom     time.Time            `json:"valid_from" binding:"required"`
	ValidTo       time.Time            `json:"valid_to" binding:"required"`
}

// UpdatePromoRequest is the DTO for editing a promotion. The consumed quota
// counter is not editable through this path.
type UpdatePromoRequest struct {
	Name          string               `json:"name" binding:"required"`
	Description   string               `json:"description"`
	QuotaTotal    int                  `json:"quota_total"`
	QuotaPerAgent *int                 `json:"quota_per_agent,omitempty"`
	Tiers         []promo.CashbackTier `json:"tiers" binding:"required"`
	ValidFrom     time.Time            `json:"valid_from" binding:"required"`
	ValidTo       time.Time            `json:"valid_to" binding:"required"`
	IsActive      bool                 `json:"is_active"`
}

// PromoDTO is the API response DTO for promotion data.
type PromoDTO struct {
	ID             uuid.UUID            `json:"id"`
	EventID        uuid.UUID            `json:"event_id"`
	Name           string               `json:"name"`
	Kind           string               `json:"kind"`
	Description    string               `json:"description,omitempty"`
	QuotaTotal     int                  `json:"quota_total"`
	QuotaUsed      int                  `json:"quota_used"`
	QuotaRemaining int                  `json:"quota_remaining"`
	QuotaPerAgent  *int                 `json:"quota_per_agent,omitempty"`
	Tiers          []promo.CashbackTier `json:"tiers"`
	ValidFrom      time.Time            `json:"valid_from"`
	ValidTo        time.Time            `json:"valid_to"`
	IsActive       bool                 `json:"is_active"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// CashbackPreviewDTO reports what a ticket amount would earn under a promo.
type CashbackPreviewDTO struct {
	PromoID        uuid.UUID `json:"promo_id"`
	TicketAmount   int64     `json:"ticket_amount"`
	CashbackAmount int64     `json:"cashback_amount"`
	Qualifies      bool      `json:"qualifies"`
}

// QuotaRemainingDTO reports how much capacity a promotion has left, globally
// and for one agent when a per-agent cap applies.
type QuotaRemainingDTO struct {
	PromoID        uuid.UUID `json:"promo_id"`
	QuotaRemaining int       `json:"quota_remaining"`
	AgentRemaining *int      `json:"agent_remaining,omitempty"`
}

// PromoService is the application service for promotion administration and
// catalog reads.
type PromoService struct {
	promos   promo.Repository
	bookings booking.Repository
	logger   *zap.Logger
}

// NewPromoService creates a new PromoService.
func NewPromoService(promos promo.Repository, bookings booking.Repository, logger *zap.Logger) *PromoService {
	return &PromoService{promos: promos, bookings: bookings, logger: logger}
}

// CreatePromo registers a new promotion.
func (s *PromoService) CreatePromo(ctx context.Context, req CreatePromoRequest) (*PromoDTO, error) {
	p, err := promo.NewPromo(req.EventID, req.Name, promo.Kind(req.Kind), req.Description,
		req.QuotaTotal, req.QuotaPerAgent, req.Tiers, req.ValidFrom, req.ValidTo)
	if err != nil {
		return nil, err
	}
	if err := s.promos.Save(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("promo created",
		zap.String("promo_id", p.ID().String()),
		zap.String("name", p.Name()),
		zap.String("kind", string(p.Kind())),
	)

	dto := toPromoDTO(p)
	return &dto, nil
}

// UpdatePromo edits a promotion's schedule. Existing bookings are unaffected.
func (s *PromoService) UpdatePromo(ctx context.Context, promoID uuid.UUID, req UpdatePromoRequest) (*PromoDTO, error) {
	p, err := s.promos.FindByID(ctx, promoID)
	if err != nil {
		return nil, err
	}
	if err := p.Update(req.Name, req.Description, req.QuotaTotal, req.QuotaPerAgent,
		req.Tiers, req.ValidFrom, req.ValidTo, req.IsActive); err != nil {
		return nil, err
	}
	if err := s.promos.Update(ctx, p); err != nil {
		return nil, err
	}

	dto := toPromoDTO(p)
	return &dto, nil
}

// GetPromo returns one promotion with its live quota counters.
func (s *PromoService) GetPromo(ctx context.Context, promoID uuid.UUID) (*PromoDTO, error) {
	p, err := s.promos.FindByID(ctx, promoID)
	if err != nil {
		return nil, err
	}
	dto := toPromoDTO(p)
	return &dto, nil
}

// ListPromos returns every promotion, for administration.
func (s *PromoService) ListPromos(ctx context.Context) ([]PromoDTO, error) {
	items, err := s.promos.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return toPromoDTOs(items), nil
}

// ListActivePromos returns the promotions open for booking, for the terminal.
func (s *PromoService) ListActivePromos(ctx context.Context) ([]PromoDTO, error) {
	items, err := s.promos.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	return toPromoDTOs(items), nil
}

// ListPromosByEvent returns the promotions attached to one event.
func (s *PromoService) ListPromosByEvent(ctx context.Context, eventID uuid.UUID) ([]PromoDTO, error) {
	items, err := s.promos.FindByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return toPromoDTOs(items), nil
}

// RemainingQuota reports a promotion's open capacity for the terminal's promo
// picker. With an agentID and a configured per-agent cap it also reports how
// many bookings that agency can still place. Advisory only, the reservation
// path re-checks atomically.
func (s *PromoService) RemainingQuota(ctx context.Context, promoID uuid.UUID, agentID *uuid.UUID) (*QuotaRemainingDTO, error) {
	p, err := s.promos.FindByID(ctx, promoID)
	if err != nil {
		return nil, err
	}

	dto := &QuotaRemainingDTO{
		PromoID:        p.ID(),
		QuotaRemaining: p.RemainingQuota(),
	}

	if agentID != nil && p.QuotaPerAgent() != nil {
		count, err := s.bookings.CountConfirmed(ctx, p.ID(), *agentID)
		if err != nil {
			return nil, err
		}
		left := *p.QuotaPerAgent() - int(count)
		if left < 0 {
			left = 0
		}
		dto.AgentRemaining = &left
	}
	return dto, nil
}

// PreviewCashback resolves the cashback a ticket amount would earn, so the
// terminal can show it before submission. Read only.
func (s *PromoService) PreviewCashback(ctx context.Context, promoID uuid.UUID, amount int64) (*CashbackPreviewDTO, error) {
	p, err := s.promos.FindByID(ctx, promoID)
	if err != nil {
		return nil, err
	}
	cashback := p.CashbackFor(amount)
	return &CashbackPreviewDTO{
		PromoID:        p.ID(),
		TicketAmount:   amount,
		CashbackAmount: cashback,
		Qualifies:      cashback > 0,
	}, nil
}

func toPromoDTOs(items []*promo.Promo) []PromoDTO {
	dtos := make([]PromoDTO, len(items))
	for i, p := range items {
		dtos[i] = toPromoDTO(p)
	}
	return dtos
}

func toPromoDTO(p *promo.Promo) PromoDTO {
	return PromoDTO{
		ID:             p.ID(),
		EventID:        p.EventID(),
		Name:           p.Name(),
		Kind:           string(p.Kind()),
		Description:    p.Description(),
		QuotaTotal:     p.QuotaTotal(),
		QuotaUsed:      p.QuotaUsed(),
		QuotaRemaining: p.RemainingQuota(),
		QuotaPerAgent:  p.QuotaPerAgent(),
		Tiers:          p.Tiers(),
		ValidFrom:      p.ValidFrom(),
		ValidTo:        p.ValidTo(),
		IsActive:       p.IsActive(),
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
	}
}
