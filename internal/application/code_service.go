package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/travelfair/service-promo/internal/domain"
	"github.com/travelfair/service-promo/internal/domain/code"
	"github.com/travelfair/service-promo/internal/domain/promo"
)

// CreateCodeRequest is the DTO for registering guaranteed codes. Codes is a
// batch so an event's allocation can be loaded in one call.
type CreateCodeRequest struct {
	PromoID   uuid.UUID `json:"promo_id" binding:"required"`
	Codes     []string  `json:"codes" binding:"required,min=1"`
	ValidFrom time.Time `json:"valid_from" binding:"required"`
	ValidTo   time.Time `json:"valid_to" binding:"required"`
}

// UpdateCodeRequest is the DTO for editing an unclaimed code's window.
type UpdateCodeRequest struct {
	ValidFrom time.Time `json:"valid_from" binding:"required"`
	ValidTo   time.Time `json:"valid_to" binding:"required"`
}

// CodeDTO is the API response DTO for guaranteed code data.
type CodeDTO struct {
	ID        uuid.UUID  `json:"id"`
	Code      string     `json:"code"`
	PromoID   uuid.UUID  `json:"promo_id"`
	ValidFrom time.Time  `json:"valid_from"`
	ValidTo   time.Time  `json:"valid_to"`
	IsUsed    bool       `json:"is_used"`
	UsedBy    string     `json:"used_by,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CodeValidationDTO is the terminal's live answer to "is this code usable".
// It never consumes the code; only booking submission does that.
type CodeValidationDTO struct {
	Code    string `json:"code"`
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// CodeService is the application service for guaranteed code administration
// and the terminal's pre-submission validation.
type CodeService struct {
	codes  code.Registry
	promos promo.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewCodeService creates a new CodeService.
func NewCodeService(codes code.Registry, promos promo.Repository, logger *zap.Logger) *CodeService {
	return &CodeService{
		codes:  codes,
		promos: promos,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateCodes registers a batch of codes for a code-gated promo. The batch is
// all or nothing only per code: a duplicate fails that code and stops the
// batch, leaving earlier codes registered.
func (s *CodeService) CreateCodes(ctx context.Context, req CreateCodeRequest) ([]CodeDTO, error) {
	p, err := s.promos.FindByID(ctx, req.PromoID)
	if err != nil {
		return nil, err
	}
	if p.Kind() != promo.KindGuaranteedCode {
		return nil, domain.NewValidationError("codes can only be attached to a guaranteed-code promotion")
	}

	dtos := make([]CodeDTO, 0, len(req.Codes))
	for _, raw := range req.Codes {
		c, err := code.NewGuaranteedCode(raw, p.ID(), req.ValidFrom, req.ValidTo)
		if err != nil {
			return dtos, err
		}
		if err := s.codes.Save(ctx, c); err != nil {
			return dtos, err
		}
		dtos = append(dtos, toCodeDTO(c))
	}

	s.logger.Info("guaranteed codes registered",
		zap.String("promo_id", p.ID().String()),
		zap.Int("count", len(dtos)),
	)
	return dtos, nil
}

// UpdateCode changes an unclaimed code's validity window.
func (s *CodeService) UpdateCode(ctx context.Context, codeID uuid.UUID, req UpdateCodeRequest) (*CodeDTO, error) {
	c, err := s.codes.FindByID(ctx, codeID)
	if err != nil {
		return nil, err
	}
	if err := c.UpdateWindow(req.ValidFrom, req.ValidTo); err != nil {
		return nil, err
	}
	if err := s.codes.Update(ctx, c); err != nil {
		return nil, err
	}
	dto := toCodeDTO(c)
	return &dto, nil
}

// DeleteCode removes an unclaimed code.
func (s *CodeService) DeleteCode(ctx context.Context, codeID uuid.UUID) error {
	return s.codes.Delete(ctx, codeID)
}

// ListCodesByPromo returns every code registered under a promo.
func (s *CodeService) ListCodesByPromo(ctx context.Context, promoID uuid.UUID) ([]CodeDTO, error) {
	items, err := s.codes.FindByPromo(ctx, promoID)
	if err != nil {
		return nil, err
	}
	dtos := make([]CodeDTO, len(items))
	for i, c := range items {
		dtos[i] = toCodeDTO(c)
	}
	return dtos, nil
}

// ValidateCode answers whether a code is currently redeemable under the given
// promo, without consuming it. The answer is advisory: another terminal may
// claim the code between validation and submission, and submission re-checks
// atomically.
func (s *CodeService) ValidateCode(ctx context.Context, promoID uuid.UUID, raw string) (*CodeValidationDTO, error) {
	normalized := code.Normalize(raw)
	if normalized == "" {
		return nil, domain.NewValidationError("code is required")
	}

	c, err := s.codes.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &CodeValidationDTO{Code: normalized, Valid: false, Message: "code not found"}, nil
		}
		return nil, err
	}
	if c.PromoID() != promoID {
		return &CodeValidationDTO{Code: normalized, Valid: false, Message: "code not found"}, nil
	}
	if c.IsUsed() {
		return &CodeValidationDTO{Code: normalized, Valid: false, Message: "code has already been used"}, nil
	}
	if !c.InWindowAt(s.now()) {
		return &CodeValidationDTO{Code: normalized, Valid: false, Message: "code is outside its validity window"}, nil
	}
	return &CodeValidationDTO{Code: normalized, Valid: true, Message: "code is valid"}, nil
}

func toCodeDTO(c *code.GuaranteedCode) CodeDTO {
	return CodeDTO{
		ID:        c.ID(),
		Code:      c.Code(),
		PromoID:   c.PromoID(),
		ValidFrom: c.ValidFrom(),
		ValidTo:   c.ValidTo(),
		IsUsed:    c.IsUsed(),
		UsedBy:    c.UsedBy(),
		UsedAt:    c.UsedAt(),
		CreatedAt: c.CreatedAt(),
		UpdatedAt: c.UpdatedAt(),
	}
}
