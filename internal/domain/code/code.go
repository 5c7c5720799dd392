package code

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/travelfair/service-promo/internal/domain"
)

// GuaranteedCode is the aggregate root for a single-use VIP redemption code.
// A code is claimed at most once, irreversibly; its validity window is
// independent of the owning promo's window.
type GuaranteedCode struct {
	id        uuid.UUID
	code      string // normalized upper-case
	promoID   uuid.UUID
	validFrom time.Time
	validTo   time.Time
	isUsed    bool
	usedBy    string
	usedAt    *time.Time
	createdAt time.Time
	updatedAt time.Time
}

// Normalize maps a user-entered code to its canonical form.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// NewGuaranteedCode creates an unclaimed code.
func NewGuaranteedCode(raw string, promoID uuid.UUID, validFrom, validTo time.Time) (*GuaranteedCode, error) {
	normalized := Normalize(raw)
	if normalized == "" {
		return nil, domain.NewValidationError("code is required")
	}
	if validTo.Before(validFrom) {
		return nil, domain.NewValidationError("valid_to must not be before valid_from")
	}

	now := time.Now().UTC()
	return &GuaranteedCode{
		id:        uuid.New(),
		code:      normalized,
		promoID:   promoID,
		validFrom: validFrom,
		validTo:   validTo,
		isUsed:    false,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct rebuilds a GuaranteedCode from persistence.
func Reconstruct(id uuid.UUID, codeStr string, promoID uuid.UUID, validFrom, validTo time.Time, isUsed bool, usedBy string, usedAt *time.Time, createdAt, updatedAt time.Time) *GuaranteedCode {
	return &GuaranteedCode{
		id: id, code: codeStr, promoID: promoID,
		validFrom: validFrom, validTo: validTo,
		isUsed: isUsed, usedBy: usedBy, usedAt: usedAt,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// InWindowAt reports whether the calendar date of now falls inside the code's
// inclusive validity window.
func (c *GuaranteedCode) InWindowAt(now time.Time) bool {
	d := dateOf(now)
	return !d.Before(dateOf(c.validFrom)) && !d.After(dateOf(c.validTo))
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Redeemable reports whether a claim at now would succeed.
func (c *GuaranteedCode) Redeemable(now time.Time) bool {
	return !c.isUsed && c.InWindowAt(now)
}

// Claim consumes the code for claimant. Exactly one claim ever succeeds; the
// repository makes the transition atomic against concurrent claimants.
func (c *GuaranteedCode) Claim(claimant string, now time.Time) error {
	if c.isUsed {
		return domain.ErrCodeAlreadyClaimed
	}
	if !c.InWindowAt(now) {
		return domain.ErrCodeOutOfWindow
	}
	usedAt := now.UTC()
	c.isUsed = true
	c.usedBy = claimant
	c.usedAt = &usedAt
	c.updatedAt = usedAt
	return nil
}

// Unclaim reverts a claim. Only booking-submission compensation may call this;
// voiding a booking never restores its code.
func (c *GuaranteedCode) Unclaim() {
	c.isUsed = false
	c.usedBy = ""
	c.usedAt = nil
	c.updatedAt = time.Now().UTC()
}

// UpdateWindow changes the validity window of an unclaimed code.
func (c *GuaranteedCode) UpdateWindow(validFrom, validTo time.Time) error {
	if c.isUsed {
		return domain.ErrCodeImmutable
	}
	if validTo.Before(validFrom) {
		return domain.NewValidationError("valid_to must not be before valid_from")
	}
	c.validFrom = validFrom
	c.validTo = validTo
	c.updatedAt = time.Now().UTC()
	return nil
}

// Getters.
func (c *GuaranteedCode) ID() uuid.UUID        { return c.id }
func (c *GuaranteedCode) Code() string         { return c.code }
func (c *GuaranteedCode) PromoID() uuid.UUID   { return c.promoID }
func (c *GuaranteedCode) ValidFrom() time.Time { return c.validFrom }
func (c *GuaranteedCode) ValidTo() time.Time   { return c.validTo }
func (c *GuaranteedCode) IsUsed() bool         { return c.isUsed }
func (c *GuaranteedCode) UsedBy() string       { return c.usedBy }
func (c *GuaranteedCode) UsedAt() *time.Time   { return c.usedAt }
func (c *GuaranteedCode) CreatedAt() time.Time { return c.createdAt }
func (c *GuaranteedCode) UpdatedAt() time.Time { return c.updatedAt }
