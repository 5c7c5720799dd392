package promo

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/travelfair/service-promo/internal/domain"
)

// Kind distinguishes open promos from VIP promos gated by guaranteed codes.
type Kind string

const (
	KindRegular        Kind = "regular"
	KindGuaranteedCode Kind = "guaranteed_code"
)

// CashbackTier is one bracket of the cashback schedule: bookings of at least
// MinAmount earn CashbackAmount.
type CashbackTier struct {
	MinAmount      int64 `json:"min_amount"`
	CashbackAmount int64 `json:"cashback_amount"`
}

// Promo is the aggregate root for a promotion. Amounts are whole rupiah.
// The quota-used counter is owned by the booking write path; nothing else
// mutates it.
type Promo struct {
	id            uuid.UUID
	eventID       uuid.UUID
	name          string
	kind          Kind
	description   string
	quotaTotal    int
	quotaUsed     int
	quotaPerAgent *int // nil means the quota is purely global
	tiers         []CashbackTier
	validFrom     time.Time
	validTo       time.Time
	isActive      bool
	createdAt     time.Time
	updatedAt     time.Time
}

// NewPromo creates a promotion after validating its cashback schedule, quota
// and validity window.
func NewPromo(eventID uuid.UUID, name string, kind Kind, description string, quotaTotal int, quotaPerAgent *int, tiers []CashbackTier, validFrom, validTo time.Time) (*Promo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("promo name is required")
	}
	if kind != KindRegular && kind != KindGuaranteedCode {
		return nil, domain.NewValidationError("invalid promo kind: " + string(kind))
	}
	if quotaTotal < 0 {
		return nil, domain.NewValidationError("quota total must not be negative")
	}
	if quotaPerAgent != nil && *quotaPerAgent <= 0 {
		return nil, domain.NewValidationError("per-agent quota must be positive when set")
	}
	if err := validateTiers(tiers); err != nil {
		return nil, err
	}
	if validTo.Before(validFrom) {
		return nil, domain.NewValidationError("valid_to must not be before valid_from")
	}

	now := time.Now().UTC()
	return &Promo{
		id:            uuid.New(),
		eventID:       eventID,
		name:          name,
		kind:          kind,
		description:   description,
		quotaTotal:    quotaTotal,
		quotaUsed:     0,
		quotaPerAgent: quotaPerAgent,
		tiers:         sortedTiers(tiers),
		validFrom:     validFrom,
		validTo:       validTo,
		isActive:      true,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// Reconstruct rebuilds a Promo from persistence.
func Reconstruct(id, eventID uuid.UUID, name string, kind Kind, description string, quotaTotal, quotaUsed int, quotaPerAgent *int, tiers []CashbackTier, validFrom, validTo time.Time, isActive bool, createdAt, updatedAt time.Time) *Promo {
	return &Promo{
		id: id, eventID: eventID, name: name, kind: kind, description: description,
		quotaTotal: quotaTotal, quotaUsed: quotaUsed, quotaPerAgent: quotaPerAgent,
		tiers: sortedTiers(tiers), validFrom: validFrom, validTo: validTo,
		isActive: isActive, createdAt: createdAt, updatedAt: updatedAt,
	}
}

func validateTiers(tiers []CashbackTier) error {
	if len(tiers) == 0 {
		return domain.NewValidationError("at least one cashback tier is required")
	}
	seen := make(map[int64]bool, len(tiers))
	for _, t := range tiers {
		if t.MinAmount < 0 {
			return domain.NewValidationError("tier minimum amount must not be negative")
		}
		if t.CashbackAmount <= 0 {
			return domain.NewValidationError("tier cashback amount must be positive")
		}
		if seen[t.MinAmount] {
			return domain.NewValidationError("tier minimum amounts must be unique")
		}
		seen[t.MinAmount] = true
	}
	return nil
}

func sortedTiers(tiers []CashbackTier) []CashbackTier {
	out := make([]CashbackTier, len(tiers))
	copy(out, tiers)
	sort.Slice(out, func(i, j int) bool { return out[i].MinAmount < out[j].MinAmount })
	return out
}

// CashbackFor resolves the cashback amount for a ticket amount: the tier with
// the highest minimum not exceeding the amount wins, zero when none qualifies.
// Pure and total. Duplicate thresholds (invalid upstream data) resolve to the
// last tier in ascending order, i.e. the greatest threshold among equals.
func (p *Promo) CashbackFor(amount int64) int64 {
	var cashback int64
	for _, t := range p.tiers {
		if amount < t.MinAmount {
			break
		}
		cashback = t.CashbackAmount
	}
	return cashback
}

// InWindowAt reports whether the calendar date of now falls inside the promo's
// inclusive validity window.
func (p *Promo) InWindowAt(now time.Time) bool {
	d := dateOf(now)
	return !d.Before(dateOf(p.validFrom)) && !d.After(dateOf(p.validTo))
}

// BookableAt reports whether bookings may be submitted against this promo now.
func (p *Promo) BookableAt(now time.Time) bool {
	return p.isActive && p.InWindowAt(now)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Update replaces the mutable schedule fields after re-validation. The consumed
// counter is deliberately untouched; only the booking write path moves it.
// Existing bookings are unaffected when a promo is deactivated.
func (p *Promo) Update(name, description string, quotaTotal int, quotaPerAgent *int, tiers []CashbackTier, validFrom, validTo time.Time, isActive bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError("promo name is required")
	}
	if quotaTotal < 0 {
		return domain.NewValidationError("quota total must not be negative")
	}
	if quotaTotal < p.quotaUsed {
		return domain.NewValidationError("quota total cannot be below the consumed quota")
	}
	if quotaPerAgent != nil && *quotaPerAgent <= 0 {
		return domain.NewValidationError("per-agent quota must be positive when set")
	}
	if err := validateTiers(tiers); err != nil {
		return err
	}
	if validTo.Before(validFrom) {
		return domain.NewValidationError("valid_to must not be before valid_from")
	}

	p.name = name
	p.description = description
	p.quotaTotal = quotaTotal
	p.quotaPerAgent = quotaPerAgent
	p.tiers = sortedTiers(tiers)
	p.validFrom = validFrom
	p.validTo = validTo
	p.isActive = isActive
	p.updatedAt = time.Now().UTC()
	return nil
}

// RemainingQuota returns the unreserved share of the global pool.
func (p *Promo) RemainingQuota() int {
	remaining := p.quotaTotal - p.quotaUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Getters.
func (p *Promo) ID() uuid.UUID         { return p.id }
func (p *Promo) EventID() uuid.UUID    { return p.eventID }
func (p *Promo) Name() string          { return p.name }
func (p *Promo) Kind() Kind            { return p.kind }
func (p *Promo) Description() string   { return p.description }
func (p *Promo) QuotaTotal() int       { return p.quotaTotal }
func (p *Promo) QuotaUsed() int        { return p.quotaUsed }
func (p *Promo) QuotaPerAgent() *int   { return p.quotaPerAgent }
func (p *Promo) Tiers() []CashbackTier { return sortedTiers(p.tiers) }
func (p *Promo) ValidFrom() time.Time  { return p.validFrom }
func (p *Promo) ValidTo() time.Time    { return p.validTo }
func (p *Promo) IsActive() bool        { return p.isActive }
func (p *Promo) CreatedAt() time.Time  { return p.createdAt }
func (p *Promo) UpdatedAt() time.Time  { return p.updatedAt }
