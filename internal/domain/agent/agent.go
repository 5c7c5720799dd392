package agent

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/travelfair/service-promo/internal/domain"
)

// Agent is the aggregate root for a travel agent: the organizational unit
// whose staff submit bookings. The allocated quota is a reporting ceiling on
// aggregate bookings across promos; promo-level caps are enforced separately
// by the booking write path.
type Agent struct {
	id             uuid.UUID
	name           string
	quotaAllocated int
	isActive       bool
	createdAt      time.Time
	updatedAt      time.Time
}

// NewAgent creates an active agent.
func NewAgent(name string, quotaAllocated int) (*Agent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("agent name is required")
	}
	if quotaAllocated < 0 {
		return nil, domain.NewValidationError("allocated quota must not be negative")
	}

	now := time.Now().UTC()
	return &Agent{
		id:             uuid.New(),
		name:           name,
		quotaAllocated: quotaAllocated,
		isActive:       true,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstruct rebuilds an Agent from persistence.
func Reconstruct(id uuid.UUID, name string, quotaAllocated int, isActive bool, createdAt, updatedAt time.Time) *Agent {
	return &Agent{
		id: id, name: name, quotaAllocated: quotaAllocated,
		isActive: isActive, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// Update replaces the mutable fields.
func (a *Agent) Update(name string, quotaAllocated int, isActive bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError("agent name is required")
	}
	if quotaAllocated < 0 {
		return domain.NewValidationError("allocated quota must not be negative")
	}
	a.name = name
	a.quotaAllocated = quotaAllocated
	a.isActive = isActive
	a.updatedAt = time.Now().UTC()
	return nil
}

// Getters.
func (a *Agent) ID() uuid.UUID        { return a.id }
func (a *Agent) Name() string         { return a.name }
func (a *Agent) QuotaAllocated() int  { return a.quotaAllocated }
func (a *Agent) IsActive() bool       { return a.isActive }
func (a *Agent) CreatedAt() time.Time { return a.createdAt }
func (a *Agent) UpdatedAt() time.Time { return a.updatedAt }
