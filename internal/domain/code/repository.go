package code

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Registry defines persistence for guaranteed codes. Claim is the atomic
// check-and-consume step of the redemption lifecycle; everything else is
// administrative or read-only.
type Registry interface {
	Save(ctx context.Context, c *GuaranteedCode) error

	// Update persists administrative edits. Implementations reject edits to
	// claimed codes with domain.ErrCodeImmutable.
	Update(ctx context.Context, c *GuaranteedCode) error

	// Delete removes an unclaimed code; fails with domain.ErrCodeImmutable
	// once the code has been claimed.
	Delete(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*GuaranteedCode, error)
	FindByCode(ctx context.Context, normalized string) (*GuaranteedCode, error)
	FindByPromo(ctx context.Context, promoID uuid.UUID) ([]*GuaranteedCode, error)

	// Claim atomically transitions the code to used, recording claimant and
	// timestamp. Under concurrent claims of the same code exactly one caller
	// succeeds; the rest observe domain.ErrCodeAlreadyClaimed. Also fails
	// with domain.ErrCodeNotFound or domain.ErrCodeOutOfWindow.
	Claim(ctx context.Context, normalized, claimant string, now time.Time) (*GuaranteedCode, error)

	// Unclaim reverts a claim during booking-submission compensation. It is
	// idempotent; it never runs on behalf of a void.
	Unclaim(ctx context.Context, normalized string) error
}
