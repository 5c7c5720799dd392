package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every DomainError wraps exactly one of these so callers can
// branch on the broad class with errors.Is while handlers map the Code to HTTP.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrUnavailable  = errors.New("storage unavailable")
)

// DomainError is a typed, recoverable outcome of a domain operation.
type DomainError struct {
	Err     error  // category sentinel, see above
	Code    string // stable machine-readable code, e.g. "QUOTA_EXHAUSTED"
	Message string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the category sentinel to errors.Is.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Engine error kinds. These are fixed instances so that errors.Is works by
// identity even after %w wrapping along the call chain.
var (
	ErrPromotionInactive = &DomainError{Err: ErrInvalidState, Code: "PROMO_INACTIVE", Message: "promotion is inactive or outside its validity window"}

	ErrAmountBelowThreshold = &DomainError{Err: ErrValidation, Code: "AMOUNT_BELOW_THRESHOLD", Message: "ticket amount does not reach any cashback tier"}

	ErrCodeNotFound       = &DomainError{Err: ErrNotFound, Code: "CODE_NOT_FOUND", Message: "guaranteed code does not exist"}
	ErrCodeAlreadyClaimed = &DomainError{Err: ErrConflict, Code: "CODE_ALREADY_CLAIMED", Message: "guaranteed code has already been used"}
	ErrCodeOutOfWindow    = &DomainError{Err: ErrInvalidState, Code: "CODE_OUT_OF_WINDOW", Message: "guaranteed code is outside its validity window"}
	ErrCodeImmutable      = &DomainError{Err: ErrConflict, Code: "CODE_IMMUTABLE", Message: "a claimed guaranteed code cannot be modified"}

	ErrQuotaExhausted      = &DomainError{Err: ErrConflict, Code: "QUOTA_EXHAUSTED", Message: "promotion quota is exhausted"}
	ErrAgentQuotaExhausted = &DomainError{Err: ErrConflict, Code: "AGENT_QUOTA_EXHAUSTED", Message: "per-agent quota for this promotion is exhausted"}

	ErrAlreadyVoided = &DomainError{Err: ErrInvalidState, Code: "ALREADY_VOIDED", Message: "booking has already been voided"}
)

// NewNotFoundError reports that an entity could not be located.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{
		Err:     ErrNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

// NewValidationError reports invalid input to an administrative operation.
func NewValidationError(message string) *DomainError {
	return &DomainError{Err: ErrValidation, Code: "VALIDATION_FAILED", Message: message}
}

// NewConflictError reports a concurrent-modification conflict.
func NewConflictError(message string) *DomainError {
	return &DomainError{Err: ErrConflict, Code: "CONFLICT", Message: message}
}

// NewInvalidStateError reports an illegal state transition.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidState,
		Code:    "INVALID_STATE",
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewStorageFault wraps a store failure. The only condition operators must be
// alerted on is a storage fault raised after compensation of a partially
// applied booking has also failed; Message carries that context.
func NewStorageFault(op string, cause error) *DomainError {
	return &DomainError{
		Err:     ErrUnavailable,
		Code:    "STORAGE_FAULT",
		Message: fmt.Sprintf("%s: %v", op, cause),
	}
}
