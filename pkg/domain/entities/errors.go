package entities

import (
	"errors"
	"fmt"
)

// Domain error taxonomy. Callers inspect these with errors.Is.
var (
	ErrInvalidShareNumber   = errors.New("invalid share number")
	ErrInvalidShareStatus   = errors.New("invalid share status")
	ErrInvalidShareCount    = errors.New("property must have exactly 4 shares")
	ErrShareAlreadyAssigned = errors.New("share is already assigned to another owner")
	ErrNegativePrice        = errors.New("price cannot be negative")
	ErrAmountOutOfRange     = errors.New("amount out of range")
	ErrInvalidCommission    = errors.New("invalid commission")

	ErrPropertyNotFound = errors.New("property not found")
	ErrOwnerNotFound    = errors.New("owner not found")
	ErrAgentNotFound    = errors.New("agent not found")
	ErrAgentInUse       = errors.New("agent is referenced by properties")

	ErrInvalidInvoice      = errors.New("invalid invoice")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrDuplicateInvoice    = errors.New("invoice number already exists")
	ErrOwnerNotShareholder = errors.New("owner holds no share of the property")
)

// PersistenceError wraps an unexpected storage failure. It is always safe to
// retry the operation that produced it.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError wraps err unless it is nil
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failed operation may be retried
func (e *PersistenceError) Retryable() bool {
	return true
}

// IsDomainError reports whether err belongs to the domain taxonomy rather than
// being an unexpected storage failure.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrInvalidShareNumber,
		ErrInvalidShareStatus,
		ErrInvalidShareCount,
		ErrShareAlreadyAssigned,
		ErrNegativePrice,
		ErrAmountOutOfRange,
		ErrInvalidCommission,
		ErrPropertyNotFound,
		ErrOwnerNotFound,
		ErrAgentNotFound,
		ErrAgentInUse,
		ErrInvalidInvoice,
		ErrInvoiceNotFound,
		ErrDuplicateInvoice,
		ErrOwnerNotShareholder,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
