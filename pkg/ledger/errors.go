package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyCommitted reports that the ledger already holds a
	// commitment for the certificate number, either detected by the
	// idempotency pre-check or signalled by the contract itself.
	ErrAlreadyCommitted = errors.New("certificate already committed on ledger")

	// ErrUnavailable reports that every allowed attempt failed with a
	// transient error and the retry budget is exhausted.
	ErrUnavailable = errors.New("ledger unavailable after retries")

	// ErrOutcomeUnknown reports that the transaction was submitted but
	// the confirmation wait was cut short. The commitment may or may
	// not exist; callers must re-query ledger state before acting.
	ErrOutcomeUnknown = errors.New("transaction outcome unknown, re-query required")
)

// Kind partitions ledger failures by how the manager reacts to them.
type Kind int

const (
	// KindFatal failures are returned immediately and never retried.
	KindFatal Kind = iota
	// KindDuplicate failures mean the commitment already exists.
	KindDuplicate
	// KindTransient failures are retried up to the configured budget.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindDuplicate:
		return "duplicate"
	case KindTransient:
		return "transient"
	default:
		return "fatal"
	}
}

// Error is a classified ledger failure.
type Error struct {
	Kind   Kind
	Op     string
	Method string
	Err    error
}

func (e *Error) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("ledger %s %s (%s): %v", e.Op, e.Method, e.Kind, e.Err)
	}
	return fmt.Sprintf("ledger %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsDuplicate reports whether err carries a duplicate classification.
func IsDuplicate(err error) bool {
	if errors.Is(err, ErrAlreadyCommitted) {
		return true
	}
	var classified *Error
	return errors.As(err, &classified) && classified.Kind == KindDuplicate
}

// IsTransient reports whether err carries a transient classification.
func IsTransient(err error) bool {
	var classified *Error
	return errors.As(err, &classified) && classified.Kind == KindTransient
}
