package ledger

import (
	"errors"
	"fmt"

	"mizan/internal/store"
)

var (
	// ErrNotAuthenticated is returned when no user is bound to the session
	// or the user has no profile.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotFound is returned when a referenced entity does not exist for
	// the session user.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyPaid is returned by PayObligation for an obligation already
	// paid in its current period.
	ErrAlreadyPaid = errors.New("obligation already paid")
)

// PersistenceError wraps a failure of the underlying store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: persistence failure: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// classify maps store-level failures to ledger errors. Errors that already
// carry ledger or validation meaning pass through unchanged.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAlreadyPaid), errors.Is(err, ErrNotAuthenticated):
		return err
	default:
		var pe *PersistenceError
		if errors.As(err, &pe) {
			return err
		}
		return &PersistenceError{Op: op, Err: err}
	}
}
