// Package syncerror defines the error types reported by a detection run.
package syncerror

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicate is returned by a store when a detected subscription for the
	// same (holder, merchant key) already exists. It is a benign conflict.
	ErrDuplicate = errors.New("subscription already exists for merchant")

	// ErrNotFound is returned when a requested record does not exist for the holder.
	ErrNotFound = errors.New("not found")
)

// InputError reports a malformed transaction batch or holder reference.
// A run that returns an InputError has written nothing.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

// PersistenceError reports that the existence check or the write for one
// merchant group failed for a reason other than a duplicate.
type PersistenceError struct {
	HolderID    string
	MerchantKey string
	Operation   string
	Err         error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed for holder %s merchant '%s': %v",
		e.Operation, e.HolderID, e.MerchantKey, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err is or wraps an *InputError.
func IsInputError(err error) bool {
	var inputErr *InputError
	return errors.As(err, &inputErr)
}

// IsDuplicate reports whether err is or wraps ErrDuplicate.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
