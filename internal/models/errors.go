package models

import "errors"

// Sentinel errors shared by the store, engine and API layers.
// Wrap them with context using fmt.Errorf("...: %w", err).
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("concurrent update conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("validation failed")
	ErrNotOwner          = errors.New("task not owned by this employee")
)

// Error kinds as reported on the wire.
const (
	KindNotFound          = "not_found"
	KindConflict          = "conflict"
	KindInvalidTransition = "invalid_transition"
	KindValidation        = "validation"
	KindNotOwner          = "not_owner"
	KindInternal          = "internal"
)

// ErrorKind classifies err into one of the Kind constants.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotOwner):
		return KindNotOwner
	default:
		return KindInternal
	}
}
