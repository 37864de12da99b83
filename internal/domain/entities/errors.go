package entities

import "errors"

// Errors shared by the scheduling and progression layers.
// Use errors.Is to check them; callers wrap them with context.
var (
	ErrInvalidRating       = errors.New("invalid rating: expected 1-4")
	ErrCardNotFound        = errors.New("card not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrUnauthorized        = errors.New("card does not belong to user")
	ErrConcurrencyConflict = errors.New("concurrent modification")
	ErrPersistenceFailure  = errors.New("persistence failure")
	ErrCorruptState        = errors.New("corrupt card state")
)
