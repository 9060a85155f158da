package domain

import "errors"

// Domain errors
var (
	ErrPlayerNotFound = errors.New("player not found in leaderboard")
	ErrRecordNotFound = errors.New("player record not found")
	ErrAlreadyPlayed  = errors.New("player already played today")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalError  = errors.New("internal server error")
)

// ValidationError is a terminal rejection of a submission. Nothing is written
// for it and the message is safe to return to the client.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// NewValidationError creates a validation error with a client-facing message.
func NewValidationError(msg string) error {
	return &ValidationError{msg: msg}
}

// IsValidationError checks if an error is a terminal validation rejection.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFoundError checks if an error is a not-found type error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrPlayerNotFound) || errors.Is(err, ErrRecordNotFound)
}
