package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("forbidden")
	ErrBlocked            = errors.New("account is blocked")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrCannotBlockAdmin   = errors.New("administrators cannot be blocked")
	ErrCopywriterDisabled = errors.New("description drafting is not configured")
)

// ValidationError carries a message that is safe to show to the user.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
