package chat

import (
	"errors"
	"fmt"
)

// Error kinds shared by the chat services. Callers wrap these with %w and add
// context; the HTTP boundary maps each kind to a stable status code.
var (
	ErrValidation    = errors.New("chat: invalid input")
	ErrAuthorization = errors.New("chat: not allowed")
	ErrNotFound      = errors.New("chat: not found")
	ErrConflict      = errors.New("chat: conflicting state")
	ErrPermanentRole = errors.New("chat: main admin role is permanent")
	ErrStorage       = errors.New("chat: storage failure")
	ErrTransport     = errors.New("chat: asset transport failure")
)

func errValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
