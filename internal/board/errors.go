package board

import (
	"errors"
	"fmt"
)

var (
	ErrNoSession      = errors.New("no active user")
	ErrUnknownEmail   = errors.New("no user with this email")
	ErrDuplicateEmail = errors.New("user with this email already exists")
	ErrInvalidRole    = errors.New("unknown project role")
	ErrNotLoaded      = errors.New("collection failed to load")
)

// loaded refuses writes to a collection whose load failed, so a save never
// replaces data that was not read.
func loaded(err error) error {
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotLoaded, err)
	}
	return nil
}
