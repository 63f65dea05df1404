package auth

import (
	"context"
	"errors"
)

// ErrExpired indicates the auth context is absent or no longer valid. Any
// in-flight operation is aborted; a persisted session stays recoverable on
// the next login.
var ErrExpired = errors.New("auth: context expired")

// Provider supplies the user id used to namespace all per-user storage keys.
type Provider interface {
	UserID(ctx context.Context) (string, error)
}

// Static binds the process to a single user id, the normal case for the CLI.
type Static struct {
	ID string
}

// UserID returns the configured id, or ErrExpired when none is set.
func (s Static) UserID(ctx context.Context) (string, error) {
	if s.ID == "" {
		return "", ErrExpired
	}
	return s.ID, nil
}

var _ Provider = Static{}
