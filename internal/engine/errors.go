package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionActive rejects a start while a non-terminal session exists.
	ErrSessionActive = errors.New("engine: a session is already in progress")
	// ErrNoActiveSession rejects operations that need a live session.
	ErrNoActiveSession = errors.New("engine: no active session")
	// ErrNotClaimable rejects a claim before the run window has completed.
	ErrNotClaimable = errors.New("engine: session is not claimable")
	// ErrSettlementInFlight guards against concurrent settlement attempts
	// for the same session.
	ErrSettlementInFlight = errors.New("engine: settlement already in progress")
)

// ValidationError rejects a start request before any session is created.
// No state changes when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SettlementError wraps a failed wallet adjustment. The session stays
// CLAIMABLE and the same claim control may retry.
type SettlementError struct {
	SessionID string
	Err       error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settle session %s: %v", e.SessionID, e.Err)
}

func (e *SettlementError) Unwrap() error { return e.Err }
