package permission

import (
	"context"
	"errors"
	"math/rand"

	"aitrade-engine/internal/trade"
)

// Mode is the admin-configured win/loss policy for a user's sessions.
type Mode string

const (
	ModeBuyAllWin     Mode = "BUY_ALL_WIN"
	ModeSellAllWin    Mode = "SELL_ALL_WIN"
	ModeRandomWinLoss Mode = "RANDOM_WIN_LOSS"
	ModeAllLoss       Mode = "ALL_LOSS"
)

// Valid reports whether the mode is a known policy.
func (m Mode) Valid() bool {
	switch m {
	case ModeBuyAllWin, ModeSellAllWin, ModeRandomWinLoss, ModeAllLoss:
		return true
	}
	return false
}

// Grant is the permission service response for one user.
type Grant struct {
	Mode       Mode `json:"mode"`
	Restricted bool `json:"restricted"`
}

// ErrRestricted marks an account flagged by the admin; distinct from
// transport failures so callers can refuse session start explicitly.
var ErrRestricted = errors.New("permission: account restricted")

// Service fetches the current grant for a user. The engine calls it fresh
// immediately before every session start; grants are never cached.
type Service interface {
	GetPermission(ctx context.Context, userID string) (Grant, error)
}

// Resolver turns a mode and an order side into the session's fixed win/loss
// decision. The decision is drawn exactly once at session creation.
type Resolver struct {
	winProbability float64
	rng            *rand.Rand
}

// NewResolver constructs a resolver. winProbability applies only to
// RANDOM_WIN_LOSS draws.
func NewResolver(winProbability float64, rng *rand.Rand) *Resolver {
	if winProbability < 0 {
		winProbability = 0
	}
	if winProbability > 1 {
		winProbability = 1
	}
	return &Resolver{winProbability: winProbability, rng: rng}
}

// Resolve returns true when the session will net a gain.
func (r *Resolver) Resolve(mode Mode, side trade.Side) bool {
	switch mode {
	case ModeBuyAllWin:
		return side == trade.SideBuy
	case ModeSellAllWin:
		return side == trade.SideSell
	case ModeRandomWinLoss:
		return r.rng.Float64() < r.winProbability
	default:
		// ALL_LOSS and anything unknown never wins.
		return false
	}
}
