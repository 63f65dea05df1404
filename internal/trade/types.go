package trade

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade session.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether the side is one of the known directions.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Phase enumerates the session lifecycle states.
type Phase string

const (
	PhaseIdle      Phase = "IDLE"
	PhaseAnalyzing Phase = "ANALYZING"
	PhaseRunning   Phase = "RUNNING"
	PhaseClaimable Phase = "CLAIMABLE"
)

// NotificationStatus marks whether a session's outcome has been settled.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "PENDING"
	NotificationConfirmed NotificationStatus = "CONFIRMED"
)

// TimeMS converts a wall-clock instant to milliseconds since epoch.
func TimeMS(t time.Time) int64 {
	return t.UnixMilli()
}

// MSTime converts milliseconds since epoch back to a wall-clock instant.
func MSTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Point is one sample of a chart series.
type Point struct {
	At    int64           `json:"at"`
	Value decimal.Decimal `json:"value"`
}
