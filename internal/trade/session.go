package trade

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"aitrade-engine/internal/tier"
)

// Session is one simulated trade round. It is owned exclusively by the
// engine while active; everything here is plain data so it can be
// snapshotted to the per-user store on every mutation.
type Session struct {
	ID                string          `json:"id"`
	Side              Side            `json:"side"`
	Asset             string          `json:"asset"`
	AmountUSDT        decimal.Decimal `json:"amount_usdt"`
	Tier              tier.Tier       `json:"tier"`
	PermissionEnabled bool            `json:"permission_enabled"`
	TargetProfitUSDT  decimal.Decimal `json:"target_profit_usdt"`
	CurrentProfitUSDT decimal.Decimal `json:"current_profit_usdt"`

	// Milliseconds since epoch. RunStartedAt = CreatedAt + analysis
	// duration; EndAt = RunStartedAt + run duration.
	CreatedAt    int64 `json:"created_at"`
	RunStartedAt int64 `json:"run_started_at"`
	EndAt        int64 `json:"end_at"`

	Points       []Point `json:"points"`
	ProfitPoints []Point `json:"profit_points"`
}

// Progress maps a wall-clock instant onto [0,1] across the RUNNING window.
func (s *Session) Progress(now time.Time) float64 {
	total := s.EndAt - s.RunStartedAt
	if total <= 0 {
		return 1
	}
	p := float64(TimeMS(now)-s.RunStartedAt) / float64(total)
	return math.Min(1, math.Max(0, p))
}

// RemainingSec is the whole seconds left until EndAt, never negative.
func (s *Session) RemainingSec(now time.Time) int {
	left := s.EndAt - TimeMS(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(float64(left) / 1000))
}

// PhaseRemainingSec is the countdown shown for a phase: the full run
// window while ANALYZING, the wall-clock remainder while RUNNING, zero
// once claimable.
func (s *Session) PhaseRemainingSec(phase Phase, now time.Time) int {
	switch phase {
	case PhaseRunning:
		return s.RemainingSec(now)
	case PhaseAnalyzing:
		return int(math.Ceil(float64(s.EndAt-s.RunStartedAt) / 1000))
	default:
		return 0
	}
}

// AppendPoint appends to the price series, trimming to cap (oldest first).
func (s *Session) AppendPoint(p Point, cap int) {
	s.Points = appendCapped(s.Points, p, cap)
}

// AppendProfitPoint appends to the profit series, trimming to cap.
func (s *Session) AppendProfitPoint(p Point, cap int) {
	s.ProfitPoints = appendCapped(s.ProfitPoints, p, cap)
}

func appendCapped(series []Point, p Point, cap int) []Point {
	series = append(series, p)
	if cap > 0 && len(series) > cap {
		series = series[len(series)-cap:]
	}
	return series
}

// Clone returns a deep copy safe to hand outside the engine lock.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Points = append([]Point(nil), s.Points...)
	out.ProfitPoints = append([]Point(nil), s.ProfitPoints...)
	return &out
}

// HistoryRecord is the immutable settled outcome of a session. Records are
// deduplicated by ID (= session id) and never mutated after settlement.
type HistoryRecord struct {
	ID           string          `json:"id"`
	Side         Side            `json:"side"`
	Asset        string          `json:"asset"`
	AmountUSDT   decimal.Decimal `json:"amount_usdt"`
	ProfitUSDT   decimal.Decimal `json:"profit_usdt"`
	CreatedAt    int64           `json:"created_at"`
	ClaimedAt    int64           `json:"claimed_at"`
	ProfitPoints []Point         `json:"profit_points,omitempty"`
}

// Notification is the per-session status projection used for unread UI
// state. Upserted by session id, never authoritative.
type Notification struct {
	SessionID  string             `json:"session_id"`
	Status     NotificationStatus `json:"status"`
	Side       Side               `json:"side"`
	Asset      string             `json:"asset"`
	AmountUSDT decimal.Decimal    `json:"amount_usdt"`
	ProfitUSDT decimal.Decimal    `json:"profit_usdt"`
	UpdatedAt  int64              `json:"updated_at"`
}

// Snapshot is the durable form of an in-flight session.
type Snapshot struct {
	Phase   Phase   `json:"phase"`
	Session Session `json:"session"`
	SavedAt int64   `json:"saved_at"`
}
