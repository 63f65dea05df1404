package trade

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testSession() *Session {
	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return &Session{
		ID:           "sess-1",
		Side:         SideBuy,
		Asset:        "BTC/USDT",
		AmountUSDT:   decimal.NewFromInt(1000),
		CreatedAt:    TimeMS(created),
		RunStartedAt: TimeMS(created.Add(5 * time.Second)),
		EndAt:        TimeMS(created.Add(40 * time.Second)),
	}
}

func TestProgressClamped(t *testing.T) {
	s := testSession()
	runStart := MSTime(s.RunStartedAt)

	if p := s.Progress(runStart.Add(-10 * time.Second)); p != 0 {
		t.Fatalf("progress before run start should be 0, got %f", p)
	}
	if p := s.Progress(runStart.Add(17500 * time.Millisecond)); p != 0.5 {
		t.Fatalf("midpoint progress should be 0.5, got %f", p)
	}
	if p := s.Progress(runStart.Add(time.Hour)); p != 1 {
		t.Fatalf("progress past end should clamp to 1, got %f", p)
	}
}

func TestProgressDegenerateWindow(t *testing.T) {
	s := testSession()
	s.EndAt = s.RunStartedAt
	if p := s.Progress(MSTime(s.RunStartedAt)); p != 1 {
		t.Fatalf("zero-length window should report 1, got %f", p)
	}
}

func TestRemainingSecCeils(t *testing.T) {
	s := testSession()
	end := MSTime(s.EndAt)

	if got := s.RemainingSec(end.Add(-2100 * time.Millisecond)); got != 3 {
		t.Fatalf("2.1s left should round up to 3, got %d", got)
	}
	if got := s.RemainingSec(end.Add(time.Second)); got != 0 {
		t.Fatalf("past end should report 0, got %d", got)
	}
}

func TestPhaseRemainingSec(t *testing.T) {
	s := testSession()
	now := MSTime(s.CreatedAt).Add(2 * time.Second) // still analyzing

	if got := s.PhaseRemainingSec(PhaseAnalyzing, now); got != 35 {
		t.Fatalf("analyzing should show the full run window, got %d", got)
	}
	mid := MSTime(s.RunStartedAt).Add(10 * time.Second)
	if got := s.PhaseRemainingSec(PhaseRunning, mid); got != 25 {
		t.Fatalf("running should show wall-clock remainder, got %d", got)
	}
	if got := s.PhaseRemainingSec(PhaseClaimable, mid); got != 0 {
		t.Fatalf("claimable should show 0, got %d", got)
	}
}

func TestAppendPointCap(t *testing.T) {
	s := testSession()
	for i := 0; i < 10; i++ {
		s.AppendPoint(Point{At: int64(i), Value: decimal.NewFromInt(int64(i))}, 4)
	}
	if len(s.Points) != 4 {
		t.Fatalf("series should be capped at 4, got %d", len(s.Points))
	}
	if s.Points[0].At != 6 || s.Points[3].At != 9 {
		t.Fatalf("cap should drop oldest points, got [%d..%d]", s.Points[0].At, s.Points[3].At)
	}

	s.AppendProfitPoint(Point{At: 1}, 0)
	s.AppendProfitPoint(Point{At: 2}, 0)
	if len(s.ProfitPoints) != 2 {
		t.Fatalf("cap 0 should mean unbounded, got %d", len(s.ProfitPoints))
	}
}

func TestCloneIsolation(t *testing.T) {
	s := testSession()
	s.AppendPoint(Point{At: 1, Value: decimal.NewFromInt(100)}, 0)

	c := s.Clone()
	c.AppendPoint(Point{At: 2, Value: decimal.NewFromInt(200)}, 0)
	c.CurrentProfitUSDT = decimal.NewFromInt(50)

	if len(s.Points) != 1 {
		t.Fatalf("mutating the clone leaked into the original: %d points", len(s.Points))
	}
	if !s.CurrentProfitUSDT.IsZero() {
		t.Fatalf("original profit changed to %s", s.CurrentProfitUSDT)
	}

	var nilSession *Session
	if nilSession.Clone() != nil {
		t.Fatal("nil clone should stay nil")
	}
}

func TestTimeMSRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 10, 12, 0, 0, 500e6, time.UTC)
	ms := TimeMS(at)
	if back := MSTime(ms); !back.Equal(at) {
		t.Fatalf("round trip lost precision: %v != %v", back, at)
	}
}
