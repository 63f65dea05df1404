package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	m.SessionStarted("BUY")
	m.SessionRecovered()
	m.SessionSettled(true)
	m.SettlementFailed()
	m.TickProfit(12.5)
}

func TestCounters(t *testing.T) {
	m := New()

	m.SessionStarted("BUY")
	m.SessionStarted("BUY")
	m.SessionStarted("SELL")
	m.SessionSettled(true)
	m.SessionSettled(false)
	m.SettlementFailed()
	m.TickProfit(42.5)

	if got := testutil.ToFloat64(m.sessionsStarted.WithLabelValues("BUY")); got != 2 {
		t.Fatalf("started{BUY} = %f, want 2", got)
	}
	if got := testutil.ToFloat64(m.sessionsSettled.WithLabelValues("win")); got != 1 {
		t.Fatalf("settled{win} = %f, want 1", got)
	}
	if got := testutil.ToFloat64(m.sessionsSettled.WithLabelValues("loss")); got != 1 {
		t.Fatalf("settled{loss} = %f, want 1", got)
	}
	if got := testutil.ToFloat64(m.settlementFailures); got != 1 {
		t.Fatalf("failures = %f, want 1", got)
	}
	// SessionSettled zeroes the live gauges.
	if got := testutil.ToFloat64(m.activeSessions); got != 0 {
		t.Fatalf("active = %f, want 0", got)
	}
	if got := testutil.ToFloat64(m.currentProfit); got != 0 {
		t.Fatalf("profit = %f, want 0", got)
	}
}
