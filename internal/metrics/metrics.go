// Package metrics exposes the engine's Prometheus instrumentation:
//   - trade_sessions_started_total{side}
//   - trade_sessions_settled_total{result}  (result: win|loss)
//   - trade_settlement_failures_total
//   - trade_active_sessions
//   - trade_current_profit_usdt
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the engine collectors. A nil *Metrics is a valid no-op
// receiver so the engine never has to branch on instrumentation.
type Metrics struct {
	sessionsStarted    *prometheus.CounterVec
	sessionsSettled    *prometheus.CounterVec
	settlementFailures prometheus.Counter
	activeSessions     prometheus.Gauge
	currentProfit      prometheus.Gauge

	registry *prometheus.Registry
}

// New constructs and registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		sessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trade_sessions_started_total",
			Help: "Sessions started, by order side",
		}, []string{"side"}),
		sessionsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trade_sessions_settled_total",
			Help: "Sessions settled, by result",
		}, []string{"result"}),
		settlementFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trade_settlement_failures_total",
			Help: "Settlement attempts that failed and left the session claimable",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trade_active_sessions",
			Help: "Non-terminal sessions currently owned by the engine",
		}),
		currentProfit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trade_current_profit_usdt",
			Help: "Displayed profit of the running session",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.sessionsStarted,
		m.sessionsSettled,
		m.settlementFailures,
		m.activeSessions,
		m.currentProfit,
	)
	return m
}

// SessionStarted records a new session.
func (m *Metrics) SessionStarted(side string) {
	if m == nil {
		return
	}
	m.sessionsStarted.WithLabelValues(side).Inc()
	m.activeSessions.Set(1)
}

// SessionRecovered marks a session reconstructed from a snapshot as
// active without counting it as newly started.
func (m *Metrics) SessionRecovered() {
	if m == nil {
		return
	}
	m.activeSessions.Set(1)
}

// SessionSettled records a completed settlement.
func (m *Metrics) SessionSettled(win bool) {
	if m == nil {
		return
	}
	result := "loss"
	if win {
		result = "win"
	}
	m.sessionsSettled.WithLabelValues(result).Inc()
	m.activeSessions.Set(0)
	m.currentProfit.Set(0)
}

// SettlementFailed records a failed settlement attempt.
func (m *Metrics) SettlementFailed() {
	if m == nil {
		return
	}
	m.settlementFailures.Inc()
}

// TickProfit updates the live profit gauge.
func (m *Metrics) TickProfit(profit float64) {
	if m == nil {
		return
	}
	m.currentProfit.Set(profit)
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	if m == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
