// Package orderlog mirrors settled sessions to a remote Postgres order log.
// The mirror is strictly best-effort: settlement never depends on it, and
// every failure is logged and swallowed.
package orderlog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"aitrade-engine/internal/trade"
)

const insertOrderSQL = `INSERT INTO order_log (
	session_id,
	user_id,
	side,
	asset,
	amount_usdt,
	profit_usdt,
	created_at,
	claimed_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8
)
ON CONFLICT (session_id) DO NOTHING;`

// Recorder receives settled session records.
type Recorder interface {
	RecordSettlement(ctx context.Context, userID string, rec trade.HistoryRecord) error
}

// Options configure the Postgres mirror.
type Options struct {
	DSN     string
	Timeout time.Duration
}

// NewPool configures a Postgres connection pool for the order log.
func NewPool(ctx context.Context, opts Options) (*pgxpool.Pool, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("orderlog.dsn is required")
	}
	poolConfig, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse orderlog dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return pool, nil
}

// PGRecorder writes settled orders to Postgres.
type PGRecorder struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	logger  zerolog.Logger
}

// NewPGRecorder wires a pgx pool into a recorder.
func NewPGRecorder(pool *pgxpool.Pool, timeout time.Duration, logger zerolog.Logger) *PGRecorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PGRecorder{
		pool:    pool,
		timeout: timeout,
		logger:  logger.With().Str("component", "orderlog").Logger(),
	}
}

// Close releases the underlying pool resources.
func (r *PGRecorder) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

// RecordSettlement inserts one settled session; duplicate session ids are
// ignored so retried settlements cannot double-log.
func (r *PGRecorder) RecordSettlement(ctx context.Context, userID string, rec trade.HistoryRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, insertOrderSQL,
		rec.ID,
		userID,
		string(rec.Side),
		rec.Asset,
		rec.AmountUSDT.String(),
		rec.ProfitUSDT.String(),
		trade.MSTime(rec.CreatedAt),
		trade.MSTime(rec.ClaimedAt),
	)
	if err != nil {
		return fmt.Errorf("insert order log: %w", err)
	}

	r.logger.Debug().Str("session", rec.ID).Msg("settlement mirrored")
	return nil
}

// Nop discards records; used when no remote log is configured.
type Nop struct{}

// RecordSettlement does nothing.
func (Nop) RecordSettlement(ctx context.Context, userID string, rec trade.HistoryRecord) error {
	return nil
}

var _ Recorder = (*PGRecorder)(nil)
var _ Recorder = Nop{}
