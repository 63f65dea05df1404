// Package engine owns the trade session lifecycle: IDLE → ANALYZING →
// RUNNING → CLAIMABLE → settled. The outcome is fixed at creation; the
// tick loop only paints a path towards it, and recovery re-derives phase
// from wall-clock timestamps so a reload can never change the result.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"aitrade-engine/internal/auth"
	"aitrade-engine/internal/feed"
	"aitrade-engine/internal/metrics"
	"aitrade-engine/internal/orderlog"
	"aitrade-engine/internal/outcome"
	"aitrade-engine/internal/permission"
	"aitrade-engine/internal/storage"
	"aitrade-engine/internal/tier"
	"aitrade-engine/internal/trade"
	"aitrade-engine/internal/wallet"
)

// assetBasePrices is the fixed tradable set with the synthetic chart
// baseline for each asset.
var assetBasePrices = map[string]float64{
	"BTC/USDT": 64250,
	"ETH/USDT": 3120,
	"SOL/USDT": 148.5,
	"BNB/USDT": 585,
	"XRP/USDT": 0.521,
}

// analysisCaptions is the fixed cycle shown while ANALYZING, rotated once
// per tick.
var analysisCaptions = []string{
	"Scanning order books",
	"Evaluating market depth",
	"Calibrating signal model",
	"Matching liquidity",
	"Locking entry price",
}

// Options tune lifecycle timing and chart retention.
type Options struct {
	AnalysisDuration time.Duration
	RunDuration      time.Duration
	TickInterval     time.Duration
	MaxPoints        int
}

// Deps are the engine's collaborators. Store and Wallet are required;
// Recorder, Hub, and Metrics may be left nil.
type Deps struct {
	Wallet      wallet.Service
	Permissions permission.Service
	Store       storage.Store
	Recorder    orderlog.Recorder
	Hub         *feed.Hub
	Metrics     *metrics.Metrics
	Auth        auth.Provider
	Rand        *rand.Rand
	Now         func() time.Time
}

// Engine drives at most one session per user through the lifecycle.
type Engine struct {
	opts     Options
	gen      *outcome.Generator
	resolver *permission.Resolver
	deps     Deps
	now      func() time.Time
	logger   zerolog.Logger

	mu       sync.Mutex
	userID   string
	phase    trade.Phase
	session  *trade.Session
	settling bool
}

// New constructs an Engine. curve and winProbability carry the tuning
// constants from configuration.
func New(opts Options, curve outcome.Config, winProbability float64, deps Deps, logger zerolog.Logger) *Engine {
	if opts.AnalysisDuration <= 0 {
		opts.AnalysisDuration = 5 * time.Second
	}
	if opts.RunDuration <= 0 {
		opts.RunDuration = 35 * time.Second
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.MaxPoints <= 0 {
		opts.MaxPoints = 120
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Recorder == nil {
		deps.Recorder = orderlog.Nop{}
	}

	return &Engine{
		opts:     opts,
		gen:      outcome.NewGenerator(curve, deps.Rand),
		resolver: permission.NewResolver(winProbability, deps.Rand),
		deps:     deps,
		now:      deps.Now,
		logger:   logger.With().Str("component", "engine").Logger(),
		phase:    trade.PhaseIdle,
	}
}

// Phase returns the current lifecycle phase.
func (e *Engine) Phase() trade.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Session returns a copy of the active session, or nil.
func (e *Engine) Session() *trade.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone()
}

// Assets lists the tradable instruments.
func Assets() []string {
	out := make([]string, 0, len(assetBasePrices))
	for asset := range assetBasePrices {
		out = append(out, asset)
	}
	return out
}

// StartRequest describes a session start.
type StartRequest struct {
	Side       trade.Side
	Asset      string
	AmountUSDT decimal.Decimal
}

// Start validates the request, resolves a fresh permission grant, fixes the
// outcome target, and moves the engine to ANALYZING. Nothing is created
// when any check fails.
func (e *Engine) Start(ctx context.Context, req StartRequest) (*trade.Session, error) {
	userID, err := e.deps.Auth.UserID(ctx)
	if err != nil {
		return nil, err
	}

	if !req.Side.Valid() {
		return nil, &ValidationError{Field: "side", Reason: "must be BUY or SELL"}
	}
	if _, ok := assetBasePrices[req.Asset]; !ok {
		return nil, &ValidationError{Field: "asset", Reason: "unknown asset"}
	}
	if !req.AmountUSDT.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	sessionTier, ok := tier.ForAmount(req.AmountUSDT)
	if !ok {
		return nil, &ValidationError{Field: "amount", Reason: "outside tier ranges"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		return nil, ErrSessionActive
	}

	balance, err := e.deps.Wallet.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(req.AmountUSDT) {
		return nil, &ValidationError{Field: "amount", Reason: "insufficient balance"}
	}

	// Fetched fresh for every start; grants are never cached across
	// sessions and the resolved decision is immutable thereafter.
	grant, err := e.deps.Permissions.GetPermission(ctx, userID)
	if err != nil {
		return nil, err
	}

	win := e.resolver.Resolve(grant.Mode, req.Side)
	target := e.gen.Target(req.AmountUSDT, sessionTier.PayoutPct, win)

	now := e.now()
	createdAt := trade.TimeMS(now)
	runStartedAt := createdAt + e.opts.AnalysisDuration.Milliseconds()

	sess := &trade.Session{
		ID:                uuid.NewString(),
		Side:              req.Side,
		Asset:             req.Asset,
		AmountUSDT:        req.AmountUSDT,
		Tier:              sessionTier,
		PermissionEnabled: win,
		TargetProfitUSDT:  target,
		CurrentProfitUSDT: decimal.Zero,
		CreatedAt:         createdAt,
		RunStartedAt:      runStartedAt,
		EndAt:             runStartedAt + e.opts.RunDuration.Milliseconds(),
	}

	e.userID = userID
	e.session = sess
	e.phase = trade.PhaseAnalyzing

	e.persistLocked(ctx)
	if err := e.deps.Store.UpsertNotification(ctx, userID, trade.Notification{
		SessionID:  sess.ID,
		Status:     trade.NotificationPending,
		Side:       sess.Side,
		Asset:      sess.Asset,
		AmountUSDT: sess.AmountUSDT,
		UpdatedAt:  createdAt,
	}); err != nil {
		e.logger.Error().Err(err).Str("session", sess.ID).Msg("failed to write pending notification")
	}

	e.deps.Metrics.SessionStarted(string(sess.Side))
	e.deps.Hub.Publish(feed.Event{
		Type:      "phase",
		SessionID: sess.ID,
		Phase:     trade.PhaseAnalyzing,
		Remaining: sess.RemainingSec(now),
	})

	e.logger.Info().
		Str("session", sess.ID).
		Str("side", string(sess.Side)).
		Str("asset", sess.Asset).
		Str("amount", sess.AmountUSDT.String()).
		Str("tier", sess.Tier.ID).
		Bool("win", win).
		Msg("session started")

	return sess.Clone(), nil
}

// persistLocked snapshots the current {phase, session}; callers hold the
// lock. Persistence failures are logged, not fatal: the in-memory session
// keeps running and the next mutation retries the write.
func (e *Engine) persistLocked(ctx context.Context) {
	if e.session == nil {
		return
	}
	snap := trade.Snapshot{
		Phase:   e.phase,
		Session: *e.session.Clone(),
		SavedAt: trade.TimeMS(e.now()),
	}
	if err := e.deps.Store.SaveSnapshot(ctx, e.userID, snap); err != nil {
		e.logger.Error().Err(err).Str("session", e.session.ID).Msg("failed to persist snapshot")
	}
}

func basePrice(asset string) float64 {
	return assetBasePrices[asset]
}
