package engine

import (
	"context"
	"time"

	"aitrade-engine/internal/feed"
	"aitrade-engine/internal/trade"
)

// Run drives the active session through ANALYZING and RUNNING to
// CLAIMABLE, then auto-settles a negative result. It returns once the
// session is settled or awaiting a manual claim. Ticks are strictly
// sequential: each reads the state the previous one wrote.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	sess := e.session
	e.mu.Unlock()
	if sess == nil {
		return ErrNoActiveSession
	}

	if e.Phase() == trade.PhaseAnalyzing {
		if err := e.runAnalysis(ctx); err != nil {
			return err
		}
	}
	if e.Phase() == trade.PhaseRunning {
		if err := e.runTicks(ctx); err != nil {
			return err
		}
	}
	return e.maybeAutoSettle(ctx)
}

// runAnalysis rotates the status captions until the run window opens.
// No profit mutation happens in this phase.
func (e *Engine) runAnalysis(ctx context.Context) error {
	ticker := time.NewTicker(e.opts.TickInterval)
	defer ticker.Stop()

	caption := 0
	for {
		e.mu.Lock()
		sess := e.session
		if sess == nil || e.phase != trade.PhaseAnalyzing {
			e.mu.Unlock()
			return nil
		}
		now := e.now()
		if trade.TimeMS(now) >= sess.RunStartedAt {
			e.phase = trade.PhaseRunning
			e.persistLocked(ctx)
			id := sess.ID
			remaining := sess.RemainingSec(now)
			e.mu.Unlock()

			e.deps.Hub.Publish(feed.Event{Type: "phase", SessionID: id, Phase: trade.PhaseRunning, Remaining: remaining})
			e.logger.Info().Str("session", id).Msg("analysis complete, run window open")
			return nil
		}
		ev := feed.Event{
			Type:      "caption",
			SessionID: sess.ID,
			Phase:     trade.PhaseAnalyzing,
			Caption:   analysisCaptions[caption%len(analysisCaptions)],
			Remaining: sess.PhaseRemainingSec(trade.PhaseAnalyzing, now),
		}
		e.mu.Unlock()

		e.deps.Hub.Publish(ev)
		caption++

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// runTicks advances the profit and price series once per tick until the
// session reaches the end of its run window.
func (e *Engine) runTicks(ctx context.Context) error {
	ticker := time.NewTicker(e.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if e.tick(ctx) {
			return nil
		}
	}
}

// tick applies one curve step and reports whether the session became
// CLAIMABLE. On the final step the displayed profit snaps exactly to the
// stored target; the noisy path is never authoritative.
func (e *Engine) tick(ctx context.Context) bool {
	e.mu.Lock()
	sess := e.session
	if sess == nil || e.phase != trade.PhaseRunning {
		e.mu.Unlock()
		return true
	}

	now := e.now()
	progress := sess.Progress(now)
	profit := e.gen.ProfitAt(sess.TargetProfitUSDT, sess.AmountUSDT, sess.PermissionEnabled, progress)
	price := e.gen.PriceAt(basePrice(sess.Asset), sess.PermissionEnabled, sess.Side, progress)

	at := trade.TimeMS(now)
	sess.CurrentProfitUSDT = profit
	sess.AppendPoint(trade.Point{At: at, Value: price}, e.opts.MaxPoints)
	sess.AppendProfitPoint(trade.Point{At: at, Value: profit}, e.opts.MaxPoints)

	claimable := progress >= 1
	if claimable {
		e.phase = trade.PhaseClaimable
	}
	e.persistLocked(ctx)

	ev := feed.Event{
		Type:      "tick",
		SessionID: sess.ID,
		Phase:     e.phase,
		Point:     &trade.Point{At: at, Value: price},
		Profit:    &trade.Point{At: at, Value: profit},
		Remaining: sess.RemainingSec(now),
		At:        at,
	}
	id := sess.ID
	e.mu.Unlock()

	e.deps.Hub.Publish(ev)
	profitF, _ := profit.Float64()
	e.deps.Metrics.TickProfit(profitF)

	if claimable {
		e.logger.Info().Str("session", id).Str("profit", profit.String()).Msg("run window closed, session claimable")
	}
	return claimable
}

// maybeAutoSettle settles a losing session without user action. Gains wait
// for an explicit claim.
func (e *Engine) maybeAutoSettle(ctx context.Context) error {
	e.mu.Lock()
	sess := e.session
	phase := e.phase
	e.mu.Unlock()

	if sess == nil || phase != trade.PhaseClaimable {
		return nil
	}
	if !sess.CurrentProfitUSDT.IsNegative() {
		return nil
	}
	return e.settle(ctx, true)
}
