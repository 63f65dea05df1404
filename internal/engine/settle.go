package engine

import (
	"context"
	"time"

	"aitrade-engine/internal/feed"
	"aitrade-engine/internal/trade"
)

// Claim finalizes a claimable session at the user's request.
func (e *Engine) Claim(ctx context.Context) error {
	return e.settle(ctx, false)
}

// settle applies the frozen result to the wallet exactly once, records
// history and the confirmed notification, clears the snapshot, and returns
// the engine to IDLE. The wallet adjustment is the all-or-nothing step: on
// failure the session stays CLAIMABLE and the claim may be retried.
func (e *Engine) settle(ctx context.Context, auto bool) error {
	e.mu.Lock()
	if e.session == nil {
		e.mu.Unlock()
		return ErrNoActiveSession
	}
	if e.phase != trade.PhaseClaimable {
		e.mu.Unlock()
		return ErrNotClaimable
	}
	if e.settling {
		e.mu.Unlock()
		return ErrSettlementInFlight
	}
	e.settling = true
	sess := e.session.Clone()
	userID := e.userID
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.settling = false
		e.mu.Unlock()
	}()

	if _, err := e.deps.Wallet.AdjustBalance(ctx, userID, sess.CurrentProfitUSDT); err != nil {
		e.deps.Metrics.SettlementFailed()
		e.logger.Error().Err(err).
			Str("session", sess.ID).
			Bool("auto", auto).
			Msg("wallet adjustment failed, session stays claimable")
		return &SettlementError{SessionID: sess.ID, Err: err}
	}

	now := e.now()
	rec := trade.HistoryRecord{
		ID:           sess.ID,
		Side:         sess.Side,
		Asset:        sess.Asset,
		AmountUSDT:   sess.AmountUSDT,
		ProfitUSDT:   sess.CurrentProfitUSDT,
		CreatedAt:    sess.CreatedAt,
		ClaimedAt:    trade.TimeMS(now),
		ProfitPoints: sess.ProfitPoints,
	}
	if err := e.deps.Store.AppendHistory(ctx, userID, rec); err != nil {
		e.logger.Error().Err(err).Str("session", sess.ID).Msg("failed to append history record")
	}
	if err := e.deps.Store.UpsertNotification(ctx, userID, trade.Notification{
		SessionID:  sess.ID,
		Status:     trade.NotificationConfirmed,
		Side:       sess.Side,
		Asset:      sess.Asset,
		AmountUSDT: sess.AmountUSDT,
		ProfitUSDT: sess.CurrentProfitUSDT,
		UpdatedAt:  rec.ClaimedAt,
	}); err != nil {
		e.logger.Error().Err(err).Str("session", sess.ID).Msg("failed to confirm notification")
	}

	// Detached best-effort mirror; failures never reach the session flow.
	recorder := e.deps.Recorder
	logger := e.logger
	go func() {
		mirrorCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := recorder.RecordSettlement(mirrorCtx, userID, rec); err != nil {
			logger.Warn().Err(err).Str("session", rec.ID).Msg("remote order log mirror failed")
		}
	}()

	if err := e.deps.Store.DeleteSnapshot(ctx, userID); err != nil {
		e.logger.Error().Err(err).Str("session", sess.ID).Msg("failed to delete snapshot")
	}

	e.mu.Lock()
	e.session = nil
	e.phase = trade.PhaseIdle
	e.mu.Unlock()

	e.deps.Metrics.SessionSettled(sess.PermissionEnabled)
	e.deps.Hub.Publish(feed.Event{
		Type:      "phase",
		SessionID: sess.ID,
		Phase:     trade.PhaseIdle,
		At:        rec.ClaimedAt,
	})

	e.logger.Info().
		Str("session", sess.ID).
		Str("profit", sess.CurrentProfitUSDT.String()).
		Bool("auto", auto).
		Msg("session settled")
	return nil
}
