package engine

import (
	"context"

	"aitrade-engine/internal/feed"
	"aitrade-engine/internal/trade"
)

// Recover reconstructs a persisted session after a restart. Phase is
// re-derived purely from the stored timestamps and the current wall clock;
// the noisy path is never replayed, so a reload can neither change the
// settlement outcome nor stretch the session's wall-clock duration.
// Returns false when no snapshot exists.
func (e *Engine) Recover(ctx context.Context) (bool, error) {
	userID, err := e.deps.Auth.UserID(ctx)
	if err != nil {
		return false, err
	}

	snap, ok, err := e.deps.Store.LoadSnapshot(ctx, userID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	now := e.now()
	nowMS := trade.TimeMS(now)
	sess := snap.Session.Clone()

	var phase trade.Phase
	switch {
	case nowMS >= sess.EndAt:
		phase = trade.PhaseClaimable
		sess.CurrentProfitUSDT = sess.TargetProfitUSDT
	case nowMS >= sess.RunStartedAt:
		phase = trade.PhaseRunning
	default:
		phase = trade.PhaseAnalyzing
	}

	e.mu.Lock()
	if e.session != nil {
		e.mu.Unlock()
		return false, ErrSessionActive
	}
	e.userID = userID
	e.session = sess
	e.phase = phase
	e.persistLocked(ctx)
	remaining := sess.PhaseRemainingSec(phase, now)
	e.mu.Unlock()

	e.deps.Metrics.SessionRecovered()
	e.deps.Hub.Publish(feed.Event{
		Type:      "phase",
		SessionID: sess.ID,
		Phase:     phase,
		Remaining: remaining,
		At:        nowMS,
	})

	e.logger.Info().
		Str("session", sess.ID).
		Str("phase", string(phase)).
		Int("remaining_sec", remaining).
		Msg("session recovered from snapshot")
	return true, nil
}
