package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"aitrade-engine/internal/trade"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "aitrade.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSnapshot() trade.Snapshot {
	return trade.Snapshot{
		Phase: trade.PhaseRunning,
		Session: trade.Session{
			ID:                "sess-1",
			Side:              trade.SideBuy,
			Asset:             "BTC/USDT",
			AmountUSDT:        decimal.NewFromInt(1000),
			TargetProfitUSDT:  decimal.NewFromFloat(297.50),
			CurrentProfitUSDT: decimal.NewFromFloat(12.34),
			CreatedAt:         1000,
			RunStartedAt:      6000,
			EndAt:             41000,
			ProfitPoints:      []trade.Point{{At: 7000, Value: decimal.NewFromFloat(3.21)}},
		},
		SavedAt: 7000,
	}
}

func TestSQLiteSnapshotRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if _, ok, err := store.LoadSnapshot(ctx, "u1"); err != nil || ok {
		t.Fatalf("empty load: ok=%v err=%v", ok, err)
	}

	snap := sampleSnapshot()
	if err := store.SaveSnapshot(ctx, "u1", snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, ok, err := store.LoadSnapshot(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("LoadSnapshot: ok=%v err=%v", ok, err)
	}
	if got.Phase != snap.Phase || got.Session.ID != snap.Session.ID {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Session.TargetProfitUSDT.Equal(snap.Session.TargetProfitUSDT) {
		t.Fatalf("target %s != %s", got.Session.TargetProfitUSDT, snap.Session.TargetProfitUSDT)
	}
	if len(got.Session.ProfitPoints) != 1 {
		t.Fatalf("profit points lost: %d", len(got.Session.ProfitPoints))
	}

	// Saves overwrite, one snapshot per user.
	snap.Phase = trade.PhaseClaimable
	snap.SavedAt = 41000
	if err := store.SaveSnapshot(ctx, "u1", snap); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, _, _ = store.LoadSnapshot(ctx, "u1")
	if got.Phase != trade.PhaseClaimable {
		t.Fatalf("overwrite lost: phase %s", got.Phase)
	}

	if err := store.DeleteSnapshot(ctx, "u1"); err != nil {
		t.Fatalf("DeleteSnapshot: %v", err)
	}
	if _, ok, _ := store.LoadSnapshot(ctx, "u1"); ok {
		t.Fatal("snapshot should be gone after delete")
	}
}

func TestSQLiteSnapshotsAreUserScoped(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.SaveSnapshot(ctx, "u1", sampleSnapshot()); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if _, ok, _ := store.LoadSnapshot(ctx, "u2"); ok {
		t.Fatal("u2 must not see u1's snapshot")
	}
}

func TestSQLiteHistoryDedup(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := trade.HistoryRecord{
		ID:         "sess-1",
		Side:       trade.SideSell,
		Asset:      "ETH/USDT",
		AmountUSDT: decimal.NewFromInt(500),
		ProfitUSDT: decimal.NewFromFloat(-141.20),
		ClaimedAt:  5000,
	}
	if err := store.AppendHistory(ctx, "u1", rec); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}

	// A replayed settlement must not duplicate or mutate the record.
	dup := rec
	dup.ProfitUSDT = decimal.NewFromInt(999)
	if err := store.AppendHistory(ctx, "u1", dup); err != nil {
		t.Fatalf("duplicate append: %v", err)
	}

	recs, err := store.ListHistory(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("want 1 record, got %d", len(recs))
	}
	if !recs[0].ProfitUSDT.Equal(rec.ProfitUSDT) {
		t.Fatalf("first write must win: %s", recs[0].ProfitUSDT)
	}
}

func TestSQLiteListHistoryOrderAndLimit(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	for i, claimed := range []int64{3000, 1000, 2000} {
		rec := trade.HistoryRecord{
			ID:         "sess-" + string(rune('a'+i)),
			Side:       trade.SideBuy,
			Asset:      "BTC/USDT",
			AmountUSDT: decimal.NewFromInt(1000),
			ClaimedAt:  claimed,
		}
		if err := store.AppendHistory(ctx, "u1", rec); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}

	recs, err := store.ListHistory(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(recs) != 2 || recs[0].ClaimedAt != 3000 || recs[1].ClaimedAt != 2000 {
		t.Fatalf("want newest first limited to 2, got %+v", recs)
	}

	got, ok, err := store.GetHistory(ctx, "u1", "sess-b")
	if err != nil || !ok || got.ClaimedAt != 1000 {
		t.Fatalf("GetHistory: ok=%v err=%v rec=%+v", ok, err, got)
	}
}

func TestSQLiteNotificationUpsert(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	note := trade.Notification{
		SessionID:  "sess-1",
		Status:     trade.NotificationPending,
		Side:       trade.SideBuy,
		Asset:      "BTC/USDT",
		AmountUSDT: decimal.NewFromInt(1000),
		UpdatedAt:  1000,
	}
	if err := store.UpsertNotification(ctx, "u1", note); err != nil {
		t.Fatalf("UpsertNotification: %v", err)
	}

	note.Status = trade.NotificationConfirmed
	note.ProfitUSDT = decimal.NewFromFloat(297.50)
	note.UpdatedAt = 42000
	if err := store.UpsertNotification(ctx, "u1", note); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	notes, err := store.ListNotifications(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("upsert must replace, got %d rows", len(notes))
	}
	if notes[0].Status != trade.NotificationConfirmed || !notes[0].ProfitUSDT.Equal(note.ProfitUSDT) {
		t.Fatalf("confirmed state lost: %+v", notes[0])
	}
}
