package storage

import (
	"context"

	"aitrade-engine/internal/trade"
)

// SnapshotStore persists the single in-flight session per user. The
// snapshot is written on every phase or session mutation and deleted on
// settlement; its presence is what makes a session recoverable.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, userID string, snap trade.Snapshot) error
	LoadSnapshot(ctx context.Context, userID string) (trade.Snapshot, bool, error)
	DeleteSnapshot(ctx context.Context, userID string) error
}

// HistoryStore is the append-only local record of settled sessions,
// deduplicated by session id.
type HistoryStore interface {
	AppendHistory(ctx context.Context, userID string, rec trade.HistoryRecord) error
	GetHistory(ctx context.Context, userID, sessionID string) (trade.HistoryRecord, bool, error)
	ListHistory(ctx context.Context, userID string, limit int) ([]trade.HistoryRecord, error)
}

// NotificationStore upserts the per-session status projection by id.
type NotificationStore interface {
	UpsertNotification(ctx context.Context, userID string, note trade.Notification) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]trade.Notification, error)
}

// Store aggregates the per-user local stores behind one handle.
type Store interface {
	SnapshotStore
	HistoryStore
	NotificationStore
	Close() error
}
