package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"aitrade-engine/internal/trade"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	user_id  TEXT PRIMARY KEY,
	payload  TEXT NOT NULL,
	saved_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
	session_id TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	payload    TEXT NOT NULL,
	claimed_at INTEGER NOT NULL,
	PRIMARY KEY (user_id, session_id)
);

CREATE INDEX IF NOT EXISTS idx_history_user_claimed ON history(user_id, claimed_at DESC);

CREATE TABLE IF NOT EXISTS notifications (
	session_id TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	payload    TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (user_id, session_id)
);

CREATE INDEX IF NOT EXISTS idx_notifications_user_updated ON notifications(user_id, updated_at DESC);
`

// SQLiteStore keeps per-user session state in an embedded database, the
// durable local storage of the engine.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// migrates the schema. WAL mode keeps snapshot writes cheap while the
// 1 Hz tick loop is running.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path required")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveSnapshot writes or replaces the user's in-flight session.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, userID string, snap trade.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (user_id, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		userID, string(payload), snap.SavedAt)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the user's persisted session, if any.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context, userID string) (trade.Snapshot, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE user_id = ?`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return trade.Snapshot{}, false, nil
	}
	if err != nil {
		return trade.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	var snap trade.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return trade.Snapshot{}, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, true, nil
}

// DeleteSnapshot removes the user's persisted session.
func (s *SQLiteStore) DeleteSnapshot(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// AppendHistory records a settled session. A second append for the same
// session id is a no-op, keeping history append-only and deduplicated.
func (s *SQLiteStore) AppendHistory(ctx context.Context, userID string, rec trade.HistoryRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO history (session_id, user_id, payload, claimed_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, session_id) DO NOTHING`,
		rec.ID, userID, string(payload), rec.ClaimedAt)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// GetHistory fetches one settled session record by id.
func (s *SQLiteStore) GetHistory(ctx context.Context, userID, sessionID string) (trade.HistoryRecord, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM history WHERE user_id = ? AND session_id = ?`,
		userID, sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return trade.HistoryRecord{}, false, nil
	}
	if err != nil {
		return trade.HistoryRecord{}, false, fmt.Errorf("get history: %w", err)
	}

	var rec trade.HistoryRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return trade.HistoryRecord{}, false, fmt.Errorf("unmarshal history record: %w", err)
	}
	return rec, true, nil
}

// ListHistory returns the most recently settled sessions first. limit <= 0
// means no limit.
func (s *SQLiteStore) ListHistory(ctx context.Context, userID string, limit int) ([]trade.HistoryRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM history WHERE user_id = ? ORDER BY claimed_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var records []trade.HistoryRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec trade.HistoryRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal history record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpsertNotification writes or replaces the session's status projection.
func (s *SQLiteStore) UpsertNotification(ctx context.Context, userID string, note trade.Notification) error {
	if note.UpdatedAt == 0 {
		note.UpdatedAt = trade.TimeMS(time.Now())
	}
	payload, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO notifications (session_id, user_id, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, session_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		note.SessionID, userID, string(payload), note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert notification: %w", err)
	}
	return nil
}

// ListNotifications returns the most recently updated notifications first.
// limit <= 0 means no limit.
func (s *SQLiteStore) ListNotifications(ctx context.Context, userID string, limit int) ([]trade.Notification, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM notifications WHERE user_id = ? ORDER BY updated_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notes []trade.Notification
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var note trade.Notification
		if err := json.Unmarshal([]byte(payload), &note); err != nil {
			return nil, fmt.Errorf("unmarshal notification: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

var _ Store = (*SQLiteStore)(nil)
