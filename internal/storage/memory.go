package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"aitrade-engine/internal/trade"
)

// MemoryStore is an in-process Store used by the simulate command and
// engine tests. Same semantics as the durable backends.
type MemoryStore struct {
	mu            sync.Mutex
	snapshots     map[string]trade.Snapshot
	history       map[string]map[string]trade.HistoryRecord
	notifications map[string]map[string]trade.Notification
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots:     make(map[string]trade.Snapshot),
		history:       make(map[string]map[string]trade.HistoryRecord),
		notifications: make(map[string]map[string]trade.Notification),
	}
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// SaveSnapshot writes or replaces the user's in-flight session.
func (s *MemoryStore) SaveSnapshot(ctx context.Context, userID string, snap trade.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.Session = *snap.Session.Clone()
	s.snapshots[userID] = snap
	return nil
}

// LoadSnapshot returns the user's persisted session, if any.
func (s *MemoryStore) LoadSnapshot(ctx context.Context, userID string) (trade.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[userID]
	if !ok {
		return trade.Snapshot{}, false, nil
	}
	snap.Session = *snap.Session.Clone()
	return snap, true, nil
}

// DeleteSnapshot removes the user's persisted session.
func (s *MemoryStore) DeleteSnapshot(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, userID)
	return nil
}

// AppendHistory records a settled session once per session id.
func (s *MemoryStore) AppendHistory(ctx context.Context, userID string, rec trade.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.history[userID] == nil {
		s.history[userID] = make(map[string]trade.HistoryRecord)
	}
	if _, exists := s.history[userID][rec.ID]; exists {
		return nil
	}
	s.history[userID][rec.ID] = rec
	return nil
}

// GetHistory fetches one settled session record by id.
func (s *MemoryStore) GetHistory(ctx context.Context, userID, sessionID string) (trade.HistoryRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.history[userID][sessionID]
	return rec, ok, nil
}

// ListHistory returns settled sessions newest first.
func (s *MemoryStore) ListHistory(ctx context.Context, userID string, limit int) ([]trade.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]trade.HistoryRecord, 0, len(s.history[userID]))
	for _, rec := range s.history[userID] {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ClaimedAt > records[j].ClaimedAt })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// UpsertNotification writes or replaces the session's status projection.
func (s *MemoryStore) UpsertNotification(ctx context.Context, userID string, note trade.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if note.UpdatedAt == 0 {
		note.UpdatedAt = trade.TimeMS(time.Now())
	}
	if s.notifications[userID] == nil {
		s.notifications[userID] = make(map[string]trade.Notification)
	}
	s.notifications[userID][note.SessionID] = note
	return nil
}

// ListNotifications returns notifications newest first.
func (s *MemoryStore) ListNotifications(ctx context.Context, userID string, limit int) ([]trade.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	notes := make([]trade.Notification, 0, len(s.notifications[userID]))
	for _, note := range s.notifications[userID] {
		notes = append(notes, note)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].UpdatedAt > notes[j].UpdatedAt })
	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}

var _ Store = (*MemoryStore)(nil)
