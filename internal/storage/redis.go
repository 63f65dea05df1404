package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"aitrade-engine/internal/trade"
)

// RedisOptions parameterise the redis-backed store.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore keeps per-user session state in redis: one string key per
// snapshot, one hash per user for history and notifications. Used where
// session state must survive host moves; semantics match SQLiteStore.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "aitrade"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

// Close releases the client.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) snapshotKey(userID string) string {
	return fmt.Sprintf("%s:%s:snapshot", s.prefix, userID)
}

func (s *RedisStore) historyKey(userID string) string {
	return fmt.Sprintf("%s:%s:history", s.prefix, userID)
}

func (s *RedisStore) notificationKey(userID string) string {
	return fmt.Sprintf("%s:%s:notifications", s.prefix, userID)
}

// SaveSnapshot writes or replaces the user's in-flight session.
func (s *RedisStore) SaveSnapshot(ctx context.Context, userID string, snap trade.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.snapshotKey(userID), payload, 0).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the user's persisted session, if any.
func (s *RedisStore) LoadSnapshot(ctx context.Context, userID string) (trade.Snapshot, bool, error) {
	payload, err := s.client.Get(ctx, s.snapshotKey(userID)).Bytes()
	if err == redis.Nil {
		return trade.Snapshot{}, false, nil
	}
	if err != nil {
		return trade.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	var snap trade.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return trade.Snapshot{}, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, true, nil
}

// DeleteSnapshot removes the user's persisted session.
func (s *RedisStore) DeleteSnapshot(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.snapshotKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// AppendHistory records a settled session once per session id.
func (s *RedisStore) AppendHistory(ctx context.Context, userID string, rec trade.HistoryRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}
	if err := s.client.HSetNX(ctx, s.historyKey(userID), rec.ID, payload).Err(); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// GetHistory fetches one settled session record by id.
func (s *RedisStore) GetHistory(ctx context.Context, userID, sessionID string) (trade.HistoryRecord, bool, error) {
	payload, err := s.client.HGet(ctx, s.historyKey(userID), sessionID).Bytes()
	if err == redis.Nil {
		return trade.HistoryRecord{}, false, nil
	}
	if err != nil {
		return trade.HistoryRecord{}, false, fmt.Errorf("get history: %w", err)
	}

	var rec trade.HistoryRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return trade.HistoryRecord{}, false, fmt.Errorf("unmarshal history record: %w", err)
	}
	return rec, true, nil
}

// ListHistory returns settled sessions newest first.
func (s *RedisStore) ListHistory(ctx context.Context, userID string, limit int) ([]trade.HistoryRecord, error) {
	values, err := s.client.HGetAll(ctx, s.historyKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	records := make([]trade.HistoryRecord, 0, len(values))
	for _, payload := range values {
		var rec trade.HistoryRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal history record: %w", err)
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ClaimedAt > records[j].ClaimedAt })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// UpsertNotification writes or replaces the session's status projection.
func (s *RedisStore) UpsertNotification(ctx context.Context, userID string, note trade.Notification) error {
	if note.UpdatedAt == 0 {
		note.UpdatedAt = trade.TimeMS(time.Now())
	}
	payload, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := s.client.HSet(ctx, s.notificationKey(userID), note.SessionID, payload).Err(); err != nil {
		return fmt.Errorf("upsert notification: %w", err)
	}
	return nil
}

// ListNotifications returns notifications newest first.
func (s *RedisStore) ListNotifications(ctx context.Context, userID string, limit int) ([]trade.Notification, error) {
	values, err := s.client.HGetAll(ctx, s.notificationKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	notes := make([]trade.Notification, 0, len(values))
	for _, payload := range values {
		var note trade.Notification
		if err := json.Unmarshal([]byte(payload), &note); err != nil {
			return nil, fmt.Errorf("unmarshal notification: %w", err)
		}
		notes = append(notes, note)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].UpdatedAt > notes[j].UpdatedAt })
	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}

var _ Store = (*RedisStore)(nil)
