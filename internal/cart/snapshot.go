package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	"github.com/ardakurt/kapinda-backend/pkg/redis"
)

// Snapshot is the last known-good cart persisted outside the primary store.
// OwnerID is checked on every read; a snapshot written for one user is never
// served to another.
type Snapshot struct {
	OwnerID uuid.UUID         `json:"owner_id"`
	Items   []models.CartItem `json:"items"`
	SavedAt time.Time         `json:"saved_at"`
}

type snapshotCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartSnapshotKey(userID string) string
}

// SnapshotStore reads and writes fallback snapshots in Redis.
type SnapshotStore struct {
	cache snapshotCache
	ttl   time.Duration
}

// NewSnapshotStore wires a snapshot store over the shared Redis client.
func NewSnapshotStore(cache snapshotCache, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{cache: cache, ttl: ttl}
}

// Save overwrites the user's snapshot with the provided items.
func (s *SnapshotStore) Save(ctx context.Context, userID uuid.UUID, items []models.CartItem, now time.Time) error {
	snapshot := Snapshot{OwnerID: userID, Items: items, SavedAt: now}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cache.CartSnapshotKey(userID.String()), payload, s.ttl)
}

// Load returns the user's snapshot, or nil on a miss, an ownership mismatch,
// or a payload that no longer parses.
func (s *SnapshotStore) Load(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	raw, err := s.cache.Get(ctx, s.cache.CartSnapshotKey(userID.String()))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, nil
	}
	if snapshot.OwnerID != userID {
		return nil, nil
	}
	return &snapshot, nil
}

// Drop removes the user's snapshot.
func (s *SnapshotStore) Drop(ctx context.Context, userID uuid.UUID) error {
	return s.cache.Del(ctx, s.cache.CartSnapshotKey(userID.String()))
}
