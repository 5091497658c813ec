package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	"github.com/ardakurt/kapinda-backend/pkg/enums"
	"github.com/ardakurt/kapinda-backend/pkg/redis"
)

type fakeCache struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeCache) CartSnapshotKey(userID string) string {
	return "kp:cart_snapshot:" + userID
}

func snapshotItems(userID uuid.UUID) []models.CartItem {
	return []models.CartItem{{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: uuid.New(),
		StoreID:   uuid.New(),
		StoreType: enums.StoreTypeFood,
		Category:  "kebap",
		Name:      "adana",
		UnitPrice: decimal.RequireFromString("120.00"),
		Quantity:  2,
		LineTotal: decimal.RequireFromString("240.00"),
	}}
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	cache := newFakeCache()
	store := NewSnapshotStore(cache, 24*time.Hour)
	userID := uuid.New()
	items := snapshotItems(userID)

	if err := store.Save(context.Background(), userID, items, time.Now()); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	if ttl := cache.ttls[cache.CartSnapshotKey(userID.String())]; ttl != 24*time.Hour {
		t.Fatalf("expected 24h ttl, got %v", ttl)
	}

	snapshot, err := store.Load(context.Background(), userID)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if snapshot == nil {
		t.Fatal("expected a snapshot")
	}
	if snapshot.OwnerID != userID {
		t.Fatalf("expected owner %s, got %s", userID, snapshot.OwnerID)
	}
	if len(snapshot.Items) != 1 || snapshot.Items[0].ProductID != items[0].ProductID {
		t.Fatalf("unexpected snapshot items %+v", snapshot.Items)
	}
	if !snapshot.Items[0].UnitPrice.Equal(items[0].UnitPrice) {
		t.Fatalf("unit price did not survive the round trip: %s", snapshot.Items[0].UnitPrice)
	}
}

func TestSnapshotStoreMissReturnsNil(t *testing.T) {
	store := NewSnapshotStore(newFakeCache(), time.Hour)

	snapshot, err := store.Load(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if snapshot != nil {
		t.Fatalf("expected nil on miss, got %+v", snapshot)
	}
}

func TestSnapshotStoreRejectsForeignOwner(t *testing.T) {
	cache := newFakeCache()
	store := NewSnapshotStore(cache, time.Hour)
	owner := uuid.New()
	intruder := uuid.New()

	if err := store.Save(context.Background(), owner, snapshotItems(owner), time.Now()); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	// Simulate a key collision: the intruder's key points at the owner's payload.
	cache.values[cache.CartSnapshotKey(intruder.String())] = cache.values[cache.CartSnapshotKey(owner.String())]

	snapshot, err := store.Load(context.Background(), intruder)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if snapshot != nil {
		t.Fatal("a snapshot owned by another user must never be returned")
	}
}

func TestSnapshotStoreDrop(t *testing.T) {
	cache := newFakeCache()
	store := NewSnapshotStore(cache, time.Hour)
	userID := uuid.New()

	if err := store.Save(context.Background(), userID, snapshotItems(userID), time.Now()); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	if err := store.Drop(context.Background(), userID); err != nil {
		t.Fatalf("drop snapshot: %v", err)
	}

	snapshot, err := store.Load(context.Background(), userID)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if snapshot != nil {
		t.Fatal("expected snapshot gone after drop")
	}
}

func TestSnapshotStoreIgnoresCorruptPayload(t *testing.T) {
	cache := newFakeCache()
	store := NewSnapshotStore(cache, time.Hour)
	userID := uuid.New()
	cache.values[cache.CartSnapshotKey(userID.String())] = "{not json"

	snapshot, err := store.Load(context.Background(), userID)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if snapshot != nil {
		t.Fatal("corrupt payloads must be treated as a miss")
	}
}
