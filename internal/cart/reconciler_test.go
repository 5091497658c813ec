package cart

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	"github.com/ardakurt/kapinda-backend/pkg/enums"
	pkgerrors "github.com/ardakurt/kapinda-backend/pkg/errors"
	"github.com/ardakurt/kapinda-backend/pkg/logger"
)

type fakeRemote struct {
	findFn func(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	calls  int
}

func (f *fakeRemote) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	f.calls++
	if f.findFn != nil {
		return f.findFn(ctx, userID)
	}
	return nil, nil
}

type fakeSnapshots struct {
	saved   []Snapshot
	loadFn  func(ctx context.Context, userID uuid.UUID) (*Snapshot, error)
	dropped int
}

func (f *fakeSnapshots) Save(ctx context.Context, userID uuid.UUID, items []models.CartItem, now time.Time) error {
	f.saved = append(f.saved, Snapshot{OwnerID: userID, Items: items, SavedAt: now})
	return nil
}

func (f *fakeSnapshots) Load(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	if f.loadFn != nil {
		return f.loadFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeSnapshots) Drop(ctx context.Context, userID uuid.UUID) error {
	f.dropped++
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func remoteItem(userID, storeID uuid.UUID) models.CartItem {
	return models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: uuid.New(),
		StoreID:   storeID,
		StoreType: enums.StoreTypeMarket,
		Category:  "grocery",
		Name:      "item",
		UnitPrice: decimal.RequireFromString("9.99"),
		Quantity:  1,
	}
}

func TestReconcilerLoadReplacesStateAndSnapshot(t *testing.T) {
	userID := uuid.New()
	item := remoteItem(userID, uuid.New())

	remote := &fakeRemote{findFn: func(ctx context.Context, id uuid.UUID) ([]models.CartItem, error) {
		return []models.CartItem{item}, nil
	}}
	snapshots := &fakeSnapshots{}
	rec, err := NewReconciler(remote, snapshots, testLogger(), nil)
	if err != nil {
		t.Fatalf("new reconciler: %v", err)
	}

	state := NewState()
	fromSnapshot, err := rec.Load(context.Background(), userID, state)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fromSnapshot {
		t.Fatal("healthy remote must not use the fallback snapshot")
	}
	if len(state.Items()) != 1 {
		t.Fatalf("expected 1 item in state, got %d", len(state.Items()))
	}
	if len(snapshots.saved) != 1 || snapshots.saved[0].OwnerID != userID {
		t.Fatalf("expected snapshot refresh for %s, got %+v", userID, snapshots.saved)
	}
}

func TestReconcilerLoadFallsBackToOwnedSnapshot(t *testing.T) {
	userID := uuid.New()
	item := remoteItem(userID, uuid.New())

	remote := &fakeRemote{findFn: func(ctx context.Context, id uuid.UUID) ([]models.CartItem, error) {
		return nil, errors.New("connection refused")
	}}
	snapshots := &fakeSnapshots{loadFn: func(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
		return &Snapshot{OwnerID: userID, Items: []models.CartItem{item}, SavedAt: time.Now()}, nil
	}}
	rec, _ := NewReconciler(remote, snapshots, testLogger(), nil)

	state := NewState()
	fromSnapshot, err := rec.Load(context.Background(), userID, state)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !fromSnapshot {
		t.Fatal("expected fallback snapshot to serve the load")
	}
	if len(state.Items()) != 1 {
		t.Fatalf("expected 1 item from snapshot, got %d", len(state.Items()))
	}
}

func TestReconcilerLoadWithoutSnapshotStartsEmpty(t *testing.T) {
	remote := &fakeRemote{findFn: func(ctx context.Context, id uuid.UUID) ([]models.CartItem, error) {
		return nil, errors.New("connection refused")
	}}
	rec, _ := NewReconciler(remote, &fakeSnapshots{}, testLogger(), nil)

	state := NewState()
	state.Replace([]models.CartItem{remoteItem(uuid.New(), uuid.New())})

	fromSnapshot, err := rec.Load(context.Background(), uuid.New(), state)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fromSnapshot {
		t.Fatal("no snapshot available, fallback must not be reported")
	}
	if !state.IsEmpty() {
		t.Fatal("expected empty cart when remote and snapshot both miss")
	}
}

func TestReconcilerPersistSuccessRefreshesSnapshot(t *testing.T) {
	userID := uuid.New()
	snapshots := &fakeSnapshots{}
	rec, _ := NewReconciler(&fakeRemote{}, snapshots, testLogger(), nil)

	state := NewState()
	state.Replace([]models.CartItem{remoteItem(userID, uuid.New())})

	err := rec.Persist(context.Background(), userID, state, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if len(snapshots.saved) != 1 || len(snapshots.saved[0].Items) != 1 {
		t.Fatalf("expected snapshot with 1 item, got %+v", snapshots.saved)
	}
}

func TestReconcilerPersistFailureResyncsOnce(t *testing.T) {
	userID := uuid.New()
	authoritative := remoteItem(userID, uuid.New())

	remote := &fakeRemote{findFn: func(ctx context.Context, id uuid.UUID) ([]models.CartItem, error) {
		return []models.CartItem{authoritative}, nil
	}}
	rec, _ := NewReconciler(remote, &fakeSnapshots{}, testLogger(), nil)

	state := NewState()
	state.Replace([]models.CartItem{remoteItem(userID, uuid.New()), remoteItem(userID, uuid.New())})

	err := rec.Persist(context.Background(), userID, state, func(ctx context.Context) error {
		return errors.New("write timeout")
	})
	if err == nil {
		t.Fatal("expected persist error")
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if remote.calls != 1 {
		t.Fatalf("expected exactly one resync attempt, got %d", remote.calls)
	}
	items := state.Items()
	if len(items) != 1 || items[0].ProductID != authoritative.ProductID {
		t.Fatalf("expected state resynced to authoritative rows, got %+v", items)
	}
}

func TestReconcilerPersistFailureKeepsStateWhenResyncFails(t *testing.T) {
	userID := uuid.New()
	remote := &fakeRemote{findFn: func(ctx context.Context, id uuid.UUID) ([]models.CartItem, error) {
		return nil, errors.New("still down")
	}}
	rec, _ := NewReconciler(remote, &fakeSnapshots{}, testLogger(), nil)

	state := NewState()
	local := remoteItem(userID, uuid.New())
	state.Replace([]models.CartItem{local})

	err := rec.Persist(context.Background(), userID, state, func(ctx context.Context) error {
		return errors.New("write timeout")
	})
	if err == nil {
		t.Fatal("expected persist error")
	}
	items := state.Items()
	if len(items) != 1 || items[0].ProductID != local.ProductID {
		t.Fatalf("in-memory state must survive a failed resync, got %+v", items)
	}
}
