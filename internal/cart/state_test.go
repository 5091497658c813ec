package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	"github.com/ardakurt/kapinda-backend/pkg/enums"
)

func newInput(productID, storeID uuid.UUID, storeType enums.StoreType, price string, qty int) NewItemInput {
	return NewItemInput{
		ProductID: productID,
		StoreID:   storeID,
		StoreType: storeType,
		Category:  "grocery",
		Name:      "item",
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func TestStateUpsertMergesByProduct(t *testing.T) {
	state := NewState()
	userID := uuid.New()
	productID := uuid.New()
	storeID := uuid.New()

	first, merged := state.Upsert(userID, newInput(productID, storeID, enums.StoreTypeMarket, "10.00", 2))
	if merged {
		t.Fatal("first add must not report a merge")
	}
	second, merged := state.Upsert(userID, newInput(productID, storeID, enums.StoreTypeMarket, "10.00", 3))
	if !merged {
		t.Fatal("repeated add must merge into the existing row")
	}
	if second.ID != first.ID {
		t.Fatalf("merge must keep the original row id")
	}
	if second.Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", second.Quantity)
	}
	if !second.LineTotal.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("expected line total 50.00, got %s", second.LineTotal)
	}
	if len(state.Items()) != 1 {
		t.Fatalf("expected a single row, got %d", len(state.Items()))
	}
}

func TestStateDetectConflictKinds(t *testing.T) {
	state := NewState()
	userID := uuid.New()
	storeA := uuid.New()
	state.Upsert(userID, newInput(uuid.New(), storeA, enums.StoreTypeMarket, "5.00", 1))

	categoryConflict := state.DetectConflict(newInput(uuid.New(), uuid.New(), enums.StoreTypeFood, "5.00", 1))
	if categoryConflict == nil || categoryConflict.Kind != ConflictKindCategory {
		t.Fatalf("expected category conflict, got %+v", categoryConflict)
	}

	vendorConflict := state.DetectConflict(newInput(uuid.New(), uuid.New(), enums.StoreTypeMarket, "5.00", 1))
	if vendorConflict == nil || vendorConflict.Kind != ConflictKindVendor {
		t.Fatalf("expected vendor conflict, got %+v", vendorConflict)
	}

	if c := state.DetectConflict(newInput(uuid.New(), storeA, enums.StoreTypeMarket, "5.00", 1)); c != nil {
		t.Fatalf("same store must not conflict, got %+v", c)
	}
}

func TestStateDetectConflictEmptyCart(t *testing.T) {
	state := NewState()
	if c := state.DetectConflict(newInput(uuid.New(), uuid.New(), enums.StoreTypeWater, "5.00", 1)); c != nil {
		t.Fatalf("empty cart must accept any item, got %+v", c)
	}
}

func TestStateDecrement(t *testing.T) {
	state := NewState()
	userID := uuid.New()
	productID := uuid.New()
	storeID := uuid.New()
	state.Upsert(userID, newInput(productID, storeID, enums.StoreTypeMarket, "4.00", 2))

	item, removed, found := state.Decrement(productID)
	if !found || removed {
		t.Fatalf("expected in-place decrement, removed=%v found=%v", removed, found)
	}
	if item.Quantity != 1 || !item.LineTotal.Equal(decimal.RequireFromString("4.00")) {
		t.Fatalf("unexpected row after decrement: qty=%d total=%s", item.Quantity, item.LineTotal)
	}

	_, removed, found = state.Decrement(productID)
	if !found || !removed {
		t.Fatalf("decrement at quantity 1 must remove the row, removed=%v found=%v", removed, found)
	}
	if !state.IsEmpty() {
		t.Fatal("expected empty cart")
	}

	if _, _, found = state.Decrement(productID); found {
		t.Fatal("decrement on missing product must report not found")
	}
}

func TestStateRemoveAndClear(t *testing.T) {
	state := NewState()
	userID := uuid.New()
	storeID := uuid.New()
	productID := uuid.New()
	state.Upsert(userID, newInput(productID, storeID, enums.StoreTypeMarket, "4.00", 5))
	state.Upsert(userID, newInput(uuid.New(), storeID, enums.StoreTypeMarket, "2.00", 1))

	if _, found := state.Remove(productID); !found {
		t.Fatal("expected removal of existing product")
	}
	if len(state.Items()) != 1 {
		t.Fatalf("expected one remaining row, got %d", len(state.Items()))
	}

	state.Clear()
	if !state.IsEmpty() {
		t.Fatal("expected cleared cart")
	}
}

func TestStateReplaceDropsInvariantBreakers(t *testing.T) {
	state := NewState()
	storeA := uuid.New()
	productID := uuid.New()

	state.Replace([]models.CartItem{
		{ProductID: productID, StoreID: storeA, StoreType: enums.StoreTypeMarket, UnitPrice: decimal.RequireFromString("3.00"), Quantity: 2},
		{ProductID: uuid.New(), StoreID: uuid.New(), StoreType: enums.StoreTypeMarket, UnitPrice: decimal.RequireFromString("3.00"), Quantity: 1}, // other vendor
		{ProductID: uuid.New(), StoreID: storeA, StoreType: enums.StoreTypeFood, UnitPrice: decimal.RequireFromString("3.00"), Quantity: 1},       // other category
		{ProductID: productID, StoreID: storeA, StoreType: enums.StoreTypeMarket, UnitPrice: decimal.RequireFromString("3.00"), Quantity: 4},      // duplicate product
		{ProductID: uuid.New(), StoreID: storeA, StoreType: enums.StoreTypeMarket, UnitPrice: decimal.RequireFromString("3.00"), Quantity: 0},     // bad quantity
	})

	items := state.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 surviving row, got %d", len(items))
	}
	if items[0].ProductID != productID || items[0].Quantity != 2 {
		t.Fatalf("unexpected surviving row %+v", items[0])
	}
	if !items[0].LineTotal.Equal(decimal.RequireFromString("6.00")) {
		t.Fatalf("expected recomputed line total 6.00, got %s", items[0].LineTotal)
	}
}

func TestStateNotifiesListeners(t *testing.T) {
	state := NewState()
	var seen [][]models.CartItem
	state.Subscribe(func(items []models.CartItem) {
		seen = append(seen, items)
	})

	state.Upsert(uuid.New(), newInput(uuid.New(), uuid.New(), enums.StoreTypeMarket, "1.00", 1))
	state.Clear()

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if len(seen[0]) != 1 || len(seen[1]) != 0 {
		t.Fatalf("unexpected notification payloads: %d then %d items", len(seen[0]), len(seen[1]))
	}
}

func TestSessionsIsolatePerUser(t *testing.T) {
	sessions := NewSessions()
	alice := uuid.New()
	bob := uuid.New()

	sessions.ForUser(alice).Upsert(alice, newInput(uuid.New(), uuid.New(), enums.StoreTypeMarket, "2.00", 1))

	if !sessions.ForUser(bob).IsEmpty() {
		t.Fatal("a user's cart must not leak into another session")
	}
	if sessions.ForUser(alice).IsEmpty() {
		t.Fatal("expected alice's cart to persist across lookups")
	}

	sessions.Drop(alice)
	if !sessions.ForUser(alice).IsEmpty() {
		t.Fatal("dropped session must start empty")
	}
}
