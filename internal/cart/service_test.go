package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ardakurt/kapinda-backend/internal/pricing"
	"github.com/ardakurt/kapinda-backend/internal/products"
	"github.com/ardakurt/kapinda-backend/pkg/config"
	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	"github.com/ardakurt/kapinda-backend/pkg/enums"
	pkgerrors "github.com/ardakurt/kapinda-backend/pkg/errors"
)

type fakeCatalog struct {
	resolveFn func(ctx context.Context, productID uuid.UUID) (*products.CatalogEntry, error)
	calls     int
}

func (f *fakeCatalog) Resolve(ctx context.Context, productID uuid.UUID) (*products.CatalogEntry, error) {
	f.calls++
	if f.resolveFn != nil {
		return f.resolveFn(ctx, productID)
	}
	return nil, pkgerrors.New(pkgerrors.CodeInvalidItem, "product not found")
}

type fakeRows struct {
	upsertFn     func(ctx context.Context, item *models.CartItem) error
	upserts      []models.CartItem
	updates      []models.CartItem
	deletes      []uuid.UUID
	userDeletes  int
	failUpsert   error
	failDelete   error
	failUserWipe error
}

func (f *fakeRows) Upsert(ctx context.Context, item *models.CartItem) error {
	if f.failUpsert != nil {
		return f.failUpsert
	}
	if f.upsertFn != nil {
		return f.upsertFn(ctx, item)
	}
	f.upserts = append(f.upserts, *item)
	return nil
}

func (f *fakeRows) UpdateQuantity(ctx context.Context, item *models.CartItem) error {
	f.updates = append(f.updates, *item)
	return nil
}

func (f *fakeRows) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	if f.failDelete != nil {
		return f.failDelete
	}
	f.deletes = append(f.deletes, productID)
	return nil
}

func (f *fakeRows) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if f.failUserWipe != nil {
		return f.failUserWipe
	}
	f.userDeletes++
	return nil
}

// passthroughReconciler runs the op and mirrors the real failure contract
// without touching Redis or Postgres.
type passthroughReconciler struct {
	resyncs int
}

func (p *passthroughReconciler) Load(ctx context.Context, userID uuid.UUID, state *State) (bool, error) {
	return false, nil
}

func (p *passthroughReconciler) Persist(ctx context.Context, userID uuid.UUID, state *State, op func(ctx context.Context) error) error {
	if err := op(ctx); err != nil {
		p.resyncs++
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart change")
	}
	return nil
}

func (p *passthroughReconciler) DropSnapshot(ctx context.Context, userID uuid.UUID) {}

func catalogWith(entries map[uuid.UUID]products.CatalogEntry) *fakeCatalog {
	return &fakeCatalog{resolveFn: func(ctx context.Context, productID uuid.UUID) (*products.CatalogEntry, error) {
		entry, ok := entries[productID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidItem, "product not found")
		}
		return &entry, nil
	}}
}

func catalogEntry(productID, storeID uuid.UUID, storeType enums.StoreType, price string) products.CatalogEntry {
	return products.CatalogEntry{
		Product: models.Product{
			ID:        productID,
			StoreID:   storeID,
			Name:      "item",
			Category:  "grocery",
			UnitPrice: decimal.RequireFromString(price),
			IsActive:  true,
		},
		StoreType: storeType,
	}
}

func newCartService(t *testing.T, cat catalog, rows cartRows, rec cartReconciler) Service {
	t.Helper()
	engine := pricing.NewEngine(config.DeliveryConfig{
		FreeThreshold:    "150",
		StandardFee:      "15",
		DefaultWindowMin: 30,
		DefaultWindowMax: 60,
	})
	svc, err := NewService(NewSessions(), rows, rec, cat, engine, nil)
	if err != nil {
		t.Fatalf("new cart service: %v", err)
	}
	return svc
}

func TestServiceAddRequiresAuthentication(t *testing.T) {
	cat := &fakeCatalog{}
	svc := newCartService(t, cat, &fakeRows{}, &passthroughReconciler{})

	_, err := svc.Add(context.Background(), uuid.Nil, AddItemInput{ProductID: uuid.New(), Quantity: 1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthenticated) {
		t.Fatalf("expected UNAUTHENTICATED, got %v", err)
	}
	if cat.calls != 0 {
		t.Fatal("unauthenticated add must not reach the catalog")
	}
}

func TestServiceAddValidatesInput(t *testing.T) {
	svc := newCartService(t, &fakeCatalog{}, &fakeRows{}, &passthroughReconciler{})
	userID := uuid.New()

	if _, err := svc.Add(context.Background(), userID, AddItemInput{ProductID: uuid.Nil, Quantity: 1}); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidItem) {
		t.Fatalf("expected INVALID_ITEM for missing product id, got %v", err)
	}
	if _, err := svc.Add(context.Background(), userID, AddItemInput{ProductID: uuid.New(), Quantity: 0}); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidItem) {
		t.Fatalf("expected INVALID_ITEM for zero quantity, got %v", err)
	}
	if _, err := svc.Add(context.Background(), userID, AddItemInput{ProductID: uuid.New(), Quantity: -1}); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidItem) {
		t.Fatalf("expected INVALID_ITEM for negative quantity, got %v", err)
	}
}

func TestServiceAddUnknownProduct(t *testing.T) {
	svc := newCartService(t, catalogWith(nil), &fakeRows{}, &passthroughReconciler{})

	_, err := svc.Add(context.Background(), uuid.New(), AddItemInput{ProductID: uuid.New(), Quantity: 1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidItem) {
		t.Fatalf("expected INVALID_ITEM, got %v", err)
	}
}

func TestServiceAddComputesTotals(t *testing.T) {
	productID := uuid.New()
	storeID := uuid.New()
	cat := catalogWith(map[uuid.UUID]products.CatalogEntry{
		productID: catalogEntry(productID, storeID, enums.StoreTypeMarket, "10.00"),
	})
	rows := &fakeRows{}
	svc := newCartService(t, cat, rows, &passthroughReconciler{})

	outcome, err := svc.Add(context.Background(), uuid.New(), AddItemInput{ProductID: productID, Quantity: 2})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if outcome.Conflict != nil {
		t.Fatalf("unexpected conflict %+v", outcome.Conflict)
	}
	cartDTO := outcome.Cart
	if len(cartDTO.Items) != 1 || cartDTO.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart items %+v", cartDTO.Items)
	}
	if !cartDTO.Subtotal.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected subtotal 20.00, got %s", cartDTO.Subtotal)
	}
	if !cartDTO.DeliveryFee.Equal(decimal.RequireFromString("15")) {
		t.Fatalf("expected delivery fee 15, got %s", cartDTO.DeliveryFee)
	}
	if !cartDTO.Total.Equal(decimal.RequireFromString("35.00")) {
		t.Fatalf("expected total 35.00, got %s", cartDTO.Total)
	}
	if len(rows.upserts) != 1 {
		t.Fatalf("expected one persisted row, got %d", len(rows.upserts))
	}
}

func TestServiceAddConflictWithoutConfirmLeavesCartUnchanged(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()
	storeOne := uuid.New()
	storeTwo := uuid.New()
	cat := catalogWith(map[uuid.UUID]products.CatalogEntry{
		productA: catalogEntry(productA, storeOne, enums.StoreTypeMarket, "10.00"),
		productB: catalogEntry(productB, storeTwo, enums.StoreTypeMarket, "7.00"),
	})
	rows := &fakeRows{}
	svc := newCartService(t, cat, rows, &passthroughReconciler{})
	userID := uuid.New()

	if _, err := svc.Add(context.Background(), userID, AddItemInput{ProductID: productA, Quantity: 1}); err != nil {
		t.Fatalf("seed add: %v", err)
	}

	outcome, err := svc.Add(context.Background(), userID, AddItemInput{ProductID: productB, Quantity: 1})
	if err != nil {
		t.Fatalf("conflicting add: %v", err)
	}
	if outcome.Conflict == nil || outcome.Conflict.Kind != ConflictKindVendor {
		t.Fatalf("expected vendor conflict, got %+v", outcome.Conflict)
	}

	cartDTO, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(cartDTO.Items) != 1 || cartDTO.Items[0].ProductID != productA {
		t.Fatalf("declined conflict must leave the cart unchanged, got %+v", cartDTO.Items)
	}
	if rows.userDeletes != 0 {
		t.Fatal("declined conflict must not clear the authoritative rows")
	}
}

func TestServiceAddConflictWithConfirmClearsThenAdds(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()
	cat := catalogWith(map[uuid.UUID]products.CatalogEntry{
		productA: catalogEntry(productA, uuid.New(), enums.StoreTypeMarket, "10.00"),
		productB: catalogEntry(productB, uuid.New(), enums.StoreTypeFood, "80.00"),
	})
	rows := &fakeRows{}
	svc := newCartService(t, cat, rows, &passthroughReconciler{})
	userID := uuid.New()

	if _, err := svc.Add(context.Background(), userID, AddItemInput{ProductID: productA, Quantity: 1}); err != nil {
		t.Fatalf("seed add: %v", err)
	}

	outcome, err := svc.Add(context.Background(), userID, AddItemInput{ProductID: productB, Quantity: 1, Confirm: true})
	if err != nil {
		t.Fatalf("confirmed add: %v", err)
	}
	if outcome.Conflict != nil {
		t.Fatalf("confirmed add must resolve, got conflict %+v", outcome.Conflict)
	}
	if len(outcome.Cart.Items) != 1 || outcome.Cart.Items[0].ProductID != productB {
		t.Fatalf("expected cart with only the new item, got %+v", outcome.Cart.Items)
	}
	if rows.userDeletes != 1 {
		t.Fatalf("expected one authoritative clear, got %d", rows.userDeletes)
	}
}

func TestServiceAddPersistFailureSurfacesError(t *testing.T) {
	productID := uuid.New()
	cat := catalogWith(map[uuid.UUID]products.CatalogEntry{
		productID: catalogEntry(productID, uuid.New(), enums.StoreTypeMarket, "10.00"),
	})
	rows := &fakeRows{failUpsert: errors.New("write timeout")}
	rec := &passthroughReconciler{}
	svc := newCartService(t, cat, rows, rec)

	_, err := svc.Add(context.Background(), uuid.New(), AddItemInput{ProductID: productID, Quantity: 1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}
	if rec.resyncs != 1 {
		t.Fatalf("expected one resync path, got %d", rec.resyncs)
	}
}

func TestServiceDecrementRemovesAtOne(t *testing.T) {
	productID := uuid.New()
	cat := catalogWith(map[uuid.UUID]products.CatalogEntry{
		productID: catalogEntry(productID, uuid.New(), enums.StoreTypeMarket, "10.00"),
	})
	rows := &fakeRows{}
	svc := newCartService(t, cat, rows, &passthroughReconciler{})
	userID := uuid.New()

	if _, err := svc.Add(context.Background(), userID, AddItemInput{ProductID: productID, Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}

	cartDTO, err := svc.Decrement(context.Background(), userID, productID)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if cartDTO.Items[0].Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", cartDTO.Items[0].Quantity)
	}
	if len(rows.updates) != 1 {
		t.Fatalf("expected one quantity update, got %d", len(rows.updates))
	}

	cartDTO, err = svc.Decrement(context.Background(), userID, productID)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if len(cartDTO.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", cartDTO.Items)
	}
	if len(rows.deletes) != 1 {
		t.Fatalf("expected one row delete, got %d", len(rows.deletes))
	}
}

func TestServiceRemoveMissingItem(t *testing.T) {
	svc := newCartService(t, &fakeCatalog{}, &fakeRows{}, &passthroughReconciler{})

	_, err := svc.Remove(context.Background(), uuid.New(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestServiceClearEmptiesCart(t *testing.T) {
	productID := uuid.New()
	cat := catalogWith(map[uuid.UUID]products.CatalogEntry{
		productID: catalogEntry(productID, uuid.New(), enums.StoreTypeMarket, "10.00"),
	})
	rows := &fakeRows{}
	svc := newCartService(t, cat, rows, &passthroughReconciler{})
	userID := uuid.New()

	if _, err := svc.Add(context.Background(), userID, AddItemInput{ProductID: productID, Quantity: 3}); err != nil {
		t.Fatalf("add: %v", err)
	}

	cartDTO, err := svc.Clear(context.Background(), userID)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(cartDTO.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", cartDTO.Items)
	}
	if rows.userDeletes != 1 {
		t.Fatalf("expected one authoritative clear, got %d", rows.userDeletes)
	}
}
