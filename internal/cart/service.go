package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ardakurt/kapinda-backend/internal/pricing"
	"github.com/ardakurt/kapinda-backend/internal/products"
	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	pkgerrors "github.com/ardakurt/kapinda-backend/pkg/errors"
	"github.com/ardakurt/kapinda-backend/pkg/metrics"
)

type catalog interface {
	Resolve(ctx context.Context, productID uuid.UUID) (*products.CatalogEntry, error)
}

type cartRows interface {
	Upsert(ctx context.Context, item *models.CartItem) error
	UpdateQuantity(ctx context.Context, item *models.CartItem) error
	Delete(ctx context.Context, userID, productID uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type cartReconciler interface {
	Load(ctx context.Context, userID uuid.UUID, state *State) (bool, error)
	Persist(ctx context.Context, userID uuid.UUID, state *State, op func(ctx context.Context) error) error
	DropSnapshot(ctx context.Context, userID uuid.UUID)
}

// AddItemInput is a request to put a product in the cart. Confirm authorizes
// the clear-then-add resolution when the product clashes with the cart.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Confirm   bool
}

// Service exposes cart operations.
type Service interface {
	Load(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	Add(ctx context.Context, userID uuid.UUID, input AddItemInput) (*AddOutcome, error)
	Decrement(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	State(userID uuid.UUID) *State
}

type service struct {
	sessions   *Sessions
	rows       cartRows
	reconciler cartReconciler
	catalog    catalog
	pricer     *pricing.Engine
	metrics    *metrics.OrderMetrics
}

// NewService builds the cart service.
func NewService(sessions *Sessions, rows cartRows, reconciler cartReconciler, cat catalog, pricer *pricing.Engine, m *metrics.OrderMetrics) (Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("cart sessions required")
	}
	if rows == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if reconciler == nil {
		return nil, fmt.Errorf("cart reconciler required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	return &service{
		sessions:   sessions,
		rows:       rows,
		reconciler: reconciler,
		catalog:    cat,
		pricer:     pricer,
		metrics:    m,
	}, nil
}

func (s *service) State(userID uuid.UUID) *State {
	return s.sessions.ForUser(userID)
}

func (s *service) dto(state *State) *CartDTO {
	items := state.Items()
	return toCartDTO(items, s.pricer.QuoteCart(items, decimal.Zero, nil))
}

// Load hydrates the session cart from the authoritative store, falling back
// to the user's snapshot when the store is unreachable.
func (s *service) Load(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "cart requires an authenticated user")
	}
	state := s.sessions.ForUser(userID)
	if _, err := s.reconciler.Load(ctx, userID, state); err != nil {
		return nil, err
	}
	return s.dto(state), nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "cart requires an authenticated user")
	}
	return s.dto(s.sessions.ForUser(userID)), nil
}

func (s *service) Add(ctx context.Context, userID uuid.UUID, input AddItemInput) (*AddOutcome, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "cart requires an authenticated user")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidItem, "product id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidItem, "quantity must be positive")
	}

	entry, err := s.catalog.Resolve(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if entry.Product.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidItem, "product has no valid price")
	}

	state := s.sessions.ForUser(userID)
	newItem := NewItemInput{
		ProductID: entry.Product.ID,
		StoreID:   entry.Product.StoreID,
		StoreType: entry.StoreType,
		Category:  entry.Product.Category,
		Name:      entry.Product.Name,
		UnitPrice: entry.Product.UnitPrice,
		Quantity:  input.Quantity,
	}

	if conflict := state.DetectConflict(newItem); conflict != nil {
		if !input.Confirm {
			s.metrics.IncCartConflict(string(conflict.Kind))
			return &AddOutcome{Conflict: conflict}, nil
		}
		state.Clear()
		if err := s.reconciler.Persist(ctx, userID, state, func(ctx context.Context) error {
			return s.rows.DeleteByUser(ctx, userID)
		}); err != nil {
			return nil, err
		}
	}

	item, _ := state.Upsert(userID, newItem)
	if err := s.reconciler.Persist(ctx, userID, state, func(ctx context.Context) error {
		row := item
		return s.rows.Upsert(ctx, &row)
	}); err != nil {
		return nil, err
	}

	return &AddOutcome{Cart: s.dto(state)}, nil
}

func (s *service) Decrement(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "cart requires an authenticated user")
	}

	state := s.sessions.ForUser(userID)
	item, removed, found := state.Decrement(productID)
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}

	var op func(ctx context.Context) error
	if removed {
		op = func(ctx context.Context) error {
			return s.rows.Delete(ctx, userID, productID)
		}
	} else {
		op = func(ctx context.Context) error {
			row := item
			return s.rows.UpdateQuantity(ctx, &row)
		}
	}
	if err := s.reconciler.Persist(ctx, userID, state, op); err != nil {
		return nil, err
	}
	return s.dto(state), nil
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "cart requires an authenticated user")
	}

	state := s.sessions.ForUser(userID)
	if _, found := state.Remove(productID); !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	if err := s.reconciler.Persist(ctx, userID, state, func(ctx context.Context) error {
		return s.rows.Delete(ctx, userID, productID)
	}); err != nil {
		return nil, err
	}
	return s.dto(state), nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "cart requires an authenticated user")
	}

	state := s.sessions.ForUser(userID)
	state.Clear()
	if err := s.reconciler.Persist(ctx, userID, state, func(ctx context.Context) error {
		return s.rows.DeleteByUser(ctx, userID)
	}); err != nil {
		return nil, err
	}
	return s.dto(state), nil
}
