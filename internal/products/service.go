package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	"github.com/ardakurt/kapinda-backend/pkg/enums"
	pkgerrors "github.com/ardakurt/kapinda-backend/pkg/errors"
)

type productRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Product, error)
}

type storeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// ProductDTO is the read model returned to clients.
type ProductDTO struct {
	ID        uuid.UUID       `json:"id"`
	StoreID   uuid.UUID       `json:"store_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CatalogEntry joins a product with its store for cart validation.
type CatalogEntry struct {
	Product   models.Product
	StoreType enums.StoreType
}

// Service exposes product lookups and cart-side validation data.
type Service interface {
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]ProductDTO, error)
	Resolve(ctx context.Context, productID uuid.UUID) (*CatalogEntry, error)
}

type service struct {
	repo   productRepository
	stores storeRepository
}

// NewService builds a product service with the provided repositories.
func NewService(repo productRepository, stores storeRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo, stores: stores}, nil
}

func (s *service) ListByStore(ctx context.Context, storeID uuid.UUID) ([]ProductDTO, error) {
	records, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(records))
	for _, p := range records {
		out = append(out, ProductDTO{
			ID:        p.ID,
			StoreID:   p.StoreID,
			Name:      p.Name,
			Category:  p.Category,
			UnitPrice: p.UnitPrice,
		})
	}
	return out, nil
}

// Resolve loads a product and its owning store. Inactive products and stores
// resolve to INVALID_ITEM so carts never accept dead catalog entries.
func (s *service) Resolve(ctx context.Context, productID uuid.UUID) (*CatalogEntry, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidItem, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidItem, "product is not available")
	}

	store, err := s.stores.FindByID(ctx, product.StoreID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidItem, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if !store.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidItem, "store is not accepting orders")
	}

	return &CatalogEntry{Product: *product, StoreType: store.Type}, nil
}
