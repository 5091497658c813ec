package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ardakurt/kapinda-backend/internal/repo"
	"github.com/ardakurt/kapinda-backend/pkg/db/models"
)

// Repository handles product persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to product operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads a product by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).
		Where("id = ?", id).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListByStore returns active products for the provided store.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Product, error) {
	var records []models.Product
	if err := r.DB(ctx).
		Where("store_id = ? AND is_active", storeID).
		Order("category, name").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
