package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ardakurt/kapinda-backend/internal/repo"
	"github.com/ardakurt/kapinda-backend/pkg/db/models"
)

// Repository is the authoritative cart row store.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to cart operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByUser returns the user's cart rows in insertion order.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Upsert writes one cart row, merging on (user_id, product_id).
func (r *Repository) Upsert(ctx context.Context, item *models.CartItem) error {
	if item == nil {
		return fmt.Errorf("cart item is required")
	}
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"quantity", "unit_price", "line_total", "updated_at",
			}),
		}).
		Create(item).Error
}

// UpdateQuantity persists a new quantity/line total for one row.
func (r *Repository) UpdateQuantity(ctx context.Context, item *models.CartItem) error {
	if item == nil {
		return fmt.Errorf("cart item is required")
	}
	return r.DB(ctx).
		Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).
		Updates(map[string]any{
			"quantity":   item.Quantity,
			"line_total": item.LineTotal,
		}).Error
}

// Delete removes one row by product.
func (r *Repository) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	return r.DB(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{}).Error
}

// DeleteByUser removes every row for the user.
func (r *Repository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.DB(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}

// DeleteByUserWithTx removes every row for the user inside a transaction,
// used when checkout empties the cart atomically with order creation.
func (r *Repository) DeleteByUserWithTx(tx *gorm.DB, userID uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}
