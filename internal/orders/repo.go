package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ardakurt/kapinda-backend/internal/repo"
	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	"github.com/ardakurt/kapinda-backend/pkg/enums"
)

// Repository handles order persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to order operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// CreateWithTx persists the order, its items and any seeded status events
// in one shot using GORM association writes.
func (r *Repository) CreateWithTx(tx *gorm.DB, order *models.Order) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if order == nil {
		return fmt.Errorf("order is required")
	}
	return tx.Create(order).Error
}

// FindByID loads an order with items and ordered status history.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at")
		}).
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDWithTx loads an order inside a transaction, without preloads.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var order models.Order
	if err := tx.Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var records []models.Order
	if err := r.DB(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListByStore returns a vendor's orders, newest first.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Order, error) {
	var records []models.Order
	if err := r.DB(ctx).
		Preload("Items").
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateStatusWithTx sets the order's current status (and cancellation stamp
// when provided).
func (r *Repository) UpdateStatusWithTx(tx *gorm.DB, orderID uuid.UUID, status enums.OrderStatus, cancelledAt *time.Time) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	updates := map[string]any{"status": status}
	if cancelledAt != nil {
		updates["cancelled_at"] = *cancelledAt
	}
	return tx.Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

// AppendEventWithTx appends one immutable status history row.
func (r *Repository) AppendEventWithTx(tx *gorm.DB, event *models.OrderStatusEvent) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if event == nil {
		return fmt.Errorf("status event is required")
	}
	return tx.Create(event).Error
}
