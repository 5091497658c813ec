package addresses

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ardakurt/kapinda-backend/internal/repo"
	"github.com/ardakurt/kapinda-backend/pkg/db/models"
)

// Repository handles address persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to address operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads an address by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.DB(ctx).
		Where("id = ?", id).
		First(&address).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

// ListByUser returns the user's addresses, default first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var records []models.Address
	if err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Create persists a new address row.
func (r *Repository) Create(ctx context.Context, address *models.Address) error {
	if address == nil {
		return fmt.Errorf("address is required")
	}
	return r.DB(ctx).Create(address).Error
}

// SetDefault marks one address as default and clears the flag on the rest,
// atomically.
func (r *Repository) SetDefault(ctx context.Context, userID, addressID uuid.UUID) error {
	return r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Address{}).
			Where("user_id = ? AND is_default", userID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		result := tx.Model(&models.Address{}).
			Where("id = ? AND user_id = ?", addressID, userID).
			Update("is_default", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Delete removes the user's address.
func (r *Repository) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	result := r.DB(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&models.Address{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
