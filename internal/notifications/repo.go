package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ardakurt/kapinda-backend/internal/repo"
	"github.com/ardakurt/kapinda-backend/pkg/db/models"
)

// Repository handles notification persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to notification operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists one notification row.
func (r *Repository) Create(ctx context.Context, notification *models.Notification) error {
	if notification == nil {
		return fmt.Errorf("notification is required")
	}
	return r.DB(ctx).Create(notification).Error
}

// ListByRecipient returns the user's notifications, newest first.
func (r *Repository) ListByRecipient(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []models.Notification
	if err := r.DB(ctx).
		Where("recipient_user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// MarkRead stamps one unread notification owned by the user. Returns
// gorm.ErrRecordNotFound when nothing matched.
func (r *Repository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) error {
	result := r.DB(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead stamps every unread notification for the user.
func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	result := r.DB(ctx).
		Model(&models.Notification{}).
		Where("recipient_user_id = ? AND read_at IS NULL", userID).
		Update("read_at", now)
	return result.RowsAffected, result.Error
}
