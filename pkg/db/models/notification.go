package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ardakurt/kapinda-backend/pkg/enums"
)

// Notification is a persisted message for a user (vendor owners for new
// orders, buyers for status changes). Delivery transport lives elsewhere.
type Notification struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientUserID uuid.UUID              `gorm:"column:recipient_user_id;type:uuid;not null;index"`
	Type            enums.NotificationType `gorm:"column:type;type:notification_type;not null"`
	OrderID         *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	Title           string                 `gorm:"column:title;not null"`
	Body            string                 `gorm:"column:body;not null"`
	ReadAt          *time.Time             `gorm:"column:read_at"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
}
