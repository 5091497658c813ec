package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ardakurt/kapinda-backend/pkg/enums"
)

// OrderStatusEvent is one append-only entry in an order's status history.
// Rows are never updated or reordered.
type OrderStatusEvent struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:order_status;not null"`
	Note      *string           `gorm:"column:note"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
