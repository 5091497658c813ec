package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ardakurt/kapinda-backend/pkg/enums"
)

// Store is a vendor on the platform. DeliveryWindow* carry the vendor's own
// estimate in minutes; pricing falls back to platform defaults when absent.
type Store struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerUserID       uuid.UUID       `gorm:"column:owner_user_id;type:uuid;not null"`
	Name              string          `gorm:"column:name;not null"`
	Type              enums.StoreType `gorm:"column:type;type:store_type;not null"`
	City              string          `gorm:"column:city;not null"`
	District          *string         `gorm:"column:district"`
	DeliveryWindowMin *int            `gorm:"column:delivery_window_min"`
	DeliveryWindowMax *int            `gorm:"column:delivery_window_max"`
	IsActive          bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
