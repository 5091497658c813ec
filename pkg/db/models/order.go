package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ardakurt/kapinda-backend/pkg/enums"
)

// Order is created once at checkout submission. Apart from status/history
// appends (and cancellation timestamps) it is immutable.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	StoreID          uuid.UUID           `gorm:"column:store_id;type:uuid;not null;index"`
	Subtotal         decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryFee      decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	Discount         decimal.Decimal     `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Total            decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	DeliveryAddress  AddressSnapshot     `gorm:"embedded;embeddedPrefix:delivery_"`
	WindowMinutesMin int                 `gorm:"column:window_minutes_min;not null"`
	WindowMinutesMax int                 `gorm:"column:window_minutes_max;not null"`
	Status           enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	CancelledAt      *time.Time          `gorm:"column:cancelled_at"`
	Items            []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory    []OrderStatusEvent  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
