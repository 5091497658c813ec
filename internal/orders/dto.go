package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	"github.com/ardakurt/kapinda-backend/pkg/enums"
)

// OrderItemDTO is one immutable order line.
type OrderItemDTO struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// StatusEventDTO is one history entry shown on the tracking screen.
type StatusEventDTO struct {
	Status    enums.OrderStatus `json:"status"`
	Note      *string           `json:"note,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// DeliveryWindowDTO is the promised minute range.
type DeliveryWindowDTO struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// OrderDTO is the full order read model.
type OrderDTO struct {
	ID              uuid.UUID              `json:"id"`
	UserID          uuid.UUID              `json:"user_id"`
	StoreID         uuid.UUID              `json:"store_id"`
	Items           []OrderItemDTO         `json:"items"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
	DeliveryFee     decimal.Decimal        `json:"delivery_fee"`
	Discount        decimal.Decimal        `json:"discount"`
	Total           decimal.Decimal        `json:"total"`
	PaymentMethod   enums.PaymentMethod    `json:"payment_method"`
	DeliveryAddress models.AddressSnapshot `json:"delivery_address"`
	DeliveryWindow  DeliveryWindowDTO      `json:"delivery_window"`
	Status          enums.OrderStatus      `json:"status"`
	StatusHistory   []StatusEventDTO       `json:"status_history"`
	CanCancel       bool                   `json:"can_cancel"`
	CreatedAt       time.Time              `json:"created_at"`
}

// OrderSummaryDTO is the list-view projection.
type OrderSummaryDTO struct {
	ID        uuid.UUID         `json:"id"`
	StoreID   uuid.UUID         `json:"store_id"`
	Total     decimal.Decimal   `json:"total"`
	Status    enums.OrderStatus `json:"status"`
	ItemCount int               `json:"item_count"`
	CreatedAt time.Time         `json:"created_at"`
}

func toOrderDTO(order *models.Order, now time.Time) *OrderDTO {
	if order == nil {
		return nil
	}

	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Category:  item.Category,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}

	history := order.StatusHistory
	if len(history) == 0 {
		// Legacy rows without events get a reconstructed, display-only chain.
		endedAt := order.UpdatedAt
		if endedAt.IsZero() {
			endedAt = now
		}
		history = SynthesizeHistory(order.Status, endedAt, 10*time.Minute)
	}

	events := make([]StatusEventDTO, 0, len(history))
	for _, event := range history {
		events = append(events, StatusEventDTO{
			Status:    event.Status,
			Note:      event.Note,
			Timestamp: event.CreatedAt,
		})
	}

	// Displayed status always follows the last history entry.
	status := order.Status
	if len(events) > 0 {
		status = events[len(events)-1].Status
	}

	return &OrderDTO{
		ID:              order.ID,
		UserID:          order.UserID,
		StoreID:         order.StoreID,
		Items:           items,
		Subtotal:        order.Subtotal,
		DeliveryFee:     order.DeliveryFee,
		Discount:        order.Discount,
		Total:           order.Total,
		PaymentMethod:   order.PaymentMethod,
		DeliveryAddress: order.DeliveryAddress,
		DeliveryWindow: DeliveryWindowDTO{
			Min: order.WindowMinutesMin,
			Max: order.WindowMinutesMax,
		},
		Status:        status,
		StatusHistory: events,
		CanCancel:     CanCancel(status),
		CreatedAt:     order.CreatedAt,
	}
}

func toSummaryDTO(order *models.Order) OrderSummaryDTO {
	return OrderSummaryDTO{
		ID:        order.ID,
		StoreID:   order.StoreID,
		Total:     order.Total,
		Status:    order.Status,
		ItemCount: len(order.Items),
		CreatedAt: order.CreatedAt,
	}
}
