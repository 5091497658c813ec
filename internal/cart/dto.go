package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ardakurt/kapinda-backend/internal/pricing"
	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	"github.com/ardakurt/kapinda-backend/pkg/enums"
)

// CartItemDTO is one priced cart line.
type CartItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	StoreID   uuid.UUID       `json:"store_id"`
	StoreType enums.StoreType `json:"store_type"`
	Category  string          `json:"category"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartDTO is the cart plus its derived totals.
type CartDTO struct {
	Items       []CartItemDTO   `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
}

// AddOutcome reports the result of an add. Exactly one of Conflict and Cart
// is meaningful: a non-nil Conflict means nothing was mutated and the caller
// must re-submit with confirmation to proceed.
type AddOutcome struct {
	Conflict *Conflict `json:"conflict,omitempty"`
	Cart     *CartDTO  `json:"cart,omitempty"`
}

func toCartDTO(items []models.CartItem, quote pricing.Quote) *CartDTO {
	lines := make([]CartItemDTO, 0, len(items))
	for _, item := range items {
		lines = append(lines, CartItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			StoreID:   item.StoreID,
			StoreType: item.StoreType,
			Category:  item.Category,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}
	return &CartDTO{
		Items:       lines,
		Subtotal:    quote.Subtotal,
		DeliveryFee: quote.DeliveryFee,
		Total:       quote.Total,
	}
}
