package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/ardakurt/kapinda-backend/pkg/config"
	"github.com/ardakurt/kapinda-backend/pkg/db/models"
)

// Engine computes order totals from cart lines. It is pure: same inputs
// always produce the same quote, nothing here touches storage or clocks.
type Engine struct {
	freeThreshold decimal.Decimal
	standardFee   decimal.Decimal
	windowMin     int
	windowMax     int
}

// Quote is the priced view of a cart plus the promised delivery window.
type Quote struct {
	Subtotal      decimal.Decimal
	DeliveryFee   decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	WindowMinutes Window
}

// Window is a delivery estimate in minutes from submission.
type Window struct {
	Min int
	Max int
}

// NewEngine builds an Engine from delivery configuration.
func NewEngine(cfg config.DeliveryConfig) *Engine {
	return &Engine{
		freeThreshold: cfg.FreeThresholdDecimal(),
		standardFee:   cfg.StandardFeeDecimal(),
		windowMin:     cfg.DefaultWindowMin,
		windowMax:     cfg.DefaultWindowMax,
	}
}

// Subtotal sums the line totals of the provided items.
func (e *Engine) Subtotal(items []models.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

// DeliveryFee returns zero at or above the free threshold, the flat fee below it.
func (e *Engine) DeliveryFee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(e.freeThreshold) {
		return decimal.Zero
	}
	return e.standardFee
}

// QuoteCart prices the full cart. Discount is clamped so the total never
// goes negative.
func (e *Engine) QuoteCart(items []models.CartItem, discount decimal.Decimal, store *models.Store) Quote {
	subtotal := e.Subtotal(items)
	fee := e.DeliveryFee(subtotal)

	if discount.IsNegative() {
		discount = decimal.Zero
	}
	total := subtotal.Add(fee).Sub(discount)
	if total.IsNegative() {
		discount = subtotal.Add(fee)
		total = decimal.Zero
	}

	return Quote{
		Subtotal:      subtotal,
		DeliveryFee:   fee,
		Discount:      discount,
		Total:         total,
		WindowMinutes: e.DeliveryWindow(store),
	}
}

// DeliveryWindow prefers the vendor's own estimate; both bounds must be set
// and ordered for the override to apply.
func (e *Engine) DeliveryWindow(store *models.Store) Window {
	fallback := Window{Min: e.windowMin, Max: e.windowMax}
	if store == nil || store.DeliveryWindowMin == nil || store.DeliveryWindowMax == nil {
		return fallback
	}
	min, max := *store.DeliveryWindowMin, *store.DeliveryWindowMax
	if min < 0 || max < min {
		return fallback
	}
	return Window{Min: min, Max: max}
}
