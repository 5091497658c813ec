package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ardakurt/kapinda-backend/internal/cart"
	"github.com/ardakurt/kapinda-backend/internal/pricing"
	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	"github.com/ardakurt/kapinda-backend/pkg/enums"
	pkgerrors "github.com/ardakurt/kapinda-backend/pkg/errors"
	"github.com/ardakurt/kapinda-backend/pkg/logger"
	"github.com/ardakurt/kapinda-backend/pkg/metrics"
	"github.com/shopspring/decimal"
)

type addressProvider interface {
	GetOwned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

type storeProvider interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type orderCreator interface {
	CreateInTx(tx *gorm.DB, order *models.Order, now time.Time) error
}

type cartWiper interface {
	DeleteByUserWithTx(tx *gorm.DB, userID uuid.UUID) error
}

type snapshotDropper interface {
	DropSnapshot(ctx context.Context, userID uuid.UUID)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// vendorNotifier is the best-effort side path after order creation.
type vendorNotifier interface {
	NewOrderPlaced(ctx context.Context, order *models.Order) error
}

// StateDTO reports the wizard position to the client.
type StateDTO struct {
	Step          Step                 `json:"step"`
	AddressID     *uuid.UUID           `json:"address_id,omitempty"`
	PaymentMethod *enums.PaymentMethod `json:"payment_method,omitempty"`
	OrderID       *uuid.UUID           `json:"order_id,omitempty"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	DeliveryFee   decimal.Decimal      `json:"delivery_fee"`
	Total         decimal.Decimal      `json:"total"`
	WindowMinutes pricing.Window       `json:"window_minutes"`
	ItemCount     int                  `json:"item_count"`
}

// Service drives the three-step checkout wizard.
type Service interface {
	Start(ctx context.Context, userID uuid.UUID) (*StateDTO, error)
	SelectAddress(ctx context.Context, userID, addressID uuid.UUID) (*StateDTO, error)
	SelectPayment(ctx context.Context, userID uuid.UUID, method enums.PaymentMethod) (*StateDTO, error)
	Submit(ctx context.Context, userID uuid.UUID) (*StateDTO, error)
}

type service struct {
	flows     *flows
	sessions  *cart.Sessions
	cartRows  cartWiper
	snapshots snapshotDropper
	addresses addressProvider
	stores    storeProvider
	orders    orderCreator
	tx        txRunner
	pricer    *pricing.Engine
	notifier  vendorNotifier
	logg      *logger.Logger
	metrics   *metrics.OrderMetrics
	now       func() time.Time
}

// NewService builds the checkout service; notifier and metrics may be nil.
func NewService(
	sessions *cart.Sessions,
	cartRows cartWiper,
	snapshots snapshotDropper,
	addresses addressProvider,
	stores storeProvider,
	orders orderCreator,
	tx txRunner,
	pricer *pricing.Engine,
	notifier vendorNotifier,
	logg *logger.Logger,
	m *metrics.OrderMetrics,
) (Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("cart sessions required")
	}
	if cartRows == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address provider required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store provider required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order creator required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		flows:     newFlows(),
		sessions:  sessions,
		cartRows:  cartRows,
		snapshots: snapshots,
		addresses: addresses,
		stores:    stores,
		orders:    orders,
		tx:        tx,
		pricer:    pricer,
		notifier:  notifier,
		logg:      logg,
		metrics:   m,
		now:       time.Now,
	}, nil
}

// Start (re)enters the wizard at address selection. Requires an
// authenticated user and a non-empty cart; both are preconditions, not
// recoverable errors.
func (s *service) Start(ctx context.Context, userID uuid.UUID) (*StateDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "checkout requires an authenticated user")
	}
	state := s.sessions.ForUser(userID)
	if state.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	return s.stateDTO(ctx, userID, s.flows.reset(userID)), nil
}

func (s *service) SelectAddress(ctx context.Context, userID, addressID uuid.UUID) (*StateDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "checkout requires an authenticated user")
	}
	current := s.flows.get(userID)
	if current.step != StepAddressSelection && current.step != StepPaymentSelection {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address can no longer be changed")
	}

	address, err := s.addresses.GetOwned(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	current.address = address
	current.step = StepPaymentSelection
	return s.stateDTO(ctx, userID, current), nil
}

func (s *service) SelectPayment(ctx context.Context, userID uuid.UUID, method enums.PaymentMethod) (*StateDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "checkout requires an authenticated user")
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	current := s.flows.get(userID)
	if current.step != StepPaymentSelection {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "select a delivery address first")
	}

	current.paymentMethod = &method
	return s.stateDTO(ctx, userID, current), nil
}

// Submit assembles and persists the order. Order rows and the cart wipe
// commit in one transaction; in-memory cart state and the fallback snapshot
// are only touched after the commit. Any failure returns the wizard to
// payment selection without mutating the cart.
func (s *service) Submit(ctx context.Context, userID uuid.UUID) (*StateDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "checkout requires an authenticated user")
	}
	current := s.flows.get(userID)
	if current.step != StepPaymentSelection {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout is not ready for submission")
	}
	if current.address == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a delivery address is required")
	}
	if current.paymentMethod == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a payment method is required")
	}

	state := s.sessions.ForUser(userID)
	items := state.Items()
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	storeID := items[0].StoreID

	current.step = StepSubmitting
	order, err := s.buildOrder(ctx, userID, storeID, items, current)
	if err != nil {
		return s.failSubmission(ctx, userID, current, err)
	}

	now := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.CreateInTx(tx, order, now); err != nil {
			return err
		}
		if err := s.cartRows.DeleteByUserWithTx(tx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart rows")
		}
		return nil
	})
	if err != nil {
		return s.failSubmission(ctx, userID, current, err)
	}

	state.Clear()
	s.snapshots.DropSnapshot(ctx, userID)
	orderID := order.ID
	current.orderID = &orderID
	current.step = StepCompleted

	s.metrics.IncOrderCreated(current.paymentMethod.String())
	s.logg.Info(s.logg.WithOrderID(s.logg.WithUserID(ctx, userID.String()), orderID.String()), "order created")

	if s.notifier != nil {
		if err := s.notifier.NewOrderPlaced(ctx, order); err != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, orderID.String()), "vendor notification failed")
		}
	}

	return s.stateDTO(ctx, userID, current), nil
}

func (s *service) buildOrder(ctx context.Context, userID, storeID uuid.UUID, items []models.CartItem, current *flow) (*models.Order, error) {
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}

	quote := s.pricer.QuoteCart(items, decimal.Zero, store)

	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Category:  item.Category,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}

	return &models.Order{
		UserID:           userID,
		StoreID:          storeID,
		Subtotal:         quote.Subtotal,
		DeliveryFee:      quote.DeliveryFee,
		Discount:         quote.Discount,
		Total:            quote.Total,
		PaymentMethod:    *current.paymentMethod,
		DeliveryAddress:  current.address.Snapshot(),
		WindowMinutesMin: quote.WindowMinutes.Min,
		WindowMinutesMax: quote.WindowMinutes.Max,
		Items:            orderItems,
	}, nil
}

func (s *service) failSubmission(ctx context.Context, userID uuid.UUID, current *flow, err error) (*StateDTO, error) {
	current.step = StepPaymentSelection
	code := pkgerrors.CodeInternal
	if typed := pkgerrors.As(err); typed != nil {
		code = typed.Code()
	}
	s.metrics.IncCheckoutFailure(string(code))
	s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "checkout submission failed", err)
	return nil, err
}

func (s *service) stateDTO(ctx context.Context, userID uuid.UUID, current *flow) *StateDTO {
	items := s.sessions.ForUser(userID).Items()

	var store *models.Store
	if len(items) > 0 {
		if loaded, err := s.stores.FindByID(ctx, items[0].StoreID); err == nil {
			store = loaded
		}
	}
	quote := s.pricer.QuoteCart(items, decimal.Zero, store)

	dto := &StateDTO{
		Step:          current.step,
		PaymentMethod: current.paymentMethod,
		OrderID:       current.orderID,
		Subtotal:      quote.Subtotal,
		DeliveryFee:   quote.DeliveryFee,
		Total:         quote.Total,
		WindowMinutes: quote.WindowMinutes,
		ItemCount:     len(items),
	}
	if current.address != nil {
		addressID := current.address.ID
		dto.AddressID = &addressID
	}
	return dto
}
