package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	"github.com/ardakurt/kapinda-backend/pkg/enums"
	pkgerrors "github.com/ardakurt/kapinda-backend/pkg/errors"
	"github.com/ardakurt/kapinda-backend/pkg/logger"
	"github.com/ardakurt/kapinda-backend/pkg/metrics"
)

type orderRepository interface {
	CreateWithTx(tx *gorm.DB, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Order, error)
	UpdateStatusWithTx(tx *gorm.DB, orderID uuid.UUID, status enums.OrderStatus, cancelledAt *time.Time) error
	AppendEventWithTx(tx *gorm.DB, event *models.OrderStatusEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// statusNotifier receives best-effort lifecycle notifications. Failures are
// logged and never fail the transition.
type statusNotifier interface {
	OrderStatusChanged(ctx context.Context, order *models.Order, status enums.OrderStatus) error
}

// Service exposes order lifecycle operations.
type Service interface {
	CreateInTx(tx *gorm.DB, order *models.Order, now time.Time) error
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderSummaryDTO, error)
	ListForStore(ctx context.Context, storeID uuid.UUID) ([]OrderSummaryDTO, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	Advance(ctx context.Context, storeID, orderID uuid.UUID, target enums.OrderStatus, note *string) (*OrderDTO, error)
}

type service struct {
	repo     orderRepository
	tx       txRunner
	logg     *logger.Logger
	metrics  *metrics.OrderMetrics
	notifier statusNotifier
	now      func() time.Time
}

// NewService builds the order service; notifier may be nil.
func NewService(repo orderRepository, tx txRunner, logg *logger.Logger, m *metrics.OrderMetrics, notifier statusNotifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		logg:     logg,
		metrics:  m,
		notifier: notifier,
		now:      time.Now,
	}, nil
}

// CreateInTx persists a new order with its initial pending history entry.
// Callers own the surrounding transaction so the cart wipe commits with it.
func (s *service) CreateInTx(tx *gorm.DB, order *models.Order, now time.Time) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order payload is required")
	}
	order.Status = enums.OrderStatusPending
	order.StatusHistory = append(order.StatusHistory, models.OrderStatusEvent{
		Status:    enums.OrderStatusPending,
		CreatedAt: now,
	})
	if err := s.repo.CreateWithTx(tx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return toOrderDTO(order, s.now()), nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderSummaryDTO, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return summarize(records), nil
}

func (s *service) ListForStore(ctx context.Context, storeID uuid.UUID) ([]OrderSummaryDTO, error) {
	records, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store orders")
	}
	return summarize(records), nil
}

// Cancel moves the order to cancelled, permitted only from pending and
// confirmed. The guard runs inside the transaction so a racing vendor
// transition cannot slip through.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	now := s.now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.FindByIDWithTx(tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if !CanCancel(order.Status) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("order in status %q cannot be cancelled", order.Status)).
				WithDetails(map[string]any{"status": order.Status})
		}
		if err := s.repo.UpdateStatusWithTx(tx, orderID, enums.OrderStatusCancelled, &now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		return s.appendEvent(tx, orderID, enums.OrderStatusCancelled, nil, now)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncStatusTransition(enums.OrderStatusCancelled.String())
	return s.finishTransition(ctx, orderID, enums.OrderStatusCancelled)
}

// Advance applies a vendor-driven lifecycle step for the vendor's own order.
func (s *service) Advance(ctx context.Context, storeID, orderID uuid.UUID, target enums.OrderStatus, note *string) (*OrderDTO, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	now := s.now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.FindByIDWithTx(tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.StoreID != storeID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another store")
		}
		if !CanTransition(order.Status, target) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot move order from %q to %q", order.Status, target)).
				WithDetails(map[string]any{"from": order.Status, "to": target})
		}
		if err := s.repo.UpdateStatusWithTx(tx, orderID, target, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return s.appendEvent(tx, orderID, target, note, now)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncStatusTransition(target.String())
	return s.finishTransition(ctx, orderID, target)
}

func (s *service) appendEvent(tx *gorm.DB, orderID uuid.UUID, status enums.OrderStatus, note *string, now time.Time) error {
	event := &models.OrderStatusEvent{
		OrderID:   orderID,
		Status:    status,
		Note:      note,
		CreatedAt: now,
	}
	if err := s.repo.AppendEventWithTx(tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status event")
	}
	return nil
}

func (s *service) finishTransition(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.OrderStatusChanged(ctx, order, status); err != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, orderID.String()), "status notification failed")
		}
	}
	return toOrderDTO(order, s.now()), nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func summarize(records []models.Order) []OrderSummaryDTO {
	out := make([]OrderSummaryDTO, 0, len(records))
	for i := range records {
		out = append(out, toSummaryDTO(&records[i]))
	}
	return out
}
