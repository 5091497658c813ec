package notifications

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
)

type notificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByRecipient(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) error
	MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
}

type storeLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// NotificationDTO is the read model returned to clients.
type NotificationDTO struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	OrderID   *uuid.UUID             `json:"order_id,omitempty"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"created_at"`
}

// Service persists and serves in-app notifications. Order flows call
// NewOrderPlaced and OrderStatusChanged best-effort; both only write rows,
// delivery transport is out of scope.
type Service interface {
	NewOrderPlaced(ctx context.Context, order *models.Order) error
	OrderStatusChanged(ctx context.Context, order *models.Order, status enums.OrderStatus) error
	List(ctx context.Context, userID uuid.UUID, limit int) ([]NotificationDTO, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo   notificationRepository
	stores storeLookup
	now    func() time.Time
}

// NewService builds the notification service.
func NewService(repo notificationRepository, stores storeLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store lookup required")
	}
	return &service{repo: repo, stores: stores, now: time.Now}, nil
}

// NewOrderPlaced notifies the store owner about a fresh order.
func (s *service) NewOrderPlaced(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	store, err := s.stores.FindByID(ctx, order.StoreID)
	if err != nil {
		return fmt.Errorf("resolve store owner: %w", err)
	}

	orderID := order.ID
	return s.repo.Create(ctx, &models.Notification{
		RecipientUserID: store.OwnerUserID,
		Type:            enums.NotificationTypeNewOrder,
		OrderID:         &orderID,
		Title:           "Yeni sipariş",
		Body:            fmt.Sprintf("%s için yeni bir sipariş alındı (%s TL).", store.Name, order.Total.StringFixed(2)),
	})
}

// OrderStatusChanged notifies the buyer about a lifecycle step.
func (s *service) OrderStatusChanged(ctx context.Context, order *models.Order, status enums.OrderStatus) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	orderID := order.ID
	return s.repo.Create(ctx, &models.Notification{
		RecipientUserID: order.UserID,
		Type:            enums.NotificationTypeOrderStatus,
		OrderID:         &orderID,
		Title:           "Sipariş durumu güncellendi",
		Body:            statusBody(status),
	})
}

func statusBody(status enums.OrderStatus) string {
	switch status {
	case enums.OrderStatusConfirmed:
		return "Siparişiniz onaylandı."
	case enums.OrderStatusPreparing:
		return "Siparişiniz hazırlanıyor."
	case enums.OrderStatusShipped:
		return "Siparişiniz yola çıktı."
	case enums.OrderStatusDelivered:
		return "Siparişiniz teslim edildi."
	case enums.OrderStatusCancelled:
		return "Siparişiniz iptal edildi."
	default:
		return fmt.Sprintf("Sipariş durumu: %s", status)
	}
}

func (s *service) List(ctx context.Context, userID uuid.UUID, limit int) ([]NotificationDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "notifications require an authenticated user")
	}
	records, err := s.repo.ListByRecipient(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	out := make([]NotificationDTO, 0, len(records))
	for _, record := range records {
		out = append(out, NotificationDTO{
			ID:        record.ID,
			Type:      record.Type,
			OrderID:   record.OrderID,
			Title:     record.Title,
			Body:      record.Body,
			Read:      record.ReadAt != nil,
			CreatedAt: record.CreatedAt,
		})
	}
	return out, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, userID, notificationID, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
