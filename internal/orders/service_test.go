package orders

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	"github.com/ardakurt/kapinda-backend/pkg/enums"
	pkgerrors "github.com/ardakurt/kapinda-backend/pkg/errors"
	"github.com/ardakurt/kapinda-backend/pkg/logger"
)

type fakeOrderRepo struct {
	orders map[uuid.UUID]*models.Order
	events []models.OrderStatusEvent
}

func newFakeOrderRepo(orders ...*models.Order) *fakeOrderRepo {
	repo := &fakeOrderRepo{orders: map[uuid.UUID]*models.Order{}}
	for _, order := range orders {
		repo.orders[order.ID] = order
	}
	return repo
}

func (f *fakeOrderRepo) CreateWithTx(tx *gorm.DB, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (f *fakeOrderRepo) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	return f.FindByID(context.Background(), id)
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, order := range f.orders {
		if order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, order := range f.orders {
		if order.StoreID == storeID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatusWithTx(tx *gorm.DB, orderID uuid.UUID, status enums.OrderStatus, cancelledAt *time.Time) error {
	order, ok := f.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	order.CancelledAt = cancelledAt
	return nil
}

func (f *fakeOrderRepo) AppendEventWithTx(tx *gorm.DB, event *models.OrderStatusEvent) error {
	f.events = append(f.events, *event)
	if order, ok := f.orders[event.OrderID]; ok {
		order.StatusHistory = append(order.StatusHistory, *event)
	}
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) OrderStatusChanged(ctx context.Context, order *models.Order, status enums.OrderStatus) error {
	r.calls++
	return r.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func pendingOrder(userID, storeID uuid.UUID) *models.Order {
	now := time.Now()
	return &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		StoreID:       storeID,
		Subtotal:      decimal.RequireFromString("100"),
		DeliveryFee:   decimal.RequireFromString("15"),
		Discount:      decimal.Zero,
		Total:         decimal.RequireFromString("115"),
		PaymentMethod: enums.PaymentMethodCash,
		Status:        enums.OrderStatusPending,
		StatusHistory: []models.OrderStatusEvent{
			{OrderID: uuid.Nil, Status: enums.OrderStatusPending, CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newOrderService(t *testing.T, repo orderRepository, notifier statusNotifier) Service {
	t.Helper()
	svc, err := NewService(repo, fakeTxRunner{}, testLogger(), nil, notifier)
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}
	return svc
}

func TestCreateInTxSeedsPendingHistory(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(t, repo, nil)

	order := &models.Order{UserID: uuid.New(), StoreID: uuid.New()}
	now := time.Now()
	if err := svc.CreateInTx(nil, order, now); err != nil {
		t.Fatalf("create: %v", err)
	}

	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if len(order.StatusHistory) != 1 || order.StatusHistory[0].Status != enums.OrderStatusPending {
		t.Fatalf("expected seeded pending event, got %+v", order.StatusHistory)
	}
	if !order.StatusHistory[0].CreatedAt.Equal(now) {
		t.Fatalf("event timestamp mismatch")
	}
}

func TestCancelFromPending(t *testing.T) {
	userID := uuid.New()
	order := pendingOrder(userID, uuid.New())
	repo := newFakeOrderRepo(order)
	notifier := &recordingNotifier{}
	svc := newOrderService(t, repo, notifier)

	dto, err := svc.Cancel(context.Background(), userID, order.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if dto.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", dto.Status)
	}
	if repo.orders[order.ID].CancelledAt == nil {
		t.Fatal("expected cancellation timestamp")
	}
	if len(repo.events) != 1 || repo.events[0].Status != enums.OrderStatusCancelled {
		t.Fatalf("expected one cancelled event, got %+v", repo.events)
	}
	if notifier.calls != 1 {
		t.Fatalf("expected one notification, got %d", notifier.calls)
	}
}

func TestCancelFromDeliveredFails(t *testing.T) {
	userID := uuid.New()
	order := pendingOrder(userID, uuid.New())
	order.Status = enums.OrderStatusDelivered
	repo := newFakeOrderRepo(order)
	svc := newOrderService(t, repo, nil)

	_, err := svc.Cancel(context.Background(), userID, order.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
	if len(repo.events) != 0 {
		t.Fatal("failed cancel must not append history")
	}
}

func TestCancelForeignOrderHidesExistence(t *testing.T) {
	order := pendingOrder(uuid.New(), uuid.New())
	svc := newOrderService(t, newFakeOrderRepo(order), nil)

	_, err := svc.Cancel(context.Background(), uuid.New(), order.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for another user's order, got %v", err)
	}
}

func TestAdvanceHappyChain(t *testing.T) {
	storeID := uuid.New()
	order := pendingOrder(uuid.New(), storeID)
	repo := newFakeOrderRepo(order)
	svc := newOrderService(t, repo, nil)

	chain := []enums.OrderStatus{
		enums.OrderStatusConfirmed,
		enums.OrderStatusPreparing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
	}
	for _, target := range chain {
		dto, err := svc.Advance(context.Background(), storeID, order.ID, target, nil)
		if err != nil {
			t.Fatalf("advance to %s: %v", target, err)
		}
		if dto.Status != target {
			t.Fatalf("expected %s, got %s", target, dto.Status)
		}
	}
	if len(repo.events) != len(chain) {
		t.Fatalf("expected %d events, got %d", len(chain), len(repo.events))
	}
}

func TestAdvanceRejectsSkippedStep(t *testing.T) {
	storeID := uuid.New()
	order := pendingOrder(uuid.New(), storeID)
	svc := newOrderService(t, newFakeOrderRepo(order), nil)

	_, err := svc.Advance(context.Background(), storeID, order.ID, enums.OrderStatusShipped, nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
}

func TestAdvanceRejectsForeignStore(t *testing.T) {
	order := pendingOrder(uuid.New(), uuid.New())
	svc := newOrderService(t, newFakeOrderRepo(order), nil)

	_, err := svc.Advance(context.Background(), uuid.New(), order.ID, enums.OrderStatusConfirmed, nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestAdvanceNotifierFailureDoesNotFail(t *testing.T) {
	storeID := uuid.New()
	order := pendingOrder(uuid.New(), storeID)
	notifier := &recordingNotifier{err: errors.New("push gateway down")}
	svc := newOrderService(t, newFakeOrderRepo(order), notifier)

	dto, err := svc.Advance(context.Background(), storeID, order.ID, enums.OrderStatusConfirmed, nil)
	if err != nil {
		t.Fatalf("advance must succeed despite notifier failure: %v", err)
	}
	if dto.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", dto.Status)
	}
}

func TestGetForUserSynthesizesMissingHistory(t *testing.T) {
	userID := uuid.New()
	order := pendingOrder(userID, uuid.New())
	order.Status = enums.OrderStatusDelivered
	order.StatusHistory = nil
	svc := newOrderService(t, newFakeOrderRepo(order), nil)

	dto, err := svc.GetForUser(context.Background(), userID, order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(dto.StatusHistory) != 4 {
		t.Fatalf("expected synthesized 4-step history, got %d", len(dto.StatusHistory))
	}
	if dto.StatusHistory[len(dto.StatusHistory)-1].Status != enums.OrderStatusDelivered {
		t.Fatalf("history must end at the current status")
	}
	if dto.Status != enums.OrderStatusDelivered {
		t.Fatalf("displayed status must follow last history entry, got %s", dto.Status)
	}
	if dto.CanCancel {
		t.Fatal("delivered orders must not advertise cancellation")
	}
}

func TestGetForUserHidesForeignOrder(t *testing.T) {
	order := pendingOrder(uuid.New(), uuid.New())
	svc := newOrderService(t, newFakeOrderRepo(order), nil)

	_, err := svc.GetForUser(context.Background(), uuid.New(), order.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestListForUser(t *testing.T) {
	userID := uuid.New()
	first := pendingOrder(userID, uuid.New())
	second := pendingOrder(userID, uuid.New())
	other := pendingOrder(uuid.New(), uuid.New())
	svc := newOrderService(t, newFakeOrderRepo(first, second, other), nil)

	summaries, err := svc.ListForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(summaries))
	}
}
