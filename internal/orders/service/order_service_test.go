package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/apperrors"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/events"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/orders/domain"
)

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uuid.UUID]*domain.Order{}}
}

func (r *fakeOrderRepo) CreateOrder(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

func (r *fakeOrderRepo) FindOrderByID(_ context.Context, orderID uuid.UUID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, apperrors.NewNotFoundError("order", orderID)
	}
	copied := *order
	return &copied, nil
}

func (r *fakeOrderRepo) UpdateOrderStatus(_ context.Context, orderID uuid.UUID, status domain.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok || order.Status != domain.OrderStatusPending {
		return false, nil
	}
	order.Status = status
	return true, nil
}

type publishedEvent struct {
	exchange   string
	routingKey string
	payload    interface{}
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []publishedEvent
}

func (p *recordingPublisher) Publish(exchange, routingKey string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, publishedEvent{exchange, routingKey, payload})
	return nil
}

func (p *recordingPublisher) byRoute(routingKey string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.published {
		if e.routingKey == routingKey {
			out = append(out, e)
		}
	}
	return out
}

func testItems() []domain.OrderItem {
	return []domain.OrderItem{
		{ProductID: uuid.New(), ProductName: "Widget", Quantity: 2, Price: 9.99},
	}
}

func TestCreateOrderPublishesOrderCreated(t *testing.T) {
	repo := newFakeOrderRepo()
	publisher := &recordingPublisher{}
	svc := NewOrderService(repo, publisher, zerolog.Nop())

	order, err := svc.CreateOrder(context.Background(), uuid.New(), testItems())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if order.Status != domain.OrderStatusPending {
		t.Errorf("Expected PENDING, got %s", order.Status)
	}
	if order.TotalAmount != 19.98 {
		t.Errorf("Expected derived total 19.98, got %v", order.TotalAmount)
	}

	created := publisher.byRoute(events.RouteOrderCreated)
	if len(created) != 1 {
		t.Fatalf("Expected one order.created publish, got %d", len(created))
	}
	if created[0].exchange != events.ExchangeOrders {
		t.Errorf("Expected orders exchange, got %s", created[0].exchange)
	}
	event, ok := created[0].payload.(events.OrderCreated)
	if !ok {
		t.Fatalf("Expected OrderCreated payload, got %T", created[0].payload)
	}
	if event.OrderID != order.ID {
		t.Errorf("Expected event for order %s, got %s", order.ID, event.OrderID)
	}
	if len(event.Items) != 1 || event.Items[0].Product.Name != "Widget" {
		t.Errorf("Expected event items with product names, got %+v", event.Items)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc := NewOrderService(newFakeOrderRepo(), &recordingPublisher{}, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.CreateOrder(ctx, uuid.Nil, testItems()); !apperrors.IsValidation(err) {
		t.Errorf("Expected validation error for missing customer, got: %v", err)
	}
	if _, err := svc.CreateOrder(ctx, uuid.New(), nil); !apperrors.IsValidation(err) {
		t.Errorf("Expected validation error for empty items, got: %v", err)
	}

	badQuantity := testItems()
	badQuantity[0].Quantity = 0
	if _, err := svc.CreateOrder(ctx, uuid.New(), badQuantity); !apperrors.IsValidation(err) {
		t.Errorf("Expected validation error for zero quantity, got: %v", err)
	}
}

func TestConfirmOrderEmitsOnce(t *testing.T) {
	repo := newFakeOrderRepo()
	publisher := &recordingPublisher{}
	svc := NewOrderService(repo, publisher, zerolog.Nop())
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, uuid.New(), testItems())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := svc.ConfirmOrder(ctx, order.ID); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := svc.ConfirmOrder(ctx, order.ID); err != nil {
		t.Fatalf("Expected a repeated confirm to be a quiet no-op, got: %v", err)
	}

	stored, _ := repo.FindOrderByID(ctx, order.ID)
	if stored.Status != domain.OrderStatusConfirmed {
		t.Errorf("Expected CONFIRMED, got %s", stored.Status)
	}
	if confirmed := publisher.byRoute(events.RouteOrderConfirmed); len(confirmed) != 1 {
		t.Errorf("Expected exactly one order.confirmed publish, got %d", len(confirmed))
	}
}

func TestCancelOrderEmitsOnceWithReason(t *testing.T) {
	repo := newFakeOrderRepo()
	publisher := &recordingPublisher{}
	svc := NewOrderService(repo, publisher, zerolog.Nop())
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, uuid.New(), testItems())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := svc.CancelOrder(ctx, order.ID, "payment failed"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := svc.CancelOrder(ctx, order.ID, "payment failed"); err != nil {
		t.Fatalf("Expected a repeated cancel to be a quiet no-op, got: %v", err)
	}

	cancelled := publisher.byRoute(events.RouteOrderCancelled)
	if len(cancelled) != 1 {
		t.Fatalf("Expected exactly one order.cancelled publish, got %d", len(cancelled))
	}
	event := cancelled[0].payload.(events.OrderCancelled)
	if event.Reason != "payment failed" {
		t.Errorf("Expected reason on the event, got %q", event.Reason)
	}
}

func TestCancelDoesNotRegressConfirmedOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	publisher := &recordingPublisher{}
	svc := NewOrderService(repo, publisher, zerolog.Nop())
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, uuid.New(), testItems())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := svc.ConfirmOrder(ctx, order.ID); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := svc.CancelOrder(ctx, order.ID, "late failure"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	stored, _ := repo.FindOrderByID(ctx, order.ID)
	if stored.Status != domain.OrderStatusConfirmed {
		t.Errorf("Expected CONFIRMED to stick, got %s", stored.Status)
	}
	if cancelled := publisher.byRoute(events.RouteOrderCancelled); len(cancelled) != 0 {
		t.Errorf("Expected no order.cancelled publish, got %d", len(cancelled))
	}
}

func TestConfirmUnknownOrder(t *testing.T) {
	svc := NewOrderService(newFakeOrderRepo(), &recordingPublisher{}, zerolog.Nop())

	if err := svc.ConfirmOrder(context.Background(), uuid.New()); !apperrors.IsNotFound(err) {
		t.Errorf("Expected not found error, got: %v", err)
	}
}
