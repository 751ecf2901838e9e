package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/apperrors"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/events"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/messaging"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/orders/domain"
)

type fakeNotifier struct {
	confirmations []uuid.UUID
	cancellations map[uuid.UUID]string
	err           error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{cancellations: map[uuid.UUID]string{}}
}

func (f *fakeNotifier) SendOrderConfirmation(_ context.Context, order *domain.Order) error {
	if f.err != nil {
		return f.err
	}
	f.confirmations = append(f.confirmations, order.ID)
	return nil
}

func (f *fakeNotifier) SendOrderCancelled(_ context.Context, order *domain.Order, reason string) error {
	if f.err != nil {
		return f.err
	}
	f.cancellations[order.ID] = reason
	return nil
}

type fakeOrderDirectory struct {
	orders map[uuid.UUID]*domain.Order
}

func (d *fakeOrderDirectory) FindOrderByID(_ context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, ok := d.orders[orderID]
	if !ok {
		return nil, apperrors.NewNotFoundError("order", orderID)
	}
	return order, nil
}

func fixtureOrder() *domain.Order {
	return &domain.Order{
		ID:          uuid.New(),
		Customer:    domain.Customer{ID: uuid.New(), Name: "Ada", Email: "ada@example.com"},
		Status:      domain.OrderStatusConfirmed,
		TotalAmount: 19.98,
	}
}

func TestHandleOrderConfirmedSendsEmail(t *testing.T) {
	order := fixtureOrder()
	notifier := newFakeNotifier()
	directory := &fakeOrderDirectory{orders: map[uuid.UUID]*domain.Order{order.ID: order}}
	w := NewWorker(notifier, directory, zerolog.Nop())

	payload, _ := json.Marshal(events.OrderConfirmed{OrderID: order.ID, CustomerID: order.Customer.ID, ConfirmedAt: time.Now()})

	if err := w.HandleOrderConfirmed(context.Background(), payload, messaging.Metadata{MessageID: uuid.NewString()}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(notifier.confirmations) != 1 || notifier.confirmations[0] != order.ID {
		t.Errorf("Expected one confirmation email for %s, got %v", order.ID, notifier.confirmations)
	}
}

func TestHandleOrderCancelledSendsEmailWithReason(t *testing.T) {
	order := fixtureOrder()
	notifier := newFakeNotifier()
	directory := &fakeOrderDirectory{orders: map[uuid.UUID]*domain.Order{order.ID: order}}
	w := NewWorker(notifier, directory, zerolog.Nop())

	payload, _ := json.Marshal(events.OrderCancelled{OrderID: order.ID, CustomerID: order.Customer.ID, Reason: "insufficient stock"})

	if err := w.HandleOrderCancelled(context.Background(), payload, messaging.Metadata{MessageID: uuid.NewString()}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if notifier.cancellations[order.ID] != "insufficient stock" {
		t.Errorf("Expected the event reason in the email, got %q", notifier.cancellations[order.ID])
	}
}

func TestMailFailureNeverRejectsTheMessage(t *testing.T) {
	order := fixtureOrder()
	notifier := newFakeNotifier()
	notifier.err = errors.New("smtp down")
	directory := &fakeOrderDirectory{orders: map[uuid.UUID]*domain.Order{order.ID: order}}
	w := NewWorker(notifier, directory, zerolog.Nop())

	payload, _ := json.Marshal(events.OrderConfirmed{OrderID: order.ID, CustomerID: order.Customer.ID})

	if err := w.HandleOrderConfirmed(context.Background(), payload, messaging.Metadata{MessageID: uuid.NewString()}); err != nil {
		t.Errorf("Expected a mail failure to be absorbed, got: %v", err)
	}
}

func TestUnknownOrderNeverRejectsTheMessage(t *testing.T) {
	w := NewWorker(newFakeNotifier(), &fakeOrderDirectory{orders: map[uuid.UUID]*domain.Order{}}, zerolog.Nop())

	payload, _ := json.Marshal(events.OrderConfirmed{OrderID: uuid.New(), CustomerID: uuid.New()})

	if err := w.HandleOrderConfirmed(context.Background(), payload, messaging.Metadata{MessageID: uuid.NewString()}); err != nil {
		t.Errorf("Expected a missing order to be absorbed, got: %v", err)
	}
}

func TestHandleOrderConfirmedRejectsInvalidEvent(t *testing.T) {
	w := NewWorker(newFakeNotifier(), &fakeOrderDirectory{}, zerolog.Nop())

	err := w.HandleOrderConfirmed(context.Background(), []byte(`{}`), messaging.Metadata{MessageID: uuid.NewString()})
	if !apperrors.IsValidation(err) {
		t.Errorf("Expected validation error, got: %v", err)
	}
}
