package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/apperrors"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/events"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/messaging"
)

type fakeInventoryOps struct {
	failProducts map[uuid.UUID]error
	reserved     []uuid.UUID
	confirmed    []uuid.UUID
	released     []uuid.UUID
}

func newFakeInventoryOps() *fakeInventoryOps {
	return &fakeInventoryOps{failProducts: map[uuid.UUID]error{}}
}

func (f *fakeInventoryOps) Reserve(_ context.Context, productID, _ uuid.UUID, _ int, _ time.Duration) (uuid.UUID, error) {
	if err, ok := f.failProducts[productID]; ok {
		return uuid.Nil, err
	}
	f.reserved = append(f.reserved, productID)
	return uuid.New(), nil
}

func (f *fakeInventoryOps) ConfirmByOrder(_ context.Context, orderID uuid.UUID) error {
	f.confirmed = append(f.confirmed, orderID)
	return nil
}

func (f *fakeInventoryOps) ReleaseByOrder(_ context.Context, orderID uuid.UUID) error {
	f.released = append(f.released, orderID)
	return nil
}

type fakeCanceller struct {
	cancelled map[uuid.UUID]string
	err       error
}

func newFakeCanceller() *fakeCanceller {
	return &fakeCanceller{cancelled: map[uuid.UUID]string{}}
}

func (f *fakeCanceller) CancelOrder(_ context.Context, orderID uuid.UUID, reason string) error {
	if f.err != nil {
		return f.err
	}
	f.cancelled[orderID] = reason
	return nil
}

func orderCreatedPayload(t *testing.T, event events.OrderCreated) []byte {
	t.Helper()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	return payload
}

func TestHandleOrderCreatedReservesAllLines(t *testing.T) {
	inventory := newFakeInventoryOps()
	canceller := newFakeCanceller()
	w := NewWorker(inventory, canceller, zerolog.Nop())

	event := events.OrderCreated{
		OrderID:    uuid.New(),
		CustomerID: uuid.New(),
		Items: []events.OrderCreatedItem{
			{Product: events.ProductRef{ID: uuid.New(), Name: "Widget"}, Quantity: 2, Price: 9.99},
			{Product: events.ProductRef{ID: uuid.New(), Name: "Gadget"}, Quantity: 1, Price: 4.50},
		},
		TotalAmount: 24.48,
		CreatedAt:   time.Now(),
	}

	err := w.HandleOrderCreated(context.Background(), orderCreatedPayload(t, event), messaging.Metadata{MessageID: uuid.NewString()})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(inventory.reserved) != 2 {
		t.Errorf("Expected two reservations, got %d", len(inventory.reserved))
	}
	if len(inventory.released) != 0 {
		t.Error("Expected no release on the happy path")
	}
	if len(canceller.cancelled) != 0 {
		t.Error("Expected no cancellation on the happy path")
	}
}

func TestHandleOrderCreatedCompensatesOnPartialFailure(t *testing.T) {
	inventory := newFakeInventoryOps()
	canceller := newFakeCanceller()
	w := NewWorker(inventory, canceller, zerolog.Nop())

	goodProduct := uuid.New()
	badProduct := uuid.New()
	inventory.failProducts[badProduct] = &apperrors.InsufficientInventoryError{
		ProductID: badProduct,
		Available: 1,
		Requested: 3,
	}

	orderID := uuid.New()
	event := events.OrderCreated{
		OrderID:    orderID,
		CustomerID: uuid.New(),
		Items: []events.OrderCreatedItem{
			{Product: events.ProductRef{ID: goodProduct, Name: "Widget"}, Quantity: 2, Price: 9.99},
			{Product: events.ProductRef{ID: badProduct, Name: "Gadget"}, Quantity: 3, Price: 4.50},
		},
		TotalAmount: 33.48,
		CreatedAt:   time.Now(),
	}

	err := w.HandleOrderCreated(context.Background(), orderCreatedPayload(t, event), messaging.Metadata{MessageID: uuid.NewString()})
	if err != nil {
		t.Fatalf("Expected compensation to absorb the failure, got: %v", err)
	}

	if len(inventory.released) != 1 || inventory.released[0] != orderID {
		t.Errorf("Expected the partial reservations released for %s, got %v", orderID, inventory.released)
	}

	reason, ok := canceller.cancelled[orderID]
	if !ok {
		t.Fatal("Expected the order to be cancelled")
	}
	if !strings.Contains(reason, "Gadget (qty: 3)") {
		t.Errorf("Expected the reason to name the failing product, got %q", reason)
	}
	if strings.Contains(reason, "Widget") {
		t.Errorf("Expected the reason to skip products that reserved, got %q", reason)
	}
}

func TestHandleOrderCreatedRejectsWhenCancelFails(t *testing.T) {
	inventory := newFakeInventoryOps()
	canceller := newFakeCanceller()
	canceller.err = errors.New("orders down")
	w := NewWorker(inventory, canceller, zerolog.Nop())

	badProduct := uuid.New()
	inventory.failProducts[badProduct] = &apperrors.InsufficientInventoryError{ProductID: badProduct}

	event := events.OrderCreated{
		OrderID:    uuid.New(),
		CustomerID: uuid.New(),
		Items: []events.OrderCreatedItem{
			{Product: events.ProductRef{ID: badProduct, Name: "Gadget"}, Quantity: 1},
		},
	}

	err := w.HandleOrderCreated(context.Background(), orderCreatedPayload(t, event), messaging.Metadata{MessageID: uuid.NewString()})
	if err == nil {
		t.Error("Expected an error when the compensating cancel fails")
	}
}

func TestHandleOrderCreatedRejectsInvalidEvent(t *testing.T) {
	w := NewWorker(newFakeInventoryOps(), newFakeCanceller(), zerolog.Nop())

	err := w.HandleOrderCreated(context.Background(), []byte(`{"items":[]}`), messaging.Metadata{MessageID: uuid.NewString()})
	if !apperrors.IsValidation(err) {
		t.Errorf("Expected validation error, got: %v", err)
	}
}

func TestHandleOrderConfirmed(t *testing.T) {
	inventory := newFakeInventoryOps()
	w := NewWorker(inventory, newFakeCanceller(), zerolog.Nop())

	orderID := uuid.New()
	payload, _ := json.Marshal(events.OrderConfirmed{OrderID: orderID, CustomerID: uuid.New(), ConfirmedAt: time.Now()})

	if err := w.HandleOrderConfirmed(context.Background(), payload, messaging.Metadata{MessageID: uuid.NewString()}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(inventory.confirmed) != 1 || inventory.confirmed[0] != orderID {
		t.Errorf("Expected ConfirmByOrder for %s, got %v", orderID, inventory.confirmed)
	}
}

func TestHandleOrderCancelled(t *testing.T) {
	inventory := newFakeInventoryOps()
	w := NewWorker(inventory, newFakeCanceller(), zerolog.Nop())

	orderID := uuid.New()
	payload, _ := json.Marshal(events.OrderCancelled{OrderID: orderID, CustomerID: uuid.New(), Reason: "payment failed"})

	if err := w.HandleOrderCancelled(context.Background(), payload, messaging.Metadata{MessageID: uuid.NewString()}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(inventory.released) != 1 || inventory.released[0] != orderID {
		t.Errorf("Expected ReleaseByOrder for %s, got %v", orderID, inventory.released)
	}
}
