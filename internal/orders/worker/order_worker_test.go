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
)

type fakeOrderSaga struct {
	confirmed []uuid.UUID
	cancelled map[uuid.UUID]string
	err       error
}

func newFakeOrderSaga() *fakeOrderSaga {
	return &fakeOrderSaga{cancelled: map[uuid.UUID]string{}}
}

func (f *fakeOrderSaga) ConfirmOrder(_ context.Context, orderID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.confirmed = append(f.confirmed, orderID)
	return nil
}

func (f *fakeOrderSaga) CancelOrder(_ context.Context, orderID uuid.UUID, reason string) error {
	if f.err != nil {
		return f.err
	}
	f.cancelled[orderID] = reason
	return nil
}

func TestHandlePaymentConfirmed(t *testing.T) {
	saga := newFakeOrderSaga()
	w := NewWorker(saga, zerolog.Nop())

	orderID := uuid.New()
	payload, _ := json.Marshal(events.PaymentConfirmed{
		OrderID:     orderID,
		PaymentID:   uuid.New(),
		Amount:      19.98,
		ConfirmedAt: time.Now(),
	})

	if err := w.HandlePaymentConfirmed(context.Background(), payload, messaging.Metadata{MessageID: uuid.NewString()}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(saga.confirmed) != 1 || saga.confirmed[0] != orderID {
		t.Errorf("Expected ConfirmOrder for %s, got %v", orderID, saga.confirmed)
	}
}

func TestHandlePaymentFailedCancelsWithReason(t *testing.T) {
	saga := newFakeOrderSaga()
	w := NewWorker(saga, zerolog.Nop())

	orderID := uuid.New()
	payload, _ := json.Marshal(events.PaymentFailed{
		OrderID:   orderID,
		PaymentID: uuid.New(),
		Reason:    "card declined",
	})

	if err := w.HandlePaymentFailed(context.Background(), payload, messaging.Metadata{MessageID: uuid.NewString()}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if saga.cancelled[orderID] != "card declined" {
		t.Errorf("Expected cancel with the event reason, got %q", saga.cancelled[orderID])
	}
}

func TestHandlePaymentFailedDefaultsReason(t *testing.T) {
	saga := newFakeOrderSaga()
	w := NewWorker(saga, zerolog.Nop())

	orderID := uuid.New()
	payload, _ := json.Marshal(events.PaymentFailed{OrderID: orderID, PaymentID: uuid.New()})

	if err := w.HandlePaymentFailed(context.Background(), payload, messaging.Metadata{MessageID: uuid.NewString()}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if saga.cancelled[orderID] != "payment failed" {
		t.Errorf("Expected the default reason, got %q", saga.cancelled[orderID])
	}
}

func TestHandlePaymentConfirmedRejectsInvalidEvent(t *testing.T) {
	w := NewWorker(newFakeOrderSaga(), zerolog.Nop())

	err := w.HandlePaymentConfirmed(context.Background(), []byte(`{"amount":10}`), messaging.Metadata{MessageID: uuid.NewString()})
	if !apperrors.IsValidation(err) {
		t.Errorf("Expected validation error, got: %v", err)
	}
}

func TestHandlePaymentConfirmedPropagatesSagaError(t *testing.T) {
	saga := newFakeOrderSaga()
	saga.err = errors.New("db down")
	w := NewWorker(saga, zerolog.Nop())

	payload, _ := json.Marshal(events.PaymentConfirmed{OrderID: uuid.New(), PaymentID: uuid.New()})
	if err := w.HandlePaymentConfirmed(context.Background(), payload, messaging.Metadata{MessageID: uuid.NewString()}); err == nil {
		t.Error("Expected the saga error to propagate so the message is rejected")
	}
}
