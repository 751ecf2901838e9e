// Package worker reacts to payment outcome events and drives the order to
// its terminal state.
package worker

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/events"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/messaging"
)

const (
	queuePaymentConfirmed = "orders-payment-confirmed"
	queuePaymentFailed    = "orders-payment-failed"
)

type OrderSaga interface {
	ConfirmOrder(ctx context.Context, orderID uuid.UUID) error
	CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) error
}

type Worker struct {
	orders OrderSaga
	logger zerolog.Logger
}

func NewWorker(orders OrderSaga, logger zerolog.Logger) *Worker {
	return &Worker{orders: orders, logger: logger}
}

func (w *Worker) Start(consumer *messaging.Consumer) error {
	err := consumer.Subscribe(queuePaymentConfirmed, messaging.SubscribeOptions{
		Exchange:   events.ExchangePayments,
		RoutingKey: events.RoutePaymentConfirmed,
		Idempotent: true,
	}, w.HandlePaymentConfirmed)
	if err != nil {
		return err
	}

	return consumer.Subscribe(queuePaymentFailed, messaging.SubscribeOptions{
		Exchange:   events.ExchangePayments,
		RoutingKey: events.RoutePaymentFailed,
		Idempotent: true,
	}, w.HandlePaymentFailed)
}

func (w *Worker) HandlePaymentConfirmed(ctx context.Context, payload []byte, meta messaging.Metadata) error {
	var event events.PaymentConfirmed
	if err := events.Decode(payload, &event); err != nil {
		return err
	}

	w.logger.Info().
		Str("order_id", event.OrderID.String()).
		Str("payment_id", event.PaymentID.String()).
		Msg("PaymentConfirmed received")

	return w.orders.ConfirmOrder(ctx, event.OrderID)
}

func (w *Worker) HandlePaymentFailed(ctx context.Context, payload []byte, meta messaging.Metadata) error {
	var event events.PaymentFailed
	if err := events.Decode(payload, &event); err != nil {
		return err
	}

	reason := event.Reason
	if reason == "" {
		reason = "payment failed"
	}

	w.logger.Info().
		Str("order_id", event.OrderID.String()).
		Str("payment_id", event.PaymentID.String()).
		Str("reason", reason).
		Msg("PaymentFailed received")

	return w.orders.CancelOrder(ctx, event.OrderID, reason)
}
