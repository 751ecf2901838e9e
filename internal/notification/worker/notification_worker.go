// Package worker sends customer emails off the order lifecycle events. Mail
// failures are logged and the message is still acknowledged: a lost email
// never fails the saga.
package worker

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/events"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/messaging"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/orders/domain"
)

const (
	queueOrderConfirmed = "notification-order-confirmed"
	queueOrderCancelled = "notification-order-cancelled"
)

type OrderDirectory interface {
	FindOrderByID(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
}

type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order *domain.Order) error
	SendOrderCancelled(ctx context.Context, order *domain.Order, reason string) error
}

type Worker struct {
	notifier Notifier
	orders   OrderDirectory
	logger   zerolog.Logger
}

func NewWorker(notifier Notifier, orders OrderDirectory, logger zerolog.Logger) *Worker {
	return &Worker{notifier: notifier, orders: orders, logger: logger}
}

func (w *Worker) Start(consumer *messaging.Consumer) error {
	err := consumer.Subscribe(queueOrderConfirmed, messaging.SubscribeOptions{
		Exchange:   events.ExchangeOrders,
		RoutingKey: events.RouteOrderConfirmed,
		Idempotent: true,
	}, w.HandleOrderConfirmed)
	if err != nil {
		return err
	}

	return consumer.Subscribe(queueOrderCancelled, messaging.SubscribeOptions{
		Exchange:   events.ExchangeOrders,
		RoutingKey: events.RouteOrderCancelled,
		Idempotent: true,
	}, w.HandleOrderCancelled)
}

func (w *Worker) HandleOrderConfirmed(ctx context.Context, payload []byte, meta messaging.Metadata) error {
	var event events.OrderConfirmed
	if err := events.Decode(payload, &event); err != nil {
		return err
	}

	order, err := w.orders.FindOrderByID(ctx, event.OrderID)
	if err != nil {
		w.logger.Error().Err(err).Str("order_id", event.OrderID.String()).
			Msg("order load for confirmation email failed")
		return nil
	}

	if err := w.notifier.SendOrderConfirmation(ctx, order); err != nil {
		w.logger.Error().Err(err).
			Str("order_id", order.ID.String()).
			Str("customer_email", order.Customer.Email).
			Msg("confirmation email failed")
		return nil
	}

	w.logger.Info().
		Str("order_id", order.ID.String()).
		Str("customer_email", order.Customer.Email).
		Msg("confirmation email sent")
	return nil
}

func (w *Worker) HandleOrderCancelled(ctx context.Context, payload []byte, meta messaging.Metadata) error {
	var event events.OrderCancelled
	if err := events.Decode(payload, &event); err != nil {
		return err
	}

	order, err := w.orders.FindOrderByID(ctx, event.OrderID)
	if err != nil {
		w.logger.Error().Err(err).Str("order_id", event.OrderID.String()).
			Msg("order load for cancellation email failed")
		return nil
	}

	if err := w.notifier.SendOrderCancelled(ctx, order, event.Reason); err != nil {
		w.logger.Error().Err(err).
			Str("order_id", order.ID.String()).
			Str("customer_email", order.Customer.Email).
			Msg("cancellation email failed")
		return nil
	}

	w.logger.Info().
		Str("order_id", order.ID.String()).
		Str("customer_email", order.Customer.Email).
		Msg("cancellation email sent")
	return nil
}
