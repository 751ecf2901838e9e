// Package worker reacts to order lifecycle events: reserve on creation
// (compensating with release+cancel on partial failure), commit on
// confirmation, release on cancellation.
package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/events"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/messaging"
)

const (
	queueOrderCreated   = "inventory-order-created"
	queueOrderConfirmed = "inventory-order-confirmed"
	queueOrderCancelled = "inventory-order-cancelled"
)

type InventoryOps interface {
	Reserve(ctx context.Context, productID, orderID uuid.UUID, quantity int, ttl time.Duration) (uuid.UUID, error)
	ConfirmByOrder(ctx context.Context, orderID uuid.UUID) error
	ReleaseByOrder(ctx context.Context, orderID uuid.UUID) error
}

type OrderCanceller interface {
	CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) error
}

type Worker struct {
	inventory InventoryOps
	orders    OrderCanceller
	logger    zerolog.Logger
}

func NewWorker(inventory InventoryOps, orders OrderCanceller, logger zerolog.Logger) *Worker {
	return &Worker{inventory: inventory, orders: orders, logger: logger}
}

func (w *Worker) Start(consumer *messaging.Consumer) error {
	err := consumer.Subscribe(queueOrderCreated, messaging.SubscribeOptions{
		Exchange:   events.ExchangeOrders,
		RoutingKey: events.RouteOrderCreated,
		Idempotent: true,
	}, w.HandleOrderCreated)
	if err != nil {
		return err
	}

	err = consumer.Subscribe(queueOrderConfirmed, messaging.SubscribeOptions{
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

// HandleOrderCreated reserves stock per order line. When any line fails, the
// compensation runs: release the lines that did reserve, then cancel the
// order with a reason naming every failed product.
func (w *Worker) HandleOrderCreated(ctx context.Context, payload []byte, meta messaging.Metadata) error {
	var event events.OrderCreated
	if err := events.Decode(payload, &event); err != nil {
		return err
	}

	logger := w.logger.With().
		Str("order_id", event.OrderID.String()).
		Str("customer_id", event.CustomerID.String()).
		Logger()
	logger.Info().Int("items", len(event.Items)).Msg("OrderCreated received, reserving products")

	var failed []string
	for _, item := range event.Items {
		_, err := w.inventory.Reserve(ctx, item.Product.ID, event.OrderID, item.Quantity, 0)
		if err != nil {
			logger.Warn().Err(err).
				Str("product_id", item.Product.ID.String()).
				Int("quantity", item.Quantity).
				Msg("product reservation failed")
			failed = append(failed, fmt.Sprintf("%s (qty: %d)", item.Product.Name, item.Quantity))
			continue
		}
	}

	if len(failed) == 0 {
		logger.Info().Msg("all products reserved")
		return nil
	}

	if err := w.inventory.ReleaseByOrder(ctx, event.OrderID); err != nil {
		logger.Error().Err(err).Msg("partial reservation release failed")
	}

	reason := fmt.Sprintf("insufficient stock for products: %s", strings.Join(failed, ", "))
	if err := w.orders.CancelOrder(ctx, event.OrderID, reason); err != nil {
		logger.Error().Err(err).Msg("order cancel after reservation failure failed")
		return err
	}

	logger.Info().Str("reason", reason).Msg("order cancelled for insufficient stock")
	return nil
}

func (w *Worker) HandleOrderConfirmed(ctx context.Context, payload []byte, meta messaging.Metadata) error {
	var event events.OrderConfirmed
	if err := events.Decode(payload, &event); err != nil {
		return err
	}

	w.logger.Info().Str("order_id", event.OrderID.String()).Msg("OrderConfirmed received")
	return w.inventory.ConfirmByOrder(ctx, event.OrderID)
}

func (w *Worker) HandleOrderCancelled(ctx context.Context, payload []byte, meta messaging.Metadata) error {
	var event events.OrderCancelled
	if err := events.Decode(payload, &event); err != nil {
		return err
	}

	w.logger.Info().
		Str("order_id", event.OrderID.String()).
		Str("reason", event.Reason).
		Msg("OrderCancelled received")
	return w.inventory.ReleaseByOrder(ctx, event.OrderID)
}
