// Package service owns the order lifecycle and its saga events. Status
// transitions are conditional updates, so a terminal order can never regress
// and lifecycle events are emitted exactly once per real transition.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/apperrors"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/events"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/messaging"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/orders/domain"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	FindOrderByID(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (bool, error)
}

type OrderService struct {
	repo      OrderRepository
	publisher messaging.EventPublisher
	logger    zerolog.Logger
}

func NewOrderService(repo OrderRepository, publisher messaging.EventPublisher, logger zerolog.Logger) *OrderService {
	return &OrderService{repo: repo, publisher: publisher, logger: logger}
}

// CreateOrder persists the order in PENDING and kicks off the saga with
// OrderCreated. The event is built from the read-back order so it carries
// product names. When the publish fails the order still exists; the caller
// gets both the order and the error.
func (s *OrderService) CreateOrder(ctx context.Context, customerID uuid.UUID, items []domain.OrderItem) (*domain.Order, error) {
	if customerID == uuid.Nil {
		return nil, apperrors.NewValidationError("customerId is required")
	}
	if len(items) == 0 {
		return nil, apperrors.NewValidationError("order must have at least one item")
	}
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, apperrors.NewValidationError("item productId is required")
		}
		if item.Quantity <= 0 {
			return nil, apperrors.NewValidationError("item quantity must be positive")
		}
		if item.Price < 0 {
			return nil, apperrors.NewValidationError("item price must not be negative")
		}
	}

	order := domain.NewOrder(customerID, items)
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, apperrors.NewInfrastructureError("order creation failed", err)
	}

	created, err := s.repo.FindOrderByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", created.ID.String()).
		Str("customer_id", created.Customer.ID.String()).
		Float64("total_amount", created.TotalAmount).
		Msg("order created")

	event := events.OrderCreated{
		OrderID:     created.ID,
		CustomerID:  created.Customer.ID,
		TotalAmount: created.TotalAmount,
		CreatedAt:   created.CreatedAt,
	}
	for _, item := range created.Items {
		event.Items = append(event.Items, events.OrderCreatedItem{
			Product:  events.ProductRef{ID: item.ProductID, Name: item.ProductName},
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	if err := s.publisher.Publish(events.ExchangeOrders, events.RouteOrderCreated, event); err != nil {
		s.logger.Error().Err(err).
			Str("order_id", created.ID.String()).
			Msg("order persisted but OrderCreated publish failed")
		return created, apperrors.NewInfrastructureError("order created event publish failed", err)
	}

	return created, nil
}

// ConfirmOrder moves the order PENDING→CONFIRMED and emits OrderConfirmed.
// An order that already left PENDING is left alone and no event is re-emitted.
func (s *OrderService) ConfirmOrder(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		return err
	}

	updated, err := s.repo.UpdateOrderStatus(ctx, orderID, domain.OrderStatusConfirmed)
	if err != nil {
		return apperrors.NewInfrastructureError("order confirm failed", err)
	}
	if !updated {
		s.logger.Info().
			Str("order_id", orderID.String()).
			Str("status", string(order.Status)).
			Msg("order already terminal, confirm skipped")
		return nil
	}

	s.logger.Info().Str("order_id", orderID.String()).Msg("order confirmed")

	return s.publisher.Publish(events.ExchangeOrders, events.RouteOrderConfirmed, events.OrderConfirmed{
		OrderID:     orderID,
		CustomerID:  order.Customer.ID,
		ConfirmedAt: time.Now(),
	})
}

// CancelOrder moves the order PENDING→CANCELLED and emits OrderCancelled.
// Safe to call on a terminal order: it becomes a no-op without re-emitting.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) error {
	order, err := s.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		return err
	}

	updated, err := s.repo.UpdateOrderStatus(ctx, orderID, domain.OrderStatusCancelled)
	if err != nil {
		return apperrors.NewInfrastructureError("order cancel failed", err)
	}
	if !updated {
		s.logger.Info().
			Str("order_id", orderID.String()).
			Str("status", string(order.Status)).
			Msg("order already terminal, cancel skipped")
		return nil
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("reason", reason).
		Msg("order cancelled")

	return s.publisher.Publish(events.ExchangeOrders, events.RouteOrderCancelled, events.OrderCancelled{
		OrderID:     orderID,
		CustomerID:  order.Customer.ID,
		Reason:      reason,
		CancelledAt: time.Now(),
	})
}

func (s *OrderService) FindOrderByID(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.repo.FindOrderByID(ctx, orderID)
}
