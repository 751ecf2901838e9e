// Package service orchestrates payment attempts. A payment never proceeds
// unless every order line is still backed by a live reservation; an uncovered
// line cancels the order instead.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/apperrors"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/events"
	invdomain "github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/inventory/domain"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/messaging"
	ordersdomain "github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/orders/domain"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/payment/domain"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/payment/gateway"
)

type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *domain.Payment) error
	UpdatePaymentStatus(ctx context.Context, paymentID uuid.UUID, status domain.PaymentStatus) error
	FindPaymentByID(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error)
}

type OrderDirectory interface {
	FindOrderByID(ctx context.Context, orderID uuid.UUID) (*ordersdomain.Order, error)
}

type OrderCanceller interface {
	CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) error
}

type ReservationDirectory interface {
	ReservationsByOrder(ctx context.Context, orderID uuid.UUID) ([]invdomain.Reservation, error)
}

type PaymentService struct {
	repo         PaymentRepository
	orders       OrderDirectory
	canceller    OrderCanceller
	reservations ReservationDirectory
	gateway      gateway.PaymentGateway
	publisher    messaging.EventPublisher
	logger       zerolog.Logger
}

func NewPaymentService(
	repo PaymentRepository,
	orders OrderDirectory,
	canceller OrderCanceller,
	reservations ReservationDirectory,
	gw gateway.PaymentGateway,
	publisher messaging.EventPublisher,
	logger zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		repo:         repo,
		orders:       orders,
		canceller:    canceller,
		reservations: reservations,
		gateway:      gw,
		publisher:    publisher,
		logger:       logger,
	}
}

// Process runs one payment attempt for the order. Before any money moves,
// every order line must be covered by a live PENDING reservation; a line
// whose reservation was never made, already consumed or expired aborts the
// attempt, cancels the order and fails with InsufficientInventoryError. No
// Payment row is created on that path.
func (s *PaymentService) Process(ctx context.Context, orderID uuid.UUID, amount float64) (*domain.Payment, error) {
	if amount <= 0 {
		return nil, apperrors.NewValidationError("payment amount must be positive")
	}

	order, err := s.orders.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.checkReservationCover(ctx, order); err != nil {
		return nil, err
	}

	payment := domain.NewPayment(orderID, amount)
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, apperrors.NewInfrastructureError("payment creation failed", err)
	}

	response, err := s.gateway.ProcessPayment(ctx, payment)
	if err != nil {
		gatewayErr := &apperrors.GatewayError{Message: "payment provider unreachable", Cause: err}
		s.finalize(ctx, payment, domain.PaymentStatusCancelled)
		s.publishFailed(payment, gatewayErr.Error())
		return payment, gatewayErr
	}

	if response.Status == domain.PaymentStatusConfirmed {
		s.finalize(ctx, payment, domain.PaymentStatusConfirmed)
		s.logger.Info().
			Str("payment_id", payment.ID.String()).
			Str("order_id", orderID.String()).
			Str("transaction_id", response.TransactionID).
			Msg("payment confirmed")

		if err := s.publisher.Publish(events.ExchangePayments, events.RoutePaymentConfirmed, events.PaymentConfirmed{
			OrderID:     orderID,
			PaymentID:   payment.ID,
			Amount:      payment.Amount,
			ConfirmedAt: time.Now(),
		}); err != nil {
			return payment, apperrors.NewInfrastructureError("payment confirmed event publish failed", err)
		}
		return payment, nil
	}

	s.finalize(ctx, payment, domain.PaymentStatusCancelled)
	s.logger.Warn().
		Str("payment_id", payment.ID.String()).
		Str("order_id", orderID.String()).
		Str("reason", response.Message).
		Msg("payment declined")
	s.publishFailed(payment, response.Message)
	return payment, nil
}

// checkReservationCover verifies every order line against the set of product
// ids with a live PENDING reservation, compensating when cover is missing.
func (s *PaymentService) checkReservationCover(ctx context.Context, order *ordersdomain.Order) error {
	reservations, err := s.reservations.ReservationsByOrder(ctx, order.ID)
	if err != nil {
		return err
	}

	now := time.Now()
	live := make(map[uuid.UUID]bool, len(reservations))
	for _, reservation := range reservations {
		if reservation.Live(now) {
			live[reservation.ProductID] = true
		}
	}

	var uncovered []string
	for _, item := range order.Items {
		if !live[item.ProductID] {
			name := item.ProductName
			if name == "" {
				name = item.ProductID.String()
			}
			uncovered = append(uncovered, name)
		}
	}
	if len(uncovered) == 0 {
		return nil
	}

	reason := fmt.Sprintf("no live reservation for products: %s", strings.Join(uncovered, ", "))
	s.logger.Warn().
		Str("order_id", order.ID.String()).
		Str("reason", reason).
		Msg("payment aborted, cancelling order")

	if err := s.canceller.CancelOrder(ctx, order.ID, reason); err != nil {
		s.logger.Error().Err(err).
			Str("order_id", order.ID.String()).
			Msg("order cancel after failed cover check failed")
	}

	return &apperrors.InsufficientInventoryError{Reason: reason}
}

func (s *PaymentService) finalize(ctx context.Context, payment *domain.Payment, status domain.PaymentStatus) {
	if err := s.repo.UpdatePaymentStatus(ctx, payment.ID, status); err != nil {
		s.logger.Error().Err(err).
			Str("payment_id", payment.ID.String()).
			Str("status", string(status)).
			Msg("payment finalize failed")
		return
	}
	payment.Status = status
	payment.UpdatedAt = time.Now()
}

func (s *PaymentService) publishFailed(payment *domain.Payment, reason string) {
	err := s.publisher.Publish(events.ExchangePayments, events.RoutePaymentFailed, events.PaymentFailed{
		OrderID:   payment.OrderID,
		PaymentID: payment.ID,
		Amount:    payment.Amount,
		Reason:    reason,
		FailedAt:  time.Now(),
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("payment_id", payment.ID.String()).
			Msg("payment failed event publish failed")
	}
}

func (s *PaymentService) FindPaymentByID(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	return s.repo.FindPaymentByID(ctx, paymentID)
}
