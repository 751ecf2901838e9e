// Package service owns available-quantity accounting and the reservation
// lifecycle. Availability is recomputed from the ledger on every call:
// Σ IN − Σ OUT − Σ live PENDING reservations.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/apperrors"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/inventory/domain"
)

// DefaultReservationTTL is how long a reservation holds stock before it
// silently stops counting against availability.
const DefaultReservationTTL = 30 * time.Minute

type InventoryRepository interface {
	FindProductByID(ctx context.Context, productID uuid.UUID) (*domain.Product, error)
	CreateMovement(ctx context.Context, productID uuid.UUID, quantity int, direction domain.MovementDirection) error
	MovementBalance(ctx context.Context, productID uuid.UUID) (int, error)
	ReservedQuantity(ctx context.Context, productID uuid.UUID, now time.Time) (int, error)
	CreateReservation(ctx context.Context, reservation *domain.Reservation) error
	ReservationsByOrderID(ctx context.Context, orderID uuid.UUID) ([]domain.Reservation, error)
	TransitionReservation(ctx context.Context, reservationID uuid.UUID, to domain.ReservationStatus) (bool, error)
	ReleaseByOrderID(ctx context.Context, orderID uuid.UUID) error
}

type InventoryService struct {
	repo   InventoryRepository
	logger zerolog.Logger
}

func NewInventoryService(repo InventoryRepository, logger zerolog.Logger) *InventoryService {
	return &InventoryService{repo: repo, logger: logger}
}

// CreateMovement appends one ledger entry for an existing product.
func (s *InventoryService) CreateMovement(ctx context.Context, productID uuid.UUID, quantity int, direction domain.MovementDirection) error {
	if quantity <= 0 {
		return apperrors.NewValidationError("movement quantity must be positive")
	}
	if direction != domain.MovementIn && direction != domain.MovementOut {
		return apperrors.NewValidationError("movement direction must be IN or OUT")
	}
	if _, err := s.repo.FindProductByID(ctx, productID); err != nil {
		return err
	}
	return s.repo.CreateMovement(ctx, productID, quantity, direction)
}

// AvailableQuantity derives the sellable stock at this instant.
func (s *InventoryService) AvailableQuantity(ctx context.Context, productID uuid.UUID) (int, error) {
	balance, err := s.repo.MovementBalance(ctx, productID)
	if err != nil {
		return 0, err
	}
	reserved, err := s.repo.ReservedQuantity(ctx, productID, time.Now())
	if err != nil {
		return 0, err
	}
	return balance - reserved, nil
}

// Reserve places a PENDING hold for one order line. The availability check
// and the insert are not wrapped in a serializing transaction; concurrent
// reserves for the same product can both pass the check and oversell. Known
// limitation of this accounting scheme.
func (s *InventoryService) Reserve(ctx context.Context, productID, orderID uuid.UUID, quantity int, ttl time.Duration) (uuid.UUID, error) {
	if quantity <= 0 {
		return uuid.Nil, apperrors.NewValidationError("reservation quantity must be positive")
	}
	if ttl <= 0 {
		ttl = DefaultReservationTTL
	}

	if _, err := s.repo.FindProductByID(ctx, productID); err != nil {
		return uuid.Nil, err
	}

	available, err := s.AvailableQuantity(ctx, productID)
	if err != nil {
		return uuid.Nil, err
	}
	if available < quantity {
		return uuid.Nil, &apperrors.InsufficientInventoryError{
			ProductID: productID,
			Available: available,
			Requested: quantity,
		}
	}

	reservation := domain.NewReservation(productID, orderID, quantity, ttl)
	if err := s.repo.CreateReservation(ctx, reservation); err != nil {
		return uuid.Nil, err
	}

	s.logger.Debug().
		Str("reservation_id", reservation.ID.String()).
		Str("product_id", productID.String()).
		Str("order_id", orderID.String()).
		Int("quantity", quantity).
		Msg("product reserved")
	return reservation.ID, nil
}

// ConfirmByOrder finalizes the order's holds: every PENDING reservation
// flips to CONFIRMED paired with an OUT movement, which is the point where
// stock is actually decremented in the ledger. Terminal reservations are
// skipped.
func (s *InventoryService) ConfirmByOrder(ctx context.Context, orderID uuid.UUID) error {
	reservations, err := s.repo.ReservationsByOrderID(ctx, orderID)
	if err != nil {
		return err
	}

	for _, reservation := range reservations {
		if reservation.Status != domain.ReservationStatusPending {
			continue
		}

		flipped, err := s.repo.TransitionReservation(ctx, reservation.ID, domain.ReservationStatusConfirmed)
		if err != nil {
			return err
		}
		if !flipped {
			continue
		}

		if err := s.repo.CreateMovement(ctx, reservation.ProductID, reservation.Quantity, domain.MovementOut); err != nil {
			return err
		}

		s.logger.Debug().
			Str("reservation_id", reservation.ID.String()).
			Str("order_id", orderID.String()).
			Msg("reservation confirmed, OUT movement appended")
	}
	return nil
}

// ReleaseByOrder cancels the order's PENDING reservations. Idempotent:
// terminal reservations are left untouched.
func (s *InventoryService) ReleaseByOrder(ctx context.Context, orderID uuid.UUID) error {
	if err := s.repo.ReleaseByOrderID(ctx, orderID); err != nil {
		return err
	}
	s.logger.Debug().Str("order_id", orderID.String()).Msg("reservations released")
	return nil
}

// ReservationsByOrder exposes the order's reservations to the payment
// orchestrator's live-cover check.
func (s *InventoryService) ReservationsByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.Reservation, error) {
	return s.repo.ReservationsByOrderID(ctx, orderID)
}
