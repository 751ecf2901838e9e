// Package repository persists the movement ledger and reservations.
// Movements are insert-only; reservation status updates are guarded so a
// terminal row is never overwritten.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/apperrors"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/inventory/domain"
)

type InventoryRepository struct {
	db *sql.DB
}

func NewInventoryRepository(db *sql.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) FindProductByID(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	product := &domain.Product{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price, is_active
		FROM products
		WHERE id = $1
	`, productID).Scan(&product.ID, &product.Name, &product.Price, &product.IsActive)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("product", productID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "query product")
	}
	return product, nil
}

func (r *InventoryRepository) CreateMovement(ctx context.Context, productID uuid.UUID, quantity int, direction domain.MovementDirection) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inventory_movements (id, product_id, quantity, direction, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, uuid.New(), productID, quantity, direction)
	return errors.Wrap(err, "insert inventory movement")
}

// MovementBalance returns Σ IN − Σ OUT for the product's ledger.
func (r *InventoryRepository) MovementBalance(ctx context.Context, productID uuid.UUID) (int, error) {
	var balance int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN direction = 'IN' THEN quantity ELSE -quantity END), 0)
		FROM inventory_movements
		WHERE product_id = $1
	`, productID).Scan(&balance)
	if err != nil {
		return 0, errors.Wrap(err, "query movement balance")
	}
	return balance, nil
}

// ReservedQuantity sums the live holds: PENDING reservations that have not
// expired at the given instant. Expired rows fall out of the sum here without
// ever being touched.
func (r *InventoryRepository) ReservedQuantity(ctx context.Context, productID uuid.UUID, now time.Time) (int, error) {
	var reserved int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM inventory_reservations
		WHERE product_id = $1 AND status = $2 AND expires_at > $3
	`, productID, domain.ReservationStatusPending, now).Scan(&reserved)
	if err != nil {
		return 0, errors.Wrap(err, "query reserved quantity")
	}
	return reserved, nil
}

func (r *InventoryRepository) CreateReservation(ctx context.Context, reservation *domain.Reservation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inventory_reservations
			(id, product_id, order_id, quantity, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, reservation.ID, reservation.ProductID, reservation.OrderID, reservation.Quantity,
		reservation.Status, reservation.ExpiresAt, reservation.CreatedAt, reservation.UpdatedAt)
	return errors.Wrap(err, "insert reservation")
}

func (r *InventoryRepository) ReservationsByOrderID(ctx context.Context, orderID uuid.UUID) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, order_id, quantity, status, expires_at, created_at, updated_at
		FROM inventory_reservations
		WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "query reservations by order")
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var reservation domain.Reservation
		err := rows.Scan(
			&reservation.ID,
			&reservation.ProductID,
			&reservation.OrderID,
			&reservation.Quantity,
			&reservation.Status,
			&reservation.ExpiresAt,
			&reservation.CreatedAt,
			&reservation.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scan reservation")
		}
		reservations = append(reservations, reservation)
	}
	return reservations, rows.Err()
}

// TransitionReservation flips one reservation out of PENDING. The WHERE
// clause on the current status makes terminal states immutable: flipping an
// already-terminal row reports false instead of overwriting it.
func (r *InventoryRepository) TransitionReservation(ctx context.Context, reservationID uuid.UUID, to domain.ReservationStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE inventory_reservations
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, reservationID, to, domain.ReservationStatusPending)
	if err != nil {
		return false, errors.Wrap(err, "transition reservation")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "reservation rows affected")
	}
	return affected > 0, nil
}

// ReleaseByOrderID cancels every PENDING reservation of the order in one
// statement. Already-terminal rows are untouched, which makes release
// idempotent.
func (r *InventoryRepository) ReleaseByOrderID(ctx context.Context, orderID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE inventory_reservations
		SET status = $2, updated_at = NOW()
		WHERE order_id = $1 AND status = $3
	`, orderID, domain.ReservationStatusCancelled, domain.ReservationStatusPending)
	return errors.Wrap(err, "release reservations by order")
}
