// Package repository persists payments.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/apperrors"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/payment/domain"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, order_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, payment.ID, payment.OrderID, payment.Amount, payment.Status, payment.CreatedAt, payment.UpdatedAt)
	return errors.Wrap(err, "insert payment")
}

// UpdatePaymentStatus finalizes a PENDING payment. Terminal payments are
// never rewritten.
func (r *PaymentRepository) UpdatePaymentStatus(ctx context.Context, paymentID uuid.UUID, status domain.PaymentStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, paymentID, status, domain.PaymentStatusPending)
	return errors.Wrap(err, "update payment status")
}

func (r *PaymentRepository) FindPaymentByID(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	payment := &domain.Payment{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, amount, status, created_at, updated_at
		FROM payments
		WHERE id = $1
	`, paymentID).Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.Amount,
		&payment.Status,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("payment", paymentID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "query payment")
	}
	return payment, nil
}
