// Package repository persists orders through the narrow CRUD contract the
// saga consumes: create (the one multi-statement transaction in the system),
// read back with customer and product names, and conditional status updates.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/apperrors"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/orders/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateOrder inserts the order row and its items in one transaction, so a
// partially written order can never be observed by the saga.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin order transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, status, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, order.ID, order.Customer.ID, order.Status, order.TotalAmount, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.New(), order.ID, item.ProductID, item.Quantity, item.Price)
		if err != nil {
			return errors.Wrap(err, "insert order item")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit order transaction")
	}
	return nil
}

// FindOrderByID loads the order with its items joined against customers and
// products, so callers get names without further lookups.
func (r *OrderRepository) FindOrderByID(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.customer_id, c.name, c.email, o.status, o.total_amount,
			   o.created_at, o.updated_at,
			   i.product_id, p.name, i.quantity, i.price
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		LEFT JOIN order_items i ON i.order_id = o.id
		LEFT JOIN products p ON p.id = i.product_id
		WHERE o.id = $1
	`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "query order")
	}
	defer rows.Close()

	var order *domain.Order
	for rows.Next() {
		var (
			productID   sql.NullString
			productName sql.NullString
			quantity    sql.NullInt64
			price       sql.NullFloat64
		)
		current := &domain.Order{}
		err := rows.Scan(
			&current.ID,
			&current.Customer.ID,
			&current.Customer.Name,
			&current.Customer.Email,
			&current.Status,
			&current.TotalAmount,
			&current.CreatedAt,
			&current.UpdatedAt,
			&productID,
			&productName,
			&quantity,
			&price,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scan order row")
		}

		if order == nil {
			order = current
		}
		if productID.Valid {
			pid, err := uuid.Parse(productID.String)
			if err != nil {
				return nil, errors.Wrap(err, "parse order item product id")
			}
			order.Items = append(order.Items, domain.OrderItem{
				ProductID:   pid,
				ProductName: productName.String,
				Quantity:    int(quantity.Int64),
				Price:       price.Float64,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate order rows")
	}
	if order == nil {
		return nil, apperrors.NewNotFoundError("order", orderID)
	}
	return order, nil
}

// UpdateOrderStatus transitions the order out of PENDING. It reports whether
// a row actually changed: false means the order was already terminal (or
// absent), which is how monotonicity is enforced under concurrent updates.
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, orderID, status, domain.OrderStatusPending)
	if err != nil {
		return false, errors.Wrap(err, "update order status")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "order status rows affected")
	}
	return affected > 0, nil
}
