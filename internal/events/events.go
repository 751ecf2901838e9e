// Package events defines the saga's wire payloads and the schema validation
// applied at the bus boundary. Consumers never hand a payload to business
// logic before Decode has accepted it.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/apperrors"
)

// Exchanges and routing keys of the saga topology.
const (
	ExchangeOrders   = "orders"
	ExchangePayments = "payments"

	RouteOrderCreated     = "order.created"
	RouteOrderConfirmed   = "order.confirmed"
	RouteOrderCancelled   = "order.cancelled"
	RoutePaymentConfirmed = "payment.confirmed"
	RoutePaymentFailed    = "payment.failed"
)

type Event interface {
	Validate() error
}

// Decode unmarshals a stripped envelope payload into the typed event and
// runs its schema validation. Both failure modes surface as ValidationError
// so the consumer rejects the message instead of raising deep inside a
// handler.
func Decode(body []byte, event Event) error {
	if err := json.Unmarshal(body, event); err != nil {
		return apperrors.NewValidationError("malformed event payload: %v", err)
	}
	return event.Validate()
}

type ProductRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type OrderCreatedItem struct {
	Product  ProductRef `json:"product"`
	Quantity int        `json:"quantity"`
	Price    float64    `json:"price"`
}

type OrderCreated struct {
	OrderID     uuid.UUID          `json:"orderId"`
	CustomerID  uuid.UUID          `json:"customerId"`
	Items       []OrderCreatedItem `json:"items"`
	TotalAmount float64            `json:"totalAmount"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func (e *OrderCreated) Validate() error {
	if e.OrderID == uuid.Nil {
		return apperrors.NewValidationError("order.created: orderId is required")
	}
	if e.CustomerID == uuid.Nil {
		return apperrors.NewValidationError("order.created: customerId is required")
	}
	if len(e.Items) == 0 {
		return apperrors.NewValidationError("order.created: items must not be empty")
	}
	for _, item := range e.Items {
		if item.Product.ID == uuid.Nil {
			return apperrors.NewValidationError("order.created: item product id is required")
		}
		if item.Quantity <= 0 {
			return apperrors.NewValidationError("order.created: item quantity must be positive")
		}
	}
	return nil
}

type OrderConfirmed struct {
	OrderID     uuid.UUID `json:"orderId"`
	CustomerID  uuid.UUID `json:"customerId"`
	ConfirmedAt time.Time `json:"confirmedAt"`
}

func (e *OrderConfirmed) Validate() error {
	if e.OrderID == uuid.Nil {
		return apperrors.NewValidationError("order.confirmed: orderId is required")
	}
	if e.CustomerID == uuid.Nil {
		return apperrors.NewValidationError("order.confirmed: customerId is required")
	}
	return nil
}

type OrderCancelled struct {
	OrderID     uuid.UUID `json:"orderId"`
	CustomerID  uuid.UUID `json:"customerId"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelledAt"`
}

func (e *OrderCancelled) Validate() error {
	if e.OrderID == uuid.Nil {
		return apperrors.NewValidationError("order.cancelled: orderId is required")
	}
	if e.CustomerID == uuid.Nil {
		return apperrors.NewValidationError("order.cancelled: customerId is required")
	}
	return nil
}

type PaymentConfirmed struct {
	OrderID     uuid.UUID `json:"orderId"`
	PaymentID   uuid.UUID `json:"paymentId"`
	Amount      float64   `json:"amount"`
	ConfirmedAt time.Time `json:"confirmedAt"`
}

func (e *PaymentConfirmed) Validate() error {
	if e.OrderID == uuid.Nil {
		return apperrors.NewValidationError("payment.confirmed: orderId is required")
	}
	if e.PaymentID == uuid.Nil {
		return apperrors.NewValidationError("payment.confirmed: paymentId is required")
	}
	return nil
}

type PaymentFailed struct {
	OrderID   uuid.UUID `json:"orderId"`
	PaymentID uuid.UUID `json:"paymentId"`
	Amount    float64   `json:"amount"`
	Reason    string    `json:"reason,omitempty"`
	FailedAt  time.Time `json:"failedAt"`
}

func (e *PaymentFailed) Validate() error {
	if e.OrderID == uuid.Nil {
		return apperrors.NewValidationError("payment.failed: orderId is required")
	}
	if e.PaymentID == uuid.Nil {
		return apperrors.NewValidationError("payment.failed: paymentId is required")
	}
	return nil
}
