// Package domain holds the orders read/write model. An order's status only
// ever moves forward: PENDING is the sole non-terminal state.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transition.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusConfirmed || s == OrderStatusCancelled
}

type Customer struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type OrderItem struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	Quantity    int       `json:"quantity"`
	Price       float64   `json:"price"`
}

type Order struct {
	ID          uuid.UUID   `json:"id"`
	Customer    Customer    `json:"customer"`
	Status      OrderStatus `json:"status"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"totalAmount"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// NewOrder builds a PENDING order; the total is always derived from the
// items, never trusted from the caller.
func NewOrder(customerID uuid.UUID, items []OrderItem) *Order {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}

	now := time.Now()
	return &Order{
		ID:          uuid.New(),
		Customer:    Customer{ID: customerID},
		Status:      OrderStatusPending,
		Items:       items,
		TotalAmount: total,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
