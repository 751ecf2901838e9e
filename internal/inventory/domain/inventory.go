// Package domain holds the inventory model: an append-only movement ledger
// and time-bounded reservations. Stock is always derived, never stored.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type MovementDirection string

const (
	MovementIn  MovementDirection = "IN"
	MovementOut MovementDirection = "OUT"
)

type Product struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Price    float64   `json:"price"`
	IsActive bool      `json:"isActive"`
}

// Movement is one ledger entry. Entries are never mutated or deleted.
type Movement struct {
	ID        uuid.UUID         `json:"id"`
	ProductID uuid.UUID         `json:"productId"`
	Quantity  int               `json:"quantity"`
	Direction MovementDirection `json:"direction"`
	CreatedAt time.Time         `json:"createdAt"`
}

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

func (s ReservationStatus) Terminal() bool {
	return s == ReservationStatusConfirmed || s == ReservationStatusCancelled
}

// Reservation is a temporary hold against available stock for one order
// line. PENDING --confirm--> CONFIRMED, PENDING --release--> CANCELLED;
// terminal states never change again.
type Reservation struct {
	ID        uuid.UUID         `json:"id"`
	ProductID uuid.UUID         `json:"productId"`
	OrderID   uuid.UUID         `json:"orderId"`
	Quantity  int               `json:"quantity"`
	Status    ReservationStatus `json:"status"`
	ExpiresAt time.Time         `json:"expiresAt"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Live reports whether the reservation still holds stock at the given
// instant: PENDING and not yet expired. Expired rows keep their stored
// status but stop counting against availability.
func (r Reservation) Live(now time.Time) bool {
	return r.Status == ReservationStatusPending && r.ExpiresAt.After(now)
}

func NewReservation(productID, orderID uuid.UUID, quantity int, ttl time.Duration) *Reservation {
	now := time.Now()
	return &Reservation{
		ID:        uuid.New(),
		ProductID: productID,
		OrderID:   orderID,
		Quantity:  quantity,
		Status:    ReservationStatusPending,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
