// Package gateway abstracts the external payment provider.
package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/payment/domain"
)

type Response struct {
	Status        domain.PaymentStatus `json:"status"`
	TransactionID string               `json:"transactionId"`
	Message       string               `json:"message"`
}

type PaymentGateway interface {
	ProcessPayment(ctx context.Context, payment *domain.Payment) (*Response, error)
}

// SimulatedGateway stands in for a real provider: fixed latency, then a
// random approve/decline with the configured failure rate.
type SimulatedGateway struct {
	latency     time.Duration
	failureRate float64
}

func NewSimulatedGateway(latency time.Duration, failureRate float64) *SimulatedGateway {
	return &SimulatedGateway{latency: latency, failureRate: failureRate}
}

func (g *SimulatedGateway) ProcessPayment(ctx context.Context, payment *domain.Payment) (*Response, error) {
	select {
	case <-time.After(g.latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	transactionID := fmt.Sprintf("TXN-%d-%06d", time.Now().UnixMilli(), rand.Intn(1000000))

	if rand.Float64() < g.failureRate {
		return &Response{
			Status:        domain.PaymentStatusCancelled,
			TransactionID: transactionID,
			Message:       fmt.Sprintf("%s - payment processing failed", payment.ID),
		}, nil
	}

	return &Response{
		Status:        domain.PaymentStatusConfirmed,
		TransactionID: transactionID,
		Message:       fmt.Sprintf("%s - payment processed successfully", payment.ID),
	}, nil
}
