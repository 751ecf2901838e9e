// Package service renders and sends the customer-facing order emails.
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/notification/mail"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/orders/domain"
)

type NotificationService struct {
	mailer mail.Mailer
	logger zerolog.Logger
}

func NewNotificationService(mailer mail.Mailer, logger zerolog.Logger) *NotificationService {
	return &NotificationService{mailer: mailer, logger: logger}
}

func (s *NotificationService) SendOrderConfirmation(ctx context.Context, order *domain.Order) error {
	body := fmt.Sprintf("Hello %s,\n\nYour order has been confirmed. Order ID: %s\nTotal: %.2f\n",
		order.Customer.Name, order.ID, order.TotalAmount)
	return s.mailer.Send(ctx, order.Customer.Email, "Order Confirmation", body)
}

func (s *NotificationService) SendOrderCancelled(ctx context.Context, order *domain.Order, reason string) error {
	body := fmt.Sprintf("Hello %s,\n\nYour order has been cancelled. Order ID: %s\n",
		order.Customer.Name, order.ID)
	if reason != "" {
		body += fmt.Sprintf("Reason: %s\n", reason)
	}
	return s.mailer.Send(ctx, order.Customer.Email, "Order Cancelled", body)
}
