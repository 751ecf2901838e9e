// Package handlers is the thin HTTP glue over the payment service. Payment
// processing is triggered here, not by a bus event.
package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/apperrors"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/httpapi"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/payment/service"
)

type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

func (h *PaymentHandler) Register(router fiber.Router) {
	router.Post("/payments", h.ProcessPayment)
	router.Get("/payments/:id", h.GetPaymentByID)
}

func (h *PaymentHandler) ProcessPayment(c *fiber.Ctx) error {
	var request ProcessPaymentRequest
	if err := c.BodyParser(&request); err != nil {
		return apperrors.NewValidationError("invalid request body: %v", err)
	}
	if request.OrderID == uuid.Nil {
		return apperrors.NewValidationError("orderId is required")
	}

	payment, err := h.payments.Process(c.Context(), request.OrderID, request.Amount)
	if err != nil {
		return err
	}
	return httpapi.Created(c, payment)
}

func (h *PaymentHandler) GetPaymentByID(c *fiber.Ctx) error {
	paymentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.NewValidationError("invalid payment id: %s", c.Params("id"))
	}

	payment, err := h.payments.FindPaymentByID(c.Context(), paymentID)
	if err != nil {
		return err
	}
	return httpapi.Success(c, payment)
}

type ProcessPaymentRequest struct {
	OrderID uuid.UUID `json:"orderId"`
	Amount  float64   `json:"amount"`
}
