// Package httpapi carries the thin HTTP conventions shared by the handlers:
// the response envelope and the mapping from the error taxonomy to status
// codes.
package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/apperrors"
)

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// ErrorHandler is the fiber error handler: ValidationError → 400,
// NotFoundError → 404, InsufficientInventoryError → 422, GatewayError → 502,
// everything else → 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	switch {
	case apperrors.IsValidation(err):
		code = fiber.StatusBadRequest
		message = err.Error()
	case apperrors.IsNotFound(err):
		code = fiber.StatusNotFound
		message = err.Error()
	case apperrors.IsInsufficientInventory(err):
		code = fiber.StatusUnprocessableEntity
		message = err.Error()
	case apperrors.IsGateway(err):
		code = fiber.StatusBadGateway
		message = err.Error()
	default:
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}
	}

	return c.Status(code).JSON(APIResponse{
		Success:   false,
		Message:   message,
		Timestamp: time.Now(),
	})
}
