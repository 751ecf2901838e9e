// Package handlers is the thin HTTP glue over the inventory service.
package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/apperrors"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/httpapi"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/inventory/domain"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/inventory/service"
)

type InventoryHandler struct {
	inventory *service.InventoryService
}

func NewInventoryHandler(inventory *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

func (h *InventoryHandler) Register(router fiber.Router) {
	router.Post("/inventory/movements", h.CreateMovement)
	router.Get("/inventory/products/:id/availability", h.GetAvailability)
}

func (h *InventoryHandler) CreateMovement(c *fiber.Ctx) error {
	var request CreateMovementRequest
	if err := c.BodyParser(&request); err != nil {
		return apperrors.NewValidationError("invalid request body: %v", err)
	}

	err := h.inventory.CreateMovement(c.Context(), request.ProductID, request.Quantity,
		domain.MovementDirection(request.Direction))
	if err != nil {
		return err
	}
	return httpapi.Created(c, fiber.Map{
		"productId": request.ProductID,
		"quantity":  request.Quantity,
		"direction": request.Direction,
	})
}

func (h *InventoryHandler) GetAvailability(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.NewValidationError("invalid product id: %s", c.Params("id"))
	}

	available, err := h.inventory.AvailableQuantity(c.Context(), productID)
	if err != nil {
		return err
	}
	return httpapi.Success(c, fiber.Map{
		"productId": productID,
		"available": available,
	})
}

type CreateMovementRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Direction string    `json:"direction"`
}
