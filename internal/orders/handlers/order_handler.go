// Package handlers is the thin HTTP glue over the orders service.
package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/apperrors"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/httpapi"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/orders/domain"
	"github.com/RafaelCarvalhoxd/event-driven-architecture-orders/internal/orders/service"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) Register(router fiber.Router) {
	router.Post("/orders", h.CreateOrder)
	router.Get("/orders/:id", h.GetOrderByID)
}

func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var request CreateOrderRequest
	if err := c.BodyParser(&request); err != nil {
		return apperrors.NewValidationError("invalid request body: %v", err)
	}

	order, err := h.orders.CreateOrder(c.Context(), request.CustomerID, request.ToOrderItems())
	if err != nil {
		return err
	}
	return httpapi.Created(c, order)
}

func (h *OrderHandler) GetOrderByID(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.NewValidationError("invalid order id: %s", c.Params("id"))
	}

	order, err := h.orders.FindOrderByID(c.Context(), orderID)
	if err != nil {
		return err
	}
	return httpapi.Success(c, order)
}

type CreateOrderRequest struct {
	CustomerID uuid.UUID          `json:"customerId"`
	Items      []OrderItemRequest `json:"items"`
}

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
}

func (r CreateOrderRequest) ToOrderItems() []domain.OrderItem {
	items := make([]domain.OrderItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}
	return items
}
