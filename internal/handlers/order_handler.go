package handlers

import (
	"log"

	"storefront/internal/payload"
	"storefront/internal/request"
	"storefront/internal/router"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes. Checkout is public; everything else is admin-only.
func (h *OrderHandler) RegisterRoutes(r *router.Router) {
	r.Get("/orders", router.Admin, h.HandleGetOrders)
	r.Post("/orders", router.Public, h.HandleCreateOrder)
	r.Get("/orders/:id", router.Admin, h.HandleGetOrderByID)
	r.Delete("/orders/:id", router.Admin, h.HandleDeleteOrder)
	r.Put("/orders/:id/status", router.Admin, h.HandleUpdateOrderStatus)
}

// HandleGetOrders lists the most recent orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx, req request.Parsed) error {
	orders, err := h.service.ListOrders(c.UserContext(), req.Query["limit"])
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": orders})
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx, req request.Parsed) error {
	order, err := h.service.GetOrder(c.UserContext(), req.ID())
	if err != nil {
		return err
	}
	return c.JSON(order)
}

// HandleCreateOrder creates a new order from the checkout payload.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx, _ request.Parsed) error {
	order, err := payload.OrderCreate(readBody(c))
	if err != nil {
		return err
	}
	if err := h.service.CreateOrder(c.UserContext(), order); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleUpdateOrderStatus moves an order to a new status.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx, req request.Parsed) error {
	status, err := payload.Status(readBody(c), h.service.Statuses())
	if err != nil {
		return err
	}
	order, err := h.service.UpdateOrderStatus(c.UserContext(), req.ID(), status)
	if err != nil {
		return err
	}
	log.Printf("Order %s moved to %s by %s", order.ID, order.Status, actor(c))
	return c.JSON(order)
}

// HandleDeleteOrder deletes an order.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx, req request.Parsed) error {
	if err := h.service.DeleteOrder(c.UserContext(), req.ID()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}
