package handlers

import (
	"log"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the user-facing order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/my", h.HandleGetMyOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/:id/return", h.HandleRequestReturn)
}

// RegisterAdminRoutes registers the admin-facing order routes.
func (h *OrderHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/admin/orders", h.HandleGetAllOrders)
	router.Get("/admin/orders/revenue", h.HandleGetRevenue)
	router.Put("/orders/:id/status", h.HandleUpdateOrderStatus)
}

// CreateOrderRequest is the request body for order creation. Line items and
// totals are deliberately absent: the server derives both from the cart.
type CreateOrderRequest struct {
	PaymentMethod   models.PaymentMethod   `json:"payment_method" validate:"required"`
	PaymentResult   *models.PaymentResult  `json:"payment_result"`
	ShippingAddress models.ShippingAddress `json:"shipping_address" validate:"required"`
}

// HandleCreateOrder creates a new order from the caller's cart.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create-order request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	userID, _ := c.Locals("user_id").(string)
	order, err := h.service.CreateOrder(userID, services.CreateOrderInput{
		PaymentMethod:   req.PaymentMethod,
		PaymentResult:   req.PaymentResult,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		log.Printf("Error creating order for user %s: %v", userID, err)
		return respondError(c, err, "Could not create order")
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetMyOrders retrieves the caller's orders, newest first.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	orders, err := h.service.GetMyOrders(userID)
	if err != nil {
		log.Printf("Error getting orders for user %s: %v", userID, err)
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves one of the caller's orders.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	orderID := c.Params("id")
	order, err := h.service.GetOrderByID(userID, orderID)
	if err != nil {
		log.Printf("Error getting order %s for user %s: %v", orderID, userID, err)
		return respondError(c, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// ReturnRequestBody is the request body for opening a return.
type ReturnRequestBody struct {
	ItemID   string `json:"item_id" validate:"required"`
	Reason   string `json:"reason" validate:"required"`
	Comments string `json:"comments"`
}

// HandleRequestReturn opens a return on one line item of a delivered order.
func (h *OrderHandler) HandleRequestReturn(c *fiber.Ctx) error {
	var req ReturnRequestBody
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing return request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	userID, _ := c.Locals("user_id").(string)
	orderID := c.Params("id")
	returnID, err := h.service.RequestReturn(userID, orderID, req.ItemID, req.Reason, req.Comments)
	if err != nil {
		log.Printf("Error requesting return on order %s item %s: %v", orderID, req.ItemID, err)
		return respondError(c, err, "Could not request return")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Return requested successfully",
		"return_id": returnID,
	})
}

// HandleUpdateOrderStatus advances an order along the status pipeline.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var updateData struct {
		Status models.OrderStatus `json:"status"`
	}

	if err := c.BodyParser(&updateData); err != nil {
		log.Printf("Error parsing request body for status update: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}

	if updateData.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required for order status update.",
		})
	}

	order, err := h.service.UpdateOrderStatus(orderID, updateData.Status)
	if err != nil {
		log.Printf("Error updating order status for order %s: %v", orderID, err)
		return respondError(c, err, "Could not update order status")
	}

	return c.JSON(order)
}

// HandleGetAllOrders retrieves all orders. Admin only.
func (h *OrderHandler) HandleGetAllOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders()
	if err != nil {
		log.Printf("Error getting all orders: %v", err)
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetRevenue aggregates paid-order revenue. Admin only.
func (h *OrderHandler) HandleGetRevenue(c *fiber.Ctx) error {
	revenue, err := h.service.PaidRevenue()
	if err != nil {
		log.Printf("Error aggregating revenue: %v", err)
		return respondError(c, err, "Could not aggregate revenue")
	}
	return c.JSON(fiber.Map{
		"revenue": revenue,
	})
}
