package handlers

import (
	"log"

	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// NotificationHandler handles the admin notification feed.
type NotificationHandler struct {
	service *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		service: service,
	}
}

// RegisterRoutes registers the admin notification routes.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	notificationRoutes := router.Group("/admin/notifications")
	notificationRoutes.Get("/", h.HandleGetFeed)
	notificationRoutes.Get("/unread-count", h.HandleUnreadCount)
	notificationRoutes.Put("/read-all", h.HandleMarkAllRead)
	notificationRoutes.Put("/:id/read", h.HandleMarkRead)
	notificationRoutes.Delete("/:id", h.HandleDelete)
	notificationRoutes.Delete("/", h.HandleClear)
}

// HandleGetFeed returns the merged stored + synthetic notification feed.
func (h *NotificationHandler) HandleGetFeed(c *fiber.Ctx) error {
	feed, err := h.service.AdminFeed()
	if err != nil {
		log.Printf("Error building notification feed: %v", err)
		return respondError(c, err, "Could not retrieve notifications")
	}
	return c.JSON(feed)
}

// HandleUnreadCount returns the stored unread count.
func (h *NotificationHandler) HandleUnreadCount(c *fiber.Ctx) error {
	count, err := h.service.UnreadCount()
	if err != nil {
		log.Printf("Error counting unread notifications: %v", err)
		return respondError(c, err, "Could not count notifications")
	}
	return c.JSON(fiber.Map{
		"unread": count,
	})
}

// HandleMarkRead marks one notification as read. Synthetic ids are accepted
// with no persisted effect.
func (h *NotificationHandler) HandleMarkRead(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.MarkRead(id); err != nil {
		log.Printf("Error marking notification %s read: %v", id, err)
		return respondError(c, err, "Could not mark notification read")
	}
	return c.JSON(fiber.Map{
		"message": "Notification marked read",
	})
}

// HandleMarkAllRead marks every stored notification as read.
func (h *NotificationHandler) HandleMarkAllRead(c *fiber.Ctx) error {
	if err := h.service.MarkAllRead(); err != nil {
		log.Printf("Error marking all notifications read: %v", err)
		return respondError(c, err, "Could not mark notifications read")
	}
	return c.JSON(fiber.Map{
		"message": "All notifications marked read",
	})
}

// HandleDelete removes one stored notification.
func (h *NotificationHandler) HandleDelete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(id); err != nil {
		log.Printf("Error deleting notification %s: %v", id, err)
		return respondError(c, err, "Could not delete notification")
	}
	return c.JSON(fiber.Map{
		"message": "Notification deleted",
	})
}

// HandleClear purges the stored notification log.
func (h *NotificationHandler) HandleClear(c *fiber.Ctx) error {
	if err := h.service.Clear(); err != nil {
		log.Printf("Error clearing notifications: %v", err)
		return respondError(c, err, "Could not clear notifications")
	}
	return c.JSON(fiber.Map{
		"message": "Notifications cleared",
	})
}
