package repositories

import "storefront/internal/models"

// NotificationRepository defines the interface for the persisted
// notification log.
type NotificationRepository interface {
	Create(notification *models.Notification) error
	// GetRecent returns stored notifications, newest first.
	GetRecent(limit, offset int) ([]models.Notification, error)
	// MarkRead is idempotent; marking an already-read record succeeds.
	MarkRead(id string) error
	// MarkAllRead is idempotent; an empty or fully-read log is a no-op success.
	MarkAllRead() error
	UnreadCount() (int64, error)
	Delete(id string) error
	Clear() error
}
