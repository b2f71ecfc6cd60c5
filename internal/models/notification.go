package models

import "time"

// NotificationType tags the kind of event a notification records.
type NotificationType string

const (
	NotificationTypeNewOrder      NotificationType = "new_order"
	NotificationTypeReturnRequest NotificationType = "return_request"
	NotificationTypeUser          NotificationType = "user"
	NotificationTypeProduct       NotificationType = "product"
	NotificationTypeSystem        NotificationType = "system"
)

// Notification is an admin-facing event record. The log is process-wide and
// append-only; records are not partitioned per admin.
type Notification struct {
	ID        string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Type      NotificationType `json:"type" gorm:"type:varchar(20)"`
	Message   string           `json:"message"`
	Payload   string           `json:"payload" gorm:"type:text"` // JSON document with ids/amounts relevant to the type
	Read      bool             `json:"read" gorm:"default:false"`
	Ephemeral bool             `json:"ephemeral" gorm:"-"` // synthesized on the read path, never persisted
	CreatedAt time.Time        `json:"created_at"`
}
