package repositories

import (
	"time"

	"storefront/internal/models"
)

// ReturnRequest carries the fields written onto a line item when a return is
// opened. The sub-state transition itself (none -> pending) is performed by
// the repository as a single conditional update.
type ReturnRequest struct {
	ReturnID    string
	Reason      string
	Comments    string
	RequestedAt time.Time
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	GetByUser(userID string) ([]models.Order, error)
	GetRecentByStatus(status models.OrderStatus, since time.Time) ([]models.Order, error)
	Create(order *models.Order) error
	// UpdateStatus sets the order status. A non-nil deliveredAt is written
	// alongside; callers pass nil to leave the existing timestamp untouched.
	UpdateStatus(id string, status models.OrderStatus, deliveredAt *time.Time) error
	// RequestItemReturn transitions the item's return sub-state from none to
	// pending and records the request fields, atomically. Returns
	// ErrReturnAlreadyActive when the item already has an active return.
	RequestItemReturn(orderID, itemID string, req ReturnRequest) error
	// PaidRevenue sums TotalPrice over paid orders.
	PaidRevenue() (float64, error)
}
