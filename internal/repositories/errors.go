package repositories

import "errors"

// Sentinel errors shared by the GORM and in-memory implementations so the
// service layer can translate them without string matching.
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderItemNotFound    = errors.New("order item not found")
	ErrReturnAlreadyActive  = errors.New("return already requested for item")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrCartNotFound         = errors.New("cart not found")
)
