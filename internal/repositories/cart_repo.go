package repositories

import "storefront/internal/models"

// CartRepository defines the interface for cart data access. The order
// service only reads carts and clears them after a successful order.
type CartRepository interface {
	GetByUserID(userID string) (*models.Cart, error)
	Save(cart *models.Cart) error
	// Clear empties the user's cart. Clearing a missing or already-empty
	// cart is a no-op success, so the call is safely retryable.
	Clear(userID string) error
}
