package models

import "time"

// CartItem is one product reference inside a cart.
type CartItem struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CartUserID string `json:"-" gorm:"index;type:varchar(36)"`
	ProductID  string `json:"product_id" gorm:"type:varchar(36)" validate:"required"`
	Quantity   int    `json:"quantity" validate:"gt=0"`
}

// Cart holds a user's current cart contents. One cart per user; cleared
// after a successful order creation.
type Cart struct {
	UserID    string     `json:"user_id" gorm:"primaryKey;type:varchar(36)"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartUserID;constraint:OnDelete:CASCADE"`
	UpdatedAt time.Time  `json:"updated_at"`
}
