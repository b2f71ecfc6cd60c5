package models

import "time"

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusReturned       OrderStatus = "returned"
)

// ReturnStatus is the return sub-state of a single line item.
type ReturnStatus string

const (
	ReturnStatusNone      ReturnStatus = "none"
	ReturnStatusPending   ReturnStatus = "pending"
	ReturnStatusApproved  ReturnStatus = "approved"
	ReturnStatusRejected  ReturnStatus = "rejected"
	ReturnStatusCompleted ReturnStatus = "completed"
)

// PaymentMethod identifies how the customer pays.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodUPI    PaymentMethod = "upi"
	PaymentMethodWallet PaymentMethod = "wallet"
	PaymentMethodPaypal PaymentMethod = "paypal"
)

// ShippingAddress is embedded in the order document. All fields are required
// at placement; Country defaults to "India" when absent on historical rows.
type ShippingAddress struct {
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country"`
}

// PaymentResult is the opaque outcome reported by the payment gateway.
// Only populated for non-COD orders where the gateway reported success.
type PaymentResult struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	PayerEmail    string `json:"payer_email"`
}

// OrderItem is a single line item within an order. Name, Price and Image are
// snapshots captured at order time and never re-derived from the catalog.
type OrderItem struct {
	ID                string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID           string       `json:"order_id" gorm:"index;type:varchar(36)"`
	ProductID         string       `json:"product_id" gorm:"type:varchar(36)"`
	Name              string       `json:"name"`
	Price             float64      `json:"price"`
	Quantity          int          `json:"quantity" validate:"gt=0"`
	Image             string       `json:"image"`
	ReturnStatus      ReturnStatus `json:"return_status" gorm:"type:varchar(20);default:'none'"`
	ReturnID          string       `json:"return_id,omitempty" gorm:"type:varchar(32)"`
	ReturnReason      string       `json:"return_reason,omitempty"`
	ReturnComments    string       `json:"return_comments,omitempty"`
	ReturnRequestedAt *time.Time   `json:"return_requested_at,omitempty"`
}

// Order represents a customer order. Line items and the shipping address are
// embedded; there is no separate line-items collection.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string          `json:"user_id" gorm:"index;type:varchar(36)"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingAddress ShippingAddress `json:"shipping_address" gorm:"embedded;embeddedPrefix:ship_"`
	TotalPrice      float64         `json:"total_price"`
	PaymentMethod   PaymentMethod   `json:"payment_method" gorm:"type:varchar(20)"`
	PaymentResult   PaymentResult   `json:"payment_result" gorm:"embedded;embeddedPrefix:pay_"`
	IsPaid          bool            `json:"is_paid"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);default:'pending'"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	HasReturns      bool            `json:"has_returns"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Item returns the line item with the given ID, or nil.
func (o *Order) Item(itemID string) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}
