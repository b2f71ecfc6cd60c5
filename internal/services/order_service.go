package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/broadcast"
)

// returnWindow is how long after delivery a return may be requested.
const returnWindow = 7 * 24 * time.Hour

const defaultCountry = "India"

// gateway-reported status that counts as a confirmed payment
const paymentStatusSuccess = "success"

// OrderEventPublisher pushes durable order events onto the message queue.
// The RabbitMQ client satisfies this; a nil publisher disables publication.
type OrderEventPublisher interface {
	PublishOrderEvent(event string, payload interface{}) error
}

// statusTransitions is the legal-transition table. The pipeline is mostly
// linear; cancelled is reachable from any pre-delivered state, returned only
// from delivered. Cancelled and returned are terminal.
var statusTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:        {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing:     {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:        {models.OrderStatusOutForDelivery, models.OrderStatusCancelled},
	models.OrderStatusOutForDelivery: {models.OrderStatusDelivered, models.OrderStatusCancelled},
	models.OrderStatusDelivered:      {models.OrderStatusReturned},
	models.OrderStatusCancelled:      {},
	models.OrderStatusReturned:       {},
}

var validPaymentMethods = map[models.PaymentMethod]bool{
	models.PaymentMethodCOD:    true,
	models.PaymentMethodCard:   true,
	models.PaymentMethodUPI:    true,
	models.PaymentMethodWallet: true,
	models.PaymentMethodPaypal: true,
}

// CreateOrderInput carries the caller-supplied part of an order. Line items
// and the total are never accepted from the client; they are always derived
// from the cart and catalog at creation time.
type CreateOrderInput struct {
	PaymentMethod   models.PaymentMethod
	PaymentResult   *models.PaymentResult
	ShippingAddress models.ShippingAddress
}

// OrderService handles business logic related to orders: creation from the
// cart, ownership-scoped reads, the status state machine and the return
// workflow. Notification, broadcast and queue publication are best-effort
// side channels that never abort the primary operation.
type OrderService struct {
	orderRepo     repositories.OrderRepository
	cartRepo      repositories.CartRepository
	productRepo   repositories.ProductRepository
	userRepo      repositories.UserRepository
	notifications *NotificationService
	broadcaster   broadcast.Broadcaster
	publisher     OrderEventPublisher
}

// NewOrderService creates a new OrderService. broadcaster and publisher may
// be nil; the corresponding side channel is then skipped.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	cartRepo repositories.CartRepository,
	productRepo repositories.ProductRepository,
	userRepo repositories.UserRepository,
	notifications *NotificationService,
	broadcaster broadcast.Broadcaster,
	publisher OrderEventPublisher,
) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		cartRepo:      cartRepo,
		productRepo:   productRepo,
		userRepo:      userRepo,
		notifications: notifications,
		broadcaster:   broadcaster,
		publisher:     publisher,
	}
}

// CreateOrder places an order from the caller's cart.
//
// Payment classification: COD orders start pending and unpaid (payment is
// collected on delivery, outside this system); any other method requires a
// gateway-confirmed payment result and starts processing/paid. A non-COD
// order without a confirmed result is rejected so no order record ever
// exists for a payment that could not be confirmed.
func (s *OrderService) CreateOrder(userID string, input CreateOrderInput) (*models.Order, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: caller is required", ErrValidation)
	}
	if !validPaymentMethods[input.PaymentMethod] {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, input.PaymentMethod)
	}
	if err := validateAddress(input.ShippingAddress); err != nil {
		return nil, err
	}

	isCOD := input.PaymentMethod == models.PaymentMethodCOD
	isOnlinePaid := !isCOD && input.PaymentResult != nil && input.PaymentResult.Status == paymentStatusSuccess
	if !isCOD && !isOnlinePaid {
		return nil, fmt.Errorf("%w: payment was not confirmed by the gateway", ErrValidation)
	}

	cart, err := s.cartRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrCartNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("failed to load cart for user %s: %w", userID, err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	items, total, err := s.snapshotCart(cart)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &models.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: input.ShippingAddress,
		TotalPrice:      total,
		PaymentMethod:   input.PaymentMethod,
		Status:          models.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if order.ShippingAddress.Country == "" {
		order.ShippingAddress.Country = defaultCountry
	}
	if isOnlinePaid {
		order.Status = models.OrderStatusProcessing
		order.IsPaid = true
		order.PaidAt = &now
		order.PaymentResult = *input.PaymentResult
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Cart clearing is not transactional with order creation; Clear is
	// idempotent so a failed attempt can be retried without harm.
	if err := s.cartRepo.Clear(userID); err != nil {
		log.Printf("Warning: order %s created but cart for user %s not cleared: %v", order.ID, userID, err)
	}

	s.recordNotification(models.NotificationTypeNewOrder,
		fmt.Sprintf("New order #%s placed for ₹%.2f", shortID(order.ID), order.TotalPrice),
		map[string]interface{}{
			"order_id": order.ID,
			"user_id":  order.UserID,
			"total":    order.TotalPrice,
		})
	s.notifyAdmins("new_order", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.TotalPrice,
		"status":   order.Status,
	})
	s.publishEvent("order.created", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.TotalPrice,
		"status":   order.Status,
	})

	return order, nil
}

// snapshotCart resolves cart items against the catalog, copying name, price
// and image into the order so later catalog edits never alter it. The total
// is the sum of price x quantity, rounded to the currency's minor unit.
func (s *OrderService) snapshotCart(cart *models.Cart) ([]models.OrderItem, float64, error) {
	var items []models.OrderItem
	var total float64
	for _, ci := range cart.Items {
		if ci.Quantity <= 0 {
			return nil, 0, fmt.Errorf("%w: quantity must be positive for product %s", ErrValidation, ci.ProductID)
		}
		product, err := s.productRepo.GetByID(ci.ProductID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to resolve cart product %s: %w", ci.ProductID, err)
		}
		items = append(items, models.OrderItem{
			ProductID:    product.ID,
			Name:         product.Name,
			Price:        product.Price,
			Quantity:     ci.Quantity,
			Image:        product.Image,
			ReturnStatus: models.ReturnStatusNone,
		})
		total += product.Price * float64(ci.Quantity)
	}
	return items, math.Round(total*100) / 100, nil
}

// GetMyOrders returns all orders owned by the caller, newest first. Order-time
// snapshots take precedence for display; live catalog data only fills fields
// an old snapshot left empty. Incomplete shipping addresses are normalized.
func (s *OrderService) GetMyOrders(userID string) ([]models.Order, error) {
	orders, err := s.orderRepo.GetByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}

	var accountName string
	for i := range orders {
		for j := range orders[i].Items {
			item := &orders[i].Items[j]
			if item.Name != "" && item.Image != "" && item.Price > 0 {
				continue
			}
			product, err := s.productRepo.GetByID(item.ProductID)
			if err != nil {
				continue // product deleted; the snapshot is all we have
			}
			if item.Name == "" {
				item.Name = product.Name
			}
			if item.Image == "" {
				item.Image = product.Image
			}
			if item.Price == 0 {
				item.Price = product.Price
			}
		}
		if orders[i].ShippingAddress.Country == "" {
			orders[i].ShippingAddress.Country = defaultCountry
		}
		if orders[i].ShippingAddress.FullName == "" {
			if accountName == "" {
				if user, err := s.userRepo.GetByID(userID); err == nil {
					accountName = user.Username
				}
			}
			orders[i].ShippingAddress.FullName = accountName
		}
	}
	return orders, nil
}

// GetOrderByID returns one of the caller's orders. A missing order and an
// order owned by another user are both ErrNotFound, so existence is never
// leaked.
func (s *OrderService) GetOrderByID(userID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	return order, nil
}

// RequestReturn opens a return on one line item of a delivered order and
// returns the generated return id. Preconditions are checked in order:
// ownership, order status, item existence, no active return, return window.
// The none -> pending transition itself is a conditional update in the
// repository, so two racing requests can never both succeed.
func (s *OrderService) RequestReturn(userID, orderID, itemID, reason, comments string) (string, error) {
	if reason == "" {
		return "", fmt.Errorf("%w: a return reason is required", ErrValidation)
	}

	order, err := s.GetOrderByID(userID, orderID)
	if err != nil {
		return "", err
	}
	if order.Status != models.OrderStatusDelivered {
		return "", fmt.Errorf("%w: only delivered orders can be returned", ErrInvalidState)
	}
	item := order.Item(itemID)
	if item == nil {
		return "", fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}
	if item.ReturnStatus != models.ReturnStatusNone {
		return "", fmt.Errorf("%w for item %s", ErrConflict, itemID)
	}
	// A delivered order without a delivery timestamp predates the field;
	// the window check is skipped rather than stranding the row.
	now := time.Now()
	if order.DeliveredAt != nil && now.Sub(*order.DeliveredAt) > returnWindow {
		return "", ErrExpired
	}

	returnID := newReturnID(now)
	err = s.orderRepo.RequestItemReturn(orderID, itemID, repositories.ReturnRequest{
		ReturnID:    returnID,
		Reason:      reason,
		Comments:    comments,
		RequestedAt: now,
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrReturnAlreadyActive):
			return "", fmt.Errorf("%w for item %s", ErrConflict, itemID)
		case errors.Is(err, repositories.ErrOrderItemNotFound), errors.Is(err, repositories.ErrOrderNotFound):
			return "", fmt.Errorf("%w: item %s", ErrNotFound, itemID)
		default:
			return "", fmt.Errorf("failed to open return for item %s: %w", itemID, err)
		}
	}

	s.recordNotification(models.NotificationTypeReturnRequest,
		fmt.Sprintf("Return %s requested on order #%s", returnID, shortID(orderID)),
		map[string]interface{}{
			"order_id":  orderID,
			"item_id":   itemID,
			"return_id": returnID,
			"reason":    reason,
		})
	s.notifyAdmins("return_request", map[string]interface{}{
		"order_id":  orderID,
		"item_id":   itemID,
		"return_id": returnID,
	})
	s.publishEvent("order.return_requested", map[string]interface{}{
		"order_id":  orderID,
		"item_id":   itemID,
		"return_id": returnID,
	})

	return returnID, nil
}

// UpdateOrderStatus moves an order along the status pipeline. Repeating the
// current status is an idempotent no-op; in particular, re-entering
// delivered never resets DeliveredAt, which anchors the return window.
func (s *OrderService) UpdateOrderStatus(orderID string, status models.OrderStatus) (*models.Order, error) {
	if _, known := statusTransitions[status]; !known {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrValidation, status)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}

	if order.Status == status {
		return order, nil
	}
	if !transitionAllowed(order.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
	}

	var deliveredAt *time.Time
	if status == models.OrderStatusDelivered && order.DeliveredAt == nil {
		now := time.Now()
		deliveredAt = &now
	}

	if err := s.orderRepo.UpdateStatus(orderID, status, deliveredAt); err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to update status for order %s: %w", orderID, err)
	}

	order.Status = status
	if deliveredAt != nil {
		order.DeliveredAt = deliveredAt
	}

	s.notifyUser(order.UserID, "order_status", map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
	})
	s.notifyAdmins("order_status", map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
	})
	s.publishEvent("order.status_updated", map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
	})

	return order, nil
}

// GetAllOrders retrieves all orders, newest first. Admin only.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// PaidRevenue aggregates TotalPrice over paid orders. Admin only.
func (s *OrderService) PaidRevenue() (float64, error) {
	return s.orderRepo.PaidRevenue()
}

func transitionAllowed(from, to models.OrderStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// recordNotification appends to the durable log, logging on failure.
func (s *OrderService) recordNotification(nType models.NotificationType, message string, payload map[string]interface{}) {
	if s.notifications == nil {
		return
	}
	if _, err := s.notifications.Append(nType, message, payload); err != nil {
		log.Printf("Warning: failed to record %s notification: %v", nType, err)
	}
}

func (s *OrderService) notifyAdmins(eventType string, data map[string]interface{}) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.NotifyAdmins(broadcast.NewEvent(eventType, data))
}

func (s *OrderService) notifyUser(userID, eventType string, data map[string]interface{}) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.NotifyUser(userID, broadcast.NewEvent(eventType, data))
}

func (s *OrderService) publishEvent(event string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(event, payload); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", event, err)
	}
}

const returnIDCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newReturnID builds a support-ticket-friendly id: RET + unix millis + a
// 6-character random suffix, e.g. RET1714986300123X4K9Q7.
func newReturnID(now time.Time) string {
	random := make([]byte, 6)
	if _, err := rand.Read(random); err != nil {
		// crypto/rand is effectively infallible; fall back to the clock
		for i := range random {
			random[i] = byte(now.UnixNano() >> (i * 8))
		}
	}
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = returnIDCharset[int(random[i])%len(returnIDCharset)]
	}
	return fmt.Sprintf("RET%d%s", now.UnixMilli(), suffix)
}

func validateAddress(addr models.ShippingAddress) error {
	missing := ""
	switch {
	case addr.FullName == "":
		missing = "full_name"
	case addr.Phone == "":
		missing = "phone"
	case addr.Street == "":
		missing = "street"
	case addr.City == "":
		missing = "city"
	case addr.State == "":
		missing = "state"
	case addr.PostalCode == "":
		missing = "postal_code"
	}
	if missing != "" {
		return fmt.Errorf("%w: shipping address field %s is required", ErrValidation, missing)
	}
	return nil
}
