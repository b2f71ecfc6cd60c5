package repositories

import (
	"sort"
	"sync"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// The mutex makes RequestItemReturn a compare-and-swap, matching the
// conditional-update semantics of the GORM implementation.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// GetAll returns all orders, newest first.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, *cloneOrder(order))
	}
	sortNewestFirst(orderList)
	return orderList, nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// GetByUser returns all orders owned by the user, newest first.
func (r *MockOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orderList []models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			orderList = append(orderList, *cloneOrder(order))
		}
	}
	sortNewestFirst(orderList)
	return orderList, nil
}

// GetRecentByStatus returns orders in the given status created since the cutoff.
func (r *MockOrderRepository) GetRecentByStatus(status models.OrderStatus, since time.Time) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orderList []models.Order
	for _, order := range r.orders {
		if order.Status == status && !order.CreatedAt.Before(since) {
			orderList = append(orderList, *cloneOrder(order))
		}
	}
	sortNewestFirst(orderList)
	return orderList, nil
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *cloneOrder(*order)
	return nil
}

// UpdateStatus updates the status of an order.
func (r *MockOrderRepository) UpdateStatus(id string, status models.OrderStatus, deliveredAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	order.Status = status
	if deliveredAt != nil {
		t := *deliveredAt
		order.DeliveredAt = &t
	}
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// RequestItemReturn performs the none -> pending transition under the write
// lock; check and write are a single critical section.
func (r *MockOrderRepository) RequestItemReturn(orderID, itemID string, req ReturnRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	item := order.Item(itemID)
	if item == nil {
		return ErrOrderItemNotFound
	}
	if item.ReturnStatus != models.ReturnStatusNone {
		return ErrReturnAlreadyActive
	}
	requestedAt := req.RequestedAt
	item.ReturnStatus = models.ReturnStatusPending
	item.ReturnID = req.ReturnID
	item.ReturnReason = req.Reason
	item.ReturnComments = req.Comments
	item.ReturnRequestedAt = &requestedAt
	order.HasReturns = true
	order.UpdatedAt = time.Now()
	r.orders[orderID] = order
	return nil
}

// PaidRevenue sums TotalPrice over paid orders.
func (r *MockOrderRepository) PaidRevenue() (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var revenue float64
	for _, order := range r.orders {
		if order.IsPaid {
			revenue += order.TotalPrice
		}
	}
	return revenue, nil
}

func sortNewestFirst(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

// cloneOrder deep-copies the items slice so callers cannot mutate stored state.
func cloneOrder(order models.Order) *models.Order {
	items := make([]models.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return &order
}
