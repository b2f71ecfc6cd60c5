package repositories

import (
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetAll retrieves all orders with their line items, newest first.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves a single order by its ID.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByUser retrieves all orders owned by a user, newest first.
func (r *GORMOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// GetRecentByStatus retrieves orders in the given status created at or after
// the cutoff, newest first. Used by the synthetic-notification read path.
func (r *GORMOrderRepository) GetRecentByStatus(status models.OrderStatus, since time.Time) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Where("status = ? AND created_at >= ?", status, since).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent %s orders: %w", status, err)
	}
	return orders, nil
}

// Create persists a new order together with its embedded line items.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// UpdateStatus sets the order status and optionally the delivered timestamp.
func (r *GORMOrderRepository) UpdateStatus(id string, status models.OrderStatus, deliveredAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if deliveredAt != nil {
		updates["delivered_at"] = *deliveredAt
	}
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update status for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// RequestItemReturn opens a return on a line item. The WHERE clause on
// return_status makes the none -> pending transition a compare-and-swap, so
// two racing requests cannot both succeed.
func (r *GORMOrderRepository) RequestItemReturn(orderID, itemID string, req ReturnRequest) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.OrderItem{}).
			Where("id = ? AND order_id = ? AND return_status = ?", itemID, orderID, models.ReturnStatusNone).
			Updates(map[string]interface{}{
				"return_status":       models.ReturnStatusPending,
				"return_id":           req.ReturnID,
				"return_reason":       req.Reason,
				"return_comments":     req.Comments,
				"return_requested_at": req.RequestedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to open return for item %s: %w", itemID, res.Error)
		}
		if res.RowsAffected == 0 {
			// Distinguish a missing item from one that already has a return.
			var count int64
			if err := tx.Model(&models.OrderItem{}).Where("id = ? AND order_id = ?", itemID, orderID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check item %s: %w", itemID, err)
			}
			if count == 0 {
				return ErrOrderItemNotFound
			}
			return ErrReturnAlreadyActive
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Updates(map[string]interface{}{
			"has_returns": true,
			"updated_at":  time.Now(),
		}).Error; err != nil {
			return fmt.Errorf("failed to flag returns on order %s: %w", orderID, err)
		}
		return nil
	})
}

// PaidRevenue sums TotalPrice over orders where payment is confirmed.
func (r *GORMOrderRepository) PaidRevenue() (float64, error) {
	var revenue float64
	err := r.db.Model(&models.Order{}).
		Where("is_paid = ?", true).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&revenue).Error
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate paid revenue: %w", err)
	}
	return revenue, nil
}
