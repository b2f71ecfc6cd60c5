package repositories

import (
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMNotificationRepository is a GORM implementation of NotificationRepository.
type GORMNotificationRepository struct {
	db *gorm.DB
}

// NewGORMNotificationRepository creates a new instance of GORMNotificationRepository.
func NewGORMNotificationRepository(db *gorm.DB) *GORMNotificationRepository {
	return &GORMNotificationRepository{
		db: db,
	}
}

// Create inserts a new unread notification record.
func (r *GORMNotificationRepository) Create(notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if err := r.db.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// GetRecent retrieves stored notifications, newest first.
func (r *GORMNotificationRepository) GetRecent(limit, offset int) ([]models.Notification, error) {
	var notifications []models.Notification
	q := r.db.Order("created_at DESC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks a single notification as read. Marking an already-read
// record is a no-op success.
func (r *GORMNotificationRepository) MarkRead(id string) error {
	var count int64
	if err := r.db.Model(&models.Notification{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check notification %s: %w", id, err)
	}
	if count == 0 {
		return ErrNotificationNotFound
	}
	if err := r.db.Model(&models.Notification{}).Where("id = ?", id).Update("read", true).Error; err != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllRead marks every unread notification as read.
func (r *GORMNotificationRepository) MarkAllRead() error {
	if err := r.db.Model(&models.Notification{}).Where("read = ?", false).Update("read", true).Error; err != nil {
		return fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return nil
}

// UnreadCount counts notifications with read == false.
func (r *GORMNotificationRepository) UnreadCount() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Notification{}).Where("read = ?", false).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// Delete removes a single notification.
func (r *GORMNotificationRepository) Delete(id string) error {
	res := r.db.Delete(&models.Notification{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete notification %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// Clear purges the notification log.
func (r *GORMNotificationRepository) Clear() error {
	if err := r.db.Where("1 = 1").Delete(&models.Notification{}).Error; err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	return nil
}
