package repositories

import (
	"sort"
	"sync"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// MockNotificationRepository is an in-memory implementation of
// NotificationRepository.
type MockNotificationRepository struct {
	notifications map[string]models.Notification
	mu            sync.RWMutex
}

// NewMockNotificationRepository creates a new instance of MockNotificationRepository.
func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{
		notifications: make(map[string]models.Notification),
	}
}

// Create adds a new notification record.
func (r *MockNotificationRepository) Create(notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	r.notifications[notification.ID] = *notification
	return nil
}

// GetRecent returns stored notifications, newest first.
func (r *MockNotificationRepository) GetRecent(limit, offset int) ([]models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Notification, 0, len(r.notifications))
	for _, n := range r.notifications {
		list = append(list, n)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if offset >= len(list) {
		return []models.Notification{}, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}

// MarkRead marks a single notification as read.
func (r *MockNotificationRepository) MarkRead(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok {
		return ErrNotificationNotFound
	}
	n.Read = true
	r.notifications[id] = n
	return nil
}

// MarkAllRead marks every notification as read.
func (r *MockNotificationRepository) MarkAllRead() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, n := range r.notifications {
		n.Read = true
		r.notifications[id] = n
	}
	return nil
}

// UnreadCount counts unread notifications.
func (r *MockNotificationRepository) UnreadCount() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, n := range r.notifications {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

// Delete removes a single notification.
func (r *MockNotificationRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notifications[id]; !ok {
		return ErrNotificationNotFound
	}
	delete(r.notifications, id)
	return nil
}

// Clear purges the log.
func (r *MockNotificationRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = make(map[string]models.Notification)
	return nil
}
