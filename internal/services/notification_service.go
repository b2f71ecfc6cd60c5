package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// adminFeedCap bounds the merged stored + synthetic admin feed.
const adminFeedCap = 25

// syntheticWindow is how far back the feed synthesizes entries from recent
// pending orders and registrations.
const syntheticWindow = 24 * time.Hour

// NotificationService handles the persisted notification log and the
// admin-facing read path that layers ephemeral entries on top of it.
type NotificationService struct {
	repo      repositories.NotificationRepository
	orderRepo repositories.OrderRepository
	userRepo  repositories.UserRepository
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo repositories.NotificationRepository, orderRepo repositories.OrderRepository, userRepo repositories.UserRepository) *NotificationService {
	return &NotificationService{
		repo:      repo,
		orderRepo: orderRepo,
		userRepo:  userRepo,
	}
}

// Append inserts a new unread record. Persistence errors propagate so the
// caller can log and continue; a notification must never block the business
// operation that triggered it.
func (s *NotificationService) Append(nType models.NotificationType, message string, payload map[string]interface{}) (*models.Notification, error) {
	var payloadJSON string
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal notification payload: %w", err)
		}
		payloadJSON = string(b)
	}

	notification := &models.Notification{
		Type:      nType,
		Message:   message,
		Payload:   payloadJSON,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(notification); err != nil {
		return nil, fmt.Errorf("failed to append notification: %w", err)
	}
	return notification, nil
}

// ListRecent returns stored notifications, newest first.
func (s *NotificationService) ListRecent(limit, offset int) ([]models.Notification, error) {
	return s.repo.GetRecent(limit, offset)
}

// AdminFeed merges stored notifications with ephemeral entries synthesized
// from pending orders and user registrations of the last 24 hours. Synthetic
// entries carry composite ids (order-<id>-<millis>, user-<id>-<millis>) so
// they can never collide with stored-record ids; they are not persisted.
// The combined feed is newest-first and capped at 25 items.
func (s *NotificationService) AdminFeed() ([]models.Notification, error) {
	stored, err := s.repo.GetRecent(adminFeedCap, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored notifications: %w", err)
	}

	feed := make([]models.Notification, 0, adminFeedCap)
	feed = append(feed, stored...)

	since := time.Now().Add(-syntheticWindow)

	// Synthetic entries are best-effort; a failing source only logs.
	orders, err := s.orderRepo.GetRecentByStatus(models.OrderStatusPending, since)
	if err != nil {
		log.Printf("notification feed: skipping recent orders: %v", err)
	}
	for _, order := range orders {
		feed = append(feed, models.Notification{
			ID:        fmt.Sprintf("order-%s-%d", order.ID, order.CreatedAt.UnixMilli()),
			Type:      models.NotificationTypeNewOrder,
			Message:   fmt.Sprintf("Order #%s is awaiting processing (₹%.2f)", shortID(order.ID), order.TotalPrice),
			Ephemeral: true,
			CreatedAt: order.CreatedAt,
		})
	}

	users, err := s.userRepo.GetRecent(since)
	if err != nil {
		log.Printf("notification feed: skipping recent users: %v", err)
	}
	for _, user := range users {
		feed = append(feed, models.Notification{
			ID:        fmt.Sprintf("user-%s-%d", user.ID, user.CreatedAt.UnixMilli()),
			Type:      models.NotificationTypeUser,
			Message:   fmt.Sprintf("New user registered: %s", user.Username),
			Ephemeral: true,
			CreatedAt: user.CreatedAt,
		})
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})
	if len(feed) > adminFeedCap {
		feed = feed[:adminFeedCap]
	}
	return feed, nil
}

// MarkRead marks one notification as read. Synthetic ids are accepted but
// have no persisted effect.
func (s *NotificationService) MarkRead(id string) error {
	if isSyntheticID(id) {
		return nil
	}
	if err := s.repo.MarkRead(id); err != nil {
		if err == repositories.ErrNotificationNotFound {
			return fmt.Errorf("%w: notification %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks every stored notification as read. Idempotent.
func (s *NotificationService) MarkAllRead() error {
	return s.repo.MarkAllRead()
}

// UnreadCount counts stored unread notifications.
func (s *NotificationService) UnreadCount() (int64, error) {
	return s.repo.UnreadCount()
}

// Delete removes one stored notification.
func (s *NotificationService) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		if err == repositories.ErrNotificationNotFound {
			return fmt.Errorf("%w: notification %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

// Clear purges the stored notification log.
func (s *NotificationService) Clear() error {
	return s.repo.Clear()
}

func isSyntheticID(id string) bool {
	return strings.HasPrefix(id, "order-") || strings.HasPrefix(id, "user-")
}

// shortID truncates an id for display in messages.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
