package repositories

import (
	"time"

	"storefront/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	// GetRecent returns users registered at or after the cutoff, newest
	// first. Used by the synthetic-notification read path.
	GetRecent(since time.Time) ([]models.User, error)
}
