package repositories

import (
	"storefront/internal/models"
)

// ProductRepository defines the interface for catalog data access. The
// storefront consumes the catalog read-only; Create exists for seeding.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
}
