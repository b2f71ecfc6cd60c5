package services

import (
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// CartService handles the cart the order service consumes.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart returns the user's cart; a user without one gets an empty cart.
func (s *CartService) GetCart(userID string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrCartNotFound) {
			return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
		}
		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}
	return cart, nil
}

// SetItems replaces the cart contents. Every item must reference an existing
// product and carry a positive quantity.
func (s *CartService) SetItems(userID string, items []models.CartItem) (*models.Cart, error) {
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive for product %s", ErrValidation, item.ProductID)
		}
		if _, err := s.productRepo.GetByID(item.ProductID); err != nil {
			return nil, fmt.Errorf("%w: unknown product %s", ErrValidation, item.ProductID)
		}
	}

	// Drop stale rows before writing the replacement set.
	if err := s.cartRepo.Clear(userID); err != nil {
		return nil, fmt.Errorf("failed to reset cart for user %s: %w", userID, err)
	}
	cart := &models.Cart{UserID: userID, Items: items}
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, fmt.Errorf("failed to save cart for user %s: %w", userID, err)
	}
	return cart, nil
}
