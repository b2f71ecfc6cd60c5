package handlers

import (
	"errors"

	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// respondError maps business-rule failures to 4xx responses with their
// message and everything else to a generic 500 that leaks no internals.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	var status int
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrExpired):
		status = fiber.StatusGone
	case errors.Is(err, services.ErrInvalidState), errors.Is(err, services.ErrInvalidTransition):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrEmptyCart), errors.Is(err, services.ErrValidation):
		status = fiber.StatusBadRequest
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": fallback,
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"message": err.Error(),
	})
}
