package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/stopvol/internal/services"
)

// serviceError translates service-layer sentinel errors into HTTP errors.
// Anything unrecognized bubbles up to the fiber error handler as a 500.
func serviceError(err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrPermissionDenied):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrRateLimited):
		return fiber.NewError(fiber.StatusTooManyRequests, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidState):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
