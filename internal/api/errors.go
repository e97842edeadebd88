package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"pricing-admin/internal/apperr"
	"pricing-admin/internal/store"
)

// ErrorHandler renders every error as {"error", "code", "details"}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(appErr)
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(apperr.New("NOT_FOUND", fiber.StatusNotFound, "Not found"))
	case errors.Is(err, store.ErrStale):
		return c.Status(fiber.StatusConflict).JSON(apperr.Conflict(store.ErrStale.Error()))
	case errors.Is(err, store.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(apperr.Conflict(err.Error()))
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(apperr.New("HTTP_ERROR", fiberErr.Code, fiberErr.Message))
	}

	slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(apperr.New("INTERNAL_ERROR", fiber.StatusInternalServerError, "Internal server error"))
}
