package auth

import (
	"sort"

	"github.com/gofiber/fiber/v2"

	"pricing-admin/internal/apperr"
)

// Handler serves the session endpoints.
type Handler struct {
	access Access
}

func NewHandler(access Access) *Handler {
	return &Handler{access: access}
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(c *fiber.Ctx) error {
	user := GetUser(c)
	if user == nil {
		return apperr.Unauthorized("Missing auth token")
	}
	tabs := h.access.Tabs(user)
	sort.Strings(tabs)
	return c.JSON(fiber.Map{"data": fiber.Map{
		"user":          user,
		"settings_tabs": tabs,
	}})
}

func RegisterRoutes(app *fiber.App, h *Handler, authMW fiber.Handler) {
	app.Get("/api/auth/me", authMW, h.Me)
}
