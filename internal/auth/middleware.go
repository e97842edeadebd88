package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"pricing-admin/internal/apperr"
)

// AuthMiddleware returns a Fiber middleware that validates session tokens
// and sets the UserContext on the request. Every route it guards is
// organization-scoped, so a session without an active organization is
// rejected.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return apperr.Unauthorized("Missing auth token")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperr.Unauthorized("Invalid auth header format")
		}

		claims, err := ParseSessionToken(parts[1], secret)
		if err != nil {
			return apperr.Unauthorized("Invalid or expired token")
		}
		if claims.OrgID == "" {
			return apperr.Forbidden("No active organization")
		}

		c.Locals("user", &UserContext{
			ID:      claims.Subject,
			Email:   claims.Email,
			OrgID:   claims.OrgID,
			OrgRole: claims.OrgRole,
		})

		return c.Next()
	}
}

// RequireTab only lets through users allowed to open a settings tab.
func RequireTab(access Access, tab string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return apperr.Unauthorized("Missing auth token")
		}
		if !access.Allowed(user, tab) {
			return apperr.Forbidden("You do not have access to " + tab + " settings")
		}
		return c.Next()
	}
}

// GetUser extracts the UserContext from a Fiber context.
func GetUser(c *fiber.Ctx) *UserContext {
	user, _ := c.Locals("user").(*UserContext)
	return user
}
