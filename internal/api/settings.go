package api

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"pricing-admin/internal/apperr"
	"pricing-admin/internal/auth"
	"pricing-admin/internal/cache"
	"pricing-admin/internal/store"
)

type OrgSettingsStore interface {
	GetOrgSettings(ctx context.Context, orgID string) (*store.OrgSettings, error)
	SaveOrgSettings(ctx context.Context, orgID string, p store.OrgSettingsPatch) (*store.OrgSettings, error)
}

// SettingsHandler serves the settings-access check and the General and
// Themes panels.
type SettingsHandler struct {
	store  OrgSettingsStore
	access auth.Access
	cache  cache.Cache
	ttl    time.Duration
}

func NewSettingsHandler(s OrgSettingsStore, access auth.Access, c cache.Cache, ttl time.Duration) *SettingsHandler {
	return &SettingsHandler{store: s, access: access, cache: c, ttl: ttl}
}

// CanAccess handles GET /api/org/settings-access?tab=.
func (h *SettingsHandler) CanAccess(c *fiber.Ctx) error {
	user := auth.GetUser(c)
	if user == nil {
		return apperr.Unauthorized("Missing auth token")
	}
	tab := strings.TrimSpace(c.Query("tab"))
	if tab == "" {
		return apperr.BadRequest("tab is required")
	}

	ctx := c.UserContext()
	key := "settings-access:" + user.OrgID + ":" + user.OrgRole + ":" + tab
	var allowed bool
	hit, err := h.cache.Get(ctx, key, &allowed)
	if err != nil {
		slog.Warn("settings access cache read failed", "key", key, "error", err)
	}
	if !hit {
		allowed = h.access.Allowed(user, tab)
		if err := h.cache.Set(ctx, key, allowed, h.ttl); err != nil {
			slog.Warn("settings access cache write failed", "key", key, "error", err)
		}
	}
	return c.JSON(fiber.Map{"canAccess": allowed})
}

func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	s, err := h.store.GetOrgSettings(c.UserContext(), org)
	if err != nil {
		return err
	}
	return data(c, s)
}

func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body store.OrgSettingsPatch
	if err := parseBody(c, &body); err != nil {
		return err
	}
	if len(body.Theme) > 0 && body.Theme[0] != '{' {
		if string(body.Theme) == "null" {
			body.Theme = nil
		} else {
			return apperr.Validation([]apperr.ErrorDetail{{Field: "theme", Rule: "type", Message: "theme must be an object"}})
		}
	}
	s, err := h.store.SaveOrgSettings(c.UserContext(), org, body)
	if err != nil {
		return err
	}
	return data(c, s)
}
