package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"pricing-admin/internal/apperr"
	"pricing-admin/internal/cache"
	"pricing-admin/internal/store"
)

type SchemaStore interface {
	ListTables(ctx context.Context) ([]string, error)
	ListColumns(ctx context.Context, table string) ([]store.Column, error)
}

// SchemaHandler lists the tables and columns an input can be linked to.
type SchemaHandler struct {
	store SchemaStore
	cache cache.Cache
	ttl   time.Duration
}

func NewSchemaHandler(s SchemaStore, c cache.Cache, ttl time.Duration) *SchemaHandler {
	return &SchemaHandler{store: s, cache: c, ttl: ttl}
}

// Get handles GET /api/supabase-schema?type=tables|columns&table=.
func (h *SchemaHandler) Get(c *fiber.Ctx) error {
	ctx := c.UserContext()
	switch c.Query("type") {
	case "tables":
		tables, err := cached(ctx, h.cache, "schema:tables", h.ttl, func() ([]string, error) {
			return h.store.ListTables(ctx)
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"tables": tables})

	case "columns":
		table := c.Query("table")
		if table == "" {
			return apperr.BadRequest("table is required")
		}
		cols, err := cached(ctx, h.cache, "schema:columns:"+table, h.ttl, func() ([]store.Column, error) {
			return h.store.ListColumns(ctx, table)
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"columns": cols})
	}
	return apperr.BadRequest("type must be tables or columns")
}

// cached reads key from c or fills it with load. Cache failures are logged
// and fall through to load.
func cached[T any](ctx context.Context, c cache.Cache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var v T
	hit, err := c.Get(ctx, key, &v)
	if err != nil {
		slog.Warn("cache read failed", "key", key, "error", err)
	}
	if hit {
		return v, nil
	}
	v, err = load()
	if err != nil {
		return v, err
	}
	if err := c.Set(ctx, key, v, ttl); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
	return v, nil
}
