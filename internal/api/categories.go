package api

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"pricing-admin/internal/apperr"
	"pricing-admin/internal/store"
)

type CategoryStore interface {
	ListCategories(ctx context.Context, orgID string) ([]store.Category, error)
	CreateCategory(ctx context.Context, orgID, name string, defaultOpen bool) (*store.Category, error)
	UpdateCategory(ctx context.Context, orgID, id string, set map[string]any, expected *time.Time) (*store.Category, error)
	ReorderCategories(ctx context.Context, orgID string, orders []store.Order) error
	DeleteCategory(ctx context.Context, orgID, id string) error
}

// CategoryHandler serves /api/pricing-engine-input-categories.
type CategoryHandler struct {
	store CategoryStore
}

func NewCategoryHandler(s CategoryStore) *CategoryHandler {
	return &CategoryHandler{store: s}
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	cats, err := h.store.ListCategories(c.UserContext(), org)
	if err != nil {
		return err
	}
	return data(c, cats)
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body struct {
		Category    string `json:"category"`
		DefaultOpen *bool  `json:"default_open"`
	}
	if err := parseBody(c, &body); err != nil {
		return err
	}
	name := strings.TrimSpace(body.Category)
	if name == "" {
		return apperr.Validation([]apperr.ErrorDetail{{Field: "category", Rule: "required", Message: "category is required"}})
	}
	open := true
	if body.DefaultOpen != nil {
		open = *body.DefaultOpen
	}
	cat, err := h.store.CreateCategory(c.UserContext(), org, name, open)
	if err != nil {
		return err
	}
	return created(c, cat)
}

var categoryColumns = map[string]func() any{
	"category":      str,
	"default_open":  boolean,
	"display_order": integer,
}

// Update handles PATCH with either {reorder:[{id,display_order}]} or a
// field patch {id, category?, default_open?, expected_updated_at?}.
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body patchBody
	if err := parseBody(c, &body); err != nil {
		return err
	}

	if body.has("reorder") {
		var orders []store.Order
		if err := body.decode("reorder", &orders); err != nil {
			return err
		}
		if err := h.store.ReorderCategories(c.UserContext(), org, orders); err != nil {
			return err
		}
		cats, err := h.store.ListCategories(c.UserContext(), org)
		if err != nil {
			return err
		}
		return data(c, cats)
	}

	id := c.Params("id")
	if id == "" {
		if id, err = body.string("id"); err != nil {
			return err
		}
	}
	set, err := body.columns(categoryColumns)
	if err != nil {
		return err
	}
	if name, ok := set["category"].(string); ok {
		if strings.TrimSpace(name) == "" {
			return apperr.Validation([]apperr.ErrorDetail{{Field: "category", Rule: "required", Message: "category is required"}})
		}
		set["category"] = strings.TrimSpace(name)
	}
	if len(set) == 0 {
		return apperr.BadRequest("Nothing to update")
	}
	expected, err := body.expected()
	if err != nil {
		return err
	}
	cat, err := h.store.UpdateCategory(c.UserContext(), org, id, set, expected)
	if err != nil {
		return err
	}
	return data(c, cat)
}

func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.store.DeleteCategory(c.UserContext(), org, id); err != nil {
		return err
	}
	return data(c, fiber.Map{"id": id, "deleted": true})
}
