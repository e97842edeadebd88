package api

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"pricing-admin/internal/apperr"
	"pricing-admin/internal/store"
)

type DocumentStore interface {
	ListDocumentTypes(ctx context.Context, orgID string) ([]store.DocumentType, error)
	CreateDocumentType(ctx context.Context, orgID, name string) (*store.DocumentType, error)
	UpdateDocumentType(ctx context.Context, orgID, id string, set map[string]any) (*store.DocumentType, error)
	DeleteDocumentType(ctx context.Context, orgID, id string) error
	ListDocumentTemplates(ctx context.Context, orgID string) ([]store.DocumentTemplate, error)
	GetDocumentTemplate(ctx context.Context, orgID, id string) (*store.DocumentTemplate, error)
	CreateDocumentTemplate(ctx context.Context, orgID string, t store.NewDocumentTemplate) (*store.DocumentTemplate, error)
	UpdateDocumentTemplate(ctx context.Context, orgID, id string, set map[string]any) (*store.DocumentTemplate, error)
	DeleteDocumentTemplate(ctx context.Context, orgID, id string) error
}

// DocumentHandler serves document types and document templates.
type DocumentHandler struct {
	store DocumentStore
}

func NewDocumentHandler(s DocumentStore) *DocumentHandler {
	return &DocumentHandler{store: s}
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation([]apperr.ErrorDetail{{Field: "name", Rule: "required", Message: "name is required"}})
	}
	return name, nil
}

func (h *DocumentHandler) ListTypes(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	types, err := h.store.ListDocumentTypes(c.UserContext(), org)
	if err != nil {
		return err
	}
	return data(c, types)
}

func (h *DocumentHandler) CreateType(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := parseBody(c, &body); err != nil {
		return err
	}
	name, err := requireName(body.Name)
	if err != nil {
		return err
	}
	t, err := h.store.CreateDocumentType(c.UserContext(), org, name)
	if err != nil {
		return err
	}
	return created(c, t)
}

var documentTypeColumns = map[string]func() any{
	"name":          str,
	"display_order": integer,
}

func (h *DocumentHandler) UpdateType(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body patchBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	set, err := body.columns(documentTypeColumns)
	if err != nil {
		return err
	}
	if name, ok := set["name"].(string); ok {
		if set["name"], err = requireName(name); err != nil {
			return err
		}
	}
	if len(set) == 0 {
		return apperr.BadRequest("Nothing to update")
	}
	t, err := h.store.UpdateDocumentType(c.UserContext(), org, c.Params("id"), set)
	if err != nil {
		return err
	}
	return data(c, t)
}

func (h *DocumentHandler) DeleteType(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := h.store.DeleteDocumentType(c.UserContext(), org, id); err != nil {
		return err
	}
	return data(c, fiber.Map{"id": id, "deleted": true})
}

func (h *DocumentHandler) ListTemplates(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	templates, err := h.store.ListDocumentTemplates(c.UserContext(), org)
	if err != nil {
		return err
	}
	return data(c, templates)
}

func (h *DocumentHandler) GetTemplate(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	t, err := h.store.GetDocumentTemplate(c.UserContext(), org, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, t)
}

func (h *DocumentHandler) CreateTemplate(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body store.NewDocumentTemplate
	if err := parseBody(c, &body); err != nil {
		return err
	}
	if body.Name, err = requireName(body.Name); err != nil {
		return err
	}
	t, err := h.store.CreateDocumentTemplate(c.UserContext(), org, body)
	if err != nil {
		return err
	}
	return created(c, t)
}

var documentTemplateColumns = map[string]func() any{
	"name":             str,
	"document_type_id": nullStr,
	"html_content":     str,
	"starred":          boolean,
}

func (h *DocumentHandler) UpdateTemplate(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body patchBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	set, err := body.columns(documentTemplateColumns)
	if err != nil {
		return err
	}
	if name, ok := set["name"].(string); ok {
		if set["name"], err = requireName(name); err != nil {
			return err
		}
	}
	if len(set) == 0 {
		return apperr.BadRequest("Nothing to update")
	}
	t, err := h.store.UpdateDocumentTemplate(c.UserContext(), org, c.Params("id"), set)
	if err != nil {
		return err
	}
	return data(c, t)
}

func (h *DocumentHandler) DeleteTemplate(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := h.store.DeleteDocumentTemplate(c.UserContext(), org, id); err != nil {
		return err
	}
	return data(c, fiber.Map{"id": id, "deleted": true})
}
