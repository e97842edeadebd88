package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"pricing-admin/internal/apperr"
	"pricing-admin/internal/store"
)

type AutomationStore interface {
	ListAutomations(ctx context.Context, orgID string, f store.AutomationFilter) ([]store.Automation, error)
	GetAutomation(ctx context.Context, orgID, uuid string) (*store.Automation, error)
	CreateAutomation(ctx context.Context, orgID string, a store.NewAutomation) (*store.Automation, error)
	DeleteAutomation(ctx context.Context, orgID, uuid string) error
}

// AutomationHandler serves /api/automations. Automations are addressed by
// their public uuid.
type AutomationHandler struct {
	store AutomationStore
}

func NewAutomationHandler(s AutomationStore) *AutomationHandler {
	return &AutomationHandler{store: s}
}

// List accepts ?trigger_type= and ?webhook_type= filters. The button
// editor asks for trigger_type=manual&webhook_type=pricing_engine.
func (h *AutomationHandler) List(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	autos, err := h.store.ListAutomations(c.UserContext(), org, store.AutomationFilter{
		TriggerType: c.Query("trigger_type"),
		WebhookType: c.Query("webhook_type"),
	})
	if err != nil {
		return err
	}
	if c.QueryBool("active") {
		active := autos[:0]
		for _, a := range autos {
			if a.Active {
				active = append(active, a)
			}
		}
		autos = active
	}
	return data(c, autos)
}

func (h *AutomationHandler) Get(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	a, err := h.store.GetAutomation(c.UserContext(), org, c.Params("uuid"))
	if err != nil {
		return err
	}
	return data(c, a)
}

func (h *AutomationHandler) Create(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body store.NewAutomation
	if err := parseBody(c, &body); err != nil {
		return err
	}
	var details []apperr.ErrorDetail
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		details = append(details, apperr.ErrorDetail{Field: "name", Rule: "required", Message: "name is required"})
	}
	if body.WebhookURL != nil && *body.WebhookURL != "" {
		u, err := url.Parse(*body.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			details = append(details, apperr.ErrorDetail{Field: "webhook_url", Rule: "url", Message: "webhook_url must be an http(s) URL"})
		}
	}
	if len(details) > 0 {
		return apperr.Validation(details)
	}
	a, err := h.store.CreateAutomation(c.UserContext(), org, body)
	if err != nil {
		return err
	}
	return created(c, a)
}

func (h *AutomationHandler) Delete(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	uuid := c.Params("uuid")
	if err := h.store.DeleteAutomation(c.UserContext(), org, uuid); err != nil {
		return err
	}
	return data(c, fiber.Map{"uuid": uuid, "deleted": true})
}
