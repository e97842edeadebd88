package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"pricing-admin/internal/apperr"
	"pricing-admin/internal/auth"
	"pricing-admin/internal/automation"
	"pricing-admin/internal/store"
)

type ButtonStore interface {
	ListSectionButtons(ctx context.Context, orgID, categoryID string) ([]store.SectionButton, error)
	GetSectionButton(ctx context.Context, orgID, id string) (*store.SectionButton, error)
	CreateSectionButton(ctx context.Context, orgID string, b store.NewSectionButton) (*store.SectionButton, error)
	UpdateSectionButton(ctx context.Context, orgID, id string, set map[string]any) (*store.SectionButton, error)
	DeleteSectionButton(ctx context.Context, orgID, id string) error
	AutomationsByUUID(ctx context.Context, orgID string, uuids []string) (map[string]store.Automation, error)
}

// Runner fires the actions of a section button.
type Runner interface {
	Run(ctx context.Context, b store.SectionButton, automations map[string]store.Automation, values map[string]any, user *auth.UserContext) []automation.ActionResult
}

// ButtonHandler serves /api/pe-section-buttons.
type ButtonHandler struct {
	store  ButtonStore
	runner Runner
}

func NewButtonHandler(s ButtonStore, r Runner) *ButtonHandler {
	return &ButtonHandler{store: s, runner: r}
}

func (h *ButtonHandler) List(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	buttons, err := h.store.ListSectionButtons(c.UserContext(), org, c.Query("category_id"))
	if err != nil {
		return err
	}
	return data(c, buttons)
}

func (h *ButtonHandler) Create(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body store.NewSectionButton
	if err := parseBody(c, &body); err != nil {
		return err
	}
	body.Label = strings.TrimSpace(body.Label)

	var details []apperr.ErrorDetail
	if body.CategoryID == "" {
		details = append(details, apperr.ErrorDetail{Field: "category_id", Rule: "required", Message: "category_id is required"})
	}
	if body.Label == "" {
		details = append(details, apperr.ErrorDetail{Field: "label", Rule: "required", Message: "label is required"})
	}
	if len(details) > 0 {
		return apperr.Validation(details)
	}
	if err := h.checkActions(c.UserContext(), org, body.Actions); err != nil {
		return err
	}

	b, err := h.store.CreateSectionButton(c.UserContext(), org, body)
	if err != nil {
		return err
	}
	return created(c, b)
}

var buttonColumns = map[string]func() any{
	"label":           str,
	"icon":            nullStr,
	"actions":         actions,
	"signal_color":    nullStr,
	"required_inputs": strSlice,
	"display_order":   integer,
	"category_id":     str,
}

// Update patches one button, or many when the body is {buttons: [...]}.
// The bulk form reports a result per row and never fails as a whole.
func (h *ButtonHandler) Update(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body patchBody
	if err := parseBody(c, &body); err != nil {
		return err
	}

	if body.has("buttons") {
		var rows []patchBody
		if err := body.decode("buttons", &rows); err != nil {
			return err
		}
		results := make([]bulkResult, 0, len(rows))
		for _, row := range rows {
			id, _ := row.optionalString("id")
			r := bulkResult{ID: id, OK: true}
			if _, err := h.patch(c.UserContext(), org, id, row); err != nil {
				r.OK = false
				r.Error = errorMessage(err)
			}
			results = append(results, r)
		}
		return data(c, results)
	}

	id := c.Params("id")
	if id == "" {
		if id, err = body.string("id"); err != nil {
			return err
		}
	}
	b, err := h.patch(c.UserContext(), org, id, body)
	if err != nil {
		return err
	}
	return data(c, b)
}

type bulkResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (h *ButtonHandler) patch(ctx context.Context, org, id string, body patchBody) (*store.SectionButton, error) {
	if id == "" {
		return nil, apperr.Validation([]apperr.ErrorDetail{{Field: "id", Rule: "required", Message: "id is required"}})
	}
	set, err := body.columns(buttonColumns)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, apperr.BadRequest("Nothing to update")
	}
	if label, ok := set["label"].(string); ok {
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, apperr.Validation([]apperr.ErrorDetail{{Field: "label", Rule: "required", Message: "label is required"}})
		}
		set["label"] = label
	}
	if acts, ok := set["actions"].([]store.ButtonAction); ok {
		if acts == nil {
			set["actions"] = []store.ButtonAction{}
		}
		if err := h.checkActions(ctx, org, acts); err != nil {
			return nil, err
		}
	}
	if req, ok := set["required_inputs"].([]string); ok && req == nil {
		set["required_inputs"] = []string{}
	}
	return h.store.UpdateSectionButton(ctx, org, id, set)
}

// checkActions rejects actions pointing at automations that are missing or
// cannot back a button.
func (h *ButtonHandler) checkActions(ctx context.Context, org string, acts []store.ButtonAction) error {
	if len(acts) == 0 {
		return nil
	}
	uuids := make([]string, 0, len(acts))
	for _, a := range acts {
		uuids = append(uuids, a.AutomationUUID)
	}
	found, err := h.store.AutomationsByUUID(ctx, org, uuids)
	if err != nil {
		return err
	}
	var details []apperr.ErrorDetail
	for i, a := range acts {
		field := fmt.Sprintf("actions[%d]", i)
		auto, ok := found[a.AutomationUUID]
		switch {
		case a.AutomationUUID == "":
			details = append(details, apperr.ErrorDetail{Field: field, Rule: "required", Message: "automation_uuid is required"})
		case !ok:
			details = append(details, apperr.ErrorDetail{Field: field, Rule: "exists", Message: fmt.Sprintf("automation %s not found", a.AutomationUUID)})
		case !auto.ButtonEligible():
			details = append(details, apperr.ErrorDetail{Field: field, Rule: "eligible", Message: fmt.Sprintf("automation %q is not an active manual pricing-engine automation", auto.Name)})
		}
	}
	if len(details) > 0 {
		return apperr.Validation(details)
	}
	return nil
}

func (h *ButtonHandler) Delete(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.store.DeleteSectionButton(c.UserContext(), org, id); err != nil {
		return err
	}
	return data(c, fiber.Map{"id": id, "deleted": true})
}

// Execute handles POST /:id/execute {values}. Every required input must
// have a value before any automation fires.
func (h *ButtonHandler) Execute(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body struct {
		Values map[string]any `json:"values"`
	}
	if err := parseBody(c, &body); err != nil {
		return err
	}
	ctx := c.UserContext()

	b, err := h.store.GetSectionButton(ctx, org, c.Params("id"))
	if err != nil {
		return err
	}

	var missing []apperr.ErrorDetail
	for _, id := range b.RequiredInputs {
		if blank(body.Values[id]) {
			missing = append(missing, apperr.ErrorDetail{Field: id, Rule: "required", Message: "required input has no value"})
		}
	}
	if len(missing) > 0 {
		err := apperr.Validation(missing)
		err.Message = fmt.Sprintf("%d required input(s) missing", len(missing))
		return err
	}

	uuids := make([]string, 0, len(b.Actions))
	for _, a := range b.Actions {
		uuids = append(uuids, a.AutomationUUID)
	}
	autos, err := h.store.AutomationsByUUID(ctx, org, uuids)
	if err != nil {
		return err
	}

	results := h.runner.Run(ctx, *b, autos, body.Values, auth.GetUser(c))
	ok := true
	for _, r := range results {
		ok = ok && r.OK
	}
	return data(c, fiber.Map{"button_id": b.ID, "ok": ok, "results": results})
}

func blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	}
	return false
}

func errorMessage(err error) string {
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
