package api

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"pricing-admin/internal/apperr"
	"pricing-admin/internal/condition"
	"pricing-admin/internal/store"
)

type TermSheetStore interface {
	ListTermSheets(ctx context.Context, orgID string) ([]store.TermSheet, error)
	GetTermSheet(ctx context.Context, orgID, id string) (*store.TermSheet, error)
	CreateTermSheet(ctx context.Context, orgID, templateID string) (*store.TermSheet, error)
	SetTermSheetStatus(ctx context.Context, orgID, id, status string) (*store.TermSheet, error)
	DeleteTermSheet(ctx context.Context, orgID, id string) error
	TermSheetRules(ctx context.Context, orgID, termSheetID string) ([]condition.Group, error)
	AllTermSheetRules(ctx context.Context, orgID string) (map[string][]condition.Group, error)
	ReplaceTermSheetRules(ctx context.Context, orgID, termSheetID string, groups []condition.Group) error
	ListInputs(ctx context.Context, orgID string) ([]store.Input, error)
}

// TermSheetHandler serves term sheets, their display rules and rule
// evaluation.
type TermSheetHandler struct {
	store TermSheetStore
	eval  *condition.Evaluator
}

func NewTermSheetHandler(s TermSheetStore, eval *condition.Evaluator) *TermSheetHandler {
	return &TermSheetHandler{store: s, eval: eval}
}

func (h *TermSheetHandler) List(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	sheets, err := h.store.ListTermSheets(c.UserContext(), org)
	if err != nil {
		return err
	}
	return data(c, sheets)
}

func (h *TermSheetHandler) Create(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body struct {
		DocumentTemplateID string `json:"document_template_id"`
	}
	if err := parseBody(c, &body); err != nil {
		return err
	}
	if body.DocumentTemplateID == "" {
		return apperr.Validation([]apperr.ErrorDetail{{Field: "document_template_id", Rule: "required", Message: "document_template_id is required"}})
	}
	sheet, err := h.store.CreateTermSheet(c.UserContext(), org, body.DocumentTemplateID)
	if err != nil {
		return err
	}
	return created(c, sheet)
}

// Update toggles a term sheet between active and inactive.
func (h *TermSheetHandler) Update(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := parseBody(c, &body); err != nil {
		return err
	}
	if body.Status != store.TermSheetActive && body.Status != store.TermSheetInactive {
		return apperr.Validation([]apperr.ErrorDetail{{Field: "status", Rule: "enum", Message: "status must be active or inactive"}})
	}
	sheet, err := h.store.SetTermSheetStatus(c.UserContext(), org, id, body.Status)
	if err != nil {
		return err
	}
	return data(c, sheet)
}

func (h *TermSheetHandler) Delete(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.store.DeleteTermSheet(c.UserContext(), org, id); err != nil {
		return err
	}
	return data(c, fiber.Map{"id": id, "deleted": true})
}

// Conditions handles GET /api/pe-term-sheet-conditions?pe_term_sheet_id=.
func (h *TermSheetHandler) Conditions(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	id := c.Query("pe_term_sheet_id")
	if id == "" {
		return apperr.BadRequest("pe_term_sheet_id is required")
	}
	rules, err := h.store.TermSheetRules(c.UserContext(), org, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"pe_term_sheet_id": id, "rules": rules})
}

// SaveConditions replaces the rule collection of a term sheet. Incomplete
// conditions and empty groups are dropped before validation.
func (h *TermSheetHandler) SaveConditions(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body struct {
		TermSheetID string            `json:"pe_term_sheet_id"`
		Rules       []condition.Group `json:"rules"`
	}
	if err := parseBody(c, &body); err != nil {
		return err
	}
	if body.TermSheetID == "" {
		return apperr.Validation([]apperr.ErrorDetail{{Field: "pe_term_sheet_id", Rule: "required", Message: "pe_term_sheet_id is required"}})
	}
	ctx := c.UserContext()

	rules := condition.Clean(body.Rules)
	inputs, err := h.store.ListInputs(ctx, org)
	if err != nil {
		return err
	}
	if problems := condition.Validate(rules, inputTypeIndex(inputs), condition.TermSheet, h.eval); len(problems) > 0 {
		return apperr.Validation(problemDetails(problems))
	}
	if err := h.store.ReplaceTermSheetRules(ctx, org, body.TermSheetID, rules); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"pe_term_sheet_id": body.TermSheetID, "rules": rules})
}

// Evaluate returns the active term sheets whose rules apply to values.
func (h *TermSheetHandler) Evaluate(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body struct {
		Values condition.Values `json:"values"`
	}
	if err := parseBody(c, &body); err != nil {
		return err
	}
	ctx := c.UserContext()

	sheets, err := h.store.ListTermSheets(ctx, org)
	if err != nil {
		return err
	}
	rules, err := h.store.AllTermSheetRules(ctx, org)
	if err != nil {
		return err
	}

	matched := []store.TermSheet{}
	for _, sheet := range sheets {
		if sheet.Status != store.TermSheetActive {
			continue
		}
		ok, err := h.eval.Applies(rules[sheet.ID], body.Values)
		if err != nil {
			return apperr.Validation([]apperr.ErrorDetail{{Field: sheet.ID, Rule: "evaluate", Message: err.Error()}})
		}
		if ok {
			matched = append(matched, sheet)
		}
	}
	return data(c, matched)
}

// Operators handles GET /api/condition-operators?input_type=&variant=.
func Operators(c *fiber.Ctx) error {
	variant := condition.TermSheet
	switch c.Query("variant", "term_sheet") {
	case "term_sheet":
	case "number_constraints":
		variant = condition.NumberConstraints
	default:
		return apperr.BadRequest("variant must be term_sheet or number_constraints")
	}
	return data(c, condition.OperatorsForType(c.Query("input_type"), variant))
}
