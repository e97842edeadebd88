package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"pricing-admin/internal/apperr"
	"pricing-admin/internal/condition"
	"pricing-admin/internal/inputconfig"
	"pricing-admin/internal/layout"
	"pricing-admin/internal/store"
)

type InputStore interface {
	ListInputs(ctx context.Context, orgID string) ([]store.Input, error)
	GetInput(ctx context.Context, orgID, id string) (*store.Input, error)
	CreateInput(ctx context.Context, orgID string, in store.NewInput) (*store.Input, error)
	UpdateInput(ctx context.Context, orgID, id string, set map[string]any, expected *time.Time) (*store.Input, error)
	ReorderInputs(ctx context.Context, orgID string, orders []store.Order) error
	SaveLayout(ctx context.Context, orgID string, items []layout.Item) error
	ArchiveInput(ctx context.Context, orgID, id string) error
}

var inputTypes = map[string]bool{
	"text": true, "dropdown": true, "number": true, "currency": true, "percentage": true,
	"date": true, "boolean": true, "table": true, "tags": true, "calc_currency": true,
}

// InputHandler serves /api/pricing-engine-inputs.
type InputHandler struct {
	store InputStore
	eval  *condition.Evaluator
}

func NewInputHandler(s InputStore, eval *condition.Evaluator) *InputHandler {
	return &InputHandler{store: s, eval: eval}
}

func (h *InputHandler) List(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	inputs, err := h.store.ListInputs(c.UserContext(), org)
	if err != nil {
		return err
	}
	if cat := c.Query("category_id"); cat != "" {
		inputs = inCategory(inputs, cat)
	}
	return data(c, inputs)
}

func (h *InputHandler) Get(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	in, err := h.store.GetInput(c.UserContext(), org, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, in)
}

func (h *InputHandler) Create(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body store.NewInput
	if err := parseBody(c, &body); err != nil {
		return err
	}
	body.InputCode = strings.TrimSpace(body.InputCode)
	body.InputLabel = strings.TrimSpace(body.InputLabel)
	if body.InputType == "" {
		body.InputType = "text"
	}

	var details []apperr.ErrorDetail
	if body.CategoryID == "" {
		details = append(details, apperr.ErrorDetail{Field: "category_id", Rule: "required", Message: "category_id is required"})
	}
	if body.InputCode == "" {
		details = append(details, apperr.ErrorDetail{Field: "input_code", Rule: "required", Message: "input_code is required"})
	}
	if body.InputLabel == "" {
		details = append(details, apperr.ErrorDetail{Field: "input_label", Rule: "required", Message: "input_label is required"})
	}
	if !inputTypes[body.InputType] {
		details = append(details, apperr.ErrorDetail{Field: "input_type", Rule: "enum", Message: fmt.Sprintf("unknown input type %q", body.InputType)})
	}
	if body.LayoutWidth != 0 {
		if d := checkWidth(body.LayoutWidth); d != nil {
			details = append(details, *d)
		}
	}
	if len(details) > 0 {
		return apperr.Validation(details)
	}

	cfg, err := h.normalizeConfig(c.UserContext(), org, body.InputType, body.Config, true)
	if err != nil {
		return err
	}
	body.Config = cfg

	in, err := h.store.CreateInput(c.UserContext(), org, body)
	if err != nil {
		return err
	}
	return created(c, in)
}

var inputColumns = map[string]func() any{
	"input_label":      str,
	"input_code":       str,
	"input_type":       str,
	"dropdown_options": strSlice,
	"config":           rawJSON,
	"linked_table":     nullStr,
	"linked_column":    nullStr,
	"placeholder":      nullStr,
	"tooltip":          nullStr,
	"is_required":      boolean,
	"starred":          boolean,
	"category_id":      str,
	"display_order":    integer,
	"layout_row":       integer,
	"layout_width":     integer,
}

// Update handles PATCH. The body is one of:
//
//	{reorder: [{id, display_order}]}
//	{layout: [{id, layout_row, layout_width}]}
//	{layout_change: {id, width}}
//	{layout_move: {id, row} | {id, new_row}, category_id?}
//	{id, <fields>..., expected_updated_at?}
func (h *InputHandler) Update(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body patchBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	ctx := c.UserContext()

	switch {
	case body.has("reorder"):
		var orders []store.Order
		if err := body.decode("reorder", &orders); err != nil {
			return err
		}
		if err := h.store.ReorderInputs(ctx, org, orders); err != nil {
			return err
		}
		return h.listAll(c, org)

	case body.has("layout"):
		var items []layout.Item
		if err := body.decode("layout", &items); err != nil {
			return err
		}
		for _, it := range items {
			if d := checkWidth(it.Width); d != nil {
				return apperr.Validation([]apperr.ErrorDetail{*d})
			}
		}
		if err := h.store.SaveLayout(ctx, org, items); err != nil {
			return err
		}
		return h.listAll(c, org)

	case body.has("layout_change"):
		var change struct {
			ID    string `json:"id"`
			Width int    `json:"width"`
		}
		if err := body.decode("layout_change", &change); err != nil {
			return err
		}
		if d := checkWidth(change.Width); d != nil {
			return apperr.Validation([]apperr.ErrorDetail{*d})
		}
		return h.relayout(c, org, change.ID, "", func(items []layout.Item) []layout.Item {
			return layout.ChangeWidth(items, change.ID, change.Width)
		})

	case body.has("layout_move"):
		var move struct {
			ID         string `json:"id"`
			Row        *int   `json:"row"`
			NewRow     *int   `json:"new_row"`
			CategoryID string `json:"category_id"`
		}
		if err := body.decode("layout_move", &move); err != nil {
			return err
		}
		if move.Row == nil && move.NewRow == nil {
			return apperr.Validation([]apperr.ErrorDetail{{Field: "layout_move", Rule: "required", Message: "row or new_row is required"}})
		}
		return h.relayout(c, org, move.ID, move.CategoryID, func(items []layout.Item) []layout.Item {
			if move.NewRow != nil {
				return layout.DropIntoNewRow(items, move.ID, *move.NewRow)
			}
			return layout.DropIntoRow(items, move.ID, *move.Row)
		})
	}

	id := c.Params("id")
	if id == "" {
		if id, err = body.string("id"); err != nil {
			return err
		}
	}
	set, err := body.columns(inputColumns)
	if err != nil {
		return err
	}
	if len(set) == 0 {
		return apperr.BadRequest("Nothing to update")
	}
	if err := h.checkFields(ctx, org, id, set); err != nil {
		return err
	}
	expected, err := body.expected()
	if err != nil {
		return err
	}
	in, err := h.store.UpdateInput(ctx, org, id, set, expected)
	if err != nil {
		return err
	}
	return data(c, in)
}

// checkFields validates a field patch in place, normalizing config.
func (h *InputHandler) checkFields(ctx context.Context, org, id string, set map[string]any) error {
	var details []apperr.ErrorDetail
	for _, key := range []string{"input_label", "input_code", "category_id"} {
		if v, ok := set[key].(string); ok {
			v = strings.TrimSpace(v)
			if v == "" {
				details = append(details, apperr.ErrorDetail{Field: key, Rule: "required", Message: key + " is required"})
			}
			set[key] = v
		}
	}
	if t, ok := set["input_type"].(string); ok && !inputTypes[t] {
		details = append(details, apperr.ErrorDetail{Field: "input_type", Rule: "enum", Message: fmt.Sprintf("unknown input type %q", t)})
	}
	if w, ok := set["layout_width"].(int); ok {
		if d := checkWidth(w); d != nil {
			details = append(details, *d)
		}
	}
	if len(details) > 0 {
		return apperr.Validation(details)
	}

	newType, typeChanged := set["input_type"].(string)
	newConfig, configSent := set["config"].(json.RawMessage)
	if !typeChanged && !configSent {
		return nil
	}

	current, err := h.store.GetInput(ctx, org, id)
	if err != nil {
		return err
	}
	inputType := current.InputType
	if typeChanged {
		inputType = newType
	}
	raw := current.Config
	if configSent {
		raw = newConfig
	}
	cfg, err := h.normalizeConfig(ctx, org, inputType, raw, configSent)
	if err != nil {
		return err
	}
	set["config"] = cfg
	return nil
}

// normalizeConfig decodes, cleans and validates a config blob for
// inputType. When the blob was not sent by the client (the type changed
// under a stored config) an incompatible config is dropped instead of
// rejected.
func (h *InputHandler) normalizeConfig(ctx context.Context, org, inputType string, raw json.RawMessage, sent bool) (json.RawMessage, error) {
	normalized, err := inputconfig.Normalize(inputType, raw)
	if err != nil {
		if !sent && errors.Is(err, inputconfig.ErrInvalidConfig) {
			return json.RawMessage("null"), nil
		}
		return nil, apperr.Validation([]apperr.ErrorDetail{{Field: "config", Rule: "config", Message: err.Error()}})
	}

	cfg, err := inputconfig.Decode(inputType, normalized)
	if err != nil {
		return nil, apperr.Validation([]apperr.ErrorDetail{{Field: "config", Rule: "config", Message: err.Error()}})
	}
	nc, ok := cfg.(*inputconfig.NumberConstraintsConfig)
	if !ok || len(nc.ConditionalConstraints) == 0 {
		return normalized, nil
	}

	types, err := h.fieldTypes(ctx, org)
	if err != nil {
		return nil, err
	}
	if problems := condition.Validate(nc.ConditionalConstraints.Groups(), types, condition.NumberConstraints, h.eval); len(problems) > 0 {
		return nil, apperr.Validation(problemDetails(problems))
	}
	return normalized, nil
}

// fieldTypes maps every live input's id and code to its type.
func (h *InputHandler) fieldTypes(ctx context.Context, org string) (map[string]string, error) {
	inputs, err := h.store.ListInputs(ctx, org)
	if err != nil {
		return nil, err
	}
	return inputTypeIndex(inputs), nil
}

func inputTypeIndex(inputs []store.Input) map[string]string {
	types := make(map[string]string, len(inputs)*2)
	for _, in := range inputs {
		types[in.ID] = in.InputType
		types[in.InputCode] = in.InputType
	}
	return types
}

// relayout applies op to the items of the moved input's category and saves
// the rows and widths that changed. A non-empty targetCategory first moves
// the input there.
func (h *InputHandler) relayout(c *fiber.Ctx, org, id, targetCategory string, op func([]layout.Item) []layout.Item) error {
	ctx := c.UserContext()
	if id == "" {
		return apperr.Validation([]apperr.ErrorDetail{{Field: "id", Rule: "required", Message: "id is required"}})
	}
	moved, err := h.store.GetInput(ctx, org, id)
	if err != nil {
		return err
	}
	category := moved.CategoryID
	if targetCategory != "" && targetCategory != category {
		if _, err := h.store.UpdateInput(ctx, org, id, map[string]any{"category_id": targetCategory}, nil); err != nil {
			return err
		}
		category = targetCategory
	}

	inputs, err := h.store.ListInputs(ctx, org)
	if err != nil {
		return err
	}
	siblings := inCategory(inputs, category)
	before := make([]layout.Item, len(siblings))
	for i, in := range siblings {
		before[i] = in.LayoutItem()
	}
	after := op(before)

	var changed []layout.Item
	for i := range after {
		if after[i] != before[i] {
			changed = append(changed, after[i])
		}
	}
	if len(changed) > 0 {
		if err := h.store.SaveLayout(ctx, org, changed); err != nil {
			return err
		}
	}

	for i := range siblings {
		siblings[i].LayoutRow = after[i].Row
		siblings[i].LayoutWidth = after[i].Width
	}
	return data(c, siblings)
}

func (h *InputHandler) listAll(c *fiber.Ctx, org string) error {
	inputs, err := h.store.ListInputs(c.UserContext(), org)
	if err != nil {
		return err
	}
	return data(c, inputs)
}

func (h *InputHandler) Delete(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.store.ArchiveInput(c.UserContext(), org, id); err != nil {
		return err
	}
	return data(c, fiber.Map{"id": id, "deleted": true})
}

// ResolveBounds handles POST /:id/resolve-bounds {values}, returning the
// min/max/step in force for the given input values.
func (h *InputHandler) ResolveBounds(c *fiber.Ctx) error {
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
	in, err := h.store.GetInput(c.UserContext(), org, c.Params("id"))
	if err != nil {
		return err
	}
	if !inputconfig.IsNumeric(in.InputType) {
		return apperr.Validation([]apperr.ErrorDetail{{Field: "input_type", Rule: "numeric", Message: fmt.Sprintf("%s inputs have no bounds", in.InputType)}})
	}
	cfg, err := inputconfig.Decode(in.InputType, in.Config)
	if err != nil {
		return err
	}
	nc, _ := cfg.(*inputconfig.NumberConstraintsConfig)
	if nc == nil {
		return data(c, inputconfig.Bounds{Rule: -1})
	}
	bounds, err := nc.Resolve(h.eval, body.Values)
	if err != nil {
		return apperr.Validation([]apperr.ErrorDetail{{Field: "config", Rule: "evaluate", Message: err.Error()}})
	}
	return data(c, bounds)
}

func inCategory(inputs []store.Input, categoryID string) []store.Input {
	out := []store.Input{}
	for _, in := range inputs {
		if in.CategoryID == categoryID {
			out = append(out, in)
		}
	}
	return out
}

func checkWidth(w int) *apperr.ErrorDetail {
	if w < layout.MinWidth || w > layout.FullWidth {
		return &apperr.ErrorDetail{
			Field:   "layout_width",
			Rule:    "range",
			Message: fmt.Sprintf("layout_width must be between %d and %d", layout.MinWidth, layout.FullWidth),
		}
	}
	return nil
}
