package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"pricing-admin/internal/apperr"
	"pricing-admin/internal/auth"
	"pricing-admin/internal/condition"
	"pricing-admin/internal/store"
)

// orgID returns the active organization of the authenticated user.
func orgID(c *fiber.Ctx) (string, error) {
	user := auth.GetUser(c)
	if user == nil || user.OrgID == "" {
		return "", apperr.Unauthorized("Missing auth token")
	}
	return user.OrgID, nil
}

func parseBody(c *fiber.Ctx, dst any) error {
	if err := json.Unmarshal(c.Body(), dst); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	return nil
}

// idParam takes the id from the path, falling back to ?id=.
func idParam(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if id == "" {
		id = c.Query("id")
	}
	if id == "" {
		return "", apperr.BadRequest("id is required")
	}
	return id, nil
}

func data(c *fiber.Ctx, v any) error {
	return c.JSON(fiber.Map{"data": v})
}

func created(c *fiber.Ctx, v any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": v})
}

// patchBody is a decoded PATCH payload keyed by field name. Presence of a
// key, even with a null value, means the field is being set.
type patchBody map[string]json.RawMessage

func (p patchBody) has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p patchBody) decode(key string, dst any) error {
	if err := json.Unmarshal(p[key], dst); err != nil {
		return apperr.Validation([]apperr.ErrorDetail{{Field: key, Rule: "type", Message: fmt.Sprintf("%s has the wrong type", key)}})
	}
	return nil
}

// string returns a required non-empty string field.
func (p patchBody) string(key string) (string, error) {
	var s string
	if err := p.decode(key, &s); err != nil {
		return "", err
	}
	if s == "" {
		return "", apperr.Validation([]apperr.ErrorDetail{{Field: key, Rule: "required", Message: key + " is required"}})
	}
	return s, nil
}

// expected returns expected_updated_at when the client sent one.
func (p patchBody) expected() (*time.Time, error) {
	if !p.has("expected_updated_at") {
		return nil, nil
	}
	var t *time.Time
	if err := p.decode("expected_updated_at", &t); err != nil {
		return nil, err
	}
	return t, nil
}

// columns copies the allowed keys of p into a column map, decoding each
// into the Go type the column expects.
func (p patchBody) columns(allowed map[string]func() any) (map[string]any, error) {
	set := map[string]any{}
	for key, raw := range p {
		newVal, ok := allowed[key]
		if !ok {
			continue
		}
		dst := newVal()
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, apperr.Validation([]apperr.ErrorDetail{{Field: key, Rule: "type", Message: fmt.Sprintf("%s has the wrong type", key)}})
		}
		set[key] = deref(dst)
	}
	return set, nil
}

func deref(v any) any {
	switch x := v.(type) {
	case *string:
		return *x
	case **string:
		return *x
	case *bool:
		return *x
	case *int:
		return *x
	case *[]string:
		return *x
	case *json.RawMessage:
		return *x
	case *[]store.ButtonAction:
		return *x
	}
	return v
}

func str() any      { return new(string) }
func nullStr() any  { return new(*string) }
func boolean() any  { return new(bool) }
func integer() any  { return new(int) }
func strSlice() any { return new([]string) }
func rawJSON() any  { return new(json.RawMessage) }
func actions() any  { return new([]store.ButtonAction) }

func problemDetails(problems []condition.Problem) []apperr.ErrorDetail {
	details := make([]apperr.ErrorDetail, 0, len(problems))
	for _, p := range problems {
		details = append(details, apperr.ErrorDetail{Field: p.Field, Rule: "condition", Message: p.Error()})
	}
	return details
}

// optionalString returns a string field or "" when absent.
func (p patchBody) optionalString(key string) (string, error) {
	if !p.has(key) {
		return "", nil
	}
	var s string
	if err := p.decode(key, &s); err != nil {
		return "", err
	}
	return s, nil
}
