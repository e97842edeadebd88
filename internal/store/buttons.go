package store

import (
	"context"
	"time"
)

// ButtonAction points a section button at an automation by its public uuid.
type ButtonAction struct {
	AutomationUUID string `json:"automation_uuid"`
	Label          string `json:"label,omitempty"`
}

type SectionButton struct {
	ID             string         `db:"id" json:"id"`
	OrganizationID string         `db:"organization_id" json:"organization_id"`
	CategoryID     string         `db:"category_id" json:"category_id"`
	Label          string         `db:"label" json:"label"`
	Icon           *string        `db:"icon" json:"icon"`
	Actions        []ButtonAction `db:"actions" json:"actions"`
	SignalColor    *string        `db:"signal_color" json:"signal_color"`
	RequiredInputs []string       `db:"required_inputs" json:"required_inputs"`
	DisplayOrder   int            `db:"display_order" json:"display_order"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

const buttonColumns = `id::text AS id, organization_id, category_id::text AS category_id, label, icon,
	actions, signal_color, required_inputs, display_order, created_at, updated_at`

type NewSectionButton struct {
	CategoryID     string         `json:"category_id"`
	Label          string         `json:"label"`
	Icon           *string        `json:"icon"`
	Actions        []ButtonAction `json:"actions"`
	SignalColor    *string        `json:"signal_color"`
	RequiredInputs []string       `json:"required_inputs"`
}

func (s *Store) ListSectionButtons(ctx context.Context, orgID, categoryID string) ([]SectionButton, error) {
	if categoryID != "" {
		return collect[SectionButton](ctx, s.Pool,
			`SELECT `+buttonColumns+` FROM pe_section_buttons
			 WHERE organization_id = $1 AND category_id = $2 ORDER BY display_order, created_at`, orgID, categoryID)
	}
	return collect[SectionButton](ctx, s.Pool,
		`SELECT `+buttonColumns+` FROM pe_section_buttons
		 WHERE organization_id = $1 ORDER BY category_id, display_order, created_at`, orgID)
}

func (s *Store) GetSectionButton(ctx context.Context, orgID, id string) (*SectionButton, error) {
	return collectOne[SectionButton](ctx, s.Pool,
		`SELECT `+buttonColumns+` FROM pe_section_buttons WHERE id = $1 AND organization_id = $2`, id, orgID)
}

func (s *Store) CreateSectionButton(ctx context.Context, orgID string, b NewSectionButton) (*SectionButton, error) {
	if b.Actions == nil {
		b.Actions = []ButtonAction{}
	}
	if b.RequiredInputs == nil {
		b.RequiredInputs = []string{}
	}
	return collectOne[SectionButton](ctx, s.Pool,
		`INSERT INTO pe_section_buttons (organization_id, category_id, label, icon, actions, signal_color, required_inputs, display_order)
		 SELECT $1, c.id, $3, $4, $5, $6, $7,
			(SELECT COALESCE(MAX(display_order), -1) + 1 FROM pe_section_buttons WHERE category_id = $2)
		 FROM pricing_engine_input_categories c WHERE c.id = $2 AND c.organization_id = $1
		 RETURNING `+buttonColumns,
		orgID, b.CategoryID, b.Label, b.Icon, b.Actions, b.SignalColor, b.RequiredInputs)
}

func (s *Store) UpdateSectionButton(ctx context.Context, orgID, id string, set map[string]any) (*SectionButton, error) {
	return applyUpdate[SectionButton](ctx, s.Pool, Update{
		Table:     "pe_section_buttons",
		OrgID:     orgID,
		ID:        id,
		Set:       set,
		Refs:      map[string]string{"category_id": "pricing_engine_input_categories"},
		Returning: buttonColumns,
	})
}

func (s *Store) DeleteSectionButton(ctx context.Context, orgID, id string) error {
	return s.deleteRow(ctx, "pe_section_buttons", orgID, id)
}
