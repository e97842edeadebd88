package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pricing-admin/internal/layout"
)

type Input struct {
	ID              string          `db:"id" json:"id"`
	OrganizationID  string          `db:"organization_id" json:"organization_id"`
	CategoryID      string          `db:"category_id" json:"category_id"`
	InputCode       string          `db:"input_code" json:"input_code"`
	InputLabel      string          `db:"input_label" json:"input_label"`
	InputType       string          `db:"input_type" json:"input_type"`
	DropdownOptions []string        `db:"dropdown_options" json:"dropdown_options"`
	Config          json.RawMessage `db:"config" json:"config"`
	LinkedTable     *string         `db:"linked_table" json:"linked_table"`
	LinkedColumn    *string         `db:"linked_column" json:"linked_column"`
	Placeholder     *string         `db:"placeholder" json:"placeholder"`
	Tooltip         *string         `db:"tooltip" json:"tooltip"`
	IsRequired      bool            `db:"is_required" json:"is_required"`
	DisplayOrder    int             `db:"display_order" json:"display_order"`
	LayoutRow       int             `db:"layout_row" json:"layout_row"`
	LayoutWidth     int             `db:"layout_width" json:"layout_width"`
	Starred         bool            `db:"starred" json:"starred"`
	ArchivedAt      *time.Time      `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// LayoutItem returns the input's position in the kanban grid.
func (in Input) LayoutItem() layout.Item {
	return layout.Item{ID: in.ID, Row: in.LayoutRow, Width: in.LayoutWidth}
}

const inputColumns = `id::text AS id, organization_id, category_id::text AS category_id, input_code, input_label,
	input_type, dropdown_options, config, linked_table, linked_column, placeholder, tooltip, is_required,
	display_order, layout_row, layout_width, starred, archived_at, created_at, updated_at`

// NewInput holds the columns settable on create.
type NewInput struct {
	CategoryID      string          `json:"category_id"`
	InputCode       string          `json:"input_code"`
	InputLabel      string          `json:"input_label"`
	InputType       string          `json:"input_type"`
	DropdownOptions []string        `json:"dropdown_options"`
	Config          json.RawMessage `json:"config"`
	LinkedTable     *string         `json:"linked_table"`
	LinkedColumn    *string         `json:"linked_column"`
	Placeholder     *string         `json:"placeholder"`
	Tooltip         *string         `json:"tooltip"`
	IsRequired      bool            `json:"is_required"`
	LayoutWidth     int             `json:"layout_width"`
}

// ListInputs returns the organization's live inputs in category order.
func (s *Store) ListInputs(ctx context.Context, orgID string) ([]Input, error) {
	return collect[Input](ctx, s.Pool,
		`SELECT `+inputColumns+` FROM pricing_engine_inputs
		 WHERE organization_id = $1 AND archived_at IS NULL
		 ORDER BY display_order, created_at`, orgID)
}

func (s *Store) GetInput(ctx context.Context, orgID, id string) (*Input, error) {
	return collectOne[Input](ctx, s.Pool,
		`SELECT `+inputColumns+` FROM pricing_engine_inputs
		 WHERE id = $1 AND organization_id = $2 AND archived_at IS NULL`, id, orgID)
}

// CreateInput places the new input at the end of its category, on a row of
// its own. A category of another organization yields ErrNotFound.
func (s *Store) CreateInput(ctx context.Context, orgID string, in NewInput) (*Input, error) {
	width := in.LayoutWidth
	if width <= 0 {
		width = layout.FullWidth
	}
	var config any
	if len(in.Config) > 0 {
		config = in.Config
	}
	return collectOne[Input](ctx, s.Pool,
		`INSERT INTO pricing_engine_inputs (organization_id, category_id, input_code, input_label, input_type,
			dropdown_options, config, linked_table, linked_column, placeholder, tooltip, is_required,
			layout_width, display_order, layout_row)
		 SELECT $1, c.id, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			COALESCE(MAX(i.display_order), -1) + 1, COALESCE(MAX(i.layout_row), -1) + 1
		 FROM pricing_engine_input_categories c
		 LEFT JOIN pricing_engine_inputs i ON i.category_id = c.id AND i.archived_at IS NULL
		 WHERE c.id = $2 AND c.organization_id = $1
		 GROUP BY c.id
		 RETURNING `+inputColumns,
		orgID, in.CategoryID, in.InputCode, in.InputLabel, in.InputType,
		in.DropdownOptions, config, in.LinkedTable, in.LinkedColumn, in.Placeholder, in.Tooltip, in.IsRequired,
		width)
}

func (s *Store) UpdateInput(ctx context.Context, orgID, id string, set map[string]any, expected *time.Time) (*Input, error) {
	return applyUpdate[Input](ctx, s.Pool, Update{
		Table:             "pricing_engine_inputs",
		OrgID:             orgID,
		ID:                id,
		Set:               set,
		ExpectedUpdatedAt: expected,
		Refs:              map[string]string{"category_id": "pricing_engine_input_categories"},
		Returning:         inputColumns,
	})
}

func (s *Store) ReorderInputs(ctx context.Context, orgID string, orders []Order) error {
	return s.reorder(ctx, "pricing_engine_inputs", orgID, orders)
}

// SaveLayout persists row and width for every item in one transaction.
func (s *Store) SaveLayout(ctx context.Context, orgID string, items []layout.Item) error {
	return s.InTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, it := range items {
			batch.Queue(
				`UPDATE pricing_engine_inputs SET layout_row = $1, layout_width = $2, updated_at = NOW()
				 WHERE id = $3 AND organization_id = $4`,
				it.Row, it.Width, it.ID, orgID)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save layout: %w", MapError(err))
		}
		return nil
	})
}

// ArchiveInput soft-deletes an input so saved rules that reference it keep
// resolving its id.
func (s *Store) ArchiveInput(ctx context.Context, orgID, id string) error {
	n, err := Exec(ctx, s.Pool,
		`UPDATE pricing_engine_inputs SET archived_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND organization_id = $2 AND archived_at IS NULL`, id, orgID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
