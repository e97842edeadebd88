package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type Category struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Category       string    `db:"category" json:"category"`
	DisplayOrder   int       `db:"display_order" json:"display_order"`
	DefaultOpen    bool      `db:"default_open" json:"default_open"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

const categoryColumns = `id::text AS id, organization_id, category, display_order, default_open, created_at, updated_at`

// Order assigns a display position to a row.
type Order struct {
	ID           string `json:"id"`
	DisplayOrder int    `json:"display_order"`
}

func (s *Store) ListCategories(ctx context.Context, orgID string) ([]Category, error) {
	return collect[Category](ctx, s.Pool,
		`SELECT `+categoryColumns+` FROM pricing_engine_input_categories
		 WHERE organization_id = $1 ORDER BY display_order, created_at`, orgID)
}

// CreateCategory appends a category after the current last one.
func (s *Store) CreateCategory(ctx context.Context, orgID, name string, defaultOpen bool) (*Category, error) {
	return collectOne[Category](ctx, s.Pool,
		`INSERT INTO pricing_engine_input_categories (organization_id, category, default_open, display_order)
		 VALUES ($1, $2, $3, (SELECT COALESCE(MAX(display_order), -1) + 1 FROM pricing_engine_input_categories WHERE organization_id = $1))
		 RETURNING `+categoryColumns, orgID, name, defaultOpen)
}

func (s *Store) UpdateCategory(ctx context.Context, orgID, id string, set map[string]any, expected *time.Time) (*Category, error) {
	return applyUpdate[Category](ctx, s.Pool, Update{
		Table:             "pricing_engine_input_categories",
		OrgID:             orgID,
		ID:                id,
		Set:               set,
		ExpectedUpdatedAt: expected,
		Returning:         categoryColumns,
	})
}

func (s *Store) ReorderCategories(ctx context.Context, orgID string, orders []Order) error {
	return s.reorder(ctx, "pricing_engine_input_categories", orgID, orders)
}

func (s *Store) DeleteCategory(ctx context.Context, orgID, id string) error {
	return s.deleteRow(ctx, "pricing_engine_input_categories", orgID, id)
}

// reorder writes every display_order in one transaction.
func (s *Store) reorder(ctx context.Context, table, orgID string, orders []Order) error {
	return s.InTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, o := range orders {
			batch.Queue(fmt.Sprintf(
				`UPDATE %s SET display_order = $1, updated_at = NOW() WHERE id = $2 AND organization_id = $3`, table),
				o.DisplayOrder, o.ID, orgID)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("reorder %s: %w", table, MapError(err))
		}
		return nil
	})
}

func (s *Store) deleteRow(ctx context.Context, table, orgID, id string) error {
	n, err := Exec(ctx, s.Pool,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND organization_id = $2`, table), id, orgID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
