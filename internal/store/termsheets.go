package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pricing-admin/internal/condition"
)

const (
	TermSheetActive   = "active"
	TermSheetInactive = "inactive"
)

type TermSheet struct {
	ID                 string    `db:"id" json:"id"`
	OrganizationID     string    `db:"organization_id" json:"organization_id"`
	DocumentTemplateID string    `db:"document_template_id" json:"document_template_id"`
	DocumentName       *string   `db:"document_name" json:"document_name"`
	Status             string    `db:"status" json:"status"`
	DisplayOrder       int       `db:"display_order" json:"display_order"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

const termSheetSelect = `SELECT ts.id::text AS id, ts.organization_id, ts.document_template_id::text AS document_template_id,
	dt.name AS document_name, ts.status, ts.display_order, ts.created_at, ts.updated_at
	FROM pe_term_sheets ts LEFT JOIN document_templates dt ON dt.id = ts.document_template_id`

func (s *Store) ListTermSheets(ctx context.Context, orgID string) ([]TermSheet, error) {
	return collect[TermSheet](ctx, s.Pool,
		termSheetSelect+` WHERE ts.organization_id = $1 ORDER BY ts.display_order, ts.created_at`, orgID)
}

func (s *Store) GetTermSheet(ctx context.Context, orgID, id string) (*TermSheet, error) {
	return collectOne[TermSheet](ctx, s.Pool,
		termSheetSelect+` WHERE ts.id = $1 AND ts.organization_id = $2`, id, orgID)
}

// CreateTermSheet links a document template as a term sheet. Linking the
// same template twice is a conflict.
func (s *Store) CreateTermSheet(ctx context.Context, orgID, templateID string) (*TermSheet, error) {
	var id string
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO pe_term_sheets (organization_id, document_template_id, display_order)
		 SELECT $1, dt.id, (SELECT COALESCE(MAX(display_order), -1) + 1 FROM pe_term_sheets WHERE organization_id = $1)
		 FROM document_templates dt WHERE dt.id = $2 AND dt.organization_id = $1
		 RETURNING id::text`, orgID, templateID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("document template: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("create term sheet: %w", MapError(err))
	}
	return s.GetTermSheet(ctx, orgID, id)
}

func (s *Store) SetTermSheetStatus(ctx context.Context, orgID, id, status string) (*TermSheet, error) {
	n, err := Exec(ctx, s.Pool,
		`UPDATE pe_term_sheets SET status = $1, updated_at = NOW() WHERE id = $2 AND organization_id = $3`,
		status, id, orgID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetTermSheet(ctx, orgID, id)
}

func (s *Store) DeleteTermSheet(ctx context.Context, orgID, id string) error {
	return s.deleteRow(ctx, "pe_term_sheets", orgID, id)
}

type ruleRow struct {
	TermSheetID string                `db:"pe_term_sheet_id"`
	LogicType   string                `db:"logic_type"`
	Conditions  []condition.Condition `db:"conditions"`
}

func (r ruleRow) group() condition.Group {
	logic, err := condition.ParseLogic(r.LogicType)
	if err != nil {
		logic = condition.And
	}
	conds := r.Conditions
	if conds == nil {
		conds = []condition.Condition{}
	}
	return condition.Group{Logic: logic, Conditions: conds}
}

// TermSheetRules returns the rule groups of one term sheet in saved order.
func (s *Store) TermSheetRules(ctx context.Context, orgID, termSheetID string) ([]condition.Group, error) {
	if _, err := s.GetTermSheet(ctx, orgID, termSheetID); err != nil {
		return nil, err
	}
	rows, err := collect[ruleRow](ctx, s.Pool,
		`SELECT pe_term_sheet_id::text AS pe_term_sheet_id, logic_type, conditions
		 FROM pe_term_sheet_conditions WHERE pe_term_sheet_id = $1 ORDER BY position`, termSheetID)
	if err != nil {
		return nil, err
	}
	groups := make([]condition.Group, 0, len(rows))
	for _, r := range rows {
		groups = append(groups, r.group())
	}
	return groups, nil
}

// AllTermSheetRules returns rule groups for every term sheet of the
// organization keyed by term sheet id.
func (s *Store) AllTermSheetRules(ctx context.Context, orgID string) (map[string][]condition.Group, error) {
	rows, err := collect[ruleRow](ctx, s.Pool,
		`SELECT c.pe_term_sheet_id::text AS pe_term_sheet_id, c.logic_type, c.conditions
		 FROM pe_term_sheet_conditions c JOIN pe_term_sheets ts ON ts.id = c.pe_term_sheet_id
		 WHERE ts.organization_id = $1 ORDER BY c.pe_term_sheet_id, c.position`, orgID)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]condition.Group)
	for _, r := range rows {
		out[r.TermSheetID] = append(out[r.TermSheetID], r.group())
	}
	return out, nil
}

// ReplaceTermSheetRules overwrites the whole rule collection of a term sheet.
func (s *Store) ReplaceTermSheetRules(ctx context.Context, orgID, termSheetID string, groups []condition.Group) error {
	return s.InTx(ctx, func(tx pgx.Tx) error {
		var owned bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM pe_term_sheets WHERE id = $1 AND organization_id = $2)`,
			termSheetID, orgID).Scan(&owned); err != nil {
			return fmt.Errorf("check term sheet: %w", MapError(err))
		}
		if !owned {
			return ErrNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM pe_term_sheet_conditions WHERE pe_term_sheet_id = $1`, termSheetID); err != nil {
			return fmt.Errorf("clear rules: %w", err)
		}
		for i, g := range groups {
			if _, err := tx.Exec(ctx,
				`INSERT INTO pe_term_sheet_conditions (pe_term_sheet_id, logic_type, conditions, position)
				 VALUES ($1, $2, $3, $4)`,
				termSheetID, string(g.Logic), g.Conditions, i); err != nil {
				return fmt.Errorf("insert rule group %d: %w", i, MapError(err))
			}
		}
		if _, err := tx.Exec(ctx, `UPDATE pe_term_sheets SET updated_at = NOW() WHERE id = $1`, termSheetID); err != nil {
			return fmt.Errorf("touch term sheet: %w", err)
		}
		return nil
	})
}
