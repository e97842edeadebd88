package store

import (
	"context"
	"time"
)

type DocumentType struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	DisplayOrder   int       `db:"display_order" json:"display_order"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type DocumentTemplate struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	DocumentTypeID *string   `db:"document_type_id" json:"document_type_id"`
	HTMLContent    string    `db:"html_content" json:"html_content"`
	Starred        bool      `db:"starred" json:"starred"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

const (
	documentTypeColumns     = `id::text AS id, organization_id, name, display_order, created_at, updated_at`
	documentTemplateColumns = `id::text AS id, organization_id, name, document_type_id::text AS document_type_id,
	html_content, starred, created_at, updated_at`
)

func (s *Store) ListDocumentTypes(ctx context.Context, orgID string) ([]DocumentType, error) {
	return collect[DocumentType](ctx, s.Pool,
		`SELECT `+documentTypeColumns+` FROM document_types WHERE organization_id = $1 ORDER BY display_order, name`, orgID)
}

func (s *Store) CreateDocumentType(ctx context.Context, orgID, name string) (*DocumentType, error) {
	return collectOne[DocumentType](ctx, s.Pool,
		`INSERT INTO document_types (organization_id, name, display_order)
		 VALUES ($1, $2, (SELECT COALESCE(MAX(display_order), -1) + 1 FROM document_types WHERE organization_id = $1))
		 RETURNING `+documentTypeColumns, orgID, name)
}

func (s *Store) UpdateDocumentType(ctx context.Context, orgID, id string, set map[string]any) (*DocumentType, error) {
	return applyUpdate[DocumentType](ctx, s.Pool, Update{
		Table: "document_types", OrgID: orgID, ID: id, Set: set, Returning: documentTypeColumns,
	})
}

func (s *Store) DeleteDocumentType(ctx context.Context, orgID, id string) error {
	return s.deleteRow(ctx, "document_types", orgID, id)
}

func (s *Store) ListDocumentTemplates(ctx context.Context, orgID string) ([]DocumentTemplate, error) {
	return collect[DocumentTemplate](ctx, s.Pool,
		`SELECT `+documentTemplateColumns+` FROM document_templates WHERE organization_id = $1
		 ORDER BY starred DESC, name`, orgID)
}

func (s *Store) GetDocumentTemplate(ctx context.Context, orgID, id string) (*DocumentTemplate, error) {
	return collectOne[DocumentTemplate](ctx, s.Pool,
		`SELECT `+documentTemplateColumns+` FROM document_templates WHERE id = $1 AND organization_id = $2`, id, orgID)
}

type NewDocumentTemplate struct {
	Name           string  `json:"name"`
	DocumentTypeID *string `json:"document_type_id"`
	HTMLContent    string  `json:"html_content"`
}

// CreateDocumentTemplate yields ErrNotFound when document_type_id names a
// type of another organization.
func (s *Store) CreateDocumentTemplate(ctx context.Context, orgID string, t NewDocumentTemplate) (*DocumentTemplate, error) {
	return collectOne[DocumentTemplate](ctx, s.Pool,
		`INSERT INTO document_templates (organization_id, name, document_type_id, html_content)
		 SELECT $1, $2, $3::uuid, $4
		 WHERE $3::uuid IS NULL OR EXISTS(SELECT 1 FROM document_types WHERE id = $3::uuid AND organization_id = $1)
		 RETURNING `+documentTemplateColumns,
		orgID, t.Name, t.DocumentTypeID, t.HTMLContent)
}

func (s *Store) UpdateDocumentTemplate(ctx context.Context, orgID, id string, set map[string]any) (*DocumentTemplate, error) {
	return applyUpdate[DocumentTemplate](ctx, s.Pool, Update{
		Table: "document_templates", OrgID: orgID, ID: id, Set: set,
		Refs:      map[string]string{"document_type_id": "document_types"},
		Returning: documentTemplateColumns,
	})
}

func (s *Store) DeleteDocumentTemplate(ctx context.Context, orgID, id string) error {
	return s.deleteRow(ctx, "document_templates", orgID, id)
}
