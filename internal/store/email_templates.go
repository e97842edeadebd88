package store

import (
	"context"
	"encoding/json"
	"time"
)

type EmailTemplate struct {
	ID                string          `db:"id" json:"id"`
	OrganizationID    string          `db:"organization_id" json:"organization_id"`
	Name              string          `db:"name" json:"name"`
	Subject           string          `db:"subject" json:"subject"`
	FromAddress       string          `db:"from_address" json:"from_address"`
	ReplyTo           string          `db:"reply_to" json:"reply_to"`
	CC                string          `db:"cc" json:"cc"`
	BCC               string          `db:"bcc" json:"bcc"`
	PreviewText       string          `db:"preview_text" json:"preview_text"`
	BlocknoteDocument json.RawMessage `db:"blocknote_document" json:"blocknote_document"`
	Styles            json.RawMessage `db:"styles" json:"styles"`
	EmailOutputHTML   string          `db:"email_output_html" json:"email_output_html"`
	EmailOutputText   string          `db:"email_output_text" json:"email_output_text"`
	LiveblocksRoomID  *string         `db:"liveblocks_room_id" json:"liveblocks_room_id"`
	Status            string          `db:"status" json:"status"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// EmailTemplateSummary is the list projection without document bodies.
type EmailTemplateSummary struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Subject   string    `db:"subject" json:"subject"`
	Status    string    `db:"status" json:"status"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const emailTemplateColumns = `id::text AS id, organization_id, name, subject, from_address, reply_to, cc, bcc,
	preview_text, blocknote_document, styles, email_output_html, email_output_text, liveblocks_room_id,
	status, created_at, updated_at`

func (s *Store) ListEmailTemplates(ctx context.Context, orgID string) ([]EmailTemplateSummary, error) {
	return collect[EmailTemplateSummary](ctx, s.Pool,
		`SELECT id::text AS id, name, subject, status, updated_at FROM email_templates
		 WHERE organization_id = $1 ORDER BY updated_at DESC`, orgID)
}

func (s *Store) GetEmailTemplate(ctx context.Context, orgID, id string) (*EmailTemplate, error) {
	return collectOne[EmailTemplate](ctx, s.Pool,
		`SELECT `+emailTemplateColumns+` FROM email_templates WHERE id = $1 AND organization_id = $2`, id, orgID)
}

func (s *Store) CreateEmailTemplate(ctx context.Context, orgID, name, subject string) (*EmailTemplate, error) {
	return collectOne[EmailTemplate](ctx, s.Pool,
		`INSERT INTO email_templates (organization_id, name, subject) VALUES ($1, $2, $3)
		 RETURNING `+emailTemplateColumns, orgID, name, subject)
}

func (s *Store) UpdateEmailTemplate(ctx context.Context, orgID, id string, set map[string]any) (*EmailTemplate, error) {
	return applyUpdate[EmailTemplate](ctx, s.Pool, Update{
		Table: "email_templates", OrgID: orgID, ID: id, Set: set, Returning: emailTemplateColumns,
	})
}

func (s *Store) DeleteEmailTemplate(ctx context.Context, orgID, id string) error {
	return s.deleteRow(ctx, "email_templates", orgID, id)
}

// DuplicateEmailTemplate copies a template under a new name. The copy gets
// its own realtime room later, so the room id is not carried over.
func (s *Store) DuplicateEmailTemplate(ctx context.Context, orgID, id, name string) (*EmailTemplate, error) {
	return collectOne[EmailTemplate](ctx, s.Pool,
		`INSERT INTO email_templates (organization_id, name, subject, from_address, reply_to, cc, bcc, preview_text,
			blocknote_document, styles, email_output_html, email_output_text, status)
		 SELECT organization_id, $3, subject, from_address, reply_to, cc, bcc, preview_text,
			blocknote_document, styles, email_output_html, email_output_text, 'draft'
		 FROM email_templates WHERE id = $1 AND organization_id = $2
		 RETURNING `+emailTemplateColumns, id, orgID, name)
}

// SetEmailTemplateRoom records the realtime room id unless one is already set,
// returning the stored value.
func (s *Store) SetEmailTemplateRoom(ctx context.Context, orgID, id, roomID string) (string, error) {
	var stored string
	err := s.Pool.QueryRow(ctx,
		`UPDATE email_templates SET liveblocks_room_id = COALESCE(liveblocks_room_id, $1), updated_at = NOW()
		 WHERE id = $2 AND organization_id = $3 RETURNING liveblocks_room_id`, roomID, id, orgID).Scan(&stored)
	if err != nil {
		return "", notFoundOr(err)
	}
	return stored, nil
}
