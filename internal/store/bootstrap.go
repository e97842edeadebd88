package store

import (
	"context"
	"fmt"
	"log/slog"
)

const tablesSQL = `
CREATE TABLE IF NOT EXISTS pricing_engine_input_categories (
    id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    organization_id TEXT NOT NULL,
    category        TEXT NOT NULL,
    display_order   INT NOT NULL DEFAULT 0,
    default_open    BOOLEAN NOT NULL DEFAULT true,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_pe_categories_org ON pricing_engine_input_categories(organization_id, display_order);

CREATE TABLE IF NOT EXISTS pricing_engine_inputs (
    id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    organization_id  TEXT NOT NULL,
    category_id      UUID NOT NULL REFERENCES pricing_engine_input_categories(id) ON DELETE CASCADE,
    input_code       TEXT NOT NULL,
    input_label      TEXT NOT NULL,
    input_type       TEXT NOT NULL DEFAULT 'text',
    dropdown_options JSONB,
    config           JSONB,
    linked_table     TEXT,
    linked_column    TEXT,
    placeholder      TEXT,
    tooltip          TEXT,
    is_required      BOOLEAN NOT NULL DEFAULT false,
    display_order    INT NOT NULL DEFAULT 0,
    layout_row       INT NOT NULL DEFAULT 0,
    layout_width     INT NOT NULL DEFAULT 100,
    starred          BOOLEAN NOT NULL DEFAULT false,
    archived_at      TIMESTAMPTZ,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_pe_inputs_code ON pricing_engine_inputs(organization_id, input_code) WHERE archived_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_pe_inputs_category ON pricing_engine_inputs(category_id, display_order) WHERE archived_at IS NULL;

CREATE TABLE IF NOT EXISTS document_types (
    id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    organization_id TEXT NOT NULL,
    name            TEXT NOT NULL,
    display_order   INT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS document_templates (
    id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    organization_id  TEXT NOT NULL,
    name             TEXT NOT NULL,
    document_type_id UUID REFERENCES document_types(id) ON DELETE SET NULL,
    html_content     TEXT NOT NULL DEFAULT '',
    starred          BOOLEAN NOT NULL DEFAULT false,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS pe_term_sheets (
    id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    organization_id      TEXT NOT NULL,
    document_template_id UUID NOT NULL REFERENCES document_templates(id) ON DELETE CASCADE,
    status               TEXT NOT NULL DEFAULT 'active',
    display_order        INT NOT NULL DEFAULT 0,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_pe_term_sheets_template ON pe_term_sheets(organization_id, document_template_id);

CREATE TABLE IF NOT EXISTS pe_term_sheet_conditions (
    id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    pe_term_sheet_id UUID NOT NULL REFERENCES pe_term_sheets(id) ON DELETE CASCADE,
    logic_type       TEXT NOT NULL DEFAULT 'AND',
    conditions       JSONB NOT NULL DEFAULT '[]',
    position         INT NOT NULL DEFAULT 0,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_pe_term_sheet_conditions_sheet ON pe_term_sheet_conditions(pe_term_sheet_id, position);

CREATE TABLE IF NOT EXISTS automations (
    id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    uuid            UUID NOT NULL UNIQUE DEFAULT gen_random_uuid(),
    organization_id TEXT NOT NULL,
    name            TEXT NOT NULL,
    trigger_type    TEXT NOT NULL DEFAULT 'manual',
    webhook_type    TEXT NOT NULL DEFAULT 'pricing_engine',
    webhook_url     TEXT,
    active          BOOLEAN NOT NULL DEFAULT true,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS pe_section_buttons (
    id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    organization_id TEXT NOT NULL,
    category_id     UUID NOT NULL REFERENCES pricing_engine_input_categories(id) ON DELETE CASCADE,
    label           TEXT NOT NULL,
    icon            TEXT,
    actions         JSONB NOT NULL DEFAULT '[]',
    signal_color    TEXT,
    required_inputs JSONB NOT NULL DEFAULT '[]',
    display_order   INT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS email_templates (
    id                 UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    organization_id    TEXT NOT NULL,
    name               TEXT NOT NULL,
    subject            TEXT NOT NULL DEFAULT '',
    from_address       TEXT NOT NULL DEFAULT '',
    reply_to           TEXT NOT NULL DEFAULT '',
    cc                 TEXT NOT NULL DEFAULT '',
    bcc                TEXT NOT NULL DEFAULT '',
    preview_text       TEXT NOT NULL DEFAULT '',
    blocknote_document JSONB,
    styles             JSONB,
    email_output_html  TEXT NOT NULL DEFAULT '',
    email_output_text  TEXT NOT NULL DEFAULT '',
    liveblocks_room_id TEXT,
    status             TEXT NOT NULL DEFAULT 'draft',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS automation_runs (
    id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    organization_id TEXT NOT NULL,
    automation_uuid TEXT NOT NULL,
    button_id       TEXT NOT NULL,
    idempotency_key TEXT NOT NULL,
    status          TEXT NOT NULL,
    status_code     INT NOT NULL DEFAULT 0,
    error           TEXT NOT NULL DEFAULT '',
    duration_ms     BIGINT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_automation_runs_created ON automation_runs(created_at);

CREATE TABLE IF NOT EXISTS organization_settings (
    organization_id TEXT PRIMARY KEY,
    name            TEXT NOT NULL DEFAULT '',
    logo_url        TEXT NOT NULL DEFAULT '',
    theme           JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Bootstrap creates every table the service owns if it doesn't exist.
func (s *Store) Bootstrap(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, tablesSQL); err != nil {
		return fmt.Errorf("bootstrap tables: %w", err)
	}
	slog.Info("schema bootstrapped")
	return nil
}
