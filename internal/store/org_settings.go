package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

type OrgSettings struct {
	OrganizationID string          `db:"organization_id" json:"organization_id"`
	Name           string          `db:"name" json:"name"`
	LogoURL        string          `db:"logo_url" json:"logo_url"`
	Theme          json.RawMessage `db:"theme" json:"theme"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

const orgSettingsColumns = `organization_id, name, logo_url, theme, updated_at`

// GetOrgSettings returns the stored settings or empty defaults when the
// organization has never saved any.
func (s *Store) GetOrgSettings(ctx context.Context, orgID string) (*OrgSettings, error) {
	out, err := collectOne[OrgSettings](ctx, s.Pool,
		`SELECT `+orgSettingsColumns+` FROM organization_settings WHERE organization_id = $1`, orgID)
	if errors.Is(err, ErrNotFound) {
		return &OrgSettings{OrganizationID: orgID, Theme: json.RawMessage(`{}`)}, nil
	}
	return out, err
}

type OrgSettingsPatch struct {
	Name    *string         `json:"name"`
	LogoURL *string         `json:"logo_url"`
	Theme   json.RawMessage `json:"theme"`
}

func (s *Store) SaveOrgSettings(ctx context.Context, orgID string, p OrgSettingsPatch) (*OrgSettings, error) {
	var theme any
	if len(p.Theme) > 0 {
		theme = p.Theme
	}
	return collectOne[OrgSettings](ctx, s.Pool,
		`INSERT INTO organization_settings (organization_id, name, logo_url, theme)
		 VALUES ($1, COALESCE($2, ''), COALESCE($3, ''), COALESCE($4::jsonb, '{}'))
		 ON CONFLICT (organization_id) DO UPDATE SET
			name = COALESCE($2, organization_settings.name),
			logo_url = COALESCE($3, organization_settings.logo_url),
			theme = COALESCE($4::jsonb, organization_settings.theme),
			updated_at = NOW()
		 RETURNING `+orgSettingsColumns, orgID, p.Name, p.LogoURL, theme)
}
