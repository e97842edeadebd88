package store

import (
	"context"
	"time"
)

const (
	TriggerManual            = "manual"
	WebhookTypePricingEngine = "pricing_engine"
)

type Automation struct {
	ID             string    `db:"id" json:"id"`
	UUID           string    `db:"uuid" json:"uuid"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	TriggerType    string    `db:"trigger_type" json:"trigger_type"`
	WebhookType    string    `db:"webhook_type" json:"webhook_type"`
	WebhookURL     *string   `db:"webhook_url" json:"webhook_url"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ButtonEligible reports whether the automation can back a section button.
func (a Automation) ButtonEligible() bool {
	return a.Active && a.TriggerType == TriggerManual && a.WebhookType == WebhookTypePricingEngine
}

const automationColumns = `id::text AS id, uuid::text AS uuid, organization_id, name, trigger_type,
	webhook_type, webhook_url, active, created_at, updated_at`

type AutomationFilter struct {
	TriggerType string
	WebhookType string
}

type NewAutomation struct {
	Name        string  `json:"name"`
	TriggerType string  `json:"trigger_type"`
	WebhookType string  `json:"webhook_type"`
	WebhookURL  *string `json:"webhook_url"`
}

func (s *Store) ListAutomations(ctx context.Context, orgID string, f AutomationFilter) ([]Automation, error) {
	return collect[Automation](ctx, s.Pool,
		`SELECT `+automationColumns+` FROM automations
		 WHERE organization_id = $1
		   AND ($2 = '' OR trigger_type = $2)
		   AND ($3 = '' OR webhook_type = $3)
		 ORDER BY name`, orgID, f.TriggerType, f.WebhookType)
}

func (s *Store) GetAutomation(ctx context.Context, orgID, uuid string) (*Automation, error) {
	return collectOne[Automation](ctx, s.Pool,
		`SELECT `+automationColumns+` FROM automations WHERE uuid = $1 AND organization_id = $2`, uuid, orgID)
}

// AutomationsByUUID loads the automations referenced by a set of button
// actions. Missing uuids are simply absent from the result.
func (s *Store) AutomationsByUUID(ctx context.Context, orgID string, uuids []string) (map[string]Automation, error) {
	list, err := collect[Automation](ctx, s.Pool,
		`SELECT `+automationColumns+` FROM automations
		 WHERE organization_id = $1 AND uuid::text = ANY($2)`, orgID, uuids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Automation, len(list))
	for _, a := range list {
		out[a.UUID] = a
	}
	return out, nil
}

func (s *Store) CreateAutomation(ctx context.Context, orgID string, a NewAutomation) (*Automation, error) {
	if a.TriggerType == "" {
		a.TriggerType = TriggerManual
	}
	if a.WebhookType == "" {
		a.WebhookType = WebhookTypePricingEngine
	}
	return collectOne[Automation](ctx, s.Pool,
		`INSERT INTO automations (organization_id, name, trigger_type, webhook_type, webhook_url)
		 VALUES ($1, $2, $3, $4, $5) RETURNING `+automationColumns,
		orgID, a.Name, a.TriggerType, a.WebhookType, a.WebhookURL)
}

func (s *Store) DeleteAutomation(ctx context.Context, orgID, uuid string) error {
	n, err := Exec(ctx, s.Pool, `DELETE FROM automations WHERE uuid = $1 AND organization_id = $2`, uuid, orgID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
