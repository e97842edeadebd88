// Package automation runs section-button actions by posting to the webhook
// of each referenced automation.
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"pricing-admin/internal/auth"
	"pricing-admin/internal/store"
)

// Payload is the JSON body sent to automation webhooks.
type Payload struct {
	Event          string         `json:"event"`
	Automation     AutomationRef  `json:"automation"`
	Button         ButtonRef      `json:"button"`
	OrganizationID string         `json:"organization_id"`
	Values         map[string]any `json:"values"`
	User           map[string]any `json:"user,omitempty"`
	Timestamp      string         `json:"timestamp"`
	IdempotencyKey string         `json:"idempotency_key"`
}

type AutomationRef struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

type ButtonRef struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	CategoryID string `json:"category_id"`
}

// BuildPayload constructs the payload for one action of a button press.
func BuildPayload(a store.Automation, b store.SectionButton, values map[string]any, user *auth.UserContext) *Payload {
	p := &Payload{
		Event:          "pricing_engine.button",
		Automation:     AutomationRef{UUID: a.UUID, Name: a.Name},
		Button:         ButtonRef{ID: b.ID, Label: b.Label, CategoryID: b.CategoryID},
		OrganizationID: b.OrganizationID,
		Values:         values,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		IdempotencyKey: "btn_" + uuid.New().String(),
	}
	if user != nil {
		p.User = map[string]any{"id": user.ID, "org_role": user.OrgRole}
	}
	return p
}

// DispatchResult holds the outcome of a single webhook HTTP call.
type DispatchResult struct {
	StatusCode   int
	ResponseBody string
	Error        string
	Duration     time.Duration
}

func (r *DispatchResult) OK() bool {
	return r.Error == "" && r.StatusCode >= 200 && r.StatusCode < 300
}

// ActionResult is reported back to the caller per button action.
type ActionResult struct {
	AutomationUUID string `json:"automation_uuid"`
	Name           string `json:"name,omitempty"`
	OK             bool   `json:"ok"`
	StatusCode     int    `json:"status_code,omitempty"`
	Error          string `json:"error,omitempty"`
}

type Dispatcher struct {
	client   *http.Client
	recorder Recorder
}

// NewDispatcher returns a Dispatcher whose calls time out after timeout. A
// nil recorder discards run records.
func NewDispatcher(timeout time.Duration, recorder Recorder) *Dispatcher {
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	return &Dispatcher{client: &http.Client{Timeout: timeout}, recorder: recorder}
}

// Dispatch performs the HTTP call.
func (d *Dispatcher) Dispatch(ctx context.Context, url string, payload *Payload) *DispatchResult {
	start := time.Now()
	body, err := json.Marshal(payload)
	if err != nil {
		return &DispatchResult{Error: fmt.Sprintf("encode payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &DispatchResult{Error: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", payload.IdempotencyKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return &DispatchResult{Error: fmt.Sprintf("http call: %v", err), Duration: time.Since(start)}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024)) // max 64KB

	result := &DispatchResult{
		StatusCode:   resp.StatusCode,
		ResponseBody: string(respBody),
		Duration:     time.Since(start),
	}
	if !result.OK() {
		result.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return result
}

// Run executes every action of a button in order. Actions whose automation
// is missing, inactive, not a manual pricing-engine automation, or has no
// webhook are reported as failed without a call. One failed action does not
// stop the rest.
func (d *Dispatcher) Run(ctx context.Context, b store.SectionButton, automations map[string]store.Automation, values map[string]any, user *auth.UserContext) []ActionResult {
	results := make([]ActionResult, 0, len(b.Actions))
	for _, action := range b.Actions {
		res := ActionResult{AutomationUUID: action.AutomationUUID}
		a, ok := automations[action.AutomationUUID]
		switch {
		case !ok:
			res.Error = "automation not found"
		case !a.ButtonEligible():
			res.Name = a.Name
			res.Error = "automation is not an active manual pricing engine automation"
		case a.WebhookURL == nil || *a.WebhookURL == "":
			res.Name = a.Name
			res.Error = "automation has no webhook url"
		default:
			res.Name = a.Name
			payload := BuildPayload(a, b, values, user)
			dr := d.Dispatch(ctx, *a.WebhookURL, payload)
			res.OK = dr.OK()
			res.StatusCode = dr.StatusCode
			res.Error = dr.Error
			d.recorder.Record(Run{
				OrganizationID: b.OrganizationID,
				AutomationUUID: a.UUID,
				ButtonID:       b.ID,
				IdempotencyKey: payload.IdempotencyKey,
				Status:         statusOf(dr),
				StatusCode:     dr.StatusCode,
				Error:          dr.Error,
				DurationMs:     dr.Duration.Milliseconds(),
			})
		}
		if !res.OK {
			slog.Warn("automation action failed",
				"button", b.ID, "automation", action.AutomationUUID, "error", res.Error)
		}
		results = append(results, res)
	}
	return results
}

func statusOf(r *DispatchResult) string {
	if r.OK() {
		return "delivered"
	}
	return "failed"
}
