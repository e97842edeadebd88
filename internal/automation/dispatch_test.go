package automation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pricing-admin/internal/auth"
	"pricing-admin/internal/store"
)

type memRecorder struct {
	mu   sync.Mutex
	runs []Run
}

func (m *memRecorder) Record(r Run) {
	m.mu.Lock()
	m.runs = append(m.runs, r)
	m.mu.Unlock()
}

func strptr(s string) *string { return &s }

func TestRunDispatchesEligibleActions(t *testing.T) {
	var got []Payload
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode: %v", err)
		}
		got = append(got, p)
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		if strings.HasSuffix(r.URL.Path, "/fail") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	automations := map[string]store.Automation{
		"a-ok": {UUID: "a-ok", Name: "Price it", Active: true, TriggerType: store.TriggerManual,
			WebhookType: store.WebhookTypePricingEngine, WebhookURL: strptr(srv.URL + "/ok")},
		"a-fail": {UUID: "a-fail", Name: "Broken", Active: true, TriggerType: store.TriggerManual,
			WebhookType: store.WebhookTypePricingEngine, WebhookURL: strptr(srv.URL + "/fail")},
		"a-scheduled": {UUID: "a-scheduled", Name: "Nightly", Active: true, TriggerType: "schedule",
			WebhookType: store.WebhookTypePricingEngine, WebhookURL: strptr(srv.URL + "/ok")},
	}
	button := store.SectionButton{
		ID: "b1", OrganizationID: "org_1", CategoryID: "c1", Label: "Run pricing",
		Actions: []store.ButtonAction{
			{AutomationUUID: "a-ok"},
			{AutomationUUID: "a-missing"},
			{AutomationUUID: "a-scheduled"},
			{AutomationUUID: "a-fail"},
		},
	}

	rec := &memRecorder{}
	d := NewDispatcher(5*time.Second, rec)
	results := d.Run(context.Background(), button, automations,
		map[string]any{"loan_amount": 250000}, &auth.UserContext{ID: "u1", OrgID: "org_1", OrgRole: auth.RoleMember})

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if !results[0].OK || results[0].StatusCode != http.StatusAccepted {
		t.Fatalf("first action should succeed: %+v", results[0])
	}
	if results[1].OK || results[1].Error != "automation not found" {
		t.Fatalf("missing automation should fail: %+v", results[1])
	}
	if results[2].OK || results[2].StatusCode != 0 {
		t.Fatalf("ineligible automation must not be called: %+v", results[2])
	}
	if results[3].OK || results[3].Error != "HTTP 500" {
		t.Fatalf("failing webhook should be reported: %+v", results[3])
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 webhook calls, got %d", len(got))
	}
	if got[0].Button.ID != "b1" || got[0].OrganizationID != "org_1" || got[0].Values["loan_amount"] != float64(250000) {
		t.Fatalf("unexpected payload %+v", got[0])
	}
	if keys[0] == "" || keys[0] != got[0].IdempotencyKey {
		t.Fatalf("idempotency header should match payload, got %q vs %q", keys[0], got[0].IdempotencyKey)
	}

	if len(rec.runs) != 2 || rec.runs[0].Status != "delivered" || rec.runs[1].Status != "failed" {
		t.Fatalf("unexpected recorded runs %+v", rec.runs)
	}
}

func TestDispatchUnreachable(t *testing.T) {
	d := NewDispatcher(time.Second, nil)
	res := d.Dispatch(context.Background(), "http://127.0.0.1:1/hook", &Payload{IdempotencyKey: "k"})
	if res.OK() || !strings.Contains(res.Error, "http call") {
		t.Fatalf("expected transport error, got %+v", res)
	}
}

func TestInsertRuns(t *testing.T) {
	sql, args := insertRuns([]Run{
		{OrganizationID: "o", AutomationUUID: "a", ButtonID: "b", IdempotencyKey: "k1", Status: "delivered", StatusCode: 200},
		{OrganizationID: "o", AutomationUUID: "a", ButtonID: "b", IdempotencyKey: "k2", Status: "failed", Error: "HTTP 500"},
	})
	if !strings.Contains(sql, "($9,$10,$11,$12,$13,$14,$15,$16)") {
		t.Fatalf("unexpected placeholders: %s", sql)
	}
	if len(args) != 16 || args[3] != "k1" || args[11] != "k2" {
		t.Fatalf("unexpected args %v", args)
	}
}
