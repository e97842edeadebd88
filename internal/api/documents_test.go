package api

import (
	"context"
	"testing"

	"pricing-admin/internal/auth"
	"pricing-admin/internal/store"
)

type fakeDocuments struct {
	DocumentStore
	types   map[string]bool
	created *store.NewDocumentTemplate
	updated map[string]any
}

// CreateDocumentTemplate rejects types the organization does not own, like
// the store's insert guard.
func (f *fakeDocuments) CreateDocumentTemplate(_ context.Context, org string, t store.NewDocumentTemplate) (*store.DocumentTemplate, error) {
	if t.DocumentTypeID != nil && !f.types[*t.DocumentTypeID] {
		return nil, store.ErrNotFound
	}
	f.created = &t
	return &store.DocumentTemplate{ID: "tpl", OrganizationID: org, Name: t.Name, DocumentTypeID: t.DocumentTypeID}, nil
}

func (f *fakeDocuments) UpdateDocumentTemplate(_ context.Context, _ string, id string, set map[string]any) (*store.DocumentTemplate, error) {
	if ref, ok := set["document_type_id"].(*string); ok && ref != nil && !f.types[*ref] {
		return nil, store.ErrNotFound
	}
	f.updated = set
	return &store.DocumentTemplate{ID: id}, nil
}

func (f *fakeDocuments) CreateDocumentType(_ context.Context, org, name string) (*store.DocumentType, error) {
	return &store.DocumentType{ID: "t-new", OrganizationID: org, Name: name}, nil
}

func documentApp(f *fakeDocuments) *testApp {
	return &testApp{newTestApp(Handlers{Documents: NewDocumentHandler(f)})}
}

func TestCreateDocumentTemplate(t *testing.T) {
	f := &fakeDocuments{types: map[string]bool{"type_1": true}}
	app := documentApp(f)

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"no type", map[string]any{"name": "Term Sheet A"}, 201},
		{"own type", map[string]any{"name": "Term Sheet B", "document_type_id": "type_1"}, 201},
		{"foreign type", map[string]any{"name": "Term Sheet C", "document_type_id": "type_other_org"}, 404},
		{"blank name", map[string]any{"name": " "}, 422},
	}
	for _, tt := range tests {
		if r := app.call(t, "POST", "/api/document-templates", auth.RoleAdmin, tt.body); r.Status != tt.status {
			t.Fatalf("%s: expected %d, got %d: %v", tt.name, tt.status, r.Status, r.Body)
		}
	}
	if f.created == nil || f.created.Name != "Term Sheet B" {
		t.Fatalf("unexpected last create %+v", f.created)
	}
}

func TestUpdateDocumentTemplate(t *testing.T) {
	f := &fakeDocuments{types: map[string]bool{"type_1": true}}
	app := documentApp(f)

	r := app.call(t, "PATCH", "/api/document-templates/tpl", auth.RoleAdmin, map[string]any{"document_type_id": nil, "starred": true})
	if r.Status != 200 {
		t.Fatalf("expected 200, got %d: %v", r.Status, r.Body)
	}
	if ref, ok := f.updated["document_type_id"].(*string); !ok || ref != nil {
		t.Fatalf("expected a null type id, got %#v", f.updated["document_type_id"])
	}
	if f.updated["starred"] != true {
		t.Fatalf("expected starred, got %v", f.updated)
	}

	if r := app.call(t, "PATCH", "/api/document-templates/tpl", auth.RoleAdmin, map[string]any{"document_type_id": "type_other_org"}); r.Status != 404 {
		t.Fatalf("expected 404 for a foreign type, got %d", r.Status)
	}
	if r := app.call(t, "PATCH", "/api/document-templates/tpl", auth.RoleAdmin, map[string]any{"html_content": 5}); r.Status != 422 {
		t.Fatalf("expected 422 for a wrong type, got %d", r.Status)
	}
}

func TestDocumentMutationsNeedPricingEngineTab(t *testing.T) {
	app := documentApp(&fakeDocuments{})

	tests := []struct {
		method, path string
		body         map[string]any
	}{
		{"POST", "/api/document-types", map[string]any{"name": "Term sheet"}},
		{"PATCH", "/api/document-types/t1", map[string]any{"name": "Other"}},
		{"DELETE", "/api/document-types/t1", nil},
		{"POST", "/api/document-templates", map[string]any{"name": "A"}},
		{"PATCH", "/api/document-templates/tpl", map[string]any{"starred": true}},
		{"DELETE", "/api/document-templates/tpl", nil},
	}
	for _, tt := range tests {
		if r := app.call(t, tt.method, tt.path, auth.RoleMember, tt.body); r.Status != 403 {
			t.Fatalf("%s %s: expected 403 for member, got %d", tt.method, tt.path, r.Status)
		}
	}
	if r := app.call(t, "POST", "/api/document-types", auth.RoleAdmin, map[string]any{"name": "Term sheet"}); r.Status != 201 {
		t.Fatalf("expected 201 for admin, got %d", r.Status)
	}
}
