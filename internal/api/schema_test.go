package api

import (
	"context"
	"testing"
	"time"

	"pricing-admin/internal/auth"
	"pricing-admin/internal/cache"
	"pricing-admin/internal/store"
)

type fakeSchema struct {
	tableCalls int
}

func (f *fakeSchema) ListTables(context.Context) ([]string, error) {
	f.tableCalls++
	return []string{"borrowers", "properties"}, nil
}

func (f *fakeSchema) ListColumns(_ context.Context, table string) ([]store.Column, error) {
	if table != "borrowers" {
		return []store.Column{}, nil
	}
	return []store.Column{{Name: "id", Type: "uuid"}, {Name: "first_name", Type: "text"}}, nil
}

func TestSupabaseSchema(t *testing.T) {
	f := &fakeSchema{}
	app := &testApp{newTestApp(Handlers{Schema: NewSchemaHandler(f, cache.NewMemory(), time.Minute)})}

	for i := 0; i < 2; i++ {
		r := app.call(t, "GET", "/api/supabase-schema?type=tables", auth.RoleMember, nil)
		if r.Status != 200 {
			t.Fatalf("expected 200, got %d", r.Status)
		}
		if tables, _ := r.Body["tables"].([]any); len(tables) != 2 {
			t.Fatalf("unexpected tables %v", r.Body)
		}
	}
	if f.tableCalls != 1 {
		t.Fatalf("tables should be cached, store hit %d times", f.tableCalls)
	}

	r := app.call(t, "GET", "/api/supabase-schema?type=columns&table=borrowers", auth.RoleMember, nil)
	cols, _ := r.Body["columns"].([]any)
	if len(cols) != 2 || cols[1].(map[string]any)["name"] != "first_name" {
		t.Fatalf("unexpected columns %v", r.Body)
	}

	for _, q := range []string{"?type=columns", "?type=views", ""} {
		if r := app.call(t, "GET", "/api/supabase-schema"+q, auth.RoleMember, nil); r.Status != 400 {
			t.Fatalf("%q: expected 400, got %d", q, r.Status)
		}
	}
}
