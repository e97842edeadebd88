package api

import (
	"context"
	"testing"
	"time"

	"pricing-admin/internal/auth"
	"pricing-admin/internal/cache"
	"pricing-admin/internal/store"
)

type countingCache struct {
	*cache.Memory
	sets int
}

func (c *countingCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	c.sets++
	return c.Memory.Set(ctx, key, value, ttl)
}

func TestSettingsAccess(t *testing.T) {
	c := &countingCache{Memory: cache.NewMemory()}
	app := &testApp{newTestApp(Handlers{Settings: NewSettingsHandler(nil, testAccess, c, time.Minute)})}

	tests := []struct {
		role string
		tab  string
		want bool
	}{
		{auth.RoleMember, "pricing-engine", false},
		{auth.RoleMember, "general", true},
		{auth.RoleAdmin, "pricing-engine", true},
		{auth.RoleMember, "members", false},
		{auth.RoleAdmin, "members", true},
	}
	for _, tt := range tests {
		r := app.call(t, "GET", "/api/org/settings-access?tab="+tt.tab, tt.role, nil)
		if r.Status != 200 {
			t.Fatalf("expected 200, got %d", r.Status)
		}
		if r.Body["canAccess"] != tt.want {
			t.Fatalf("%s on %s: expected %v, got %v", tt.role, tt.tab, tt.want, r.Body)
		}
	}

	before := c.sets
	app.call(t, "GET", "/api/org/settings-access?tab=general", auth.RoleMember, nil)
	if c.sets != before {
		t.Fatal("repeated check should be served from cache")
	}

	if r := app.call(t, "GET", "/api/org/settings-access", auth.RoleMember, nil); r.Status != 400 {
		t.Fatalf("expected 400 without tab, got %d", r.Status)
	}
}

type fakeOrgSettings struct {
	saved store.OrgSettingsPatch
}

func (f *fakeOrgSettings) GetOrgSettings(_ context.Context, org string) (*store.OrgSettings, error) {
	return &store.OrgSettings{OrganizationID: org, Theme: []byte(`{}`)}, nil
}

func (f *fakeOrgSettings) SaveOrgSettings(_ context.Context, org string, p store.OrgSettingsPatch) (*store.OrgSettings, error) {
	f.saved = p
	return &store.OrgSettings{OrganizationID: org, Name: *p.Name, Theme: p.Theme}, nil
}

func TestUpdateOrgSettings(t *testing.T) {
	f := &fakeOrgSettings{}
	app := &testApp{newTestApp(Handlers{Settings: NewSettingsHandler(f, testAccess, cache.NewMemory(), time.Minute)})}

	r := app.call(t, "PATCH", "/api/org/settings", auth.RoleMember,
		map[string]any{"name": "Acme Lending", "theme": map[string]any{"primary": "#0044ff"}})
	if r.Status != 200 {
		t.Fatalf("expected 200, got %d: %v", r.Status, r.Body)
	}
	if f.saved.LogoURL != nil {
		t.Fatal("absent fields must stay untouched")
	}

	if r := app.call(t, "PATCH", "/api/org/settings", auth.RoleMember, map[string]any{"theme": []any{1}}); r.Status != 422 {
		t.Fatalf("expected 422 for a non-object theme, got %d", r.Status)
	}
}
