package auth

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"pricing-admin/internal/apperr"
)

const testSecret = "test-secret"

func newTestApp(access Access) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var appErr *apperr.AppError
			if errors.As(err, &appErr) {
				return c.Status(appErr.Status).JSON(appErr)
			}
			return c.SendStatus(500)
		},
	})
	mw := AuthMiddleware(testSecret)
	app.Get("/whoami", mw, func(c *fiber.Ctx) error {
		return c.SendString(GetUser(c).OrgID)
	})
	app.Get("/pricing", mw, RequireTab(access, "pricing-engine"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestSessionTokenRoundTrip(t *testing.T) {
	tok, err := GenerateSessionToken("user_1", "org_1", RoleAdmin, testSecret)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseSessionToken(tok, testSecret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user_1" || claims.OrgID != "org_1" || claims.OrgRole != RoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if _, err := ParseSessionToken(tok, "other-secret"); err == nil {
		t.Fatal("expected signature failure")
	}
}

func TestAuthMiddleware(t *testing.T) {
	app := newTestApp(Access{})

	admin, _ := GenerateSessionToken("u1", "org_1", RoleAdmin, testSecret)
	noOrg, _ := GenerateSessionToken("u1", "", "", testSecret)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", 401},
		{"bad format", "Token abc", 401},
		{"garbage", "Bearer abc", 401},
		{"no org", "Bearer " + noOrg, 403},
		{"ok", "Bearer " + admin, 200},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/whoami", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if resp.StatusCode != tt.status {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.status, resp.StatusCode)
		}
	}
}

func TestRequireTab(t *testing.T) {
	app := newTestApp(Access{"pricing-engine": {RoleAdmin}})

	admin, _ := GenerateSessionToken("u1", "org_1", RoleAdmin, testSecret)
	member, _ := GenerateSessionToken("u2", "org_1", RoleMember, testSecret)

	for tok, want := range map[string]int{admin: 200, member: 403} {
		req := httptest.NewRequest("GET", "/pricing", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != want {
			t.Fatalf("expected %d, got %d", want, resp.StatusCode)
		}
	}
}

func TestAccessAllowed(t *testing.T) {
	access := Access{
		"general":        {RoleAdmin, RoleMember},
		"pricing-engine": {RoleAdmin},
	}
	member := &UserContext{ID: "u", OrgID: "o", OrgRole: RoleMember}
	admin := &UserContext{ID: "a", OrgID: "o", OrgRole: RoleAdmin}

	if !access.Allowed(member, "general") {
		t.Fatal("member should open general")
	}
	if access.Allowed(member, "pricing-engine") {
		t.Fatal("member should not open pricing-engine")
	}
	if access.Allowed(member, "unlisted") {
		t.Fatal("unlisted tabs are admin-only")
	}
	if !access.Allowed(admin, "unlisted") {
		t.Fatal("admins open every tab")
	}
	if access.Allowed(nil, "general") {
		t.Fatal("anonymous users open nothing")
	}
}
