package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"pricing-admin/internal/apperr"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name    string
		req     EditRequest
		wantErr string
		want    string
	}{
		{"improve", EditRequest{Text: "hi there", Action: ActionImprove}, "", "hi there"},
		{"translate needs language", EditRequest{Text: "hi", Action: ActionTranslate}, "language is required", ""},
		{"translate", EditRequest{Text: "hi", Action: ActionTranslate, Language: "Spanish"}, "", "into Spanish"},
		{"generate needs prompt", EditRequest{Action: ActionGenerate}, "prompt is required", ""},
		{"generate", EditRequest{Action: ActionGenerate, Prompt: "a welcome email"}, "", "a welcome email"},
		{"empty text", EditRequest{Action: ActionShorter}, "text is required", ""},
		{"unknown", EditRequest{Text: "x", Action: "summarize"}, "unknown action", ""},
	}
	for _, tt := range tests {
		_, user, err := BuildPrompt(tt.req)
		if tt.wantErr != "" {
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("%s: expected error %q, got %v", tt.name, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if !strings.Contains(user, tt.want) {
			t.Fatalf("%s: prompt %q missing %q", tt.name, user, tt.want)
		}
	}
}

func sseServer(t *testing.T, chunks []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"message":"bad key"}}`)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"role":"assistant"}}]}`+"\n\n")
		for _, c := range chunks {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestStreamReadsDeltas(t *testing.T) {
	srv := sseServer(t, []string{"Hello", ", ", "{{borrower:first_name}}"})
	defer srv.Close()

	p := NewProvider(srv.URL, "key", "test-model")
	stream, err := p.Open(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer stream.Close()

	var b strings.Builder
	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		b.WriteString(chunk)
	}
	if b.String() != "Hello, {{borrower:first_name}}" {
		t.Fatalf("unexpected text %q", b.String())
	}
}

func TestOpenReportsProviderError(t *testing.T) {
	srv := sseServer(t, nil)
	defer srv.Close()

	p := NewProvider(srv.URL, "wrong", "test-model")
	_, err := p.Open(context.Background(), "sys", "user")
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) || appErr.Status != http.StatusBadGateway || !strings.Contains(appErr.Message, "bad key") {
		t.Fatalf("expected 502 with provider message, got %v", err)
	}
}

func newTestApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var appErr *apperr.AppError
			if errors.As(err, &appErr) {
				return c.Status(appErr.Status).JSON(appErr)
			}
			return c.SendStatus(500)
		},
	})
	app.Post("/api/ai/edit-text", h.EditText)
	return app
}

func TestEditTextStreams(t *testing.T) {
	srv := sseServer(t, []string{"Better ", "text."})
	defer srv.Close()

	app := newTestApp(NewHandler(NewProvider(srv.URL, "key", "test-model")))
	req := httptest.NewRequest("POST", "/api/ai/edit-text", strings.NewReader(`{"text":"bad text","action":"improve"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "Better text." {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestEditTextValidation(t *testing.T) {
	app := newTestApp(NewHandler(NewProvider("http://127.0.0.1:1", "key", "m")))
	req := httptest.NewRequest("POST", "/api/ai/edit-text", strings.NewReader(`{"text":"hola","action":"translate"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestEditTextNotConfigured(t *testing.T) {
	app := newTestApp(NewHandler(nil))
	req := httptest.NewRequest("POST", "/api/ai/edit-text", strings.NewReader(`{"text":"x","action":"improve"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}
