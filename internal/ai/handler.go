package ai

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"pricing-admin/internal/apperr"
)

const streamTimeout = 2 * time.Minute

// Handler serves the editor's AI text transforms.
type Handler struct {
	provider *Provider
}

// NewHandler creates a new AI handler. A nil provider answers 503.
func NewHandler(provider *Provider) *Handler {
	return &Handler{provider: provider}
}

// Status returns whether AI is configured and the model name.
func (h *Handler) Status(c *fiber.Ctx) error {
	if h.provider == nil {
		return c.JSON(fiber.Map{"data": fiber.Map{"configured": false}})
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"configured": true,
			"model":      h.provider.Model(),
		},
	})
}

// EditText handles POST /api/ai/edit-text, streaming plain text chunks as
// the provider produces them.
func (h *Handler) EditText(c *fiber.Ctx) error {
	if h.provider == nil {
		return apperr.Unavailable("AI is not configured")
	}

	var body EditRequest
	if err := c.BodyParser(&body); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	system, user, err := BuildPrompt(body)
	if err != nil {
		return apperr.BadRequest(err.Error())
	}

	// The body is written after the handler returns, so the upstream call
	// can't hang off the request context. fasthttp has no disconnect signal;
	// a failed Flush ends the stream and streamTimeout bounds the rest.
	ctx, cancel := context.WithTimeout(context.Background(), streamTimeout)
	stream, err := h.provider.Open(ctx, system, user)
	if err != nil {
		cancel()
		slog.Error("ai stream open failed", "action", body.Action, "error", err)
		return err
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("X-Accel-Buffering", "no")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer stream.Close()
		for {
			chunk, err := stream.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				slog.Error("ai stream failed", "action", body.Action, "error", err)
				return
			}
			if _, err := w.WriteString(chunk); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				// client went away
				return
			}
		}
	})
	return nil
}

func RegisterRoutes(app *fiber.App, h *Handler, authMW fiber.Handler) {
	g := app.Group("/api/ai", authMW)
	g.Get("/status", h.Status)
	g.Post("/edit-text", h.EditText)
}
