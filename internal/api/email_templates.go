package api

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/gofiber/fiber/v2"

	"pricing-admin/internal/apperr"
	"pricing-admin/internal/liveblocks"
	"pricing-admin/internal/mergetag"
	"pricing-admin/internal/store"
)

type EmailTemplateStore interface {
	ListEmailTemplates(ctx context.Context, orgID string) ([]store.EmailTemplateSummary, error)
	GetEmailTemplate(ctx context.Context, orgID, id string) (*store.EmailTemplate, error)
	CreateEmailTemplate(ctx context.Context, orgID, name, subject string) (*store.EmailTemplate, error)
	UpdateEmailTemplate(ctx context.Context, orgID, id string, set map[string]any) (*store.EmailTemplate, error)
	DeleteEmailTemplate(ctx context.Context, orgID, id string) error
	DuplicateEmailTemplate(ctx context.Context, orgID, id, name string) (*store.EmailTemplate, error)
	SetEmailTemplateRoom(ctx context.Context, orgID, id, roomID string) (string, error)
}

// RoomEnsurer creates realtime collaboration rooms.
type RoomEnsurer interface {
	EnsureRoom(ctx context.Context, room liveblocks.Room) (bool, error)
}

const (
	EmailStatusDraft     = "draft"
	EmailStatusPublished = "published"
)

// EmailTemplateHandler serves /api/email-templates. rooms may be nil when
// realtime collaboration is not configured.
type EmailTemplateHandler struct {
	store EmailTemplateStore
	rooms RoomEnsurer
}

func NewEmailTemplateHandler(s EmailTemplateStore, rooms RoomEnsurer) *EmailTemplateHandler {
	return &EmailTemplateHandler{store: s, rooms: rooms}
}

func (h *EmailTemplateHandler) List(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	list, err := h.store.ListEmailTemplates(c.UserContext(), org)
	if err != nil {
		return err
	}
	return data(c, list)
}

func (h *EmailTemplateHandler) Get(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	t, err := h.store.GetEmailTemplate(c.UserContext(), org, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, t)
}

func (h *EmailTemplateHandler) Create(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body struct {
		Name    string `json:"name"`
		Subject string `json:"subject"`
	}
	if err := parseBody(c, &body); err != nil {
		return err
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = "Untitled template"
	}
	t, err := h.store.CreateEmailTemplate(c.UserContext(), org, name, body.Subject)
	if err != nil {
		return err
	}
	return created(c, t)
}

var emailTemplateColumns = map[string]func() any{
	"name":               str,
	"subject":            str,
	"from_address":       str,
	"reply_to":           str,
	"cc":                 str,
	"bcc":                str,
	"preview_text":       str,
	"blocknote_document": rawJSON,
	"styles":             rawJSON,
	"email_output_html":  str,
	"email_output_text":  str,
	"status":             str,
}

func (h *EmailTemplateHandler) Update(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body patchBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	set, err := body.columns(emailTemplateColumns)
	if err != nil {
		return err
	}
	if len(set) == 0 {
		return apperr.BadRequest("Nothing to update")
	}
	if name, ok := set["name"].(string); ok {
		if set["name"], err = requireName(name); err != nil {
			return err
		}
	}
	if status, ok := set["status"].(string); ok && status != EmailStatusDraft && status != EmailStatusPublished {
		return apperr.Validation([]apperr.ErrorDetail{{Field: "status", Rule: "enum", Message: "status must be draft or published"}})
	}
	t, err := h.store.UpdateEmailTemplate(c.UserContext(), org, c.Params("id"), set)
	if err != nil {
		return err
	}
	return data(c, t)
}

func (h *EmailTemplateHandler) Delete(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := h.store.DeleteEmailTemplate(c.UserContext(), org, id); err != nil {
		return err
	}
	return data(c, fiber.Map{"id": id, "deleted": true})
}

// Duplicate copies a template as a new draft named "<name> (Copy)".
func (h *EmailTemplateHandler) Duplicate(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	src, err := h.store.GetEmailTemplate(ctx, org, c.Params("id"))
	if err != nil {
		return err
	}
	t, err := h.store.DuplicateEmailTemplate(ctx, org, src.ID, src.Name+" (Copy)")
	if err != nil {
		return err
	}
	return created(c, t)
}

// RoomID is the realtime room a template is edited in.
func RoomID(templateID string) string {
	return "email-template-" + templateID
}

// EnsureRoom creates the template's collaboration room if needed and
// records its id. Calling it again is harmless.
func (h *EmailTemplateHandler) EnsureRoom(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	if h.rooms == nil {
		return apperr.Unavailable("Realtime collaboration is not configured")
	}
	ctx := c.UserContext()
	t, err := h.store.GetEmailTemplate(ctx, org, c.Params("id"))
	if err != nil {
		return err
	}

	roomID := RoomID(t.ID)
	if t.LiveblocksRoomID != nil && *t.LiveblocksRoomID != "" {
		roomID = *t.LiveblocksRoomID
	}
	createdRoom, err := h.rooms.EnsureRoom(ctx, liveblocks.Room{
		ID:       roomID,
		Group:    org,
		Metadata: map[string]string{"email_template_id": t.ID},
	})
	if err != nil {
		if errors.Is(err, liveblocks.ErrNotConfigured) {
			return apperr.Unavailable("Realtime collaboration is not configured")
		}
		return apperr.BadGateway(err.Error())
	}

	stored, err := h.store.SetEmailTemplateRoom(ctx, org, t.ID, roomID)
	if err != nil {
		return err
	}
	return data(c, fiber.Map{"room_id": stored, "created": createdRoom})
}

// Preview renders the template's merge tags with values. With sample set,
// tokens without a value render as their field name in brackets.
func (h *EmailTemplateHandler) Preview(c *fiber.Ctx) error {
	org, err := orgID(c)
	if err != nil {
		return err
	}
	var body struct {
		Values map[string]string `json:"values"`
		Sample bool              `json:"sample"`
	}
	if err := parseBody(c, &body); err != nil {
		return err
	}
	t, err := h.store.GetEmailTemplate(c.UserContext(), org, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, renderPreview(t, body.Values, body.Sample))
}

type preview struct {
	Subject         string             `json:"subject"`
	SubjectSegments []mergetag.Segment `json:"subject_segments"`
	PreviewText     string             `json:"preview_text"`
	HTML            string             `json:"html"`
	Text            string             `json:"text"`
	Unresolved      []string           `json:"unresolved"`
}

func renderPreview(t *store.EmailTemplate, values map[string]string, sample bool) preview {
	vals := make(map[string]string, len(values))
	for k, v := range values {
		vals[k] = v
	}
	var unresolved []string
	seen := map[string]bool{}
	render := func(s string, vals map[string]string) string {
		out, missing := mergetag.Render(s, vals)
		for _, raw := range missing {
			if !seen[raw] {
				seen[raw] = true
				unresolved = append(unresolved, raw)
			}
		}
		return out
	}

	if sample {
		for _, s := range []string{t.Subject, t.PreviewText, t.EmailOutputHTML, t.EmailOutputText} {
			for _, tag := range mergetag.Find(s) {
				if _, ok := vals[tag.Key()]; !ok {
					vals[tag.Key()] = "[" + tag.Field + "]"
				}
			}
		}
	}

	// Values are plain text; only the HTML rendition needs them escaped.
	htmlVals := make(map[string]string, len(vals))
	for k, v := range vals {
		htmlVals[k] = html.EscapeString(v)
	}

	p := preview{
		Subject:         render(t.Subject, vals),
		SubjectSegments: mergetag.Split(t.Subject),
		PreviewText:     render(t.PreviewText, vals),
		HTML:            render(t.EmailOutputHTML, htmlVals),
		Text:            render(t.EmailOutputText, vals),
		Unresolved:      unresolved,
	}
	if p.Unresolved == nil {
		p.Unresolved = []string{}
	}
	if p.SubjectSegments == nil {
		p.SubjectSegments = []mergetag.Segment{}
	}
	return p
}
