package api

import (
	"context"
	"errors"
	"testing"

	"pricing-admin/internal/auth"
	"pricing-admin/internal/liveblocks"
	"pricing-admin/internal/store"
)

type fakeEmails struct {
	EmailTemplateStore
	templates map[string]store.EmailTemplate
	dupName   string
}

func (f *fakeEmails) GetEmailTemplate(_ context.Context, _ string, id string) (*store.EmailTemplate, error) {
	t, ok := f.templates[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (f *fakeEmails) DuplicateEmailTemplate(_ context.Context, _ string, id, name string) (*store.EmailTemplate, error) {
	f.dupName = name
	t := f.templates[id]
	t.ID = "copy"
	t.Name = name
	t.LiveblocksRoomID = nil
	return &t, nil
}

func (f *fakeEmails) SetEmailTemplateRoom(_ context.Context, _ string, id, roomID string) (string, error) {
	t := f.templates[id]
	if t.LiveblocksRoomID == nil {
		t.LiveblocksRoomID = &roomID
		f.templates[id] = t
	}
	return *t.LiveblocksRoomID, nil
}

type fakeRooms struct {
	rooms map[string]liveblocks.Room
	err   error
}

func (f *fakeRooms) EnsureRoom(_ context.Context, room liveblocks.Room) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.rooms[room.ID]; ok {
		return false, nil
	}
	f.rooms[room.ID] = room
	return true, nil
}

func seededEmails() *fakeEmails {
	return &fakeEmails{templates: map[string]store.EmailTemplate{
		"t1": {
			ID:              "t1",
			Name:            "Welcome",
			Subject:         "Hi {{contact:first_name}}",
			EmailOutputHTML: "<p>Loan {{deal:loan_amount}} for {{contact:first_name}}</p>",
			EmailOutputText: "Loan {{deal:loan_amount}}",
		},
	}}
}

func TestEmailPreview(t *testing.T) {
	app := &testApp{newTestApp(Handlers{EmailTemplates: NewEmailTemplateHandler(seededEmails(), nil)})}

	r := app.call(t, "POST", "/api/email-templates/t1/preview", auth.RoleMember,
		map[string]any{"values": map[string]string{"contact:first_name": "Ana"}})
	if r.Status != 200 {
		t.Fatalf("expected 200, got %d: %v", r.Status, r.Body)
	}
	d := r.data()
	if d["subject"] != "Hi Ana" {
		t.Fatalf("unexpected subject %v", d["subject"])
	}
	if d["html"] != "<p>Loan {{deal:loan_amount}} for Ana</p>" {
		t.Fatalf("unexpected html %v", d["html"])
	}
	unresolved, _ := d["unresolved"].([]any)
	if len(unresolved) != 1 || unresolved[0] != "{{deal:loan_amount}}" {
		t.Fatalf("unexpected unresolved %v", d["unresolved"])
	}
	if segs, _ := d["subject_segments"].([]any); len(segs) != 2 {
		t.Fatalf("expected 2 subject segments, got %v", d["subject_segments"])
	}
}

func TestEmailPreviewEscapesHTMLValues(t *testing.T) {
	app := &testApp{newTestApp(Handlers{EmailTemplates: NewEmailTemplateHandler(seededEmails(), nil)})}

	name := `<script>alert("x")</script> & Co`
	r := app.call(t, "POST", "/api/email-templates/t1/preview", auth.RoleMember,
		map[string]any{"values": map[string]string{"contact:first_name": name, "deal:loan_amount": "$500,000"}})
	if r.Status != 200 {
		t.Fatalf("expected 200, got %d: %v", r.Status, r.Body)
	}
	d := r.data()
	want := "<p>Loan $500,000 for &lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt; &amp; Co</p>"
	if d["html"] != want {
		t.Fatalf("unexpected html %v", d["html"])
	}
	if d["subject"] != "Hi "+name {
		t.Fatalf("subject should keep the raw value, got %v", d["subject"])
	}
}

func TestEmailPreviewSample(t *testing.T) {
	app := &testApp{newTestApp(Handlers{EmailTemplates: NewEmailTemplateHandler(seededEmails(), nil)})}

	r := app.call(t, "POST", "/api/email-templates/t1/preview", auth.RoleMember, map[string]any{"sample": true})
	d := r.data()
	if d["text"] != "Loan [loan_amount]" {
		t.Fatalf("unexpected text %v", d["text"])
	}
	if unresolved, _ := d["unresolved"].([]any); len(unresolved) != 0 {
		t.Fatalf("sample preview should resolve everything, got %v", unresolved)
	}
}

func TestDuplicateEmailTemplate(t *testing.T) {
	f := seededEmails()
	app := &testApp{newTestApp(Handlers{EmailTemplates: NewEmailTemplateHandler(f, nil)})}

	r := app.call(t, "POST", "/api/email-templates/t1/duplicate", auth.RoleMember, nil)
	if r.Status != 201 {
		t.Fatalf("expected 201, got %d", r.Status)
	}
	if f.dupName != "Welcome (Copy)" {
		t.Fatalf("unexpected copy name %q", f.dupName)
	}
}

func TestEnsureRoom(t *testing.T) {
	f := seededEmails()
	rooms := &fakeRooms{rooms: map[string]liveblocks.Room{}}
	app := &testApp{newTestApp(Handlers{EmailTemplates: NewEmailTemplateHandler(f, rooms)})}

	r := app.call(t, "POST", "/api/email-templates/t1/ensure-room", auth.RoleMember, nil)
	if r.Status != 200 {
		t.Fatalf("expected 200, got %d: %v", r.Status, r.Body)
	}
	if r.data()["room_id"] != "email-template-t1" || r.data()["created"] != true {
		t.Fatalf("unexpected result %v", r.data())
	}
	if rooms.rooms["email-template-t1"].Group != "org_1" {
		t.Fatalf("room should be scoped to the organization, got %+v", rooms.rooms)
	}

	r = app.call(t, "POST", "/api/email-templates/t1/ensure-room", auth.RoleMember, nil)
	if r.Status != 200 || r.data()["created"] != false || r.data()["room_id"] != "email-template-t1" {
		t.Fatalf("second call should reuse the room, got %d %v", r.Status, r.Body)
	}
}

func TestEnsureRoomFailures(t *testing.T) {
	unconfigured := &testApp{newTestApp(Handlers{EmailTemplates: NewEmailTemplateHandler(seededEmails(), nil)})}
	if r := unconfigured.call(t, "POST", "/api/email-templates/t1/ensure-room", auth.RoleMember, nil); r.Status != 503 {
		t.Fatalf("expected 503, got %d", r.Status)
	}

	failing := &testApp{newTestApp(Handlers{EmailTemplates: NewEmailTemplateHandler(seededEmails(), &fakeRooms{err: errors.New("liveblocks: HTTP 500")})})}
	if r := failing.call(t, "POST", "/api/email-templates/t1/ensure-room", auth.RoleMember, nil); r.Status != 502 {
		t.Fatalf("expected 502, got %d", r.Status)
	}
}

func TestUpdateEmailTemplateStatus(t *testing.T) {
	app := &testApp{newTestApp(Handlers{EmailTemplates: NewEmailTemplateHandler(seededEmails(), nil)})}
	r := app.call(t, "PATCH", "/api/email-templates/t1", auth.RoleMember, map[string]any{"status": "archived"})
	if r.Status != 422 {
		t.Fatalf("expected 422, got %d", r.Status)
	}
}
