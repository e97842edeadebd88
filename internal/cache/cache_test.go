package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var got []string
	if ok, err := m.Get(ctx, "tables", &got); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := m.Set(ctx, "tables", []string{"loans", "borrowers"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	ok, err := m.Get(ctx, "tables", &got)
	if !ok || err != nil {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[0] != "loans" {
		t.Fatalf("unexpected value %v", got)
	}

	if err := m.Delete(ctx, "tables"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := m.Get(ctx, "tables", &got); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	if err := m.Set(ctx, "access", true, 10*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	var v bool
	if ok, _ := m.Get(ctx, "access", &v); !ok || !v {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(10 * time.Second)
	if ok, _ := m.Get(ctx, "access", &v); ok {
		t.Fatal("expected miss at expiry")
	}
	if _, present := m.items["access"]; present {
		t.Fatal("expired entry should be evicted")
	}
}

func TestMemoryZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	m := NewMemory()
	m.now = func() time.Time { return now }

	_ = m.Set(ctx, "k", 1, 0)
	now = now.Add(1000 * time.Hour)
	var v int
	if ok, _ := m.Get(ctx, "k", &v); !ok || v != 1 {
		t.Fatalf("expected persistent entry, got ok=%v v=%d", ok, v)
	}
}
