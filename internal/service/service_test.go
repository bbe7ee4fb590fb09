package service_test

import (
	"context"
	"testing"
	"time"

	"pagebuilder/internal/service"
)

// ─────────────────────────────────────────────────────────────
// saveGuard tests
// ─────────────────────────────────────────────────────────────

func TestSaveGuard_Acquire(t *testing.T) {
	var g service.ExportedSaveGuard

	if !g.Acquire("page-1") {
		t.Fatal("expected first Acquire to succeed")
	}
	if g.Acquire("page-1") {
		t.Fatal("expected second Acquire for same page to fail")
	}
	if !g.Acquire("page-2") {
		t.Fatal("expected Acquire for another page to succeed")
	}
	g.Release("page-1")
	g.Release("page-2")
	g.Release("page-2")

	if !g.Acquire("page-1") {
		t.Fatal("expected Acquire to succeed after release")
	}
	g.Release("page-1")
}

func TestSaveGuard_Wait(t *testing.T) {
	var g service.ExportedSaveGuard

	if !g.Acquire("page-a") {
		t.Fatal("expected acquire to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.Wait(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Release("page-a")
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Wait timed out")
	}
}

// ─────────────────────────────────────────────────────────────
// MockEmitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "test:event", map[string]string{"foo": "bar"})
	m.Emit(ctx, "test:event2", nil)

	if len(m.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(m.Events))
	}
	if m.Events[0].Event != "test:event" {
		t.Errorf("expected 'test:event', got %q", m.Events[0].Event)
	}
}

func TestMockEmitter_NamesAndReset(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "a", "first")
	m.Emit(ctx, "b", "second")

	names := m.Names()
	if len(names) != 2 || names[1] != "b" {
		t.Errorf("expected [a b], got %v", names)
	}
	m.Reset()
	if len(m.Names()) != 0 {
		t.Error("expected no events after Reset")
	}
}
