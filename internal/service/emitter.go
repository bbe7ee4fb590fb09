package service

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter — decouples services from the host UI
// ─────────────────────────────────────────────────────────────

// EventEmitter is an interface for emitting events to the host UI.
// Services receive this interface instead of a UI runtime handle,
// which makes them independently testable with a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Events emitted by the services.
const (
	EventBlocksChanged    = "blocks:changed"
	EventSelectionChanged = "selection:changed"
	EventPageOpened       = "page:opened"
	EventPageSaved        = "page:saved"
	EventPageReloaded     = "page:reloaded"
	EventProjectsChanged  = "projects:changed"
	EventPagesChanged     = "pages:changed"
)

// NoopEmitter drops every event. Used when no UI is attached.
type NoopEmitter struct{}

func (NoopEmitter) Emit(context.Context, string, any) {}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Names returns the recorded event names in order.
func (m *MockEmitter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		out = append(out, e.Event)
	}
	return out
}

// Reset drops the recorded events.
func (m *MockEmitter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = nil
}
