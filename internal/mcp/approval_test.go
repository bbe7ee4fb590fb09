package mcpserver

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pagebuilder/internal/storage"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []string
	last   chan PendingAction
}

func (e *recordingEmitter) Emit(_ context.Context, event string, data any) {
	e.mu.Lock()
	e.events = append(e.events, event)
	e.mu.Unlock()
	if a, ok := data.(PendingAction); ok {
		e.last <- a
	}
}

func (e *recordingEmitter) names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

func TestApprovalQueue_ChannelApprove(t *testing.T) {
	em := &recordingEmitter{last: make(chan PendingAction, 1)}
	q := NewApprovalQueue(em, time.Second, zap.NewNop())

	go func() {
		a := <-em.last
		assert.Equal(t, "delete_block", a.Tool)
		assert.Equal(t, `{"blockIds":["b1"]}`, a.Metadata)
		q.Approve(a.ID)
	}()
	require.NoError(t, q.Request(context.Background(), "delete_block", "Delete b1", `{"blockIds":["b1"]}`))
}

func TestApprovalQueue_ChannelReject(t *testing.T) {
	em := &recordingEmitter{last: make(chan PendingAction, 1)}
	q := NewApprovalQueue(em, time.Second, zap.NewNop())

	go func() { q.Reject((<-em.last).ID) }()
	err := q.Request(context.Background(), "delete_block", "Delete b1")
	assert.ErrorIs(t, err, ErrRejected)
}

func TestApprovalQueue_ChannelTimeout(t *testing.T) {
	em := &recordingEmitter{last: make(chan PendingAction, 1)}
	q := NewApprovalQueue(em, 50*time.Millisecond, zap.NewNop())

	err := q.Request(context.Background(), "batch_delete_blocks", "Delete 2 blocks")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, []string{EventApprovalRequired, EventApprovalDismissed}, em.names())

	// late answers are ignored
	a := <-em.last
	assert.False(t, q.Approve(a.ID))
}

func TestApprovalQueue_ChannelContextCancelled(t *testing.T) {
	em := &recordingEmitter{last: make(chan PendingAction, 1)}
	q := NewApprovalQueue(em, time.Minute, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-em.last
		cancel()
	}()
	err := q.Request(ctx, "delete_block", "Delete b1")
	assert.ErrorIs(t, err, context.Canceled)
}

func newApprovalStore(t *testing.T) *storage.ApprovalStore {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "approvals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.NewApprovalStore(db)
}

// answerFirst resolves the first pending approval it finds, as the app does
// for a standalone MCP process.
func answerFirst(t *testing.T, store *storage.ApprovalStore, approve bool) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		pending, err := store.ListPending(ctx)
		if err == nil && len(pending) > 0 {
			ok, err := store.Resolve(ctx, pending[0].ID, approve)
			assert.NoError(t, err)
			assert.True(t, ok)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("no pending approval appeared")
}

func TestApprovalQueue_StoreMode(t *testing.T) {
	for _, approve := range []bool{true, false} {
		store := newApprovalStore(t)
		q := NewApprovalQueue(nil, 5*time.Second, zap.NewNop())
		q.SetStore(store)
		q.poll = 10 * time.Millisecond

		done := make(chan struct{})
		go func() {
			defer close(done)
			answerFirst(t, store, approve)
		}()
		err := q.Request(context.Background(), "delete_block", "Delete b1")
		<-done
		if approve {
			assert.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, ErrRejected)
		}

		pending, err := store.ListPending(context.Background())
		require.NoError(t, err)
		assert.Empty(t, pending, "row removed after the decision")
	}
}

func TestApprovalQueue_StoreModeTimeout(t *testing.T) {
	store := newApprovalStore(t)
	q := NewApprovalQueue(nil, 60*time.Millisecond, zap.NewNop())
	q.SetStore(store)
	q.poll = 10 * time.Millisecond

	err := q.Request(context.Background(), "delete_block", "Delete b1")
	assert.ErrorIs(t, err, ErrRejected)
	pending, err := store.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}
