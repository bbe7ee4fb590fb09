package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pagebuilder/internal/storage"
)

// EventEmitter allows the approval queue to notify the host UI.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Events emitted by the approval queue in channel mode.
const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

// ErrRejected is returned when the user rejects or lets an action time out.
var ErrRejected = errors.New("action rejected")

// PendingAction represents a destructive operation awaiting user approval.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"` // JSON with extra context (e.g. block IDs)
}

// actionResult is sent through the channel when user approves/rejects.
type actionResult struct {
	approved bool
}

// ApprovalStore is the cross-process approval table.
type ApprovalStore interface {
	Insert(ctx context.Context, a storage.Approval) error
	Status(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
}

// ApprovalQueue manages human-in-the-loop approval for destructive MCP tool calls.
// It supports two modes:
//   - In-process (app running MCP): uses channels + emitted events
//   - Store-based (standalone MCP): writes to mcp_approvals, polls for the result
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]chan actionResult
	emitter EventEmitter
	logger  *zap.Logger
	timeout time.Duration
	poll    time.Duration
	store   ApprovalStore
}

func NewApprovalQueue(emitter EventEmitter, timeout time.Duration, logger *zap.Logger) *ApprovalQueue {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &ApprovalQueue{
		pending: make(map[string]chan actionResult),
		emitter: emitter,
		logger:  logger,
		timeout: timeout,
		poll:    500 * time.Millisecond,
	}
}

// SetStore enables store-based approval mode for standalone MCP.
// The standalone process writes pending actions to the table and polls for results.
func (q *ApprovalQueue) SetStore(store ApprovalStore) {
	q.store = store
}

// Request sends an approval request and blocks until approved, rejected,
// timed out or ctx is done. A nil error means approved.
// metadata is optional JSON with extra context (e.g. block IDs for highlighting).
func (q *ApprovalQueue) Request(ctx context.Context, tool, description string, metadata ...string) error {
	id := uuid.New().String()
	meta := "{}"
	if len(metadata) > 0 && metadata[0] != "" {
		meta = metadata[0]
	}
	q.logger.Info("approval requested", zap.String("id", id), zap.String("tool", tool))

	if q.store != nil {
		return q.requestViaStore(ctx, id, tool, description, meta)
	}
	return q.requestViaChannel(ctx, id, tool, description, meta)
}

func (q *ApprovalQueue) requestViaStore(ctx context.Context, id, tool, description, metadata string) error {
	err := q.store.Insert(ctx, storage.Approval{
		ID:          id,
		Tool:        tool,
		Description: description,
		Metadata:    metadata,
	})
	if err != nil {
		return err
	}
	// the row is gone once we return, whatever the outcome
	defer q.store.Delete(context.WithoutCancel(ctx), id)

	deadline := time.NewTimer(q.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status, err := q.store.Status(ctx, id)
			if err != nil {
				q.logger.Warn("approval status read failed", zap.String("id", id), zap.Error(err))
				continue
			}
			switch status {
			case storage.ApprovalApproved:
				return nil
			case storage.ApprovalRejected:
				return fmt.Errorf("%w by user: %s", ErrRejected, tool)
			}
		case <-deadline.C:
			return fmt.Errorf("%w: timed out after %s: %s", ErrRejected, q.timeout, tool)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (q *ApprovalQueue) requestViaChannel(ctx context.Context, id, tool, description, metadata string) error {
	ch := make(chan actionResult, 1)

	q.mu.Lock()
	q.pending[id] = ch
	q.mu.Unlock()
	defer q.cleanup(id)

	q.emitter.Emit(ctx, EventApprovalRequired, PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Metadata:    metadata,
	})

	select {
	case result := <-ch:
		if !result.approved {
			return fmt.Errorf("%w by user: %s", ErrRejected, tool)
		}
		return nil
	case <-time.After(q.timeout):
		q.emitter.Emit(ctx, EventApprovalDismissed, map[string]string{"id": id})
		return fmt.Errorf("%w: timed out after %s: %s", ErrRejected, q.timeout, tool)
	case <-ctx.Done():
		q.emitter.Emit(context.WithoutCancel(ctx), EventApprovalDismissed, map[string]string{"id": id})
		return ctx.Err()
	}
}

// Approve marks a pending action as approved (in-process mode).
func (q *ApprovalQueue) Approve(actionID string) bool {
	return q.resolve(actionID, true)
}

// Reject marks a pending action as rejected (in-process mode).
func (q *ApprovalQueue) Reject(actionID string) bool {
	return q.resolve(actionID, false)
}

func (q *ApprovalQueue) resolve(actionID string, approved bool) bool {
	q.mu.Lock()
	ch, ok := q.pending[actionID]
	q.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- actionResult{approved: approved}:
		return true
	default:
		return false
	}
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
