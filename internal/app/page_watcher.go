package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	mcpserver "pagebuilder/internal/mcp"
	"pagebuilder/internal/service"
)

// pageWatcher polls storage for changes made by other processes (e.g. a
// standalone MCP server): edits to the open page, the page list of its
// project, and pending approvals.
type pageWatcher struct {
	ctx      context.Context
	app      *App
	interval time.Duration

	mu        sync.Mutex
	lastPages string // pages fingerprint (count + max updated_at)
	projectID string
	stopCh    chan struct{}
	done      chan struct{}
	// Track emitted approval IDs to avoid infinite re-emission
	emittedApprovals map[string]bool
}

func newPageWatcher(ctx context.Context, app *App) *pageWatcher {
	return &pageWatcher{
		ctx:              ctx,
		app:              app,
		interval:         2 * time.Second,
		emittedApprovals: map[string]bool{},
	}
}

// Start begins the polling loop. Should be called once on app startup.
func (w *pageWatcher) Start() {
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	go w.pollLoop()
}

// Stop terminates the polling loop and waits for it to exit.
func (w *pageWatcher) Stop() {
	if w.stopCh == nil {
		return
	}
	close(w.stopCh)
	<-w.done
	w.stopCh = nil
}

func (w *pageWatcher) pollLoop() {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.stopCh:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *pageWatcher) check() {
	w.checkBlocks()
	w.checkPages()
	w.checkApprovals()
}

// ── Open page ──────────────────────────────────────────────

func (w *pageWatcher) checkBlocks() {
	if _, err := w.app.editor.SyncExternal(w.ctx); err != nil {
		w.app.logger.Warn("external change check failed", zap.Error(err))
	}
}

// ── Page list of the open page's project ───────────────────

func (w *pageWatcher) checkPages() {
	pageID := w.app.editor.PageID()
	if pageID == "" {
		return
	}
	page, err := w.app.projects.GetPage(pageID)
	if err != nil {
		return
	}
	pages, err := w.app.projects.ListPages(page.ProjectID)
	if err != nil {
		return
	}
	var latest time.Time
	for _, p := range pages {
		if p.UpdatedAt.After(latest) {
			latest = p.UpdatedAt
		}
	}
	fingerprint := fmt.Sprintf("%d:%s", len(pages), latest.UTC().Format(time.RFC3339Nano))

	w.mu.Lock()
	changed := w.projectID == page.ProjectID && w.lastPages != "" && w.lastPages != fingerprint
	w.projectID = page.ProjectID
	w.lastPages = fingerprint
	w.mu.Unlock()

	if changed {
		w.app.refreshDirectory()
		w.app.emitter.Emit(w.ctx, service.EventPagesChanged, map[string]string{"projectId": page.ProjectID})
	}
}

// ── Pending MCP approvals (cross-process IPC) ──────────────

func (w *pageWatcher) checkApprovals() {
	pending, err := w.app.backend.Approvals.ListPending(w.ctx)
	if err != nil {
		return
	}

	live := make(map[string]bool, len(pending))
	for _, p := range pending {
		live[p.ID] = true
		w.mu.Lock()
		alreadySent := w.emittedApprovals[p.ID]
		w.emittedApprovals[p.ID] = true
		w.mu.Unlock()
		if alreadySent {
			continue
		}
		w.app.emitter.Emit(w.ctx, mcpserver.EventApprovalRequired, mcpserver.PendingAction{
			ID:          p.ID,
			Tool:        p.Tool,
			Description: p.Description,
			CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
			Metadata:    p.Metadata,
		})
	}

	// Resolved or timed out approvals are deleted by the requesting process.
	var gone []string
	w.mu.Lock()
	for id := range w.emittedApprovals {
		if !live[id] {
			delete(w.emittedApprovals, id)
			gone = append(gone, id)
		}
	}
	w.mu.Unlock()
	for _, id := range gone {
		w.app.emitter.Emit(w.ctx, mcpserver.EventApprovalDismissed, map[string]string{"id": id})
	}
}
