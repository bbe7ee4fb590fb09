package service

import (
	"context"
	"sync"
)

// ExportedSaveGuard lets _test packages exercise the guard.
type ExportedSaveGuard = saveGuard

// ─────────────────────────────────────────────────────────────
// saveGuard — one scheduled save per page at a time
// ─────────────────────────────────────────────────────────────

// saveGuard tracks pages with a scheduled save in progress, so a cron tick
// that overlaps a slow save is skipped instead of queued behind the
// EditorService lock.
type saveGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
	wg     sync.WaitGroup
}

// Acquire marks pageID as saving. It reports false when a save of the same
// page is already running.
func (g *saveGuard) Acquire(pageID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == nil {
		g.active = make(map[string]struct{})
	}
	if _, busy := g.active[pageID]; busy {
		return false
	}
	g.active[pageID] = struct{}{}
	g.wg.Add(1)
	return true
}

// Release ends a save started by a successful Acquire.
func (g *saveGuard) Release(pageID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.active[pageID]; !ok {
		return
	}
	delete(g.active, pageID)
	g.wg.Done()
}

// Wait blocks until in-flight saves finish or ctx is done.
func (g *saveGuard) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
