package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"pagebuilder/internal/directory"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/editor"
	"pagebuilder/internal/layers"
	"pagebuilder/internal/logging"
	"pagebuilder/internal/settings"
)

// ─────────────────────────────────────────────────────────────
// Editor Service — the editing session of the active page
// ─────────────────────────────────────────────────────────────

// ErrStalePage is returned by CommitIfDirty when the stored blocks of the page
// changed since the session last loaded or saved them.
var ErrStalePage = errors.New("page changed in storage since it was loaded")

// EditorService owns the block store of the page being edited and moves its
// sequence between the store and the block repository.
type EditorService struct {
	store   *editor.Store
	pages   domain.ProjectStore
	blocks  domain.BlockRepository
	dir     domain.PageDirectory
	emitter EventEmitter
	logger  *zap.Logger

	// io serializes load and save against the repository.
	io          sync.Mutex
	mu          sync.Mutex
	ctx         context.Context
	fingerprint string
	unsubscribe func()
}

// NewEditorService creates an EditorService. dir may be a
// *directory.StoreDirectory, in which case opening a page switches it to the
// page's project.
func NewEditorService(store *editor.Store, pages domain.ProjectStore, blocks domain.BlockRepository, dir domain.PageDirectory, emitter EventEmitter, logger *zap.Logger) *EditorService {
	s := &EditorService{
		store:   store,
		pages:   pages,
		blocks:  blocks,
		dir:     dir,
		emitter: emitter,
		logger:  logging.Component(logger, "editor"),
		ctx:     context.Background(),
	}
	s.unsubscribe = store.Subscribe(s.onChange)
	return s
}

// Bind sets the context store change events are emitted with.
func (s *EditorService) Bind(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
}

// Close stops forwarding store changes.
func (s *EditorService) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *EditorService) emitCtx() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *EditorService) onChange(c editor.Change) {
	ctx := s.emitCtx()
	payload := map[string]string{"pageId": c.PageID, "blockId": c.BlockID, "kind": string(c.Kind)}
	switch c.Kind {
	case editor.ChangeSelection:
		s.emitter.Emit(ctx, EventSelectionChanged, payload)
	case editor.ChangeLoaded:
		// page:opened / page:reloaded are emitted by the caller
	default:
		s.emitter.Emit(ctx, EventBlocksChanged, payload)
	}
}

// ── Session ────────────────────────────────────────────────

// Store returns the underlying block store.
func (s *EditorService) Store() *editor.Store { return s.store }

// Directory returns the page directory link editors resolve against.
func (s *EditorService) Directory() domain.PageDirectory { return s.dir }

// PageID returns the page being edited, or "" before the first OpenPage.
func (s *EditorService) PageID() string { return s.store.PageID() }

// Dirty reports whether the session holds unsaved changes.
func (s *EditorService) Dirty() bool { return s.store.Dirty() }

// OpenPage saves the current page if it has unsaved changes, then loads
// pageID into the store.
func (s *EditorService) OpenPage(ctx context.Context, pageID string) (*domain.Page, error) {
	page, err := s.pages.GetPage(pageID)
	if err != nil {
		return nil, err
	}

	s.io.Lock()
	defer s.io.Unlock()

	if s.store.Dirty() {
		if err := s.save(ctx, false); err != nil {
			return nil, fmt.Errorf("save page %s: %w", s.store.PageID(), err)
		}
	}
	if err := s.load(ctx, pageID); err != nil {
		return nil, err
	}
	if sd, ok := s.dir.(*directory.StoreDirectory); ok && sd.ProjectID() != page.ProjectID {
		if err := sd.SetProject(page.ProjectID); err != nil {
			s.logger.Warn("page directory refresh failed", zap.String("projectId", page.ProjectID), zap.Error(err))
		}
	}
	s.logger.Info("page opened", zap.String("pageId", pageID), zap.Int("blocks", s.store.Len()))
	s.emitter.Emit(ctx, EventPageOpened, map[string]string{"pageId": pageID, "projectId": page.ProjectID})
	return page, nil
}

// ClosePage drops the session without saving, e.g. when its page is deleted.
func (s *EditorService) ClosePage() {
	s.io.Lock()
	defer s.io.Unlock()
	s.store.Load("", nil)
	s.mu.Lock()
	s.fingerprint = ""
	s.mu.Unlock()
}

func (s *EditorService) load(ctx context.Context, pageID string) error {
	stored, err := s.blocks.ListPageBlocks(ctx, pageID)
	if err != nil {
		return fmt.Errorf("load blocks: %w", err)
	}
	fp, err := s.blocks.PageFingerprint(ctx, pageID)
	if err != nil {
		return fmt.Errorf("fingerprint page: %w", err)
	}
	s.store.Load(pageID, stored)
	s.mu.Lock()
	s.fingerprint = fp
	s.mu.Unlock()
	return nil
}

// Save writes the whole sequence of the active page, replacing whatever is
// stored.
func (s *EditorService) Save(ctx context.Context) error {
	s.io.Lock()
	defer s.io.Unlock()
	return s.save(ctx, false)
}

// SaveIfDirty saves only when the session has unsaved changes. It reports
// whether a save happened.
func (s *EditorService) SaveIfDirty(ctx context.Context) (bool, error) {
	return s.saveIfDirty(ctx, false)
}

// CommitIfDirty is SaveIfDirty for sessions that share the page with other
// writers. It refuses with ErrStalePage instead of overwriting blocks another
// process stored after this session loaded them; the session stays dirty.
func (s *EditorService) CommitIfDirty(ctx context.Context) (bool, error) {
	return s.saveIfDirty(ctx, true)
}

func (s *EditorService) saveIfDirty(ctx context.Context, checkStale bool) (bool, error) {
	s.io.Lock()
	defer s.io.Unlock()
	if !s.store.Dirty() {
		return false, nil
	}
	if err := s.save(ctx, checkStale); err != nil {
		return false, err
	}
	return true, nil
}

func (s *EditorService) save(ctx context.Context, checkStale bool) error {
	snap, err := s.store.Snapshot()
	if err != nil {
		return err
	}
	if snap.PageID == "" {
		return fmt.Errorf("save: no page open")
	}
	if checkStale {
		fp, err := s.blocks.PageFingerprint(ctx, snap.PageID)
		if err != nil {
			return fmt.Errorf("fingerprint page: %w", err)
		}
		s.mu.Lock()
		stale := fp != s.fingerprint
		s.mu.Unlock()
		if stale {
			return fmt.Errorf("save page %s: %w", snap.PageID, ErrStalePage)
		}
	}
	if err := s.blocks.ReplacePageBlocks(ctx, snap.PageID, snap.Blocks); err != nil {
		return fmt.Errorf("save blocks: %w", err)
	}
	fp, err := s.blocks.PageFingerprint(ctx, snap.PageID)
	if err != nil {
		return fmt.Errorf("fingerprint page: %w", err)
	}
	s.mu.Lock()
	s.fingerprint = fp
	s.mu.Unlock()
	if !s.store.MarkSaved(snap) {
		s.logger.Debug("page changed during save", zap.String("pageId", snap.PageID))
	}
	s.logger.Debug("page saved", zap.String("pageId", snap.PageID), zap.Int("blocks", len(snap.Blocks)))
	s.emitter.Emit(ctx, EventPageSaved, map[string]any{"pageId": snap.PageID, "blocks": len(snap.Blocks)})
	return nil
}

// Reload replaces the session with the stored blocks of the active page,
// dropping unsaved changes.
func (s *EditorService) Reload(ctx context.Context) error {
	s.io.Lock()
	defer s.io.Unlock()
	pageID := s.store.PageID()
	if pageID == "" {
		return nil
	}
	if err := s.load(ctx, pageID); err != nil {
		return err
	}
	s.logger.Info("page reloaded, unsaved changes dropped", zap.String("pageId", pageID))
	s.emitter.Emit(ctx, EventPageReloaded, map[string]string{"pageId": pageID})
	return nil
}

// SyncExternal reloads the active page when another process changed its
// stored blocks. A session with unsaved changes is never overwritten.
func (s *EditorService) SyncExternal(ctx context.Context) (bool, error) {
	s.io.Lock()
	defer s.io.Unlock()

	pageID := s.store.PageID()
	if pageID == "" || s.store.Dirty() {
		return false, nil
	}
	fp, err := s.blocks.PageFingerprint(ctx, pageID)
	if err != nil {
		return false, fmt.Errorf("fingerprint page: %w", err)
	}
	s.mu.Lock()
	same := fp == s.fingerprint
	s.mu.Unlock()
	if same {
		return false, nil
	}
	if err := s.load(ctx, pageID); err != nil {
		return false, err
	}
	s.logger.Info("page reloaded after external change", zap.String("pageId", pageID))
	s.emitter.Emit(ctx, EventPageReloaded, map[string]string{"pageId": pageID})
	return true, nil
}

// ── Blocks ─────────────────────────────────────────────────

func (s *EditorService) Blocks() []domain.Block { return s.store.Blocks() }

func (s *EditorService) Block(id string) (domain.Block, bool) { return s.store.Get(id) }

// AddBlock appends a block of the named type with its default content, as a
// toolbox click does.
func (s *EditorService) AddBlock(blockType string) (domain.Block, error) {
	return s.add(blockType)
}

// DropBlock inserts a block dropped from the toolbox at index.
func (s *EditorService) DropBlock(blockType string, index int) (domain.Block, error) {
	return s.add(blockType, index)
}

func (s *EditorService) add(blockType string, at ...int) (domain.Block, error) {
	if s.store.PageID() == "" {
		return domain.Block{}, fmt.Errorf("add block: no page open")
	}
	t, err := domain.ParseBlockType(blockType)
	if err != nil {
		return domain.Block{}, err
	}
	return s.store.Add(t, at...)
}

func (s *EditorService) UpdateBlock(id string, patch domain.Patch) error {
	return s.store.Update(id, patch)
}

func (s *EditorService) DeleteBlock(id string) bool {
	return s.store.Delete(id)
}

// ReorderBlock moves a block by a direction name: front, back, forward or
// backward.
func (s *EditorService) ReorderBlock(id, direction string) (bool, error) {
	dir, err := editor.ParseDirection(direction)
	if err != nil {
		return false, err
	}
	return s.store.Reorder(id, dir), nil
}

// ── Selection and panels ───────────────────────────────────

func (s *EditorService) SelectBlock(id string) (domain.Block, bool) { return s.store.Select(id) }

func (s *EditorService) ClearSelection() { s.store.ClearSelection() }

func (s *EditorService) Selected() (domain.Block, bool) { return s.store.Selected() }

// Settings returns the surface the settings sidebar shows for the current
// selection.
func (s *EditorService) Settings() settings.Surface {
	return settings.Dispatch(s.store, s.dir)
}

// Editor returns the settings form of block id regardless of selection.
func (s *EditorService) Editor(id string) (*settings.Editor, error) {
	b, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("block %s: %w", id, domain.ErrNotFound)
	}
	if b.Content == nil {
		return nil, fmt.Errorf("block %s: %w", id, domain.ErrInvalidContent)
	}
	ed, ok := settings.EditorFor(b, func(p domain.Patch) error { return s.store.Update(id, p) }, s.dir)
	if !ok {
		return nil, fmt.Errorf("%s: %w", b.Type, domain.ErrUnknownBlockType)
	}
	return ed, nil
}

func (s *EditorService) Layers() *layers.Panel { return layers.New(s.store) }
