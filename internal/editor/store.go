// Package editor holds the block sequence of the page being edited.
package editor

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/migrate"
)

type ChangeKind string

const (
	ChangeLoaded    ChangeKind = "loaded"
	ChangeAdded     ChangeKind = "added"
	ChangeUpdated   ChangeKind = "updated"
	ChangeDeleted   ChangeKind = "deleted"
	ChangeReordered ChangeKind = "reordered"
	ChangeSelection ChangeKind = "selection"
	ChangeMigrated  ChangeKind = "migrated"
)

// Change is delivered to subscribers after every effective mutation.
type Change struct {
	Kind    ChangeKind
	PageID  string
	BlockID string
}

type entry struct {
	id        string
	typ       domain.BlockType
	raw       json.RawMessage
	content   domain.BlockContent
	err       error
	createdAt time.Time
	updatedAt time.Time
}

// Store owns the ordered block sequence and the selection of one page at a
// time. The sequence order is the depth order: index 0 is the back.
//
// Every method takes the same lock, so operations never interleave.
// Subscribers are called after the lock is released.
type Store struct {
	mu       sync.Mutex
	pageID   string
	entries  []*entry
	selected string
	used     map[string]struct{}
	dirty    bool
	version  uint64

	newID  func() string
	now    func() time.Time
	subs   map[int]func(Change)
	nextID int
}

type Option func(*Store)

// WithIDGenerator replaces uuid generation. Ids already handed out in this
// session are skipped.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

func New(opts ...Option) *Store {
	s := &Store{
		used:  make(map[string]struct{}),
		newID: uuid.NewString,
		now:   time.Now,
		subs:  make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for change notifications and returns its cancel func.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// unlockAndNotify releases the lock taken by the caller and then delivers changes.
func (s *Store) unlockAndNotify(changes ...Change) {
	subs := make([]func(Change), 0, len(s.subs))
	keys := make([]int, 0, len(s.subs))
	for k := range s.subs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		subs = append(subs, s.subs[k])
	}
	s.mu.Unlock()
	for _, c := range changes {
		for _, fn := range subs {
			fn(c)
		}
	}
}

// ── Page lifecycle ──────────────────────────────────────────

// Load switches to another page. The previous sequence and selection are
// dropped; stored blocks are normalized lazily on first read.
func (s *Store) Load(pageID string, stored []domain.StoredBlock) {
	s.mu.Lock()
	s.pageID = pageID
	s.selected = ""
	s.dirty = false
	s.version++
	s.entries = make([]*entry, 0, len(stored))
	seen := make(map[string]struct{}, len(stored))
	for _, sb := range stored {
		if _, dup := seen[sb.ID]; dup || sb.ID == "" {
			continue
		}
		seen[sb.ID] = struct{}{}
		s.used[sb.ID] = struct{}{}
		s.entries = append(s.entries, &entry{
			id:        sb.ID,
			typ:       sb.Type,
			raw:       slices.Clone(sb.Content),
			createdAt: sb.CreatedAt,
			updatedAt: sb.UpdatedAt,
		})
	}
	s.unlockAndNotify(Change{Kind: ChangeLoaded, PageID: pageID})
}

func (s *Store) PageID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageID
}

// Dirty reports whether the sequence changed since the last load or save.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Snapshot is the persisted form of the sequence at one version.
type Snapshot struct {
	PageID  string
	Version uint64
	Blocks  []domain.StoredBlock
}

// Snapshot encodes the sequence for the persistence layer. Blocks whose
// content never decoded are written back verbatim.
func (s *Store) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{PageID: s.pageID, Version: s.version, Blocks: make([]domain.StoredBlock, 0, len(s.entries))}
	for i, e := range s.entries {
		raw := slices.Clone(e.raw)
		if e.content != nil {
			var err error
			if raw, err = domain.EncodeContent(e.content); err != nil {
				return Snapshot{}, fmt.Errorf("snapshot block %s: %w", e.id, err)
			}
		}
		snap.Blocks = append(snap.Blocks, domain.StoredBlock{
			ID:        e.id,
			PageID:    s.pageID,
			Type:      e.typ,
			Content:   raw,
			SortOrder: i,
			CreatedAt: e.createdAt,
			UpdatedAt: e.updatedAt,
		})
	}
	return snap, nil
}

// MarkSaved clears the dirty flag if nothing changed since snap was taken.
func (s *Store) MarkSaved(snap Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.PageID != s.pageID || snap.Version != s.version {
		return false
	}
	s.dirty = false
	return true
}

// ── Reads ───────────────────────────────────────────────────

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Blocks returns a copy of the sequence in render order, back to front.
func (s *Store) Blocks() []domain.Block {
	s.mu.Lock()
	var changes []Change
	out := make([]domain.Block, 0, len(s.entries))
	for _, e := range s.entries {
		if c, ok := s.ensure(e); ok {
			changes = append(changes, c)
		}
		out = append(out, s.block(e))
	}
	s.unlockAndNotify(changes...)
	return out
}

func (s *Store) Get(id string) (domain.Block, bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return domain.Block{}, false
	}
	e := s.entries[i]
	c, migrated := s.ensure(e)
	b := s.block(e)
	if migrated {
		s.unlockAndNotify(c)
	} else {
		s.mu.Unlock()
	}
	return b, true
}

// Index returns the position of id in the sequence, or -1.
func (s *Store) Index(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id)
}

// ── Selection ───────────────────────────────────────────────

// Select makes id the selected block. An unknown id clears the selection.
func (s *Store) Select(id string) (domain.Block, bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		if s.selected == "" {
			s.mu.Unlock()
			return domain.Block{}, false
		}
		s.selected = ""
		s.unlockAndNotify(Change{Kind: ChangeSelection, PageID: s.pageID})
		return domain.Block{}, false
	}
	var changes []Change
	e := s.entries[i]
	if c, ok := s.ensure(e); ok {
		changes = append(changes, c)
	}
	if s.selected != id {
		s.selected = id
		changes = append(changes, Change{Kind: ChangeSelection, PageID: s.pageID, BlockID: id})
	}
	b := s.block(e)
	s.unlockAndNotify(changes...)
	return b, true
}

func (s *Store) ClearSelection() {
	s.mu.Lock()
	if s.selected == "" {
		s.mu.Unlock()
		return
	}
	s.selected = ""
	s.unlockAndNotify(Change{Kind: ChangeSelection, PageID: s.pageID})
}

// Selected returns the selected block. Its Content is nil when the stored
// content could not be decoded.
func (s *Store) Selected() (domain.Block, bool) {
	s.mu.Lock()
	i := s.indexOf(s.selected)
	if i < 0 {
		s.mu.Unlock()
		return domain.Block{}, false
	}
	e := s.entries[i]
	c, migrated := s.ensure(e)
	b := s.block(e)
	if migrated {
		s.unlockAndNotify(c)
	} else {
		s.mu.Unlock()
	}
	return b, true
}

func (s *Store) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// ── Mutations ───────────────────────────────────────────────

// Add creates a block of type t with default content. It is appended at the
// front unless an index is given; the index is clamped to the sequence.
func (s *Store) Add(t domain.BlockType, at ...int) (domain.Block, error) {
	content, err := domain.DefaultContent(t)
	if err != nil {
		return domain.Block{}, fmt.Errorf("add block: %w", err)
	}

	s.mu.Lock()
	id := s.freshID()
	now := s.now()
	e := &entry{id: id, typ: t, content: content, createdAt: now, updatedAt: now}

	pos := len(s.entries)
	if len(at) > 0 {
		pos = min(max(at[0], 0), len(s.entries))
	}
	s.entries = slices.Insert(s.entries, pos, e)
	s.touch()
	b := s.block(e)
	s.unlockAndNotify(Change{Kind: ChangeAdded, PageID: s.pageID, BlockID: id})
	return b, nil
}

// Update merges patch into the content of id by shallow key replacement. An
// unknown id is ignored. A patch the variant cannot hold is rejected and the
// content stays as it was.
func (s *Store) Update(id string, patch domain.Patch) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	e := s.entries[i]
	var changes []Change
	if c, ok := s.ensure(e); ok {
		changes = append(changes, c)
	}
	if e.content == nil {
		s.unlockAndNotify(changes...)
		return fmt.Errorf("update block %s: %w", id, e.err)
	}
	if len(patch) == 0 {
		s.unlockAndNotify(changes...)
		return nil
	}
	next, err := domain.ApplyPatch(e.content, patch)
	if err != nil {
		s.unlockAndNotify(changes...)
		return fmt.Errorf("update block %s: %w", id, err)
	}
	e.content = next
	e.updatedAt = s.now()
	s.touch()
	changes = append(changes, Change{Kind: ChangeUpdated, PageID: s.pageID, BlockID: id})
	s.unlockAndNotify(changes...)
	return nil
}

// Delete removes id and reports whether it existed. Deleting the selected
// block clears the selection.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	s.touch()
	changes := []Change{{Kind: ChangeDeleted, PageID: s.pageID, BlockID: id}}
	if s.selected == id {
		s.selected = ""
		changes = append(changes, Change{Kind: ChangeSelection, PageID: s.pageID})
	}
	s.unlockAndNotify(changes...)
	return true
}

// Reorder moves id in depth order and reports whether anything moved. Unknown
// ids and moves past either end are no-ops.
func (s *Store) Reorder(id string, dir Direction) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	j, ok := dir.move(i, len(s.entries))
	if !ok {
		s.mu.Unlock()
		return false
	}
	e := s.entries[i]
	s.entries = slices.Delete(s.entries, i, i+1)
	s.entries = slices.Insert(s.entries, j, e)
	s.touch()
	s.unlockAndNotify(Change{Kind: ChangeReordered, PageID: s.pageID, BlockID: id})
	return true
}

// ── Internals (lock held) ───────────────────────────────────

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.entries, func(e *entry) bool { return e.id == id })
}

func (s *Store) freshID() string {
	for {
		id := s.newID()
		if _, taken := s.used[id]; !taken && id != "" {
			s.used[id] = struct{}{}
			return id
		}
	}
}

func (s *Store) touch() {
	s.dirty = true
	s.version++
}

// ensure normalizes and decodes stored content the first time the block is
// read in this session. A rewrite marks the page dirty.
func (s *Store) ensure(e *entry) (Change, bool) {
	if e.content != nil || e.err != nil {
		return Change{}, false
	}
	raw, changed, err := migrate.Normalize(e.typ, e.raw)
	if err != nil {
		e.err = err
		return Change{}, false
	}
	content, err := domain.DecodeContent(e.typ, raw)
	if err != nil {
		e.err = err
		return Change{}, false
	}
	e.content = content
	if !changed {
		return Change{}, false
	}
	e.raw = raw
	s.touch()
	return Change{Kind: ChangeMigrated, PageID: s.pageID, BlockID: e.id}, true
}

func (s *Store) block(e *entry) domain.Block {
	b := domain.Block{ID: e.id, PageID: s.pageID, Type: e.typ, Content: e.content}
	return b.Clone()
}
