// Package layers presents the block sequence as a depth-ordered layer list.
package layers

import (
	"pagebuilder/internal/domain"
	"pagebuilder/internal/editor"
)

// Store is the part of the block store the panel reads and drives.
type Store interface {
	Blocks() []domain.Block
	SelectedID() string
	Select(id string) (domain.Block, bool)
	Delete(id string) bool
	Reorder(id string, dir editor.Direction) bool
}

// Row is one entry of the layer list. Index is a display position counting
// down from the block count; it is derived on every render and never stored.
type Row struct {
	Index    int              `json:"index"`
	ID       string           `json:"id"`
	Type     domain.BlockType `json:"type"`
	Summary  string           `json:"summary"`
	Selected bool             `json:"selected"`
	CanRaise bool             `json:"canRaise"`
	CanLower bool             `json:"canLower"`
}

type Panel struct {
	store Store
}

func New(store Store) *Panel {
	return &Panel{store: store}
}

// Rows lists blocks frontmost first.
func (p *Panel) Rows() []Row {
	blocks := p.store.Blocks()
	selected := p.store.SelectedID()
	n := len(blocks)
	rows := make([]Row, 0, n)
	for i := n - 1; i >= 0; i-- {
		b := blocks[i]
		rows = append(rows, Row{
			Index:    i + 1,
			ID:       b.ID,
			Type:     b.Type,
			Summary:  b.Summary(),
			Selected: b.ID == selected,
			CanRaise: i < n-1,
			CanLower: i > 0,
		})
	}
	return rows
}

func (p *Panel) Select(id string) bool {
	_, ok := p.store.Select(id)
	return ok
}

func (p *Panel) Delete(id string) bool {
	return p.store.Delete(id)
}

// Forward moves the block one layer up.
func (p *Panel) Forward(id string) bool {
	return p.store.Reorder(id, editor.Forward)
}

// Backward moves the block one layer down.
func (p *Panel) Backward(id string) bool {
	return p.store.Reorder(id, editor.Backward)
}
