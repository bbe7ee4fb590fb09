package app

// ─────────────────────────────────────────────────────────────
// Block Handlers — the canvas, toolbox and drag sources
// ─────────────────────────────────────────────────────────────

import (
	"pagebuilder/internal/domain"
)

// GetBlocks returns the open page's blocks from back to front.
func (a *App) GetBlocks() []domain.Block {
	return a.editor.Blocks()
}

// AddBlock handles a toolbox click: the block goes in front of all others.
func (a *App) AddBlock(blockType string) (domain.Block, error) {
	return a.editor.AddBlock(blockType)
}

// DropBlock handles a drop from a drag source at a depth index.
func (a *App) DropBlock(blockType string, index int) (domain.Block, error) {
	return a.editor.DropBlock(blockType, index)
}

// UpdateBlock merges patch into the block's content.
func (a *App) UpdateBlock(id string, patch map[string]any) error {
	return a.editor.UpdateBlock(id, domain.Patch(patch))
}

func (a *App) DeleteBlock(id string) bool {
	return a.editor.DeleteBlock(id)
}

func (a *App) ReorderBlock(id, direction string) (bool, error) {
	return a.editor.ReorderBlock(id, direction)
}

func (a *App) SelectBlock(id string) bool {
	_, ok := a.editor.SelectBlock(id)
	return ok
}

func (a *App) ClearSelection() {
	a.editor.ClearSelection()
}

// BlockTypes lists the toolbox entries.
func (a *App) BlockTypes() []domain.BlockType {
	return domain.AllBlockTypes()
}
