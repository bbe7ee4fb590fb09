package app

// ─────────────────────────────────────────────────────────────
// Settings Sidebar + Layers Handlers
// ─────────────────────────────────────────────────────────────

import (
	"pagebuilder/internal/domain"
	"pagebuilder/internal/layers"
	"pagebuilder/internal/settings"
)

// GetSettings returns what the settings sidebar shows for the selection.
func (a *App) GetSettings() (SettingsView, error) {
	surface := a.editor.Settings()
	view := SettingsView{Kind: surface.Kind, Message: surface.Message}
	switch surface.Kind {
	case settings.SurfaceLayers:
		view.Layers = surface.Layers.Rows()
	case settings.SurfaceEditor:
		fields, err := surface.Editor.Fields()
		if err != nil {
			return SettingsView{}, err
		}
		view.BlockID = surface.Editor.Block().ID
		view.Title = surface.Editor.Title()
		view.Fields = fields
	case settings.SurfacePending:
		view.BlockID = a.editor.Store().SelectedID()
	}
	return view, nil
}

// SetField issues a single-field update from a settings input.
func (a *App) SetField(blockID, field string, value any) error {
	ed, err := a.editor.Editor(blockID)
	if err != nil {
		return err
	}
	return ed.Set(field, value)
}

func (a *App) SetLink(blockID, kind, value string) error {
	ed, err := a.editor.Editor(blockID)
	if err != nil {
		return err
	}
	return ed.SetLink(domain.LinkKind(kind), value)
}

func (a *App) ClearLink(blockID string) error {
	ed, err := a.editor.Editor(blockID)
	if err != nil {
		return err
	}
	return ed.ClearLink()
}

func (a *App) ResolveLink(kind, value string) domain.LinkResolution {
	return domain.ResolveLink(domain.LinkRef{Kind: domain.LinkKind(kind), Value: value}, a.dir)
}

// LinkTargets lists the page selector options for a block's link.
func (a *App) LinkTargets(blockID string) []domain.LinkTarget {
	var ref domain.LinkRef
	if b, ok := a.editor.Block(blockID); ok && b.Content != nil {
		ref, _ = domain.ContentLink(b.Content)
	}
	return domain.LinkTargets(a.dir, ref)
}

// ── Layers ─────────────────────────────────────────────────

func (a *App) GetLayers() []layers.Row {
	return a.editor.Layers().Rows()
}

func (a *App) LayerSelect(id string) bool {
	return a.editor.Layers().Select(id)
}

func (a *App) LayerDelete(id string) bool {
	return a.editor.Layers().Delete(id)
}

func (a *App) LayerForward(id string) bool {
	return a.editor.Layers().Forward(id)
}

func (a *App) LayerBackward(id string) bool {
	return a.editor.Layers().Backward(id)
}
