// Package settings routes the selected block to the form that edits it.
package settings

import (
	"pagebuilder/internal/domain"
	"pagebuilder/internal/layers"
)

// Store is the block store contract the settings surfaces work against.
type Store interface {
	layers.Store
	Selected() (domain.Block, bool)
	Update(id string, patch domain.Patch) error
}

type SurfaceKind string

const (
	SurfaceLayers      SurfaceKind = "layers"
	SurfaceEditor      SurfaceKind = "editor"
	SurfacePending     SurfaceKind = "pending"
	SurfacePlaceholder SurfaceKind = "placeholder"
)

// NoSettingsMessage is the placeholder text for a tag without an editor.
const NoSettingsMessage = "No settings available"

// Surface is what the settings sidebar shows. Exactly one of Layers and
// Editor is set for the matching kinds.
type Surface struct {
	Kind    SurfaceKind
	Layers  *layers.Panel
	Editor  *Editor
	Message string
}

// Dispatch picks the surface for the current selection: the layer panel
// when nothing is selected, otherwise the editor for the block's type.
func Dispatch(store Store, dir domain.PageDirectory) Surface {
	b, ok := store.Selected()
	if !ok {
		return Surface{Kind: SurfaceLayers, Layers: layers.New(store)}
	}
	if b.Content == nil {
		return Surface{Kind: SurfacePending}
	}
	ed, ok := EditorFor(b, func(p domain.Patch) error { return store.Update(b.ID, p) }, dir)
	if !ok {
		return Surface{Kind: SurfacePlaceholder, Message: NoSettingsMessage}
	}
	return Surface{Kind: SurfaceEditor, Editor: ed}
}

// EditorFor builds the form for b. Only link-bearing variants see dir.
func EditorFor(b domain.Block, update UpdateFunc, dir domain.PageDirectory) (*Editor, bool) {
	title, fields, ok := editorSpec(b.Type)
	if !ok {
		return nil, false
	}
	ed := &Editor{block: b, title: title, fields: fields, update: update}
	if b.Type.HasLink() {
		ed.dir = dir
	}
	return ed, true
}
