package settings

import (
	"encoding/json"
	"fmt"
	"slices"

	"pagebuilder/internal/domain"
)

// Field is one editable input of a settings form with its current value.
type Field struct {
	Name    string    `json:"name"`
	Label   string    `json:"label"`
	Kind    FieldKind `json:"kind"`
	Value   any       `json:"value"`
	Options []string  `json:"options,omitempty"`
	Min     *float64  `json:"min,omitempty"`
	Max     *float64  `json:"max,omitempty"`
	// Link is set for link fields only.
	Link *LinkField `json:"link,omitempty"`
}

// LinkField is what the link input shows: the resolved label and, for the
// page selector, every page of the directory.
type LinkField struct {
	Set        bool                  `json:"set"`
	Resolution domain.LinkResolution `json:"resolution"`
	Targets    []domain.LinkTarget   `json:"targets"`
}

// UpdateFunc applies a partial content update to the edited block.
type UpdateFunc func(patch domain.Patch) error

// Editor is the settings form bound to one block.
type Editor struct {
	block  domain.Block
	title  string
	fields []fieldSpec
	update UpdateFunc
	dir    domain.PageDirectory
}

func (e *Editor) Block() domain.Block { return e.block }
func (e *Editor) Title() string       { return e.title }

// Fields lists the form inputs in display order.
func (e *Editor) Fields() ([]Field, error) {
	raw, err := domain.EncodeContent(e.block.Content)
	if err != nil {
		return nil, err
	}
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("read %s fields: %w", e.block.Type, err)
	}

	out := make([]Field, 0, len(e.fields))
	for _, f := range e.fields {
		field := Field{
			Name:    f.name,
			Label:   f.label,
			Kind:    f.kind,
			Value:   values[f.name],
			Options: f.options,
			Min:     f.min,
			Max:     f.max,
		}
		if f.kind == FieldLink {
			field.Link = e.linkField()
		}
		out = append(out, field)
	}
	return out, nil
}

func (e *Editor) linkField() *LinkField {
	ref, ok := domain.ContentLink(e.block.Content)
	lf := &LinkField{Set: ok, Targets: domain.LinkTargets(e.dir, ref)}
	if ok {
		lf.Resolution = domain.ResolveLink(ref, e.dir)
	}
	return lf
}

func (e *Editor) has(name string) bool {
	return slices.ContainsFunc(e.fields, func(f fieldSpec) bool { return f.name == name })
}

// Set issues a single-field update for the edited block.
func (e *Editor) Set(field string, value any) error {
	if !e.has(field) {
		return fmt.Errorf("%w: %s.%s", domain.ErrUnknownField, e.block.Type, field)
	}
	return e.update(domain.Patch{field: value})
}

// SetLink points the block's link at a URL or a page. Switching kind replaces
// the value, so a page id never ends up in a URL link or the reverse.
func (e *Editor) SetLink(kind domain.LinkKind, value string) error {
	if !e.has("link") {
		return fmt.Errorf("%w: %s.link", domain.ErrUnknownField, e.block.Type)
	}
	ref := domain.LinkRef{Kind: kind, Value: value}
	if err := ref.Validate(); err != nil {
		return err
	}
	return e.update(domain.Patch{"link": ref})
}

// ClearLink removes an optional link. Buttons always carry one, so theirs is
// reset to an empty URL instead.
func (e *Editor) ClearLink() error {
	if !e.has("link") {
		return fmt.Errorf("%w: %s.link", domain.ErrUnknownField, e.block.Type)
	}
	if e.block.Type == domain.BlockTypeButton {
		return e.update(domain.Patch{"link": domain.URLLink("")})
	}
	return e.update(domain.Patch{"link": nil})
}
