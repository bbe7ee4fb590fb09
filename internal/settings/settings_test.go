package settings_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/directory"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/editor"
	"pagebuilder/internal/settings"
)

var dir = directory.NewStatic([]domain.Page{
	{ID: "home", Name: "Home"},
	{ID: "about", Name: "About"},
})

func TestDispatch_NoSelectionShowsLayers(t *testing.T) {
	s := editor.New()
	_, err := s.Add(domain.BlockTypeText)
	require.NoError(t, err)

	surface := settings.Dispatch(s, dir)
	assert.Equal(t, settings.SurfaceLayers, surface.Kind)
	require.NotNil(t, surface.Layers)
	assert.Len(t, surface.Layers.Rows(), 1)
}

func TestDispatch_DeleteSelectedFallsBackToLayers(t *testing.T) {
	s := editor.New()
	b, err := s.Add(domain.BlockTypeButton)
	require.NoError(t, err)
	s.Select(b.ID)
	require.Equal(t, settings.SurfaceEditor, settings.Dispatch(s, dir).Kind)

	s.Delete(b.ID)
	assert.Equal(t, settings.SurfaceLayers, settings.Dispatch(s, dir).Kind)
}

func TestDispatch_EveryTypeHasAnEditor(t *testing.T) {
	for _, bt := range domain.AllBlockTypes() {
		t.Run(string(bt), func(t *testing.T) {
			s := editor.New()
			b, err := s.Add(bt)
			require.NoError(t, err)
			s.Select(b.ID)

			surface := settings.Dispatch(s, dir)
			require.Equal(t, settings.SurfaceEditor, surface.Kind)
			assert.Equal(t, b.ID, surface.Editor.Block().ID)
			assert.NotEmpty(t, surface.Editor.Title())

			fields, err := surface.Editor.Fields()
			require.NoError(t, err)
			schema, err := domain.ContentFields(bt)
			require.NoError(t, err)
			var names []string
			for _, f := range fields {
				names = append(names, f.Name)
			}
			assert.ElementsMatch(t, schema, names, "every content field is editable")
		})
	}
}

func TestDispatch_PendingContent(t *testing.T) {
	s := editor.New()
	s.Load("p", []domain.StoredBlock{
		{ID: "bad", Type: domain.BlockTypeSpacer, Content: json.RawMessage(`{"height":"tall"}`)},
	})
	s.Select("bad")
	surface := settings.Dispatch(s, dir)
	assert.Equal(t, settings.SurfacePending, surface.Kind)
	assert.Nil(t, surface.Editor)
}

func TestEditorFor_UnknownTagIsPlaceholder(t *testing.T) {
	_, ok := settings.EditorFor(domain.Block{ID: "x", Type: "carousel"}, nil, dir)
	assert.False(t, ok)
}

func TestEditor_SetIssuesSingleFieldPatch(t *testing.T) {
	var patches []domain.Patch
	def, _ := domain.DefaultContent(domain.BlockTypeHeading)
	b := domain.NewBlock("h1", "p", def)
	ed, ok := settings.EditorFor(b, func(p domain.Patch) error {
		patches = append(patches, p)
		return nil
	}, dir)
	require.True(t, ok)

	require.NoError(t, ed.Set("fontSize", 40))
	require.NoError(t, ed.Set("text", "Hello"))
	assert.Equal(t, []domain.Patch{{"fontSize": 40}, {"text": "Hello"}}, patches)

	err := ed.Set("src", "x")
	assert.ErrorIs(t, err, domain.ErrUnknownField)
	assert.Len(t, patches, 2)
}

func TestEditor_RapidEditsToDifferentFieldsDoNotClobber(t *testing.T) {
	s := editor.New()
	b, err := s.Add(domain.BlockTypeShape)
	require.NoError(t, err)
	s.Select(b.ID)

	ed := settings.Dispatch(s, dir).Editor
	require.NotNil(t, ed)
	// The editor still holds the block as it was when dispatched.
	require.NoError(t, ed.Set("rotation", 45))
	require.NoError(t, ed.Set("opacity", 0.5))
	require.NoError(t, ed.Set("fill", "#000000"))

	got, _ := s.Get(b.ID)
	shape := got.Content.(domain.ShapeContent)
	assert.Equal(t, float64(45), shape.Rotation)
	assert.Equal(t, 0.5, shape.Opacity)
	assert.Equal(t, "#000000", shape.Fill)
}

func TestEditor_LinkField(t *testing.T) {
	s := editor.New()
	b, err := s.Add(domain.BlockTypeButton)
	require.NoError(t, err)
	s.Select(b.ID)

	ed := settings.Dispatch(s, dir).Editor
	require.NoError(t, ed.SetLink(domain.LinkKindPage, "about"))

	ed = settings.Dispatch(s, dir).Editor
	fields, err := ed.Fields()
	require.NoError(t, err)
	var link *settings.LinkField
	for _, f := range fields {
		if f.Kind == settings.FieldLink {
			link = f.Link
		}
	}
	require.NotNil(t, link)
	assert.True(t, link.Resolution.Resolved)
	assert.Equal(t, "About", link.Resolution.Label)
	require.Len(t, link.Targets, 2)
	assert.True(t, link.Targets[1].Selected)

	assert.Error(t, ed.SetLink("mailto", "x"))
}

func TestEditor_DanglingPageLink(t *testing.T) {
	s := editor.New()
	b, err := s.Add(domain.BlockTypeImage)
	require.NoError(t, err)
	require.NoError(t, s.Update(b.ID, domain.Patch{"link": domain.PageLink("page-42")}))
	s.Select(b.ID)

	fields, err := settings.Dispatch(s, dir).Editor.Fields()
	require.NoError(t, err)
	for _, f := range fields {
		if f.Kind != settings.FieldLink {
			continue
		}
		assert.True(t, f.Link.Set)
		assert.False(t, f.Link.Resolution.Resolved)
		assert.Equal(t, domain.UnresolvedPageLabel, f.Link.Resolution.Label)
		for _, tg := range f.Link.Targets {
			assert.False(t, tg.Selected)
		}
	}
}

func TestEditor_ClearLink(t *testing.T) {
	s := editor.New()
	img, _ := s.Add(domain.BlockTypeImage)
	btn, _ := s.Add(domain.BlockTypeButton)
	require.NoError(t, s.Update(img.ID, domain.Patch{"link": domain.URLLink("https://x")}))
	require.NoError(t, s.Update(btn.ID, domain.Patch{"link": domain.URLLink("https://x")}))

	for _, id := range []string{img.ID, btn.ID} {
		s.Select(id)
		require.NoError(t, settings.Dispatch(s, dir).Editor.ClearLink())
	}

	got, _ := s.Get(img.ID)
	_, ok := domain.ContentLink(got.Content)
	assert.False(t, ok)

	got, _ = s.Get(btn.ID)
	assert.Equal(t, domain.URLLink(""), got.Content.(domain.ButtonContent).Link)
}

func TestEditor_NonLinkVariantHasNoDirectory(t *testing.T) {
	s := editor.New()
	b, _ := s.Add(domain.BlockTypeVideo)
	s.Select(b.ID)
	ed := settings.Dispatch(s, dir).Editor
	assert.ErrorIs(t, ed.SetLink(domain.LinkKindURL, "x"), domain.ErrUnknownField)
}
