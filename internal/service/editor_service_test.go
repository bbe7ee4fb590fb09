package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
	"pagebuilder/internal/settings"
)

func TestEditorService_AddRequiresOpenPage(t *testing.T) {
	f := newFixture(t)
	_, err := f.editor.AddBlock("heading")
	assert.Error(t, err)
}

func TestEditorService_OpenEditSaveReload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pages := f.pages(t, "Home", "About")

	_, err := f.editor.OpenPage(ctx, pages[0].ID)
	require.NoError(t, err)
	assert.Equal(t, pages[0].ProjectID, f.dir.ProjectID())
	assert.Len(t, f.dir.Pages(), 2)

	h, err := f.editor.AddBlock("heading")
	require.NoError(t, err)
	p, err := f.editor.DropBlock("paragraph", 0)
	require.NoError(t, err)
	require.NoError(t, f.editor.UpdateBlock(h.ID, domain.Patch{"text": "Welcome"}))
	assert.True(t, f.editor.Dirty())

	require.NoError(t, f.editor.Save(ctx))
	assert.False(t, f.editor.Dirty())
	assert.Contains(t, f.emitter.Names(), service.EventPageSaved)

	// switching pages and back reloads from storage
	_, err = f.editor.OpenPage(ctx, pages[1].ID)
	require.NoError(t, err)
	assert.Empty(t, f.editor.Blocks())
	_, err = f.editor.OpenPage(ctx, pages[0].ID)
	require.NoError(t, err)

	blocks := f.editor.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, p.ID, blocks[0].ID)
	assert.Equal(t, h.ID, blocks[1].ID)
	assert.Equal(t, "Welcome", blocks[1].Content.(domain.HeadingContent).Text)
}

func TestEditorService_OpenPageSavesDirtySession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pages := f.pages(t, "Home", "About")

	_, err := f.editor.OpenPage(ctx, pages[0].ID)
	require.NoError(t, err)
	_, err = f.editor.AddBlock("divider")
	require.NoError(t, err)

	_, err = f.editor.OpenPage(ctx, pages[1].ID)
	require.NoError(t, err)

	stored, err := f.backend.Blocks.ListPageBlocks(ctx, pages[0].ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, domain.BlockTypeDivider, stored[0].Type)
}

func TestEditorService_OpenUnknownPage(t *testing.T) {
	f := newFixture(t)
	_, err := f.editor.OpenPage(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditorService_EmitsStoreChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pages := f.pages(t, "Home")

	_, err := f.editor.OpenPage(ctx, pages[0].ID)
	require.NoError(t, err)
	f.emitter.Reset()

	b, err := f.editor.AddBlock("icon")
	require.NoError(t, err)
	f.editor.SelectBlock(b.ID)
	f.editor.DeleteBlock(b.ID)

	assert.Equal(t, []string{
		service.EventBlocksChanged,
		service.EventSelectionChanged,
		service.EventBlocksChanged,
		service.EventSelectionChanged,
	}, f.emitter.Names())
}

func TestEditorService_ReorderBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pages := f.pages(t, "Home")
	_, err := f.editor.OpenPage(ctx, pages[0].ID)
	require.NoError(t, err)

	a, _ := f.editor.AddBlock("heading")
	b, _ := f.editor.AddBlock("text")

	moved, err := f.editor.ReorderBlock(b.ID, "back")
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, a.ID, f.editor.Blocks()[1].ID)

	moved, err = f.editor.ReorderBlock(b.ID, "backward")
	require.NoError(t, err)
	assert.False(t, moved)

	_, err = f.editor.ReorderBlock(b.ID, "sideways")
	assert.ErrorIs(t, err, domain.ErrInvalidDirection)
}

func TestEditorService_SettingsFollowSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pages := f.pages(t, "Home", "Contact")
	_, err := f.editor.OpenPage(ctx, pages[0].ID)
	require.NoError(t, err)

	assert.Equal(t, settings.SurfaceLayers, f.editor.Settings().Kind)

	btn, err := f.editor.AddBlock("button")
	require.NoError(t, err)
	f.editor.SelectBlock(btn.ID)

	surface := f.editor.Settings()
	require.Equal(t, settings.SurfaceEditor, surface.Kind)
	require.NoError(t, surface.Editor.SetLink(domain.LinkKindPage, pages[1].ID))

	got, ok := f.editor.Block(btn.ID)
	require.True(t, ok)
	assert.Equal(t, domain.PageLink(pages[1].ID), got.Content.(domain.ButtonContent).Link)
	res := domain.ResolveLink(got.Content.(domain.ButtonContent).Link, f.editor.Directory())
	assert.Equal(t, "Contact", res.Label)

	f.editor.ClearSelection()
	assert.Equal(t, settings.SurfaceLayers, f.editor.Settings().Kind)
	rows := f.editor.Layers().Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, btn.ID, rows[0].ID)
}

func TestEditorService_EditorForUnknownBlock(t *testing.T) {
	f := newFixture(t)
	_, err := f.editor.Editor("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditorService_SyncExternal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pages := f.pages(t, "Home")

	synced, err := f.editor.SyncExternal(ctx)
	require.NoError(t, err)
	assert.False(t, synced, "no page open")

	_, err = f.editor.OpenPage(ctx, pages[0].ID)
	require.NoError(t, err)
	synced, err = f.editor.SyncExternal(ctx)
	require.NoError(t, err)
	assert.False(t, synced, "nothing changed")

	// another process writes the page
	require.NoError(t, f.backend.Blocks.ReplacePageBlocks(ctx, pages[0].ID, []domain.StoredBlock{
		{ID: "ext", Type: domain.BlockTypeSpacer, Content: json.RawMessage(`{"height":40}`)},
	}))
	synced, err = f.editor.SyncExternal(ctx)
	require.NoError(t, err)
	assert.True(t, synced)
	require.Len(t, f.editor.Blocks(), 1)
	assert.Equal(t, "ext", f.editor.Blocks()[0].ID)
	assert.Contains(t, f.emitter.Names(), service.EventPageReloaded)
}

func TestEditorService_SyncExternalKeepsDirtySession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pages := f.pages(t, "Home")
	_, err := f.editor.OpenPage(ctx, pages[0].ID)
	require.NoError(t, err)

	local, err := f.editor.AddBlock("heading")
	require.NoError(t, err)
	require.NoError(t, f.backend.Blocks.ReplacePageBlocks(ctx, pages[0].ID, []domain.StoredBlock{
		{ID: "ext", Type: domain.BlockTypeSpacer},
		{ID: "ext2", Type: domain.BlockTypeSpacer},
	}))

	synced, err := f.editor.SyncExternal(ctx)
	require.NoError(t, err)
	assert.False(t, synced)
	require.Len(t, f.editor.Blocks(), 1)
	assert.Equal(t, local.ID, f.editor.Blocks()[0].ID)
}

func TestEditorService_CommitIfDirtyRefusesStalePage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pages := f.pages(t, "Home")
	_, err := f.editor.OpenPage(ctx, pages[0].ID)
	require.NoError(t, err)

	local, err := f.editor.AddBlock("heading")
	require.NoError(t, err)
	require.NoError(t, f.backend.Blocks.ReplacePageBlocks(ctx, pages[0].ID, []domain.StoredBlock{
		{ID: "ext", Type: domain.BlockTypeSpacer},
	}))

	saved, err := f.editor.CommitIfDirty(ctx)
	assert.ErrorIs(t, err, service.ErrStalePage)
	assert.False(t, saved)
	assert.True(t, f.editor.Dirty(), "the refused edit is kept in the session")

	stored, err := f.backend.Blocks.ListPageBlocks(ctx, pages[0].ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "ext", stored[0].ID, "the external write survives")

	require.NoError(t, f.editor.Reload(ctx))
	assert.False(t, f.editor.Dirty())
	require.Len(t, f.editor.Blocks(), 1)
	assert.Equal(t, "ext", f.editor.Blocks()[0].ID)

	_, err = f.editor.AddBlock("text")
	require.NoError(t, err)
	saved, err = f.editor.CommitIfDirty(ctx)
	require.NoError(t, err)
	assert.True(t, saved, "a session that saw the latest write commits")
	_, ok := f.editor.Block(local.ID)
	assert.False(t, ok)
}

func TestEditorService_SaveIfDirty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pages := f.pages(t, "Home")
	_, err := f.editor.OpenPage(ctx, pages[0].ID)
	require.NoError(t, err)

	saved, err := f.editor.SaveIfDirty(ctx)
	require.NoError(t, err)
	assert.False(t, saved)

	_, err = f.editor.AddBlock("map")
	require.NoError(t, err)
	saved, err = f.editor.SaveIfDirty(ctx)
	require.NoError(t, err)
	assert.True(t, saved)
}

func TestEditorService_LegacyContentSavedAfterMigration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pages := f.pages(t, "Home")
	require.NoError(t, f.backend.Blocks.ReplacePageBlocks(ctx, pages[0].ID, []domain.StoredBlock{
		{ID: "img", Type: domain.BlockTypeImage, Content: json.RawMessage(`{"src":"a.png","pageId":"` + pages[0].ID + `"}`)},
	}))

	_, err := f.editor.OpenPage(ctx, pages[0].ID)
	require.NoError(t, err)
	b, ok := f.editor.SelectBlock("img")
	require.True(t, ok)
	link, ok := domain.ContentLink(b.Content)
	require.True(t, ok)
	assert.Equal(t, domain.PageLink(pages[0].ID), link)
	assert.True(t, f.editor.Dirty())

	require.NoError(t, f.editor.Save(ctx))
	stored, err := f.backend.Blocks.ListPageBlocks(ctx, pages[0].ID)
	require.NoError(t, err)
	assert.NotContains(t, string(stored[0].Content), `"pageId"`)
}
