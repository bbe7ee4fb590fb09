package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
)

func TestProjectService_CreateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	projects, err := f.projects.ListProjects()
	require.NoError(t, err)
	assert.Empty(t, projects)

	p, err := f.projects.CreateProject(ctx, "  Marketing  ")
	require.NoError(t, err)
	assert.Equal(t, "Marketing", p.Name)
	assert.NotEmpty(t, p.ID)

	home, err := f.projects.CreatePage(ctx, p.ID, "Home")
	require.NoError(t, err)
	about, err := f.projects.CreatePage(ctx, p.ID, "About")
	require.NoError(t, err)
	assert.Equal(t, 0, home.Order)
	assert.Equal(t, 1, about.Order)

	pages, err := f.projects.ListPages(p.ID)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "Home", pages[0].Name)

	assert.Contains(t, f.emitter.Names(), service.EventProjectsChanged)
	assert.Contains(t, f.emitter.Names(), service.EventPagesChanged)
}

func TestProjectService_RequiresNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.projects.CreateProject(ctx, "   ")
	assert.Error(t, err)

	p, err := f.projects.CreateProject(ctx, "Site")
	require.NoError(t, err)
	_, err = f.projects.CreatePage(ctx, p.ID, "")
	assert.Error(t, err)
	assert.Error(t, f.projects.RenameProject(ctx, p.ID, ""))
}

func TestProjectService_CreatePageUnknownProject(t *testing.T) {
	f := newFixture(t)
	_, err := f.projects.CreatePage(context.Background(), "missing", "Home")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProjectService_Rename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pages := f.pages(t, "Home")

	require.NoError(t, f.projects.RenamePage(ctx, pages[0].ID, "Start"))
	got, err := f.projects.GetPage(pages[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Start", got.Name)

	require.NoError(t, f.projects.RenameProject(ctx, pages[0].ProjectID, "Renamed"))
	proj, err := f.projects.GetProject(pages[0].ProjectID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", proj.Name)
}

func TestProjectService_DeleteProjectCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pages := f.pages(t, "Home", "About")

	_, err := f.editor.OpenPage(ctx, pages[0].ID)
	require.NoError(t, err)
	_, err = f.editor.AddBlock("heading")
	require.NoError(t, err)
	require.NoError(t, f.editor.Save(ctx))

	require.NoError(t, f.projects.DeleteProject(ctx, pages[0].ProjectID))

	_, err = f.projects.GetProject(pages[0].ProjectID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.projects.GetPage(pages[1].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	stored, err := f.backend.Blocks.ListPageBlocks(ctx, pages[0].ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestProjectService_DeletePage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pages := f.pages(t, "Home", "About")

	require.NoError(t, f.projects.DeletePage(ctx, pages[1].ID))
	remaining, err := f.projects.ListPages(pages[0].ProjectID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, pages[0].ID, remaining[0].ID)

	assert.ErrorIs(t, f.projects.DeletePage(ctx, "missing"), domain.ErrNotFound)
}

func TestProjectService_GetPageStateNormalizesLegacyContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pages := f.pages(t, "Home")

	require.NoError(t, f.backend.Blocks.ReplacePageBlocks(ctx, pages[0].ID, []domain.StoredBlock{
		{ID: "b1", Type: domain.BlockTypeButton, Content: json.RawMessage(`{"label":"Go","url":"https://example.com"}`)},
		{ID: "b2", Type: domain.BlockTypeSpacer, Content: json.RawMessage(`{"height":12}`)},
	}))

	state, err := f.projects.GetPageState(ctx, pages[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Home", state.Page.Name)
	require.Len(t, state.Blocks, 2)

	btn, ok := state.Blocks[0].Content.(domain.ButtonContent)
	require.True(t, ok)
	assert.Equal(t, domain.URLLink("https://example.com"), btn.Link)
	assert.Equal(t, domain.SpacerContent{Height: 12}, state.Blocks[1].Content)

	// the stored row is untouched
	stored, err := f.backend.Blocks.ListPageBlocks(ctx, pages[0].ID)
	require.NoError(t, err)
	assert.Contains(t, string(stored[0].Content), `"url"`)
}
