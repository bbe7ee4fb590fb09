package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pagebuilder/internal/directory"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/editor"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

type toolHandler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// decidingEmitter answers every approval request as soon as it is emitted.
type decidingEmitter struct {
	srv     *Server
	approve bool
	// beforeDecide runs while the tool is still waiting.
	beforeDecide func()
}

func (e *decidingEmitter) Emit(_ context.Context, event string, data any) {
	if event != EventApprovalRequired {
		return
	}
	a := data.(PendingAction)
	go func() {
		if e.beforeDecide != nil {
			e.beforeDecide()
		}
		if e.approve {
			e.srv.Approve(a.ID)
		} else {
			e.srv.Reject(a.ID)
		}
	}()
}

type testEnv struct {
	srv     *Server
	backend *storage.Backend
	emitter *decidingEmitter
	project *domain.Project
	home    *domain.Page
	about   *domain.Page
}

func newTestEnv(t *testing.T, persist bool) *testEnv {
	t.Helper()
	ctx := context.Background()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "pagebuilder.db"))
	require.NoError(t, err)
	backend := storage.NewSQLBackend(db)
	t.Cleanup(func() { backend.Close() })

	logger := zap.NewNop()
	events := &service.MockEmitter{}
	projects := service.NewProjectService(backend.Projects, backend.Blocks, events, logger)
	ed := service.NewEditorService(editor.New(), backend.Projects, backend.Blocks,
		directory.NewStoreDirectory(backend.Projects), events, logger)

	emitter := &decidingEmitter{approve: true}
	srv := New(Deps{
		Emitter:         emitter,
		Projects:        projects,
		Editor:          ed,
		Logger:          logger,
		ApprovalTimeout: 2 * time.Second,
		PersistEdits:    persist,
	})
	emitter.srv = srv

	project, err := projects.CreateProject(ctx, "Site")
	require.NoError(t, err)
	home, err := projects.CreatePage(ctx, project.ID, "Home")
	require.NoError(t, err)
	about, err := projects.CreatePage(ctx, project.ID, "About")
	require.NoError(t, err)

	return &testEnv{srv: srv, backend: backend, emitter: emitter, project: project, home: home, about: about}
}

func call(t *testing.T, h toolHandler, args map[string]any) string {
	t.Helper()
	res, err := callErr(h, args)
	require.NoError(t, err)
	return res
}

func callErr(h toolHandler, args map[string]any) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		return "", err
	}
	return res.Content[0].(mcp.TextContent).Text, nil
}

func decode[T any](t *testing.T, text string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(text), &v))
	return v
}

func TestTools_ProjectsAndPages(t *testing.T) {
	env := newTestEnv(t, false)

	projects := decode[[]domain.Project](t, call(t, env.srv.handleListProjects, nil))
	require.Len(t, projects, 1)
	assert.Equal(t, "Site", projects[0].Name)

	created := decode[domain.Page](t, call(t, env.srv.handleCreatePage, map[string]any{
		"projectId": env.project.ID, "name": "Pricing",
	}))
	assert.Equal(t, 2, created.Order)
	assert.Equal(t, created.ID, env.srv.editor.PageID(), "a created page is opened")

	pages := decode[[]domain.Page](t, call(t, env.srv.handleListPages, map[string]any{"projectId": env.project.ID}))
	assert.Len(t, pages, 3)

	_, err := callErr(env.srv.handleCreatePage, map[string]any{"projectId": env.project.ID})
	assert.Error(t, err)
}

func TestTools_BlockToolsNeedAPage(t *testing.T) {
	env := newTestEnv(t, false)
	_, err := callErr(env.srv.handleAddBlock, map[string]any{"type": "heading"})
	assert.ErrorContains(t, err, "open_page")
}

func TestTools_AddUpdateListGet(t *testing.T) {
	env := newTestEnv(t, false)
	call(t, env.srv.handleOpenPage, map[string]any{"pageId": env.home.ID})

	h := decode[blockView](t, call(t, env.srv.handleAddBlock, map[string]any{
		"type":    "heading",
		"content": map[string]any{"text": "Hello"},
	}))
	assert.Equal(t, domain.BlockTypeHeading, h.Type)
	assert.Equal(t, "Hello", h.Summary)
	assert.Equal(t, 0, h.Index)

	sp := decode[blockView](t, call(t, env.srv.handleAddBlock, map[string]any{"type": "spacer", "index": float64(0)}))
	assert.Equal(t, 0, sp.Index)

	call(t, env.srv.handleUpdateBlock, map[string]any{
		"blockId": h.ID,
		"patch":   `{"level": 2}`,
	})
	got := decode[blockView](t, call(t, env.srv.handleGetBlock, map[string]any{"blockId": h.ID}))
	assert.Equal(t, 1, got.Index)
	var content domain.HeadingContent
	require.NoError(t, json.Unmarshal(got.Content, &content))
	assert.Equal(t, 2, content.Level)
	assert.Equal(t, "Hello", content.Text)

	all := decode[[]blockView](t, call(t, env.srv.handleListBlocks, nil))
	require.Len(t, all, 2)
	headings := decode[[]blockView](t, call(t, env.srv.handleListBlocks, map[string]any{"type": "heading"}))
	require.Len(t, headings, 1)
	assert.Equal(t, h.ID, headings[0].ID)

	_, err := callErr(env.srv.handleUpdateBlock, map[string]any{"blockId": h.ID, "patch": map[string]any{"bogus": 1}})
	assert.ErrorIs(t, err, domain.ErrUnknownField)
	_, err = callErr(env.srv.handleAddBlock, map[string]any{"type": "carousel"})
	assert.ErrorIs(t, err, domain.ErrUnknownBlockType)
}

func TestTools_ReorderAndLayers(t *testing.T) {
	env := newTestEnv(t, false)
	call(t, env.srv.handleOpenPage, map[string]any{"pageId": env.home.ID})
	a := decode[blockView](t, call(t, env.srv.handleAddBlock, map[string]any{"type": "shape"}))
	b := decode[blockView](t, call(t, env.srv.handleAddBlock, map[string]any{"type": "text"}))

	out := call(t, env.srv.handleReorderBlock, map[string]any{"blockId": a.ID, "direction": "front"})
	assert.Contains(t, out, "now at index 1")
	out = call(t, env.srv.handleReorderBlock, map[string]any{"blockId": a.ID, "direction": "forward"})
	assert.Contains(t, out, "already at the front")

	_, err := callErr(env.srv.handleReorderBlock, map[string]any{"blockId": a.ID, "direction": "up"})
	assert.ErrorIs(t, err, domain.ErrInvalidDirection)

	rows := decode[[]struct {
		Index int    `json:"index"`
		ID    string `json:"id"`
	}](t, call(t, env.srv.handleListLayers, nil))
	require.Len(t, rows, 2)
	assert.Equal(t, a.ID, rows[0].ID)
	assert.Equal(t, 2, rows[0].Index)
	assert.Equal(t, b.ID, rows[1].ID)
}

func TestTools_SettingsSurface(t *testing.T) {
	env := newTestEnv(t, false)
	call(t, env.srv.handleOpenPage, map[string]any{"pageId": env.home.ID})
	btn := decode[blockView](t, call(t, env.srv.handleAddBlock, map[string]any{"type": "button"}))

	view := decode[settingsView](t, call(t, env.srv.handleGetSettings, nil))
	assert.EqualValues(t, "layers", view.Kind)
	assert.Len(t, view.Layers, 1)

	call(t, env.srv.handleSelectBlock, map[string]any{"blockId": btn.ID})
	view = decode[settingsView](t, call(t, env.srv.handleGetSettings, nil))
	assert.EqualValues(t, "editor", view.Kind)
	assert.Equal(t, "Button", view.Title)
	assert.Equal(t, btn.ID, view.BlockID)

	call(t, env.srv.handleSetField, map[string]any{"blockId": btn.ID, "field": "label", "value": "Buy now"})
	call(t, env.srv.handleSetField, map[string]any{"blockId": btn.ID, "field": "newTab", "value": "true"})
	call(t, env.srv.handleSetField, map[string]any{"blockId": btn.ID, "field": "borderRadius", "value": "12"})
	b, _ := env.srv.editor.Block(btn.ID)
	c := b.Content.(domain.ButtonContent)
	assert.Equal(t, "Buy now", c.Label)
	assert.True(t, c.NewTab)
	assert.Equal(t, 12.0, c.BorderRadius)

	_, err := callErr(env.srv.handleSetField, map[string]any{"blockId": btn.ID, "field": "src", "value": "x"})
	assert.ErrorIs(t, err, domain.ErrUnknownField)
	_, err = callErr(env.srv.handleSetField, map[string]any{"blockId": btn.ID, "field": "newTab", "value": "maybe"})
	assert.Error(t, err)

	call(t, env.srv.handleSelectBlock, map[string]any{"blockId": ""})
	view = decode[settingsView](t, call(t, env.srv.handleGetSettings, nil))
	assert.EqualValues(t, "layers", view.Kind)
}

func TestTools_Links(t *testing.T) {
	env := newTestEnv(t, false)
	call(t, env.srv.handleOpenPage, map[string]any{"pageId": env.home.ID})
	img := decode[blockView](t, call(t, env.srv.handleAddBlock, map[string]any{"type": "image"}))

	res := decode[domain.LinkResolution](t, call(t, env.srv.handleSetLink, map[string]any{
		"blockId": img.ID, "kind": "page", "value": env.about.ID,
	}))
	assert.Equal(t, "About", res.Label)
	assert.True(t, res.Resolved)

	targets := decode[[]domain.LinkTarget](t, call(t, env.srv.handleListLinkTargets, map[string]any{"blockId": img.ID}))
	require.Len(t, targets, 2)
	for _, tg := range targets {
		assert.Equal(t, tg.PageID == env.about.ID, tg.Selected)
	}

	dangling := decode[domain.LinkResolution](t, call(t, env.srv.handleResolveLink, map[string]any{"kind": "page", "value": "gone"}))
	assert.Equal(t, domain.UnresolvedPageLabel, dangling.Label)
	assert.False(t, dangling.Resolved)

	out := call(t, env.srv.handleSetLink, map[string]any{"blockId": img.ID, "kind": "none"})
	assert.Contains(t, out, "Link removed")

	_, err := callErr(env.srv.handleResolveLink, map[string]any{"kind": "mailto", "value": "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidContent)

	para := decode[blockView](t, call(t, env.srv.handleAddBlock, map[string]any{"type": "paragraph"}))
	_, err = callErr(env.srv.handleSetLink, map[string]any{"blockId": para.ID, "kind": "url", "value": "https://x"})
	assert.ErrorIs(t, err, domain.ErrUnknownField)
}

func TestTools_DeleteRequiresApproval(t *testing.T) {
	env := newTestEnv(t, false)
	call(t, env.srv.handleOpenPage, map[string]any{"pageId": env.home.ID})
	a := decode[blockView](t, call(t, env.srv.handleAddBlock, map[string]any{"type": "icon"}))
	b := decode[blockView](t, call(t, env.srv.handleAddBlock, map[string]any{"type": "map"}))

	env.emitter.approve = false
	out := call(t, env.srv.handleDeleteBlock, map[string]any{"blockId": a.ID})
	assert.Equal(t, "Action rejected by user", out)
	assert.Len(t, env.srv.editor.Blocks(), 2)

	env.emitter.approve = true
	out = call(t, env.srv.handleDeleteBlock, map[string]any{"blockId": a.ID})
	assert.Contains(t, out, "Deleted block")

	out = call(t, env.srv.handleBatchDeleteBlocks, map[string]any{"blockIds": b.ID + ", missing"})
	assert.Equal(t, "Deleted 1 of 2 blocks", out)
	assert.Empty(t, env.srv.editor.Blocks())
}

func TestTools_PersistModeSavesEveryEdit(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	h := decode[blockView](t, call(t, env.srv.handleAddBlock, map[string]any{"type": "heading", "pageId": env.home.ID}))
	stored, err := env.backend.Blocks.ListPageBlocks(ctx, env.home.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, h.ID, stored[0].ID)
	assert.False(t, env.srv.editor.Dirty())

	// an edit made by another process is picked up before the next tool
	require.NoError(t, env.backend.Blocks.ReplacePageBlocks(ctx, env.home.ID, append(stored, domain.StoredBlock{
		ID: "ext", Type: domain.BlockTypeDivider,
	})))
	all := decode[[]blockView](t, call(t, env.srv.handleListBlocks, nil))
	require.Len(t, all, 2)
	assert.Equal(t, "ext", all[1].ID)
}

func TestTools_PersistModeDeleteKeepsWritesMadeDuringApproval(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	h := decode[blockView](t, call(t, env.srv.handleAddBlock, map[string]any{"type": "heading", "pageId": env.home.ID}))
	p := decode[blockView](t, call(t, env.srv.handleAddBlock, map[string]any{"type": "paragraph"}))

	env.emitter.beforeDecide = func() {
		stored, err := env.backend.Blocks.ListPageBlocks(ctx, env.home.ID)
		if err != nil {
			return
		}
		env.backend.Blocks.ReplacePageBlocks(ctx, env.home.ID, append(stored, domain.StoredBlock{
			ID: "ext", Type: domain.BlockTypeDivider,
		}))
	}
	text := call(t, env.srv.handleDeleteBlock, map[string]any{"blockId": h.ID})
	assert.Contains(t, text, "Deleted block")

	stored, err := env.backend.Blocks.ListPageBlocks(ctx, env.home.ID)
	require.NoError(t, err)
	ids := make([]string, 0, len(stored))
	for _, b := range stored {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{p.ID, "ext"}, ids)

	env.emitter.beforeDecide = func() {
		stored, err := env.backend.Blocks.ListPageBlocks(ctx, env.home.ID)
		if err != nil {
			return
		}
		env.backend.Blocks.ReplacePageBlocks(ctx, env.home.ID, append(stored, domain.StoredBlock{
			ID: "ext2", Type: domain.BlockTypeSpacer,
		}))
	}
	text = call(t, env.srv.handleBatchDeleteBlocks, map[string]any{"blockIds": p.ID})
	assert.Equal(t, "Deleted 1 of 1 blocks", text)

	stored, err = env.backend.Blocks.ListPageBlocks(ctx, env.home.ID)
	require.NoError(t, err)
	ids = ids[:0]
	for _, b := range stored {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"ext", "ext2"}, ids)
}

func TestTools_ListBlockTypes(t *testing.T) {
	env := newTestEnv(t, false)
	types := decode[[]blockTypeView](t, call(t, env.srv.handleListBlockTypes, nil))
	require.Len(t, types, len(domain.AllBlockTypes()))
	assert.Equal(t, domain.BlockTypeHeading, types[0].Type)
	assert.Contains(t, types[0].Fields, "text")
	for _, tv := range types {
		assert.Equal(t, tv.Type.HasLink(), tv.HasLink, tv.Type)
	}
}

func TestResources_PageBlocks(t *testing.T) {
	env := newTestEnv(t, true)
	call(t, env.srv.handleAddBlock, map[string]any{"type": "video", "pageId": env.home.ID})

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "pagebuilder://page/" + env.home.ID + "/blocks"
	contents, err := env.srv.handlePageBlocksResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	views := decode[[]blockView](t, contents[0].(mcp.TextResourceContents).Text)
	require.Len(t, views, 1)
	assert.Equal(t, domain.BlockTypeVideo, views[0].Type)

	projects, err := env.srv.handleProjectsResource(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	assert.Contains(t, projects[0].(mcp.TextResourceContents).Text, "About")
}

func TestExtractPageIDFromURI(t *testing.T) {
	assert.Equal(t, "abc-123", extractPageIDFromURI("pagebuilder://page/abc-123/blocks"))
	assert.Empty(t, extractPageIDFromURI("pagebuilder://page//blocks"))
	assert.Empty(t, extractPageIDFromURI("pagebuilder://page/a/b/blocks"))
	assert.Empty(t, extractPageIDFromURI("notes://page/abc/blocks"))
}

func TestPrompts_LandingPage(t *testing.T) {
	env := newTestEnv(t, false)
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"topic": "Coffee"}
	res, err := env.srv.handleLandingPagePrompt(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Contains(t, res.Messages[0].Content.(mcp.TextContent).Text, `"Coffee"`)
}
