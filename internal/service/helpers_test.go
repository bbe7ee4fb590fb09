package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pagebuilder/internal/directory"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/editor"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

type fixture struct {
	backend  *storage.Backend
	emitter  *service.MockEmitter
	projects *service.ProjectService
	editor   *service.EditorService
	dir      *directory.StoreDirectory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "pagebuilder.db"))
	require.NoError(t, err)
	backend := storage.NewSQLBackend(db)
	t.Cleanup(func() { backend.Close() })

	emitter := &service.MockEmitter{}
	logger := zap.NewNop()
	dir := directory.NewStoreDirectory(backend.Projects)
	ed := service.NewEditorService(editor.New(), backend.Projects, backend.Blocks, dir, emitter, logger)
	t.Cleanup(ed.Close)

	return &fixture{
		backend:  backend,
		emitter:  emitter,
		projects: service.NewProjectService(backend.Projects, backend.Blocks, emitter, logger),
		editor:   ed,
		dir:      dir,
	}
}

// page creates a project with the named pages and returns them.
func (f *fixture) pages(t *testing.T, names ...string) []*domain.Page {
	t.Helper()
	ctx := context.Background()
	p, err := f.projects.CreateProject(ctx, "Site")
	require.NoError(t, err)
	out := make([]*domain.Page, 0, len(names))
	for _, n := range names {
		pg, err := f.projects.CreatePage(ctx, p.ID, n)
		require.NoError(t, err)
		out = append(out, pg)
	}
	return out
}
