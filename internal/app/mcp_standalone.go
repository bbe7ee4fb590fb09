package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"pagebuilder/internal/config"
	"pagebuilder/internal/editor"
	mcpserver "pagebuilder/internal/mcp"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

// ServeMCP runs a standalone MCP server on stdin/stdout with no UI attached.
// Edits are saved as they happen and approvals go through the approvals
// table, where a running app picks them up.
func ServeMCP(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := New(cfg, logger)
	a.ctx = ctx
	backend, err := storage.Open(ctx, cfg, a.secrets)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.backend = backend
	defer backend.Close()

	dir, err := a.openDirectory()
	if err != nil {
		return err
	}
	if a.fileDir != nil {
		defer a.fileDir.Close()
	}

	emitter := service.NoopEmitter{}
	projects := service.NewProjectService(backend.Projects, backend.Blocks, emitter, logger)
	ed := service.NewEditorService(editor.New(), backend.Projects, backend.Blocks, dir, emitter, logger)
	defer ed.Close()

	srv := mcpserver.New(mcpserver.Deps{
		Emitter:         emitter,
		Projects:        projects,
		Editor:          ed,
		Logger:          logger,
		Approvals:       backend.Approvals,
		ApprovalTimeout: cfg.GetApprovalTimeout(),
		PersistEdits:    true,
	})
	return srv.ServeStdio(ctx)
}
