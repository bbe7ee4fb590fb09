package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pagebuilder/internal/config"
	"pagebuilder/internal/directory"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/editor"
	"pagebuilder/internal/logging"
	mcpserver "pagebuilder/internal/mcp"
	"pagebuilder/internal/secret"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

// Event emitted when the page directory file changes on disk.
const EventDirectoryChanged = "directory:changed"

// App wires storage, services and the MCP server for one editing session.
// Its exported methods are the binding surface of a host UI.
type App struct {
	ctx     context.Context
	cfg     *config.Config
	logger  *zap.Logger
	emitter service.EventEmitter
	secrets secret.SecretStore

	backend  *storage.Backend
	projects *service.ProjectService
	editor   *service.EditorService
	autosave *service.Autosaver
	dir      domain.PageDirectory
	fileDir  *directory.FileDirectory
	mcp      *mcpserver.Server
	watcher  *pageWatcher
}

// Option customizes an App before Startup.
type Option func(*App)

// WithEmitter routes service and approval events to the host UI.
func WithEmitter(e service.EventEmitter) Option {
	return func(a *App) { a.emitter = e }
}

// WithSecrets replaces the default env + keychain secret store.
func WithSecrets(s secret.SecretStore) Option {
	return func(a *App) { a.secrets = s }
}

// WithBackend uses an already opened backend instead of the configured one.
func WithBackend(b *storage.Backend) Option {
	return func(a *App) { a.backend = b }
}

// New creates a new App.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) *App {
	a := &App{
		cfg:     cfg,
		logger:  logging.Component(logger, "app"),
		emitter: service.NoopEmitter{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.secrets == nil {
		a.secrets = secret.Default()
	}
	return a
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) error {
	a.ctx = ctx

	if a.backend == nil {
		backend, err := storage.Open(ctx, a.cfg, a.secrets)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		a.backend = backend
	}

	dir, err := a.openDirectory()
	if err != nil {
		a.backend.Close()
		return err
	}
	a.dir = dir

	a.projects = service.NewProjectService(a.backend.Projects, a.backend.Blocks, a.emitter, a.logger)
	a.editor = service.NewEditorService(editor.New(), a.backend.Projects, a.backend.Blocks, a.dir, a.emitter, a.logger)
	a.editor.Bind(ctx)

	if a.cfg.Autosave.Enabled {
		a.autosave = service.NewAutosaver(a.editor, a.cfg.Autosave.Schedule, a.logger)
		if err := a.autosave.Start(ctx); err != nil {
			a.Shutdown(ctx)
			return err
		}
	}

	a.mcp = mcpserver.New(mcpserver.Deps{
		Emitter:         a.emitter,
		Projects:        a.projects,
		Editor:          a.editor,
		Logger:          a.logger,
		ApprovalTimeout: a.cfg.GetApprovalTimeout(),
	})

	a.watcher = newPageWatcher(ctx, a)
	a.watcher.Start()

	a.logger.Info("started", zap.String("storage", a.cfg.Storage.Driver), zap.String("dataDir", a.cfg.DataDir))
	return nil
}

// openDirectory picks the page directory: the configured file when set,
// otherwise the pages of the open page's project.
func (a *App) openDirectory() (domain.PageDirectory, error) {
	path := a.cfg.DirectoryFile()
	if path == "" {
		return directory.NewStoreDirectory(a.backend.Projects), nil
	}
	fd, err := directory.OpenFile(path, a.logger, func(pages []domain.Page) {
		a.emitter.Emit(a.ctx, EventDirectoryChanged, map[string]int{"pages": len(pages)})
	})
	if err != nil {
		return nil, fmt.Errorf("open page directory: %w", err)
	}
	a.fileDir = fd
	return fd, nil
}

// Shutdown is called when the app is closing. Unsaved edits are saved.
func (a *App) Shutdown(ctx context.Context) error {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.autosave != nil {
		a.autosave.Stop(ctx)
	}

	var errs []error
	if a.editor != nil {
		if _, err := a.editor.SaveIfDirty(ctx); err != nil {
			errs = append(errs, fmt.Errorf("save on shutdown: %w", err))
		}
		a.editor.Close()
	}
	if a.fileDir != nil {
		errs = append(errs, a.fileDir.Close())
	}
	if a.backend != nil {
		errs = append(errs, a.backend.Close())
	}
	return errors.Join(errs...)
}

// MCP returns the in-process MCP server.
func (a *App) MCP() *mcpserver.Server { return a.mcp }
