package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/logging"
	"pagebuilder/internal/service"
)

// Server is the MCP server for the page builder.
// It exposes tools, resources, and prompts so AI agents can build pages.
type Server struct {
	mcp      *server.MCPServer
	emitter  EventEmitter
	approval *ApprovalQueue
	logger   *zap.Logger

	// Services (injected from app layer)
	projects *service.ProjectService
	editor   *service.EditorService

	persist bool
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Emitter  EventEmitter
	Projects *service.ProjectService
	Editor   *service.EditorService
	Logger   *zap.Logger
	// Approvals switches the approval queue to table mode (standalone process).
	Approvals       ApprovalStore
	ApprovalTimeout time.Duration
	// PersistEdits saves the page after every editing tool and picks up
	// external changes before each one. Set when the server runs in its own
	// process next to the app.
	PersistEdits bool
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logging.Component(logger, "mcp")

	approval := NewApprovalQueue(deps.Emitter, deps.ApprovalTimeout, logger)
	if deps.Approvals != nil {
		approval.SetStore(deps.Approvals)
	}
	s := &Server{
		emitter:  deps.Emitter,
		approval: approval,
		logger:   logger,
		projects: deps.Projects,
		editor:   deps.Editor,
		persist:  deps.PersistEdits,
	}

	s.mcp = server.NewMCPServer(
		"pagebuilder-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerNavigationTools()
	s.registerBlockTools()
	s.registerSettingsTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// MCPServer exposes the underlying server, e.g. for an in-process client.
func (s *Server) MCPServer() *server.MCPServer { return s.mcp }

// ServeStdio serves MCP on stdin/stdout until ctx is done.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("starting stdio server")
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) bool {
	return s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) bool {
	return s.approval.Reject(actionID)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// session makes the page named by args["pageId"] the open page. Without a
// pageId the open page is used. In persist mode external edits are loaded
// first.
func (s *Server) session(ctx context.Context, args map[string]any) (string, error) {
	if pid, ok := args["pageId"].(string); ok && pid != "" && pid != s.editor.PageID() {
		if _, err := s.editor.OpenPage(ctx, pid); err != nil {
			return "", fmt.Errorf("open page: %w", err)
		}
		return pid, nil
	}
	pageID := s.editor.PageID()
	if pageID == "" {
		return "", fmt.Errorf("no pageId provided and no page open (use open_page first)")
	}
	if s.persist {
		if _, err := s.editor.SyncExternal(ctx); err != nil {
			return "", err
		}
	}
	return pageID, nil
}

// commit saves the page after an edit when the server runs standalone. If
// another process stored the page in the meantime the edit is dropped and the
// session reloaded, so the agent retries against current blocks.
func (s *Server) commit(ctx context.Context) error {
	if !s.persist {
		return nil
	}
	_, err := s.editor.CommitIfDirty(ctx)
	if errors.Is(err, service.ErrStalePage) {
		if rerr := s.editor.Reload(ctx); rerr != nil {
			return fmt.Errorf("reload page: %w", rerr)
		}
		return fmt.Errorf("page was changed by another process, edit not applied; retry: %w", err)
	}
	if err != nil {
		return fmt.Errorf("save page: %w", err)
	}
	return nil
}

// refresh picks up blocks other processes stored while a tool was waiting,
// e.g. for approval.
func (s *Server) refresh(ctx context.Context) error {
	if !s.persist {
		return nil
	}
	if _, err := s.editor.SyncExternal(ctx); err != nil {
		return fmt.Errorf("sync page: %w", err)
	}
	return nil
}

// blockForTool retrieves a block of the open page and validates it exists.
func (s *Server) blockForTool(ctx context.Context, args map[string]any) (domain.Block, error) {
	if _, err := s.session(ctx, args); err != nil {
		return domain.Block{}, err
	}
	blockID, ok := args["blockId"].(string)
	if !ok || blockID == "" {
		return domain.Block{}, fmt.Errorf("blockId is required")
	}
	b, ok := s.editor.Block(blockID)
	if !ok {
		return domain.Block{}, fmt.Errorf("block %s: %w", blockID, domain.ErrNotFound)
	}
	return b, nil
}
