package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerNavigationTools() {
	// ── list_projects ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List all projects in the workspace"),
	), s.handleListProjects)

	// ── create_project ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_project",
		mcp.WithDescription("Create a new project"),
		mcp.WithString("name",
			mcp.Description("Name of the new project"),
			mcp.Required(),
		),
	), s.handleCreateProject)

	// ── list_pages ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List all pages in a project"),
		mcp.WithString("projectId",
			mcp.Description("ID of the project"),
			mcp.Required(),
		),
	), s.handleListPages)

	// ── create_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_page",
		mcp.WithDescription("Create a new page in a project and open it for editing"),
		mcp.WithString("projectId",
			mcp.Description("ID of the project"),
			mcp.Required(),
		),
		mcp.WithString("name",
			mcp.Description("Name of the new page"),
			mcp.Required(),
		),
	), s.handleCreatePage)

	// ── open_page ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_page",
		mcp.WithDescription("Open a page for editing. Block tools act on the open page unless they get a pageId."),
		mcp.WithString("pageId",
			mcp.Description("ID of the page to open"),
			mcp.Required(),
		),
	), s.handleOpenPage)

	// ── save_page ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_page",
		mcp.WithDescription("Save the blocks of the open page"),
	), s.handleSavePage)
}

func (s *Server) handleListProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.projects.ListProjects()
	if err != nil {
		return nil, err
	}
	return jsonResult(projects)
}

func (s *Server) handleCreateProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	project, err := s.projects.CreateProject(ctx, name)
	if err != nil {
		return nil, err
	}
	return jsonResult(project)
}

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := req.GetString("projectId", "")
	if projectID == "" {
		return nil, fmt.Errorf("projectId is required")
	}
	pages, err := s.projects.ListPages(projectID)
	if err != nil {
		return nil, err
	}
	return jsonResult(pages)
}

func (s *Server) handleCreatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := req.GetString("projectId", "")
	name := req.GetString("name", "")
	if projectID == "" || name == "" {
		return nil, fmt.Errorf("projectId and name are required")
	}
	page, err := s.projects.CreatePage(ctx, projectID, name)
	if err != nil {
		return nil, err
	}
	if _, err := s.editor.OpenPage(ctx, page.ID); err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	return jsonResult(page)
}

type openPageView struct {
	Page   any         `json:"page"`
	Blocks []blockView `json:"blocks"`
}

func (s *Server) handleOpenPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := req.GetString("pageId", "")
	if pageID == "" {
		return nil, fmt.Errorf("pageId is required")
	}
	page, err := s.editor.OpenPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return jsonResult(openPageView{Page: page, Blocks: blockViews(s.editor.Blocks())})
}

func (s *Server) handleSavePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := s.editor.PageID()
	if pageID == "" {
		return nil, fmt.Errorf("no page open")
	}
	if err := s.editor.Save(ctx); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Saved %d blocks on page %s", len(s.editor.Blocks()), pageID)), nil
}
