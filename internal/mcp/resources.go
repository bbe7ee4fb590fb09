package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	projectsURI   = "pagebuilder://projects"
	pageURIPrefix = "pagebuilder://page/"
	blocksSuffix  = "/blocks"
)

func (s *Server) registerResources() {
	// ── pagebuilder://projects ─────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		projectsURI,
		"All Projects",
		mcp.WithResourceDescription("Projects with their pages"),
		mcp.WithMIMEType("application/json"),
	), s.handleProjectsResource)

	// ── pagebuilder://page/{pageId}/blocks ─────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			pageURIPrefix+"{pageId}"+blocksSuffix,
			"Blocks on a Page",
			mcp.WithTemplateDescription("The stored blocks of a page from back to front"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handlePageBlocksResource,
	)
}

func (s *Server) handleProjectsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projects, err := s.projects.ListProjects()
	if err != nil {
		return nil, err
	}

	type pageSummary struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	type projectSummary struct {
		ID    string        `json:"id"`
		Name  string        `json:"name"`
		Pages []pageSummary `json:"pages"`
	}

	summaries := make([]projectSummary, 0, len(projects))
	for _, p := range projects {
		pages, err := s.projects.ListPages(p.ID)
		if err != nil {
			return nil, err
		}
		ps := projectSummary{ID: p.ID, Name: p.Name, Pages: make([]pageSummary, 0, len(pages))}
		for _, pg := range pages {
			ps.Pages = append(ps.Pages, pageSummary{ID: pg.ID, Name: pg.Name})
		}
		summaries = append(summaries, ps)
	}

	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      projectsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// handlePageBlocksResource reads from storage, so it reflects the last save
// rather than the open session.
func (s *Server) handlePageBlocksResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	pageID := extractPageIDFromURI(uri)
	if pageID == "" {
		return nil, fmt.Errorf("could not extract pageId from URI: %s", uri)
	}

	state, err := s.projects.GetPageState(ctx, pageID)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(blockViews(state.Blocks), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// extractPageIDFromURI extracts page ID from "pagebuilder://page/{id}/blocks"
func extractPageIDFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, pageURIPrefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, blocksSuffix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
