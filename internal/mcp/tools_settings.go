package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/layers"
	"pagebuilder/internal/settings"
)

func (s *Server) registerSettingsTools() {
	// ── get_settings ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_settings",
		mcp.WithDescription("Show the settings sidebar: the layer list when nothing is selected, otherwise the form of the selected block"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to the open page)")),
	), s.handleGetSettings)

	// ── set_field ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_field",
		mcp.WithDescription("Set one settings field of a block"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("field", mcp.Description("Field name as listed by get_settings"), mcp.Required()),
		mcp.WithString("value", mcp.Description("New value; numbers, booleans and lists may be given as text"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to the open page)")),
	), s.handleSetField)

	// ── set_link ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_link",
		mcp.WithDescription("Point a block's link at a URL or at another page. Kind none removes the link."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("kind",
			mcp.Description("url, page or none"),
			mcp.Required(),
			mcp.Enum("url", "page", "none"),
		),
		mcp.WithString("value", mcp.Description("The URL, or the target page ID")),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to the open page)")),
	), s.handleSetLink)

	// ── list_layers ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_layers",
		mcp.WithDescription("List the layers of a page from front to back"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to the open page)")),
	), s.handleListLayers)

	// ── resolve_link ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resolve_link",
		mcp.WithDescription("Show how a link is displayed: the URL itself or the target page's name"),
		mcp.WithString("kind", mcp.Description("url or page"), mcp.Required(), mcp.Enum("url", "page")),
		mcp.WithString("value", mcp.Description("The URL or page ID")),
	), s.handleResolveLink)

	// ── list_link_targets ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_link_targets",
		mcp.WithDescription("List the pages a link can point at, marking the one a block currently links to"),
		mcp.WithString("blockId", mcp.Description("Block ID (optional)")),
	), s.handleListLinkTargets)
}

// settingsView is the settings sidebar as agents see it.
type settingsView struct {
	Kind    settings.SurfaceKind `json:"kind"`
	BlockID string               `json:"blockId,omitempty"`
	Title   string               `json:"title,omitempty"`
	Fields  []settings.Field     `json:"fields,omitempty"`
	Layers  []layers.Row         `json:"layers,omitempty"`
	Message string               `json:"message,omitempty"`
}

func (s *Server) handleGetSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.session(ctx, req.GetArguments()); err != nil {
		return nil, err
	}
	surface := s.editor.Settings()
	view := settingsView{Kind: surface.Kind, Message: surface.Message}
	switch surface.Kind {
	case settings.SurfaceLayers:
		view.Layers = surface.Layers.Rows()
	case settings.SurfaceEditor:
		fields, err := surface.Editor.Fields()
		if err != nil {
			return nil, err
		}
		view.BlockID = surface.Editor.Block().ID
		view.Title = surface.Editor.Title()
		view.Fields = fields
	case settings.SurfacePending:
		view.BlockID = s.editor.Store().SelectedID()
		view.Message = "Block content could not be read"
	}
	return jsonResult(view)
}

func (s *Server) handleSetField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.blockForTool(ctx, args)
	if err != nil {
		return nil, err
	}
	name, _ := args["field"].(string)
	if name == "" {
		return nil, fmt.Errorf("field is required")
	}
	raw, ok := args["value"]
	if !ok {
		return nil, fmt.Errorf("value is required")
	}

	ed, err := s.editor.Editor(b.ID)
	if err != nil {
		return nil, err
	}
	fields, err := ed.Fields()
	if err != nil {
		return nil, err
	}
	kind := settings.FieldText
	for _, f := range fields {
		if f.Name == name {
			kind = f.Kind
		}
	}
	value, err := coerceValue(kind, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if err := ed.Set(name, value); err != nil {
		return nil, err
	}
	if err := s.commit(ctx); err != nil {
		return nil, err
	}
	b, _ = s.editor.Block(b.ID)
	return jsonResult(viewOf(s.editor.Store().Index(b.ID), b))
}

func (s *Server) handleSetLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.blockForTool(ctx, args)
	if err != nil {
		return nil, err
	}
	kind, _ := args["kind"].(string)
	value, _ := args["value"].(string)

	ed, err := s.editor.Editor(b.ID)
	if err != nil {
		return nil, err
	}
	if kind == "none" {
		err = ed.ClearLink()
	} else {
		err = ed.SetLink(domain.LinkKind(kind), value)
	}
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx); err != nil {
		return nil, err
	}

	b, _ = s.editor.Block(b.ID)
	ref, ok := domain.ContentLink(b.Content)
	if !ok {
		return textResult(fmt.Sprintf("Link removed from block %s", b.ID)), nil
	}
	return jsonResult(domain.ResolveLink(ref, s.editor.Directory()))
}

func (s *Server) handleListLayers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.session(ctx, req.GetArguments()); err != nil {
		return nil, err
	}
	return jsonResult(s.editor.Layers().Rows())
}

func (s *Server) handleResolveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := domain.LinkRef{
		Kind:  domain.LinkKind(req.GetString("kind", "")),
		Value: req.GetString("value", ""),
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return jsonResult(domain.ResolveLink(ref, s.editor.Directory()))
}

func (s *Server) handleListLinkTargets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var ref domain.LinkRef
	if blockID := req.GetString("blockId", ""); blockID != "" {
		b, ok := s.editor.Block(blockID)
		if !ok {
			return nil, fmt.Errorf("block %s: %w", blockID, domain.ErrNotFound)
		}
		if b.Content != nil {
			ref, _ = domain.ContentLink(b.Content)
		}
	}
	return jsonResult(domain.LinkTargets(s.editor.Directory(), ref))
}
