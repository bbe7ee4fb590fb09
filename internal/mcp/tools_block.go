package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"pagebuilder/internal/domain"
)

func (s *Server) registerBlockTools() {
	types := make([]string, 0, 12)
	for _, t := range domain.AllBlockTypes() {
		types = append(types, string(t))
	}
	typeList := strings.Join(types, ", ")

	// ── list_block_types ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_block_types",
		mcp.WithDescription("List the block types with their content fields and default content"),
	), s.handleListBlockTypes)

	// ── add_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Add a block with default content. Blocks are appended in front of all others unless an index is given."),
		mcp.WithString("type",
			mcp.Description("Block type: "+typeList),
			mcp.Required(),
		),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to the open page)")),
		mcp.WithNumber("index", mcp.Description("Depth index to insert at, 0 is the back (optional)")),
		mcp.WithObject("content", mcp.Description("Content fields to set after creation (optional)")),
	), s.handleAddBlock)

	// ── update_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription("Merge fields into a block's content. Only the given keys change."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithObject("patch", mcp.Description("Content fields to replace"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to the open page)")),
	), s.handleUpdateBlock)

	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List the blocks of a page from back to front, optionally filtered by type"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to the open page)")),
		mcp.WithString("type", mcp.Description("Filter by block type (optional)")),
	), s.handleListBlocks)

	// ── get_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_block",
		mcp.WithDescription("Get one block with its full content"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to the open page)")),
	), s.handleGetBlock)

	// ── reorder_block ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("reorder_block",
		mcp.WithDescription("Change a block's depth: front, back, forward (one step up) or backward (one step down)"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("direction",
			mcp.Description("front, back, forward or backward"),
			mcp.Required(),
			mcp.Enum("front", "back", "forward", "backward"),
		),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to the open page)")),
	), s.handleReorderBlock)

	// ── select_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_block",
		mcp.WithDescription("Select a block so get_settings shows its editor. An empty blockId clears the selection."),
		mcp.WithString("blockId", mcp.Description("Block ID (empty to clear)")),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to the open page)")),
	), s.handleSelectBlock)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a block. Requires user approval."),
		mcp.WithString("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to the open page)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)

	// ── batch_delete_blocks ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("batch_delete_blocks",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete multiple blocks at once with a single approval. Requires user approval."),
		mcp.WithString("blockIds",
			mcp.Description("Comma-separated block IDs to delete"),
			mcp.Required(),
		),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to the open page)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleBatchDeleteBlocks)
}

func boolPtr(v bool) *bool { return &v }

// blockView is a block as agents see it. Index is the depth position, 0 at
// the back.
type blockView struct {
	Index   int              `json:"index"`
	ID      string           `json:"id"`
	Type    domain.BlockType `json:"type"`
	Summary string           `json:"summary"`
	Content json.RawMessage  `json:"content"`
}

func viewOf(i int, b domain.Block) blockView {
	v := blockView{Index: i, ID: b.ID, Type: b.Type, Summary: b.Summary(), Content: json.RawMessage("null")}
	if b.Content != nil {
		if raw, err := domain.EncodeContent(b.Content); err == nil {
			v.Content = raw
		}
	}
	return v
}

func blockViews(blocks []domain.Block) []blockView {
	out := make([]blockView, len(blocks))
	for i, b := range blocks {
		out[i] = viewOf(i, b)
	}
	return out
}

// ── Handlers ───────────────────────────────────────────────

type blockTypeView struct {
	Type     domain.BlockType `json:"type"`
	HasLink  bool             `json:"hasLink"`
	Fields   []string         `json:"fields"`
	Defaults json.RawMessage  `json:"defaults"`
}

func (s *Server) handleListBlockTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out []blockTypeView
	for _, t := range domain.AllBlockTypes() {
		fields, err := domain.ContentFields(t)
		if err != nil {
			return nil, err
		}
		def, err := domain.DefaultContent(t)
		if err != nil {
			return nil, err
		}
		raw, err := domain.EncodeContent(def)
		if err != nil {
			return nil, err
		}
		out = append(out, blockTypeView{Type: t, HasLink: t.HasLink(), Fields: fields, Defaults: raw})
	}
	return jsonResult(out)
}

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	blockType, _ := args["type"].(string)
	if blockType == "" {
		return nil, fmt.Errorf("type is required")
	}
	if _, err := s.session(ctx, args); err != nil {
		return nil, err
	}
	patch, err := patchArg(args, "content")
	if err != nil {
		return nil, err
	}

	var b domain.Block
	if idx, ok := args["index"].(float64); ok {
		b, err = s.editor.DropBlock(blockType, int(idx))
	} else {
		b, err = s.editor.AddBlock(blockType)
	}
	if err != nil {
		return nil, err
	}
	if len(patch) > 0 {
		if err := s.editor.UpdateBlock(b.ID, patch); err != nil {
			// the block stays with default content
			s.logger.Warn("initial content rejected", zap.String("blockId", b.ID), zap.Error(err))
			if cerr := s.commit(ctx); cerr != nil {
				return nil, cerr
			}
			return nil, fmt.Errorf("block %s added with default content: %w", b.ID, err)
		}
	}
	if err := s.commit(ctx); err != nil {
		return nil, err
	}
	b, _ = s.editor.Block(b.ID)
	return jsonResult(viewOf(s.editor.Store().Index(b.ID), b))
}

func (s *Server) handleUpdateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.blockForTool(ctx, args)
	if err != nil {
		return nil, err
	}
	patch, err := patchArg(args, "patch")
	if err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return nil, fmt.Errorf("patch is required")
	}
	if err := s.editor.UpdateBlock(b.ID, patch); err != nil {
		return nil, err
	}
	if err := s.commit(ctx); err != nil {
		return nil, err
	}
	b, _ = s.editor.Block(b.ID)
	return jsonResult(viewOf(s.editor.Store().Index(b.ID), b))
}

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	if _, err := s.session(ctx, args); err != nil {
		return nil, err
	}
	filter, _ := args["type"].(string)
	views := blockViews(s.editor.Blocks())
	if filter == "" {
		return jsonResult(views)
	}
	t, err := domain.ParseBlockType(filter)
	if err != nil {
		return nil, err
	}
	out := make([]blockView, 0, len(views))
	for _, v := range views {
		if v.Type == t {
			out = append(out, v)
		}
	}
	return jsonResult(out)
}

func (s *Server) handleGetBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.blockForTool(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return jsonResult(viewOf(s.editor.Store().Index(b.ID), b))
}

func (s *Server) handleReorderBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.blockForTool(ctx, args)
	if err != nil {
		return nil, err
	}
	direction, _ := args["direction"].(string)
	moved, err := s.editor.ReorderBlock(b.ID, direction)
	if err != nil {
		return nil, err
	}
	if !moved {
		return textResult(fmt.Sprintf("Block %s is already at the %s", b.ID, edgeName(direction))), nil
	}
	if err := s.commit(ctx); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Moved block %s %s, now at index %d", b.ID, direction, s.editor.Store().Index(b.ID))), nil
}

func edgeName(direction string) string {
	switch direction {
	case "front", "forward":
		return "front"
	}
	return "back"
}

func (s *Server) handleSelectBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	if _, err := s.session(ctx, args); err != nil {
		return nil, err
	}
	blockID, _ := args["blockId"].(string)
	if blockID == "" {
		s.editor.ClearSelection()
		return textResult("Selection cleared"), nil
	}
	b, ok := s.editor.SelectBlock(blockID)
	if !ok {
		return nil, fmt.Errorf("block %s: %w", blockID, domain.ErrNotFound)
	}
	// selecting may rewrite legacy content
	if err := s.commit(ctx); err != nil {
		return nil, err
	}
	return jsonResult(viewOf(s.editor.Store().Index(b.ID), b))
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.blockForTool(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}

	// Require approval (with metadata for UI highlight)
	meta, _ := json.Marshal(map[string][]string{"blockIds": {b.ID}})
	if err := s.approval.Request(ctx, "delete_block",
		fmt.Sprintf("Delete %s block %q", b.Type, b.Summary()), string(meta)); err != nil {
		s.logger.Info("delete_block not approved", zap.String("blockId", b.ID), zap.Error(err))
		return textResult("Action rejected by user"), nil
	}
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	if !s.editor.DeleteBlock(b.ID) {
		return textResult(fmt.Sprintf("Block %s was already removed", b.ID)), nil
	}
	if err := s.commit(ctx); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Deleted block %s", b.ID)), nil
}

func (s *Server) handleBatchDeleteBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	if _, err := s.session(ctx, args); err != nil {
		return nil, err
	}
	idsStr, _ := args["blockIds"].(string)
	ids := idList(idsStr)
	if len(ids) == 0 {
		return nil, fmt.Errorf("blockIds is required")
	}

	meta, _ := json.Marshal(map[string][]string{"blockIds": ids})
	if err := s.approval.Request(ctx, "batch_delete_blocks",
		fmt.Sprintf("Delete %d blocks: %s", len(ids), strings.Join(ids, ", ")), string(meta)); err != nil {
		s.logger.Info("batch_delete_blocks not approved", zap.Int("count", len(ids)), zap.Error(err))
		return textResult("Action rejected by user"), nil
	}
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	deleted := 0
	for _, id := range ids {
		if s.editor.DeleteBlock(id) {
			deleted++
		}
	}
	if err := s.commit(ctx); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Deleted %d of %d blocks", deleted, len(ids))), nil
}
