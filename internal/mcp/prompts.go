package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("landing_page",
		mcp.WithPromptDescription("Guide through building a landing page from blocks"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("What the landing page is about"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("pageId",
			mcp.ArgumentDescription("Page to build on (optional, defaults to the open page)"),
		),
	), s.handleLandingPagePrompt)
}

func (s *Server) handleLandingPagePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	target := "the open page"
	if pageID := req.Params.Arguments["pageId"]; pageID != "" {
		target = fmt.Sprintf("page %s (call open_page first)", pageID)
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a landing page for: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a landing page about "%s" on %s. Follow these steps:

1. Use list_block_types to see the available blocks and their fields
2. Add a heading block (add_block type "heading") with the page title, level 1, centered
3. Add a paragraph block introducing %s
4. Add an image block with a descriptive alt text
5. Add a button block as the call to action. Use list_link_targets and set_link to point it at another page of the project, or at a URL
6. Add a divider, then a social block with the relevant profiles
7. Use list_layers to check the order. Blocks added later sit in front; use reorder_block if something is hidden
8. Finish with save_page

Keep texts short and use one accent color across heading, button and divider.`, topic, target, topic),
				},
			},
		},
	}, nil
}
