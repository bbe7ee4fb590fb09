package app

import (
	"time"

	"go.uber.org/zap"
)

// ─────────────────────────────────────────────────────────────
// MCP approvals — the user's answer to destructive agent calls
// ─────────────────────────────────────────────────────────────

// ApproveAction approves a pending action, whether it was requested by the
// in-process MCP server or by a standalone one through the approvals table.
func (a *App) ApproveAction(id string) error {
	return a.answer(id, true)
}

func (a *App) RejectAction(id string) error {
	return a.answer(id, false)
}

func (a *App) answer(id string, approved bool) error {
	if a.mcp != nil {
		var ok bool
		if approved {
			ok = a.mcp.Approve(id)
		} else {
			ok = a.mcp.Reject(id)
		}
		if ok {
			return nil
		}
	}
	ok, err := a.backend.Approvals.Resolve(a.ctx, id, approved)
	if err != nil {
		return err
	}
	if !ok {
		a.logger.Debug("approval no longer pending", zap.String("id", id))
	}
	return nil
}

// PendingApprovals lists actions requested by standalone MCP processes.
func (a *App) PendingApprovals() ([]ApprovalView, error) {
	pending, err := a.backend.Approvals.ListPending(a.ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ApprovalView, 0, len(pending))
	for _, p := range pending {
		out = append(out, ApprovalView{
			ID:          p.ID,
			Tool:        p.Tool,
			Description: p.Description,
			CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
			Metadata:    p.Metadata,
		})
	}
	return out, nil
}
