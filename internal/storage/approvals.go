package storage

import (
	"context"
	"fmt"
	"time"
)

const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Approval is a destructive MCP call waiting for the user.
type Approval struct {
	ID          string    `json:"id"`
	Tool        string    `json:"tool"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Metadata    string    `json:"metadata"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ApprovalStore is the mcp_approvals table. It lets a standalone MCP process
// ask the app's user for approval across processes.
type ApprovalStore struct {
	db *DB
}

func NewApprovalStore(db *DB) *ApprovalStore {
	return &ApprovalStore{db: db}
}

func (s *ApprovalStore) Insert(ctx context.Context, a Approval) error {
	if a.Status == "" {
		a.Status = ApprovalPending
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.conn.ExecContext(ctx, s.db.q(
		`INSERT INTO mcp_approvals (id, tool, description, status, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		a.ID, a.Tool, a.Description, a.Status, a.Metadata, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

// Status returns the status of id.
func (s *ApprovalStore) Status(ctx context.Context, id string) (string, error) {
	var status string
	err := s.db.conn.QueryRowContext(ctx, s.db.q(`SELECT status FROM mcp_approvals WHERE id = ?`), id).Scan(&status)
	if err != nil {
		return "", notFound("approval", id, err)
	}
	return status, nil
}

// Resolve moves a pending approval to approved or rejected. It reports false
// if id is no longer pending.
func (s *ApprovalStore) Resolve(ctx context.Context, id string, approved bool) (bool, error) {
	status := ApprovalRejected
	if approved {
		status = ApprovalApproved
	}
	res, err := s.db.conn.ExecContext(ctx, s.db.q(
		`UPDATE mcp_approvals SET status = ? WHERE id = ? AND status = ?`), status, id, ApprovalPending)
	if err != nil {
		return false, fmt.Errorf("resolve approval: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *ApprovalStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.conn.ExecContext(ctx, s.db.q(`DELETE FROM mcp_approvals WHERE id = ?`), id)
	return err
}

func (s *ApprovalStore) ListPending(ctx context.Context) ([]Approval, error) {
	rows, err := s.db.conn.QueryContext(ctx, s.db.q(
		`SELECT id, tool, description, status, metadata, created_at FROM mcp_approvals WHERE status = ? ORDER BY created_at ASC`),
		ApprovalPending,
	)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var out []Approval
	for rows.Next() {
		var a Approval
		if err := rows.Scan(&a.ID, &a.Tool, &a.Description, &a.Status, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
