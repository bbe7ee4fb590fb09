package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"pagebuilder/internal/domain"
)

// BlockRepository implements domain.BlockRepository on SQL. Content is
// stored as the raw JSON it was given.
type BlockRepository struct {
	db *DB
}

func NewBlockRepository(db *DB) *BlockRepository {
	return &BlockRepository{db: db}
}

func (s *BlockRepository) ListPageBlocks(ctx context.Context, pageID string) ([]domain.StoredBlock, error) {
	rows, err := s.db.conn.QueryContext(ctx, s.db.q(
		`SELECT id, page_id, type, sort_order, content_json, created_at, updated_at FROM blocks WHERE page_id = ? ORDER BY sort_order ASC`),
		pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []domain.StoredBlock
	for rows.Next() {
		var b domain.StoredBlock
		var content string
		if err := rows.Scan(&b.ID, &b.PageID, &b.Type, &b.SortOrder, &content, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		b.Content = []byte(content)
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// ReplacePageBlocks atomically replaces all blocks for a page. The slice
// order becomes sort_order. Timestamps are kept as given; zero ones are
// stamped with the save time.
func (s *BlockRepository) ReplacePageBlocks(ctx context.Context, pageID string, blocks []domain.StoredBlock) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.db.q(`DELETE FROM blocks WHERE page_id = ?`), pageID); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}

	now := time.Now().UTC()
	insert := s.db.q(`INSERT INTO blocks (id, page_id, type, sort_order, content_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for i, b := range blocks {
		created, updated := stamp(b, now)
		content := string(b.Content)
		if content == "" {
			content = "{}"
		}
		if _, err := tx.ExecContext(ctx, insert, b.ID, pageID, string(b.Type), i, content, created, updated); err != nil {
			return fmt.Errorf("insert block %s: %w", b.ID, err)
		}
	}

	return tx.Commit()
}

func (s *BlockRepository) DeletePageBlocks(ctx context.Context, pageID string) error {
	_, err := s.db.conn.ExecContext(ctx, s.db.q(`DELETE FROM blocks WHERE page_id = ?`), pageID)
	return err
}

// PageFingerprint hashes the stored sequence of a page, so any add, delete,
// reorder or content change yields a new value.
func (s *BlockRepository) PageFingerprint(ctx context.Context, pageID string) (string, error) {
	blocks, err := s.ListPageBlocks(ctx, pageID)
	if err != nil {
		return "", fmt.Errorf("page fingerprint: %w", err)
	}
	return fingerprint(blocks), nil
}

func stamp(b domain.StoredBlock, now time.Time) (created, updated time.Time) {
	created, updated = b.CreatedAt, b.UpdatedAt
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = created
	}
	return created.UTC(), updated.UTC()
}

func fingerprint(blocks []domain.StoredBlock) string {
	if len(blocks) == 0 {
		return "0:"
	}
	h := xxhash.New()
	for _, b := range blocks {
		h.WriteString(b.ID)
		h.WriteString("\x00")
		h.WriteString(string(b.Type))
		h.WriteString("\x00")
		h.Write(b.Content)
		h.WriteString("\x00")
		h.WriteString(strconv.FormatInt(b.UpdatedAt.UnixNano(), 10))
		h.WriteString("\x00")
	}
	return strconv.Itoa(len(blocks)) + ":" + strconv.FormatUint(h.Sum64(), 16)
}
