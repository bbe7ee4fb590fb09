package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pagebuilder/internal/domain"
)

// ProjectStore implements domain.ProjectStore on SQL.
type ProjectStore struct {
	db *DB
}

func NewProjectStore(db *DB) *ProjectStore {
	return &ProjectStore{db: db}
}

func notFound(what, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("get %s %s: %w", what, id, domain.ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

func (s *ProjectStore) CreateProject(p *domain.Project) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.db.conn.Exec(s.db.q(
		`INSERT INTO projects (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`),
		p.ID, p.Name, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (s *ProjectStore) GetProject(id string) (*domain.Project, error) {
	p := &domain.Project{}
	err := s.db.conn.QueryRow(s.db.q(
		`SELECT id, name, created_at, updated_at FROM projects WHERE id = ?`), id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound("project", id, err)
	}
	return p, nil
}

func (s *ProjectStore) ListProjects() ([]domain.Project, error) {
	rows, err := s.db.conn.Query(`SELECT id, name, created_at, updated_at FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *ProjectStore) UpdateProject(p *domain.Project) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := s.db.conn.Exec(s.db.q(
		`UPDATE projects SET name = ?, updated_at = ? WHERE id = ?`),
		p.Name, p.UpdatedAt, p.ID,
	)
	return err
}

func (s *ProjectStore) DeleteProject(id string) error {
	_, err := s.db.conn.Exec(s.db.q(`DELETE FROM projects WHERE id = ?`), id)
	return err
}

func (s *ProjectStore) CreatePage(p *domain.Page) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.db.conn.Exec(s.db.q(
		`INSERT INTO pages (id, project_id, name, sort_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`),
		p.ID, p.ProjectID, p.Name, p.Order, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (s *ProjectStore) GetPage(id string) (*domain.Page, error) {
	p := &domain.Page{}
	err := s.db.conn.QueryRow(s.db.q(
		`SELECT id, project_id, name, sort_order, created_at, updated_at FROM pages WHERE id = ?`), id,
	).Scan(&p.ID, &p.ProjectID, &p.Name, &p.Order, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound("page", id, err)
	}
	return p, nil
}

func (s *ProjectStore) ListPages(projectID string) ([]domain.Page, error) {
	rows, err := s.db.conn.Query(s.db.q(
		`SELECT id, project_id, name, sort_order, created_at, updated_at FROM pages WHERE project_id = ? ORDER BY sort_order ASC, created_at ASC`),
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		var p domain.Page
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Name, &p.Order, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (s *ProjectStore) UpdatePage(p *domain.Page) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := s.db.conn.Exec(s.db.q(
		`UPDATE pages SET name = ?, sort_order = ?, updated_at = ? WHERE id = ?`),
		p.Name, p.Order, p.UpdatedAt, p.ID,
	)
	return err
}

func (s *ProjectStore) DeletePage(id string) error {
	_, err := s.db.conn.Exec(s.db.q(`DELETE FROM pages WHERE id = ?`), id)
	return err
}

func (s *ProjectStore) DeletePagesByProject(projectID string) error {
	_, err := s.db.conn.Exec(s.db.q(`DELETE FROM pages WHERE project_id = ?`), projectID)
	return err
}
