package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/logging"
	"pagebuilder/internal/migrate"
)

// ─────────────────────────────────────────────────────────────
// Project Service — business logic for projects and pages
// ─────────────────────────────────────────────────────────────

// ProjectService manages projects and their pages.
type ProjectService struct {
	store   domain.ProjectStore
	blocks  domain.BlockRepository
	emitter EventEmitter
	logger  *zap.Logger
}

// NewProjectService creates a ProjectService.
func NewProjectService(store domain.ProjectStore, blocks domain.BlockRepository, emitter EventEmitter, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		store:   store,
		blocks:  blocks,
		emitter: emitter,
		logger:  logging.Component(logger, "projects"),
	}
}

func requireName(kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%s name is required", kind)
	}
	return name, nil
}

// ── Projects ───────────────────────────────────────────────

func (s *ProjectService) ListProjects() ([]domain.Project, error) {
	projects, err := s.store.ListProjects()
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	return projects, nil
}

func (s *ProjectService) GetProject(id string) (*domain.Project, error) {
	return s.store.GetProject(id)
}

func (s *ProjectService) CreateProject(ctx context.Context, name string) (*domain.Project, error) {
	name, err := requireName("project", name)
	if err != nil {
		return nil, err
	}
	p := &domain.Project{ID: uuid.New().String(), Name: name}
	if err := s.store.CreateProject(p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.logger.Info("project created", zap.String("projectId", p.ID), zap.String("name", p.Name))
	s.emitter.Emit(ctx, EventProjectsChanged, map[string]string{"projectId": p.ID})
	return p, nil
}

func (s *ProjectService) RenameProject(ctx context.Context, id, name string) error {
	name, err := requireName("project", name)
	if err != nil {
		return err
	}
	p, err := s.store.GetProject(id)
	if err != nil {
		return err
	}
	p.Name = name
	if err := s.store.UpdateProject(p); err != nil {
		return fmt.Errorf("rename project: %w", err)
	}
	s.emitter.Emit(ctx, EventProjectsChanged, map[string]string{"projectId": id})
	return nil
}

// DeleteProject removes the project with its pages and their blocks.
func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	pages, err := s.store.ListPages(id)
	if err != nil {
		return fmt.Errorf("list pages: %w", err)
	}
	for _, p := range pages {
		if err := s.blocks.DeletePageBlocks(ctx, p.ID); err != nil {
			return fmt.Errorf("delete blocks of page %s: %w", p.ID, err)
		}
	}
	if err := s.store.DeletePagesByProject(id); err != nil {
		return fmt.Errorf("delete pages: %w", err)
	}
	if err := s.store.DeleteProject(id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	s.logger.Info("project deleted", zap.String("projectId", id), zap.Int("pages", len(pages)))
	s.emitter.Emit(ctx, EventProjectsChanged, map[string]string{"projectId": id})
	return nil
}

// ── Pages ──────────────────────────────────────────────────

func (s *ProjectService) ListPages(projectID string) ([]domain.Page, error) {
	pages, err := s.store.ListPages(projectID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if pages == nil {
		pages = []domain.Page{}
	}
	return pages, nil
}

func (s *ProjectService) GetPage(id string) (*domain.Page, error) {
	return s.store.GetPage(id)
}

// CreatePage appends a page to the project.
func (s *ProjectService) CreatePage(ctx context.Context, projectID, name string) (*domain.Page, error) {
	name, err := requireName("page", name)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetProject(projectID); err != nil {
		return nil, err
	}
	existing, err := s.store.ListPages(projectID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	p := &domain.Page{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
		Order:     len(existing),
	}
	if err := s.store.CreatePage(p); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	s.emitter.Emit(ctx, EventPagesChanged, map[string]string{"projectId": projectID})
	return p, nil
}

func (s *ProjectService) RenamePage(ctx context.Context, id, name string) error {
	name, err := requireName("page", name)
	if err != nil {
		return err
	}
	p, err := s.store.GetPage(id)
	if err != nil {
		return err
	}
	p.Name = name
	if err := s.store.UpdatePage(p); err != nil {
		return fmt.Errorf("rename page: %w", err)
	}
	s.emitter.Emit(ctx, EventPagesChanged, map[string]string{"projectId": p.ProjectID})
	return nil
}

func (s *ProjectService) DeletePage(ctx context.Context, id string) error {
	p, err := s.store.GetPage(id)
	if err != nil {
		return err
	}
	if err := s.blocks.DeletePageBlocks(ctx, id); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}
	if err := s.store.DeletePage(id); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	s.emitter.Emit(ctx, EventPagesChanged, map[string]string{"projectId": p.ProjectID})
	return nil
}

// GetPageState reads a page and its blocks as stored, without touching the
// editing session. Legacy content is normalized in the returned copy only.
func (s *ProjectService) GetPageState(ctx context.Context, pageID string) (*domain.PageState, error) {
	page, err := s.store.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	stored, err := s.blocks.ListPageBlocks(ctx, pageID)
	if err != nil {
		return nil, err
	}
	blocks := make([]domain.Block, 0, len(stored))
	for _, sb := range stored {
		if _, err := migrate.Block(&sb); err != nil {
			return nil, fmt.Errorf("block %s: %w", sb.ID, err)
		}
		content, err := domain.DecodeContent(sb.Type, sb.Content)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", sb.ID, err)
		}
		blocks = append(blocks, domain.NewBlock(sb.ID, pageID, content))
	}
	return &domain.PageState{Page: *page, Blocks: blocks}, nil
}
