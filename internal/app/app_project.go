package app

// ─────────────────────────────────────────────────────────────
// Project + Page Handlers — thin delegates to ProjectService
// ─────────────────────────────────────────────────────────────

import (
	"go.uber.org/zap"

	"pagebuilder/internal/domain"
)

// ── Projects ───────────────────────────────────────────────

func (a *App) ListProjects() ([]domain.Project, error) {
	return a.projects.ListProjects()
}

func (a *App) CreateProject(name string) (*domain.Project, error) {
	return a.projects.CreateProject(a.ctx, name)
}

func (a *App) RenameProject(id, name string) error {
	return a.projects.RenameProject(a.ctx, id, name)
}

func (a *App) DeleteProject(id string) error {
	if p, err := a.projects.GetPage(a.editor.PageID()); err == nil && p.ProjectID == id {
		// the session must not save into a deleted page
		a.editor.ClosePage()
	}
	return a.projects.DeleteProject(a.ctx, id)
}

// ── Pages ──────────────────────────────────────────────────

func (a *App) ListPages(projectID string) ([]domain.Page, error) {
	return a.projects.ListPages(projectID)
}

func (a *App) CreatePage(projectID, name string) (*domain.Page, error) {
	p, err := a.projects.CreatePage(a.ctx, projectID, name)
	if err != nil {
		return nil, err
	}
	a.refreshDirectory()
	return p, nil
}

func (a *App) RenamePage(id, name string) error {
	if err := a.projects.RenamePage(a.ctx, id, name); err != nil {
		return err
	}
	a.refreshDirectory()
	return nil
}

func (a *App) DeletePage(id string) error {
	if a.editor.PageID() == id {
		a.editor.ClosePage()
	}
	if err := a.projects.DeletePage(a.ctx, id); err != nil {
		return err
	}
	a.refreshDirectory()
	return nil
}

// GetPageState returns a page as stored, without opening it.
func (a *App) GetPageState(pageID string) (*domain.PageState, error) {
	a.logger.Debug("loading page state", zap.String("pageId", pageID))
	return a.projects.GetPageState(a.ctx, pageID)
}

// OpenPage makes pageID the page being edited.
func (a *App) OpenPage(pageID string) (*domain.Page, error) {
	return a.editor.OpenPage(a.ctx, pageID)
}

// SavePage writes the open page now.
func (a *App) SavePage() error {
	return a.editor.Save(a.ctx)
}

// refreshDirectory reloads project pages used as link targets.
func (a *App) refreshDirectory() {
	sd, ok := a.dir.(interface{ Refresh() error })
	if !ok {
		return
	}
	if err := sd.Refresh(); err != nil {
		a.logger.Warn("page directory refresh failed", zap.Error(err))
	}
}
