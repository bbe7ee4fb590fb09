// Package directory provides the page lists link references resolve against.
package directory

import (
	"fmt"
	"slices"
	"sync"

	"pagebuilder/internal/domain"
)

// Static is a fixed page list.
type Static struct {
	pages []domain.Page
}

func NewStatic(pages []domain.Page) *Static {
	return &Static{pages: slices.Clone(pages)}
}

func (s *Static) Pages() []domain.Page { return slices.Clone(s.pages) }

func (s *Static) Page(id string) (domain.Page, bool) {
	return find(s.pages, id)
}

func find(pages []domain.Page, id string) (domain.Page, bool) {
	i := slices.IndexFunc(pages, func(p domain.Page) bool { return p.ID == id })
	if i < 0 {
		return domain.Page{}, false
	}
	return pages[i], true
}

// PageLister is the part of the project store StoreDirectory reads.
type PageLister interface {
	ListPages(projectID string) ([]domain.Page, error)
}

// StoreDirectory lists the pages of one project. The list is cached and
// reloaded by Refresh, so lookups never hit the database.
type StoreDirectory struct {
	store PageLister

	mu        sync.RWMutex
	projectID string
	pages     []domain.Page
}

func NewStoreDirectory(store PageLister) *StoreDirectory {
	return &StoreDirectory{store: store}
}

// SetProject switches to another project and loads its pages.
func (d *StoreDirectory) SetProject(projectID string) error {
	d.mu.Lock()
	d.projectID = projectID
	d.mu.Unlock()
	return d.Refresh()
}

func (d *StoreDirectory) ProjectID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.projectID
}

func (d *StoreDirectory) Refresh() error {
	d.mu.RLock()
	projectID := d.projectID
	d.mu.RUnlock()

	var pages []domain.Page
	if projectID != "" {
		var err error
		pages, err = d.store.ListPages(projectID)
		if err != nil {
			return fmt.Errorf("list pages: %w", err)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.projectID == projectID {
		d.pages = pages
	}
	return nil
}

func (d *StoreDirectory) Pages() []domain.Page {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.pages)
}

func (d *StoreDirectory) Page(id string) (domain.Page, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return find(d.pages, id)
}
