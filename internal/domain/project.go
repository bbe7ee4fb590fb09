package domain

import "time"

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Page struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Name      string    `json:"name"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PageDirectory is the read-only list of pages available as link targets.
type PageDirectory interface {
	Pages() []Page
	Page(id string) (Page, bool)
}

type ProjectStore interface {
	CreateProject(p *Project) error
	GetProject(id string) (*Project, error)
	ListProjects() ([]Project, error)
	UpdateProject(p *Project) error
	DeleteProject(id string) error

	CreatePage(p *Page) error
	GetPage(id string) (*Page, error)
	ListPages(projectID string) ([]Page, error)
	UpdatePage(p *Page) error
	DeletePage(id string) error
	DeletePagesByProject(projectID string) error
}

// PageState is everything needed to render one page.
type PageState struct {
	Page   Page    `json:"page"`
	Blocks []Block `json:"blocks"`
}
