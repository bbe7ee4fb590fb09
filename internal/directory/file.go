package directory

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"pagebuilder/internal/domain"
)

type fileEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type fileFormat struct {
	Pages []fileEntry `yaml:"pages"`
}

// FileDirectory serves pages listed in a YAML file and reloads it whenever
// the file is written. A reload that fails keeps the previous list.
type FileDirectory struct {
	path     string
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	onReload func([]domain.Page)

	mu    sync.RWMutex
	pages []domain.Page
}

// OpenFile loads path and starts watching it. onReload may be nil.
func OpenFile(path string, logger *zap.Logger, onReload func([]domain.Page)) (*FileDirectory, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &FileDirectory{
		path:     absPath,
		logger:   logger.With(zap.String("component", "directory")),
		onReload: onReload,
	}
	if err := d.reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Editors replace files by rename, so watch the directory.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(absPath), err)
	}
	d.watcher = watcher

	go d.watchLoop()

	return d, nil
}

// ReadFile parses a page directory file without watching it.
func ReadFile(path string) ([]domain.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page directory: %w", err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse page directory %s: %w", path, err)
	}
	pages := make([]domain.Page, 0, len(f.Pages))
	seen := make(map[string]struct{}, len(f.Pages))
	for i, e := range f.Pages {
		if e.ID == "" {
			return nil, fmt.Errorf("parse page directory %s: entry %d has no id", path, i)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("parse page directory %s: duplicate id %q", path, e.ID)
		}
		seen[e.ID] = struct{}{}
		pages = append(pages, domain.Page{ID: e.ID, Name: e.Name, Order: i})
	}
	return pages, nil
}

func (d *FileDirectory) reload() error {
	pages, err := ReadFile(d.path)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.pages = pages
	d.mu.Unlock()
	if d.onReload != nil {
		d.onReload(slices.Clone(pages))
	}
	return nil
}

func (d *FileDirectory) Pages() []domain.Page {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.pages)
}

func (d *FileDirectory) Page(id string) (domain.Page, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return find(d.pages, id)
}

func (d *FileDirectory) Path() string { return d.path }

// Close stops the watcher.
func (d *FileDirectory) Close() error {
	return d.watcher.Close()
}

func (d *FileDirectory) watchLoop() {
	for {
		select {
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			absPath, _ := filepath.Abs(event.Name)
			if absPath != d.path {
				continue
			}
			if err := d.reload(); err != nil {
				d.logger.Warn("reload page directory", zap.String("path", d.path), zap.Error(err))
				continue
			}
			d.logger.Debug("page directory reloaded", zap.String("path", d.path))
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.logger.Warn("watcher error", zap.Error(err))
		}
	}
}
