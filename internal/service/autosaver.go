package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pagebuilder/internal/logging"
)

// ─────────────────────────────────────────────────────────────
// Autosaver — periodic save of the active page
// ─────────────────────────────────────────────────────────────

// Autosaver saves the editing session on a cron schedule.
type Autosaver struct {
	editor   *EditorService
	schedule string
	logger   *zap.Logger

	cron   *cron.Cron
	saving saveGuard
}

// NewAutosaver creates an Autosaver. schedule uses cron syntax, including the
// "@every 30s" descriptors.
func NewAutosaver(editor *EditorService, schedule string, logger *zap.Logger) *Autosaver {
	return &Autosaver{
		editor:   editor,
		schedule: schedule,
		logger:   logging.Component(logger, "autosave"),
	}
}

// Start registers the schedule and starts the cron runner.
func (a *Autosaver) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(a.schedule, func() { a.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid autosave schedule %q: %w", a.schedule, err)
	}
	a.cron = c
	c.Start()
	a.logger.Info("autosave scheduled", zap.String("schedule", a.schedule))
	return nil
}

// RunOnce saves the page if it is dirty. A run that overlaps a previous save
// of the same page is skipped.
func (a *Autosaver) RunOnce(ctx context.Context) bool {
	pageID := a.editor.PageID()
	if pageID == "" {
		return false
	}
	if !a.saving.Acquire(pageID) {
		a.logger.Debug("autosave skipped, save in progress", zap.String("pageId", pageID))
		return false
	}
	defer a.saving.Release(pageID)

	saved, err := a.editor.SaveIfDirty(ctx)
	if err != nil {
		a.logger.Error("autosave failed", zap.String("pageId", pageID), zap.Error(err))
		return false
	}
	if saved {
		a.logger.Debug("autosaved", zap.String("pageId", pageID))
	}
	return saved
}

// Stop halts the schedule and waits for an in-flight save.
func (a *Autosaver) Stop(ctx context.Context) {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	a.saving.Wait(ctx)
}
