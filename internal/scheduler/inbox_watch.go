// Package scheduler runs the watch mode: a cron job that scans the export
// inbox and enqueues one import task per new file.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/boox2zotero/internal/tasks"
)

// Enqueuer hands import tasks to the task queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task tasks.ImportFileTask) (string, error)
}

// Lister reports the export files waiting in the inbox.
type Lister interface {
	Pending() ([]string, error)
}

// InboxWatcher periodically enqueues pending inbox files. A file is enqueued
// again only after PendingTTL, which covers exports left behind when a task
// exhausts its retries.
type InboxWatcher struct {
	inbox    Lister
	queue    Enqueuer
	schedule string
	logger   *slog.Logger

	// PendingTTL is how long an enqueued file is not enqueued again. Default: 1h
	PendingTTL time.Duration

	now func() time.Time

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.Mutex
	pending   map[string]time.Time
	isRunning bool
	ctx       context.Context
}

func NewInboxWatcher(inbox Lister, queue Enqueuer, schedule string, logger *slog.Logger) *InboxWatcher {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InboxWatcher{
		inbox:      inbox,
		queue:      queue,
		schedule:   schedule,
		logger:     logger,
		PendingTTL: time.Hour,
		now:        time.Now,
		cron:       cron.New(cron.WithParser(parser)),
		pending:    make(map[string]time.Time),
		ctx:        context.Background(),
	}
}

// Start schedules the scan job and runs one scan immediately. The watcher
// stops when ctx is cancelled.
func (w *InboxWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return nil
	}

	if err := ValidateSchedule(w.schedule); err != nil {
		w.mu.Unlock()
		return fmt.Errorf("invalid cron schedule '%s': %w", w.schedule, err)
	}

	entryID, err := w.cron.AddFunc(w.schedule, func() {
		if _, err := w.Scan(); err != nil {
			w.logger.Error("inbox scan failed", "error", err)
		}
	})
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("failed to schedule inbox scan: %w", err)
	}
	w.entryID = entryID
	w.ctx = ctx

	w.cron.Start()
	w.isRunning = true
	w.mu.Unlock()

	next, _ := NextRun(w.schedule, w.now())
	w.logger.Info("inbox watcher started",
		"schedule", w.schedule, "description", DescribeSchedule(w.schedule), "next_run", next)

	if _, err := w.Scan(); err != nil {
		w.logger.Error("inbox scan failed", "error", err)
	}

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}

// Stop waits for a running scan to finish.
func (w *InboxWatcher) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	w.cron.Remove(w.entryID)
	w.mu.Unlock()

	<-w.cron.Stop().Done()
	w.logger.Info("inbox watcher stopped")
}

func (w *InboxWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

// Scan enqueues every pending file not enqueued within PendingTTL and
// returns how many tasks were added.
func (w *InboxWatcher) Scan() (int, error) {
	files, err := w.inbox.Pending()
	if err != nil {
		return 0, fmt.Errorf("list inbox: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	present := make(map[string]struct{}, len(files))
	enqueued := 0

	for _, path := range files {
		present[path] = struct{}{}

		if at, ok := w.pending[path]; ok && now.Sub(at) < w.PendingTTL {
			continue
		}

		id, err := w.queue.Enqueue(w.ctx, tasks.ImportFileTask{Path: path})
		if err != nil {
			w.logger.Error("failed to enqueue import", "file", path, "error", err)
			continue
		}
		w.pending[path] = now
		enqueued++
		w.logger.Info("enqueued import", "file", path, "task", id)
	}

	// Files moved to imported/ or failed/ no longer need tracking
	for path := range w.pending {
		if _, ok := present[path]; !ok {
			delete(w.pending, path)
		}
	}

	return enqueued, nil
}
