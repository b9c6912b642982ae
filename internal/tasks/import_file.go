package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/boox2zotero/internal/services"
)

// FileImporter is the part of services.ImportService the task needs.
type FileImporter interface {
	ImportFile(ctx context.Context, path string, opts services.ImportOptions) (services.Summary, error)
}

// ImportFileTask imports one export file from the inbox.
type ImportFileTask struct {
	Path string `json:"path"`
}

// backlite reads queue settings from the zero task value, so the values
// configured through NewImportFileQueue live here.
var importQueueConfig = defaultImportQueueConfig()

// defaultImportQueueConfig returns a fresh config each call; Retention is a
// pointer and must not be shared between queues.
func defaultImportQueueConfig() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_file",
		MaxAttempts: 6,
		Backoff:     1 * time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// Config returns the queue configuration for import tasks.
func (t ImportFileTask) Config() backlite.QueueConfig {
	return importQueueConfig
}

// ImportFileProcessor imports the file and moves it out of the inbox. A
// locked database is returned as an error so backlite retries later; any
// other failure moves the file to the failed directory.
func ImportFileProcessor(importer FileImporter, inbox *Inbox, logger *slog.Logger) backlite.QueueProcessor[ImportFileTask] {
	return func(ctx context.Context, task ImportFileTask) error {
		if importer == nil {
			return fmt.Errorf("importer not configured")
		}

		summary, err := importer.ImportFile(ctx, task.Path, services.ImportOptions{Trigger: "watch"})
		if err != nil {
			if services.IsRetryable(err) {
				logger.Warn("zotero database locked, will retry", "file", task.Path)
				return fmt.Errorf("import %s: %w", task.Path, err)
			}

			logger.Error("import failed", "file", task.Path, "error", err)
			if dest, moveErr := inbox.MarkFailed(task.Path); moveErr != nil {
				logger.Error("could not move failed export", "file", task.Path, "error", moveErr)
			} else {
				logger.Info("moved export", "to", dest)
			}
			return nil
		}

		r := summary.Result
		logger.Info("imported export", "file", task.Path, "book", summary.Identifier,
			"inserted", r.Inserted, "skipped", r.Skipped, "failed", r.Failed)

		if _, err := inbox.MarkImported(task.Path); err != nil {
			return fmt.Errorf("import %s succeeded but the file could not be moved: %w", task.Path, err)
		}
		return nil
	}
}

// NewImportFileQueue creates the backlite queue for import tasks using the
// retry settings from cfg. Unset fields fall back to the defaults, not to
// whatever an earlier call configured.
func NewImportFileQueue(importer FileImporter, inbox *Inbox, cfg Config, logger *slog.Logger) backlite.Queue {
	qc := defaultImportQueueConfig()
	if cfg.MaxRetries > 0 {
		qc.MaxAttempts = cfg.MaxRetries + 1
	}
	if cfg.RetryDelay > 0 {
		qc.Backoff = cfg.RetryDelay
	}
	if cfg.TaskTimeout > 0 {
		qc.Timeout = cfg.TaskTimeout
	}
	if cfg.RetentionDuration > 0 {
		qc.Retention.Duration = cfg.RetentionDuration
	}
	importQueueConfig = qc
	if logger == nil {
		logger = slog.Default()
	}
	return backlite.NewQueue(ImportFileProcessor(importer, inbox, logger))
}
