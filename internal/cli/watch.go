package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mrlokans/boox2zotero/internal/config"
	"github.com/mrlokans/boox2zotero/internal/logging"
	"github.com/mrlokans/boox2zotero/internal/scheduler"
	"github.com/mrlokans/boox2zotero/internal/services"
	"github.com/mrlokans/boox2zotero/internal/tasks"
	"github.com/mrlokans/boox2zotero/internal/zotero"
)

const shutdownTimeout = 30 * time.Second

// WatchCommand imports every export dropped into an inbox directory.
type WatchCommand struct {
	InboxDir       string
	Schedule       string
	StateDir       string
	ZoteroDir      string
	StorageDir     string
	HighlightColor string
	Debug          bool

	Config  *config.Config
	Locator *zotero.Locator
	Stderr  io.Writer
}

func NewWatchCommand() *WatchCommand {
	return &WatchCommand{
		Config:  config.NewConfig(),
		Locator: zotero.NewLocator(),
		Stderr:  os.Stderr,
	}
}

func (cmd *WatchCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(cmd.Stderr)

	fs.StringVar(&cmd.InboxDir, "inbox", "", "Directory to watch for Boox exports (default: INBOX_DIR)")
	fs.StringVar(&cmd.Schedule, "schedule", "", "Cron schedule for inbox scans (default: WATCH_SCHEDULE or every 5 minutes)")
	fs.StringVar(&cmd.StateDir, "state-dir", "", "Directory for the task queue database (default: STATE_DIR)")
	fs.StringVar(&cmd.ZoteroDir, "zotero-dir", "", "Zotero data directory containing zotero.sqlite")
	fs.StringVar(&cmd.StorageDir, "storage-dir", "", "Base directory for linked attachments")
	fs.StringVar(&cmd.HighlightColor, "highlight-color", "", "Highlight color for imported annotations")
	fs.BoolVar(&cmd.Debug, "debug", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(cmd.Stderr, "Usage: %s watch -inbox <dir> [options]\n\n", os.Args[0])
		fmt.Fprintf(cmd.Stderr, "Periodically import Boox exports placed in an inbox directory.\n")
		fmt.Fprintf(cmd.Stderr, "Imported files move to <inbox>/%s, rejected ones to <inbox>/%s.\n", tasks.ImportedDirName, tasks.FailedDirName)
		fmt.Fprintf(cmd.Stderr, "Imports are retried while Zotero holds the database lock.\n\n")
		fmt.Fprintf(cmd.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := cmd.Config
	if cmd.InboxDir != "" {
		cfg.Watch.InboxDir = cmd.InboxDir
	}
	if cmd.Schedule != "" {
		cfg.Watch.Schedule = cmd.Schedule
	}
	if cmd.StateDir != "" {
		cfg.Watch.StateDir = cmd.StateDir
	}
	if cmd.ZoteroDir != "" {
		cfg.Zotero.DataDir = cmd.ZoteroDir
	}
	if cmd.StorageDir != "" {
		cfg.Zotero.StorageDir = cmd.StorageDir
	}
	if cmd.HighlightColor != "" {
		cfg.Import.HighlightColor = cmd.HighlightColor
	}
	if cmd.Debug {
		cfg.Log.Level = "debug"
	}

	if cfg.Watch.InboxDir == "" {
		return fmt.Errorf("inbox directory not provided (use -inbox or INBOX_DIR)")
	}
	if err := scheduler.ValidateSchedule(cfg.Watch.Schedule); err != nil {
		return fmt.Errorf("invalid schedule '%s': %w", cfg.Watch.Schedule, err)
	}

	return nil
}

// Run blocks until ctx is cancelled.
func (cmd *WatchCommand) Run(ctx context.Context) error {
	cfg := cmd.Config
	logger := logging.NewWithWriter(cmd.Stderr, logging.ParseLevel(cfg.Log.Level))

	// Nobody is at the terminal to confirm a weak match.
	svc, paths, err := newImportService(cfg, cmd.Locator, services.AutoConfirmer{Logger: logger}, logger)
	if err != nil {
		return err
	}
	logger.Info("watching inbox", "inbox", cfg.Watch.InboxDir, "database", paths.DatabasePath())

	if err := os.MkdirAll(cfg.Watch.InboxDir, 0755); err != nil {
		return fmt.Errorf("failed to create inbox: %w", err)
	}
	inbox := tasks.NewInbox(cfg.Watch.InboxDir)

	taskCfg := cfg.TasksConfig()
	client, err := tasks.NewClient(cfg.Watch.StateDir, taskCfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	client.Register(tasks.NewImportFileQueue(svc, inbox, taskCfg, logger))
	client.Start(ctx)

	watcher := scheduler.NewInboxWatcher(inbox, client, cfg.Watch.Schedule, logger)
	if err := watcher.Start(ctx); err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		client.Stop(stopCtx)
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")

	watcher.Stop()
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if !client.Stop(stopCtx) {
		logger.Warn("task queue did not stop in time")
	}
	return nil
}
