package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrlokans/boox2zotero/internal/config"
	"github.com/mrlokans/boox2zotero/internal/entities"
	"github.com/mrlokans/boox2zotero/internal/logging"
	"github.com/mrlokans/boox2zotero/internal/services"
	"github.com/mrlokans/boox2zotero/internal/zotero"
)

// ImportCommand imports one Boox annotation export into Zotero.
type ImportCommand struct {
	AnnotationPath string
	ZoteroDir      string
	StorageDir     string
	HighlightColor string
	Debug          bool
	DryRun         bool
	Yes            bool

	Config  *config.Config
	Locator *zotero.Locator
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{
		Config:  config.NewConfig(),
		Locator: zotero.NewLocator(),
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(cmd.Stderr)

	fs.StringVar(&cmd.AnnotationPath, "file", "", "Path to the Boox annotation export (or pass it as the first argument)")
	fs.StringVar(&cmd.ZoteroDir, "zotero-dir", "", "Zotero data directory containing zotero.sqlite (default: from Zotero preferences, then ~/Zotero)")
	fs.StringVar(&cmd.StorageDir, "storage-dir", "", "Base directory for linked attachments (default: from Zotero preferences)")
	fs.StringVar(&cmd.HighlightColor, "highlight-color", "", fmt.Sprintf("Highlight color: one of %v or #rrggbb (default: yellow)", entities.HighlightColorNames()))
	fs.BoolVar(&cmd.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would be imported without writing to Zotero")
	fs.BoolVar(&cmd.Yes, "yes", false, "Accept low-confidence matches without asking")

	fs.Usage = func() {
		fmt.Fprintf(cmd.Stderr, "Usage: %s import [options] <annotation-file>\n\n", os.Args[0])
		fmt.Fprintf(cmd.Stderr, "Import Boox annotations into Zotero's EPUB reader.\n\n")
		fmt.Fprintf(cmd.Stderr, "Close Zotero before importing. A backup of zotero.sqlite is written\n")
		fmt.Fprintf(cmd.Stderr, "next to it before any change.\n\n")
		fmt.Fprintf(cmd.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(cmd.Stderr, "\nExamples:\n")
		fmt.Fprintf(cmd.Stderr, "  %s import annotations.txt\n", os.Args[0])
		fmt.Fprintf(cmd.Stderr, "  %s import -debug -highlight-color green annotations.txt\n", os.Args[0])
		fmt.Fprintf(cmd.Stderr, "  %s import -dry-run -zotero-dir ~/Zotero annotations.txt\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.AnnotationPath == "" && fs.NArg() > 0 {
		cmd.AnnotationPath = fs.Arg(0)
	}
	if cmd.AnnotationPath == "" {
		return fmt.Errorf("annotation file not provided")
	}

	if cmd.ZoteroDir != "" {
		cmd.Config.Zotero.DataDir = cmd.ZoteroDir
	}
	if cmd.StorageDir != "" {
		cmd.Config.Zotero.StorageDir = cmd.StorageDir
	}
	if cmd.HighlightColor != "" {
		cmd.Config.Import.HighlightColor = cmd.HighlightColor
	}
	if cmd.Debug {
		cmd.Config.Log.Level = "debug"
	}

	return nil
}

func (cmd *ImportCommand) Run(ctx context.Context) error {
	logger := logging.NewWithWriter(cmd.Stderr, logging.ParseLevel(cmd.Config.Log.Level))

	var confirmer services.Confirmer = services.PromptConfirmer{In: cmd.Stdin, Out: cmd.Stdout}
	if cmd.Yes {
		confirmer = services.AutoConfirmer{Accept: true, Logger: logger}
	}

	svc, paths, err := newImportService(cmd.Config, cmd.Locator, confirmer, logger)
	if err != nil {
		return err
	}

	path, err := filepath.Abs(cmd.AnnotationPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for annotation file: %w", err)
	}

	if cmd.DryRun {
		fmt.Fprintln(cmd.Stdout, "DRY RUN MODE - No changes will be made")
	}
	logger.Debug("zotero paths", "database", paths.DatabasePath(), "attachments", paths.AttachmentDir)

	summary, err := svc.ImportFile(ctx, path, services.ImportOptions{DryRun: cmd.DryRun, Trigger: "cli"})
	if err != nil {
		printDiagnostics(cmd.Stderr, err, paths)
		return err
	}

	cmd.printSummary(summary)
	return nil
}

func (cmd *ImportCommand) printSummary(s services.Summary) {
	out := cmd.Stdout
	if s.Parsed == 0 {
		fmt.Fprintln(out, "No annotations found")
		return
	}

	r := s.Result
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Imported: %d | Skipped: %d | Failed: %d\n", r.Inserted, r.Skipped, r.Failed)
	if r.Fallbacks > 0 {
		fmt.Fprintf(out, "%d annotation(s) placed by page number only\n", r.Fallbacks)
	}
	if r.BackupPath != "" {
		fmt.Fprintf(out, "Backup: %s\n", r.BackupPath)
	}
	if r.DryRun {
		fmt.Fprintln(out, "\nDry run complete. Run without -dry-run to import.")
		return
	}
	if r.Inserted > 0 {
		fmt.Fprintln(out, "Restart Zotero to see the imported annotations")
	}
}
