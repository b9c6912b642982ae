package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mrlokans/boox2zotero/internal/audit"
	"github.com/mrlokans/boox2zotero/internal/cfi"
	"github.com/mrlokans/boox2zotero/internal/config"
	"github.com/mrlokans/boox2zotero/internal/database"
	"github.com/mrlokans/boox2zotero/internal/entities"
	"github.com/mrlokans/boox2zotero/internal/services"
	"github.com/mrlokans/boox2zotero/internal/zotero"
)

const maxListedCandidates = 10

// newImportService wires an ImportService from cfg. Paths missing from cfg
// are discovered through loc.
func newImportService(cfg *config.Config, loc *zotero.Locator, confirmer services.Confirmer, logger *slog.Logger) (*services.ImportService, zotero.Paths, error) {
	color, ok := entities.ResolveHighlightColor(cfg.Import.HighlightColor)
	if !ok {
		return nil, zotero.Paths{}, fmt.Errorf("unknown highlight color %q (choose from %v or #rrggbb)",
			cfg.Import.HighlightColor, entities.HighlightColorNames())
	}

	paths := cfg.ZoteroPaths(loc)
	resolver := cfi.NewNodeResolver(cfg.NodeConfig(), logger)
	auditSvc := audit.NewService(cfg.Audit.Dir, logger)

	svc := services.NewImportService(services.ImportConfig{
		Paths:            paths,
		LibraryID:        cfg.Zotero.LibraryID,
		TitleFieldID:     cfg.Zotero.TitleFieldID,
		Color:            color,
		ConfirmThreshold: cfg.Import.ConfirmThreshold,
		BusyTimeout:      cfg.Zotero.BusyTimeout,
		Matcher:          cfg.MatcherConfig(),
	}, resolver, confirmer, auditSvc, logger)

	return svc, paths, nil
}

// printDiagnostics explains a failed import in terms the user can act on.
func printDiagnostics(w io.Writer, err error, paths zotero.Paths) {
	var matchErr *services.MatchError
	var missingErr *services.EPUBMissingError

	switch {
	case errors.As(err, &matchErr) && errors.Is(err, services.ErrAmbiguousMatch):
		fmt.Fprintf(w, "Match rejected for %q. Please check the EPUB filename.\n", matchErr.Identifier)
	case errors.As(err, &matchErr):
		fmt.Fprintf(w, "EPUB not found in Zotero database: %s\n", matchErr.Identifier)
		fmt.Fprintln(w, "Ensure the EPUB is imported and the filename matches.")
		if len(matchErr.Candidates) > 0 {
			fmt.Fprintln(w, "Available EPUB files:")
			fmt.Fprint(w, matchErr.CandidateList(maxListedCandidates))
		}
	case errors.As(err, &missingErr):
		fmt.Fprintf(w, "EPUB file missing: %s\n", missingErr.Expected)
		fmt.Fprintf(w, "Check Zotero storage directory: %s\n", missingErr.AttachmentDir)
	case database.IsLocked(err):
		fmt.Fprintln(w, "Database is locked. Please close Zotero and try again.")
	case errors.Is(err, database.ErrDatabaseNotFound):
		fmt.Fprintf(w, "Database not found: %s\n", paths.DatabasePath())
		fmt.Fprintln(w, "Use -zotero-dir or ZOTERO_DATA_DIR to point at the Zotero data directory.")
	case errors.Is(err, database.ErrBackupFailed):
		fmt.Fprintln(w, "Could not back up the Zotero database; nothing was imported.")
	}
}
