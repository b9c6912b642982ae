package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mrlokans/boox2zotero/internal/audit"
	"github.com/mrlokans/boox2zotero/internal/boox"
	"github.com/mrlokans/boox2zotero/internal/cfi"
	"github.com/mrlokans/boox2zotero/internal/database"
	"github.com/mrlokans/boox2zotero/internal/database/catalog"
	"github.com/mrlokans/boox2zotero/internal/entities"
	"github.com/mrlokans/boox2zotero/internal/importers"
	"github.com/mrlokans/boox2zotero/internal/matcher"
	"github.com/mrlokans/boox2zotero/internal/zotero"
)

// ImportConfig is the fixed configuration of an ImportService.
type ImportConfig struct {
	Paths            zotero.Paths
	LibraryID        int
	TitleFieldID     int
	Color            string
	ConfirmThreshold float64
	BusyTimeout      time.Duration
	Matcher          matcher.Config
}

// ImportOptions vary per call.
type ImportOptions struct {
	DryRun bool
	// Trigger names what started the import, recorded in audit reports.
	Trigger string
}

// Summary describes a finished import.
type Summary struct {
	File       string
	Identifier string
	Entry      *entities.CatalogEntry
	EPUBPath   string
	Parsed     int
	Result     importers.Result
	AuditFile  string
}

// ImportService runs parse → match → confirm → import for one export file.
type ImportService struct {
	config    ImportConfig
	parser    *boox.Parser
	matcher   *matcher.Matcher
	resolver  cfi.Resolver
	confirmer Confirmer
	audit     *audit.Service
	logger    *slog.Logger
}

func NewImportService(cfg ImportConfig, resolver cfi.Resolver, confirmer Confirmer, auditSvc *audit.Service, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	if confirmer == nil {
		confirmer = AutoConfirmer{Logger: logger}
	}
	if cfg.Matcher.Extension == "" {
		cfg.Matcher = matcher.DefaultConfig()
	}
	if cfg.ConfirmThreshold == 0 {
		cfg.ConfirmThreshold = 0.9
	}
	return &ImportService{
		config:    cfg,
		parser:    boox.NewParser(),
		matcher:   matcher.New(cfg.Matcher, logger),
		resolver:  resolver,
		confirmer: confirmer,
		audit:     auditSvc,
		logger:    logger,
	}
}

// ImportFile imports the Boox export at path. Every run that reaches the
// catalog is recorded in the audit log, except dry runs.
func (s *ImportService) ImportFile(ctx context.Context, path string, opts ImportOptions) (Summary, error) {
	started := time.Now()
	summary, err := s.importFile(ctx, path, opts)

	if !opts.DryRun && summary.Identifier != "" {
		summary.AuditFile = s.audit.LogImport(s.report(summary, opts, started), err)
	}
	return summary, err
}

func (s *ImportService) importFile(ctx context.Context, path string, opts ImportOptions) (Summary, error) {
	summary := Summary{File: path}

	if _, err := os.Stat(path); err != nil {
		return summary, fmt.Errorf("%w: %s", ErrAnnotationFileAbsent, path)
	}

	identifier, err := boox.IdentifierFromFile(path)
	if err != nil {
		return summary, err
	}
	summary.Identifier = identifier
	s.logger.Debug("searching for book", "identifier", identifier)

	db, err := database.Open(s.config.Paths.DatabasePath(), database.Options{
		BusyTimeout: s.config.BusyTimeout,
		Logger:      s.logger,
	})
	if err != nil {
		return summary, err
	}
	defer db.Close()

	candidates, err := catalog.NewRepository(db.DB, s.config.TitleFieldID).LoadCandidates(ctx, s.config.Matcher.Extension)
	if err != nil {
		return summary, err
	}

	entry := s.matcher.Match(identifier, candidates)
	if entry == nil {
		return summary, &MatchError{
			Identifier: identifier,
			Candidates: s.matcher.CandidateFilenames(candidates),
			Err:        ErrNoMatch,
		}
	}
	summary.Entry = entry

	if entry.NeedsConfirmation(s.config.ConfirmThreshold) {
		ok, err := s.confirmer.Confirm(ctx, MatchPrompt{Identifier: identifier, Entry: entry})
		if err != nil {
			return summary, err
		}
		if !ok {
			return summary, &MatchError{Identifier: identifier, Candidates: []string{entry.StoredRelativePath}, Err: ErrAmbiguousMatch}
		}
		s.logger.Info("match confirmed")
	}

	s.logger.Info("located EPUB", "file", entry.StoredRelativePath)
	s.logger.Debug("catalog entry", "attachment_id", entry.ItemID, "parent_id", entry.ParentID,
		"confidence", entry.Confidence, "method", entry.MatchMethod)

	epubPath := s.config.Paths.ResolveAttachment(entry.StoredRelativePath, entry.ItemKey, entry.Linked)
	if _, err := os.Stat(epubPath); err != nil {
		return summary, &EPUBMissingError{Expected: epubPath, AttachmentDir: s.config.Paths.AttachmentDir}
	}
	summary.EPUBPath = epubPath

	records, err := s.parser.ParseFile(path)
	if err != nil {
		return summary, err
	}
	summary.Parsed = len(records)
	s.logger.Info("parsed annotations", "count", len(records))
	if len(records) == 0 {
		s.logger.Warn("no annotations found", "file", path)
		return summary, nil
	}
	for i, rec := range records[:min(3, len(records))] {
		s.logger.Debug("annotation", "index", i+1, "page", rec.Page, "text", rec.Preview(60))
	}

	importer := importers.NewImporter(db, s.resolver, importers.Options{
		LibraryID: s.config.LibraryID,
		DryRun:    opts.DryRun,
	}, s.logger)

	// Annotations belong to the attachment item, not the parent book.
	result, err := importer.Import(ctx, importers.Request{
		Records:      records,
		ParentItemID: entry.ItemID,
		EPUBPath:     epubPath,
		Color:        s.config.Color,
	})
	summary.Result = result
	return summary, err
}

func (s *ImportService) report(summary Summary, opts ImportOptions, started time.Time) audit.Report {
	r := audit.Report{
		Trigger:    opts.Trigger,
		File:       summary.File,
		Identifier: summary.Identifier,
		Inserted:   summary.Result.Inserted,
		Skipped:    summary.Result.Skipped,
		Failed:     summary.Result.Failed,
		Fallbacks:  summary.Result.Fallbacks,
		BackupPath: summary.Result.BackupPath,
		DryRun:     opts.DryRun,
		StartedAt:  started,
	}
	if summary.Entry != nil {
		r.MatchedPath = summary.Entry.StoredRelativePath
		r.MatchMethod = string(summary.Entry.MatchMethod)
		r.Confidence = summary.Entry.Confidence
		r.ParentID = summary.Entry.ItemID
	}
	if len(summary.Result.Records) > 0 {
		r.Records = summary.Result.Records
	}
	return r
}

// IsRetryable reports whether an import failed only because the database
// was busy and may succeed later.
func IsRetryable(err error) bool {
	return errors.Is(err, database.ErrResourceLocked)
}
