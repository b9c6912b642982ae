package importers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"gorm.io/gorm"

	"github.com/mrlokans/boox2zotero/internal/cfi"
	"github.com/mrlokans/boox2zotero/internal/database"
	"github.com/mrlokans/boox2zotero/internal/database/annotations"
	"github.com/mrlokans/boox2zotero/internal/entities"
	"github.com/mrlokans/boox2zotero/internal/zotero"
)

var ErrMissingParent = errors.New("import requires a parent item")

// previewLength bounds the highlight text kept in RecordResult.
const previewLength = 60

type Options struct {
	LibraryID int

	// DryRun skips the backup and all writes. Outcomes report what would
	// have happened.
	DryRun bool

	// Intn overrides the random source used to mint keys.
	Intn func(n int) int

	// Store overrides the annotation repository for LibraryID.
	Store AnnotationStore
}

// Request is one batch of records for a single attachment.
type Request struct {
	Records      []entities.AnnotationRecord
	ParentItemID int64
	EPUBPath     string
	Color        string
}

type Importer struct {
	db       *database.Database
	repo     AnnotationStore
	resolver cfi.Resolver
	options  Options
	logger   *slog.Logger
}

func NewImporter(db *database.Database, resolver cfi.Resolver, opts Options, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	var repo AnnotationStore = opts.Store
	if repo == nil {
		repo = annotations.NewRepository(opts.LibraryID)
	}
	return &Importer{
		db:       db,
		repo:     repo,
		resolver: resolver,
		options:  opts,
		logger:   logger,
	}
}

// Import writes req.Records under req.ParentItemID. A returned error means
// nothing was committed; the backup, if taken, is still reported.
func (im *Importer) Import(ctx context.Context, req Request) (Result, error) {
	result := Result{DryRun: im.options.DryRun}
	if len(req.Records) == 0 {
		return result, nil
	}
	if req.ParentItemID == 0 {
		return result, ErrMissingParent
	}

	records := SortByPage(req.Records)
	im.logger.Info("importing annotations", "count", len(records), "dry_run", im.options.DryRun)

	if !im.options.DryRun {
		backupPath, err := database.CreateBackup(im.db.Path())
		if err != nil {
			return result, err
		}
		result.BackupPath = backupPath
		im.logger.Debug("database backup created", "path", backupPath)
	}

	locations, err := im.resolve(ctx, req.EPUBPath, records)
	if err != nil {
		return result, err
	}

	var outcomes Result
	err = im.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		outcomes = Result{}

		keys, err := im.repo.ExistingKeys(tx)
		if err != nil {
			return err
		}
		minter := zotero.NewKeyMinter(keys, im.options.Intn)

		for i, rec := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			im.logger.Debug("processing annotation", "index", i+1, "total", len(records), "page", rec.Page)
			res, err := im.importRecord(tx, minter, rec, locations[i], req)
			if err != nil {
				return err
			}
			outcomes.add(res)
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("import rolled back: %w", database.TranslateError(err))
	}

	outcomes.BackupPath = result.BackupPath
	outcomes.DryRun = result.DryRun
	return outcomes, nil
}

// resolve returns one location per record, substituting page-based
// fallbacks for texts the resolver could not place.
func (im *Importer) resolve(ctx context.Context, epubPath string, records []entities.AnnotationRecord) ([]entities.Location, error) {
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text
	}

	var resolved []*entities.Location
	if im.resolver != nil {
		var err error
		resolved, err = im.resolver.ResolveBatch(ctx, epubPath, texts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			im.logger.Warn("location resolution failed, using page-based positions", "error", err)
			resolved = nil
		}
	}

	out := make([]entities.Location, len(records))
	for i, rec := range records {
		if i < len(resolved) && resolved[i] != nil && resolved[i].CFI != "" {
			out[i] = *resolved[i]
			continue
		}
		out[i] = cfi.FallbackLocation(rec.PageNumber())
		if resolved != nil {
			im.logger.Warn("text not found in EPUB, using fallback position", "page", rec.Page)
			im.logger.Debug("search text", "text", rec.Preview(50))
		}
	}
	return out, nil
}

// importRecord returns an error only when the run cannot continue, which is
// the case when the database is locked. Anything else fails the record.
func (im *Importer) importRecord(tx *gorm.DB, minter *zotero.KeyMinter, rec entities.AnnotationRecord, loc entities.Location, req Request) (RecordResult, error) {
	out := RecordResult{Page: rec.Page, Preview: rec.Preview(previewLength)}
	dateAdded := rec.DateAdded()

	exists, err := im.repo.Exists(tx, req.ParentItemID, rec.Text, dateAdded)
	if err != nil {
		// Treat as new rather than risk dropping the highlight
		im.logger.Warn("duplicate check failed", "page", rec.Page, "error", err)
		exists = false
	}
	if exists {
		im.logger.Debug("duplicate detected, skipping", "page", rec.Page)
		out.Outcome = OutcomeSkipped
		return out, nil
	}

	out.Fallback = loc.Fallback
	if im.options.DryRun {
		out.Outcome = OutcomeInserted
		return out, nil
	}

	position, err := cfi.PositionJSON(loc.CFI)
	if err != nil {
		return failed(out, err), nil
	}

	key, err := minter.Mint()
	if err != nil {
		return failed(out, err), nil
	}

	var itemID int64
	err = tx.Transaction(func(sp *gorm.DB) error {
		var err error
		itemID, err = im.repo.Insert(sp, annotations.NewAnnotation{
			ParentItemID: req.ParentItemID,
			Key:          key,
			Text:         rec.Text,
			DateAdded:    dateAdded,
			Color:        req.Color,
			SortIndex:    loc.OrderKey(),
			Position:     position,
		})
		return err
	})
	if err != nil {
		minter.Release(key)
		if database.IsLocked(err) {
			return out, err
		}
		im.logger.Error("failed to insert annotation", "page", rec.Page, "error", err)
		return failed(out, err), nil
	}

	out.Outcome = OutcomeInserted
	out.Key = key
	out.ItemID = itemID
	return out, nil
}

func failed(out RecordResult, err error) RecordResult {
	out.Outcome = OutcomeFailed
	out.Error = err.Error()
	return out
}

// SortByPage returns a copy of records ordered by numeric page. Records
// with equal pages keep their file order; non-numeric pages sort as 0.
func SortByPage(records []entities.AnnotationRecord) []entities.AnnotationRecord {
	sorted := make([]entities.AnnotationRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PageNumber() < sorted[j].PageNumber()
	})
	return sorted
}
