// Package catalog reads the e-book attachments of a Zotero library together
// with their parent items' titles and creators.
//
// # Usage
//
//	repo := catalog.NewRepository(db.DB, database.TitleFieldID)
//	candidates, err := repo.LoadCandidates(ctx, ".epub")
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/boox2zotero/internal/database"
	"github.com/mrlokans/boox2zotero/internal/entities"
)

type Repository struct {
	db           *gorm.DB
	titleFieldID int
}

func NewRepository(db *gorm.DB, titleFieldID int) *Repository {
	if titleFieldID <= 0 {
		titleFieldID = database.TitleFieldID
	}
	return &Repository{db: db, titleFieldID: titleFieldID}
}

type attachmentRow struct {
	ItemID   int64
	ParentID sql.NullInt64
	ItemKey  string
	Path     string
	Title    string
}

type creatorRow struct {
	ItemID    int64
	LastName  sql.NullString
	FirstName sql.NullString
}

// LoadCandidates returns every attachment whose path ends in ext, ordered by
// item id. Lock failures are reported as database.ErrResourceLocked.
func (r *Repository) LoadCandidates(ctx context.Context, ext string) ([]entities.Candidate, error) {
	var rows []attachmentRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT ia.itemID AS item_id,
		       ia.parentItemID AS parent_id,
		       i.key AS item_key,
		       ia.path AS path,
		       COALESCE((
		           SELECT idv.value FROM itemData id
		           JOIN itemDataValues idv ON id.valueID = idv.valueID
		           WHERE id.itemID = ia.parentItemID AND id.fieldID = ?
		       ), '') AS title
		FROM itemAttachments ia
		JOIN items i ON i.itemID = ia.itemID
		WHERE ia.path LIKE ?
		ORDER BY ia.itemID`, r.titleFieldID, "%"+ext).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load attachments: %w", database.TranslateError(err))
	}

	creators, err := r.loadCreators(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]entities.Candidate, 0, len(rows))
	for _, row := range rows {
		c := entities.Candidate{
			ItemID:  row.ItemID,
			ItemKey: row.ItemKey,
			Path:    row.Path,
			Title:   row.Title,
		}
		if row.ParentID.Valid {
			c.ParentID = row.ParentID.Int64
			c.Creators = creators[c.ParentID]
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// loadCreators groups "<last> <first>" names by item, in author order.
func (r *Repository) loadCreators(ctx context.Context) (map[int64][]string, error) {
	var rows []creatorRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT ic.itemID AS item_id, c.lastName AS last_name, c.firstName AS first_name
		FROM itemCreators ic
		JOIN creators c ON ic.creatorID = c.creatorID
		ORDER BY ic.itemID, ic.orderIndex`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load creators: %w", database.TranslateError(err))
	}

	out := make(map[int64][]string)
	for _, row := range rows {
		name := strings.TrimSpace(row.LastName.String + " " + row.FirstName.String)
		if name != "" {
			out[row.ItemID] = append(out[row.ItemID], name)
		}
	}
	return out, nil
}
