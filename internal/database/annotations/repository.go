// Package annotations writes highlight annotations into a Zotero database.
//
// All methods take the *gorm.DB to run on so callers can pass a transaction
// or savepoint handle.
package annotations

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/boox2zotero/internal/database"
	"github.com/mrlokans/boox2zotero/internal/entities"
)

// Zotero constants for inserted rows.
const (
	ItemTypeAnnotation = 1
	TypeHighlight      = 1
)

var ErrInvalidAnnotation = errors.New("invalid annotation")

// NewAnnotation is everything needed to insert one highlight.
type NewAnnotation struct {
	ParentItemID int64
	Key          string
	Text         string
	DateAdded    string
	Color        string
	SortIndex    string
	Position     string
}

type Repository struct {
	libraryID int
}

func NewRepository(libraryID int) *Repository {
	if libraryID <= 0 {
		libraryID = 1
	}
	return &Repository{libraryID: libraryID}
}

// ExistingKeys loads every item key in the database.
func (r *Repository) ExistingKeys(db *gorm.DB) (map[string]struct{}, error) {
	var keys []string
	if err := db.Model(&entities.Item{}).Pluck("key", &keys).Error; err != nil {
		return nil, fmt.Errorf("failed to load item keys: %w", database.TranslateError(err))
	}

	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set, nil
}

// Exists reports whether an annotation with the same parent, text and
// dateAdded is already stored.
func (r *Repository) Exists(db *gorm.DB, parentItemID int64, text, dateAdded string) (bool, error) {
	var count int64
	err := db.Table("itemAnnotations AS ia").
		Joins("JOIN items i ON ia.itemID = i.itemID").
		Where("ia.parentItemID = ? AND ia.text = ? AND i.dateAdded = ?", parentItemID, text, dateAdded).
		Count(&count).Error
	if err != nil {
		return false, database.TranslateError(err)
	}
	return count > 0, nil
}

// Insert writes the items row and the itemAnnotations row and returns the
// new item id.
func (r *Repository) Insert(db *gorm.DB, a NewAnnotation) (int64, error) {
	if a.Key == "" || a.ParentItemID == 0 {
		return 0, fmt.Errorf("%w: key and parent are required", ErrInvalidAnnotation)
	}

	item := entities.Item{
		ItemTypeID:         ItemTypeAnnotation,
		DateAdded:          a.DateAdded,
		DateModified:       a.DateAdded,
		ClientDateModified: a.DateAdded,
		LibraryID:          r.libraryID,
		Key:                a.Key,
	}
	if err := db.Create(&item).Error; err != nil {
		return 0, fmt.Errorf("failed to insert item: %w", database.TranslateError(err))
	}

	annotation := entities.ItemAnnotation{
		ItemID:       item.ItemID,
		ParentItemID: a.ParentItemID,
		Type:         TypeHighlight,
		Text:         a.Text,
		Color:        a.Color,
		SortIndex:    a.SortIndex,
		Position:     a.Position,
	}
	if err := db.Create(&annotation).Error; err != nil {
		return 0, fmt.Errorf("failed to insert annotation: %w", database.TranslateError(err))
	}
	return item.ItemID, nil
}

// CountForParent returns the number of annotations attached to an item.
func (r *Repository) CountForParent(db *gorm.DB, parentItemID int64) (int64, error) {
	var count int64
	err := db.Model(&entities.ItemAnnotation{}).Where("parentItemID = ?", parentItemID).Count(&count).Error
	return count, err
}

// ListForParent returns the annotations of an item ordered by sortIndex.
func (r *Repository) ListForParent(db *gorm.DB, parentItemID int64) ([]entities.ItemAnnotation, error) {
	var out []entities.ItemAnnotation
	err := db.Where("parentItemID = ?", parentItemID).Order("sortIndex, itemID").Find(&out).Error
	return out, err
}
