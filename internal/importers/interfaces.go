package importers

import (
	"gorm.io/gorm"

	"github.com/mrlokans/boox2zotero/internal/database/annotations"
)

// AnnotationStore is the slice of the annotation repository the importer
// writes through. Every call runs on the handle it is given, so the import
// transaction covers it.
type AnnotationStore interface {
	ExistingKeys(db *gorm.DB) (map[string]struct{}, error)
	Exists(db *gorm.DB, parentItemID int64, text, dateAdded string) (bool, error)
	Insert(db *gorm.DB, a annotations.NewAnnotation) (int64, error)
}
