package catalog

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/boox2zotero/internal/entities"
)

// Zotero item type ids used when seeding books.
const (
	ItemTypeBook       = 7
	ItemTypeAttachment = 3
)

// Zotero attachment link modes.
const (
	LinkModeImportedFile = 0
	LinkModeLinkedFile   = 2
)

type Creator struct {
	FirstName string
	LastName  string
}

// NewBook describes a parent book item with one e-book attachment.
type NewBook struct {
	Key            string
	AttachmentKey  string
	Title          string
	Creators       []Creator
	AttachmentPath string
	DateAdded      string
	LibraryID      int
}

// AddBook inserts a book and its attachment and returns both item ids. It
// is how demo and fixture databases are populated.
func (r *Repository) AddBook(ctx context.Context, book NewBook) (parentID, attachmentID int64, err error) {
	if book.LibraryID == 0 {
		book.LibraryID = 1
	}
	if book.DateAdded == "" {
		book.DateAdded = "2024-01-01 00:00:00"
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		parent := newItem(ItemTypeBook, book.Key, book)
		if err := tx.Create(&parent).Error; err != nil {
			return fmt.Errorf("failed to create book item: %w", err)
		}
		parentID = parent.ItemID

		if book.Title != "" {
			if err := r.setTitle(tx, parentID, book.Title); err != nil {
				return err
			}
		}
		for i, c := range book.Creators {
			if err := addCreator(tx, parentID, i, c); err != nil {
				return err
			}
		}

		attachment := newItem(ItemTypeAttachment, book.AttachmentKey, book)
		if err := tx.Create(&attachment).Error; err != nil {
			return fmt.Errorf("failed to create attachment item: %w", err)
		}
		attachmentID = attachment.ItemID

		linkMode := LinkModeImportedFile
		if !strings.HasPrefix(book.AttachmentPath, entities.StoragePathPrefix) {
			linkMode = LinkModeLinkedFile
		}
		return tx.Create(&entities.ItemAttachment{
			ItemID:       attachmentID,
			ParentItemID: &parentID,
			LinkMode:     linkMode,
			ContentType:  "application/epub+zip",
			Path:         book.AttachmentPath,
		}).Error
	})
	return parentID, attachmentID, err
}

func newItem(typeID int, key string, book NewBook) entities.Item {
	return entities.Item{
		ItemTypeID:         typeID,
		DateAdded:          book.DateAdded,
		DateModified:       book.DateAdded,
		ClientDateModified: book.DateAdded,
		LibraryID:          book.LibraryID,
		Key:                key,
	}
}

func (r *Repository) setTitle(tx *gorm.DB, itemID int64, title string) error {
	if err := tx.Exec(`INSERT OR IGNORE INTO itemDataValues (value) VALUES (?)`, title).Error; err != nil {
		return fmt.Errorf("failed to store title: %w", err)
	}
	return tx.Exec(`INSERT INTO itemData (itemID, fieldID, valueID)
		SELECT ?, ?, valueID FROM itemDataValues WHERE value = ?`, itemID, r.titleFieldID, title).Error
}

func addCreator(tx *gorm.DB, itemID int64, order int, c Creator) error {
	err := tx.Exec(`INSERT OR IGNORE INTO creators (firstName, lastName, fieldMode) VALUES (?, ?, 0)`,
		c.FirstName, c.LastName).Error
	if err != nil {
		return fmt.Errorf("failed to store creator: %w", err)
	}
	return tx.Exec(`INSERT INTO itemCreators (itemID, creatorID, creatorTypeID, orderIndex)
		SELECT ?, creatorID, 1, ? FROM creators WHERE firstName = ? AND lastName = ? AND fieldMode = 0`,
		itemID, order, c.FirstName, c.LastName).Error
}
