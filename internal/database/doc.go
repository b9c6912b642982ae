// Package database opens Zotero's sqlite catalog and provides the backup,
// schema and error mapping shared by its sub-packages.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup, busy timeout, lock error mapping
//	├── backup.go        # Pre-import copy of zotero.sqlite
//	├── schema.go        # The subset of Zotero's schema used by fixtures and the demo
//	├── catalog/         # E-book attachments with titles and creators; seeding books
//	└── annotations/     # Annotation items: key listing, duplicate checks, inserts
//
// # Using Sub-packages
//
//	db, err := database.Open(paths.DatabasePath(), database.Options{BusyTimeout: 5 * time.Second})
//
//	candidates, err := catalog.NewRepository(db.DB, database.TitleFieldID).LoadCandidates(ctx, ".epub")
//
//	repo := annotations.NewRepository(libraryID)
//	err = db.DB.Transaction(func(tx *gorm.DB) error {
//		_, err := repo.Insert(tx, annotation)
//		return err
//	})
//
// The annotations repository takes the *gorm.DB per call so it works inside
// the importer's run transaction and its per-record savepoints.
//
// # Locking
//
// Zotero holds the database while it runs. SQLITE_BUSY and SQLITE_LOCKED
// surface as ErrResourceLocked; use IsLocked to test for them.
package database
