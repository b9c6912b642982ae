// Package importers writes parsed Boox highlights into a Zotero database.
//
// # Flow
//
//	records → sort by page → backup → resolve locations → transaction
//	    └── per record: duplicate check → mint key → savepoint insert
//
// Each record ends in exactly one Outcome: Inserted, Skipped (an identical
// annotation already exists) or Failed (its savepoint was rolled back).
// A failed record never affects the others. Errors that stop the whole run
// (backup failure, lock contention, a failed commit) roll back everything
// and are returned to the caller.
//
// Locations come from a cfi.Resolver in one batch call. When the batch
// fails, or a text is not found, the record gets a page-based fallback
// location instead of being dropped.
//
// # Example Usage
//
//	imp := importers.NewImporter(db, resolver, importers.Options{LibraryID: 1}, logger)
//	result, err := imp.Import(ctx, importers.Request{
//		Records:      records,
//		ParentItemID: entry.ItemID,
//		EPUBPath:     epubPath,
//		Color:        "#ffd400",
//	})
package importers
