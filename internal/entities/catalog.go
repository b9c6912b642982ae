package entities

import (
	"path"
	"strings"
)

type MatchMethod string

const (
	MatchMethodExact         MatchMethod = "exact"
	MatchMethodFuzzyFilename MatchMethod = "fuzzy-filename"
	MatchMethodFuzzyMetadata MatchMethod = "fuzzy-metadata"
)

// Zotero attachment path prefixes.
const (
	// Linked files, relative to the base attachment directory
	AttachmentsPathPrefix = "attachments:"
	// Stored files, relative to <dataDir>/storage/<attachment key>/
	StoragePathPrefix = "storage:"
)

// Candidate is a catalogued e-book attachment together with the parent
// item's metadata, as loaded from the store.
type Candidate struct {
	ItemID   int64
	ParentID int64
	ItemKey  string
	Path     string
	Creators []string
	Title    string
}

// RelativePath strips the Zotero path prefix.
func (c Candidate) RelativePath() string {
	return StripPathPrefix(c.Path)
}

// Filename returns the base name of the attachment.
func (c Candidate) Filename() string {
	return path.Base(strings.ReplaceAll(c.RelativePath(), "\\", "/"))
}

// CatalogEntry is the attachment a set of annotations will be attached to.
// Confidence is 1.0 only for exact matches.
type CatalogEntry struct {
	ItemID             int64
	ParentID           int64
	ItemKey            string
	StoredRelativePath string
	Linked             bool
	Confidence         float64
	MatchMethod        MatchMethod
}

// NeedsConfirmation reports whether the match is below the given assurance
// threshold and should be confirmed before anything is written.
func (e *CatalogEntry) NeedsConfirmation(threshold float64) bool {
	return e.Confidence < threshold
}

// NewCatalogEntry builds an entry from the matched candidate.
func NewCatalogEntry(c Candidate, confidence float64, method MatchMethod) *CatalogEntry {
	return &CatalogEntry{
		ItemID:             c.ItemID,
		ParentID:           c.ParentID,
		ItemKey:            c.ItemKey,
		StoredRelativePath: c.RelativePath(),
		Linked:             !strings.HasPrefix(c.Path, StoragePathPrefix),
		Confidence:         confidence,
		MatchMethod:        method,
	}
}

func StripPathPrefix(p string) string {
	p = strings.TrimPrefix(p, AttachmentsPathPrefix)
	return strings.TrimPrefix(p, StoragePathPrefix)
}
