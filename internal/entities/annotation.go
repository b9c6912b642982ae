package entities

import (
	"strconv"
	"time"
)

// Timestamp layouts used by Boox exports and by the Zotero items table.
const (
	AnnotationTimeLayout = "2006-01-02 15:04"
	ZoteroDateLayout     = "2006-01-02 15:04:05"
)

// AnnotationRecord is a single highlight parsed from a Boox export.
// Records are created by the parser and never modified afterwards.
type AnnotationRecord struct {
	Timestamp time.Time
	Page      string
	Text      string
}

// NewAnnotationRecord truncates the timestamp to minute resolution, the
// precision the export format carries.
func NewAnnotationRecord(ts time.Time, page, text string) AnnotationRecord {
	return AnnotationRecord{
		Timestamp: ts.Truncate(time.Minute),
		Page:      page,
		Text:      text,
	}
}

// TimestampString renders the timestamp the way it appears in the export.
func (r AnnotationRecord) TimestampString() string {
	return r.Timestamp.Format(AnnotationTimeLayout)
}

// DateAdded renders the timestamp at second resolution, matching the
// dateAdded column of the items table.
func (r AnnotationRecord) DateAdded() string {
	return r.Timestamp.Format(ZoteroDateLayout)
}

// PageNumber returns the numeric page, or 0 when the page is not a number.
func (r AnnotationRecord) PageNumber() int {
	n, err := strconv.Atoi(r.Page)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Preview returns the first n runes of the text followed by "..." when cut.
func (r AnnotationRecord) Preview(n int) string {
	runes := []rune(r.Text)
	if len(runes) <= n {
		return r.Text
	}
	return string(runes[:n]) + "..."
}
