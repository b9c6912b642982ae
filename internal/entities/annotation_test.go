package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAnnotationRecord_Formatting(t *testing.T) {
	ts := time.Date(2024, 1, 5, 10, 30, 42, 0, time.Local)
	rec := NewAnnotationRecord(ts, "42", "A short highlight.")

	assert.Equal(t, "2024-01-05 10:30", rec.TimestampString())
	assert.Equal(t, "2024-01-05 10:30:00", rec.DateAdded())
	assert.Equal(t, 42, rec.PageNumber())
}

func TestAnnotationRecord_PageNumber(t *testing.T) {
	tests := []struct {
		page     string
		expected int
	}{
		{"17", 17},
		{"", 0},
		{"xii", 0},
		{"-3", 0},
	}

	for _, tt := range tests {
		rec := AnnotationRecord{Page: tt.page}
		assert.Equal(t, tt.expected, rec.PageNumber(), "page %q", tt.page)
	}
}

func TestAnnotationRecord_Preview(t *testing.T) {
	rec := AnnotationRecord{Text: "Ромео и Джульетта"}
	assert.Equal(t, "Ромео...", rec.Preview(5))
	assert.Equal(t, rec.Text, rec.Preview(100))
}

func TestFormatOrderKey(t *testing.T) {
	assert.Equal(t, "00000|00042000", FormatOrderKey(0, 42000))
	assert.Equal(t, "00007|00001234", Location{SpineIndex: 7, CharOffset: 1234}.OrderKey())
	assert.Equal(t, "00000|00000000", FormatOrderKey(-1, -5))
}

func TestCatalogEntry_FromCandidate(t *testing.T) {
	linked := Candidate{ItemID: 3, ParentID: 2, ItemKey: "ABCD2345", Path: "attachments:Books/Romeo.epub"}
	entry := NewCatalogEntry(linked, 1.0, MatchMethodExact)

	assert.Equal(t, "Books/Romeo.epub", entry.StoredRelativePath)
	assert.True(t, entry.Linked)
	assert.Equal(t, "Romeo.epub", linked.Filename())
	assert.False(t, entry.NeedsConfirmation(0.9))

	stored := Candidate{ItemID: 4, ParentID: 2, ItemKey: "ZZZZ2345", Path: "storage:Romeo.epub"}
	entry = NewCatalogEntry(stored, 0.5, MatchMethodFuzzyFilename)
	assert.False(t, entry.Linked)
	assert.True(t, entry.NeedsConfirmation(0.9))
}

func TestResolveHighlightColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"yellow", "#ffd400", true},
		{" Green ", "#5fb236", true},
		{"#A1B2C3", "#a1b2c3", true},
		{"#12345", "", false},
		{"#zzzzzz", "", false},
		{"teal", "", false},
	}

	for _, tt := range tests {
		got, ok := ResolveHighlightColor(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "blue", HighlightColorNames()[0])
}
