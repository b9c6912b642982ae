package boox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_ParseEntries_SingleRecord(t *testing.T) {
	input := "-------------------\n2024-01-05 10:30 | Page No.: 42\nA short highlight.\n-------------------"

	records, err := NewParser().ParseEntries(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "2024-01-05 10:30", records[0].TimestampString())
	assert.Equal(t, "42", records[0].Page)
	assert.Equal(t, "A short highlight.", records[0].Text)
}

func TestParser_ParseEntries_FullExport(t *testing.T) {
	input := `Reading Notes | <<Shakespeare - 1998 - Romeo and Juliet>>William Shakespeare
-------------------
2024-01-05 10:30 | Page No.: 42
Ay, you have been a mouse-hunt in your time;
-------------------
2024-01-05 10:35 | Page No.: 7
Enter LADY CAPULET.
LADY CAPULET.What, are you busy, ho? Need you my help?
-------------------
2024-01-06 09:00 | Page No.: 50

-------------------
Some stray text without a header
-------------------
2024-01-06 09:05 | Page No.: 51
   Romeo, Romeo, Romeo, here's drink! I drink to thee.
`

	records, err := NewParser().ParseEntries(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 3)

	// File order, not page order
	assert.Equal(t, "42", records[0].Page)
	assert.Equal(t, "7", records[1].Page)
	assert.Equal(t, "Enter LADY CAPULET.\nLADY CAPULET.What, are you busy, ho? Need you my help?", records[1].Text)
	assert.Equal(t, "51", records[2].Page)
	assert.Equal(t, "Romeo, Romeo, Romeo, here's drink! I drink to thee.", records[2].Text)
	assert.Equal(t, "2024-01-06 09:05:00", records[2].DateAdded())
}

func TestParser_ParseEntries_WindowsLineEndings(t *testing.T) {
	input := "-------------------\r\n2023-11-30 23:59 | Page No.: 3\r\nLine one\r\nLine two\r\n-------------------\r\n"

	records, err := NewParser().ParseEntries(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Line one\nLine two", records[0].Text)
}

func TestParser_ParseEntries_SkipsInvalidSections(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"only separators", "-------------------\n-------------------\n"},
		{"missing page", "-------------------\n2024-01-05 10:30 | Page No.: \ntext\n"},
		{"invalid date", "-------------------\n2024-13-45 10:30 | Page No.: 1\ntext\n"},
		{"empty text", "-------------------\n2024-01-05 10:30 | Page No.: 1\n   \n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := NewParser().ParseEntries(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestExtractIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		filename string
		expected string
		wantErr  bool
	}{
		{
			name:     "header line",
			header:   "Reading Notes | <<Shakespeare - 1998 - Romeo and Juliet>>William Shakespeare",
			filename: "notes.txt",
			expected: "Shakespeare - 1998 - Romeo and Juliet",
		},
		{
			name:     "trims whitespace inside delimiters",
			header:   "Reading Notes | <<  The History of Drink >>",
			filename: "notes.txt",
			expected: "The History of Drink",
		},
		{
			name:     "falls back to file name",
			header:   "Reading Notes",
			filename: "/tmp/<<Romeo and Juliet>>-annotations.txt",
			expected: "Romeo and Juliet",
		},
		{
			name:     "no delimiters anywhere",
			header:   "Reading Notes",
			filename: "/tmp/notes.txt",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ExtractIdentifier(tt.header, tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIdentifierNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestIdentifierFromFile_StripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.txt")
	content := "\ufeffReading Notes | <<Romeo and Juliet>>William Shakespeare\n-------------------\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	id, err := IdentifierFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Romeo and Juliet", id)
}

func TestParser_ParseFile_Missing(t *testing.T) {
	_, err := NewParser().ParseFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestReadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.txt")
	require.NoError(t, os.WriteFile(path, []byte("Reading Notes | <<X>>\r\n-------------------\n"), 0644))

	header, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, "Reading Notes | <<X>>", header)
}
