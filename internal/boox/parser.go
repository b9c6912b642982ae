package boox

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mrlokans/boox2zotero/internal/entities"
)

// ErrIdentifierNotFound is returned when neither the header line nor the
// file name carries a <<book identifier>>.
var ErrIdentifierNotFound = errors.New("book identifier not found")

// Parser parses Boox "Reading Notes" exports:
//
//	Reading Notes | <<Shakespeare - 1998 - Romeo and Juliet>>William Shakespeare
//	-------------------
//	2024-01-05 10:30 | Page No.: 42
//	A short highlight.
//	-------------------
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

const sectionSeparator = "-------------------"

var (
	// "2024-01-05 10:30 | Page No.: 42"
	entryHeaderPattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})\s+(\d{2}:\d{2})\s+\|\s+Page No\.:\s+(\d+)`)

	// "Reading Notes | <<Book Identifier>>Author Name"
	identifierPattern = regexp.MustCompile(`<<(.+?)>>`)
)

// ParseFile reads and parses the export at path.
func (p *Parser) ParseFile(path string) ([]entities.AnnotationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open annotation file: %w", err)
	}
	defer f.Close()

	return p.ParseEntries(f)
}

// ParseEntries returns the records in file order. Sections without an entry
// header or with empty text are skipped.
func (p *Parser) ParseEntries(r io.Reader) ([]entities.AnnotationRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var records []entities.AnnotationRecord
	var currentLines []string

	flush := func() {
		if len(currentLines) == 0 {
			return
		}
		if rec, ok := p.parseSection(currentLines); ok {
			records = append(records, rec)
		}
		currentLines = nil
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == sectionSeparator {
			flush()
			continue
		}

		currentLines = append(currentLines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading annotations: %w", err)
	}

	// Last section when the file doesn't end with a separator
	flush()

	return records, nil
}

func (p *Parser) parseSection(lines []string) (entities.AnnotationRecord, bool) {
	for i, line := range lines {
		matches := entryHeaderPattern.FindStringSubmatch(line)
		if matches == nil {
			continue
		}

		ts, err := time.ParseInLocation(entities.AnnotationTimeLayout, matches[1]+" "+matches[2], time.UTC)
		if err != nil {
			return entities.AnnotationRecord{}, false
		}

		text := strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		if text == "" {
			return entities.AnnotationRecord{}, false
		}

		return entities.NewAnnotationRecord(ts, matches[3], text), true
	}

	return entities.AnnotationRecord{}, false
}

// ReadHeader returns the first line of the file with any UTF-8 BOM removed.
func ReadHeader(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open annotation file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read header line: %w", err)
	}

	line = strings.TrimPrefix(line, "\ufeff")
	return strings.TrimSpace(line), nil
}

// ExtractIdentifier returns the text between << and >> in the header line,
// falling back to the file name.
func ExtractIdentifier(header, filename string) (string, error) {
	if id := findIdentifier(header); id != "" {
		return id, nil
	}

	base := filepath.Base(filename)
	if id := findIdentifier(strings.TrimSuffix(base, filepath.Ext(base))); id != "" {
		return id, nil
	}

	return "", fmt.Errorf("%w: first line %q, file %q", ErrIdentifierNotFound, header, filepath.Base(filename))
}

// IdentifierFromFile reads the header of path and extracts the identifier.
func IdentifierFromFile(path string) (string, error) {
	header, err := ReadHeader(path)
	if err != nil {
		return "", err
	}
	return ExtractIdentifier(header, path)
}

func findIdentifier(s string) string {
	matches := identifierPattern.FindStringSubmatch(s)
	if len(matches) < 2 {
		return ""
	}
	return strings.TrimSpace(matches[1])
}
