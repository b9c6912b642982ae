package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Subdirectories of the inbox that processed exports are moved into.
const (
	ImportedDirName = "imported"
	FailedDirName   = "failed"
)

// Inbox is a directory that receives Boox exports.
type Inbox struct {
	Dir string
	// Pattern selects export files. Default: "*.txt"
	Pattern string
}

func NewInbox(dir string) *Inbox {
	return &Inbox{Dir: dir, Pattern: "*.txt"}
}

// Pending lists export files waiting in the inbox, sorted by name.
func (in *Inbox) Pending() ([]string, error) {
	pattern := in.Pattern
	if pattern == "" {
		pattern = "*.txt"
	}
	matches, err := filepath.Glob(filepath.Join(in.Dir, pattern))
	if err != nil {
		return nil, err
	}

	files := matches[:0]
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

func (in *Inbox) MarkImported(path string) (string, error) {
	return in.move(path, ImportedDirName)
}

func (in *Inbox) MarkFailed(path string) (string, error) {
	return in.move(path, FailedDirName)
}

// move renames path into a subdirectory. An existing file with the same
// name gets a timestamp suffix instead of being overwritten.
func (in *Inbox) move(path, sub string) (string, error) {
	dir := filepath.Join(in.Dir, sub)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	dest := filepath.Join(dir, filepath.Base(path))
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(dest)
		stamp := time.Now().Format("20060102-150405.000")
		dest = strings.TrimSuffix(dest, ext) + "." + stamp + ext
	}

	if err := os.Rename(path, dest); err != nil {
		return "", fmt.Errorf("failed to move %s: %w", path, err)
	}
	return dest, nil
}
