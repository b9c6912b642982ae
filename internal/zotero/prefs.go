// Package zotero locates a Zotero installation's data directory and
// attachment files, and mints item keys.
package zotero

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
)

// Preference keys read from prefs.js.
const (
	PrefDataDir            = "extensions.zotero.dataDir"
	PrefBaseAttachmentPath = "extensions.zotero.baseAttachmentPath"
)

const DatabaseFilename = "zotero.sqlite"

var ErrPrefsNotFound = errors.New("zotero preferences not found")

// Locator resolves Zotero paths for the current user.
type Locator struct {
	HomeDir string
	GOOS    string
	// ProfilesDir overrides the OS default profiles directory.
	ProfilesDir string
}

// NewLocator uses the current user's home directory and OS.
func NewLocator() *Locator {
	home, _ := os.UserHomeDir()
	return &Locator{HomeDir: home, GOOS: runtime.GOOS}
}

// DefaultProfilesDir returns where Zotero keeps its profiles on l.GOOS.
func (l *Locator) DefaultProfilesDir() string {
	if l.ProfilesDir != "" {
		return l.ProfilesDir
	}
	switch l.GOOS {
	case "darwin":
		return filepath.Join(l.HomeDir, "Library", "Application Support", "Zotero", "Profiles")
	case "windows":
		return filepath.Join(l.HomeDir, "AppData", "Roaming", "Zotero", "Zotero", "Profiles")
	default:
		return filepath.Join(l.HomeDir, ".zotero", "zotero")
	}
}

// ReadPref returns the value of a string preference from the first
// profile's prefs.js. ok is false when the preference is not set.
func (l *Locator) ReadPref(key string) (value string, ok bool, err error) {
	dir := l.DefaultProfilesDir()
	matches, err := filepath.Glob(filepath.Join(dir, "*", "prefs.js"))
	if err != nil {
		return "", false, err
	}
	if len(matches) == 0 {
		return "", false, fmt.Errorf("%w in %s", ErrPrefsNotFound, dir)
	}
	sort.Strings(matches)

	data, err := os.ReadFile(matches[0])
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", matches[0], err)
	}
	value, ok = ParsePref(string(data), key)
	return value, ok, nil
}

// ParsePref extracts a string value of the form user_pref("key", "value");
func ParsePref(content, key string) (string, bool) {
	re := regexp.MustCompile(`user_pref\("` + regexp.QuoteMeta(key) + `",\s*"((?:[^"\\]|\\.)*)"\);`)
	m := re.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return unescapePref(m[1]), true
}

// prefs.js escapes backslashes and quotes, which matters for Windows paths.
func unescapePref(s string) string {
	return strings.NewReplacer(`\\`, `\`, `\"`, `"`).Replace(s)
}

// DataDir returns the configured data directory, or ~/Zotero when the
// preference or the profile is missing.
func (l *Locator) DataDir() string {
	if dir, ok, err := l.ReadPref(PrefDataDir); err == nil && ok && dir != "" {
		return dir
	}
	return filepath.Join(l.HomeDir, "Zotero")
}

// BaseAttachmentDir returns the base directory for linked files. When no base
// path is configured it falls back to <dataDir>/storage.
func (l *Locator) BaseAttachmentDir(dataDir string) string {
	if dir, ok, err := l.ReadPref(PrefBaseAttachmentPath); err == nil && ok && dir != "" {
		return dir
	}
	return filepath.Join(dataDir, "storage")
}

// Paths are the resolved locations of a Zotero installation.
type Paths struct {
	DataDir       string
	AttachmentDir string
}

func (p Paths) DatabasePath() string {
	return filepath.Join(p.DataDir, DatabaseFilename)
}

// ResolveAttachment returns the on-disk path of a catalog entry. Stored files
// live in <dataDir>/storage/<attachment key>/; linked files are relative to
// the base attachment directory.
func (p Paths) ResolveAttachment(storedPath, attachmentKey string, linked bool) string {
	rel := filepath.FromSlash(strings.ReplaceAll(storedPath, "\\", "/"))
	if filepath.IsAbs(rel) {
		return rel
	}
	if !linked {
		return filepath.Join(p.DataDir, "storage", attachmentKey, rel)
	}
	return filepath.Join(p.AttachmentDir, rel)
}
