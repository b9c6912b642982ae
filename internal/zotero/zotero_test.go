package zotero

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePrefs = `// Mozilla User Preferences
user_pref("extensions.zotero.baseAttachmentPath", "/home/reader/drive/Zotero");
user_pref("extensions.zotero.dataDir", "C:\\Users\\reader\\Zotero");
user_pref("extensions.zotero.firstRunGuidance.shown", true);
`

func writeProfile(t *testing.T, content string) *Locator {
	t.Helper()
	profiles := t.TempDir()
	dir := filepath.Join(profiles, "abcd1234.default")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prefs.js"), []byte(content), 0644))
	return &Locator{HomeDir: "/home/reader", GOOS: "linux", ProfilesDir: profiles}
}

func TestParsePref(t *testing.T) {
	v, ok := ParsePref(samplePrefs, PrefBaseAttachmentPath)
	assert.True(t, ok)
	assert.Equal(t, "/home/reader/drive/Zotero", v)

	v, ok = ParsePref(samplePrefs, PrefDataDir)
	assert.True(t, ok)
	assert.Equal(t, `C:\Users\reader\Zotero`, v)

	_, ok = ParsePref(samplePrefs, "extensions.zotero.firstRunGuidance.shown")
	assert.False(t, ok, "non-string prefs are ignored")

	_, ok = ParsePref(samplePrefs, "extensions.zotero.missing")
	assert.False(t, ok)
}

func TestLocator_FromPrefs(t *testing.T) {
	l := writeProfile(t, `user_pref("extensions.zotero.dataDir", "/data/zotero");`+"\n")

	assert.Equal(t, "/data/zotero", l.DataDir())
	assert.Equal(t, "/data/zotero/storage", l.BaseAttachmentDir(l.DataDir()))
}

func TestLocator_Fallbacks(t *testing.T) {
	l := &Locator{HomeDir: "/home/reader", GOOS: "linux", ProfilesDir: t.TempDir()}

	_, _, err := l.ReadPref(PrefDataDir)
	assert.ErrorIs(t, err, ErrPrefsNotFound)
	assert.Equal(t, "/home/reader/Zotero", l.DataDir())
}

func TestLocator_DefaultProfilesDir(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"darwin", "/home/reader/Library/Application Support/Zotero/Profiles"},
		{"linux", "/home/reader/.zotero/zotero"},
	}
	for _, tt := range tests {
		l := &Locator{HomeDir: "/home/reader", GOOS: tt.goos}
		assert.Equal(t, filepath.FromSlash(tt.want), l.DefaultProfilesDir())
	}
}

func TestPaths_ResolveAttachment(t *testing.T) {
	p := Paths{DataDir: "/data/zotero", AttachmentDir: "/drive/books"}

	assert.Equal(t, "/data/zotero/zotero.sqlite", p.DatabasePath())
	assert.Equal(t, "/drive/books/Shakespeare/Romeo and Juliet.epub",
		p.ResolveAttachment("Shakespeare/Romeo and Juliet.epub", "ABCD2345", true))
	assert.Equal(t, "/data/zotero/storage/ABCD2345/Romeo and Juliet.epub",
		p.ResolveAttachment("Romeo and Juliet.epub", "ABCD2345", false))
	assert.Equal(t, "/drive/books/Sub/Book.epub",
		p.ResolveAttachment(`Sub\Book.epub`, "ABCD2345", true))
}

func TestKeyMinter(t *testing.T) {
	existing := map[string]struct{}{}
	m := NewKeyMinter(existing, nil)

	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		key, err := m.Mint()
		require.NoError(t, err)
		assert.True(t, ValidKey(key), key)
		_, dup := seen[key]
		assert.False(t, dup)
		seen[key] = struct{}{}
	}
	assert.Len(t, existing, 500)
}

func TestKeyMinter_AvoidsExisting(t *testing.T) {
	// A deterministic source that first yields "22222222", then "33333333".
	calls := 0
	intn := func(n int) int {
		calls++
		if calls <= KeyLength {
			return 0
		}
		return 1
	}

	existing := map[string]struct{}{"22222222": {}}
	m := NewKeyMinter(existing, intn)

	key, err := m.Mint()
	require.NoError(t, err)
	assert.Equal(t, "33333333", key)
	assert.True(t, m.Known("33333333"))

	m.Release("33333333")
	assert.False(t, m.Known("33333333"))
}

func TestKeyMinter_Exhausted(t *testing.T) {
	m := NewKeyMinter(map[string]struct{}{"22222222": {}}, func(int) int { return 0 })
	_, err := m.Mint()
	assert.ErrorIs(t, err, ErrKeySpaceExhausted)
}

func TestValidKey(t *testing.T) {
	assert.True(t, ValidKey("ABCD2345"))
	assert.False(t, ValidKey("ABCD234"))
	assert.False(t, ValidKey("ABCDI345"), "I is excluded")
	assert.False(t, ValidKey("ABCD0345"), "0 is excluded")
	assert.Equal(t, 32, len(KeyAlphabet))
}
