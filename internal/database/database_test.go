package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/boox2zotero/internal/logging"
)

func setupTestDB(t *testing.T) (*Database, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zotero.sqlite")

	db, err := Open(path, Options{Create: true, Logger: logging.Discard()})
	require.NoError(t, err)
	require.NoError(t, CreateSchema(db.DB))
	t.Cleanup(func() { db.Close() })

	return db, path
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "zotero.sqlite"), Options{Logger: logging.Discard()})
	assert.ErrorIs(t, err, ErrDatabaseNotFound)
}

func TestOpen_ExistingFile(t *testing.T) {
	_, path := setupTestDB(t)

	db, err := Open(path, Options{BusyTimeout: time.Second, Logger: logging.Discard()})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())
	var count int64
	require.NoError(t, db.DB.Raw("SELECT count(*) FROM items").Scan(&count).Error)
	assert.Zero(t, count)
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "file:/tmp/z.sqlite?_busy_timeout=250&mode=rw",
		dsn("/tmp/z.sqlite", Options{BusyTimeout: 250 * time.Millisecond}))
	assert.Equal(t, "file:/tmp/z.sqlite", dsn("/tmp/z.sqlite", Options{Create: true}))
}

func TestIsLocked(t *testing.T) {
	assert.True(t, IsLocked(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, IsLocked(sqlite3.Error{Code: sqlite3.ErrLocked}))
	assert.False(t, IsLocked(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.True(t, IsLocked(errors.New("database is locked")))
	assert.False(t, IsLocked(nil))

	err := TranslateError(sqlite3.Error{Code: sqlite3.ErrBusy})
	assert.ErrorIs(t, err, ErrResourceLocked)

	other := errors.New("no such table: items")
	assert.Equal(t, other, TranslateError(other))
}

func TestTranslateError_DoesNotWrapTwice(t *testing.T) {
	once := TranslateError(sqlite3.Error{Code: sqlite3.ErrBusy})
	twice := TranslateError(fmt.Errorf("load keys: %w", once))

	assert.ErrorIs(t, twice, ErrResourceLocked)
	assert.Equal(t, 1, strings.Count(twice.Error(), ErrResourceLocked.Error()+":"))
}

func TestOpenWhileLocked(t *testing.T) {
	holder, path := setupTestDB(t)
	require.NoError(t, holder.DB.Exec("BEGIN EXCLUSIVE").Error)
	defer holder.DB.Exec("ROLLBACK")

	_, err := Open(path, Options{BusyTimeout: 50 * time.Millisecond, Logger: logging.Discard()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResourceLocked)
	assert.True(t, IsLocked(err))
}

func TestWriteWhileLocked(t *testing.T) {
	holder, path := setupTestDB(t)

	// Connect first; the lock is taken while the second handle is open
	db, err := Open(path, Options{BusyTimeout: 50 * time.Millisecond, Logger: logging.Discard()})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, holder.DB.Exec("BEGIN EXCLUSIVE").Error)
	defer holder.DB.Exec("ROLLBACK")

	err = db.DB.Exec(`INSERT INTO items (itemTypeID, libraryID, key) VALUES (1, 1, 'ABCD2345')`).Error
	require.Error(t, err)
	assert.ErrorIs(t, TranslateError(err), ErrResourceLocked)
}

func TestCreateBackup(t *testing.T) {
	_, path := setupTestDB(t)
	require.NoError(t, os.Chmod(path, 0600))
	mtime := time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	backup, err := CreateBackup(path)
	require.NoError(t, err)
	assert.Equal(t, path+".pre-import-backup", backup)

	original, err := os.ReadFile(path)
	require.NoError(t, err)
	copied, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, original, copied)

	info, err := os.Stat(backup)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(mtime))
}

func TestCreateBackup_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zotero.sqlite")
	require.NoError(t, os.WriteFile(path+BackupSuffix, []byte("stale backup with more bytes"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("fresh"), 0644))

	backup, err := CreateBackup(path)
	require.NoError(t, err)

	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}

func TestCreateBackup_MissingSource(t *testing.T) {
	_, err := CreateBackup(filepath.Join(t.TempDir(), "missing.sqlite"))
	assert.ErrorIs(t, err, ErrBackupFailed)
}
