package database

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/boox2zotero/internal/logging"
)

var (
	// ErrResourceLocked means another process (usually a running Zotero)
	// holds the database lock.
	ErrResourceLocked = errors.New("database is locked")

	ErrDatabaseNotFound = errors.New("database not found")
)

// Options control how the catalog database is opened.
type Options struct {
	// BusyTimeout is how long sqlite waits on a lock before giving up.
	BusyTimeout time.Duration

	// Create allows opening a path that does not exist yet.
	Create bool

	Logger *slog.Logger
}

type Database struct {
	DB   *gorm.DB
	path string
}

// Open connects to the Zotero database at path. Unless opts.Create is set the
// file must already exist; sqlite would otherwise create an empty one.
func Open(path string, opts Options) (*Database, error) {
	if !opts.Create {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, path)
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	db, err := gorm.Open(sqlite.Open(dsn(path, opts)), &gorm.Config{
		Logger:                 logging.NewGormLogger(opts.Logger),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", TranslateError(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	// One connection keeps savepoints and the run transaction on the same handle.
	sqlDB.SetMaxOpenConns(1)

	opts.Logger.Debug("database opened", "path", path)
	return &Database{DB: db, path: path}, nil
}

func dsn(path string, opts Options) string {
	q := url.Values{}
	if opts.BusyTimeout > 0 {
		q.Set("_busy_timeout", fmt.Sprintf("%d", opts.BusyTimeout.Milliseconds()))
	}
	if !opts.Create {
		q.Set("mode", "rw")
	}
	if len(q) == 0 {
		return "file:" + path
	}
	return "file:" + path + "?" + q.Encode()
}

func (d *Database) Path() string {
	return d.path
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// TranslateError maps sqlite busy/locked failures to ErrResourceLocked and
// leaves every other error untouched.
func TranslateError(err error) error {
	if err == nil || errors.Is(err, ErrResourceLocked) {
		return err
	}
	if IsLocked(err) {
		return fmt.Errorf("%w: %v", ErrResourceLocked, err)
	}
	return err
}

func IsLocked(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrResourceLocked) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return strings.Contains(err.Error(), "database is locked")
}
