package importers

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/boox2zotero/internal/cfi"
	"github.com/mrlokans/boox2zotero/internal/database"
	"github.com/mrlokans/boox2zotero/internal/database/annotations"
	"github.com/mrlokans/boox2zotero/internal/database/catalog"
	"github.com/mrlokans/boox2zotero/internal/entities"
	"github.com/mrlokans/boox2zotero/internal/logging"
	"github.com/mrlokans/boox2zotero/internal/zotero"
)

type fixture struct {
	db           *database.Database
	attachmentID int64
	repo         *annotations.Repository
}

func setupTestDB(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zotero.sqlite")

	db, err := database.Open(path, database.Options{Create: true, Logger: logging.Discard()})
	require.NoError(t, err)
	require.NoError(t, database.CreateSchema(db.DB))
	t.Cleanup(func() { db.Close() })

	_, attachmentID, err := catalog.NewRepository(db.DB, 0).AddBook(context.Background(), catalog.NewBook{
		Key:            "PARENT22",
		AttachmentKey:  "ATTACH22",
		Title:          "Romeo and Juliet",
		Creators:       []catalog.Creator{{FirstName: "William", LastName: "Shakespeare"}},
		AttachmentPath: "attachments:Shakespeare - 1998 - Romeo and Juliet.epub",
	})
	require.NoError(t, err)

	return &fixture{db: db, attachmentID: attachmentID, repo: annotations.NewRepository(1)}
}

func (f *fixture) importer(resolver cfi.Resolver, opts Options) *Importer {
	if opts.LibraryID == 0 {
		opts.LibraryID = 1
	}
	return NewImporter(f.db, resolver, opts, logging.Discard())
}

func (f *fixture) request(records ...entities.AnnotationRecord) Request {
	return Request{
		Records:      records,
		ParentItemID: f.attachmentID,
		EPUBPath:     "/books/romeo.epub",
		Color:        "#ffd400",
	}
}

func (f *fixture) stored(t *testing.T) []entities.ItemAnnotation {
	t.Helper()
	rows, err := f.repo.ListForParent(f.db.DB, f.attachmentID)
	require.NoError(t, err)
	return rows
}

func record(day, minute int, page, text string) entities.AnnotationRecord {
	return entities.NewAnnotationRecord(time.Date(2024, 1, day, 10, minute, 0, 0, time.UTC), page, text)
}

var (
	mouseHunt = record(5, 30, "42", "Ay, you have been a mouse-hunt in your time;")
	capulet   = record(5, 35, "7", "Enter LADY CAPULET.")
)

func TestImporter_EndToEnd(t *testing.T) {
	f := setupTestDB(t)
	resolver := cfi.NewStaticResolver(map[string]entities.Location{
		mouseHunt.Text: {CFI: "epubcfi(/6/8!/4/2/3:12)", SpineIndex: 3, CharOffset: 1200},
	})

	result, err := f.importer(resolver, Options{}).Import(context.Background(), f.request(mouseHunt, capulet))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Inserted)
	assert.Zero(t, result.Skipped)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 1, result.Fallbacks)
	assert.Equal(t, f.db.Path()+database.BackupSuffix, result.BackupPath)
	assert.FileExists(t, result.BackupPath)

	// Processed in page order
	require.Len(t, result.Records, 2)
	assert.Equal(t, "7", result.Records[0].Page)
	assert.True(t, result.Records[0].Fallback)
	assert.Equal(t, "42", result.Records[1].Page)

	rows := f.stored(t)
	require.Len(t, rows, 2)

	// ListForParent orders by sortIndex: fallback "00000|00007000" first
	assert.Equal(t, capulet.Text, rows[0].Text)
	assert.Equal(t, "00000|00007000", rows[0].SortIndex)
	assert.Equal(t, mouseHunt.Text, rows[1].Text)
	assert.Equal(t, "00003|00001200", rows[1].SortIndex)
	assert.Equal(t, "#ffd400", rows[1].Color)

	var position entities.Position
	require.NoError(t, json.Unmarshal([]byte(rows[1].Position), &position))
	assert.Equal(t, "FragmentSelector", position.Type)
	assert.Equal(t, "epubcfi(/6/8!/4/2/3:12)", position.Value)

	require.NoError(t, json.Unmarshal([]byte(rows[0].Position), &position))
	assert.Equal(t, "epubcfi(/6/2!/4/2:0)", position.Value)

	var dateAdded string
	require.NoError(t, f.db.DB.Raw("SELECT CAST(dateAdded AS TEXT) FROM items WHERE itemID = ?", rows[1].ItemID).Scan(&dateAdded).Error)
	assert.Equal(t, "2024-01-05 10:30:00", dateAdded)
}

func TestImporter_Idempotent(t *testing.T) {
	f := setupTestDB(t)
	imp := f.importer(cfi.NewStaticResolver(nil), Options{})
	req := f.request(mouseHunt, capulet)

	first, err := imp.Import(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)

	second, err := imp.Import(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, second.Inserted)
	assert.Equal(t, 2, second.Skipped)
	assert.Zero(t, second.Failed)

	assert.Len(t, f.stored(t), 2)
}

func TestImporter_SameTextDifferentTime(t *testing.T) {
	f := setupTestDB(t)
	again := record(6, 0, "42", mouseHunt.Text)

	result, err := f.importer(nil, Options{}).Import(context.Background(), f.request(mouseHunt, again))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
}

func TestImporter_KeysAreUnique(t *testing.T) {
	f := setupTestDB(t)

	var records []entities.AnnotationRecord
	for i := 0; i < 60; i++ {
		records = append(records, record(1+i/60, i%60, "1", "highlight "+string(rune('A'+i%26))+string(rune('a'+i/26))))
	}

	result, err := f.importer(nil, Options{}).Import(context.Background(), f.request(records...))
	require.NoError(t, err)
	require.Equal(t, 60, result.Inserted)

	var keys []string
	require.NoError(t, f.db.DB.Raw("SELECT key FROM items").Scan(&keys).Error)
	assert.Len(t, keys, 62)

	seen := make(map[string]struct{})
	for _, k := range keys {
		_, dup := seen[k]
		assert.False(t, dup, k)
		seen[k] = struct{}{}
	}
	for _, rec := range result.Records {
		assert.True(t, zotero.ValidKey(rec.Key), rec.Key)
	}
}

func TestImporter_MintAvoidsExistingKey(t *testing.T) {
	f := setupTestDB(t)
	require.NoError(t, f.db.DB.Exec(`INSERT INTO items (itemTypeID, libraryID, key) VALUES (1, 1, '22222222')`).Error)

	// First draw collides with the stored key, the second does not
	calls := 0
	intn := func(n int) int {
		calls++
		if calls <= zotero.KeyLength {
			return 0
		}
		return 1
	}

	result, err := f.importer(nil, Options{Intn: intn}).Import(context.Background(), f.request(capulet))
	require.NoError(t, err)
	require.Equal(t, 1, result.Inserted)
	assert.Equal(t, "33333333", result.Records[0].Key)
}

func TestImporter_ResolverFailureFallsBack(t *testing.T) {
	f := setupTestDB(t)
	resolver := &cfi.StaticResolver{Err: cfi.ErrBatchResolution}

	result, err := f.importer(resolver, Options{}).Import(context.Background(), f.request(mouseHunt, capulet))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 2, result.Fallbacks)

	rows := f.stored(t)
	require.Len(t, rows, 2)
	assert.Equal(t, "00000|00042000", rows[1].SortIndex)
}

func TestImporter_RecordFailureIsIsolated(t *testing.T) {
	f := setupTestDB(t)
	require.NoError(t, f.db.DB.Exec(`CREATE TRIGGER reject_boom BEFORE INSERT ON itemAnnotations
		WHEN NEW.text = 'boom' BEGIN SELECT RAISE(ABORT, 'rejected'); END`).Error)

	boom := record(5, 40, "10", "boom")
	result, err := f.importer(nil, Options{}).Import(context.Background(), f.request(mouseHunt, boom, capulet))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 3, result.Total())
	assert.Contains(t, result.Records[1].Error, "rejected")

	assert.Len(t, f.stored(t), 2)

	// The failed record's items row was rolled back with its savepoint
	var items int64
	require.NoError(t, f.db.DB.Raw("SELECT count(*) FROM items WHERE itemTypeID = 1").Scan(&items).Error)
	assert.Equal(t, int64(2), items)
}

// failingLookup is an annotation store whose duplicate check always errors.
type failingLookup struct {
	*annotations.Repository
}

func (failingLookup) Exists(*gorm.DB, int64, string, string) (bool, error) {
	return false, errors.New("no such column: itemAnnotations.text")
}

func TestImporter_DuplicateCheckFailureInserts(t *testing.T) {
	f := setupTestDB(t)
	store := failingLookup{Repository: annotations.NewRepository(1)}

	result, err := f.importer(nil, Options{Store: store}).Import(context.Background(), f.request(mouseHunt))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Inserted)
	assert.Zero(t, result.Skipped)
	assert.Zero(t, result.Failed)
	require.Len(t, result.Records, 1)
	assert.Equal(t, OutcomeInserted, result.Records[0].Outcome)

	rows := f.stored(t)
	require.Len(t, rows, 1)
	assert.Equal(t, mouseHunt.Text, rows[0].Text)
}

func TestImporter_DryRun(t *testing.T) {
	f := setupTestDB(t)
	_, err := f.importer(nil, Options{}).Import(context.Background(), f.request(mouseHunt))
	require.NoError(t, err)
	require.NoError(t, os.Remove(f.db.Path()+database.BackupSuffix))

	result, err := f.importer(nil, Options{DryRun: true}).Import(context.Background(), f.request(mouseHunt, capulet))
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.BackupPath)
	assert.NoFileExists(t, f.db.Path()+database.BackupSuffix)
	assert.Len(t, f.stored(t), 1)
}

func TestImporter_NoRecords(t *testing.T) {
	f := setupTestDB(t)

	result, err := f.importer(nil, Options{}).Import(context.Background(), f.request())
	require.NoError(t, err)
	assert.Zero(t, result.Total())
	assert.NoFileExists(t, f.db.Path()+database.BackupSuffix)
}

func TestImporter_MissingParent(t *testing.T) {
	f := setupTestDB(t)
	req := f.request(mouseHunt)
	req.ParentItemID = 0

	_, err := f.importer(nil, Options{}).Import(context.Background(), req)
	assert.ErrorIs(t, err, ErrMissingParent)
}

func TestImporter_LockedDatabaseRollsBack(t *testing.T) {
	f := setupTestDB(t)

	// Zotero grabs the lock after the importer has connected
	other, err := database.Open(f.db.Path(), database.Options{BusyTimeout: 50 * time.Millisecond, Logger: logging.Discard()})
	require.NoError(t, err)
	defer other.Close()

	require.NoError(t, f.db.DB.Exec("BEGIN EXCLUSIVE").Error)

	imp := NewImporter(other, nil, Options{LibraryID: 1}, logging.Discard())
	result, err := imp.Import(context.Background(), f.request(mouseHunt))
	require.NoError(t, f.db.DB.Exec("ROLLBACK").Error)

	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrResourceLocked)
	assert.Equal(t, 1, strings.Count(err.Error(), database.ErrResourceLocked.Error()+":"))
	assert.Zero(t, result.Inserted)
	assert.NotEmpty(t, result.BackupPath)
	assert.Empty(t, f.stored(t))
}

func TestImporter_Cancelled(t *testing.T) {
	f := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.importer(cfi.NewStaticResolver(nil), Options{}).Import(ctx, f.request(mouseHunt))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.stored(t))
}

func TestSortByPage(t *testing.T) {
	records := []entities.AnnotationRecord{
		record(1, 0, "42", "a"),
		record(1, 1, "7", "b"),
		record(1, 2, "xii", "c"),
		record(1, 3, "7", "d"),
	}

	sorted := SortByPage(records)
	var texts []string
	for _, r := range sorted {
		texts = append(texts, r.Text)
	}
	assert.Equal(t, []string{"c", "b", "d", "a"}, texts)
	assert.Equal(t, "a", records[0].Text, "input is not modified")
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "inserted", OutcomeInserted.String())
	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
}
