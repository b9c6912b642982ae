// Command generate_demo creates a throwaway Zotero data directory with a few
// public domain books and matching Boox exports, for trying the importer
// without touching a real library.
// Usage: go run ./cmd/generate_demo [-dir ./demo]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrlokans/boox2zotero/internal/database"
	"github.com/mrlokans/boox2zotero/internal/database/catalog"
	"github.com/mrlokans/boox2zotero/internal/logging"
	"github.com/mrlokans/boox2zotero/internal/zotero"
)

const defaultDemoDir = "./demo"

type demoHighlight struct {
	When string
	Page int
	Text string
}

type demoBook struct {
	Title    string
	Creators []catalog.Creator
	// Filename of the e-book; linked books live under books/, stored ones
	// under Zotero/storage/<key>/
	Filename   string
	Linked     bool
	Identifier string
	Highlights []demoHighlight
}

func main() {
	dir := flag.String("dir", defaultDemoDir, "directory to create the demo Zotero data directory in")
	flag.Parse()

	logger := logging.New(slog.LevelInfo)
	if err := generate(context.Background(), *dir, logger); err != nil {
		logger.Error("demo generation failed", "error", err)
		os.Exit(1)
	}
}

func generate(ctx context.Context, dir string, logger *slog.Logger) error {
	paths := zotero.Paths{
		DataDir:       filepath.Join(dir, "Zotero"),
		AttachmentDir: filepath.Join(dir, "books"),
	}
	exportDir := filepath.Join(dir, "exports")

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove existing demo directory: %w", err)
	}
	for _, d := range []string{paths.DataDir, paths.AttachmentDir, exportDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}

	db, err := database.Open(paths.DatabasePath(), database.Options{Create: true, Logger: logger})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.CreateSchema(db.DB); err != nil {
		return err
	}

	repo := catalog.NewRepository(db.DB, database.TitleFieldID)
	minter := zotero.NewKeyMinter(nil, nil)

	for _, book := range publicDomainBooks() {
		parentKey, err := minter.Mint()
		if err != nil {
			return err
		}
		attachmentKey, err := minter.Mint()
		if err != nil {
			return err
		}

		stored := "attachments:" + book.Filename
		filePath := filepath.Join(paths.AttachmentDir, book.Filename)
		if !book.Linked {
			stored = "storage:" + book.Filename
			filePath = paths.ResolveAttachment(book.Filename, attachmentKey, false)
		}

		if _, _, err := repo.AddBook(ctx, catalog.NewBook{
			Key:            parentKey,
			AttachmentKey:  attachmentKey,
			Title:          book.Title,
			Creators:       book.Creators,
			AttachmentPath: stored,
		}); err != nil {
			return fmt.Errorf("failed to add %s: %w", book.Title, err)
		}

		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			return err
		}
		// Placeholder content; location resolution falls back to page numbers
		if err := os.WriteFile(filePath, []byte("demo e-book placeholder"), 0644); err != nil {
			return err
		}

		exportPath := filepath.Join(exportDir, strings.TrimSuffix(book.Filename, ".epub")+"-annotations.txt")
		if err := os.WriteFile(exportPath, []byte(renderExport(book)), 0644); err != nil {
			return err
		}
		logger.Info("added demo book", "title", book.Title, "highlights", len(book.Highlights), "export", exportPath)
	}

	logger.Info("demo generated",
		"zotero_dir", paths.DataDir,
		"storage_dir", paths.AttachmentDir,
		"exports", exportDir)
	return nil
}

// renderExport writes highlights in the Boox "Reading Notes" format.
func renderExport(book demoBook) string {
	var b strings.Builder
	author := ""
	if len(book.Creators) > 0 {
		author = book.Creators[0].FirstName + " " + book.Creators[0].LastName
	}
	fmt.Fprintf(&b, "Reading Notes | <<%s>>%s\n", book.Identifier, author)
	for _, h := range book.Highlights {
		b.WriteString("-------------------\n")
		fmt.Fprintf(&b, "%s | Page No.: %d\n", h.When, h.Page)
		b.WriteString(h.Text)
		b.WriteString("\n")
	}
	b.WriteString("-------------------\n")
	return b.String()
}

func publicDomainBooks() []demoBook {
	return []demoBook{
		{
			Title:      "Romeo and Juliet",
			Creators:   []catalog.Creator{{FirstName: "William", LastName: "Shakespeare"}},
			Filename:   "Shakespeare - 1998 - Romeo and Juliet.epub",
			Linked:     true,
			Identifier: "Shakespeare - 1998 - Romeo and Juliet",
			Highlights: []demoHighlight{
				{"2024-01-05 10:30", 42, "Ay, you have been a mouse-hunt in your time;"},
				{"2024-01-05 10:35", 7, "Enter LADY CAPULET.\nLADY CAPULET.What, are you busy, ho? Need you my help?"},
				{"2024-01-06 21:12", 51, "Romeo, Romeo, Romeo, here's drink! I drink to thee."},
			},
		},
		{
			Title:      "The History of Drink",
			Creators:   []catalog.Creator{{FirstName: "James", LastName: "Samuelson"}},
			Filename:   "History of Drink Samuelson.epub",
			Identifier: "The History of Drink 1878",
			Highlights: []demoHighlight{
				{"2024-02-11 08:02", 3, "The use of intoxicating drinks is of very ancient date."},
				{"2024-02-11 08:15", 19, "Wine was the common beverage of the ancient Egyptians."},
			},
		},
		{
			Title:      "Pride and Prejudice",
			Creators:   []catalog.Creator{{FirstName: "Jane", LastName: "Austen"}},
			Filename:   "Austen - Pride and Prejudice.epub",
			Linked:     true,
			Identifier: "Austen - Pride and Prejudice",
			Highlights: []demoHighlight{
				{"2024-03-02 19:40", 1, "It is a truth universally acknowledged, that a single man in possession of a good fortune, must be in want of a wife."},
				{"2024-03-03 20:05", 34, "I could easily forgive his pride, if he had not mortified mine."},
			},
		},
		{
			Title:      "Meditations",
			Creators:   []catalog.Creator{{FirstName: "Marcus", LastName: "Aurelius"}},
			Filename:   "a8f3k2.epub",
			Identifier: "Marcus Aurelius Meditations",
			Highlights: []demoHighlight{
				{"2024-04-10 07:00", 12, "You have power over your mind - not outside events. Realize this, and you will find strength."},
			},
		},
	}
}
