package services

import (
	"context"
	"log/slog"

	"github.com/mrlokans/boox2zotero/internal/entities"
)

// Confirmer decides whether a low-confidence match may be used.
type Confirmer interface {
	Confirm(ctx context.Context, prompt MatchPrompt) (bool, error)
}

// MatchPrompt is what a Confirmer is asked about.
type MatchPrompt struct {
	Identifier string
	Entry      *entities.CatalogEntry
}

// AutoConfirmer answers every prompt the same way. Use AutoConfirmer{Accept:
// true} for --yes and the zero value for unattended runs.
type AutoConfirmer struct {
	Accept bool
	Logger *slog.Logger
}

func (c AutoConfirmer) Confirm(_ context.Context, p MatchPrompt) (bool, error) {
	if c.Logger != nil {
		c.Logger.Warn("low-confidence match",
			"file", p.Entry.StoredRelativePath,
			"confidence", p.Entry.Confidence,
			"method", p.Entry.MatchMethod,
			"accepted", c.Accept)
	}
	return c.Accept, nil
}
