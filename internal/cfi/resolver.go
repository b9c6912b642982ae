// Package cfi resolves highlight texts to EPUB locations and renders the
// position payload and sort order stored alongside each annotation.
package cfi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mrlokans/boox2zotero/internal/entities"
)

// ErrBatchResolution is returned when a batch could not be resolved at all.
// Callers fall back to page-based locations for every text in the batch.
var ErrBatchResolution = errors.New("batch location resolution failed")

// Resolver maps search texts to locations inside an EPUB file. The result
// has one entry per input text in the same order; a nil entry means the
// text was not found.
type Resolver interface {
	ResolveBatch(ctx context.Context, epubPath string, texts []string) ([]*entities.Location, error)
}

// PositionJSON renders the FragmentSelector payload for cfi.
func PositionJSON(cfi string) (string, error) {
	data, err := json.Marshal(entities.NewCFIPosition(cfi))
	if err != nil {
		return "", fmt.Errorf("failed to encode position: %w", err)
	}
	return string(data), nil
}

// FallbackLocation estimates a location from a page number when the text
// could not be found. Ten pages are assumed per spine item; the order key
// keeps page order within the first spine slot.
func FallbackLocation(page int) entities.Location {
	if page < 0 {
		page = 0
	}
	spine := page / 10
	return entities.Location{
		CFI:        fmt.Sprintf("epubcfi(/6/%d!/4/2:0)", (spine+1)*2),
		SpineIndex: 0,
		CharOffset: page * 1000,
		Fallback:   true,
	}
}
