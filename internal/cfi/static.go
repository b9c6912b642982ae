package cfi

import (
	"context"

	"github.com/mrlokans/boox2zotero/internal/entities"
)

// StaticResolver answers from a fixed text → location table. Texts absent
// from the table resolve to nil.
type StaticResolver struct {
	Locations map[string]entities.Location
	Err       error
}

func NewStaticResolver(locations map[string]entities.Location) *StaticResolver {
	return &StaticResolver{Locations: locations}
}

func (r *StaticResolver) ResolveBatch(ctx context.Context, _ string, texts []string) ([]*entities.Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.Err != nil {
		return nil, r.Err
	}

	out := make([]*entities.Location, len(texts))
	for i, text := range texts {
		if loc, ok := r.Locations[text]; ok {
			out[i] = &loc
		}
	}
	return out, nil
}
