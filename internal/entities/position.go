package entities

import "fmt"

// Position payload constants for EPUB annotations.
const (
	PositionTypeFragmentSelector = "FragmentSelector"
	EPUBCFIConformsTo            = "http://www.idpf.org/epub/linking/cfi/epub-cfi.html"
)

// Location is a resolved place in an EPUB. Fallback locations are estimated
// from the page number and carry no exact character position.
type Location struct {
	CFI        string `json:"cfi"`
	SpineIndex int    `json:"spineIndex"`
	CharOffset int    `json:"charOffset"`
	Fallback   bool   `json:"-"`
}

// OrderKey renders the location as a sortIndex value: "<spine>|<offset>".
func (l Location) OrderKey() string {
	return FormatOrderKey(l.SpineIndex, l.CharOffset)
}

func FormatOrderKey(spineIndex, charOffset int) string {
	if spineIndex < 0 {
		spineIndex = 0
	}
	if charOffset < 0 {
		charOffset = 0
	}
	return fmt.Sprintf("%05d|%08d", spineIndex, charOffset)
}

// Position is the JSON payload stored in itemAnnotations.position.
type Position struct {
	Type       string `json:"type"`
	ConformsTo string `json:"conformsTo"`
	Value      string `json:"value"`
}

func NewCFIPosition(cfi string) Position {
	return Position{
		Type:       PositionTypeFragmentSelector,
		ConformsTo: EPUBCFIConformsTo,
		Value:      cfi,
	}
}
