package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoMatch              = errors.New("no matching e-book in the catalog")
	ErrAmbiguousMatch       = errors.New("match rejected")
	ErrEPUBMissing          = errors.New("e-book file missing")
	ErrAnnotationFileAbsent = errors.New("annotation file not found")
)

// MatchError carries the identifier and the catalogued file names so the
// caller can show what was available.
type MatchError struct {
	Identifier string
	Candidates []string
	Err        error
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("%v: %q (%d candidates)", e.Err, e.Identifier, len(e.Candidates))
}

func (e *MatchError) Unwrap() error {
	return e.Err
}

// CandidateList renders up to limit candidate names, one per line.
func (e *MatchError) CandidateList(limit int) string {
	var b strings.Builder
	for i, name := range e.Candidates {
		if i >= limit {
			fmt.Fprintf(&b, "  ... and %d more\n", len(e.Candidates)-limit)
			break
		}
		fmt.Fprintf(&b, "  - %s\n", name)
	}
	return b.String()
}

// EPUBMissingError reports where the e-book was expected.
type EPUBMissingError struct {
	Expected      string
	AttachmentDir string
}

func (e *EPUBMissingError) Error() string {
	return fmt.Sprintf("%v: %s (attachment directory: %s)", ErrEPUBMissing, e.Expected, e.AttachmentDir)
}

func (e *EPUBMissingError) Unwrap() error {
	return ErrEPUBMissing
}
