// Package matcher resolves the loosely formatted book identifier of a Boox
// export to one catalogued e-book attachment.
//
// Three strategies are tried in order, stopping at the first that accepts:
//
//  1. exact: the attachment path contains the identifier verbatim
//  2. fuzzy-filename: token Jaccard similarity against the file name
//  3. fuzzy-metadata: token Jaccard similarity against creators and title
//
// The fuzzy stages accept only scores strictly above Config.Threshold.
package matcher

import (
	"log/slog"
	"strings"

	"github.com/mrlokans/boox2zotero/internal/entities"
)

// Config holds the matcher's tunables.
type Config struct {
	// Extension attachments must have, compared case-insensitively. Default: ".epub"
	Extension string

	// StopWords are removed before token scoring. Default: DefaultStopWords
	StopWords []string

	// Threshold a fuzzy score must exceed to be accepted. Default: 0.3
	Threshold float64

	// MinMetadataTokenLength drops metadata tokens this short or shorter. Default: 2
	MinMetadataTokenLength int

	// MaxListedCandidates bounds the diagnostic listing on no match. Default: 10
	MaxListedCandidates int
}

func DefaultConfig() Config {
	return Config{
		Extension:              ".epub",
		StopWords:              DefaultStopWords,
		Threshold:              0.3,
		MinMetadataTokenLength: 2,
		MaxListedCandidates:    10,
	}
}

type Matcher struct {
	config    Config
	stopWords map[string]struct{}
	logger    *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Matcher {
	stop := make(map[string]struct{}, len(cfg.StopWords))
	for _, w := range cfg.StopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{config: cfg, stopWords: stop, logger: logger}
}

// Match returns the best catalog entry for identifier, or nil. When nothing
// matches, the catalogued file names are logged to help diagnose the miss.
func (m *Matcher) Match(identifier string, catalog []entities.Candidate) *entities.CatalogEntry {
	candidates := m.filterByExtension(catalog)
	if len(candidates) == 0 {
		m.logger.Warn("no e-book attachments found in catalog", "extension", m.config.Extension)
		return nil
	}

	if entry := m.matchExact(identifier, candidates); entry != nil {
		m.logger.Debug("catalog match", "method", entry.MatchMethod, "path", entry.StoredRelativePath)
		return entry
	}

	idTokens := m.identifierTokens(identifier)

	if entry := m.matchFilename(idTokens, candidates); entry != nil {
		m.logger.Debug("catalog match", "method", entry.MatchMethod, "score", entry.Confidence,
			"path", entry.StoredRelativePath, "query", identifier)
		return entry
	}

	if entry := m.matchMetadata(idTokens, candidates); entry != nil {
		m.logger.Debug("catalog match", "method", entry.MatchMethod, "score", entry.Confidence,
			"path", entry.StoredRelativePath, "query", identifier)
		return entry
	}

	m.logCandidates(candidates)
	return nil
}

// CandidateFilenames lists the file names of the e-book attachments in catalog.
func (m *Matcher) CandidateFilenames(catalog []entities.Candidate) []string {
	candidates := m.filterByExtension(catalog)
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.RelativePath())
	}
	return names
}

func (m *Matcher) filterByExtension(catalog []entities.Candidate) []entities.Candidate {
	ext := strings.ToLower(m.config.Extension)
	var out []entities.Candidate
	for _, c := range catalog {
		if strings.HasSuffix(strings.ToLower(c.Path), ext) {
			out = append(out, c)
		}
	}
	return out
}

func (m *Matcher) matchExact(identifier string, candidates []entities.Candidate) *entities.CatalogEntry {
	if identifier == "" {
		return nil
	}
	for _, c := range candidates {
		if strings.Contains(c.RelativePath(), identifier) {
			return entities.NewCatalogEntry(c, 1.0, entities.MatchMethodExact)
		}
	}
	return nil
}

func (m *Matcher) matchFilename(idTokens tokenSet, candidates []entities.Candidate) *entities.CatalogEntry {
	if len(idTokens) == 0 {
		return nil
	}

	var best *entities.Candidate
	bestScore := 0.0

	for i := range candidates {
		name := candidates[i].Filename()
		name = name[:len(name)-len(m.config.Extension)]
		nameTokens := tokenize(name).without(m.isStopWord)

		if score := jaccard(idTokens, nameTokens); score > bestScore {
			bestScore = score
			best = &candidates[i]
		}
	}

	if best == nil || !m.accepts(bestScore) {
		return nil
	}
	return entities.NewCatalogEntry(*best, bestScore, entities.MatchMethodFuzzyFilename)
}

func (m *Matcher) matchMetadata(idTokens tokenSet, candidates []entities.Candidate) *entities.CatalogEntry {
	if len(idTokens) == 0 {
		return nil
	}

	var best *entities.Candidate
	bestScore := 0.0

	for i := range candidates {
		c := &candidates[i]
		metadata := strings.Join(c.Creators, " ") + " " + c.Title
		metaTokens := tokenize(metadata).without(func(tok string) bool {
			return m.isStopWord(tok) || len([]rune(tok)) <= m.config.MinMetadataTokenLength
		})
		if len(metaTokens) == 0 {
			continue
		}

		if score := jaccard(idTokens, metaTokens); score > bestScore {
			bestScore = score
			best = c
		}
	}

	if best == nil || !m.accepts(bestScore) {
		return nil
	}

	m.logger.Debug("metadata candidate", "creators", strings.Join(best.Creators, ", "), "title", best.Title)
	return entities.NewCatalogEntry(*best, bestScore, entities.MatchMethodFuzzyMetadata)
}

// identifierTokens drops stop words and pure-digit tokens such as years.
func (m *Matcher) identifierTokens(identifier string) tokenSet {
	return tokenize(identifier).without(func(tok string) bool {
		return m.isStopWord(tok) || isDigits(tok)
	})
}

// accepts reports whether a fuzzy score clears the threshold. The
// comparison is strict: a score equal to the threshold is rejected.
func (m *Matcher) accepts(score float64) bool {
	return score > m.config.Threshold
}

func (m *Matcher) isStopWord(tok string) bool {
	_, ok := m.stopWords[tok]
	return ok
}

func (m *Matcher) logCandidates(candidates []entities.Candidate) {
	limit := m.config.MaxListedCandidates
	m.logger.Error("no matching e-book found; available files:")
	for i, c := range candidates {
		if i >= limit {
			break
		}
		m.logger.Error("  - " + c.RelativePath())
	}
	if len(candidates) > limit {
		m.logger.Error("  ... and more", "remaining", len(candidates)-limit)
	}
}
