package assembly

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelforge/internal/segment"
)

// Match confidence levels. A keyword matching a whole token in the
// subtitle text is a certain hit; a bare substring hit is weaker.
const (
	WholeWordConfidence = 1.0
	SubstringConfidence = 0.7
)

// MatcherConfig configures keyword matching.
type MatcherConfig struct {
	// MinConfidence is the floor below which an entry is reported as
	// unmatched rather than matched badly.
	MinConfidence float64
}

// DefaultMatcherConfig returns the default matching thresholds.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{MinConfidence: 0.3}
}

// Matcher aligns subtitle entries against a keyword-tagged footage
// library. It is greedy per entry: the same library segment may win
// several entries.
type Matcher struct {
	logger zerolog.Logger
	cfg    MatcherConfig
}

// NewMatcher creates a keyword matcher.
func NewMatcher(logger zerolog.Logger, cfg MatcherConfig) *Matcher {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.3
	}
	return &Matcher{
		logger: logger.With().Str("component", "keyword-matcher").Logger(),
		cfg:    cfg,
	}
}

// Match produces one MatchResult per subtitle entry. Entries with no
// keyword hit at or above the minimum confidence come back with an
// empty SegmentID and zero confidence; that is a degraded condition
// for the caller's metadata, not an error.
func (m *Matcher) Match(entries []segment.SubtitleEntry, library []segment.LibrarySegment) ([]segment.MatchResult, error) {
	if len(library) == 0 {
		return nil, fmt.Errorf("segment library is empty: %w", segment.ErrNoUsableContent)
	}

	results := make([]segment.MatchResult, 0, len(entries))
	unmatched := 0

	for _, entry := range entries {
		best := m.matchEntry(entry, library)
		if !best.Matched() {
			unmatched++
		}
		results = append(results, best)
	}

	m.logger.Info().
		Int("entries", len(entries)).
		Int("unmatched", unmatched).
		Msg("keyword matching complete")

	return results, nil
}

// matchEntry scans every library segment's keywords against the entry
// text. Highest confidence wins; confidence ties break toward the
// longer segment (more usable footage), then toward library order so
// repeated runs agree.
func (m *Matcher) matchEntry(entry segment.SubtitleEntry, library []segment.LibrarySegment) segment.MatchResult {
	text := strings.ToLower(entry.Text)
	result := segment.MatchResult{EntryIndex: entry.Index}

	var bestDuration float64
	for _, seg := range library {
		for _, keyword := range seg.Keywords {
			kw := strings.ToLower(strings.TrimSpace(keyword))
			if kw == "" {
				continue
			}
			confidence := keywordConfidence(text, kw)
			if confidence < m.cfg.MinConfidence {
				continue
			}
			if confidence > result.Confidence ||
				(confidence == result.Confidence && seg.Duration() > bestDuration) {
				result.SegmentID = seg.ID
				result.Keyword = keyword
				result.Confidence = confidence
				bestDuration = seg.Duration()
			}
		}
	}
	return result
}

// keywordConfidence returns 1.0 for a whole-token match, 0.7 for a
// substring-only match, and 0 for a miss. Text must already be
// lowercased.
func keywordConfidence(text, keyword string) float64 {
	offset := 0
	found := false
	for {
		i := strings.Index(text[offset:], keyword)
		if i < 0 {
			break
		}
		found = true
		at := offset + i
		if boundaryBefore(text, at) && boundaryAfter(text, at+len(keyword)) {
			return WholeWordConfidence
		}
		offset = at + 1
	}
	if found {
		return SubstringConfidence
	}
	return 0
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
