package assembly

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelforge/internal/segment"
)

// DurationEpsilon is the tolerance on the assembled timeline's total
// duration versus the target.
const DurationEpsilon = 0.01

// BuildStats records the degraded-but-successful conditions of a
// build so the orchestrator can warn without failing the job.
type BuildStats struct {
	UnmatchedEntries int     `json:"unmatched_entries"`
	FallbackEntries  int     `json:"fallback_entries"`
	TailFillSeconds  float64 `json:"tail_fill_seconds"`
}

// Builder converts match results into a continuous timeline covering
// the full target duration.
type Builder struct {
	logger zerolog.Logger
}

// NewBuilder creates a timeline builder.
func NewBuilder(logger zerolog.Logger) *Builder {
	return &Builder{
		logger: logger.With().Str("component", "timeline-builder").Logger(),
	}
}

// Build places one timeline entry per subtitle entry, substituting the
// fallback segment (first in the library) for unmatched spans, then
// closes any remaining gap to the target duration with one more
// fallback entry.
//
// Each entry occupies exactly its subtitle's span on the timeline.
// When the resolved segment is shorter than the span, the full segment
// is placed and the downstream renderer loops or holds the last frame;
// the timeline position math never drifts because of short footage.
func (b *Builder) Build(entries []segment.SubtitleEntry, matches []segment.MatchResult, library []segment.LibrarySegment, targetDuration float64) ([]segment.TimelineEntry, BuildStats, error) {
	var stats BuildStats

	if len(entries) == 0 || len(library) == 0 {
		return nil, stats, fmt.Errorf("timeline build: %w", segment.ErrNoUsableContent)
	}
	if len(matches) != len(entries) {
		return nil, stats, fmt.Errorf("timeline build: %d matches for %d entries", len(matches), len(entries))
	}
	if targetDuration <= 0 {
		return nil, stats, fmt.Errorf("timeline build: target duration must be positive, got %.3f", targetDuration)
	}

	byID := make(map[string]segment.LibrarySegment, len(library))
	for _, seg := range library {
		if err := seg.Validate(); err != nil {
			return nil, stats, fmt.Errorf("timeline build: %w", err)
		}
		if _, dup := byID[seg.ID]; dup {
			return nil, stats, fmt.Errorf("timeline build: duplicate library segment id %s", seg.ID)
		}
		byID[seg.ID] = seg
	}
	fallback := library[0]

	timeline := make([]segment.TimelineEntry, 0, len(entries)+1)
	cursor := 0.0

	for i, entry := range entries {
		required := entry.Duration()
		if required <= 0 {
			return nil, stats, fmt.Errorf("timeline build: entry %d has malformed time range [%.3f,%.3f]", entry.Index, entry.StartTime, entry.EndTime)
		}

		src := fallback
		if matches[i].Matched() {
			resolved, ok := byID[matches[i].SegmentID]
			if !ok {
				return nil, stats, fmt.Errorf("timeline build: match references unknown segment %s", matches[i].SegmentID)
			}
			src = resolved
		} else {
			stats.UnmatchedEntries++
			stats.FallbackEntries++
		}

		timeline = append(timeline, placeEntry(src, required, cursor))
		cursor += required
	}

	// Close the tail gap so the assembled video runs exactly as long
	// as the trimmed narration.
	if gap := targetDuration - cursor; gap > DurationEpsilon {
		timeline = append(timeline, placeEntry(fallback, gap, cursor))
		stats.FallbackEntries++
		stats.TailFillSeconds = gap
		cursor += gap
	}

	if diff := math.Abs(cursor - targetDuration); diff > DurationEpsilon {
		return nil, stats, fmt.Errorf("timeline build: assembled %.3fs but target is %.3fs", cursor, targetDuration)
	}

	b.logger.Info().
		Int("entries", len(timeline)).
		Float64("duration", cursor).
		Int("unmatched", stats.UnmatchedEntries).
		Float64("tail_fill", stats.TailFillSeconds).
		Msg("timeline assembled")

	return timeline, stats, nil
}

// placeEntry trims the segment to the required span from its start
// when it covers the span; a shorter segment is placed whole and the
// renderer stretches it over the same timeline span.
func placeEntry(src segment.LibrarySegment, required, cursor float64) segment.TimelineEntry {
	out := src.InPoint + required
	if out > src.OutPoint {
		out = src.OutPoint
	}
	return segment.TimelineEntry{
		Source:           src.Source,
		InPoint:          src.InPoint,
		OutPoint:         out,
		TimelineStart:    cursor,
		TimelineDuration: required,
	}
}
