package pipeline

import (
	"time"

	"github.com/kikiluvv/reelforge/internal/narration"
	"github.com/kikiluvv/reelforge/internal/segment"
	"github.com/kikiluvv/reelforge/internal/variants"
)

// CandidateReport is the manifest of one candidate scan.
type CandidateReport struct {
	RunID          string                 `json:"run_id"`
	Input          string                 `json:"input"`
	SourceDuration float64                `json:"source_duration"`
	WindowSeconds  float64                `json:"window_seconds"`
	Candidates     []segment.VideoSegment `json:"candidates"`
	CreatedAt      time.Time              `json:"created_at"`
}

// VariantSet is the manifest of one multi-variant run: N alternative
// edits of a single source plus the degraded-condition counters.
type VariantSet struct {
	RunID     string              `json:"run_id"`
	Input     string              `json:"input"`
	Selection *variants.Selection `json:"selection"`
	CreatedAt time.Time           `json:"created_at"`
}

// Assembly is the manifest of one script-driven build: the matches,
// the resolved narration duration, and the final timeline the external
// renderer consumes.
type Assembly struct {
	RunID      string                  `json:"run_id"`
	Resolution narration.Resolution    `json:"resolution"`
	Matches    []segment.MatchResult   `json:"matches"`
	Timeline   []segment.TimelineEntry `json:"timeline"`
	Stats      AssemblyStats           `json:"stats"`
	CreatedAt  time.Time               `json:"created_at"`
}

// AssemblyStats aggregates the degraded-but-successful conditions of a
// build. None of these fail the job; the orchestrator decides whether
// to warn.
type AssemblyStats struct {
	UnmatchedEntries int     `json:"unmatched_entries"`
	FallbackEntries  int     `json:"fallback_entries"`
	TailFillSeconds  float64 `json:"tail_fill_seconds"`
	VoiceDetected    bool    `json:"voice_detected"`
}

// AssembleInput carries everything the script-driven path needs.
// Voice spans may be supplied directly or derived from the narration
// audio; when both are absent the original duration is used untrimmed.
type AssembleInput struct {
	Entries []segment.SubtitleEntry
	Library []segment.LibrarySegment

	// Spans are externally detected voice-activity spans. Optional.
	Spans []narration.VoiceSpan
	// NarrationAudio is the narration file to derive spans from when
	// none are supplied. Optional.
	NarrationAudio string
	// OriginalDuration is the untrimmed narration length in seconds.
	// Probed from NarrationAudio when zero.
	OriginalDuration float64
}
