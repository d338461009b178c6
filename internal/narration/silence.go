package narration

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelforge/internal/media"
)

// VoiceSpan is a detected time range containing speech. Confidence is
// detector-defined; spans below the configured floor are ignored.
type VoiceSpan struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Duration returns the span length in seconds.
func (v VoiceSpan) Duration() float64 { return v.End - v.Start }

// ResolverConfig tunes silence-aware duration resolution.
type ResolverConfig struct {
	// MinSilence is the shortest gap treated as removable silence;
	// gaps under it are natural pauses and stay in.
	MinSilence float64
	// Padding extends each merged span on both ends for seamless
	// transitions.
	Padding float64
	// MinConfidence filters out low-confidence detector spans.
	MinConfidence float64
}

// DefaultResolverConfig returns the trim parameters tuned for
// narration audio.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		MinSilence:    0.3,
		Padding:       0.08,
		MinConfidence: 0.5,
	}
}

// Resolution is the outcome of duration resolution. When the detector
// finds no voice at all the original duration is kept and
// VoiceDetected reports the degraded condition.
type Resolution struct {
	Spans            []VoiceSpan `json:"spans"`
	OriginalDuration float64     `json:"original_duration"`
	TrimmedDuration  float64     `json:"trimmed_duration"`
	VoiceDetected    bool        `json:"voice_detected"`
}

// Resolver computes the narration duration the assembled timeline must
// cover once inter-phrase silence is removed.
type Resolver struct {
	logger zerolog.Logger
	cfg    ResolverConfig
}

// NewResolver creates a duration resolver.
func NewResolver(logger zerolog.Logger, cfg ResolverConfig) *Resolver {
	if cfg.MinSilence <= 0 {
		cfg.MinSilence = 0.3
	}
	if cfg.Padding < 0 {
		cfg.Padding = 0
	}
	return &Resolver{
		logger: logger.With().Str("component", "duration-resolver").Logger(),
		cfg:    cfg,
	}
}

// Resolve merges voice spans separated by gaps shorter than the
// silence threshold, pads the merged spans, and concatenates them: the
// silence between spans is what gets cut from the narration, so the
// padded span total is the new target duration.
//
// Merging already-separated spans is idempotent: spans farther apart
// than the threshold come back unchanged apart from padding.
func (r *Resolver) Resolve(spans []VoiceSpan, originalDuration float64) (Resolution, error) {
	if originalDuration <= 0 {
		return Resolution{}, fmt.Errorf("resolve duration: original duration must be positive, got %.3f", originalDuration)
	}

	kept := make([]VoiceSpan, 0, len(spans))
	for _, s := range spans {
		if s.End <= s.Start {
			return Resolution{}, fmt.Errorf("resolve duration: malformed voice span [%.3f,%.3f]", s.Start, s.End)
		}
		if s.Confidence < r.cfg.MinConfidence {
			continue
		}
		kept = append(kept, s)
	}

	if len(kept) == 0 {
		r.logger.Warn().Msg("no voice activity detected, keeping original duration")
		return Resolution{
			OriginalDuration: originalDuration,
			TrimmedDuration:  originalDuration,
			VoiceDetected:    false,
		}, nil
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })

	merged := mergeSpans(kept, r.cfg.MinSilence)
	padded := padSpans(merged, r.cfg.Padding, originalDuration)

	var trimmed float64
	for _, s := range padded {
		trimmed += s.Duration()
	}

	r.logger.Info().
		Int("spans_in", len(spans)).
		Int("spans_merged", len(padded)).
		Float64("original", originalDuration).
		Float64("trimmed", trimmed).
		Msg("narration duration resolved")

	return Resolution{
		Spans:            padded,
		OriginalDuration: originalDuration,
		TrimmedDuration:  trimmed,
		VoiceDetected:    true,
	}, nil
}

// mergeSpans joins spans whose gap is shorter than minSilence. Short
// natural pauses stay inside one span; only real silence separates
// spans.
func mergeSpans(spans []VoiceSpan, minSilence float64) []VoiceSpan {
	merged := []VoiceSpan{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.Start-last.End < minSilence {
			if s.End > last.End {
				last.End = s.End
			}
			if s.Confidence > last.Confidence {
				last.Confidence = s.Confidence
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// padSpans extends each span by the padding on both ends, clamped to
// the audio bounds, and re-merges any overlap the padding introduced.
func padSpans(spans []VoiceSpan, padding, totalDuration float64) []VoiceSpan {
	if padding == 0 {
		return spans
	}
	padded := make([]VoiceSpan, len(spans))
	for i, s := range spans {
		start := s.Start - padding
		if start < 0 {
			start = 0
		}
		end := s.End + padding
		if end > totalDuration {
			end = totalDuration
		}
		padded[i] = VoiceSpan{Start: start, End: end, Confidence: s.Confidence}
	}
	return mergeSpans(padded, 0)
}

// SpansFromSilences inverts detected silence periods into voice spans
// over [0, totalDuration]. Derived spans carry full confidence; the
// silence detector already applied its own noise floor.
func SpansFromSilences(silences []media.SilenceSegment, totalDuration float64) []VoiceSpan {
	if totalDuration <= 0 {
		return nil
	}

	sorted := make([]media.SilenceSegment, len(silences))
	copy(sorted, silences)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var spans []VoiceSpan
	cursor := 0.0
	for _, sil := range sorted {
		if sil.Start > cursor {
			spans = append(spans, VoiceSpan{Start: cursor, End: sil.Start, Confidence: 1.0})
		}
		if sil.End > cursor {
			cursor = sil.End
		}
	}
	if cursor < totalDuration {
		spans = append(spans, VoiceSpan{Start: cursor, End: totalDuration, Confidence: 1.0})
	}
	return spans
}
