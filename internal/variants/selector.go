package variants

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelforge/internal/analysis"
	"github.com/kikiluvv/reelforge/internal/segment"
)

// SelectorConfig tunes the multi-variant diversity algorithm.
type SelectorConfig struct {
	// Buckets is the number of time-ordered buckets remainder
	// candidates are spread across.
	Buckets int
	// HammingThreshold is the fingerprint distance, in bits, under
	// which two frames count as visually similar.
	HammingThreshold int
	// MinMotionFloor rejects static filler. Stricter than the
	// generator's dead-zone threshold.
	MinMotionFloor float64
}

// DefaultSelectorConfig returns the selection thresholds tuned for
// short vertical clips.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		Buckets:          5,
		HammingThreshold: 12,
		MinMotionFloor:   0.02,
	}
}

// Variant is one complete alternative edit: a chronological sequence
// of non-overlapping, visually distinct segments summing to at least
// the target duration when enough candidates exist.
type Variant struct {
	Index    int                    `json:"index"`
	Segments []segment.VideoSegment `json:"segments"`
}

// TotalDuration sums the variant's segment durations.
func (v Variant) TotalDuration() float64 {
	var total float64
	for _, s := range v.Segments {
		total += s.Duration()
	}
	return total
}

// Selection is the result of a variant-selection run. ReusedSegments
// counts cross-variant footage reuse, which is degraded-but-successful
// behavior the orchestrator may warn about, never an error.
type Selection struct {
	Variants        []Variant `json:"variants"`
	ReusedSegments  int       `json:"reused_segments"`
	TargetDuration  float64   `json:"target_duration"`
	SourceDuration  float64   `json:"source_duration"`
	CandidatesTotal int       `json:"candidates_total"`
}

// Selector builds N distinct edits from one candidate list.
type Selector struct {
	logger zerolog.Logger
	cfg    SelectorConfig
}

// NewSelector creates a variant selector.
func NewSelector(logger zerolog.Logger, cfg SelectorConfig) *Selector {
	if cfg.Buckets <= 0 {
		cfg.Buckets = 5
	}
	return &Selector{
		logger: logger.With().Str("component", "variant-selector").Logger(),
		cfg:    cfg,
	}
}

// Select partitions the source timeline into one zone per variant,
// anchors each variant's opening segment in its zone, and fills the
// remainder round-robin from time-ordered buckets so selections spread
// across the timeline instead of clustering near the top-scored
// region.
//
// Candidates must arrive sorted by combined score descending (the
// generator's contract). The run is fully deterministic: identical
// inputs produce identical variants.
func (s *Selector) Select(candidates []segment.VideoSegment, variantCount int, targetDuration, sourceDuration float64) (*Selection, error) {
	if variantCount <= 0 {
		return nil, fmt.Errorf("variant count must be positive, got %d", variantCount)
	}
	if targetDuration <= 0 {
		return nil, fmt.Errorf("target duration must be positive, got %.3f", targetDuration)
	}
	if sourceDuration <= 0 {
		return nil, fmt.Errorf("source duration must be positive, got %.3f", sourceDuration)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("candidate list is empty: %w", segment.ErrNoUsableContent)
	}

	sel := &Selection{
		TargetDuration:  targetDuration,
		SourceDuration:  sourceDuration,
		CandidatesTotal: len(candidates),
	}

	// Footage used by any variant so far; reuse is the degraded path
	// when candidates run short.
	usedGlobal := make([]bool, len(candidates))
	zoneLen := sourceDuration / float64(variantCount)

	for vi := 0; vi < variantCount; vi++ {
		zoneStart := float64(vi) * zoneLen

		state := &variantState{
			candidates: candidates,
			inVariant:  make([]bool, len(candidates)),
		}

		opening, reused := s.pickOpening(candidates, usedGlobal, zoneStart, zoneStart+zoneLen)
		if reused {
			sel.ReusedSegments++
		}
		state.take(opening)
		usedGlobal[opening] = true

		reusedFill := s.fillRemainder(state, usedGlobal, targetDuration, sourceDuration)
		sel.ReusedSegments += reusedFill
		for _, idx := range state.order {
			usedGlobal[idx] = true
		}

		variant := Variant{Index: vi, Segments: state.segments()}
		segment.SortChronological(variant.Segments)
		sel.Variants = append(sel.Variants, variant)

		s.logger.Debug().
			Int("variant", vi).
			Int("segments", len(variant.Segments)).
			Float64("duration", variant.TotalDuration()).
			Msg("variant assembled")
	}

	s.logger.Info().
		Int("variants", len(sel.Variants)).
		Int("reused_segments", sel.ReusedSegments).
		Msg("variant selection complete")

	return sel, nil
}

// pickOpening chooses the highest-scoring candidate whose start falls
// inside the zone. Score ties break toward the candidate closer to the
// zone's natural position. An empty zone falls back to the first
// candidate unused by any variant, and failing that to plain reuse.
func (s *Selector) pickOpening(candidates []segment.VideoSegment, usedGlobal []bool, zoneStart, zoneEnd float64) (idx int, reused bool) {
	best := -1
	for i, c := range candidates {
		if c.StartTime < zoneStart || c.StartTime >= zoneEnd {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		// The list is score-sorted, so only exact ties can displace an
		// earlier pick.
		if candidates[i].CombinedScore() == candidates[best].CombinedScore() &&
			math.Abs(c.StartTime-zoneStart) < math.Abs(candidates[best].StartTime-zoneStart) {
			best = i
		}
	}
	if best >= 0 {
		return best, usedGlobal[best]
	}

	// Zone has no candidates: first unused from the full list. Two
	// variants may end up opening on similar footage here; that
	// trade-off is deliberate.
	for i := range candidates {
		if !usedGlobal[i] {
			return i, false
		}
	}
	return 0, true
}

// fillRemainder consumes candidates round-robin across time-ordered
// buckets until the variant covers the target duration. It prefers
// footage unused by other variants and falls back to reuse only when
// the unused pool cannot close the gap. Returns the reuse count.
func (s *Selector) fillRemainder(state *variantState, usedGlobal []bool, targetDuration, sourceDuration float64) int {
	buckets := s.bucketize(state.candidates, sourceDuration)
	reused := 0
	allowReuse := false

	for state.duration < targetDuration {
		picked := false
		for _, bucket := range buckets {
			if state.duration >= targetDuration {
				break
			}
			idx := s.nextAcceptable(state, bucket, usedGlobal, allowReuse)
			if idx < 0 {
				continue
			}
			if usedGlobal[idx] {
				reused++
			}
			state.take(idx)
			picked = true
		}
		if !picked {
			if !allowReuse {
				allowReuse = true
				continue
			}
			// Nothing acceptable even with reuse; accept the
			// shortfall rather than fail.
			break
		}
	}
	return reused
}

// bucketize splits candidate indices into time-ordered buckets
// spanning the whole source, preserving score order within each
// bucket.
func (s *Selector) bucketize(candidates []segment.VideoSegment, sourceDuration float64) [][]int {
	buckets := make([][]int, s.cfg.Buckets)
	bucketLen := sourceDuration / float64(s.cfg.Buckets)
	for i, c := range candidates {
		b := int(c.StartTime / bucketLen)
		if b >= s.cfg.Buckets {
			b = s.cfg.Buckets - 1
		}
		if b < 0 {
			b = 0
		}
		buckets[b] = append(buckets[b], i)
	}
	return buckets
}

// nextAcceptable returns the first candidate in the bucket that is not
// already in the variant, does not overlap or visually duplicate a
// selected segment, and clears the motion floor. Returns -1 when the
// bucket has nothing usable.
func (s *Selector) nextAcceptable(state *variantState, bucket []int, usedGlobal []bool, allowReuse bool) int {
	for _, idx := range bucket {
		if state.inVariant[idx] {
			continue
		}
		if !allowReuse && usedGlobal[idx] {
			continue
		}
		c := state.candidates[idx]
		if c.MotionScore < s.cfg.MinMotionFloor {
			continue
		}
		if state.conflicts(c, s.cfg.HammingThreshold) {
			continue
		}
		return idx
	}
	return -1
}

// variantState accumulates one variant's selections.
type variantState struct {
	candidates []segment.VideoSegment
	inVariant  []bool
	order      []int
	duration   float64
}

func (v *variantState) take(idx int) {
	v.inVariant[idx] = true
	v.order = append(v.order, idx)
	v.duration += v.candidates[idx].Duration()
}

func (v *variantState) conflicts(c segment.VideoSegment, hammingThreshold int) bool {
	for _, idx := range v.order {
		sel := v.candidates[idx]
		if c.Overlaps(sel) {
			return true
		}
		if analysis.SimilarFingerprints(c.Fingerprints, sel.Fingerprints, hammingThreshold) {
			return true
		}
	}
	return false
}

func (v *variantState) segments() []segment.VideoSegment {
	out := make([]segment.VideoSegment, 0, len(v.order))
	for _, idx := range v.order {
		out = append(out, v.candidates[idx])
	}
	return out
}
