package variants

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelforge/internal/segment"
)

// spread builds a candidate field of 2s segments spaced across the
// source, already sorted by combined score descending as the generator
// guarantees. Fingerprints are omitted so similarity never rejects;
// similarity has its own test.
func spread(starts []float64, motion float64) []segment.VideoSegment {
	segs := make([]segment.VideoSegment, 0, len(starts))
	for _, s := range starts {
		segs = append(segs, segment.VideoSegment{
			StartTime:     s,
			EndTime:       s + 2,
			MotionScore:   motion,
			VarianceScore: 0.5,
			AvgBrightness: 0.5,
		})
	}
	segment.SortByScore(segs)
	return segs
}

func newTestSelector() *Selector {
	return NewSelector(zerolog.Nop(), DefaultSelectorConfig())
}

func TestSelectNonOverlapAndCoverage(t *testing.T) {
	starts := []float64{0, 3, 6, 9, 12, 15, 18, 21, 24, 27, 30, 33, 36, 39, 42, 45, 48, 51, 54, 57}
	candidates := spread(starts, 0.5)

	sel, err := newTestSelector().Select(candidates, 3, 6, 60)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(sel.Variants) != 3 {
		t.Fatalf("got %d variants, want 3", len(sel.Variants))
	}

	for _, v := range sel.Variants {
		if len(v.Segments) == 0 {
			t.Fatalf("variant %d is empty", v.Index)
		}

		// Non-overlap within the variant.
		for i := 0; i < len(v.Segments); i++ {
			for j := i + 1; j < len(v.Segments); j++ {
				if v.Segments[i].Overlaps(v.Segments[j]) {
					t.Errorf("variant %d: segments %d and %d overlap", v.Index, i, j)
				}
			}
		}

		// Chronological order.
		for i := 1; i < len(v.Segments); i++ {
			if v.Segments[i].StartTime < v.Segments[i-1].StartTime {
				t.Errorf("variant %d not chronological at %d", v.Index, i)
			}
		}

		// Coverage: within one segment's slack of the target.
		if v.TotalDuration() < 6-2 {
			t.Errorf("variant %d covers %.2fs, want >= 4s", v.Index, v.TotalDuration())
		}
	}
}

func TestSelectVariantsOpenInOwnZones(t *testing.T) {
	starts := []float64{0, 3, 6, 9, 12, 15, 18, 21, 24, 27, 30, 33, 36, 39, 42, 45, 48, 51, 54, 57}
	candidates := spread(starts, 0.5)

	sel, err := newTestSelector().Select(candidates, 3, 4, 60)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	zoneLen := 60.0 / 3.0
	for _, v := range sel.Variants {
		opening := v.Segments[0]
		zoneStart := float64(v.Index) * zoneLen
		if opening.StartTime < zoneStart || opening.StartTime >= zoneStart+zoneLen {
			t.Errorf("variant %d opens at %.1f, outside zone [%.1f,%.1f)",
				v.Index, opening.StartTime, zoneStart, zoneStart+zoneLen)
		}
	}
}

func TestSelectDeterministic(t *testing.T) {
	starts := []float64{0, 3, 6, 9, 12, 15, 18, 21, 24, 27}
	candidates := spread(starts, 0.5)

	first, err := newTestSelector().Select(candidates, 3, 6, 30)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := newTestSelector().Select(candidates, 3, 6, 30)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different selections")
	}
}

func TestSelectClusteredCandidatesNeverYieldEmptyVariant(t *testing.T) {
	// All candidates in the first 5s of a 20s source; variants 2-4
	// have empty zones and must fall back to unused candidates, never
	// come back empty.
	starts := []float64{0, 0.5, 1, 1.5, 2, 2.5, 3}
	candidates := spread(starts, 0.5)

	sel, err := newTestSelector().Select(candidates, 4, 4, 20)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(sel.Variants) != 4 {
		t.Fatalf("got %d variants, want 4", len(sel.Variants))
	}
	for _, v := range sel.Variants {
		if len(v.Segments) == 0 {
			t.Errorf("variant %d is empty; expected fallback reuse", v.Index)
		}
	}
}

func TestSelectRejectsVisualDuplicates(t *testing.T) {
	// Two non-overlapping candidates with identical fingerprints: one
	// variant must keep only one of them.
	dup := uint64(0xABCDEF0123456789)
	candidates := []segment.VideoSegment{
		{StartTime: 0, EndTime: 2, MotionScore: 0.5, VarianceScore: 0.5, AvgBrightness: 0.5, Fingerprints: []uint64{dup}},
		{StartTime: 10, EndTime: 12, MotionScore: 0.5, VarianceScore: 0.5, AvgBrightness: 0.5, Fingerprints: []uint64{dup}},
	}

	sel, err := newTestSelector().Select(candidates, 1, 4, 20)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got := len(sel.Variants[0].Segments); got != 1 {
		t.Errorf("variant kept %d visually identical segments, want 1", got)
	}
}

func TestSelectRejectsStaticFiller(t *testing.T) {
	// Opening is anchored in the zone; remainder candidates below the
	// motion floor must not be used as filler.
	candidates := []segment.VideoSegment{
		{StartTime: 0, EndTime: 2, MotionScore: 0.5, VarianceScore: 0.5, AvgBrightness: 0.5},
		{StartTime: 5, EndTime: 7, MotionScore: 0.01, VarianceScore: 0.5, AvgBrightness: 0.5},
	}
	segment.SortByScore(candidates)

	sel, err := newTestSelector().Select(candidates, 1, 10, 20)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	for _, s := range sel.Variants[0].Segments[1:] {
		if s.MotionScore < DefaultSelectorConfig().MinMotionFloor {
			t.Errorf("static filler selected: motion %v", s.MotionScore)
		}
	}
}

func TestSelectStructuralErrors(t *testing.T) {
	candidates := spread([]float64{0, 3}, 0.5)
	s := newTestSelector()

	if _, err := s.Select(candidates, 0, 6, 30); err == nil {
		t.Error("zero variants should be rejected")
	}
	if _, err := s.Select(candidates, 2, 0, 30); err == nil {
		t.Error("zero target duration should be rejected")
	}
	if _, err := s.Select(candidates, 2, 6, 0); err == nil {
		t.Error("zero source duration should be rejected")
	}

	_, err := s.Select(nil, 2, 6, 30)
	if !errors.Is(err, segment.ErrNoUsableContent) {
		t.Errorf("empty candidates: got %v, want ErrNoUsableContent", err)
	}
}

func TestSelectCountsReuse(t *testing.T) {
	// One candidate, three variants: later variants must reuse it.
	candidates := spread([]float64{1}, 0.5)

	sel, err := newTestSelector().Select(candidates, 3, 2, 30)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if sel.ReusedSegments == 0 {
		t.Error("reuse went uncounted with fewer candidates than variants")
	}
	for _, v := range sel.Variants {
		if len(v.Segments) == 0 {
			t.Errorf("variant %d empty despite available candidate", v.Index)
		}
	}
}
