package analysis

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelforge/internal/media"
)

func openFake(src *fakeSource) media.OpenSource {
	return func() (media.FrameSource, error) { return src, nil }
}

func TestGenerateFiltersNearBlackStaticSource(t *testing.T) {
	// A 10s near-black, zero-motion clip: every window must be
	// filtered and the candidate list comes back empty. The caller
	// turns that into the no-usable-content condition.
	src := newFakeSource(10, 10, func(int) (*media.Frame, error) {
		return uniformFrame(5), nil
	})

	gen := NewGenerator(zerolog.Nop(), DefaultGeneratorConfig())
	candidates, err := gen.Generate(context.Background(), openFake(src), 0, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("near-black static source produced %d candidates, want 0", len(candidates))
	}
}

func TestGenerateScoredAndSorted(t *testing.T) {
	src := newFakeSource(10, 10, func(index int) (*media.Frame, error) {
		return uniformFrame(uint8(30 + (index*13)%180)), nil
	})

	gen := NewGenerator(zerolog.Nop(), DefaultGeneratorConfig())
	candidates, err := gen.Generate(context.Background(), openFake(src), 0, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(candidates) == 0 {
		t.Fatal("moving bright source produced no candidates")
	}

	for i := 1; i < len(candidates); i++ {
		if candidates[i].CombinedScore() > candidates[i-1].CombinedScore() {
			t.Errorf("candidates not sorted by combined score at %d", i)
		}
	}
	for _, c := range candidates {
		if c.EndTime <= c.StartTime {
			t.Errorf("candidate has malformed range [%v,%v]", c.StartTime, c.EndTime)
		}
		if c.MotionScore < DefaultGeneratorConfig().DeadZoneThreshold {
			t.Errorf("dead-zone candidate survived the filter: motion %v", c.MotionScore)
		}
		if c.MinBrightness < DefaultGeneratorConfig().NearBlackThreshold {
			t.Errorf("near-black candidate survived the filter: min brightness %v", c.MinBrightness)
		}
		if len(c.Fingerprints) == 0 {
			t.Error("candidate carries no fingerprint")
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	frame := func(index int) (*media.Frame, error) {
		return uniformFrame(uint8(30 + (index*13)%180)), nil
	}

	gen := NewGenerator(zerolog.Nop(), DefaultGeneratorConfig())

	first, err := gen.Generate(context.Background(), openFake(newFakeSource(10, 10, frame)), 20, nil)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := gen.Generate(context.Background(), openFake(newFakeSource(10, 10, frame)), 20, nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different candidate lists")
	}
}

func TestGenerateWindowSecondsClamped(t *testing.T) {
	gen := NewGenerator(zerolog.Nop(), DefaultGeneratorConfig())

	tests := []struct {
		target float64
		want   float64
	}{
		{0, 3.0},   // no target: widest window
		{8, 1.5},   // 8/8 = 1.0 clamps up
		{18, 2.25}, // 18/8 = 2.25 in range
		{60, 3.0},  // 60/8 = 7.5 clamps down
	}
	for _, tt := range tests {
		if got := gen.WindowSeconds(tt.target); got != tt.want {
			t.Errorf("WindowSeconds(%v) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

type chanObserver struct {
	final chan struct{}
	total int
}

func (o *chanObserver) WindowsScored(done, total int) {
	if done == total {
		select {
		case o.final <- struct{}{}:
		default:
		}
	}
}

func TestGenerateReportsProgress(t *testing.T) {
	src := newFakeSource(10, 10, func(index int) (*media.Frame, error) {
		return uniformFrame(uint8(30 + (index*13)%180)), nil
	})

	obs := &chanObserver{final: make(chan struct{}, 1)}
	gen := NewGenerator(zerolog.Nop(), DefaultGeneratorConfig())
	if _, err := gen.Generate(context.Background(), openFake(src), 0, obs); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	select {
	case <-obs.final:
	case <-time.After(time.Second):
		t.Error("observer never saw the final progress checkpoint")
	}
}
