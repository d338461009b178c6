package analysis

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kikiluvv/reelforge/internal/media"
	"github.com/kikiluvv/reelforge/internal/segment"
)

// GeneratorConfig configures the sliding-window candidate scan.
type GeneratorConfig struct {
	// SamplesPerWindow is how many frames are scored per window.
	SamplesPerWindow int
	// WindowOverlap is the fraction of a window shared with its
	// successor, in [0,1).
	WindowOverlap float64
	// MinWindowSeconds / MaxWindowSeconds clamp the window duration
	// derived from the target duration.
	MinWindowSeconds float64
	MaxWindowSeconds float64
	// NearBlackThreshold drops windows whose darkest sample falls
	// below it.
	NearBlackThreshold float64
	// DeadZoneThreshold drops windows whose motion score falls below
	// it.
	DeadZoneThreshold float64
	// Workers is the scoring pool size; each worker owns its own
	// decode handle.
	Workers int
}

// DefaultGeneratorConfig returns the thresholds tuned for short
// vertical clips.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		SamplesPerWindow:   15,
		WindowOverlap:      0.4,
		MinWindowSeconds:   1.5,
		MaxWindowSeconds:   3.0,
		NearBlackThreshold: 0.08,
		DeadZoneThreshold:  0.008,
		Workers:            4,
	}
}

// ProgressObserver receives coarse-grained scan progress. Checkpoints
// fire at most every progressStride windows and never from the scoring
// hot path; an observer is never required for correctness.
type ProgressObserver interface {
	WindowsScored(done, total int)
}

const progressStride = 10

// Generator slides a scoring window across a whole source and emits
// filtered candidates.
type Generator struct {
	logger zerolog.Logger
	cfg    GeneratorConfig
}

// NewGenerator creates a candidate generator.
func NewGenerator(logger zerolog.Logger, cfg GeneratorConfig) *Generator {
	if cfg.SamplesPerWindow <= 0 {
		cfg.SamplesPerWindow = 15
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.WindowOverlap < 0 || cfg.WindowOverlap >= 1 {
		cfg.WindowOverlap = 0.4
	}
	return &Generator{
		logger: logger.With().Str("component", "candidate-generator").Logger(),
		cfg:    cfg,
	}
}

// WindowSeconds derives the analysis window duration from the target
// clip duration, clamped to the configured range.
func (g *Generator) WindowSeconds(targetDuration float64) float64 {
	dur := g.cfg.MaxWindowSeconds
	if targetDuration > 0 {
		dur = targetDuration / 8
	}
	if dur < g.cfg.MinWindowSeconds {
		dur = g.cfg.MinWindowSeconds
	}
	if dur > g.cfg.MaxWindowSeconds {
		dur = g.cfg.MaxWindowSeconds
	}
	return dur
}

// Generate scans the full source and returns surviving candidates
// sorted by combined score descending. That ordering is the contract
// the variant selector relies on. An empty result is not an error;
// the caller decides whether no candidates means no usable content.
func (g *Generator) Generate(ctx context.Context, open media.OpenSource, targetDuration float64, obs ProgressObserver) ([]segment.VideoSegment, error) {
	probe, err := open()
	if err != nil {
		return nil, err
	}
	info := probe.Info()
	if err := probe.Close(); err != nil {
		return nil, err
	}

	if info.FPS <= 0 || info.FrameCount <= 0 || info.Duration <= 0 {
		return nil, fmt.Errorf("source %s: %w", info.FilePath, segment.ErrNoUsableContent)
	}

	windowSec := g.WindowSeconds(targetDuration)
	windowFrames := int(windowSec * info.FPS)
	if windowFrames < 2 {
		windowFrames = 2
	}
	stepFrames := int(float64(windowFrames) * (1 - g.cfg.WindowOverlap))
	if stepFrames < 1 {
		stepFrames = 1
	}

	type window struct {
		index      int
		startFrame int
		endFrame   int
	}
	var windows []window
	for start := 0; start+windowFrames <= info.FrameCount; start += stepFrames {
		windows = append(windows, window{
			index:      len(windows),
			startFrame: start,
			endFrame:   start + windowFrames,
		})
	}

	g.logger.Info().
		Str("source", info.FilePath).
		Int("windows", len(windows)).
		Float64("window_sec", windowSec).
		Int("workers", g.cfg.Workers).
		Msg("starting candidate scan")

	if len(windows) == 0 {
		return nil, nil
	}

	// One decode handle per worker; results land in per-index slots
	// so no lock guards the slice.
	results := make([]WindowScores, len(windows))
	work := make(chan window)
	var scored atomic.Int64

	eg, egCtx := errgroup.WithContext(ctx)
	for w := 0; w < g.cfg.Workers; w++ {
		eg.Go(func() error {
			src, err := open()
			if err != nil {
				return err
			}
			defer src.Close()

			for win := range work {
				results[win.index] = ScoreWindow(egCtx, src, win.startFrame, win.endFrame, g.cfg.SamplesPerWindow)

				done := int(scored.Add(1))
				if obs != nil && done%progressStride == 0 {
					// Fire and forget; a slow observer must not stall
					// the scan.
					go obs.WindowsScored(done, len(windows))
				}
			}
			return nil
		})
	}

	eg.Go(func() error {
		defer close(work)
		for _, win := range windows {
			select {
			case work <- win:
			case <-egCtx.Done():
				return egCtx.Err()
			}
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var candidates []segment.VideoSegment
	dropped := 0
	for i, scores := range results {
		if scores.DeadZone() ||
			scores.MinBrightness < g.cfg.NearBlackThreshold ||
			scores.Motion < g.cfg.DeadZoneThreshold {
			dropped++
			continue
		}
		candidates = append(candidates, segment.VideoSegment{
			StartTime:     float64(windows[i].startFrame) / info.FPS,
			EndTime:       float64(windows[i].endFrame) / info.FPS,
			MotionScore:   scores.Motion,
			VarianceScore: scores.Variance,
			AvgBrightness: scores.AvgBrightness,
			MinBrightness: scores.MinBrightness,
			Fingerprints:  []uint64{scores.Fingerprint},
		})
	}

	segment.SortByScore(candidates)

	if obs != nil {
		go obs.WindowsScored(len(windows), len(windows))
	}

	g.logger.Info().
		Int("candidates", len(candidates)).
		Int("dropped", dropped).
		Msg("candidate scan complete")

	return candidates, nil
}
