package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelforge/internal/analysis"
	"github.com/kikiluvv/reelforge/internal/assembly"
	"github.com/kikiluvv/reelforge/internal/config"
	"github.com/kikiluvv/reelforge/internal/media"
	"github.com/kikiluvv/reelforge/internal/narration"
	"github.com/kikiluvv/reelforge/internal/segment"
	"github.com/kikiluvv/reelforge/internal/variants"
)

// Pipeline wires the analysis, selection, matching, and assembly
// components together. Each run owns its own candidate list and
// accumulator; nothing is shared across concurrent runs except the
// executor, which only resolves binary paths.
type Pipeline struct {
	logger    zerolog.Logger
	cfg       *config.Config
	exec      *media.Executor
	generator *analysis.Generator
	selector  *variants.Selector
	matcher   *assembly.Matcher
	builder   *assembly.Builder
	resolver  *narration.Resolver
}

// New creates a pipeline from the application config.
func New(logger zerolog.Logger, cfg *config.Config) (*Pipeline, error) {
	exec, err := media.NewExecutor(logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProbePath, cfg.FFmpeg.Threads)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media executor: %w", err)
	}

	genCfg := analysis.GeneratorConfig{
		SamplesPerWindow:   cfg.Analysis.SamplesPerWindow,
		WindowOverlap:      cfg.Analysis.WindowOverlap,
		MinWindowSeconds:   cfg.Analysis.MinWindowSeconds,
		MaxWindowSeconds:   cfg.Analysis.MaxWindowSeconds,
		NearBlackThreshold: cfg.Analysis.NearBlackThreshold,
		DeadZoneThreshold:  cfg.Analysis.DeadZoneThreshold,
		Workers:            cfg.Concurrency,
	}
	selCfg := variants.SelectorConfig{
		Buckets:          cfg.Variants.Buckets,
		HammingThreshold: cfg.Variants.HammingThreshold,
		MinMotionFloor:   cfg.Variants.MinMotionFloor,
	}

	return &Pipeline{
		logger:    logger.With().Str("component", "pipeline").Logger(),
		cfg:       cfg,
		exec:      exec,
		generator: analysis.NewGenerator(logger, genCfg),
		selector:  variants.NewSelector(logger, selCfg),
		matcher:   assembly.NewMatcher(logger, assembly.MatcherConfig{MinConfidence: cfg.Matcher.MinConfidence}),
		builder:   assembly.NewBuilder(logger),
		resolver: narration.NewResolver(logger, narration.ResolverConfig{
			MinSilence:    cfg.Narration.MinSilence,
			Padding:       cfg.Narration.Padding,
			MinConfidence: cfg.Narration.MinConfidence,
		}),
	}, nil
}

// AnalyzeCandidates runs the full-source candidate scan and returns
// the scored, filtered, score-ordered candidate list.
func (p *Pipeline) AnalyzeCandidates(ctx context.Context, input string, targetDuration float64, obs analysis.ProgressObserver) (*CandidateReport, error) {
	p.logger.Info().Str("input", input).Msg("starting candidate analysis")

	info, err := p.exec.Probe(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to probe video: %w", err)
	}
	if info.Duration <= 0 {
		return nil, fmt.Errorf("source %s has zero duration: %w", input, segment.ErrNoUsableContent)
	}

	open := func() (media.FrameSource, error) {
		return p.exec.OpenFile(ctx, input)
	}

	candidates, err := p.generator.Generate(ctx, open, targetDuration, obs)
	if err != nil {
		return nil, fmt.Errorf("candidate scan failed: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("source %s produced no candidates: %w", input, segment.ErrNoUsableContent)
	}

	return &CandidateReport{
		RunID:          uuid.NewString(),
		Input:          input,
		SourceDuration: info.Duration,
		WindowSeconds:  p.generator.WindowSeconds(targetDuration),
		Candidates:     candidates,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// BuildVariants runs the single-source path end to end: candidate scan
// followed by multi-variant selection.
func (p *Pipeline) BuildVariants(ctx context.Context, input string, variantCount int, targetDuration float64, obs analysis.ProgressObserver) (*VariantSet, error) {
	report, err := p.AnalyzeCandidates(ctx, input, targetDuration, obs)
	if err != nil {
		return nil, err
	}

	selection, err := p.selector.Select(report.Candidates, variantCount, targetDuration, report.SourceDuration)
	if err != nil {
		return nil, fmt.Errorf("variant selection failed: %w", err)
	}

	if selection.ReusedSegments > 0 {
		p.logger.Warn().
			Int("reused_segments", selection.ReusedSegments).
			Msg("variants reuse footage; not enough distinct candidates")
	}

	return &VariantSet{
		RunID:     report.RunID,
		Input:     input,
		Selection: selection,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// AssembleScript runs the script-driven path: resolve the trimmed
// narration duration, match subtitle entries against the library, and
// build the timeline.
func (p *Pipeline) AssembleScript(ctx context.Context, in AssembleInput) (*Assembly, error) {
	if len(in.Entries) == 0 {
		return nil, fmt.Errorf("subtitle list is empty: %w", segment.ErrNoUsableContent)
	}
	if len(in.Library) == 0 {
		return nil, fmt.Errorf("segment library is empty: %w", segment.ErrNoUsableContent)
	}

	spans := in.Spans
	originalDuration := in.OriginalDuration

	if in.NarrationAudio != "" {
		if originalDuration <= 0 {
			info, err := p.exec.Probe(ctx, in.NarrationAudio)
			if err != nil {
				return nil, fmt.Errorf("failed to probe narration audio: %w", err)
			}
			originalDuration = info.Duration
		}
		if len(spans) == 0 {
			silences, err := p.exec.DetectSilence(ctx, in.NarrationAudio, p.cfg.Narration.NoiseThreshold, p.cfg.Narration.MinSilence)
			if err != nil {
				return nil, fmt.Errorf("failed to detect narration silence: %w", err)
			}
			spans = narration.SpansFromSilences(silences, originalDuration)
		}
	}
	if originalDuration <= 0 {
		return nil, fmt.Errorf("narration duration unknown: provide audio or an original duration")
	}

	resolution, err := p.resolver.Resolve(spans, originalDuration)
	if err != nil {
		return nil, fmt.Errorf("duration resolution failed: %w", err)
	}

	matches, err := p.matcher.Match(in.Entries, in.Library)
	if err != nil {
		return nil, fmt.Errorf("keyword matching failed: %w", err)
	}

	timeline, buildStats, err := p.builder.Build(in.Entries, matches, in.Library, resolution.TrimmedDuration)
	if err != nil {
		return nil, fmt.Errorf("timeline build failed: %w", err)
	}

	stats := AssemblyStats{
		UnmatchedEntries: buildStats.UnmatchedEntries,
		FallbackEntries:  buildStats.FallbackEntries,
		TailFillSeconds:  buildStats.TailFillSeconds,
		VoiceDetected:    resolution.VoiceDetected,
	}
	if stats.UnmatchedEntries > 0 {
		p.logger.Warn().
			Int("unmatched", stats.UnmatchedEntries).
			Msg("some subtitle entries use fallback footage")
	}

	return &Assembly{
		RunID:      uuid.NewString(),
		Resolution: resolution,
		Matches:    matches,
		Timeline:   timeline,
		Stats:      stats,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// LoadSubtitles reads a JSON array of subtitle entries produced by an
// external subtitle generator.
func LoadSubtitles(path string) ([]segment.SubtitleEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}
	var entries []segment.SubtitleEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse subtitles: %w", err)
	}
	return entries, nil
}

// LoadVoiceSpans reads a JSON array of externally detected
// voice-activity spans.
func LoadVoiceSpans(path string) ([]narration.VoiceSpan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read voice spans: %w", err)
	}
	var spans []narration.VoiceSpan
	if err := json.Unmarshal(data, &spans); err != nil {
		return nil, fmt.Errorf("parse voice spans: %w", err)
	}
	return spans, nil
}

// WriteManifest writes a run manifest as indented JSON.
func WriteManifest(path string, manifest any) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
