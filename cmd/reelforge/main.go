package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/reelforge/internal/config"
	"github.com/kikiluvv/reelforge/internal/library"
	"github.com/kikiluvv/reelforge/internal/logging"
	"github.com/kikiluvv/reelforge/internal/pipeline"
	"github.com/kikiluvv/reelforge/pkg/util"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reelforge",
	Short: "reelforge - script-driven short-clip assembly",
	Long:  "Analyzes raw footage for engaging moments, cuts distinct variant edits, and assembles keyword-matched timelines synced to narration.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; flags and config file win over it.
		_ = godotenv.Load()

		logging.Init(verbose)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./reelforge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(variantsCmd)
	rootCmd.AddCommand(assembleCmd)
	rootCmd.AddCommand(configCmd)
}

var (
	targetDuration float64
	outPath        string
	variantCount   int

	subtitlesPath string
	libraryPath   string
	audioPath     string
	spansPath     string
	audioDuration float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [input video]",
	Short: "Scan a source video and report scored candidate segments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		report, err := pipe.AnalyzeCandidates(cmd.Context(), args[0], targetDuration, logObserver{})
		if err != nil {
			return err
		}

		out := outPath
		if out == "" {
			out = filepath.Join(cfg.WorkDir, report.RunID+"-candidates.json")
		}
		if err := util.EnsureDir(filepath.Dir(out)); err != nil {
			return err
		}
		if err := pipeline.WriteManifest(out, report); err != nil {
			return err
		}

		log.Info().
			Int("candidates", len(report.Candidates)).
			Str("manifest", out).
			Msg("analysis complete")
		return nil
	},
}

var variantsCmd = &cobra.Command{
	Use:   "variants [input video]",
	Short: "Build N distinct variant edits from one source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		count := variantCount
		if count <= 0 {
			count = cfg.Variants.Count
		}

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		set, err := pipe.BuildVariants(cmd.Context(), args[0], count, targetDuration, logObserver{})
		if err != nil {
			return err
		}

		out := outPath
		if out == "" {
			out = filepath.Join(cfg.WorkDir, set.RunID+"-variants.json")
		}
		if err := util.EnsureDir(filepath.Dir(out)); err != nil {
			return err
		}
		if err := pipeline.WriteManifest(out, set); err != nil {
			return err
		}

		log.Info().
			Int("variants", len(set.Selection.Variants)).
			Int("reused_segments", set.Selection.ReusedSegments).
			Str("manifest", out).
			Msg("variant build complete")
		return nil
	},
}

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble a keyword-matched timeline from a subtitle script and footage library",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		if subtitlesPath == "" || libraryPath == "" {
			return fmt.Errorf("--subtitles and --library are required")
		}

		entries, err := pipeline.LoadSubtitles(subtitlesPath)
		if err != nil {
			return err
		}
		cat, err := library.Load(libraryPath)
		if err != nil {
			return err
		}

		in := pipeline.AssembleInput{
			Entries:          entries,
			Library:          cat.Segments,
			NarrationAudio:   audioPath,
			OriginalDuration: audioDuration,
		}
		if spansPath != "" {
			spans, err := pipeline.LoadVoiceSpans(spansPath)
			if err != nil {
				return err
			}
			in.Spans = spans
		}

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		asm, err := pipe.AssembleScript(cmd.Context(), in)
		if err != nil {
			return err
		}

		out := outPath
		if out == "" {
			out = filepath.Join(cfg.WorkDir, asm.RunID+"-timeline.json")
		}
		if err := util.EnsureDir(filepath.Dir(out)); err != nil {
			return err
		}
		if err := pipeline.WriteManifest(out, asm); err != nil {
			return err
		}

		log.Info().
			Int("entries", len(asm.Timeline)).
			Float64("duration", asm.Resolution.TrimmedDuration).
			Int("unmatched", asm.Stats.UnmatchedEntries).
			Str("manifest", out).
			Msg("assembly complete")
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Float64Var(&targetDuration, "target", 0, "target clip duration in seconds (shapes the analysis window)")
	analyzeCmd.Flags().StringVar(&outPath, "out", "", "manifest output path")

	variantsCmd.Flags().Float64Var(&targetDuration, "target", 30, "target duration per variant in seconds")
	variantsCmd.Flags().IntVar(&variantCount, "count", 0, "number of variants (default from config)")
	variantsCmd.Flags().StringVar(&outPath, "out", "", "manifest output path")

	assembleCmd.Flags().StringVar(&subtitlesPath, "subtitles", "", "subtitle entries JSON")
	assembleCmd.Flags().StringVar(&libraryPath, "library", "", "footage library catalog YAML")
	assembleCmd.Flags().StringVar(&audioPath, "audio", "", "narration audio for silence-aware trimming")
	assembleCmd.Flags().StringVar(&spansPath, "spans", "", "externally detected voice-activity spans JSON")
	assembleCmd.Flags().Float64Var(&audioDuration, "duration", 0, "untrimmed narration duration in seconds (probed from --audio when omitted)")
	assembleCmd.Flags().StringVar(&outPath, "out", "", "manifest output path")
}

// logObserver logs scan progress at coarse granularity.
type logObserver struct{}

func (logObserver) WindowsScored(done, total int) {
	log.Debug().Int("done", done).Int("total", total).Msg("windows scored")
}
