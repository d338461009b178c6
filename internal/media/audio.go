package media

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// SilenceSegment is a period of silence detected in an audio track.
type SilenceSegment struct {
	Start    float64
	End      float64
	Duration float64
}

// DetectSilence runs ffmpeg's silencedetect filter over the input and
// parses the detected silence periods from its stderr log. The caller
// inverts these into voice-activity spans.
func (e *Executor) DetectSilence(ctx context.Context, input string, noiseThreshold float64, minDuration float64) ([]SilenceSegment, error) {
	e.logger.Info().
		Str("input", input).
		Float64("noise_threshold", noiseThreshold).
		Float64("min_duration", minDuration).
		Msg("detecting silence")

	var stderrBuf bytes.Buffer
	var mu sync.Mutex

	opts := RunOptions{
		Args: []string{
			"-i", input,
			"-af", fmt.Sprintf("silencedetect=noise=%.6fdB:d=%.6f", noiseThreshold, minDuration),
			"-f", "null",
			"-",
		},
		LogHandler: func(line string) {
			mu.Lock()
			stderrBuf.WriteString(line + "\n")
			mu.Unlock()
		},
	}

	err := e.Run(ctx, opts)

	mu.Lock()
	output := stderrBuf.String()
	mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Null-muxer runs report conversion noise even when the filter
		// log is complete; only real failures propagate.
		if !strings.Contains(err.Error(), "Conversion failed") &&
			!strings.Contains(err.Error(), "Invalid return value") &&
			!strings.Contains(err.Error(), "Output file is empty") {
			return nil, fmt.Errorf("silence detection failed: %w", err)
		}
	}

	if output == "" {
		return nil, fmt.Errorf("silence detection produced no output")
	}

	segments := parseSilenceOutput(output)
	e.logger.Info().Int("silences", len(segments)).Msg("silence detection complete")
	return segments, nil
}

// parseSilenceOutput extracts silence segments from ffmpeg filter log
// lines of the form "silence_start: T" / "silence_end: T | silence_duration: D".
func parseSilenceOutput(output string) []SilenceSegment {
	var segments []SilenceSegment
	var currentStart float64

	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.Contains(line, "silence_start:"):
			parts := strings.Split(line, "silence_start:")
			if len(parts) == 2 {
				currentStart, _ = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			}
		case strings.Contains(line, "silence_end:"):
			parts := strings.Split(line, "silence_end:")
			if len(parts) != 2 {
				continue
			}
			fields := strings.Fields(strings.TrimSpace(parts[1]))
			if len(fields) == 0 {
				continue
			}
			end, _ := strconv.ParseFloat(fields[0], 64)

			var duration float64
			if durParts := strings.Split(line, "silence_duration:"); len(durParts) == 2 {
				duration, _ = strconv.ParseFloat(strings.TrimSpace(durParts[1]), 64)
			} else {
				duration = end - currentStart
			}

			segments = append(segments, SilenceSegment{
				Start:    currentStart,
				End:      end,
				Duration: duration,
			})
		}
	}

	return segments
}
