package analysis

import (
	"context"

	"github.com/kikiluvv/reelforge/internal/media"
)

// WindowScores holds the raw per-window measurements before they are
// packed into a candidate segment. All values are normalized to [0,1].
type WindowScores struct {
	Motion        float64
	Variance      float64
	AvgBrightness float64
	MinBrightness float64
	Fingerprint   uint64
	SampledFrames int
}

// DeadZone reports whether the window produced no usable samples.
// Such windows get default zero scores and are excluded rather than
// aborting the whole scan.
func (w WindowScores) DeadZone() bool {
	return w.SampledFrames == 0
}

// ScoreWindow samples the given frame window at evenly spaced
// positions and measures motion, content variance, and brightness.
// Individual frames that fail to decode are skipped; a window where
// nothing decodes comes back as a dead zone, not an error.
//
// Pure function of source + window: no state survives the call.
func ScoreWindow(ctx context.Context, src media.FrameSource, startFrame, endFrame, samples int) WindowScores {
	if samples < 2 {
		samples = 2
	}
	span := endFrame - startFrame
	if span <= 0 {
		return WindowScores{}
	}

	frames := make([]*media.Frame, 0, samples)
	for i := 0; i < samples; i++ {
		idx := startFrame
		if samples > 1 {
			idx = startFrame + i*(span-1)/(samples-1)
		}
		frame, err := src.ReadFrame(ctx, idx)
		if err != nil {
			continue // skip this sample
		}
		frames = append(frames, boxBlur(frame))
	}
	if len(frames) == 0 {
		return WindowScores{}
	}

	scores := WindowScores{SampledFrames: len(frames)}

	// Motion: mean absolute difference between consecutive samples.
	if len(frames) >= 2 {
		var total float64
		for i := 1; i < len(frames); i++ {
			total += meanAbsDiff(frames[i-1], frames[i])
		}
		scores.Motion = total / float64(len(frames)-1) / 255.0
	}

	// Variance: pairwise differences among first, middle, and last
	// sample. Separates evolving content from a static shot that only
	// jitters between neighbors.
	first := frames[0]
	middle := frames[len(frames)/2]
	last := frames[len(frames)-1]
	scores.Variance = (meanAbsDiff(first, middle) +
		meanAbsDiff(first, last) +
		meanAbsDiff(middle, last)) / 3.0 / 255.0

	// Brightness: average intensity, and the darkest sample for the
	// near-black filter.
	scores.MinBrightness = 1.0
	var sum float64
	for _, f := range frames {
		b := meanIntensity(f) / 255.0
		sum += b
		if b < scores.MinBrightness {
			scores.MinBrightness = b
		}
	}
	scores.AvgBrightness = sum / float64(len(frames))

	scores.Fingerprint = Fingerprint(middle.Gray())

	return scores
}

// boxBlur applies a 3x3 box filter. Smoothing before differencing
// keeps sensor noise and compression artifacts out of the motion
// measurement.
func boxBlur(f *media.Frame) *media.Frame {
	w, h := f.Width, f.Height
	out := &media.Frame{Pix: make([]uint8, w*h), Width: w, Height: h}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum, n int
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					yy, xx := y+dy, x+dx
					if yy < 0 || yy >= h || xx < 0 || xx >= w {
						continue
					}
					sum += int(f.Pix[yy*w+xx])
					n++
				}
			}
			out.Pix[y*w+x] = uint8(sum / n)
		}
	}
	return out
}

func meanAbsDiff(a, b *media.Frame) float64 {
	n := len(a.Pix)
	if len(b.Pix) < n {
		n = len(b.Pix)
	}
	if n == 0 {
		return 0
	}
	var total int64
	for i := 0; i < n; i++ {
		d := int64(a.Pix[i]) - int64(b.Pix[i])
		if d < 0 {
			d = -d
		}
		total += d
	}
	return float64(total) / float64(n)
}

func meanIntensity(f *media.Frame) float64 {
	if len(f.Pix) == 0 {
		return 0
	}
	var total int64
	for _, p := range f.Pix {
		total += int64(p)
	}
	return float64(total) / float64(len(f.Pix))
}
