package media

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/kikiluvv/reelforge/internal/segment"
)

// Analysis frames are decoded at a fixed small size. Scoring compares
// pixel statistics, not detail, so a thumbnail is enough and keeps
// decode cost flat regardless of source resolution.
const (
	AnalysisWidth  = 160
	AnalysisHeight = 90
)

// Frame is a single grayscale snapshot, row-major, one byte per pixel.
type Frame struct {
	Pix    []uint8
	Width  int
	Height int
}

// Gray converts the frame to an image.Gray for code that works on the
// standard image types (fingerprinting, resize).
func (f *Frame) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	copy(img.Pix, f.Pix)
	return img
}

// FrameSource reads individual grayscale frames from a video by frame
// index. Implementations are not safe for concurrent reads; the
// analysis worker pool opens one source per worker.
type FrameSource interface {
	Info() SourceInfo
	ReadFrame(ctx context.Context, index int) (*Frame, error)
	Close() error
}

// OpenSource is a factory for frame sources, letting each analysis
// worker own its decode handle.
type OpenSource func() (FrameSource, error)

// fileSource decodes frames from a video file through ffmpeg. Each
// read seeks to the frame's timestamp and extracts one downscaled
// grayscale frame as rawvideo. A mutex serializes seek+read so a
// shared handle never interleaves two decodes.
type fileSource struct {
	exec *Executor
	info SourceInfo

	mu sync.Mutex
}

// OpenFile probes a video file and returns a frame source over it.
func (e *Executor) OpenFile(ctx context.Context, filePath string) (FrameSource, error) {
	info, err := e.Probe(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", filePath, err)
	}
	if info.Duration <= 0 || info.FrameCount <= 0 {
		return nil, fmt.Errorf("%s: %w", filePath, segment.ErrNoUsableContent)
	}
	return &fileSource{exec: e, info: *info}, nil
}

func (s *fileSource) Info() SourceInfo { return s.info }

func (s *fileSource) ReadFrame(ctx context.Context, index int) (*Frame, error) {
	if index < 0 || index >= s.info.FrameCount {
		return nil, fmt.Errorf("frame index %d out of range [0,%d)", index, s.info.FrameCount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := float64(index) / s.info.FPS
	args := []string{
		"-ss", fmt.Sprintf("%.6f", ts),
		"-i", s.info.FilePath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:%d,format=gray", AnalysisWidth, AnalysisHeight),
		"-f", "rawvideo",
		"pipe:1",
	}

	data, err := s.exec.CaptureStdout(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("read frame %d: %w", index, err)
	}

	want := AnalysisWidth * AnalysisHeight
	if len(data) < want {
		return nil, fmt.Errorf("read frame %d: short rawvideo payload (%d of %d bytes)", index, len(data), want)
	}

	return &Frame{
		Pix:    data[:want],
		Width:  AnalysisWidth,
		Height: AnalysisHeight,
	}, nil
}

func (s *fileSource) Close() error { return nil }
