package media

import (
	"math"
	"testing"
)

func TestParseSilenceOutput(t *testing.T) {
	// Captured shape of ffmpeg's silencedetect stderr log.
	output := `[silencedetect @ 0x7f8e9c004a00] silence_start: 1.52345
[silencedetect @ 0x7f8e9c004a00] silence_end: 3.10234 | silence_duration: 1.57889
frame= 1234 fps=245 q=-0.0 size=N/A time=00:00:41.16 bitrate=N/A speed=8.17x
[silencedetect @ 0x7f8e9c004a00] silence_start: 10.2
[silencedetect @ 0x7f8e9c004a00] silence_end: 12.5 | silence_duration: 2.3
`

	segments := parseSilenceOutput(output)
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(segments))
	}

	if math.Abs(segments[0].Start-1.52345) > 1e-9 || math.Abs(segments[0].End-3.10234) > 1e-9 {
		t.Errorf("segment 0 = [%v,%v], want [1.52345,3.10234]", segments[0].Start, segments[0].End)
	}
	if math.Abs(segments[0].Duration-1.57889) > 1e-9 {
		t.Errorf("segment 0 duration = %v, want 1.57889", segments[0].Duration)
	}
	if math.Abs(segments[1].Start-10.2) > 1e-9 || math.Abs(segments[1].End-12.5) > 1e-9 {
		t.Errorf("segment 1 = [%v,%v], want [10.2,12.5]", segments[1].Start, segments[1].End)
	}
}

func TestParseSilenceOutputWithoutDuration(t *testing.T) {
	// Older builds omit silence_duration; it derives from start and end.
	output := `[silencedetect @ 0x1] silence_start: 2.0
[silencedetect @ 0x1] silence_end: 5.5
`

	segments := parseSilenceOutput(output)
	if len(segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(segments))
	}
	if math.Abs(segments[0].Duration-3.5) > 1e-9 {
		t.Errorf("derived duration = %v, want 3.5", segments[0].Duration)
	}
}

func TestParseSilenceOutputNoSilence(t *testing.T) {
	output := `frame= 100 fps=50 q=-0.0 size=N/A time=00:00:04.00 bitrate=N/A
video:0kB audio:1723kB subtitle:0kB other streams:0kB global headers:0kB
`
	if segments := parseSilenceOutput(output); len(segments) != 0 {
		t.Errorf("clean log produced %d segments", len(segments))
	}
}
