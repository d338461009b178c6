package segment

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoUsableContent signals that the input contained nothing the
// pipeline can work with: an unreadable or zero-duration source, an
// empty candidate list, or an empty segment library. Callers match it
// with errors.Is to decide between retrying with different input and
// aborting the job.
var ErrNoUsableContent = errors.New("no usable content")

// Combined-score weights. Motion dominates, variance separates real
// movement from camera shake, brightness rewards mid-exposed footage.
const (
	motionWeight     = 0.6
	varianceWeight   = 0.3
	brightnessWeight = 0.1
)

// VideoSegment is a scored window of the source video. Candidates are
// created by the analysis scan and never mutated afterwards; the
// variant selector and timeline builder only read them.
type VideoSegment struct {
	StartTime     float64  `json:"start_time"`
	EndTime       float64  `json:"end_time"`
	MotionScore   float64  `json:"motion_score"`
	VarianceScore float64  `json:"variance_score"`
	AvgBrightness float64  `json:"avg_brightness"`
	MinBrightness float64  `json:"min_brightness"`
	Fingerprints  []uint64 `json:"fingerprints,omitempty"`
}

// Duration returns the segment length in seconds.
func (s VideoSegment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// CombinedScore ranks a segment for selection. Brightness contributes
// through its distance from mid-gray, so both blown-out and murky
// footage score lower.
func (s VideoSegment) CombinedScore() float64 {
	return motionWeight*s.MotionScore +
		varianceWeight*s.VarianceScore +
		brightnessWeight*(1-math.Abs(s.AvgBrightness-0.5))
}

// Overlaps reports whether two segments share any part of the source
// timeline.
func (s VideoSegment) Overlaps(other VideoSegment) bool {
	return s.StartTime < other.EndTime && other.StartTime < s.EndTime
}

// Validate checks the structural invariants of a segment.
func (s VideoSegment) Validate() error {
	if s.EndTime <= s.StartTime {
		return fmt.Errorf("segment end %.3f must be after start %.3f", s.EndTime, s.StartTime)
	}
	if s.StartTime < 0 {
		return fmt.Errorf("segment start %.3f must not be negative", s.StartTime)
	}
	return nil
}

// SortByScore orders segments by combined score descending. The order
// is total: score ties break on start time so repeated runs over the
// same input produce identical orderings.
func SortByScore(segs []VideoSegment) {
	sort.SliceStable(segs, func(i, j int) bool {
		si, sj := segs[i].CombinedScore(), segs[j].CombinedScore()
		if si != sj {
			return si > sj
		}
		return segs[i].StartTime < segs[j].StartTime
	})
}

// SortChronological orders segments by start time ascending.
func SortChronological(segs []VideoSegment) {
	sort.SliceStable(segs, func(i, j int) bool {
		return segs[i].StartTime < segs[j].StartTime
	})
}

// LibrarySegment is a named, pre-cut clip in an external footage
// library. The library owns its lifetime; this core treats it as
// read-only.
type LibrarySegment struct {
	ID       string   `yaml:"id" json:"id"`
	Source   string   `yaml:"source" json:"source"`
	InPoint  float64  `yaml:"in" json:"in"`
	OutPoint float64  `yaml:"out" json:"out"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Duration returns the clip length within its source, in seconds.
func (l LibrarySegment) Duration() float64 {
	return l.OutPoint - l.InPoint
}

// Validate checks the structural invariants of a library clip.
func (l LibrarySegment) Validate() error {
	if l.ID == "" {
		return errors.New("library segment id is empty")
	}
	if l.Source == "" {
		return fmt.Errorf("library segment %s has no source", l.ID)
	}
	if l.OutPoint <= l.InPoint {
		return fmt.Errorf("library segment %s out point %.3f must be after in point %.3f", l.ID, l.OutPoint, l.InPoint)
	}
	return nil
}

// SubtitleEntry is one narration phrase with its spoken time span,
// produced externally from narration timing data.
type SubtitleEntry struct {
	Index     int     `json:"index"`
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Duration returns the spoken span in seconds.
func (e SubtitleEntry) Duration() float64 {
	return e.EndTime - e.StartTime
}

// MatchResult records the outcome of keyword matching for one subtitle
// entry. A zero Confidence with an empty SegmentID means unmatched;
// whenever SegmentID is set, Confidence is at least the configured
// minimum.
type MatchResult struct {
	EntryIndex int     `json:"entry_index"`
	SegmentID  string  `json:"segment_id,omitempty"`
	Keyword    string  `json:"keyword,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Matched reports whether the entry resolved to a library segment.
func (m MatchResult) Matched() bool {
	return m.SegmentID != ""
}

// TimelineEntry is one placed clip in the assembled sequence: where it
// sits in the output and which part of which source fills it.
type TimelineEntry struct {
	Source           string  `json:"source"`
	InPoint          float64 `json:"in_point"`
	OutPoint         float64 `json:"out_point"`
	TimelineStart    float64 `json:"timeline_start"`
	TimelineDuration float64 `json:"timeline_duration"`
}

// TotalDuration sums the placed durations of a timeline.
func TotalDuration(entries []TimelineEntry) float64 {
	var total float64
	for _, e := range entries {
		total += e.TimelineDuration
	}
	return total
}
