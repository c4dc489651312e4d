package types

import "fmt"

// ClipSpec is one requested clip window, in absolute seconds on the
// source timeline.
type ClipSpec struct {
	StartSec    float64 `json:"start_sec"`
	EndSec      float64 `json:"end_sec"`
	Number      int     `json:"number"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Reason      string  `json:"reason,omitempty"`
}

func (c ClipSpec) DurationSec() float64 { return c.EndSec - c.StartSec }

func (c ClipSpec) Validate() error {
	if c.StartSec < 0 {
		return fmt.Errorf("clip %d: negative start %.3f", c.Number, c.StartSec)
	}
	if c.EndSec <= c.StartSec {
		return fmt.Errorf("clip %d: end %.3f must be after start %.3f", c.Number, c.EndSec, c.StartSec)
	}
	return nil
}

type Transcript struct {
	Segments []Segment `json:"segments"`
}

// Segment is one transcript unit. Aggregate transcripts may carry a
// single segment spanning minutes with only Text populated.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

func (s Segment) DurationSec() float64 { return s.End - s.Start }

func (s Segment) Validate() error {
	if s.Start < 0 {
		return fmt.Errorf("segment: negative start %.3f", s.Start)
	}
	if s.End < s.Start {
		return fmt.Errorf("segment: end %.3f before start %.3f", s.End, s.Start)
	}
	return nil
}

type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"word"`
}

// SubjectPosition is a point of interest in the frame, normalized to
// [0,1] on both axes. A nil *SubjectPosition means no subject is known.
type SubjectPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox is a detected face rectangle in pixels of the frame the
// detector saw (already downscaled by the sampler).
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b BoundingBox) Area() float64 { return b.Width * b.Height }

func (b BoundingBox) Center() (x, y float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// CropWindow is an integer pixel rectangle in source-video coordinates.
type CropWindow struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (w CropWindow) FitsWithin(srcW, srcH int) bool {
	return w.X >= 0 && w.Y >= 0 &&
		w.Width > 0 && w.Height > 0 &&
		w.X+w.Width <= srcW && w.Y+w.Height <= srcH
}

// WordEvent is one caption word with clip-local timing in seconds.
// Hook marks words rendered with visual emphasis.
type WordEvent struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
	Hook     bool    `json:"hook,omitempty"`
}

// CaptionTrack is the word schedule for one clip: non-decreasing start
// order, no overlaps. An empty track means encode without captions.
type CaptionTrack struct {
	Words []WordEvent `json:"words"`
}

func (t CaptionTrack) Empty() bool { return len(t.Words) == 0 }

type SourceInfo struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	DurationSec float64 `json:"duration_sec"`
}

func (s SourceInfo) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("source: invalid dimensions %dx%d", s.Width, s.Height)
	}
	if s.DurationSec <= 0 {
		return fmt.Errorf("source: invalid duration %.3f", s.DurationSec)
	}
	return nil
}

// ProcessedClip is one finished clip held in memory until the caller
// persists or streams it.
type ProcessedClip struct {
	Number          int
	Title           string
	Description     string
	StartSec        float64
	EndSec          float64
	Bytes           []byte
	Size            int64
	Ready           bool
	CaptionsApplied bool
}

type Manifest struct {
	Source    string         `json:"source"`
	SessionID string         `json:"session_id,omitempty"`
	Requested int            `json:"requested"`
	Produced  int            `json:"produced"`
	Clips     []ManifestClip `json:"clips"`
}

type ManifestClip struct {
	Number          int     `json:"number"`
	StartSec        float64 `json:"start_sec"`
	EndSec          float64 `json:"end_sec"`
	File            string  `json:"file"`
	Title           string  `json:"title,omitempty"`
	Description     string  `json:"description,omitempty"`
	CaptionsApplied bool    `json:"captions_applied"`
	SizeBytes       int64   `json:"size_bytes"`
}
