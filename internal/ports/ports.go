package ports

import (
	"context"

	"github.com/mjkio98/clipforge/internal/types"
)

// SourceProvider resolves a source reference into probeable media and
// extracts clip-sized segments from it.
type SourceProvider interface {
	Probe(ctx context.Context, ref string) (types.SourceInfo, error)
	FetchSegment(ctx context.Context, ref string, startSec, endSec float64, dstPath string) error
}

// TranscriptProvider loads the transcript for a source reference.
type TranscriptProvider interface {
	Transcript(ctx context.Context, ref string) (types.Transcript, error)
}

// ClipSuggester proposes clip windows from a transcript.
type ClipSuggester interface {
	Suggest(ctx context.Context, segments []types.Segment, durationSec float64, maxClips int) ([]types.ClipSpec, error)
}

// FrameSampler decodes one frame at a timestamp, downscaled to a
// size x size square, and returns it as an encoded image.
type FrameSampler interface {
	SampleFrame(ctx context.Context, videoPath string, atSec float64, size int) ([]byte, error)
}

// FaceDetector finds face bounding boxes in an encoded image.
type FaceDetector interface {
	Detect(ctx context.Context, image []byte) ([]types.BoundingBox, error)
}

// TranscodeJob is one encode attempt over an already extracted segment.
type TranscodeJob struct {
	InputPath   string
	FilterGraph string
	// MapStreams selects the first video and audio streams explicitly
	// instead of letting the encoder pick.
	MapStreams  bool
	DurationSec float64
}

// Transcoder renders a job and returns the finished clip bytes.
type Transcoder interface {
	Transcode(ctx context.Context, job TranscodeJob) ([]byte, error)
}
