// Package encode renders one clip through a forward-only ladder of
// fallback tiers, trusting no engine output it cannot validate.
package encode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/mjkio98/clipforge/internal/domain/subtitles"
	"github.com/mjkio98/clipforge/internal/ports"
	"github.com/mjkio98/clipforge/internal/types"
)

// Tier names one rung of the fallback ladder.
type Tier string

const (
	// TierFull burns captions and maps video/audio streams explicitly.
	TierFull Tier = "full"
	// TierNoExplicitMap keeps captions but lets the engine pick streams.
	TierNoExplicitMap Tier = "no_explicit_map"
	// TierNoCaptions drops the caption overlay entirely.
	TierNoCaptions Tier = "no_captions"
)

// DefaultMinOutputBytes is the smallest artifact accepted as a real
// clip; anything under it is treated as engine garbage.
const DefaultMinOutputBytes = 1024

var ErrUndersizedOutput = errors.New("encode output below minimum size")

// Attempt is one rung: a concrete filter graph plus mapping flags.
type Attempt struct {
	Tier         Tier
	FilterGraph  string
	MapStreams   bool
	BurnCaptions bool
}

type AttemptFailure struct {
	Tier Tier
	Err  error
}

// FatalEncodeError means every tier was exhausted for this clip. It is
// fatal for the clip only, never for the batch.
type FatalEncodeError struct {
	Failures []AttemptFailure
}

func (e *FatalEncodeError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Tier, f.Err))
	}
	return "all encode tiers exhausted: " + strings.Join(parts, "; ")
}

func (e *FatalEncodeError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

type Encoder struct {
	engine         ports.Transcoder
	minOutputBytes int
	logger         *zap.Logger
}

func NewEncoder(engine ports.Transcoder, minOutputBytes int, logger *zap.Logger) *Encoder {
	if minOutputBytes <= 0 {
		minOutputBytes = DefaultMinOutputBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Encoder{engine: engine, minOutputBytes: minOutputBytes, logger: logger}
}

// Input describes one clip encode over an already extracted segment.
type Input struct {
	SegmentPath  string
	Crop         types.CropWindow
	TargetWidth  int
	TargetHeight int
	Track        types.CaptionTrack
	DurationSec  float64
	// WorkDir receives the transient subtitle file; empty means the
	// system temp dir.
	WorkDir string
}

type Result struct {
	Bytes           []byte
	Tier            Tier
	CaptionsApplied bool
}

// Encode walks the ladder forward-only and returns the first validated
// output. A thrown engine error and a successful return with an empty
// or undersized artifact trigger the same transition. Exhausting the
// ladder returns *FatalEncodeError.
func (e *Encoder) Encode(ctx context.Context, in Input) (Result, error) {
	subtitlePath := ""
	if !in.Track.Empty() {
		path, err := e.writeSubtitles(in)
		if err != nil {
			// Captions are an enhancement; fall through to the
			// caption-less ladder instead of failing the clip.
			e.logger.Warn("subtitle file write failed, encoding without captions", zap.Error(err))
		} else {
			subtitlePath = path
			defer os.Remove(path)
		}
	}

	attempts := BuildAttempts(in.Crop, in.TargetWidth, in.TargetHeight, subtitlePath)
	var failures []AttemptFailure
	for _, att := range attempts {
		out, err := e.engine.Transcode(ctx, ports.TranscodeJob{
			InputPath:   in.SegmentPath,
			FilterGraph: att.FilterGraph,
			MapStreams:  att.MapStreams,
			DurationSec: in.DurationSec,
		})
		if err == nil {
			err = e.validate(out)
		}
		if err != nil {
			e.logger.Warn("encode attempt failed",
				zap.String("tier", string(att.Tier)),
				zap.Error(err))
			failures = append(failures, AttemptFailure{Tier: att.Tier, Err: err})
			continue
		}
		e.logger.Debug("encode attempt succeeded",
			zap.String("tier", string(att.Tier)),
			zap.Int("bytes", len(out)))
		return Result{Bytes: out, Tier: att.Tier, CaptionsApplied: att.BurnCaptions}, nil
	}
	return Result{}, &FatalEncodeError{Failures: failures}
}

func (e *Encoder) validate(out []byte) error {
	if len(out) == 0 {
		return fmt.Errorf("%w: empty output", ErrUndersizedOutput)
	}
	if len(out) < e.minOutputBytes {
		return fmt.Errorf("%w: %d bytes < %d", ErrUndersizedOutput, len(out), e.minOutputBytes)
	}
	return nil
}

func (e *Encoder) writeSubtitles(in Input) (string, error) {
	dir := in.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, "captions-*.ass")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(subtitles.Render(in.Track)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// BuildAttempts returns the ordered ladder for one clip. Without a
// subtitle file the caption overlay is vacuous, so the last tier would
// repeat the second and is dropped; the mapping fallback remains.
func BuildAttempts(crop types.CropWindow, dstW, dstH int, subtitlePath string) []Attempt {
	graph := filterGraph(crop, dstW, dstH, subtitlePath)
	burn := subtitlePath != ""
	ladder := []Attempt{
		{Tier: TierFull, FilterGraph: graph, MapStreams: true, BurnCaptions: burn},
		{Tier: TierNoExplicitMap, FilterGraph: graph, MapStreams: false, BurnCaptions: burn},
	}
	if burn {
		ladder = append(ladder, Attempt{
			Tier:        TierNoCaptions,
			FilterGraph: filterGraph(crop, dstW, dstH, ""),
		})
	}
	return ladder
}

func filterGraph(crop types.CropWindow, dstW, dstH int, subtitlePath string) string {
	graph := fmt.Sprintf("crop=%d:%d:%d:%d,scale=%d:%d",
		crop.Width, crop.Height, crop.X, crop.Y, dstW, dstH)
	if subtitlePath != "" {
		graph += ",subtitles=" + escapeFilterPath(subtitlePath)
	}
	return graph
}

// escapeFilterPath keeps the filter parser from reading path characters
// as option separators.
func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, `\`, `\\`)
	p = strings.ReplaceAll(p, `:`, `\:`)
	return p
}
