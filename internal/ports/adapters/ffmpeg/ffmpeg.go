// Package ffmpeg shells out to ffmpeg/ffprobe for probing, segment
// extraction, frame sampling and the final clip encode.
package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/mjkio98/clipforge/internal/ports"
	"github.com/mjkio98/clipforge/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// Verify checks both binaries resolve before any batch starts.
func (a *Adapter) Verify() error {
	if _, err := exec.LookPath(a.ffmpeg); err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	if _, err := exec.LookPath(a.ffprobe); err != nil {
		return fmt.Errorf("ffprobe not found: %w", err)
	}
	return nil
}

// Probe reads dimensions and duration via ffprobe's JSON output.
func (a *Adapter) Probe(ctx context.Context, ref string) (types.SourceInfo, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		ref,
	)
	b, err := cmd.Output()
	if err != nil {
		return types.SourceInfo{}, fmt.Errorf("ffprobe: %w\n%s", err, exitStderr(err))
	}

	var out struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return types.SourceInfo{}, fmt.Errorf("parse probe output: %w", err)
	}

	dur, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return types.SourceInfo{}, fmt.Errorf("parse duration %q: %w", out.Format.Duration, err)
	}

	for _, s := range out.Streams {
		if s.CodecType == "video" {
			return types.SourceInfo{Width: s.Width, Height: s.Height, DurationSec: dur}, nil
		}
	}
	return types.SourceInfo{}, fmt.Errorf("probe %s: no video stream", ref)
}

// FetchSegment re-encodes [startSec, endSec) of ref into dstPath so the
// segment starts exactly on the clip boundary.
func (a *Adapter) FetchSegment(ctx context.Context, ref string, startSec, endSec float64, dstPath string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-ss", fmtSeconds(startSec),
		"-to", fmtSeconds(endSec),
		"-i", ref,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-c:a", "aac",
		"-b:a", "192k",
		dstPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg fetch segment: %w\n%s", err, string(b))
	}
	return nil
}

// SampleFrame grabs one frame at atSec, squashed to a size x size JPEG.
func (a *Adapter) SampleFrame(ctx context.Context, videoPath string, atSec float64, size int) ([]byte, error) {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-ss", fmtSeconds(atSec),
		"-i", videoPath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:%d", size, size),
		"-f", "image2",
		"-c:v", "mjpeg",
		"pipe:1",
	)
	b, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg sample frame: %w\n%s", err, exitStderr(err))
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("ffmpeg sample frame: empty frame at %s", fmtSeconds(atSec))
	}
	return b, nil
}

// Transcode runs one encode attempt and returns the produced bytes.
func (a *Adapter) Transcode(ctx context.Context, job ports.TranscodeJob) ([]byte, error) {
	out, err := os.CreateTemp("", "clipforge-encode-*.mp4")
	if err != nil {
		return nil, fmt.Errorf("transcode scratch: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	args := []string{"-y", "-i", job.InputPath}
	if job.MapStreams {
		args = append(args, "-map", "0:v:0", "-map", "0:a:0")
	}
	if job.FilterGraph != "" {
		args = append(args, "-vf", job.FilterGraph)
	}
	if job.DurationSec > 0 {
		args = append(args, "-t", fmtSeconds(job.DurationSec))
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-c:a", "aac",
		"-b:a", "192k",
		outPath,
	)

	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg transcode: %w\n%s", err, string(b))
	}
	return os.ReadFile(outPath)
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

// exitStderr pulls captured stderr out of an exec error, if any.
func exitStderr(err error) string {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return string(ee.Stderr)
	}
	return ""
}
