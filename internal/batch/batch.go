// Package batch runs the per-clip pipeline sequentially over a set of
// clip specs, owning the shared engine handle for the whole run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mjkio98/clipforge/internal/domain/cropping"
	"github.com/mjkio98/clipforge/internal/encode"
	"github.com/mjkio98/clipforge/internal/ports"
	"github.com/mjkio98/clipforge/internal/types"
)

// ErrEngineBusy is returned when a batch is requested while another
// batch holds the engine.
var ErrEngineBusy = errors.New("engine busy: another batch is running")

// ErrSourceLoad wraps per-clip segment fetch failures.
var ErrSourceLoad = errors.New("source segment load failed")

// EngineInitError means the shared engines were unusable before any
// clip started. It fails the whole batch.
type EngineInitError struct {
	Reason string
	Err    error
}

func (e *EngineInitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("engine init: %s: %v", e.Reason, e.Err)
	}
	return "engine init: " + e.Reason
}

func (e *EngineInitError) Unwrap() error { return e.Err }

// Engine is the process-wide handle around the non-reentrant media
// tools. Concurrent batches are rejected, never interleaved.
type Engine struct {
	transcoder ports.Transcoder
	sampler    ports.FrameSampler
	detector   ports.FaceDetector
	busy       atomic.Bool
}

// NewEngine validates the tool set. A nil detector only disables
// subject estimation; a nil transcoder or sampler is an init failure.
func NewEngine(transcoder ports.Transcoder, sampler ports.FrameSampler, detector ports.FaceDetector) (*Engine, error) {
	if transcoder == nil {
		return nil, &EngineInitError{Reason: "transcoder unavailable"}
	}
	if sampler == nil {
		return nil, &EngineInitError{Reason: "frame sampler unavailable"}
	}
	return &Engine{transcoder: transcoder, sampler: sampler, detector: detector}, nil
}

func (e *Engine) Transcoder() ports.Transcoder { return e.transcoder }
func (e *Engine) Sampler() ports.FrameSampler  { return e.sampler }
func (e *Engine) Detector() ports.FaceDetector { return e.detector }

func (e *Engine) acquire() error {
	if !e.busy.CompareAndSwap(false, true) {
		return ErrEngineBusy
	}
	return nil
}

func (e *Engine) release() { e.busy.Store(false) }

// ProgressFunc receives batch progress in [0,100] with a status line.
// Called synchronously on the orchestrator's own control flow.
type ProgressFunc func(pct float64, message string)

// ClipReadyFunc fires once per produced clip, immediately, so callers
// can stream results instead of waiting for the batch.
type ClipReadyFunc func(clip types.ProcessedClip, index, total int)

type subjectEstimator interface {
	Estimate(ctx context.Context, videoPath string, startOffsetSec, durationSec float64) *types.SubjectPosition
}

type captionSynth interface {
	Synthesize(segments []types.Segment, clipStartSec, clipEndSec float64) types.CaptionTrack
}

type clipEncoder interface {
	Encode(ctx context.Context, in encode.Input) (encode.Result, error)
}

// Deps are the orchestrator's collaborators. Estimator may be nil
// (center crops); Synth may be nil (no captions).
type Deps struct {
	Engine    *Engine
	Source    ports.SourceProvider
	Estimator subjectEstimator
	Synth     captionSynth
	Encoder   clipEncoder
	Logger    *zap.Logger
}

type Options struct {
	TargetWidth         int
	TargetHeight        int
	MaxClips            int
	ShortVideoCutoffSec float64
	// WorkDir is the root for per-batch scratch directories; empty
	// means the system temp dir.
	WorkDir string
}

func DefaultOptions() Options {
	return Options{
		TargetWidth:         720,
		TargetHeight:        1280,
		MaxClips:            5,
		ShortVideoCutoffSec: 60,
	}
}

type Orchestrator struct {
	d         Deps
	opts      Options
	cancelled atomic.Bool
}

func New(d Deps, opts Options) (*Orchestrator, error) {
	if d.Engine == nil {
		return nil, &EngineInitError{Reason: "nil engine handle"}
	}
	if d.Source == nil {
		return nil, &EngineInitError{Reason: "nil source provider"}
	}
	if d.Encoder == nil {
		return nil, &EngineInitError{Reason: "nil encoder"}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.TargetWidth <= 0 {
		opts.TargetWidth = def.TargetWidth
	}
	if opts.TargetHeight <= 0 {
		opts.TargetHeight = def.TargetHeight
	}
	if opts.MaxClips <= 0 {
		opts.MaxClips = def.MaxClips
	}
	if opts.ShortVideoCutoffSec <= 0 {
		opts.ShortVideoCutoffSec = def.ShortVideoCutoffSec
	}
	return &Orchestrator{d: d, opts: opts}, nil
}

// Cancel stops the running batch before its next clip. The in-flight
// engine invocation is allowed to finish; it is never interrupted
// mid-encode. Cancelling while no batch is running stops the next
// batch before its first clip.
func (o *Orchestrator) Cancel() { o.cancelled.Store(true) }

// Request is one batch of clips over a single source.
type Request struct {
	SourceRef   string
	Source      types.SourceInfo
	Specs       []types.ClipSpec
	Segments    []types.Segment
	OnProgress  ProgressFunc
	OnClipReady ClipReadyFunc
}

// Generate processes clips strictly sequentially and returns however
// many succeeded. Per-clip failures are logged and skipped; only
// init-time problems fail the batch as a whole.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]types.ProcessedClip, error) {
	if err := o.d.Engine.acquire(); err != nil {
		return nil, err
	}
	defer o.d.Engine.release()
	defer o.cancelled.Store(false)

	if err := req.Source.Validate(); err != nil {
		return nil, err
	}

	progress := req.OnProgress
	if progress == nil {
		progress = func(float64, string) {}
	}
	ready := req.OnClipReady
	if ready == nil {
		ready = func(types.ProcessedClip, int, int) {}
	}

	specs := o.selectSpecs(req)
	n := len(specs)
	if n == 0 {
		progress(100, "no clips requested")
		return nil, nil
	}

	workDir, err := os.MkdirTemp(o.opts.WorkDir, "clipforge-batch-*")
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	defer os.RemoveAll(workDir)

	// A submitted encode runs to completion even if the batch context
	// dies; cancellation gates the next clip instead.
	encodeCtx := context.WithoutCancel(ctx)

	var clips []types.ProcessedClip
	cancelled := false
	for i, spec := range specs {
		if o.cancelled.Load() || ctx.Err() != nil {
			cancelled = true
			progress(stagePct(i, n, 0), fmt.Sprintf("cancelled after %d/%d clips", len(clips), n))
			o.d.Logger.Info("batch cancelled",
				zap.Int("produced", len(clips)),
				zap.Int("requested", n))
			break
		}

		clip, err := o.processClip(ctx, encodeCtx, workDir, req, spec, i, n, progress)
		if err != nil {
			o.d.Logger.Warn("clip failed, continuing batch",
				zap.Int("clip", spec.Number),
				zap.Float64("start", spec.StartSec),
				zap.Float64("end", spec.EndSec),
				zap.Error(err))
			progress(stagePct(i+1, n, 0), fmt.Sprintf("clip %d/%d failed, skipping", i+1, n))
			continue
		}

		clips = append(clips, clip)
		ready(clip, i, n)
		progress(stagePct(i+1, n, 0), fmt.Sprintf("clip %d/%d ready", i+1, n))
	}

	if !cancelled {
		progress(100, fmt.Sprintf("batch complete: %d/%d clips", len(clips), n))
	}
	o.d.Logger.Info("batch finished",
		zap.Int("produced", len(clips)),
		zap.Int("requested", n),
		zap.Bool("cancelled", cancelled))
	return clips, nil
}

// PlannedClips reports how many clips the policy would admit for req,
// so callers can record the real batch size up front.
func (o *Orchestrator) PlannedClips(req Request) int {
	return len(o.selectSpecs(req))
}

// selectSpecs applies the clip count policy: short sources get exactly
// one clip from the first spec, everything else up to MaxClips.
func (o *Orchestrator) selectSpecs(req Request) []types.ClipSpec {
	specs := req.Specs
	limit := o.opts.MaxClips
	if req.Source.DurationSec < o.opts.ShortVideoCutoffSec {
		limit = 1
	}
	if len(specs) > limit {
		specs = specs[:limit]
	}
	return specs
}

func (o *Orchestrator) processClip(ctx, encodeCtx context.Context, workDir string, req Request, spec types.ClipSpec, i, n int, progress ProgressFunc) (types.ProcessedClip, error) {
	if err := spec.Validate(); err != nil {
		return types.ProcessedClip{}, err
	}
	dur := spec.DurationSec()

	progress(stagePct(i, n, 0), fmt.Sprintf("clip %d/%d: fetching segment", i+1, n))
	segPath := filepath.Join(workDir, fmt.Sprintf("clip-%03d-src.mp4", spec.Number))
	if err := o.d.Source.FetchSegment(ctx, req.SourceRef, spec.StartSec, spec.EndSec, segPath); err != nil {
		return types.ProcessedClip{}, fmt.Errorf("%w: %w", ErrSourceLoad, err)
	}
	// Working buffers are released as soon as the clip is done, not at
	// batch end.
	defer os.Remove(segPath)

	progress(stagePct(i, n, 0.2), fmt.Sprintf("clip %d/%d: locating subject", i+1, n))
	var subject *types.SubjectPosition
	if o.d.Estimator != nil {
		// The segment file starts at the clip boundary, so the offset
		// inside it is zero.
		subject = o.d.Estimator.Estimate(ctx, segPath, 0, dur)
	}
	crop := cropping.Plan(req.Source.Width, req.Source.Height, o.opts.TargetWidth, o.opts.TargetHeight, subject)

	progress(stagePct(i, n, 0.45), fmt.Sprintf("clip %d/%d: timing captions", i+1, n))
	var track types.CaptionTrack
	if o.d.Synth != nil {
		track = o.d.Synth.Synthesize(req.Segments, spec.StartSec, spec.EndSec)
	}

	progress(stagePct(i, n, 0.6), fmt.Sprintf("clip %d/%d: encoding", i+1, n))
	res, err := o.d.Encoder.Encode(encodeCtx, encode.Input{
		SegmentPath:  segPath,
		Crop:         crop,
		TargetWidth:  o.opts.TargetWidth,
		TargetHeight: o.opts.TargetHeight,
		Track:        track,
		DurationSec:  dur,
		WorkDir:      workDir,
	})
	if err != nil {
		return types.ProcessedClip{}, err
	}

	return types.ProcessedClip{
		Number:          spec.Number,
		Title:           spec.Title,
		Description:     spec.Description,
		StartSec:        spec.StartSec,
		EndSec:          spec.EndSec,
		Bytes:           res.Bytes,
		Size:            int64(len(res.Bytes)),
		Ready:           true,
		CaptionsApplied: res.CaptionsApplied,
	}, nil
}

// stagePct maps clip i of n at stage fraction frac onto the batch's
// 0..100 range; clip i owns [i/n, (i+1)/n).
func stagePct(i, n int, frac float64) float64 {
	return (float64(i) + frac) / float64(n) * 100
}
