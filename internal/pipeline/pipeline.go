// Package pipeline wires configuration, adapters and the batch
// orchestrator into one clip generation run.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/mjkio98/clipforge/internal/batch"
	"github.com/mjkio98/clipforge/internal/config"
	"github.com/mjkio98/clipforge/internal/detect"
	"github.com/mjkio98/clipforge/internal/domain/boundaries"
	"github.com/mjkio98/clipforge/internal/domain/captions"
	"github.com/mjkio98/clipforge/internal/encode"
	"github.com/mjkio98/clipforge/internal/jobs"
	"github.com/mjkio98/clipforge/internal/ports"
	"github.com/mjkio98/clipforge/internal/ports/adapters/facebox"
	"github.com/mjkio98/clipforge/internal/ports/adapters/ffmpeg"
	"github.com/mjkio98/clipforge/internal/ports/adapters/localsource"
	"github.com/mjkio98/clipforge/internal/ports/adapters/suggest"
	"github.com/mjkio98/clipforge/internal/ports/adapters/transcript"
	"github.com/mjkio98/clipforge/internal/types"
)

type Config struct {
	SourcePath     string
	TranscriptPath string
	OutDir         string
	SessionID      string

	MaxClips            int
	TargetWidth         int
	TargetHeight        int
	MinOutputBytes      int
	ShortVideoCutoffSec float64
	Captions            captions.Options

	FFmpegPath  string
	FFprobePath string

	DetectorURL       string
	DetectSampleCount int
	DetectDownscale   int

	SuggestAPIKey       string
	SuggestModel        string
	SuggestBaseURL      string
	SuggestAllowedHosts []string

	// WorkDir is the scratch root for per-batch temp files; empty means
	// the system temp dir.
	WorkDir string

	Logger *zap.Logger

	OnProgress  batch.ProgressFunc
	OnClipReady func(file string, clip types.ProcessedClip)
}

// FromConfiguration lifts application settings into a run Config,
// leaving the per-run fields (source, transcript, session) unset.
func FromConfiguration(c *config.Configuration) Config {
	return Config{
		OutDir:              c.GetOutputDir(),
		MaxClips:            c.GetMaxClips(),
		TargetWidth:         c.GetOutputWidth(),
		TargetHeight:        c.GetOutputHeight(),
		MinOutputBytes:      c.GetMinOutputBytes(),
		ShortVideoCutoffSec: c.GetShortVideoCutoffSec(),
		Captions: captions.Options{
			LargeSegmentThresholdSec: c.GetLargeSegmentSec(),
			MinWordDurationSec:       c.GetMinWordSec(),
			MaxWordDurationSec:       c.GetMaxWordSec(),
			MinBoundaryTokenLen:      c.GetMinBoundaryTokenLen(),
		},
		FFmpegPath:          c.GetFFmpegPath(),
		FFprobePath:         c.GetFFprobePath(),
		DetectorURL:         c.GetDetectorURL(),
		DetectSampleCount:   c.GetDetectSampleCount(),
		DetectDownscale:     c.GetDetectDownscaleSize(),
		SuggestAPIKey:       c.GetSuggestAPIKey(),
		SuggestModel:        c.GetSuggestModel(),
		SuggestBaseURL:      c.GetSuggestURL(),
		SuggestAllowedHosts: c.GetSuggestAllowedHosts(),
	}
}

func (c Config) Validate() error {
	if c.SourcePath == "" {
		return errors.New("source is empty")
	}
	if _, err := os.Stat(c.SourcePath); err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if c.TranscriptPath != "" {
		if _, err := os.Stat(c.TranscriptPath); err != nil {
			return fmt.Errorf("stat transcript: %w", err)
		}
	}
	if c.MaxClips <= 0 {
		return fmt.Errorf("max clips must be > 0")
	}
	if c.TargetWidth <= 0 || c.TargetHeight <= 0 {
		return fmt.Errorf("target size must be positive")
	}
	// libx264 with yuv420p rejects odd dimensions.
	if c.TargetWidth%2 != 0 || c.TargetHeight%2 != 0 {
		return fmt.Errorf("target size must be even, got %dx%d", c.TargetWidth, c.TargetHeight)
	}
	if c.SuggestBaseURL != "" || c.SuggestAPIKey != "" {
		return suggest.ValidateBaseURL(c.SuggestBaseURL, c.SuggestAllowedHosts)
	}
	return nil
}

type Result struct {
	RunDir   string
	Manifest types.Manifest
}

// Run executes one full generation: probe, suggest, batch, and the
// manifest write. Clip files land under <run dir>/clips as soon as
// each one is ready.
func Run(ctx context.Context, cfg Config) (Result, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// adapters
	av := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	if err := av.Verify(); err != nil {
		return Result{}, &batch.EngineInitError{Reason: "media tools", Err: err}
	}
	src, err := localsource.New(av, 0)
	if err != nil {
		return Result{}, err
	}

	var detector ports.FaceDetector
	if cfg.DetectorURL != "" {
		detector = facebox.New(cfg.DetectorURL)
	}

	engine, err := batch.NewEngine(av, av, detector)
	if err != nil {
		return Result{}, err
	}

	heur := boundaries.New(boundaries.DefaultOptions())
	var suggester ports.ClipSuggester = heur
	if cfg.SuggestBaseURL != "" || cfg.SuggestAPIKey != "" {
		suggester = suggest.New(cfg.SuggestAPIKey, cfg.SuggestModel, cfg.SuggestBaseURL, heur, logger)
	}

	info, err := src.Probe(ctx, cfg.SourcePath)
	if err != nil {
		return Result{}, err
	}
	if err := info.Validate(); err != nil {
		return Result{}, fmt.Errorf("source %s: %w", cfg.SourcePath, err)
	}
	logger.Info("source probed",
		zap.String("source", cfg.SourcePath),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
		zap.Float64("duration_sec", info.DurationSec))

	var segments []types.Segment
	if cfg.TranscriptPath != "" {
		tr, err := transcript.NewFileProvider().Transcript(ctx, cfg.TranscriptPath)
		if err != nil {
			return Result{}, err
		}
		segments = tr.Segments
		logger.Info("transcript loaded",
			zap.String("path", cfg.TranscriptPath),
			zap.Int("segments", len(segments)))
	}

	specs, err := suggester.Suggest(ctx, segments, info.DurationSec, cfg.MaxClips)
	if err != nil {
		return Result{}, fmt.Errorf("suggest clips: %w", err)
	}
	logger.Info("clip boundaries suggested", zap.Int("clips", len(specs)))

	orc, err := batch.New(batch.Deps{
		Engine:    engine,
		Source:    src,
		Estimator: detect.NewEstimator(engine.Sampler(), engine.Detector(), cfg.DetectSampleCount, cfg.DetectDownscale, logger),
		Synth:     captions.New(cfg.Captions),
		Encoder:   encode.NewEncoder(engine.Transcoder(), cfg.MinOutputBytes, logger),
		Logger:    logger,
	}, batch.Options{
		TargetWidth:         cfg.TargetWidth,
		TargetHeight:        cfg.TargetHeight,
		MaxClips:            cfg.MaxClips,
		ShortVideoCutoffSec: cfg.ShortVideoCutoffSec,
		WorkDir:             cfg.WorkDir,
	})
	if err != nil {
		return Result{}, err
	}

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.SourcePath, time.Now().UTC())
	clipsDir := filepath.Join(runOutDir, "clips")
	if err := os.MkdirAll(clipsDir, 0o755); err != nil {
		return Result{}, err
	}
	logger.Info("output run dir ready", zap.String("dir", runOutDir))

	req := batch.Request{
		SourceRef: cfg.SourcePath,
		Source:    info,
		Specs:     specs,
		Segments:  segments,
	}
	planned := orc.PlannedClips(req)

	var written []types.ManifestClip
	req.OnProgress = cfg.OnProgress
	req.OnClipReady = func(clip types.ProcessedClip, index, total int) {
		file := filepath.Join(clipsDir, fmt.Sprintf("clip-%03d.mp4", clip.Number))
		if err := os.WriteFile(file, clip.Bytes, 0o644); err != nil {
			logger.Error("write clip failed", zap.String("file", file), zap.Error(err))
			return
		}
		written = append(written, types.ManifestClip{
			Number:          clip.Number,
			StartSec:        clip.StartSec,
			EndSec:          clip.EndSec,
			File:            filepath.Join("clips", filepath.Base(file)),
			Title:           clip.Title,
			Description:     clip.Description,
			CaptionsApplied: clip.CaptionsApplied,
			SizeBytes:       clip.Size,
		})
		logger.Info("clip ready",
			zap.Int("number", clip.Number),
			zap.String("file", file),
			zap.Int64("bytes", clip.Size))
		if cfg.OnClipReady != nil {
			cfg.OnClipReady(file, clip)
		}
	}

	if _, err := orc.Generate(ctx, req); err != nil {
		return Result{}, err
	}

	manifest := types.Manifest{
		Source:    cfg.SourcePath,
		SessionID: cfg.SessionID,
		Requested: planned,
		Produced:  len(written),
		Clips:     written,
	}
	b, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(runOutDir, "manifest.json")
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return Result{}, err
	}
	logger.Info("manifest written",
		zap.Int("clips", len(written)),
		zap.String("path", manifestPath))

	return Result{RunDir: runOutDir, Manifest: manifest}, nil
}

// RunJob adapts a queue payload onto a full run, using the process
// configuration for everything the payload leaves unset.
func RunJob(ctx context.Context, appCfg *config.Configuration, logger *zap.Logger, p jobs.GenerateClipsPayload, onProgress func(pct float64, message string), onClipReady func(file string)) (int, error) {
	cfg := FromConfiguration(appCfg)
	cfg.SourcePath = p.SourcePath
	cfg.TranscriptPath = p.TranscriptPath
	cfg.SessionID = p.SessionID
	if p.OutDir != "" {
		cfg.OutDir = p.OutDir
	}
	if p.MaxClips > 0 && p.MaxClips < cfg.MaxClips {
		cfg.MaxClips = p.MaxClips
	}
	cfg.Logger = logger
	cfg.OnProgress = onProgress
	if onClipReady != nil {
		cfg.OnClipReady = func(file string, clip types.ProcessedClip) { onClipReady(file) }
	}

	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	res, err := Run(ctx, cfg)
	if err != nil {
		return 0, err
	}
	return res.Manifest.Produced, nil
}

func buildRunOutDir(outRoot, sourcePath string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	name = normalizePathSegment(name)
	if name == "" {
		name = "source"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", sourcePath, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.Transcoder = (*ffmpeg.Adapter)(nil)
var _ ports.FrameSampler = (*ffmpeg.Adapter)(nil)
var _ ports.SourceProvider = (*ffmpeg.Adapter)(nil)
var _ ports.SourceProvider = (*localsource.Provider)(nil)
var _ ports.FaceDetector = (*facebox.Adapter)(nil)
var _ ports.ClipSuggester = (*suggest.Adapter)(nil)
var _ ports.ClipSuggester = (*boundaries.Suggester)(nil)
var _ ports.TranscriptProvider = (*transcript.FileProvider)(nil)
