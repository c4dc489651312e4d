// Package detect estimates where the main subject sits in a clip so the
// crop can follow them instead of the frame center.
package detect

import (
	"context"

	"go.uber.org/zap"

	"github.com/mjkio98/clipforge/internal/ports"
	"github.com/mjkio98/clipforge/internal/types"
)

const (
	DefaultSampleCount   = 3
	DefaultDownscaleSize = 224
)

type Estimator struct {
	sampler     ports.FrameSampler
	detector    ports.FaceDetector
	sampleCount int
	downscale   int
	logger      *zap.Logger
}

// NewEstimator builds an estimator. A nil detector disables estimation
// entirely; every Estimate call then returns nil.
func NewEstimator(sampler ports.FrameSampler, detector ports.FaceDetector, sampleCount, downscale int, logger *zap.Logger) *Estimator {
	if sampleCount <= 0 {
		sampleCount = DefaultSampleCount
	}
	if downscale <= 0 {
		downscale = DefaultDownscaleSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{
		sampler:     sampler,
		detector:    detector,
		sampleCount: sampleCount,
		downscale:   downscale,
		logger:      logger,
	}
}

// Estimate samples frames evenly spaced across the clip, keeps the
// largest face per frame, and returns the mean normalized center.
// Detection is an enhancement, not a requirement: every failure path
// degrades to nil and the caller center-crops.
//
// startOffsetSec is relative to videoPath, so for an already extracted
// segment it is 0, not the clip's offset in the original source.
func (e *Estimator) Estimate(ctx context.Context, videoPath string, startOffsetSec, durationSec float64) *types.SubjectPosition {
	if e.sampler == nil || e.detector == nil || durationSec <= 0 {
		return nil
	}

	step := durationSec / float64(e.sampleCount)
	size := float64(e.downscale)

	var sumX, sumY float64
	found := 0
	for i := 0; i < e.sampleCount; i++ {
		at := startOffsetSec + float64(i)*step
		frame, err := e.sampler.SampleFrame(ctx, videoPath, at, e.downscale)
		if err != nil {
			e.logger.Debug("frame sample failed", zap.Float64("at", at), zap.Error(err))
			continue
		}
		boxes, err := e.detector.Detect(ctx, frame)
		if err != nil {
			e.logger.Debug("face detection failed", zap.Float64("at", at), zap.Error(err))
			continue
		}
		best, ok := largestBox(boxes)
		if !ok {
			continue
		}
		cx, cy := best.Center()
		sumX += cx / size
		sumY += cy / size
		found++
	}
	if found == 0 {
		return nil
	}

	pos := &types.SubjectPosition{
		X: clamp01(sumX / float64(found)),
		Y: clamp01(sumY / float64(found)),
	}
	e.logger.Debug("subject estimated",
		zap.Float64("x", pos.X),
		zap.Float64("y", pos.Y),
		zap.Int("frames", found))
	return pos
}

func largestBox(boxes []types.BoundingBox) (types.BoundingBox, bool) {
	var best types.BoundingBox
	ok := false
	for _, b := range boxes {
		if !ok || b.Area() > best.Area() {
			best = b
			ok = true
		}
	}
	return best, ok
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
