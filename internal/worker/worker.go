// Package worker consumes clip generation tasks from the asynq queue
// and mirrors run state into the session store.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/hibiken/asynq"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/mjkio98/clipforge/internal/jobs"
)

// The engine handle is non-reentrant, so the queue must never hand the
// worker two batches at once.
const queueConcurrency = 1

// RunFunc executes one generation run, reporting progress and each
// produced clip file through the callbacks.
type RunFunc func(ctx context.Context, p jobs.GenerateClipsPayload, onProgress func(pct float64, message string), onClipReady func(file string)) (produced int, err error)

type progressStore interface {
	Start(ctx context.Context, sid, sourceRef string, requested int) error
	Progress(ctx context.Context, sid string, pct float64, message string) error
	ClipReady(ctx context.Context, sid, file string) error
	Complete(ctx context.Context, sid string, produced int) error
	Fail(ctx context.Context, sid string, cause error) error
}

type Worker struct {
	store    progressStore
	run      RunFunc
	maxClips int
	logger   *zap.Logger
}

// New builds a worker. maxClips is the configured per-batch limit; it
// caps payload overrides and stands in for them when they are unset.
func New(store progressStore, run RunFunc, maxClips int, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{store: store, run: run, maxClips: maxClips, logger: logger}
}

// effectiveRequested mirrors the run's clip-count resolution: a payload
// override only lowers the configured limit, never raises it.
func (w *Worker) effectiveRequested(payload int) int {
	n := w.maxClips
	if payload > 0 && (n <= 0 || payload < n) {
		n = payload
	}
	return n
}

// Handle processes one queued generation task. Store updates are best
// effort; only run failures make the task itself fail.
func (w *Worker) Handle(ctx context.Context, t *asynq.Task) error {
	var p jobs.GenerateClipsPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.SessionID == "" {
		p.SessionID = NewSessionID()
	}

	w.logger.Info("generation task started",
		zap.String("session", p.SessionID),
		zap.String("source", p.SourcePath))

	if err := w.store.Start(ctx, p.SessionID, p.SourcePath, w.effectiveRequested(p.MaxClips)); err != nil {
		w.logger.Warn("session start update failed", zap.Error(err))
	}

	produced, err := w.run(ctx, p,
		func(pct float64, message string) {
			if err := w.store.Progress(ctx, p.SessionID, pct, message); err != nil {
				w.logger.Warn("progress update failed", zap.Error(err))
			}
		},
		func(file string) {
			if err := w.store.ClipReady(ctx, p.SessionID, file); err != nil {
				w.logger.Warn("clip-ready update failed", zap.Error(err))
			}
		},
	)
	if err != nil {
		if ferr := w.store.Fail(ctx, p.SessionID, err); ferr != nil {
			w.logger.Warn("session fail update failed", zap.Error(ferr))
		}
		w.logger.Error("generation failed", zap.String("session", p.SessionID), zap.Error(err))
		return err
	}

	if err := w.store.Complete(ctx, p.SessionID, produced); err != nil {
		w.logger.Warn("session complete update failed", zap.Error(err))
	}
	w.logger.Info("generation finished",
		zap.String("session", p.SessionID),
		zap.Int("clips", produced))
	return nil
}

// Serve blocks, consuming tasks until the process exits.
func (w *Worker) Serve(redisAddr string) error {
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: queueConcurrency,
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TaskGenerateClips, w.Handle)
	return srv.Run(mux)
}

// Enqueue submits a generation job and returns its session id.
func Enqueue(ctx context.Context, redisAddr string, p jobs.GenerateClipsPayload) (string, error) {
	if p.SessionID == "" {
		p.SessionID = NewSessionID()
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer client.Close()
	if _, err := client.EnqueueContext(ctx, asynq.NewTask(jobs.TaskGenerateClips, b), asynq.MaxRetry(3)); err != nil {
		return "", err
	}
	return p.SessionID, nil
}

// NewSessionID returns a sortable unique id.
func NewSessionID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
