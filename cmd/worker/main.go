package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mjkio98/clipforge/internal/config"
	"github.com/mjkio98/clipforge/internal/jobs"
	"github.com/mjkio98/clipforge/internal/logger"
	"github.com/mjkio98/clipforge/internal/pipeline"
	"github.com/mjkio98/clipforge/internal/session"
	"github.com/mjkio98/clipforge/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load() // best-effort: load .env if present

	appCfg, err := config.NewConfigurationFromEnv()
	if err != nil {
		return err
	}
	log, err := logger.New(logger.Options{
		Level:      appCfg.GetLogLevel(),
		FilePath:   appCfg.GetLogFile(),
		MaxSizeMB:  appCfg.GetLogMaxSizeMB(),
		MaxBackups: appCfg.GetLogMaxBackups(),
		MaxAgeDays: appCfg.GetLogMaxAgeDays(),
	})
	if err != nil {
		return err
	}
	defer log.Sync()

	rdb := redis.NewClient(&redis.Options{Addr: appCfg.GetRedisAddr()})
	defer rdb.Close()

	runJob := func(ctx context.Context, p jobs.GenerateClipsPayload, onProgress func(pct float64, message string), onClipReady func(file string)) (int, error) {
		return pipeline.RunJob(ctx, appCfg, log, p, onProgress, onClipReady)
	}

	w := worker.New(session.NewStore(rdb), runJob, appCfg.GetMaxClips(), log)
	log.Info("worker starting", zap.String("redis", appCfg.GetRedisAddr()))
	return w.Serve(appCfg.GetRedisAddr())
}
