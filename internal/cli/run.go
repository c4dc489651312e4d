package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mjkio98/clipforge/internal/config"
	"github.com/mjkio98/clipforge/internal/jobs"
	"github.com/mjkio98/clipforge/internal/logger"
	"github.com/mjkio98/clipforge/internal/pipeline"
	"github.com/mjkio98/clipforge/internal/session"
	"github.com/mjkio98/clipforge/internal/types"
	"github.com/mjkio98/clipforge/internal/worker"
)

// runTimeout bounds a full in-process generation, transcode included.
const runTimeout = 3 * time.Hour

func runGenerate(cmd *cobra.Command, input string) error {
	appCfg, err := loadConfiguration(cmd)
	if err != nil {
		return err
	}
	log, err := buildLogger(appCfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg := pipeline.FromConfiguration(appCfg)
	cfg.SourcePath, cfg.TranscriptPath, err = resolveInputs(cmd, input)
	if err != nil {
		return err
	}
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		cfg.OutDir = out
	}
	if n, _ := cmd.Flags().GetInt("clips"); n > 0 && n < cfg.MaxClips {
		cfg.MaxClips = n
	}
	cfg.Logger = log

	stdout := cmd.OutOrStdout()
	cfg.OnProgress = func(pct float64, message string) {
		fmt.Fprintf(stdout, "[%5.1f%%] %s\n", pct, message)
	}
	cfg.OnClipReady = func(file string, clip types.ProcessedClip) {
		fmt.Fprintf(stdout, "clip %d ready: %s\n", clip.Number, file)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "done: %d/%d clips in %s\n",
		res.Manifest.Produced, res.Manifest.Requested, res.RunDir)
	return nil
}

func runSubmit(cmd *cobra.Command, input string) error {
	appCfg, err := loadConfiguration(cmd)
	if err != nil {
		return err
	}

	p := jobs.GenerateClipsPayload{}
	p.SourcePath, p.TranscriptPath, err = resolveInputs(cmd, input)
	if err != nil {
		return err
	}
	p.OutDir, _ = cmd.Flags().GetString("out")
	p.MaxClips, _ = cmd.Flags().GetInt("clips")

	sid, err := worker.Enqueue(cmd.Context(), appCfg.GetRedisAddr(), p)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), sid)
	return nil
}

func runStatus(cmd *cobra.Command, sid string) error {
	appCfg, err := loadConfiguration(cmd)
	if err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{Addr: appCfg.GetRedisAddr()})
	defer rdb.Close()

	snap, err := session.NewStore(rdb).Snapshot(cmd.Context(), sid)
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "state:    %s\n", snap.State)
	fmt.Fprintf(stdout, "progress: %.1f%% %s\n", snap.Pct, snap.Message)
	fmt.Fprintf(stdout, "clips:    %d/%d\n", snap.Produced, snap.Requested)
	for _, f := range snap.Clips {
		fmt.Fprintf(stdout, "  %s\n", f)
	}
	return nil
}

// resolveInputs turns the positional video argument and the transcript
// flag into absolute paths.
func resolveInputs(cmd *cobra.Command, input string) (source, transcript string, err error) {
	source, err = filepath.Abs(input)
	if err != nil {
		return "", "", err
	}
	if tp, _ := cmd.Flags().GetString("transcript"); tp != "" {
		transcript, err = filepath.Abs(tp)
		if err != nil {
			return "", "", err
		}
	}
	return source, transcript, nil
}

func loadConfiguration(cmd *cobra.Command) (*config.Configuration, error) {
	if file, _ := cmd.Flags().GetString("config"); file != "" {
		return config.NewConfigurationFromFile(file)
	}
	return config.NewConfigurationFromEnv()
}

func buildLogger(appCfg *config.Configuration) (*zap.Logger, error) {
	return logger.New(logger.Options{
		Level:      appCfg.GetLogLevel(),
		FilePath:   appCfg.GetLogFile(),
		MaxSizeMB:  appCfg.GetLogMaxSizeMB(),
		MaxBackups: appCfg.GetLogMaxBackups(),
		MaxAgeDays: appCfg.GetLogMaxAgeDays(),
	})
}
