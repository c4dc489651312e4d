// Package config provides type-safe access to application settings
// backed by viper, loaded from defaults, a config file, or environment.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Configuration provides type-safe access to application settings
type Configuration struct {
	viper *viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.ffmpeg_path", "ffmpeg")
	v.SetDefault("source.ffprobe_path", "ffprobe")

	v.SetDefault("output.width", 720)
	v.SetDefault("output.height", 1280)
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.min_bytes", 1024)

	v.SetDefault("batch.max_clips", 5)
	v.SetDefault("batch.short_cutoff_sec", 60.0)

	v.SetDefault("detect.url", "")
	v.SetDefault("detect.sample_count", 3)
	v.SetDefault("detect.downscale", 224)

	v.SetDefault("captions.large_segment_sec", 120.0)
	v.SetDefault("captions.min_word_sec", 0.15)
	v.SetDefault("captions.max_word_sec", 2.0)
	v.SetDefault("captions.min_boundary_len", 3)

	v.SetDefault("suggest.url", "")
	v.SetDefault("suggest.api_key", "")
	v.SetDefault("suggest.model", "openrouter/auto")
	v.SetDefault("suggest.allowed_hosts", []string{"openrouter.ai"})

	v.SetDefault("redis.addr", "127.0.0.1:6379")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// NewConfiguration creates a new Configuration instance with default settings
func NewConfiguration() *Configuration {
	v := viper.New()
	setDefaults(v)
	return &Configuration{viper: v}
}

// NewConfigurationFromFile creates a Configuration instance from a config file
func NewConfigurationFromFile(configFile string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	return &Configuration{viper: v}, nil
}

// NewConfigurationFromEnv creates a Configuration instance that reads from environment variables
func NewConfigurationFromEnv() (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	// Set up environment variable mapping
	v.SetEnvPrefix("CLIPFORGE")
	v.AutomaticEnv()

	// Map specific environment variables
	v.BindEnv("source.ffmpeg_path", "FFMPEG_PATH")
	v.BindEnv("source.ffprobe_path", "FFPROBE_PATH")
	v.BindEnv("output.width", "OUTPUT_WIDTH")
	v.BindEnv("output.height", "OUTPUT_HEIGHT")
	v.BindEnv("output.dir", "OUTPUT_DIR")
	v.BindEnv("output.min_bytes", "OUTPUT_MIN_BYTES")
	v.BindEnv("batch.max_clips", "MAX_CLIPS")
	v.BindEnv("batch.short_cutoff_sec", "SHORT_CUTOFF_SEC")
	v.BindEnv("detect.url", "DETECT_URL")
	v.BindEnv("detect.sample_count", "DETECT_SAMPLE_COUNT")
	v.BindEnv("detect.downscale", "DETECT_DOWNSCALE")
	v.BindEnv("suggest.url", "SUGGEST_URL")
	v.BindEnv("suggest.api_key", "SUGGEST_API_KEY")
	v.BindEnv("suggest.model", "SUGGEST_MODEL")
	v.BindEnv("suggest.allowed_hosts", "SUGGEST_ALLOWED_HOSTS")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.file", "LOG_FILE")

	return &Configuration{viper: v}, nil
}

// GetFFmpegPath returns the ffmpeg binary to invoke
func (c *Configuration) GetFFmpegPath() string {
	return c.viper.GetString("source.ffmpeg_path")
}

// GetFFprobePath returns the ffprobe binary to invoke
func (c *Configuration) GetFFprobePath() string {
	return c.viper.GetString("source.ffprobe_path")
}

// GetOutputWidth returns the clip frame width in pixels
func (c *Configuration) GetOutputWidth() int {
	return c.viper.GetInt("output.width")
}

// GetOutputHeight returns the clip frame height in pixels
func (c *Configuration) GetOutputHeight() int {
	return c.viper.GetInt("output.height")
}

// GetOutputDir returns the directory clip files and manifests land in
func (c *Configuration) GetOutputDir() string {
	return c.viper.GetString("output.dir")
}

// GetMinOutputBytes returns the size below which an encode is treated as failed
func (c *Configuration) GetMinOutputBytes() int {
	return c.viper.GetInt("output.min_bytes")
}

// GetMaxClips returns the per-batch clip limit
func (c *Configuration) GetMaxClips() int {
	return c.viper.GetInt("batch.max_clips")
}

// GetShortVideoCutoffSec returns the source duration under which only one clip is produced
func (c *Configuration) GetShortVideoCutoffSec() float64 {
	return c.viper.GetFloat64("batch.short_cutoff_sec")
}

// GetDetectorURL returns the face detector endpoint; empty disables detection
func (c *Configuration) GetDetectorURL() string {
	return c.viper.GetString("detect.url")
}

// GetDetectSampleCount returns how many frames are sampled per clip
func (c *Configuration) GetDetectSampleCount() int {
	return c.viper.GetInt("detect.sample_count")
}

// GetDetectDownscaleSize returns the square side frames are downscaled to
func (c *Configuration) GetDetectDownscaleSize() int {
	return c.viper.GetInt("detect.downscale")
}

// GetLargeSegmentSec returns the duration at which a transcript segment
// switches to aggregate caption timing
func (c *Configuration) GetLargeSegmentSec() float64 {
	return c.viper.GetFloat64("captions.large_segment_sec")
}

// GetMinWordSec returns the minimum on-screen duration of a caption word
func (c *Configuration) GetMinWordSec() float64 {
	return c.viper.GetFloat64("captions.min_word_sec")
}

// GetMaxWordSec returns the maximum on-screen duration of a caption word
func (c *Configuration) GetMaxWordSec() float64 {
	return c.viper.GetFloat64("captions.max_word_sec")
}

// GetMinBoundaryTokenLen returns the token length under which sliced
// aggregate boundaries are trimmed
func (c *Configuration) GetMinBoundaryTokenLen() int {
	return c.viper.GetInt("captions.min_boundary_len")
}

// GetSuggestURL returns the clip suggestion API base URL; empty selects
// the built-in transcript heuristics
func (c *Configuration) GetSuggestURL() string {
	return c.viper.GetString("suggest.url")
}

// GetSuggestAPIKey returns the clip suggestion API key
func (c *Configuration) GetSuggestAPIKey() string {
	return c.viper.GetString("suggest.api_key")
}

// GetSuggestModel returns the model the suggestion API is asked to run
func (c *Configuration) GetSuggestModel() string {
	return c.viper.GetString("suggest.model")
}

// GetSuggestAllowedHosts returns the hosts the suggestion base URL may point at
func (c *Configuration) GetSuggestAllowedHosts() []string {
	return c.viper.GetStringSlice("suggest.allowed_hosts")
}

// GetRedisAddr returns the redis host:port used by the job queue and session store
func (c *Configuration) GetRedisAddr() string {
	return c.viper.GetString("redis.addr")
}

// GetLogLevel returns the zap level name
func (c *Configuration) GetLogLevel() string {
	return c.viper.GetString("log.level")
}

// GetLogFile returns the rotating log file path; empty logs to stderr only
func (c *Configuration) GetLogFile() string {
	return c.viper.GetString("log.file")
}

// GetLogMaxSizeMB returns the rotation size threshold
func (c *Configuration) GetLogMaxSizeMB() int {
	return c.viper.GetInt("log.max_size_mb")
}

// GetLogMaxBackups returns how many rotated files are kept
func (c *Configuration) GetLogMaxBackups() int {
	return c.viper.GetInt("log.max_backups")
}

// GetLogMaxAgeDays returns how long rotated files are kept
func (c *Configuration) GetLogMaxAgeDays() int {
	return c.viper.GetInt("log.max_age_days")
}
