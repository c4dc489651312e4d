package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfiguration_Defaults(t *testing.T) {
	t.Run("should expose sane defaults without any source", func(t *testing.T) {
		// Arrange
		cfg := NewConfiguration()

		// Assert
		assert.Equal(t, "ffmpeg", cfg.GetFFmpegPath())
		assert.Equal(t, 720, cfg.GetOutputWidth())
		assert.Equal(t, 1280, cfg.GetOutputHeight())
		assert.Equal(t, 5, cfg.GetMaxClips())
		assert.Equal(t, 60.0, cfg.GetShortVideoCutoffSec())
		assert.Equal(t, 1024, cfg.GetMinOutputBytes())
		assert.Equal(t, 3, cfg.GetDetectSampleCount())
		assert.Equal(t, 224, cfg.GetDetectDownscaleSize())
		assert.Equal(t, 120.0, cfg.GetLargeSegmentSec())
		assert.Equal(t, []string{"openrouter.ai"}, cfg.GetSuggestAllowedHosts())
		assert.Empty(t, cfg.GetDetectorURL(), "detection should be off by default")
		assert.Empty(t, cfg.GetSuggestURL(), "remote suggestions should be off by default")
		assert.Equal(t, "info", cfg.GetLogLevel())
	})
}

func TestConfiguration_FromFile(t *testing.T) {
	t.Run("should load settings from a config file", func(t *testing.T) {
		// Arrange - create temporary config file
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")
		configContent := `output:
  width: 1080
  height: 1920
detect:
  url: "http://localhost:8080"
suggest:
  url: "https://openrouter.ai/api/v1"
  api_key: "sk-test"
`
		err := os.WriteFile(configFile, []byte(configContent), 0644)
		assert.NoError(t, err)

		// Act
		cfg, err := NewConfigurationFromFile(configFile)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, 1080, cfg.GetOutputWidth())
		assert.Equal(t, 1920, cfg.GetOutputHeight())
		assert.Equal(t, "http://localhost:8080", cfg.GetDetectorURL())
		assert.Equal(t, "https://openrouter.ai/api/v1", cfg.GetSuggestURL())
		assert.Equal(t, "sk-test", cfg.GetSuggestAPIKey())
	})

	t.Run("should keep defaults for keys the file omits", func(t *testing.T) {
		// Arrange
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "minimal.yaml")
		configContent := `batch:
  max_clips: 3`

		err := os.WriteFile(configFile, []byte(configContent), 0644)
		assert.NoError(t, err)

		cfg, err := NewConfigurationFromFile(configFile)
		assert.NoError(t, err)

		// Assert
		assert.Equal(t, 3, cfg.GetMaxClips())
		assert.Equal(t, 720, cfg.GetOutputWidth())
		assert.Equal(t, "ffmpeg", cfg.GetFFmpegPath())
	})

	t.Run("should return error for non-existent config file", func(t *testing.T) {
		// Act
		cfg, err := NewConfigurationFromFile("/tmp/non-existent-clipforge.yaml")

		// Assert
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("should return error for invalid config file format", func(t *testing.T) {
		// Arrange - create invalid YAML file
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "invalid.yaml")
		invalidContent := `output:
  width: 1080
invalid_yaml: [unclosed_bracket`

		err := os.WriteFile(configFile, []byte(invalidContent), 0644)
		assert.NoError(t, err)

		// Act
		cfg, err := NewConfigurationFromFile(configFile)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})
}

func TestConfiguration_FromEnv(t *testing.T) {
	t.Run("should load settings from environment variables", func(t *testing.T) {
		// Arrange
		os.Setenv("FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")
		os.Setenv("DETECT_URL", "http://facebox:8080")
		os.Setenv("REDIS_ADDR", "redis:6379")
		defer os.Unsetenv("FFMPEG_PATH")
		defer os.Unsetenv("DETECT_URL")
		defer os.Unsetenv("REDIS_ADDR")

		cfg, err := NewConfigurationFromEnv()
		assert.NoError(t, err)

		// Assert
		assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.GetFFmpegPath())
		assert.Equal(t, "http://facebox:8080", cfg.GetDetectorURL())
		assert.Equal(t, "redis:6379", cfg.GetRedisAddr())
	})

	t.Run("should fall back to defaults when environment is empty", func(t *testing.T) {
		// Arrange
		os.Unsetenv("OUTPUT_WIDTH")

		cfg, err := NewConfigurationFromEnv()
		assert.NoError(t, err)

		// Assert
		assert.Equal(t, 720, cfg.GetOutputWidth())
	})
}
