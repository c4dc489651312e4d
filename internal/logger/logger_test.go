package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Run("should write JSON lines into the rotating file", func(t *testing.T) {
		// Arrange
		logFile := filepath.Join(t.TempDir(), "clipforge.log")

		logger, err := New(Options{Level: "debug", FilePath: logFile})
		assert.NoError(t, err)

		// Act
		logger.Info("batch started", zap.Int("clips", 3))
		logger.Sync()

		// Assert
		data, err := os.ReadFile(logFile)
		assert.NoError(t, err)
		assert.Contains(t, string(data), "batch started")
		assert.Contains(t, string(data), `"clips":3`)
	})

	t.Run("should work without a file sink", func(t *testing.T) {
		// Act
		logger, err := New(Options{Level: "warn"})

		// Assert
		assert.NoError(t, err)
		assert.NotNil(t, logger)
		assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	})

	t.Run("should default to info level", func(t *testing.T) {
		logger, err := New(Options{})
		assert.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zap.InfoLevel))
		assert.False(t, logger.Core().Enabled(zap.DebugLevel))
	})

	t.Run("should reject unknown level names", func(t *testing.T) {
		// Act
		logger, err := New(Options{Level: "loud"})

		// Assert
		assert.Error(t, err)
		assert.Nil(t, logger)
	})
}
