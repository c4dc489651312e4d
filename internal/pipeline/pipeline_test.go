package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mjkio98/clipforge/internal/config"
)

func writeTempFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

func validConfig(t *testing.T) Config {
	t.Helper()
	cfg := FromConfiguration(config.NewConfiguration())
	cfg.SourcePath = writeTempFile(t, "source.mp4")
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("accepts a complete config", func(t *testing.T) {
		cfg := validConfig(t)
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate() = %v, want nil", err)
		}
	})

	t.Run("rejects empty source", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.SourcePath = ""
		if err := cfg.Validate(); err == nil {
			t.Fatal("Validate() = nil, want error")
		}
	})

	t.Run("rejects missing source file", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.SourcePath = filepath.Join(t.TempDir(), "absent.mp4")
		if err := cfg.Validate(); err == nil {
			t.Fatal("Validate() = nil, want error")
		}
	})

	t.Run("rejects missing transcript file", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.TranscriptPath = filepath.Join(t.TempDir(), "absent.json")
		if err := cfg.Validate(); err == nil {
			t.Fatal("Validate() = nil, want error")
		}
	})

	t.Run("rejects non-positive max clips", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.MaxClips = 0
		if err := cfg.Validate(); err == nil {
			t.Fatal("Validate() = nil, want error")
		}
	})

	t.Run("rejects odd target dimensions", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.TargetWidth = 719
		if err := cfg.Validate(); err == nil {
			t.Fatal("Validate() = nil, want error")
		}
		cfg = validConfig(t)
		cfg.TargetHeight = 1281
		if err := cfg.Validate(); err == nil {
			t.Fatal("Validate() = nil, want error")
		}
	})

	t.Run("rejects suggest URL off the allow list", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.SuggestAPIKey = "sk-test"
		cfg.SuggestBaseURL = "https://evil.example.com"
		if err := cfg.Validate(); err == nil {
			t.Fatal("Validate() = nil, want error")
		}
	})

	t.Run("accepts allow-listed suggest URL", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.SuggestAPIKey = "sk-test"
		cfg.SuggestBaseURL = "https://openrouter.ai"
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate() = %v, want nil", err)
		}
	})
}

func TestFromConfiguration(t *testing.T) {
	cfg := FromConfiguration(config.NewConfiguration())
	if cfg.TargetWidth != 720 || cfg.TargetHeight != 1280 {
		t.Fatalf("unexpected target size %dx%d", cfg.TargetWidth, cfg.TargetHeight)
	}
	if cfg.MaxClips != 5 {
		t.Fatalf("MaxClips = %d, want 5", cfg.MaxClips)
	}
	if cfg.OutDir != "out" {
		t.Fatalf("OutDir = %q, want %q", cfg.OutDir, "out")
	}
	if cfg.Captions.LargeSegmentThresholdSec != 120 {
		t.Fatalf("LargeSegmentThresholdSec = %v, want 120", cfg.Captions.LargeSegmentThresholdSec)
	}
	if cfg.FFmpegPath != "ffmpeg" || cfg.FFprobePath != "ffprobe" {
		t.Fatalf("unexpected tool paths %q %q", cfg.FFmpegPath, cfg.FFprobePath)
	}
}

func TestBuildRunOutDir(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 30, 45, 1234, time.UTC)
	got := buildRunOutDir("out", "/tmp/My Cool.Video.mp4", now)
	base := filepath.Base(got)
	if filepath.Dir(got) != "out" {
		t.Fatalf("unexpected parent dir: %s", got)
	}
	if !strings.HasPrefix(base, "my-cool-video-20260212-103045Z-") {
		t.Fatalf("unexpected run dir format: %s", base)
	}
	if len(base) != len("my-cool-video-20260212-103045Z-")+6 {
		t.Fatalf("unexpected run dir suffix length: %s", base)
	}
}

func TestNormalizePathSegment(t *testing.T) {
	tests := map[string]string{
		"  My Cool.Video  ": "my-cool-video",
		"___":               "",
		"abc123":            "abc123",
		"Name (v2)!":        "name-v2",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := normalizePathSegment(in); got != want {
				t.Fatalf("normalizePathSegment(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestHashIsStable(t *testing.T) {
	a := hash("same input")
	b := hash("same input")
	if a != b {
		t.Fatalf("hash not deterministic: %q vs %q", a, b)
	}
	if len(a) != 12 {
		t.Fatalf("hash length = %d, want 12", len(a))
	}
	if a == hash("other input") {
		t.Fatal("distinct inputs produced the same hash")
	}
}
