package subtitles

import (
	"strings"
	"testing"

	"github.com/mjkio98/clipforge/internal/types"
)

func word(start, dur float64, text string) types.WordEvent {
	return types.WordEvent{Start: start, End: start + dur, Duration: dur, Text: text}
}

func TestRenderKaraokeTags(t *testing.T) {
	track := types.CaptionTrack{Words: []types.WordEvent{
		word(0, 0.3, "Hello"),
		word(0.3, 0.5, "world"),
	}}

	ass := Render(track)
	if !strings.Contains(ass, "{\\k30}Hello") {
		t.Fatalf("expected 30cs karaoke tag for Hello, got:\n%s", ass)
	}
	if !strings.Contains(ass, "{\\k50}world") {
		t.Fatalf("expected 50cs karaoke tag for world, got:\n%s", ass)
	}
	if !strings.Contains(ass, "Dialogue: 0,0:00:00.00,0:00:00.80,Clip") {
		t.Fatalf("expected dialogue line spanning both words, got:\n%s", ass)
	}
}

func TestRenderEmptyTrack(t *testing.T) {
	if got := Render(types.CaptionTrack{}); got != "" {
		t.Fatalf("empty track rendered %q, want empty string", got)
	}
}

func TestRenderHookColour(t *testing.T) {
	hook := word(0, 0.5, "secret")
	hook.Hook = true
	track := types.CaptionTrack{Words: []types.WordEvent{
		word(0, 0.4, "the"),
		hook,
	}}

	ass := Render(track)
	if !strings.Contains(ass, "\\c&H00D2FF&}secret{\\c}") {
		t.Fatalf("expected colour override around hook word, got:\n%s", ass)
	}
	if strings.Contains(ass, "\\c&H00D2FF&}the") {
		t.Fatalf("plain word got hook styling:\n%s", ass)
	}
}

func TestRenderGapSyllable(t *testing.T) {
	track := types.CaptionTrack{Words: []types.WordEvent{
		word(0, 0.5, "one"),
		word(1.0, 0.5, "two"),
	}}

	ass := Render(track)
	// The half-second silence becomes an empty syllable before "two".
	if !strings.Contains(ass, "{\\k50}{\\k50}two") {
		t.Fatalf("expected gap syllable before second word, got:\n%s", ass)
	}
}

func TestPackWordsBudgets(t *testing.T) {
	t.Run("word budget", func(t *testing.T) {
		var words []types.WordEvent
		for i := 0; i < 12; i++ {
			words = append(words, word(float64(i), 1, "x"))
		}
		lines := packWords(words)
		if len(lines) != 2 || len(lines[0].words) != 9 || len(lines[1].words) != 3 {
			t.Fatalf("got %d lines, want 9+3 word split", len(lines))
		}
	})

	t.Run("char budget", func(t *testing.T) {
		var words []types.WordEvent
		for i := 0; i < 6; i++ {
			words = append(words, word(float64(i), 1, "abcdefghij"))
		}
		lines := packWords(words)
		if len(lines) != 2 || len(lines[0].words) != 3 {
			t.Fatalf("got %+v, want lines of 3 ten-char words", lines)
		}
	})

	t.Run("long silence splits the line", func(t *testing.T) {
		words := []types.WordEvent{
			word(0, 0.5, "before"),
			word(5, 0.5, "after"),
		}
		lines := packWords(words)
		if len(lines) != 2 {
			t.Fatalf("got %d lines, want silence to split them", len(lines))
		}
		if lines[1].start != 5 {
			t.Fatalf("second line starts at %f, want 5", lines[1].start)
		}
	})
}

func TestAssTime(t *testing.T) {
	tests := []struct {
		sec  float64
		want string
	}{
		{61.234, "0:01:01.23"},
		{0, "0:00:00.00"},
		{3600, "1:00:00.00"},
		{-1, "0:00:00.00"},
	}
	for _, tt := range tests {
		if got := assTime(tt.sec); got != tt.want {
			t.Fatalf("assTime(%f) = %s, want %s", tt.sec, got, tt.want)
		}
	}
}

func TestSanitizeASS(t *testing.T) {
	if got := sanitizeASS(`a{b}\c`); got != `a(b)\\c` {
		t.Fatalf("sanitizeASS = %q", got)
	}
}
