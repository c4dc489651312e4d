// Package subtitles renders caption tracks as ASS karaoke documents for
// burn-in on vertical clips.
package subtitles

import (
	"fmt"
	"math"
	"strings"

	"github.com/mjkio98/clipforge/internal/types"
)

// Hard budgets trade exact transcript grouping for consistently readable
// subtitle chunks on vertical-video layouts.
const (
	charBudget = 42
	wordBudget = 9
	// Silences longer than this break the line instead of letting it
	// linger on screen.
	maxGapSec = 1.5
)

// Render produces an ASS document with word-level karaoke timing. Hook
// words get an inline colour override. An empty track renders to an
// empty string; callers then encode without captions.
func Render(track types.CaptionTrack) string {
	if track.Empty() {
		return ""
	}
	lines := packWords(track.Words)

	var b strings.Builder
	b.WriteString(assHeader())
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, ln := range lines {
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(ln.start))
		b.WriteString(",")
		b.WriteString(assTime(ln.end))
		b.WriteString(",Clip,,0,0,0,,")
		cursor := ln.start
		for _, w := range ln.words {
			// An empty syllable holds karaoke time across silent gaps so
			// the highlight stays aligned with the audio.
			if gap := centiseconds(w.Start - cursor); gap > 0 {
				b.WriteString(fmt.Sprintf("{\\k%d}", gap))
			}
			durCS := centiseconds(w.Duration)
			if durCS < 1 {
				durCS = 1
			}
			text := sanitizeASS(w.Text)
			if w.Hook {
				b.WriteString(fmt.Sprintf("{\\k%d\\c&H00D2FF&}%s{\\c} ", durCS, text))
			} else {
				b.WriteString(fmt.Sprintf("{\\k%d}%s ", durCS, text))
			}
			cursor = w.End
		}
		b.WriteString("\n")
	}
	return b.String()
}

type line struct {
	start float64
	end   float64
	words []types.WordEvent
}

func packWords(words []types.WordEvent) []line {
	var out []line
	cur := line{start: words[0].Start}
	curLen := 0
	flush := func() {
		cur.end = cur.words[len(cur.words)-1].End
		out = append(out, cur)
	}
	for _, w := range words {
		wl := len([]rune(w.Text))
		nextLen := curLen
		if curLen > 0 {
			nextLen++
		}
		nextLen += wl
		gap := 0.0
		if len(cur.words) > 0 {
			gap = w.Start - cur.words[len(cur.words)-1].End
		}
		if len(cur.words) > 0 && (len(cur.words) >= wordBudget || nextLen > charBudget || gap > maxGapSec) {
			flush()
			cur = line{start: w.Start}
			curLen = 0
		}
		cur.words = append(cur.words, w)
		if curLen > 0 {
			curLen++
		}
		curLen += wl
	}
	flush()
	return out
}

func assHeader() string {
	return strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: 1080
PlayResY: 1920
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Clip, Inter, 110, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,8,3,2, 60,60,320,1
`)
}

// assTime formats clip-local seconds as H:MM:SS.CC.
func assTime(sec float64) string {
	cs := centiseconds(sec)
	if cs < 0 {
		cs = 0
	}
	h := cs / 360000
	cs -= h * 360000
	m := cs / 6000
	cs -= m * 6000
	s := cs / 100
	cs -= s * 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

func centiseconds(sec float64) int {
	return int(math.Round(sec * 100))
}

// sanitizeASS keeps caption text from being parsed as override tags.
func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}
