// Package boundaries proposes clip windows from a transcript. It is the
// local fallback when no remote suggestion service is configured.
package boundaries

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mjkio98/clipforge/internal/types"
)

type Options struct {
	MinClipSec float64
	MaxClipSec float64
}

func DefaultOptions() Options {
	return Options{MinClipSec: 15, MaxClipSec: 60}
}

type Suggester struct {
	opts Options
}

func New(opts Options) *Suggester {
	def := DefaultOptions()
	if opts.MinClipSec <= 0 {
		opts.MinClipSec = def.MinClipSec
	}
	if opts.MaxClipSec <= 0 || opts.MaxClipSec < opts.MinClipSec {
		opts.MaxClipSec = math.Max(def.MaxClipSec, opts.MinClipSec)
	}
	return &Suggester{opts: opts}
}

// Suggest picks up to maxClips non-overlapping windows, ordered by
// start time and numbered from 1. With no usable transcript it falls
// back to evenly spaced windows over the source duration.
func (s *Suggester) Suggest(ctx context.Context, segments []types.Segment, durationSec float64, maxClips int) ([]types.ClipSpec, error) {
	if maxClips <= 0 || durationSec <= 0 {
		return nil, nil
	}

	cands := s.candidates(segments)
	if len(cands) == 0 {
		return s.evenWindows(durationSec, maxClips), nil
	}

	picked := pickTop(cands, maxClips)
	sort.Slice(picked, func(i, j int) bool { return picked[i].start < picked[j].start })

	specs := make([]types.ClipSpec, 0, len(picked))
	for _, c := range picked {
		start := clamp(c.start, 0, durationSec)
		end := clamp(c.end, 0, durationSec)
		if end <= start {
			continue
		}
		specs = append(specs, types.ClipSpec{
			StartSec:    start,
			EndSec:      end,
			Number:      len(specs) + 1,
			Title:       firstWords(c.text, 6),
			Description: snippet(c.text, 140),
			Reason:      fmt.Sprintf("info %.1f hook %.1f", c.info, c.hook),
		})
	}
	return specs, nil
}

type candidate struct {
	start float64
	end   float64
	text  string
	info  float64
	hook  float64
}

func (c candidate) combined() float64 { return c.hook*1.25 + c.info }

// candidates builds many scored windows. Word timestamps give tighter
// boundaries when present; otherwise whole segments are the grid.
func (s *Suggester) candidates(segments []types.Segment) []candidate {
	words := collectWords(segments)
	if len(words) >= 2 {
		if cands := s.fromWords(words); len(cands) > 0 {
			return cands
		}
	}
	return s.fromSegments(segments)
}

func (s *Suggester) fromSegments(segments []types.Segment) []candidate {
	var out []candidate
	for i := 0; i < len(segments); i++ {
		start := segments[i].Start
		var parts []string
		for j := i; j < len(segments); j++ {
			win := segments[j].End - start
			if win > s.opts.MaxClipSec {
				break
			}
			if t := strings.TrimSpace(segments[j].Text); t != "" {
				parts = append(parts, t)
			}
			if win < s.opts.MinClipSec {
				continue
			}
			text := strings.Join(parts, " ")
			if text == "" {
				continue
			}
			info, hook := scoreText(text)
			out = append(out, candidate{start: start, end: segments[j].End, text: text, info: info, hook: hook})
		}
	}
	return out
}

type timedWord struct {
	start float64
	end   float64
	text  string
}

func collectWords(segments []types.Segment) []timedWord {
	var out []timedWord
	for _, seg := range segments {
		for _, w := range seg.Words {
			if w.End <= w.Start {
				continue
			}
			text := strings.TrimSpace(w.Text)
			if text == "" {
				continue
			}
			out = append(out, timedWord{start: w.Start, end: w.End, text: text})
		}
	}
	return out
}

func (s *Suggester) fromWords(words []timedWord) []candidate {
	// Caps keep runtime predictable on hour-long transcripts while still
	// covering the whole timeline.
	const (
		maxCandidates = 400
		maxWordsInWin = 200
		maxStartCount = 120
		endStride     = 4
	)

	startStride := 1
	if len(words) > maxStartCount {
		startStride = (len(words) + maxStartCount - 1) / maxStartCount
	}
	startIdxs := make([]int, 0, len(words)/startStride+2)
	for i := 0; i < len(words)-1; i += startStride {
		startIdxs = append(startIdxs, i)
	}
	// Keep a near-tail start so the end of the transcript still
	// contributes windows after downsampling.
	lastStart := len(words) - 2
	if lastStart >= 0 && (len(startIdxs) == 0 || startIdxs[len(startIdxs)-1] != lastStart) {
		startIdxs = append(startIdxs, lastStart)
	}

	var out []candidate
	for _, i := range startIdxs {
		start := words[i].start
		parts := make([]string, 0, maxWordsInWin)
		for j := i; j < len(words) && j-i <= maxWordsInWin; j++ {
			parts = append(parts, words[j].text)
			if j == i {
				continue
			}
			if (j-i)%endStride != 0 && j != i+1 {
				continue
			}

			win := words[j].end - start
			if win > s.opts.MaxClipSec {
				break
			}
			if win < s.opts.MinClipSec {
				continue
			}

			text := strings.TrimSpace(strings.Join(parts, " "))
			if text == "" {
				continue
			}
			info, hook := scoreText(text)
			out = append(out, candidate{start: start, end: words[j].end, text: text, info: info, hook: hook})
			if len(out) >= maxCandidates {
				return out
			}
		}
	}
	return out
}

// pickTop greedily takes the best-scored candidates that do not overlap
// anything already taken.
func pickTop(cands []candidate, n int) []candidate {
	sorted := make([]candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].combined() > sorted[j].combined() })

	var out []candidate
	for _, c := range sorted {
		if len(out) >= n {
			break
		}
		overlaps := false
		for _, acc := range out {
			if c.start < acc.end && acc.start < c.end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			out = append(out, c)
		}
	}
	return out
}

// evenWindows spreads up to n windows of the maximum clip length evenly
// across the source, shrinking n when they would not fit.
func (s *Suggester) evenWindows(durationSec float64, n int) []types.ClipSpec {
	l := math.Min(s.opts.MaxClipSec, durationSec)
	if fit := int(durationSec / l); n > fit {
		n = fit
	}
	if n < 1 {
		n = 1
	}

	gap := (durationSec - float64(n)*l) / float64(n+1)
	if gap < 0 {
		gap = 0
	}
	specs := make([]types.ClipSpec, 0, n)
	for i := 0; i < n; i++ {
		start := gap + float64(i)*(l+gap)
		end := math.Min(start+l, durationSec)
		if end <= start {
			break
		}
		specs = append(specs, types.ClipSpec{
			StartSec: start,
			EndSec:   end,
			Number:   i + 1,
			Reason:   "evenly spaced fallback",
		})
	}
	return specs
}

func firstWords(text string, n int) string {
	fields := strings.Fields(text)
	if len(fields) <= n {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[:n], " ") + "..."
}

func snippet(text string, maxRunes int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= maxRunes {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:maxRunes])) + "..."
}
