// Package captions synthesizes word-by-word caption timing for a clip
// from transcript segments that carry no reliable word-level timestamps.
package captions

import (
	"sort"
	"strings"

	"github.com/mjkio98/clipforge/internal/types"
)

// Options tune the synthesizer. Zero values fall back to defaults.
type Options struct {
	// LargeSegmentThresholdSec switches a segment to the aggregate
	// regime, where its own timestamps are too coarse to trust.
	LargeSegmentThresholdSec float64
	MinWordDurationSec       float64
	MaxWordDurationSec       float64
	// MinBoundaryTokenLen drops tokens shorter than this at a sliced
	// text boundary, where a proportional cut can split a word.
	MinBoundaryTokenLen int
}

func DefaultOptions() Options {
	return Options{
		LargeSegmentThresholdSec: 120,
		MinWordDurationSec:       0.15,
		MaxWordDurationSec:       2.0,
		MinBoundaryTokenLen:      3,
	}
}

type Synthesizer struct {
	opts Options
}

func New(opts Options) *Synthesizer {
	def := DefaultOptions()
	if opts.LargeSegmentThresholdSec <= 0 {
		opts.LargeSegmentThresholdSec = def.LargeSegmentThresholdSec
	}
	if opts.MinWordDurationSec <= 0 {
		opts.MinWordDurationSec = def.MinWordDurationSec
	}
	if opts.MaxWordDurationSec <= 0 {
		opts.MaxWordDurationSec = def.MaxWordDurationSec
	}
	if opts.MinBoundaryTokenLen <= 0 {
		opts.MinBoundaryTokenLen = def.MinBoundaryTokenLen
	}
	return &Synthesizer{opts: opts}
}

// Synthesize builds the caption track for the clip window
// [clipStartSec, clipEndSec) on the source timeline. Event times are
// clip-local. A window with no extractable words yields an empty track,
// never an error; the clip then renders without captions.
func (s *Synthesizer) Synthesize(segments []types.Segment, clipStartSec, clipEndSec float64) types.CaptionTrack {
	clipDur := clipEndSec - clipStartSec
	if clipDur <= 0 || len(segments) == 0 {
		return types.CaptionTrack{}
	}

	var events []types.WordEvent
	for _, seg := range segments {
		if seg.End <= clipStartSec || seg.Start >= clipEndSec {
			continue
		}
		if seg.DurationSec() >= s.opts.LargeSegmentThresholdSec {
			events = append(events, s.aggregateEvents(seg, clipStartSec, clipEndSec)...)
		} else {
			events = append(events, s.segmentEvents(seg, clipStartSec, clipEndSec)...)
		}
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Start < events[j].Start })
	return types.CaptionTrack{Words: events}
}

// segmentEvents handles a normally sized segment: its start time is
// trusted, so words are laid out from the segment's clip-local offset.
// Segments that began before the clip are skipped whole.
func (s *Synthesizer) segmentEvents(seg types.Segment, clipStart, clipEnd float64) []types.WordEvent {
	startAt := seg.Start - clipStart
	if startAt < 0 {
		return nil
	}
	tokens := markHooks(strings.Fields(seg.Text))
	return s.layout(tokens, seg.DurationSec(), startAt, clipEnd-clipStart)
}

// aggregateEvents handles a segment that spans most of the transcript.
// The text is sliced proportionally by character offset and laid out
// from clip-local zero, since the segment's own timestamps say nothing
// about where inside it the clip falls.
func (s *Synthesizer) aggregateEvents(seg types.Segment, clipStart, clipEnd float64) []types.WordEvent {
	segDur := seg.DurationSec()
	if segDur <= 0 {
		return nil
	}
	relStart := clamp01((clipStart - seg.Start) / segDur)
	relEnd := clamp01((clipEnd - seg.Start) / segDur)
	if relEnd <= relStart {
		return nil
	}

	runes := []rune(seg.Text)
	startChar := int(float64(len(runes)) * relStart)
	endChar := int(float64(len(runes)) * relEnd)
	if startChar >= endChar {
		return nil
	}

	words := strings.Fields(string(runes[startChar:endChar]))
	if startChar > 0 && len(words) > 0 && len([]rune(words[0])) < s.opts.MinBoundaryTokenLen {
		words = words[1:]
	}
	if endChar < len(runes) && len(words) > 0 && len([]rune(words[len(words)-1])) < s.opts.MinBoundaryTokenLen {
		words = words[:len(words)-1]
	}

	clipDur := clipEnd - clipStart
	return s.layout(markHooks(words), clipDur, 0, clipDur)
}

// layout distributes total seconds across tokens by weight, clamps each
// word to the configured bounds, and schedules them back to back from
// startAt. Words are cut at clipDur; words that would start past it are
// dropped.
func (s *Synthesizer) layout(tokens []token, total, startAt, clipDur float64) []types.WordEvent {
	if len(tokens) == 0 || total <= 0 {
		return nil
	}

	weights := make([]float64, len(tokens))
	var sum float64
	for i, tok := range tokens {
		weights[i] = wordWeight(tok.text)
		sum += weights[i]
	}
	if sum <= 0 {
		return nil
	}

	events := make([]types.WordEvent, 0, len(tokens))
	at := startAt
	for i, tok := range tokens {
		d := weights[i] / sum * total
		if d < s.opts.MinWordDurationSec {
			d = s.opts.MinWordDurationSec
		}
		if d > s.opts.MaxWordDurationSec {
			d = s.opts.MaxWordDurationSec
		}
		if at >= clipDur {
			break
		}
		end := at + d
		if end > clipDur {
			end = clipDur
		}
		events = append(events, types.WordEvent{
			Start:    at,
			End:      end,
			Duration: end - at,
			Text:     tok.text,
			Hook:     tok.hook,
		})
		at += d
	}
	return events
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
