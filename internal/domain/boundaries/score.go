package boundaries

import (
	"regexp"
	"strings"
)

var (
	reNumber = regexp.MustCompile(`\b\d+(?:[.,]\d+)?\b`)
	reHook   = regexp.MustCompile(`(?i)\b(secret|mistake|never|always|important|warning|truth|shocking|amazing|revealed)\b`)
	reHowTo  = regexp.MustCompile(`(?i)\b(how\s+to|step\s+\d+|first|second|third|here\s+is|do\s+this)\b`)
)

// scoreText rates a window's text for information density and hook
// strength, both in [0,10]. Deterministic and cheap on purpose: it only
// pre-ranks windows before selection.
func scoreText(text string) (info, hook float64) {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0, 0
	}
	lower := strings.ToLower(t)

	info = float64(len(reNumber.FindAllStringIndex(t, -1))) * 0.4
	if reHowTo.MatchString(lower) {
		info += 1.2
	}
	// Long rambling windows dilute their own content.
	info -= 0.0006 * float64(len([]rune(t)))

	hook = float64(len(reHook.FindAllStringIndex(lower, -1))) * 0.9
	hook += float64(strings.Count(t, "?")) * 0.7
	hook += float64(strings.Count(t, "!")) * 0.3

	return clamp(info, 0, 10), clamp(hook, 0, 10)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
