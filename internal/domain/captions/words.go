package captions

import (
	"strings"
	"unicode"
)

type token struct {
	text string
	hook bool
}

// markHooks flags words worth visual emphasis: the first and last word
// of a list long enough to have a lead-in and payoff, plus anything in
// the hook vocabulary.
func markHooks(words []string) []token {
	toks := make([]token, len(words))
	edges := len(words) > 3
	for i, w := range words {
		hook := edges && (i == 0 || i == len(words)-1)
		if !hook {
			_, hook = hookWords[cleanWord(w)]
		}
		toks[i] = token{text: w, hook: hook}
	}
	return toks
}

// wordWeight estimates relative screen time for a word. Purely
// multiplicative, so factor order does not matter.
func wordWeight(word string) float64 {
	runes := []rune(word)
	if len(runes) == 0 {
		return 0
	}

	w := 1.0
	w *= 0.7 + float64(len(runes))/5.0*0.6
	w *= 0.8 + float64(syllables(word))*0.15

	switch last := runes[len(runes)-1]; {
	case strings.ContainsRune(".!?;", last):
		w *= 1.4
	case strings.ContainsRune(",:", last):
		w *= 1.2
	}

	clean := cleanWord(word)
	if _, ok := commonWords[clean]; ok {
		w *= 0.7
	}
	if _, ok := emphasisWords[clean]; ok {
		w *= 1.3
	}
	if strings.ContainsAny(word, "0123456789") {
		w *= 1.2
	}
	return w
}

// syllables approximates the syllable count by counting vowels,
// never returning less than 1.
func syllables(word string) int {
	n := 0
	for _, r := range strings.ToLower(word) {
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
			n++
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

// cleanWord lowercases and strips everything but letters and digits.
func cleanWord(word string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(word) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func wordSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

// Function words read fast; they get less screen time.
var commonWords = wordSet(`
	the a an and or but in on at to for of with by
	is are was were be been it that this these those
	i you he she we they as from have has
`)

// Words a speaker leans on; they get more screen time.
var emphasisWords = wordSet(`
	never always must amazing incredible important critical
	huge massive insane crazy best worst ultimate powerful
`)

// Attention-grabbing vocabulary rendered with emphasis styling.
var hookWords = wordSet(`
	amazing shocking secret incredible unbelievable revealed
	exposed truth warning mistake never stop why how free
`)
