// Package fuzzy scores how well a catalog name matches a typed phrase.
//
// Words are compared with an Indel ratio and aligned greedily in order: each
// query word takes its best match among the candidate words that follow the
// previous match. Names containing anything besides ASCII letters and digits
// are also scored with punctuation removed, minus a small penalty.
package fuzzy

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PunctuationPenalty is subtracted from the punctuation-insensitive score.
const PunctuationPenalty = 2

// Casers keep internal state, so each goroutine borrows its own.
var casers = sync.Pool{
	New: func() any { return cases.Lower(language.Und) },
}

func lower(s string) string {
	c := casers.Get().(cases.Caser)
	defer casers.Put(c)
	return c.String(s)
}

// Score returns the similarity in [0,100] between a candidate name and a
// query phrase. An exact case-insensitive match scores 100. A query without
// words scores 0.
func Score(candidate, query string) float64 {
	candLower := lower(candidate)
	queryLower := lower(query)

	best := phraseScore(strings.Fields(candLower), strings.Fields(queryLower))

	if hasNonAlnum(candidate) {
		stripped := phraseScore(
			strings.Fields(stripPunctuation(candLower, false)),
			strings.Fields(stripPunctuation(queryLower, false)),
		)
		broken := phraseScore(
			strings.Fields(stripPunctuation(candLower, true)),
			strings.Fields(stripPunctuation(queryLower, true)),
		)
		if alt := max(stripped, broken) - PunctuationPenalty; alt > best {
			best = alt
		}
	}
	return best
}

// phraseScore aligns query words against candidate words in order.
func phraseScore(candWords, queryWords []string) float64 {
	if len(queryWords) == 0 {
		return 0
	}

	cand := make([][]rune, len(candWords))
	for i, w := range candWords {
		cand[i] = []rune(w)
	}

	total := 0
	start := 0
	for _, qw := range queryWords {
		q := []rune(qw)
		bestScore, bestIdx := 0, -1
		for i := start; i < len(cand); i++ {
			if s := ratioRunes(q, cand[i]); s > bestScore {
				bestScore, bestIdx = s, i
			}
		}
		// The cursor only moves when something matched.
		if bestScore > 0 {
			start = bestIdx + 1
		}
		total += bestScore
	}
	return float64(total) / float64(len(queryWords))
}

func hasNonAlnum(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r)
}

// stripPunctuation removes every rune that is neither a word rune nor
// whitespace. With asBreak set the rune becomes a space instead, so
// "half-life" splits into two words.
func stripPunctuation(s string, asBreak bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case isWordRune(r), unicode.IsSpace(r):
			b.WriteRune(r)
		case asBreak:
			b.WriteByte(' ')
		}
	}
	return b.String()
}
