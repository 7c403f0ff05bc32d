// Package classification scores emails against weighted keyword taxonomies.
package classification

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// WeightedPhrase is one keyword or phrase with its contribution per occurrence.
type WeightedPhrase struct {
	Phrase string
	Weight float64
}

// Taxonomy is an ordered set of labels, each with its weighted phrases.
// Label order decides ties.
type Taxonomy[L comparable] struct {
	Labels  []L
	Phrases map[L][]WeightedPhrase
}

// KeywordScorer computes whole-word keyword scores over a taxonomy.
type KeywordScorer[L comparable] struct {
	taxonomy Taxonomy[L]
	fallback L
}

// NewKeywordScorer builds a scorer. fallback is returned by Classify when nothing scores.
func NewKeywordScorer[L comparable](taxonomy Taxonomy[L], fallback L) *KeywordScorer[L] {
	lowered := make(map[L][]WeightedPhrase, len(taxonomy.Phrases))
	for label, phrases := range taxonomy.Phrases {
		out := make([]WeightedPhrase, len(phrases))
		for i, p := range phrases {
			out[i] = WeightedPhrase{Phrase: lower(p.Phrase), Weight: p.Weight}
		}
		lowered[label] = out
	}
	return &KeywordScorer[L]{
		taxonomy: Taxonomy[L]{Labels: taxonomy.Labels, Phrases: lowered},
		fallback: fallback,
	}
}

// Score returns the weighted sum of whole-word phrase occurrences for label.
func (s *KeywordScorer[L]) Score(text string, label L) float64 {
	return s.score(lower(text), label)
}

func (s *KeywordScorer[L]) score(lowered string, label L) float64 {
	var total float64
	for _, p := range s.taxonomy.Phrases[label] {
		if n := countWholeWord(lowered, p.Phrase); n > 0 {
			total += float64(n) * p.Weight
		}
	}
	return total
}

// Scores returns the score of every label with a positive score.
func (s *KeywordScorer[L]) Scores(text string) map[L]float64 {
	lowered := lower(text)
	out := make(map[L]float64)
	for _, label := range s.taxonomy.Labels {
		if v := s.score(lowered, label); v > 0 {
			out[label] = v
		}
	}
	return out
}

// Classify returns the best-scoring label and its share of the total score.
// Ties go to the label declared first. With no positive score it returns (fallback, 0).
func (s *KeywordScorer[L]) Classify(text string) (L, float64) {
	lowered := lower(text)

	var (
		best      L
		bestScore float64
		sum       float64
	)
	for _, label := range s.taxonomy.Labels {
		v := s.score(lowered, label)
		if v <= 0 {
			continue
		}
		sum += v
		if v > bestScore {
			best, bestScore = label, v
		}
	}

	if sum == 0 {
		return s.fallback, 0
	}
	return best, bestScore / sum
}

// lower folds text with Russian casing rules. A Caser is not safe for
// concurrent use, so one is built per call.
func lower(text string) string {
	return cases.Lower(language.Russian).String(text)
}

// countWholeWord counts non-overlapping occurrences of phrase bounded by
// non-word runes on both sides. regexp's \b is ASCII-only, so Cyrillic
// boundaries are checked by hand.
func countWholeWord(text, phrase string) int {
	if phrase == "" {
		return 0
	}

	count := 0
	offset := 0
	for offset <= len(text)-len(phrase) {
		idx := strings.Index(text[offset:], phrase)
		if idx < 0 {
			break
		}
		start := offset + idx
		end := start + len(phrase)

		if boundaryBefore(text, start, phrase) && boundaryAfter(text, end, phrase) {
			count++
			offset = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return count
}

// A word boundary exists between a word rune and a non-word rune. When the
// phrase itself starts or ends with a non-word rune, the neighbour must be a
// word rune for a boundary to exist.
func boundaryBefore(text string, start int, phrase string) bool {
	first, _ := utf8.DecodeRuneInString(phrase)
	prevWord := false
	if start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		prevWord = isWordRune(prev)
	}
	return prevWord != isWordRune(first)
}

func boundaryAfter(text string, end int, phrase string) bool {
	last, _ := utf8.DecodeLastRuneInString(phrase)
	nextWord := false
	if end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		nextWord = isWordRune(next)
	}
	return nextWord != isWordRune(last)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
