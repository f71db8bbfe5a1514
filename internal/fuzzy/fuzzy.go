// Package fuzzy implements free-text matching against controlled
// vocabularies. It is pure: no I/O, no shared state.
package fuzzy

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// DefaultCutoff is the minimum similarity ratio for an n-gram to count as a
// match against a vocabulary term.
const DefaultCutoff = 0.75

// maxNgramWords bounds candidate n-grams to 1-3 words.
const maxNgramWords = 3

var (
	segmentSplitRe = regexp.MustCompile(`,|\band\b`)
	nonWordRe      = regexp.MustCompile(`[^a-z0-9]+`)
)

// Extraction is the result of matching free text against a vocabulary.
type Extraction struct {
	// Choices are the matched vocabulary terms, deduplicated, sorted.
	Choices []string
	// Unmatched counts the non-space characters of the input left
	// unexplained by any selected match. Retained as a data-quality audit
	// signal alongside the raw text.
	Unmatched int
}

// FindChoicesRaw segments free text and matches it against a controlled
// vocabulary. The text is split on commas and the word "and"; within each
// segment, word n-grams (1-3 words) are scored against every vocabulary term
// and the highest-scoring non-overlapping combination above the cutoff is
// selected by score-weighted character coverage.
func FindChoicesRaw(text string, vocabulary []string) Extraction {
	return FindChoices(text, vocabulary, DefaultCutoff)
}

// FindChoices is FindChoicesRaw with an explicit similarity cutoff.
func FindChoices(text string, vocabulary []string, cutoff float64) Extraction {
	vocab := make([]string, 0, len(vocabulary))
	for _, v := range vocabulary {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			vocab = append(vocab, v)
		}
	}

	chosen := map[string]bool{}
	unmatched := 0
	for _, segment := range segmentSplitRe.Split(strings.ToLower(text), -1) {
		words := strings.Fields(nonWordRe.ReplaceAllString(segment, " "))
		if len(words) == 0 {
			continue
		}
		terms, covered := matchSegment(words, vocab, cutoff)
		for _, t := range terms {
			chosen[t] = true
		}
		total := 0
		for _, w := range words {
			total += len(w)
		}
		unmatched += total - covered
	}

	choices := make([]string, 0, len(chosen))
	for t := range chosen {
		choices = append(choices, t)
	}
	sort.Strings(choices)
	return Extraction{Choices: choices, Unmatched: unmatched}
}

// candidate is one scored n-gram: words[start:end) matched term with ratio
// score, explaining chars non-space characters.
type candidate struct {
	start, end int
	term       string
	score      float64
	chars      int
}

// matchSegment scores all 1-3 word n-grams of the segment against the
// vocabulary and picks the non-overlapping combination with the greatest
// score-weighted character coverage (weighted interval scheduling over word
// positions). Returns the matched terms and the character count they cover.
func matchSegment(words, vocab []string, cutoff float64) ([]string, int) {
	var cands []candidate
	for i := 0; i < len(words); i++ {
		for j := i + 1; j <= len(words) && j-i <= maxNgramWords; j++ {
			gram := strings.Join(words[i:j], " ")
			chars := 0
			for _, w := range words[i:j] {
				chars += len(w)
			}
			for _, term := range vocab {
				score := similarity(gram, term)
				if score >= cutoff {
					cands = append(cands, candidate{start: i, end: j, term: term, score: score, chars: chars})
				}
			}
		}
	}
	if len(cands) == 0 {
		return nil, 0
	}

	// Keep only the best-scoring term per span; ties broken by vocabulary
	// order (earlier wins) via stable iteration above.
	best := map[[2]int]candidate{}
	for _, c := range cands {
		key := [2]int{c.start, c.end}
		if prev, ok := best[key]; !ok || c.score > prev.score {
			best[key] = c
		}
	}
	spans := make([]candidate, 0, len(best))
	for _, c := range best {
		spans = append(spans, c)
	}
	sort.Slice(spans, func(a, b int) bool {
		if spans[a].end != spans[b].end {
			return spans[a].end < spans[b].end
		}
		return spans[a].start < spans[b].start
	})

	// dp[k] = best total weight using spans[0:k]; pick[k] records selection.
	type cell struct {
		weight float64
		take   bool
		prev   int // index into spans of the last taken span before this one
	}
	dp := make([]cell, len(spans)+1)
	for k := 1; k <= len(spans); k++ {
		sp := spans[k-1]
		// Skip this span.
		dp[k] = cell{weight: dp[k-1].weight, take: false, prev: -1}
		// Take it: find the last span ending at or before sp.start.
		p := 0
		for q := k - 1; q >= 1; q-- {
			if spans[q-1].end <= sp.start {
				p = q
				break
			}
		}
		w := dp[p].weight + sp.score*float64(sp.chars)
		if w > dp[k].weight {
			dp[k] = cell{weight: w, take: true, prev: p}
		}
	}

	var terms []string
	covered := 0
	for k := len(spans); k > 0; {
		if dp[k].take {
			sp := spans[k-1]
			terms = append(terms, sp.term)
			covered += sp.chars
			k = dp[k].prev
		} else {
			k--
		}
	}
	return terms, covered
}

// Ratio exposes the underlying similarity measure (0..1) used by the
// extractor, for callers that need to compare two bare strings.
func Ratio(a, b string) float64 {
	return similarity(strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b)))
}

// similarity scores two lowercase strings. The library measure charges an
// adjacent transposition ("gaots" for "goats") two edits, which drops a
// common one-keystroke typo below the match cutoff, so a transposition-aware
// alignment supplements it and the higher score wins.
func similarity(a, b string) float64 {
	base := levenshtein.Match(a, b, nil)
	if t := transpositionMatch(a, b); t > base {
		return t
	}
	return base
}

// transpositionMatch is an optimal-string-alignment similarity: edit distance
// with adjacent transpositions as single edits, normalized by the longer
// length.
func transpositionMatch(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	n, m := len(ra), len(rb)
	if n == 0 || m == 0 {
		if n == m {
			return 1
		}
		return 0
	}

	prev2 := make([]int, m+1)
	prev := make([]int, m+1)
	cur := make([]int, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = j
	}
	for i := 1; i <= n; i++ {
		cur[0] = i
		for j := 1; j <= m; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d := min(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				d = min(d, prev2[j-2]+1)
			}
			cur[j] = d
		}
		prev2, prev, cur = prev, cur, prev2
	}

	dist := prev[m]
	longer := max(n, m)
	return 1 - float64(dist)/float64(longer)
}
