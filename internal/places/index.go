// Package places implements the nearest-name lookup used by ambiguous
// free-text school/place entries: a vector-similarity search over a pre-built
// corpus, optionally restricted to a region. The index is built once at
// startup and never mutated afterwards, so concurrent reads need no locking.
package places

import (
	"fmt"
	"math"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mavunolabs/shamba/internal/domain"
)

const queryCacheSize = 512

// Candidate is one lookup result: a corpus entry with its similarity score
// and approximate coordinate.
type Candidate struct {
	School *domain.School
	Score  float64
}

type doc struct {
	school *domain.School
	vec    map[string]float64
	norm   float64
}

// Index is an immutable character-trigram TF-IDF index over the school
// corpus.
type Index struct {
	docs     []*doc
	byRegion map[string][]int
	idf      map[string]float64
	cache    *lru.Cache[string, []Candidate]
}

// NewIndex builds the index from the corpus. Intended to run once during
// process warm-up.
func NewIndex(schools []*domain.School) (*Index, error) {
	cache, err := lru.New[string, []Candidate](queryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create lookup cache: %w", err)
	}

	ix := &Index{
		byRegion: map[string][]int{},
		idf:      map[string]float64{},
		cache:    cache,
	}

	counts := make([]map[string]int, len(schools))
	df := map[string]int{}
	for i, sc := range schools {
		tf := trigramCounts(sc.Name)
		counts[i] = tf
		for g := range tf {
			df[g]++
		}
	}

	n := float64(len(schools))
	for g, d := range df {
		ix.idf[g] = math.Log(1 + n/float64(d))
	}

	for i, sc := range schools {
		d := &doc{school: sc, vec: map[string]float64{}}
		for g, c := range counts[i] {
			d.vec[g] = float64(c) * ix.idf[g]
		}
		d.norm = norm(d.vec)
		ix.docs = append(ix.docs, d)
		ix.byRegion[sc.RegionID] = append(ix.byRegion[sc.RegionID], i)
	}

	return ix, nil
}

// Size returns the number of indexed corpus entries.
func (ix *Index) Size() int { return len(ix.docs) }

// Lookup returns the topN corpus entries most similar to the free-text query,
// highest score first. If regionID is non-empty the search is restricted to
// that region's entries.
func (ix *Index) Lookup(query, regionID string, topN int) []Candidate {
	if topN <= 0 {
		return nil
	}
	key := fmt.Sprintf("%s|%s|%d", strings.ToLower(strings.TrimSpace(query)), regionID, topN)
	if hit, ok := ix.cache.Get(key); ok {
		return hit
	}

	qtf := trigramCounts(query)
	qvec := map[string]float64{}
	for g, c := range qtf {
		if idf, ok := ix.idf[g]; ok {
			qvec[g] = float64(c) * idf
		}
	}
	qnorm := norm(qvec)
	if qnorm == 0 {
		return nil
	}

	indices := make([]int, 0, len(ix.docs))
	if regionID != "" {
		indices = append(indices, ix.byRegion[regionID]...)
	} else {
		for i := range ix.docs {
			indices = append(indices, i)
		}
	}

	var out []Candidate
	for _, i := range indices {
		d := ix.docs[i]
		if d.norm == 0 {
			continue
		}
		score := dot(qvec, d.vec) / (qnorm * d.norm)
		if score > 0 {
			out = append(out, Candidate{School: d.school, Score: score})
		}
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].School.ID < out[b].School.ID
	})
	if len(out) > topN {
		out = out[:topN]
	}

	ix.cache.Add(key, out)
	return out
}

func trigramCounts(s string) map[string]int {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return nil
	}
	// Pad so short names and word starts still produce grams.
	padded := "  " + s + " "
	counts := map[string]int{}
	runes := []rune(padded)
	for i := 0; i+3 <= len(runes); i++ {
		counts[string(runes[i:i+3])]++
	}
	return counts
}

func dot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for g, v := range a {
		sum += v * b[g]
	}
	return sum
}

func norm(v map[string]float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
