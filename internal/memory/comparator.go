package memory

import (
	"math"
	"strings"
	"sync"
)

// Comparator scores semantic similarity between a query and a memory text in
// [0, 1]. The default is lexical; an embedding-backed implementation can be
// swapped in without touching retrieval.
type Comparator interface {
	Similarity(query, text string) float64
}

// LexicalComparator is a token-frequency cosine similarity with a vector
// cache, good enough to make hybrid retrieval meaningful without an
// embedding service.
type LexicalComparator struct {
	mu    sync.Mutex
	cache map[string]map[string]float64
}

// NewLexicalComparator creates an empty comparator.
func NewLexicalComparator() *LexicalComparator {
	return &LexicalComparator{cache: make(map[string]map[string]float64)}
}

// Similarity implements Comparator.
func (c *LexicalComparator) Similarity(query, text string) float64 {
	qv := c.vector(query)
	tv := c.vector(text)
	if len(qv) == 0 || len(tv) == 0 {
		return 0
	}

	dot, qn, tn := 0.0, 0.0, 0.0
	for w, f := range qv {
		qn += f * f
		if tf, ok := tv[w]; ok {
			dot += f * tf
		}
	}
	for _, f := range tv {
		tn += f * f
	}
	if dot == 0 {
		return 0
	}
	return dot / (math.Sqrt(qn) * math.Sqrt(tn))
}

func (c *LexicalComparator) vector(text string) map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.cache[text]; ok {
		return v
	}
	v := make(map[string]float64)
	for _, w := range tokenize(text) {
		v[w]++
	}
	// Keep the cache from growing without bound.
	if len(c.cache) > 2048 {
		c.cache = make(map[string]map[string]float64)
	}
	c.cache[text] = v
	return v
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	var out []string
	for _, f := range fields {
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}
