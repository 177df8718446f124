// Package similarity provides cosine similarity math and candidate ranking
// for relevance filtering. It is pure computation with no I/O.
package similarity

import (
	"math"
	"sort"
)

// Match pairs a candidate ID with its similarity to the query vector.
type Match struct {
	ID         string
	Similarity float64
}

// Cosine computes the cosine similarity between two vectors.
// Dimension mismatch and zero-magnitude vectors yield 0, never NaN or an
// error, so downstream ranking math never breaks on degenerate input.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Candidate is a vector with an identifier, as ranked by FindSimilar.
type Candidate struct {
	ID     string
	Vector []float32
}

// FindSimilar ranks candidates by cosine similarity to the query.
// Results are sorted descending, ties broken by original candidate order,
// filtered to similarity >= threshold and truncated to limit.
// A limit <= 0 means no truncation.
func FindSimilar(query []float32, candidates []Candidate, threshold float64, limit int) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		sim := Cosine(query, c.Vector)
		if sim >= threshold {
			matches = append(matches, Match{ID: c.ID, Similarity: sim})
		}
	}

	// Stable sort keeps original candidate order for equal similarities.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
