// Package ranker implements TF-IDF vector scoring and cosine-similarity
// ranking over a fixed query-term ordering.
package ranker

import (
	"math"
	"sort"

	"github.com/docrank/docrank/internal/postings"
)

// MinScore is the similarity assigned when a vector norm is zero, so that
// degenerate candidates rank below every real match instead of producing
// NaN or Inf.
const MinScore = -1.0

// ScoredDoc is a candidate document with its cosine similarity to the query.
type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Vector is a TF-IDF vector over the query's fixed term ordering: component
// i equals tf(t_i) * idf(t_i).
type Vector []float64

// Dot returns the dot product of two equal-length vectors.
func Dot(a, b Vector) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm returns the Euclidean norm of v.
func Norm(v Vector) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns the normalized dot product of two vectors. When
// either norm is zero the similarity is MinScore rather than a division by
// zero.
func CosineSimilarity(a, b Vector) float64 {
	normA, normB := Norm(a), Norm(b)
	if normA == 0 || normB == 0 {
		return MinScore
	}
	return Dot(a, b) / (normA * normB)
}

// IDF returns ln(N/df) for a corpus of n documents. A term present in every
// document yields 0; the result may be negative if df exceeds n (stale
// stats), which callers tolerate rather than treat as an error.
func IDF(n, df int) float64 {
	if n <= 0 || df <= 0 {
		return 0
	}
	return math.Log(float64(n) / float64(df))
}

// TFIDFVector builds the vector for one document over the query terms,
// reading tf(term) from the term frequency lookup and weighting by the
// precomputed idf values (one per query term, same ordering).
func TFIDFVector(terms []string, idf []float64, tf func(term string) int) Vector {
	v := make(Vector, len(terms))
	for i, term := range terms {
		v[i] = float64(tf(term)) * idf[i]
	}
	return v
}

// Rank scores every candidate against the query vector and returns them
// ordered by descending similarity, ties broken by ascending DocID so that
// repeated queries are reproducible.
func Rank(query Vector, candidates map[string]Vector) []ScoredDoc {
	ranked := make([]ScoredDoc, 0, len(candidates))
	for docID, vec := range candidates {
		ranked = append(ranked, ScoredDoc{
			DocID: docID,
			Score: CosineSimilarity(query, vec),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].DocID < ranked[j].DocID
	})
	return ranked
}

// IntersectPostings returns the ids present in every posting list, starting
// from the smallest list. An empty input yields an empty set.
func IntersectPostings(lists []postings.PostingList) map[string]struct{} {
	if len(lists) == 0 {
		return map[string]struct{}{}
	}
	smallest := 0
	for i, list := range lists {
		if len(list) < len(lists[smallest]) {
			smallest = i
		}
	}
	candidates := lists[smallest].DocIDs()
	for i, list := range lists {
		if i == smallest {
			continue
		}
		docSet := list.DocIDs()
		for docID := range candidates {
			if _, ok := docSet[docID]; !ok {
				delete(candidates, docID)
			}
		}
	}
	return candidates
}

// UnionPostings returns the ids present in any posting list.
func UnionPostings(lists []postings.PostingList) map[string]struct{} {
	result := make(map[string]struct{})
	for _, list := range lists {
		for _, p := range list {
			result[p.DocID] = struct{}{}
		}
	}
	return result
}
