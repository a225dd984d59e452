// Package processor implements end-to-end query processing: term extraction,
// boolean AND candidate selection over the inverted index, TF-IDF vector
// scoring, and cosine-similarity ranking. Each call is an independent,
// stateless transaction over the read-only index and collection.
package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docrank/docrank/internal/document"
	"github.com/docrank/docrank/internal/postings"
	"github.com/docrank/docrank/internal/searcher/ranker"
	"github.com/docrank/docrank/internal/tokenizer"
	apperrors "github.com/docrank/docrank/pkg/errors"
	"github.com/docrank/docrank/pkg/metrics"
)

// Match is a ranked search hit.
type Match struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Processor answers queries against a built index.
type Processor struct {
	store      postings.Store
	collection document.Collection
	analyzer   tokenizer.Analyzer
	// unionFallback ranks the union of per-term posting lists when the
	// strict AND intersection is empty.
	unionFallback bool
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// New creates a Processor. m may be nil.
func New(
	store postings.Store,
	collection document.Collection,
	analyzer tokenizer.Analyzer,
	unionFallback bool,
	m *metrics.Metrics,
) *Processor {
	return &Processor{
		store:         store,
		collection:    collection,
		analyzer:      analyzer,
		unionFallback: unionFallback,
		metrics:       m,
		logger:        slog.Default().With("component", "query-processor"),
	}
}

// Search returns the single best-matching document for the query, or
// ErrNoMatch when the query has no content terms or no document contains
// all of them.
func (p *Processor) Search(ctx context.Context, query string) (*Match, error) {
	matches, err := p.TopK(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	return &matches[0], nil
}

// TopK returns up to k matches ordered by descending cosine similarity,
// ties broken by ascending document id.
func (p *Processor) TopK(ctx context.Context, query string, k int) ([]Match, error) {
	if k <= 0 {
		k = 1
	}

	tokens, err := p.analyzer.Tokenize(query)
	if err != nil {
		return nil, fmt.Errorf("tokenizing query: %w", err)
	}
	queryNouns := tokenizer.Nouns(tokens)
	terms := tokenizer.DistinctNouns(tokens)
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: query has no content terms", apperrors.ErrNoMatch)
	}

	lists := make([]postings.PostingList, 0, len(terms))
	for _, term := range terms {
		list, err := p.store.PostingList(ctx, term)
		if err != nil {
			return nil, fmt.Errorf("fetching posting list for %q: %w", term, err)
		}
		// A term nowhere in the corpus empties the AND intersection;
		// without the union fallback there is nothing left to rank.
		if len(list) == 0 && !p.unionFallback {
			p.observeCandidates(0)
			return nil, fmt.Errorf("%w: term %q not in index", apperrors.ErrNoMatch, term)
		}
		lists = append(lists, list)
	}

	candidates := ranker.IntersectPostings(lists)
	if len(candidates) == 0 && p.unionFallback {
		candidates = ranker.UnionPostings(lists)
		p.logger.Debug("AND intersection empty, ranking union", "query", query)
	}
	p.observeCandidates(len(candidates))
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no document contains all query terms", apperrors.ErrNoMatch)
	}

	n, err := p.collection.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting corpus: %w", err)
	}

	idf := make([]float64, len(terms))
	for i, term := range terms {
		df, err := p.store.DocumentFrequency(ctx, term)
		if err != nil {
			return nil, fmt.Errorf("fetching document frequency for %q: %w", term, err)
		}
		idf[i] = ranker.IDF(n, df)
	}

	queryTF := make(map[string]int, len(terms))
	for _, noun := range queryNouns {
		queryTF[noun]++
	}
	queryVec := ranker.TFIDFVector(terms, idf, func(term string) int {
		return queryTF[term]
	})

	// Per-candidate term frequencies come from the stored postings, never
	// from retokenizing candidate text at query time.
	termTF := make(map[string]map[string]int, len(terms))
	for i, term := range terms {
		tfByDoc := make(map[string]int, len(lists[i]))
		for _, posting := range lists[i] {
			tfByDoc[posting.DocID] = posting.Frequency
		}
		termTF[term] = tfByDoc
	}

	candidateVecs := make(map[string]ranker.Vector, len(candidates))
	for docID := range candidates {
		candidateVecs[docID] = ranker.TFIDFVector(terms, idf, func(term string) int {
			return termTF[term][docID]
		})
	}

	ranked := ranker.Rank(queryVec, candidateVecs)
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	matches := make([]Match, len(ranked))
	for i, sd := range ranked {
		matches[i] = Match{DocID: sd.DocID, Score: sd.Score}
	}

	p.logger.Debug("query processed",
		"terms", terms,
		"candidates", len(candidates),
		"results", len(matches),
	)
	return matches, nil
}

func (p *Processor) observeCandidates(n int) {
	if p.metrics != nil {
		p.metrics.CandidateSetSize.Observe(float64(n))
	}
}
