// Package indexer builds the inverted index: it enumerates a document
// collection, extracts content-term frequencies through the tokenizer, and
// writes aggregated postings into the store. Rebuilds are idempotent.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docrank/docrank/internal/document"
	"github.com/docrank/docrank/internal/postings"
	"github.com/docrank/docrank/internal/tokenizer"
	apperrors "github.com/docrank/docrank/pkg/errors"
	"github.com/docrank/docrank/pkg/metrics"
)

// Builder populates a postings.Store from a document.Collection.
type Builder struct {
	store    postings.Store
	analyzer tokenizer.Analyzer
	workers  int
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a Builder. workers bounds the number of concurrent
// tokenization goroutines during a full build; m may be nil.
func New(store postings.Store, analyzer tokenizer.Analyzer, workers int, m *metrics.Metrics) *Builder {
	if workers <= 0 {
		workers = 4
	}
	return &Builder{
		store:    store,
		analyzer: analyzer,
		workers:  workers,
		metrics:  m,
		logger:   slog.Default().With("component", "index-builder"),
	}
}

type docPostings struct {
	docID string
	freqs map[string]int
}

// Build performs an idempotent full rebuild inside the store's atomic
// Rebuild: the collection is enumerated and tokenized on a worker pool,
// with all writes funnelled through a single serialized sink, and readers
// never see a cleared or partially repopulated index. A document whose
// body yields no content terms contributes no postings; a tokenizer failure
// on one document skips that document rather than aborting the build.
func (b *Builder) Build(ctx context.Context, coll document.Collection) error {
	start := time.Now()
	var indexed, skipped int

	err := b.store.Rebuild(ctx, func(w postings.RebuildWriter) error {
		docs := make(chan *document.Document)
		extracted := make(chan docPostings)

		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			defer close(docs)
			it, err := coll.Iterate(ctx)
			if err != nil {
				return fmt.Errorf("enumerating collection: %w", err)
			}
			defer it.Close()
			for it.Next() {
				select {
				case docs <- it.Document():
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return it.Err()
		})

		var wg sync.WaitGroup
		wg.Add(b.workers)
		for i := 0; i < b.workers; i++ {
			g.Go(func() error {
				defer wg.Done()
				for doc := range docs {
					freqs := b.extract(doc)
					select {
					case extracted <- docPostings{docID: doc.ID, freqs: freqs}:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
				return nil
			})
		}
		go func() {
			wg.Wait()
			close(extracted)
		}()

		g.Go(func() error {
			for dp := range extracted {
				if len(dp.freqs) == 0 {
					skipped++
					continue
				}
				if err := w.ReplaceDocument(ctx, dp.docID, dp.freqs); err != nil {
					return fmt.Errorf("writing postings for document %s: %w", dp.docID, err)
				}
				indexed++
				if b.metrics != nil {
					b.metrics.DocsIndexedTotal.Inc()
					b.metrics.PostingsWrittenTotal.Add(float64(len(dp.freqs)))
				}
			}
			return nil
		})

		return g.Wait()
	})
	if err != nil {
		b.recordRebuild("error", start)
		return err
	}

	b.recordRebuild("ok", start)
	b.logger.Info("index rebuilt",
		"documents_indexed", indexed,
		"documents_without_terms", skipped,
		"took", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// Update incrementally reindexes a single document, replacing its previous
// postings. A document whose text can no longer be tokenized, or contains no
// content terms, is removed from every posting list.
func (b *Builder) Update(ctx context.Context, doc *document.Document) error {
	freqs := b.extract(doc)
	if err := b.store.ReplaceDocument(ctx, doc.ID, freqs); err != nil {
		return fmt.Errorf("updating postings for document %s: %w", doc.ID, err)
	}
	if b.metrics != nil {
		b.metrics.DocsIndexedTotal.Inc()
		b.metrics.PostingsWrittenTotal.Add(float64(len(freqs)))
	}
	b.logger.Debug("document reindexed", "doc_id", doc.ID, "terms", len(freqs))
	return nil
}

// extract tokenizes a document's text and counts per-term noun frequencies.
// Tokenizer failures are recovered as zero terms so one bad document never
// aborts indexing.
func (b *Builder) extract(doc *document.Document) map[string]int {
	tokens, err := b.analyzer.Tokenize(doc.Text)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenization) {
			b.logger.Warn("tokenizer failed, document skipped", "doc_id", doc.ID, "error", err)
			if b.metrics != nil {
				b.metrics.TokenizerFailuresTotal.Inc()
			}
			return nil
		}
		b.logger.Error("unexpected tokenizer error, document skipped", "doc_id", doc.ID, "error", err)
		return nil
	}
	nouns := tokenizer.Nouns(tokens)
	if len(nouns) == 0 {
		return nil
	}
	freqs := make(map[string]int, len(nouns))
	for _, term := range nouns {
		freqs[term]++
	}
	return freqs
}

func (b *Builder) recordRebuild(status string, start time.Time) {
	if b.metrics == nil {
		return
	}
	b.metrics.RebuildsTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		b.metrics.RebuildDuration.Observe(time.Since(start).Seconds())
	}
}
