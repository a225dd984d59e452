// Package postings implements the inverted index storage layer: a durable
// mapping from term to posting list, with PostgreSQL-backed and in-memory
// implementations.
package postings

import "context"

// Posting associates a document with a term's frequency in that document.
// For a fixed (term, doc) pair the frequency equals the number of times the
// term occurs as a content token in the document's text, computed once at
// build time.
type Posting struct {
	DocID     string `json:"doc_id"`
	Frequency int    `json:"tf"`
}

// PostingList is a term's postings, always sorted by DocID.
type PostingList []Posting

// DocIDs returns the set of document ids in the list.
func (pl PostingList) DocIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(pl))
	for _, p := range pl {
		ids[p.DocID] = struct{}{}
	}
	return ids
}

// TermPostings pairs a term with its complete posting list. Used for
// snapshots and test fixtures.
type TermPostings struct {
	Term     string      `json:"term"`
	Postings PostingList `json:"postings"`
}

// RebuildWriter receives per-document postings during a Rebuild.
type RebuildWriter interface {
	ReplaceDocument(ctx context.Context, docID string, freqs map[string]int) error
}

// Store is the persistent inverted index. (term, doc_id) pairs are unique;
// writes upsert. Document frequency is maintained incrementally on every
// insert and delete, never recomputed by scanning posting rows.
type Store interface {
	// Put upserts a single posting.
	Put(ctx context.Context, term, docID string, tf int) error

	// ReplaceDocument atomically replaces all postings for a document
	// with the given term frequencies. An empty map removes the document
	// from every posting list.
	ReplaceDocument(ctx context.Context, docID string, freqs map[string]int) error

	// Rebuild atomically replaces the store's entire contents with
	// whatever fn writes. Concurrent readers see either the old index or
	// the new one, never a cleared or partially repopulated state. A
	// failed rebuild leaves the old index untouched.
	Rebuild(ctx context.Context, fn func(w RebuildWriter) error) error

	// PostingList returns the postings for an exact term, sorted by
	// DocID. A term with no postings yields an empty list, not an error.
	PostingList(ctx context.Context, term string) (PostingList, error)

	// DocumentFrequency returns the number of documents containing term.
	DocumentFrequency(ctx context.Context, term string) (int, error)

	// Clear removes all postings, making a rebuild idempotent.
	Clear(ctx context.Context) error

	Close() error
}
