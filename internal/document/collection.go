package document

import "context"

// Collection is a read-only set of documents keyed by id. It does not
// participate in ranking; the query processor only uses it for the corpus
// size and for returning matched documents to callers.
type Collection interface {
	// Get returns the document with the given id, or ErrDocumentNotFound.
	Get(ctx context.Context, id string) (*Document, error)

	// Count returns the number of documents in the collection.
	Count(ctx context.Context) (int, error)

	// Iterate returns a lazy, one-shot iterator over all documents.
	// Ordering is unspecified. The caller must Close the iterator.
	Iterate(ctx context.Context) (Iterator, error)
}

// Iterator pages through a collection's documents.
type Iterator interface {
	// Next advances to the next document, returning false when the
	// sequence is exhausted or an error occurred.
	Next() bool

	// Document returns the current document. Only valid after a true Next.
	Document() *Document

	// Err returns the first error encountered during iteration.
	Err() error

	// Close releases resources held by the iterator.
	Close() error
}
