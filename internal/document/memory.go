package document

import (
	"context"
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/docrank/docrank/pkg/errors"
)

// MemoryCollection is an in-memory Collection for tests and embedded use.
type MemoryCollection struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewMemoryCollection creates a MemoryCollection containing the given
// documents.
func NewMemoryCollection(docs ...*Document) *MemoryCollection {
	c := &MemoryCollection{
		docs: make(map[string]*Document, len(docs)),
	}
	for _, doc := range docs {
		c.docs[doc.ID] = doc
	}
	return c
}

// Add inserts or replaces a document.
func (c *MemoryCollection) Add(doc *Document) error {
	if doc.ID == "" || len(doc.ID) > MaxIDLength {
		return fmt.Errorf("%w: document id must be 1-%d bytes", apperrors.ErrInvalidInput, MaxIDLength)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[doc.ID] = doc
	return nil
}

// Get returns the document with the given id.
func (c *MemoryCollection) Get(ctx context.Context, id string) (*Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrDocumentNotFound, id)
	}
	return doc, nil
}

// Count returns the number of documents.
func (c *MemoryCollection) Count(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs), nil
}

// Iterate returns an iterator over a point-in-time snapshot of the
// collection, in id order for reproducibility.
func (c *MemoryCollection) Iterate(ctx context.Context) (Iterator, error) {
	c.mu.RLock()
	snapshot := make([]*Document, 0, len(c.docs))
	for _, doc := range c.docs {
		snapshot = append(snapshot, doc)
	}
	c.mu.RUnlock()
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].ID < snapshot[j].ID
	})
	return &memIterator{docs: snapshot, pos: -1}, nil
}

type memIterator struct {
	docs []*Document
	pos  int
}

func (it *memIterator) Next() bool {
	if it.pos+1 >= len(it.docs) {
		return false
	}
	it.pos++
	return true
}

func (it *memIterator) Document() *Document {
	return it.docs[it.pos]
}

func (it *memIterator) Err() error {
	return nil
}

func (it *memIterator) Close() error {
	return nil
}
