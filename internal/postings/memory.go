package postings

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and embedded use. Reads are
// lock-free with respect to each other; a rebuild can prepare a fresh table
// and swap it in atomically so concurrent queries never observe a partially
// rebuilt index.
type MemoryStore struct {
	mu sync.RWMutex
	// index maps term -> docID -> term frequency. Document frequency is
	// len(index[term]), maintained implicitly by insert and delete.
	index map[string]map[string]int
	// docTerms maps docID -> terms, so ReplaceDocument can find the old
	// postings without scanning.
	docTerms map[string]map[string]struct{}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		index:    make(map[string]map[string]int),
		docTerms: make(map[string]map[string]struct{}),
	}
}

// Put upserts a single posting.
func (s *MemoryStore) Put(ctx context.Context, term, docID string, tf int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(term, docID, tf)
	return nil
}

// ReplaceDocument atomically replaces all postings for a document.
func (s *MemoryStore) ReplaceDocument(ctx context.Context, docID string, freqs map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteDocument(docID)
	for term, tf := range freqs {
		s.put(term, docID, tf)
	}
	return nil
}

// PostingList returns the postings for term, sorted by DocID.
func (s *MemoryStore) PostingList(ctx context.Context, term string) (PostingList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, ok := s.index[term]
	if !ok {
		return nil, nil
	}
	list := make(PostingList, 0, len(docs))
	for docID, tf := range docs {
		list = append(list, Posting{DocID: docID, Frequency: tf})
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].DocID < list[j].DocID
	})
	return list, nil
}

// DocumentFrequency returns the number of documents containing term.
func (s *MemoryStore) DocumentFrequency(ctx context.Context, term string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index[term]), nil
}

// Clear removes all postings.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = make(map[string]map[string]int)
	s.docTerms = make(map[string]map[string]struct{})
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// Rebuild builds a fresh index from fn's writes and swaps it in atomically.
// Readers keep seeing the old index until fn returns; a failed fn leaves the
// old index untouched.
func (s *MemoryStore) Rebuild(ctx context.Context, fn func(w RebuildWriter) error) error {
	fresh := NewMemoryStore()
	if err := fn(fresh); err != nil {
		return err
	}
	s.Swap(fresh)
	return nil
}

// Swap atomically replaces this store's contents with other's, giving
// copy-on-write rebuild semantics: build into a fresh MemoryStore, then swap.
func (s *MemoryStore) Swap(other *MemoryStore) {
	other.mu.Lock()
	index, docTerms := other.index, other.docTerms
	other.mu.Unlock()

	s.mu.Lock()
	s.index = index
	s.docTerms = docTerms
	s.mu.Unlock()
}

// Snapshot returns all terms and their posting lists, sorted by term and by
// DocID within each list.
func (s *MemoryStore) Snapshot() []TermPostings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]TermPostings, 0, len(s.index))
	for term, docs := range s.index {
		list := make(PostingList, 0, len(docs))
		for docID, tf := range docs {
			list = append(list, Posting{DocID: docID, Frequency: tf})
		}
		sort.Slice(list, func(i, j int) bool {
			return list[i].DocID < list[j].DocID
		})
		entries = append(entries, TermPostings{Term: term, Postings: list})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

// put assumes s.mu is held for writing.
func (s *MemoryStore) put(term, docID string, tf int) {
	docs, ok := s.index[term]
	if !ok {
		docs = make(map[string]int)
		s.index[term] = docs
	}
	docs[docID] = tf

	terms, ok := s.docTerms[docID]
	if !ok {
		terms = make(map[string]struct{})
		s.docTerms[docID] = terms
	}
	terms[term] = struct{}{}
}

// deleteDocument assumes s.mu is held for writing.
func (s *MemoryStore) deleteDocument(docID string) {
	for term := range s.docTerms[docID] {
		delete(s.index[term], docID)
		if len(s.index[term]) == 0 {
			delete(s.index, term)
		}
	}
	delete(s.docTerms, docID)
}
