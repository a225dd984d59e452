package postings

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestMemoryStorePutAndPostingList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	mustPut(t, s, "cat", "d2", 2)
	mustPut(t, s, "cat", "d1", 1)
	mustPut(t, s, "bird", "d2", 1)

	list, err := s.PostingList(ctx, "cat")
	if err != nil {
		t.Fatalf("PostingList: %v", err)
	}
	want := PostingList{
		{DocID: "d1", Frequency: 1},
		{DocID: "d2", Frequency: 2},
	}
	if !reflect.DeepEqual(list, want) {
		t.Errorf("PostingList(cat) = %v, want %v", list, want)
	}
}

func TestMemoryStorePutUpserts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	mustPut(t, s, "cat", "d1", 1)
	mustPut(t, s, "cat", "d1", 3)

	list, err := s.PostingList(ctx, "cat")
	if err != nil {
		t.Fatalf("PostingList: %v", err)
	}
	if len(list) != 1 || list[0].Frequency != 3 {
		t.Errorf("PostingList(cat) = %v, want single posting with tf=3", list)
	}
	df, err := s.DocumentFrequency(ctx, "cat")
	if err != nil {
		t.Fatalf("DocumentFrequency: %v", err)
	}
	if df != 1 {
		t.Errorf("df(cat) = %d, want 1 after upsert", df)
	}
}

func TestMemoryStoreUnknownTerm(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	list, err := s.PostingList(ctx, "zebra")
	if err != nil {
		t.Fatalf("PostingList: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("PostingList(zebra) = %v, want empty", list)
	}
	df, err := s.DocumentFrequency(ctx, "zebra")
	if err != nil {
		t.Fatalf("DocumentFrequency: %v", err)
	}
	if df != 0 {
		t.Errorf("df(zebra) = %d, want 0", df)
	}
}

func TestMemoryStoreReplaceDocument(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.ReplaceDocument(ctx, "d1", map[string]int{"cat": 2, "dog": 1}); err != nil {
		t.Fatalf("ReplaceDocument: %v", err)
	}
	if err := s.ReplaceDocument(ctx, "d2", map[string]int{"cat": 1}); err != nil {
		t.Fatalf("ReplaceDocument: %v", err)
	}

	df, _ := s.DocumentFrequency(ctx, "cat")
	if df != 2 {
		t.Fatalf("df(cat) = %d, want 2", df)
	}

	// Replacing d1 drops its old terms before the new ones land.
	if err := s.ReplaceDocument(ctx, "d1", map[string]int{"bird": 1}); err != nil {
		t.Fatalf("ReplaceDocument: %v", err)
	}
	df, _ = s.DocumentFrequency(ctx, "cat")
	if df != 1 {
		t.Errorf("df(cat) = %d after replace, want 1", df)
	}
	df, _ = s.DocumentFrequency(ctx, "dog")
	if df != 0 {
		t.Errorf("df(dog) = %d after replace, want 0", df)
	}
	df, _ = s.DocumentFrequency(ctx, "bird")
	if df != 1 {
		t.Errorf("df(bird) = %d after replace, want 1", df)
	}
}

func TestMemoryStoreReplaceDocumentEmptyRemoves(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.ReplaceDocument(ctx, "d1", map[string]int{"cat": 1}); err != nil {
		t.Fatalf("ReplaceDocument: %v", err)
	}
	if err := s.ReplaceDocument(ctx, "d1", nil); err != nil {
		t.Fatalf("ReplaceDocument: %v", err)
	}
	df, _ := s.DocumentFrequency(ctx, "cat")
	if df != 0 {
		t.Errorf("df(cat) = %d after removal, want 0", df)
	}
	list, _ := s.PostingList(ctx, "cat")
	if len(list) != 0 {
		t.Errorf("PostingList(cat) = %v after removal, want empty", list)
	}
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	mustPut(t, s, "cat", "d1", 1)
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	df, _ := s.DocumentFrequency(ctx, "cat")
	if df != 0 {
		t.Errorf("df(cat) = %d after clear, want 0", df)
	}
}

func TestMemoryStoreSwap(t *testing.T) {
	ctx := context.Background()
	live := NewMemoryStore()
	mustPut(t, live, "stale", "d1", 1)

	fresh := NewMemoryStore()
	mustPut(t, fresh, "cat", "d2", 3)

	live.Swap(fresh)

	df, _ := live.DocumentFrequency(ctx, "stale")
	if df != 0 {
		t.Errorf("df(stale) = %d after swap, want 0", df)
	}
	list, _ := live.PostingList(ctx, "cat")
	want := PostingList{{DocID: "d2", Frequency: 3}}
	if !reflect.DeepEqual(list, want) {
		t.Errorf("PostingList(cat) = %v after swap, want %v", list, want)
	}
}

func TestMemoryStoreRebuildNotVisibleUntilComplete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	mustPut(t, s, "old", "d1", 1)

	err := s.Rebuild(ctx, func(w RebuildWriter) error {
		if err := w.ReplaceDocument(ctx, "d2", map[string]int{"new": 1}); err != nil {
			return err
		}
		// Mid-rebuild, readers must still see the previous index in full.
		df, err := s.DocumentFrequency(ctx, "old")
		if err != nil {
			return err
		}
		if df != 1 {
			t.Errorf("df(old) = %d mid-rebuild, want 1", df)
		}
		df, err = s.DocumentFrequency(ctx, "new")
		if err != nil {
			return err
		}
		if df != 0 {
			t.Errorf("df(new) = %d mid-rebuild, want 0", df)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	df, _ := s.DocumentFrequency(ctx, "old")
	if df != 0 {
		t.Errorf("df(old) = %d after rebuild, want 0", df)
	}
	df, _ = s.DocumentFrequency(ctx, "new")
	if df != 1 {
		t.Errorf("df(new) = %d after rebuild, want 1", df)
	}
}

func TestMemoryStoreRebuildFailureKeepsOldIndex(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	mustPut(t, s, "old", "d1", 2)

	boom := errors.New("boom")
	err := s.Rebuild(ctx, func(w RebuildWriter) error {
		if err := w.ReplaceDocument(ctx, "d2", map[string]int{"new": 1}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Rebuild error = %v, want boom", err)
	}

	list, _ := s.PostingList(ctx, "old")
	want := PostingList{{DocID: "d1", Frequency: 2}}
	if !reflect.DeepEqual(list, want) {
		t.Errorf("PostingList(old) = %v after failed rebuild, want %v", list, want)
	}
	df, _ := s.DocumentFrequency(ctx, "new")
	if df != 0 {
		t.Errorf("df(new) = %d after failed rebuild, want 0", df)
	}
}

func TestMemoryStoreSnapshotSorted(t *testing.T) {
	s := NewMemoryStore()
	mustPut(t, s, "dog", "d2", 1)
	mustPut(t, s, "cat", "d3", 1)
	mustPut(t, s, "cat", "d1", 2)

	entries := s.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("Snapshot returned %d terms, want 2", len(entries))
	}
	if entries[0].Term != "cat" || entries[1].Term != "dog" {
		t.Errorf("terms not sorted: %v", entries)
	}
	if entries[0].Postings[0].DocID != "d1" || entries[0].Postings[1].DocID != "d3" {
		t.Errorf("postings not sorted by doc id: %v", entries[0].Postings)
	}
}

func mustPut(t *testing.T, s *MemoryStore, term, docID string, tf int) {
	t.Helper()
	if err := s.Put(context.Background(), term, docID, tf); err != nil {
		t.Fatalf("Put(%s, %s, %d): %v", term, docID, tf, err)
	}
}
