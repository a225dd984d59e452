package postings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	apperrors "github.com/docrank/docrank/pkg/errors"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := NewMemoryStore()
	if err := src.ReplaceDocument(ctx, "d1", map[string]int{"cat": 2, "dog": 1}); err != nil {
		t.Fatalf("ReplaceDocument: %v", err)
	}
	if err := src.ReplaceDocument(ctx, "d2", map[string]int{"cat": 1, "bird": 3}); err != nil {
		t.Fatalf("ReplaceDocument: %v", err)
	}

	path := filepath.Join(t.TempDir(), "index.snap")
	if err := src.SaveSnapshot(path); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	dst := NewMemoryStore()
	if err := dst.LoadSnapshot(path); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	if !reflect.DeepEqual(dst.Snapshot(), src.Snapshot()) {
		t.Errorf("loaded snapshot differs:\n got %v\nwant %v", dst.Snapshot(), src.Snapshot())
	}
	df, err := dst.DocumentFrequency(ctx, "cat")
	if err != nil {
		t.Fatalf("DocumentFrequency: %v", err)
	}
	if df != 2 {
		t.Errorf("df(cat) = %d after load, want 2", df)
	}
}

func TestSnapshotEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.snap")
	src := NewMemoryStore()
	if err := src.SaveSnapshot(path); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	entries, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("ReadSnapshot = %v, want empty", entries)
	}
}

func TestReadSnapshotDetectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.snap")
	entries := []TermPostings{
		{Term: "cat", Postings: PostingList{{DocID: "d1", Frequency: 2}}},
	}
	if err := WriteSnapshot(path, entries); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// Flip one payload byte; the checksum must catch it.
	data[headerSize] ^= 0xff
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = ReadSnapshot(path)
	if !errors.Is(err, apperrors.ErrStorage) {
		t.Fatalf("expected ErrStorage for corrupted payload, got %v", err)
	}
}

func TestReadSnapshotRejectsTermCountMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.snap")
	entries := []TermPostings{
		{Term: "cat", Postings: PostingList{{DocID: "d1", Frequency: 2}}},
	}
	if err := WriteSnapshot(path, entries); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// Bump the header's term count. The checksum only covers the payload, so
	// only the count validation can catch this.
	data[8]++
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = ReadSnapshot(path)
	if !errors.Is(err, apperrors.ErrStorage) {
		t.Fatalf("expected ErrStorage for term count mismatch, got %v", err)
	}
}

func TestReadSnapshotRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.snap")
	if err := os.WriteFile(path, []byte("short"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := ReadSnapshot(path)
	if !errors.Is(err, apperrors.ErrStorage) {
		t.Fatalf("expected ErrStorage for truncated file, got %v", err)
	}
}

func TestReadSnapshotRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.snap")
	if err := WriteSnapshot(path, nil); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	data[0] ^= 0xff
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err = ReadSnapshot(path)
	if !errors.Is(err, apperrors.ErrStorage) {
		t.Fatalf("expected ErrStorage for bad magic, got %v", err)
	}
}
