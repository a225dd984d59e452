package postings

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"

	apperrors "github.com/docrank/docrank/pkg/errors"
)

// Snapshot file layout: a fixed 16-byte header (magic, version, term count),
// a JSON-encoded []TermPostings payload, and an 8-byte footer carrying the
// payload CRC32 and length.
const (
	snapshotMagic   uint32 = 0x44524958 // "DRIX"
	snapshotVersion uint32 = 1
	headerSize             = 16
	footerSize             = 8
)

// WriteSnapshot atomically writes the given entries to path. It writes to a
// .tmp file first and renames on success, so readers never see a partial
// snapshot.
func WriteSnapshot(path string, entries []TermPostings) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling snapshot payload: %w", err)
	}

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], snapshotMagic)
	binary.LittleEndian.PutUint32(header[4:8], snapshotVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(entries)))

	footer := make([]byte, footerSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(payload))
	binary.LittleEndian.PutUint32(footer[4:8], uint32(len(payload)))

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp snapshot file: %w", err)
	}
	defer f.Close()

	for _, chunk := range [][]byte{header, payload, footer} {
		if _, err := f.Write(chunk); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing snapshot file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming snapshot file: %w", err)
	}
	return nil
}

// ReadSnapshot loads and validates a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) ([]TermPostings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	if len(data) < headerSize+footerSize {
		return nil, fmt.Errorf("%w: snapshot file truncated", apperrors.ErrStorage)
	}

	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != snapshotMagic {
		return nil, fmt.Errorf("%w: invalid snapshot magic %x", apperrors.ErrStorage, magic)
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", apperrors.ErrStorage, version)
	}

	footer := data[len(data)-footerSize:]
	wantCRC := binary.LittleEndian.Uint32(footer[0:4])
	payloadLen := binary.LittleEndian.Uint32(footer[4:8])
	payload := data[headerSize : len(data)-footerSize]
	if uint32(len(payload)) != payloadLen {
		return nil, fmt.Errorf("%w: snapshot payload length mismatch", apperrors.ErrStorage)
	}
	if crc32.ChecksumIEEE(payload) != wantCRC {
		return nil, fmt.Errorf("%w: snapshot checksum mismatch", apperrors.ErrStorage)
	}

	var entries []TermPostings
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("%w: parsing snapshot payload: %v", apperrors.ErrStorage, err)
	}
	// The CRC only covers the payload, so the header's term count is checked
	// against what was actually decoded.
	if count := binary.LittleEndian.Uint32(data[8:12]); uint32(len(entries)) != count {
		return nil, fmt.Errorf("%w: snapshot term count mismatch: header says %d, payload has %d",
			apperrors.ErrStorage, count, len(entries))
	}
	return entries, nil
}

// SaveSnapshot persists the store's contents to a snapshot file.
func (s *MemoryStore) SaveSnapshot(path string) error {
	return WriteSnapshot(path, s.Snapshot())
}

// LoadSnapshot replaces the store's contents with a snapshot file's.
func (s *MemoryStore) LoadSnapshot(path string) error {
	entries, err := ReadSnapshot(path)
	if err != nil {
		return err
	}
	fresh := NewMemoryStore()
	for _, entry := range entries {
		for _, p := range entry.Postings {
			fresh.put(entry.Term, p.DocID, p.Frequency)
		}
	}
	s.Swap(fresh)
	return nil
}
