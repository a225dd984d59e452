package postings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "github.com/docrank/docrank/pkg/errors"
	"github.com/docrank/docrank/pkg/postgres"
)

const postingsSchema = `
CREATE TABLE IF NOT EXISTS postings (
	term           TEXT NOT NULL,
	document_id    VARCHAR(255) NOT NULL,
	term_frequency INTEGER NOT NULL CHECK (term_frequency > 0),
	PRIMARY KEY (term, document_id)
);
CREATE INDEX IF NOT EXISTS idx_postings_document_id ON postings (document_id);

CREATE TABLE IF NOT EXISTS term_stats (
	term               TEXT PRIMARY KEY,
	document_frequency INTEGER NOT NULL
);
`

// PostgresStore is a Store backed by a postings table keyed by
// (term, document_id) and a companion term_stats table that tracks document
// frequency incrementally.
type PostgresStore struct {
	client *postgres.Client
}

// NewPostgresStore creates the postings schema if needed and returns a Store
// over it.
func NewPostgresStore(ctx context.Context, client *postgres.Client) (*PostgresStore, error) {
	if _, err := client.DB.ExecContext(ctx, postingsSchema); err != nil {
		return nil, fmt.Errorf("%w: creating postings schema: %v", apperrors.ErrStorage, err)
	}
	return &PostgresStore{client: client}, nil
}

// Put upserts a single posting, bumping term_stats only when the row is new.
func (s *PostgresStore) Put(ctx context.Context, term, docID string, tf int) error {
	err := s.client.InTx(ctx, func(tx *sql.Tx) error {
		return putInTx(ctx, tx, term, docID, tf)
	})
	if err != nil {
		return fmt.Errorf("%w: putting posting (%s, %s): %v", apperrors.ErrStorage, term, docID, err)
	}
	return nil
}

// ReplaceDocument atomically replaces all postings for a document inside a
// single transaction, adjusting term_stats for both removed and added terms.
func (s *PostgresStore) ReplaceDocument(ctx context.Context, docID string, freqs map[string]int) error {
	err := s.client.InTx(ctx, func(tx *sql.Tx) error {
		if err := deleteDocumentInTx(ctx, tx, docID); err != nil {
			return err
		}
		for term, tf := range freqs {
			if err := putInTx(ctx, tx, term, docID, tf); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: replacing postings for document %s: %v", apperrors.ErrStorage, docID, err)
	}
	return nil
}

// Rebuild replaces the store's entire contents inside a single transaction.
// Queries running concurrently keep reading the committed index until the
// rebuild commits, so they never observe a cleared or half-repopulated
// table. DELETE is used instead of TRUNCATE because TRUNCATE takes a lock
// that would block readers for the whole rebuild.
func (s *PostgresStore) Rebuild(ctx context.Context, fn func(w RebuildWriter) error) error {
	err := s.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM postings`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM term_stats`); err != nil {
			return err
		}
		return fn(&txRebuildWriter{tx: tx})
	})
	if err != nil {
		return fmt.Errorf("%w: rebuilding postings: %v", apperrors.ErrStorage, err)
	}
	return nil
}

// txRebuildWriter writes documents into the rebuild transaction. Callers
// serialize writes; *sql.Tx is not safe for concurrent use.
type txRebuildWriter struct {
	tx *sql.Tx
}

func (w *txRebuildWriter) ReplaceDocument(ctx context.Context, docID string, freqs map[string]int) error {
	// The table was emptied at the start of the transaction, but a
	// collection may hand the same id out twice; drop any earlier rows.
	if err := deleteDocumentInTx(ctx, w.tx, docID); err != nil {
		return err
	}
	for term, tf := range freqs {
		if err := putInTx(ctx, w.tx, term, docID, tf); err != nil {
			return err
		}
	}
	return nil
}

// PostingList returns the postings for term, sorted by DocID.
func (s *PostgresStore) PostingList(ctx context.Context, term string) (PostingList, error) {
	rows, err := s.client.DB.QueryContext(ctx, `
		SELECT document_id, term_frequency
		FROM postings
		WHERE term = $1
		ORDER BY document_id`, term)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching posting list for %q: %v", apperrors.ErrStorage, term, err)
	}
	defer rows.Close()

	var list PostingList
	for rows.Next() {
		var p Posting
		if err := rows.Scan(&p.DocID, &p.Frequency); err != nil {
			return nil, fmt.Errorf("%w: scanning posting row: %v", apperrors.ErrStorage, err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating posting rows: %v", apperrors.ErrStorage, err)
	}
	return list, nil
}

// DocumentFrequency reads the incrementally maintained count from term_stats.
func (s *PostgresStore) DocumentFrequency(ctx context.Context, term string) (int, error) {
	var df int
	err := s.client.DB.QueryRowContext(ctx,
		`SELECT document_frequency FROM term_stats WHERE term = $1`, term).Scan(&df)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: fetching document frequency for %q: %v", apperrors.ErrStorage, term, err)
	}
	return df, nil
}

// Clear truncates the postings and term_stats tables in one transaction.
// Full rebuilds go through Rebuild instead, which keeps the old index
// visible to readers until the new one commits.
func (s *PostgresStore) Clear(ctx context.Context) error {
	err := s.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `TRUNCATE postings, term_stats`); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: clearing postings: %v", apperrors.ErrStorage, err)
	}
	return nil
}

// Close is a no-op; the underlying pool is owned by the caller.
func (s *PostgresStore) Close() error {
	return nil
}

// putInTx upserts one posting row. The RETURNING (xmax = 0) clause reports
// whether the row was freshly inserted, in which case the term's document
// frequency goes up by one.
func putInTx(ctx context.Context, tx *sql.Tx, term, docID string, tf int) error {
	var inserted bool
	err := tx.QueryRowContext(ctx, `
		INSERT INTO postings (term, document_id, term_frequency)
		VALUES ($1, $2, $3)
		ON CONFLICT (term, document_id)
		DO UPDATE SET term_frequency = EXCLUDED.term_frequency
		RETURNING (xmax = 0)`, term, docID, tf).Scan(&inserted)
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO term_stats (term, document_frequency)
		VALUES ($1, 1)
		ON CONFLICT (term)
		DO UPDATE SET document_frequency = term_stats.document_frequency + 1`, term)
	return err
}

// deleteDocumentInTx removes a document's postings and decrements the
// affected terms' document frequencies.
func deleteDocumentInTx(ctx context.Context, tx *sql.Tx, docID string) error {
	rows, err := tx.QueryContext(ctx,
		`DELETE FROM postings WHERE document_id = $1 RETURNING term`, docID)
	if err != nil {
		return err
	}
	var terms []string
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			rows.Close()
			return err
		}
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, term := range terms {
		if _, err := tx.ExecContext(ctx, `
			UPDATE term_stats SET document_frequency = document_frequency - 1
			WHERE term = $1`, term); err != nil {
			return err
		}
	}
	if len(terms) > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM term_stats WHERE document_frequency <= 0`); err != nil {
			return err
		}
	}
	return nil
}
