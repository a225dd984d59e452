package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	apperrors "github.com/docrank/docrank/pkg/errors"
	"github.com/docrank/docrank/pkg/postgres"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id               VARCHAR(255) PRIMARY KEY,
	text             TEXT NOT NULL,
	opening_text     TEXT NOT NULL DEFAULT '',
	categories       TEXT[] NOT NULL DEFAULT '{}',
	headings         TEXT[] NOT NULL DEFAULT '{}',
	popularity_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	incoming_links   INTEGER NOT NULL DEFAULT 0,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// PostgresCollection is a Collection backed by a PostgreSQL documents table.
type PostgresCollection struct {
	client *postgres.Client
}

// NewPostgresCollection creates the documents table if needed and returns a
// Collection over it.
func NewPostgresCollection(ctx context.Context, client *postgres.Client) (*PostgresCollection, error) {
	if _, err := client.DB.ExecContext(ctx, documentsSchema); err != nil {
		return nil, fmt.Errorf("%w: creating documents table: %v", apperrors.ErrStorage, err)
	}
	return &PostgresCollection{client: client}, nil
}

// Get returns the document with the given id.
func (c *PostgresCollection) Get(ctx context.Context, id string) (*Document, error) {
	row := c.client.DB.QueryRowContext(ctx, `
		SELECT id, text, opening_text, categories, headings, popularity_score, incoming_links
		FROM documents WHERE id = $1`, id)

	var doc Document
	err := row.Scan(
		&doc.ID,
		&doc.Text,
		&doc.OpeningText,
		pq.Array(&doc.Categories),
		pq.Array(&doc.Headings),
		&doc.PopularityScore,
		&doc.IncomingLinks,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: fetching document %s: %v", apperrors.ErrStorage, id, err)
	}
	return &doc, nil
}

// Count returns the number of documents in the collection.
func (c *PostgresCollection) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.client.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting documents: %v", apperrors.ErrStorage, err)
	}
	return n, nil
}

// Iterate streams all documents from the table.
func (c *PostgresCollection) Iterate(ctx context.Context) (Iterator, error) {
	rows, err := c.client.DB.QueryContext(ctx, `
		SELECT id, text, opening_text, categories, headings, popularity_score, incoming_links
		FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("%w: enumerating documents: %v", apperrors.ErrStorage, err)
	}
	return &pgIterator{rows: rows}, nil
}

// Upsert inserts or replaces a document. Used by the ingestion path, not by
// the search core.
func (c *PostgresCollection) Upsert(ctx context.Context, doc *Document) error {
	if doc.ID == "" || len(doc.ID) > MaxIDLength {
		return fmt.Errorf("%w: document id must be 1-%d bytes", apperrors.ErrInvalidInput, MaxIDLength)
	}
	_, err := c.client.DB.ExecContext(ctx, `
		INSERT INTO documents (id, text, opening_text, categories, headings, popularity_score, incoming_links, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			opening_text = EXCLUDED.opening_text,
			categories = EXCLUDED.categories,
			headings = EXCLUDED.headings,
			popularity_score = EXCLUDED.popularity_score,
			incoming_links = EXCLUDED.incoming_links,
			updated_at = NOW()`,
		doc.ID,
		doc.Text,
		doc.OpeningText,
		pq.Array(doc.Categories),
		pq.Array(doc.Headings),
		doc.PopularityScore,
		doc.IncomingLinks,
	)
	if err != nil {
		return fmt.Errorf("%w: upserting document %s: %v", apperrors.ErrStorage, doc.ID, err)
	}
	return nil
}

type pgIterator struct {
	rows *sql.Rows
	cur  *Document
	err  error
}

func (it *pgIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.rows.Next() {
		it.err = it.rows.Err()
		return false
	}
	var doc Document
	if err := it.rows.Scan(
		&doc.ID,
		&doc.Text,
		&doc.OpeningText,
		pq.Array(&doc.Categories),
		pq.Array(&doc.Headings),
		&doc.PopularityScore,
		&doc.IncomingLinks,
	); err != nil {
		it.err = fmt.Errorf("%w: scanning document row: %v", apperrors.ErrStorage, err)
		return false
	}
	it.cur = &doc
	return true
}

func (it *pgIterator) Document() *Document {
	return it.cur
}

func (it *pgIterator) Err() error {
	return it.err
}

func (it *pgIterator) Close() error {
	return it.rows.Close()
}
