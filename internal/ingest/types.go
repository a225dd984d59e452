// Package ingest defines the document intake pipeline: HTTP requests are
// validated, persisted to the collection, and announced to the indexer via
// Kafka upsert events.
package ingest

import (
	"time"

	"github.com/docrank/docrank/internal/document"
)

// UpsertRequest is the JSON body accepted by the ingestion HTTP endpoint.
type UpsertRequest struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	OpeningText     string   `json:"opening_text,omitempty"`
	Categories      []string `json:"categories,omitempty"`
	Headings        []string `json:"headings,omitempty"`
	PopularityScore float64  `json:"popularity_score,omitempty"`
	IncomingLinks   int      `json:"incoming_links,omitempty"`
}

// Document converts the request into a document.Document.
func (r *UpsertRequest) Document() *document.Document {
	return &document.Document{
		ID:              r.ID,
		Text:            r.Text,
		OpeningText:     r.OpeningText,
		Categories:      r.Categories,
		Headings:        r.Headings,
		PopularityScore: r.PopularityScore,
		IncomingLinks:   r.IncomingLinks,
	}
}

// UpsertResponse is returned to the caller after a document is accepted.
type UpsertResponse struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

// UpsertEvent is the Kafka message payload produced after a document is
// persisted and ready for (re)indexing.
type UpsertEvent struct {
	DocumentID string    `json:"document_id"`
	IngestedAt time.Time `json:"ingested_at"`
}

// CacheInvalidateEvent tells searchers to drop cached query results, e.g.
// after a full index rebuild.
type CacheInvalidateEvent struct {
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
