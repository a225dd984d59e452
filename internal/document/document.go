// Package document defines the Document type and the Collection interface
// over which the index is built, with PostgreSQL-backed and in-memory
// implementations.
package document

// MaxIDLength bounds document ids so they fit the store's key column.
const MaxIDLength = 255

// Document is a single indexable text document. ID is unique within a
// collection. Only Text participates in indexing and ranking; the remaining
// fields are pass-through metadata surfaced to callers.
type Document struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	OpeningText     string   `json:"opening_text,omitempty"`
	Categories      []string `json:"categories,omitempty"`
	Headings        []string `json:"headings,omitempty"`
	PopularityScore float64  `json:"popularity_score,omitempty"`
	IncomingLinks   int      `json:"incoming_links,omitempty"`
}
