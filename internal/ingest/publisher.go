package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docrank/docrank/internal/document"
	apperrors "github.com/docrank/docrank/pkg/errors"
	"github.com/docrank/docrank/pkg/kafka"
)

// Publisher persists documents to the collection and publishes upsert events
// for downstream indexing.
type Publisher struct {
	collection *document.PostgresCollection
	producer   *kafka.Producer
	logger     *slog.Logger
}

// NewPublisher creates a Publisher over the given collection and producer.
func NewPublisher(collection *document.PostgresCollection, producer *kafka.Producer) *Publisher {
	return &Publisher{
		collection: collection,
		producer:   producer,
		logger:     slog.Default().With("component", "ingest-publisher"),
	}
}

// Upsert validates the request, stores the document, and announces it to the
// indexer.
func (p *Publisher) Upsert(ctx context.Context, req *UpsertRequest) (*UpsertResponse, error) {
	if req.ID == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, 400, "document id is required")
	}
	if len(req.ID) > document.MaxIDLength {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, 400, "document id exceeds %d bytes", document.MaxIDLength)
	}

	doc := req.Document()
	if err := p.collection.Upsert(ctx, doc); err != nil {
		return nil, fmt.Errorf("persisting document: %w", err)
	}

	event := UpsertEvent{
		DocumentID: doc.ID,
		IngestedAt: time.Now().UTC(),
	}
	if err := p.producer.Publish(ctx, kafka.Event{Key: doc.ID, Value: event}); err != nil {
		// The document is durable; the indexer will pick it up on the
		// next full rebuild even if the event is lost.
		p.logger.Error("publishing upsert event failed", "doc_id", doc.ID, "error", err)
		return &UpsertResponse{DocumentID: doc.ID, Status: "stored"}, nil
	}

	p.logger.Info("document ingested", "doc_id", doc.ID)
	return &UpsertResponse{DocumentID: doc.ID, Status: "accepted"}, nil
}
