package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/docrank/docrank/internal/document"
	"github.com/docrank/docrank/internal/indexer"
	apperrors "github.com/docrank/docrank/pkg/errors"
	"github.com/docrank/docrank/pkg/kafka"
)

// HandleUpsert returns a Kafka MessageHandler that reindexes the document
// named by each upsert event. A document deleted between the event and the
// fetch is dropped from the index rather than treated as a failure.
func HandleUpsert(builder *indexer.Builder, collection document.Collection) kafka.MessageHandler {
	logger := slog.Default().With("component", "upsert-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[UpsertEvent](value)
		if err != nil {
			// A malformed event will never decode; skip it instead of
			// blocking the partition.
			logger.Error("failed to decode upsert event", "key", string(key), "error", err)
			return nil
		}

		doc, err := collection.Get(ctx, event.DocumentID)
		if errors.Is(err, apperrors.ErrDocumentNotFound) {
			logger.Warn("document vanished before indexing, removing postings",
				"doc_id", event.DocumentID,
			)
			return builder.Update(ctx, &document.Document{ID: event.DocumentID})
		}
		if err != nil {
			return fmt.Errorf("fetching document %s: %w", event.DocumentID, err)
		}

		if err := builder.Update(ctx, doc); err != nil {
			return fmt.Errorf("reindexing document %s: %w", event.DocumentID, err)
		}
		logger.Info("document reindexed", "doc_id", event.DocumentID)
		return nil
	}
}
