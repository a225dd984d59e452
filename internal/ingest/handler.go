package ingest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/docrank/docrank/pkg/errors"
	"github.com/docrank/docrank/pkg/logger"
)

// Handler exposes the ingestion API over HTTP.
type Handler struct {
	publisher *Publisher
	logger    *slog.Logger
}

// NewHandler creates an ingestion HTTP handler.
func NewHandler(publisher *Publisher) *Handler {
	return &Handler{
		publisher: publisher,
		logger:    slog.Default().With("component", "ingest-handler"),
	}
}

// Upsert handles POST /api/v1/documents.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "malformed JSON body"))
		return
	}

	resp, err := h.publisher.Upsert(ctx, &req)
	if err != nil {
		log.Error("ingestion failed", "doc_id", req.ID, "error", err)
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("encoding response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperrors.HTTPStatusCode(err))
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
