package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/upb/storefront-assistant/middleware"
	"github.com/upb/storefront-assistant/models"
	"github.com/upb/storefront-assistant/repositories"
	"github.com/upb/storefront-assistant/services"
	"github.com/upb/storefront-assistant/utils"
	"go.uber.org/zap"
)

// DocumentResponse represents a policy document in API responses
type DocumentResponse struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	HasEmbedding bool      `json:"has_embedding"`
	CreatedAt    time.Time `json:"created_at"`
}

// DocumentHandler exposes the policy documents the assistant cites, read-only
type DocumentHandler struct {
	docs   repositories.DocumentRepository
	logger *zap.Logger
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(docs repositories.DocumentRepository, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		docs:   docs,
		logger: logger,
	}
}

// HandleListDocuments handles GET /api/v1/assistant/documents
func (h *DocumentHandler) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	docs, err := h.docs.List(ctx)
	if err != nil {
		h.logger.Error("failed to list policy documents",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to retrieve documents")
		return
	}

	responses := make([]DocumentResponse, len(docs))
	for i, d := range docs {
		responses[i] = documentToResponse(d)
	}

	_ = utils.WriteOK(w, responses)
}

// HandleGetDocument handles GET /api/v1/assistant/documents/{id}.
// Answers cite documents by id; this resolves a citation.
func (h *DocumentHandler) HandleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	doc, err := h.docs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			HandleServiceError(w, services.ErrDocumentNotFound, h.logger)
			return
		}
		HandleServiceError(w, services.WrapInternal("failed to get policy document", err), h.logger)
		return
	}

	_ = utils.WriteOK(w, documentToResponse(doc))
}

func documentToResponse(d *models.PolicyDocument) DocumentResponse {
	return DocumentResponse{
		ID:           d.ID,
		Title:        d.Title,
		Body:         d.Body,
		HasEmbedding: d.HasEmbedding(),
		CreatedAt:    d.CreatedAt,
	}
}
