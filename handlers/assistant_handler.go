package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/upb/storefront-assistant/middleware"
	"github.com/upb/storefront-assistant/models"
	"github.com/upb/storefront-assistant/services/assistant"
	"github.com/upb/storefront-assistant/services/retrieval"
	"github.com/upb/storefront-assistant/utils"
	"go.uber.org/zap"
)

const (
	defaultDiscountLimit = 10
	maxDiscountLimit     = 50
)

// AssistantService defines the shopping assistant operations exposed over HTTP
type AssistantService interface {
	Greet(ctx context.Context, userID int64, name string) (string, error)
	Recommend(ctx context.Context, userID int64, limit int) ([]models.ProductSummary, error)
	Search(ctx context.Context, filter models.ProductFilter) ([]models.ProductSummary, error)
	Discounts(ctx context.Context, limit int) ([]models.Discount, error)
	SaveFeedback(ctx context.Context, fb *models.Feedback) error
	FeedbackPrompt(ctx context.Context, userID int64) (*assistant.FeedbackPrompt, error)
}

// PolicyAnswerer answers free-text policy questions
type PolicyAnswerer interface {
	Answer(ctx context.Context, query string) (*retrieval.Answer, error)
}

// RAGRequest is the body of POST /assistant/rag
type RAGRequest struct {
	Q string `json:"q" validate:"required"`
}

// RecommendRequest is the body of POST /assistant/recommend
type RecommendRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
	Limit  int   `json:"limit,omitempty" validate:"omitempty,gte=1,lte=50"`
}

// SearchRequest is the body of POST /assistant/search
type SearchRequest struct {
	Category *string  `json:"category,omitempty"`
	Size     *string  `json:"size,omitempty"`
	Color    *string  `json:"color,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty" validate:"omitempty,gte=0"`
	MaxPrice *float64 `json:"max_price,omitempty" validate:"omitempty,gte=0"`
	Budget   *float64 `json:"budget,omitempty" validate:"omitempty,gt=0"`
	Limit    int      `json:"limit,omitempty" validate:"omitempty,gte=1,lte=50"`
}

// FeedbackRequest is the body of POST /assistant/feedback
type FeedbackRequest struct {
	UserID    int64   `json:"user_id" validate:"required,gt=0"`
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Rating    int     `json:"rating" validate:"required,min=1,max=5"`
	Comment   *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

// GreetRequest is the optional body of POST /assistant/greet
type GreetRequest struct {
	Name string `json:"name,omitempty" validate:"omitempty,max=100"`
}

// FeedbackResult is returned after feedback is stored
type FeedbackResult struct {
	ID     int64 `json:"id"`
	Rating int   `json:"rating"`
}

// AssistantHandler handles the REST assistant endpoints
type AssistantHandler struct {
	service AssistantService
	answers PolicyAnswerer
	logger  *zap.Logger
}

// NewAssistantHandler creates a new AssistantHandler
func NewAssistantHandler(service AssistantService, answers PolicyAnswerer, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{
		service: service,
		answers: answers,
		logger:  logger,
	}
}

// HandleRAG handles POST /api/v1/assistant/rag
func (h *AssistantHandler) HandleRAG(w http.ResponseWriter, r *http.Request) {
	var req RAGRequest
	if !h.decode(w, r, &req) {
		return
	}

	answer, err := h.answers.Answer(r.Context(), req.Q)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("policy answer",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("tier", answer.Tier),
		zap.Int("sources", len(answer.SourceIDs)))

	_ = utils.WriteJSON(w, http.StatusOK, answer)
}

// HandleRecommend handles POST /api/v1/assistant/recommend
func (h *AssistantHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if !h.decode(w, r, &req) {
		return
	}

	products, err := h.service.Recommend(r.Context(), req.UserID, req.Limit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// HandleSearch handles POST /api/v1/assistant/search
func (h *AssistantHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !h.decode(w, r, &req) {
		return
	}

	results, err := h.service.Search(r.Context(), models.ProductFilter{
		Category: req.Category,
		Size:     req.Size,
		Color:    req.Color,
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		Budget:   req.Budget,
		Limit:    req.Limit,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// HandleDiscounts handles GET /api/v1/assistant/discounts
func (h *AssistantHandler) HandleDiscounts(w http.ResponseWriter, r *http.Request) {
	limit := utils.ParseLimit(r.URL.Query().Get("limit"), defaultDiscountLimit, maxDiscountLimit)

	discounts, err := h.service.Discounts(r.Context(), limit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"discounts": discounts})
}

// HandleFeedback handles POST /api/v1/assistant/feedback
func (h *AssistantHandler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if !h.decode(w, r, &req) {
		return
	}

	fb := &models.Feedback{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := h.service.SaveFeedback(r.Context(), fb); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"feedback": FeedbackResult{ID: fb.ID, Rating: fb.Rating},
	})
}

// HandleFeedbackPrompt handles GET /api/v1/assistant/feedback/prompt (authenticated).
// The body is {"prompt": null} when the user has nothing to rate.
func (h *AssistantHandler) HandleFeedbackPrompt(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID <= 0 {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	prompt, err := h.service.FeedbackPrompt(r.Context(), userID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"prompt": prompt})
}

// HandleGreet handles POST /api/v1/assistant/greet (authenticated).
// The greeting uses the name from the request body, then the token's name claim.
func (h *AssistantHandler) HandleGreet(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil || claims.UserID <= 0 {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req GreetRequest
	if r.ContentLength != 0 {
		if !h.decode(w, r, &req) {
			return
		}
	}
	name := req.Name
	if name == "" {
		name = claims.Name
	}

	reply, err := h.service.Greet(r.Context(), claims.UserID, name)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// decode parses and validates a JSON body, writing a 400 on failure
func (h *AssistantHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	return decodeJSON(w, r, dst, h.logger)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return false
	}

	if err := utils.ValidateStruct(dst); err != nil {
		logger.Debug("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}
