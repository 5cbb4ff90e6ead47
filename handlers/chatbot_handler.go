package handlers

import (
	"context"
	"net/http"

	"github.com/upb/storefront-assistant/middleware"
	"github.com/upb/storefront-assistant/services/conversation"
	"github.com/upb/storefront-assistant/utils"
	"go.uber.org/zap"
)

// ChatService runs one conversational turn against the language model
type ChatService interface {
	Converse(ctx context.Context, userID int64, message string) (*conversation.ChatResult, error)
}

// ChatRequest is the body of POST /api/v1/chatbot
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// ChatbotHandler handles conversational turns
type ChatbotHandler struct {
	service ChatService
	logger  *zap.Logger
}

// NewChatbotHandler creates a new ChatbotHandler
func NewChatbotHandler(service ChatService, logger *zap.Logger) *ChatbotHandler {
	return &ChatbotHandler{
		service: service,
		logger:  logger,
	}
}

// HandleChat handles POST /api/v1/chatbot
// The caller is identified by the token; the whole transcript is rewritten on success.
func (h *ChatbotHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserIDFromContext(ctx)
	if userID <= 0 {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ChatRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.Converse(ctx, userID, req.Message)
	if err != nil {
		h.logger.Warn("chat turn failed",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.Int64("user_id", userID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, result)
}
