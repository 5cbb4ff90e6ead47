package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/upb/storefront-assistant/config"
	"github.com/upb/storefront-assistant/internal/observability"
	"github.com/upb/storefront-assistant/middleware"
	"github.com/upb/storefront-assistant/services/assistant"
	"github.com/upb/storefront-assistant/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	wsWriteTimeout = 10 * time.Second
	errorReply     = "Sorry, something went wrong. Please try again."
)

// MessageHandler answers one chat message
type MessageHandler interface {
	HandleMessage(ctx context.Context, userID int64, text string) (*assistant.Reply, error)
}

// inboundMessage is one client frame
type inboundMessage struct {
	Text string `json:"text"`
}

// WebSocketHandler serves the per-user chat stream. Each connection handles
// one message at a time in receipt order; connections are independent.
type WebSocketHandler struct {
	service  MessageHandler
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewWebSocketHandler creates a new WebSocketHandler. allowedOrigins follows
// the CORS setting; "*" accepts any origin.
func NewWebSocketHandler(
	service MessageHandler,
	cfg config.WebSocketConfig,
	allowedOrigins []string,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *WebSocketHandler {
	return &WebSocketHandler{
		service: service,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger:  logger,
		metrics: metrics,
	}
}

// HandleWebSocket handles GET /api/v1/assistant/ws/{user_id}
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.ParseID(chi.URLParam(r, "user_id"), "user_id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Warn("websocket upgrade failed",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Error(err))
		return
	}

	connID := uuid.NewString()
	logger := h.logger.With(
		zap.String("connection_id", connID),
		zap.Int64("user_id", userID))

	h.metrics.WebSocketOpened()
	defer h.metrics.WebSocketClosed()
	defer conn.Close()

	logger.Info("websocket connected")
	h.serve(r.Context(), conn, userID, logger)
	logger.Info("websocket disconnected")
}

// serve reads frames until the client goes away
func (h *WebSocketHandler) serve(ctx context.Context, conn *websocket.Conn, userID int64, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if h.cfg.ReadLimit > 0 {
		conn.SetReadLimit(h.cfg.ReadLimit)
	}
	limiter := newMessageLimiter(h.cfg)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return
		}

		reply := h.reply(ctx, userID, data, logger)

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			logger.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}

// reply turns one frame into a reply. Malformed frames get the clarification reply.
func (h *WebSocketHandler) reply(ctx context.Context, userID int64, data []byte, logger *zap.Logger) *assistant.Reply {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Debug("malformed websocket frame", zap.Error(err))
		return &assistant.Reply{Intent: assistant.IntentGeneral, Text: assistant.ClarificationReply}
	}

	reply, err := h.service.HandleMessage(ctx, userID, msg.Text)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Error("failed to handle websocket message", zap.Error(err))
		}
		return &assistant.Reply{Intent: assistant.IntentGeneral, Text: errorReply}
	}
	return reply
}

func newMessageLimiter(cfg config.WebSocketConfig) *rate.Limiter {
	if cfg.MessagesPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), burst)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(origin)] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}
