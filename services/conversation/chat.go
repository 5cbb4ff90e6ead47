package conversation

import (
	"context"
	"strconv"
	"strings"

	"github.com/upb/storefront-assistant/config"
	"github.com/upb/storefront-assistant/internal/prompt"
	"github.com/upb/storefront-assistant/models"
	"github.com/upb/storefront-assistant/services"
	"github.com/upb/storefront-assistant/services/providers"
	"go.uber.org/zap"
)

// ChatResult is the reply to one conversational turn
type ChatResult struct {
	Response       string `json:"response"`
	ConversationID int64  `json:"conversation_id"`
}

// ChatService answers free-form messages with the language model, grounded
// on the caller's transcript
type ChatService struct {
	store    *Store
	provider providers.Provider
	policy   HistoryPolicy
	cfg      config.AssistantConfig
	logger   *zap.Logger
}

// NewChatService creates a chat service. A nil policy keeps the whole transcript.
func NewChatService(store *Store, provider providers.Provider, policy HistoryPolicy, cfg config.AssistantConfig, logger *zap.Logger) *ChatService {
	if policy == nil {
		policy = KeepAll{}
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = config.DefaultSystemPrompt
	}
	return &ChatService{
		store:    store,
		provider: provider,
		policy:   policy,
		cfg:      cfg,
		logger:   logger,
	}
}

// Converse runs one turn: screen the message, ask the model with the
// transcript as context, then persist the exchange. Nothing is persisted when
// the model call fails.
func (s *ChatService) Converse(ctx context.Context, userID int64, message string) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, services.ErrEmptyMessage
	}

	screened, err := prompt.Screen(message)
	if err != nil {
		s.logger.Warn("message rejected by prompt guard",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, services.ErrInjectionDetected.Wrap(err)
	}

	conv, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.provider == nil {
		return nil, services.ErrProviderUnavailable
	}

	req := &providers.ChatRequest{
		Model:       s.cfg.Model,
		Messages:    s.buildMessages(conv, screened),
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		User:        strconv.FormatInt(userID, 10),
	}
	resp, err := s.provider.ChatCompletion(ctx, req)
	if err != nil && providers.IsRetryable(err) && ctx.Err() == nil {
		// One more attempt for rate limits and upstream 5xx
		s.logger.Warn("retrying language model call",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		resp, err = s.provider.ChatCompletion(ctx, req)
	}
	if err != nil {
		s.logger.Error("language model call failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		if providers.IsTimeout(err) {
			return nil, services.ErrProviderTimeout.Wrap(err)
		}
		return nil, services.ErrProviderUnavailable.Wrap(err)
	}

	answer := strings.TrimSpace(resp.Content())
	if answer == "" {
		return nil, services.WrapExternal("language model returned an empty answer", nil)
	}

	updated, err := s.store.Append(ctx, userID,
		models.NewTurn(models.RoleUser, screened),
		models.NewTurn(models.RoleAssistant, answer),
	)
	if err != nil {
		return nil, err
	}

	return &ChatResult{
		Response:       answer,
		ConversationID: updated.ID,
	}, nil
}

func (s *ChatService) buildMessages(conv *models.Conversation, message string) []providers.Message {
	messages := []providers.Message{
		{Role: providers.RoleSystem, Content: s.cfg.SystemPrompt},
	}
	if history := strings.TrimSpace(s.policy.Context(conv)); history != "" {
		messages = append(messages, providers.Message{
			Role:    providers.RoleSystem,
			Content: "Conversation so far:\n" + history,
		})
	}
	return append(messages, providers.Message{Role: providers.RoleUser, Content: message})
}
