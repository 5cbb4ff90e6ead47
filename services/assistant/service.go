// Package assistant routes shopper messages to catalog lookups and policy
// retrieval, and serves the assistant's catalog helpers.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/upb/storefront-assistant/internal/observability"
	"github.com/upb/storefront-assistant/models"
	"github.com/upb/storefront-assistant/repositories"
	"github.com/upb/storefront-assistant/services"
	"github.com/upb/storefront-assistant/services/retrieval"
	"go.uber.org/zap"
)

const (
	// ClarificationReply answers a message with no text
	ClarificationReply = "I didn't get your message."

	recommendationsReply = "Here are recommended products"
	discountsReply       = "Here are current discounts"
	catalogFailureReply  = "Sorry, I couldn't reach the catalog right now. Please try again in a moment."

	chatResultLimit = 5
	defaultLimit    = 10
	maxLimit        = 50
	purchaseLimit   = 3
)

// Answerer produces policy answers
type Answerer interface {
	Answer(ctx context.Context, query string) (*retrieval.Answer, error)
}

// TranscriptAppender records an exchange in a user's conversation
type TranscriptAppender interface {
	Append(ctx context.Context, userID int64, userTurn, assistantTurn models.ConversationTurn) (*models.Conversation, error)
}

// Service implements the shopping assistant operations
type Service struct {
	catalog      repositories.CatalogRepository
	feedback     repositories.FeedbackRepository
	chatMessages repositories.ChatMessageRepository
	answers      Answerer
	transcripts  TranscriptAppender
	logger       *zap.Logger
	metrics      *observability.Metrics
}

// NewService creates the assistant service. transcripts may be nil, in which
// case chat exchanges are not recorded.
func NewService(
	repos *repositories.Repositories,
	answers Answerer,
	transcripts TranscriptAppender,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		catalog:      repos.Catalog,
		feedback:     repos.Feedback,
		chatMessages: repos.ChatMessages,
		answers:      answers,
		transcripts:  transcripts,
		logger:       logger,
		metrics:      metrics,
	}
}

// HandleMessage classifies text and builds the reply for its intent. Blank
// text gets ClarificationReply with no lookup and nothing recorded.
func (s *Service) HandleMessage(ctx context.Context, userID int64, text string) (*Reply, error) {
	if strings.TrimSpace(text) == "" {
		return &Reply{Intent: IntentGeneral, Text: ClarificationReply}, nil
	}

	intent := Classify(text)
	s.metrics.RecordIntent(string(intent))

	var (
		reply *Reply
		err   error
	)
	switch intent {
	case IntentRecommendation:
		reply = s.recommendationReply(ctx, userID)
	case IntentDiscount:
		reply = s.discountReply(ctx)
	default:
		reply, err = s.policyReply(ctx, intent, text)
	}
	if err != nil {
		return nil, err
	}

	s.record(ctx, userID, text, reply.Text)
	return reply, nil
}

func (s *Service) recommendationReply(ctx context.Context, userID int64) *Reply {
	products, err := s.Recommend(ctx, userID, chatResultLimit)
	if err != nil {
		s.logger.Error("recommendations unavailable", zap.Int64("user_id", userID), zap.Error(err))
		return &Reply{Intent: IntentRecommendation, Text: catalogFailureReply}
	}
	return &Reply{Intent: IntentRecommendation, Text: recommendationsReply, Products: products}
}

func (s *Service) discountReply(ctx context.Context) *Reply {
	discounts, err := s.Discounts(ctx, chatResultLimit)
	if err != nil {
		s.logger.Error("discounts unavailable", zap.Error(err))
		return &Reply{Intent: IntentDiscount, Text: catalogFailureReply}
	}
	return &Reply{Intent: IntentDiscount, Text: discountsReply, Discounts: discounts}
}

func (s *Service) policyReply(ctx context.Context, intent Intent, text string) (*Reply, error) {
	answer, err := s.answers.Answer(ctx, text)
	if err != nil {
		return nil, err
	}

	reply := &Reply{Intent: intent, Text: answer.Text}
	if intent == IntentPolicy {
		reply.Sources = answer.SourceIDs
	}
	return reply, nil
}

// record appends the exchange to the transcript. Failures are logged only.
func (s *Service) record(ctx context.Context, userID int64, question, answer string) {
	if s.transcripts == nil || userID <= 0 {
		return
	}
	_, err := s.transcripts.Append(ctx, userID,
		models.NewTurn(models.RoleUser, question),
		models.NewTurn(models.RoleAssistant, answer),
	)
	if err != nil {
		s.logger.Warn("failed to record chat exchange",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}

// Greet writes and returns a personalised welcome message
func (s *Service) Greet(ctx context.Context, userID int64, name string) (string, error) {
	if userID <= 0 {
		return "", services.ErrInvalidUserID
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("Hi %s! 👋 Welcome back. I can suggest shoes you might like, tell you about discounts, or help with orders. What would you like today?", name)

	msg := &models.ChatMessage{
		UserID:    userID,
		Role:      models.ChatRoleBot,
		Message:   text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.chatMessages.Create(ctx, msg); err != nil {
		return "", services.WrapInternal("failed to save greeting", err)
	}
	return text, nil
}

// Recommend returns the products the user orders most. Users without order
// history, or whose history cannot be read, get the top discounted products.
func (s *Service) Recommend(ctx context.Context, userID int64, limit int) ([]models.ProductSummary, error) {
	limit = clampLimit(limit, chatResultLimit)

	products, err := s.catalog.RecommendByHistory(ctx, userID, limit)
	if err == nil && len(products) > 0 {
		return products, nil
	}
	if err != nil {
		s.logger.Warn("history recommendations failed, using top discounts",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}

	products, err = s.catalog.TopDiscounted(ctx, limit)
	if err != nil {
		return nil, services.WrapInternal("failed to load recommendations", err)
	}
	return nonNilProducts(products), nil
}

// Search returns products matching the filter, best discount first
func (s *Service) Search(ctx context.Context, filter models.ProductFilter) ([]models.ProductSummary, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, services.WrapError(services.ErrorTypeValidation, "min_price must not exceed max_price", nil)
	}
	filter.Limit = clampLimit(filter.Limit, defaultLimit)

	products, err := s.catalog.Search(ctx, filter)
	if err != nil {
		return nil, services.WrapInternal("failed to search products", err)
	}
	return nonNilProducts(products), nil
}

// Discounts returns products with a positive discount, largest first
func (s *Service) Discounts(ctx context.Context, limit int) ([]models.Discount, error) {
	discounts, err := s.catalog.Discounts(ctx, clampLimit(limit, defaultLimit))
	if err != nil {
		return nil, services.WrapInternal("failed to load discounts", err)
	}
	if discounts == nil {
		discounts = []models.Discount{}
	}
	return discounts, nil
}

// SaveFeedback validates and stores a product rating
func (s *Service) SaveFeedback(ctx context.Context, fb *models.Feedback) error {
	if fb.UserID <= 0 {
		return services.ErrInvalidUserID
	}
	if fb.ProductID <= 0 {
		return services.WrapError(services.ErrorTypeValidation, "invalid product id", nil)
	}
	if fb.Rating < 1 || fb.Rating > 5 {
		return services.ErrInvalidRating
	}
	if fb.Comment != nil && strings.TrimSpace(*fb.Comment) == "" {
		fb.Comment = nil
	}
	fb.CreatedAt = time.Now().UTC()

	if err := s.feedback.Create(ctx, fb); err != nil {
		return services.WrapInternal("failed to save feedback", err)
	}
	return nil
}

// FeedbackPrompt invites a user to rate recent purchases
type FeedbackPrompt struct {
	Items  []models.PurchasedItem `json:"items"`
	Prompt string                 `json:"prompt"`
}

// FeedbackPrompt returns nil when the user has no purchases
func (s *Service) FeedbackPrompt(ctx context.Context, userID int64) (*FeedbackPrompt, error) {
	if userID <= 0 {
		return nil, services.ErrInvalidUserID
	}

	items, err := s.catalog.RecentPurchases(ctx, userID, purchaseLimit)
	if err != nil {
		return nil, services.WrapInternal("failed to load recent purchases", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	titles := make([]string, len(items))
	for i, item := range items {
		titles[i] = item.Title
	}
	return &FeedbackPrompt{
		Items:  items,
		Prompt: "You recently bought: " + strings.Join(titles, ", ") + ". Would you like to leave feedback for any of these?",
	}, nil
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func nonNilProducts(p []models.ProductSummary) []models.ProductSummary {
	if p == nil {
		return []models.ProductSummary{}
	}
	return p
}
