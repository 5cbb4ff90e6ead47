package assistant

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/upb/storefront-assistant/models"
	"github.com/upb/storefront-assistant/repositories"
	"github.com/upb/storefront-assistant/services/retrieval"
	"go.uber.org/zap"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) RecommendByHistory(ctx context.Context, userID int64, limit int) ([]models.ProductSummary, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProductSummary), args.Error(1)
}

func (m *mockCatalog) TopDiscounted(ctx context.Context, limit int) ([]models.ProductSummary, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProductSummary), args.Error(1)
}

func (m *mockCatalog) Discounts(ctx context.Context, limit int) ([]models.Discount, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Discount), args.Error(1)
}

func (m *mockCatalog) Search(ctx context.Context, filter models.ProductFilter) ([]models.ProductSummary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProductSummary), args.Error(1)
}

func (m *mockCatalog) RecentPurchases(ctx context.Context, userID int64, limit int) ([]models.PurchasedItem, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PurchasedItem), args.Error(1)
}

type mockFeedback struct {
	mock.Mock
}

func (m *mockFeedback) Create(ctx context.Context, fb *models.Feedback) error {
	return m.Called(ctx, fb).Error(0)
}

type mockChatMessages struct {
	mock.Mock
}

func (m *mockChatMessages) Create(ctx context.Context, msg *models.ChatMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type mockAnswerer struct {
	mock.Mock
}

func (m *mockAnswerer) Answer(ctx context.Context, query string) (*retrieval.Answer, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retrieval.Answer), args.Error(1)
}

type mockAppender struct {
	mock.Mock
}

func (m *mockAppender) Append(ctx context.Context, userID int64, userTurn, assistantTurn models.ConversationTurn) (*models.Conversation, error) {
	args := m.Called(ctx, userID, userTurn, assistantTurn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

type fixture struct {
	catalog  *mockCatalog
	feedback *mockFeedback
	messages *mockChatMessages
	answers  *mockAnswerer
	appender *mockAppender
	service  *Service
}

func newFixture() *fixture {
	f := &fixture{
		catalog:  new(mockCatalog),
		feedback: new(mockFeedback),
		messages: new(mockChatMessages),
		answers:  new(mockAnswerer),
		appender: new(mockAppender),
	}
	repos := &repositories.Repositories{
		Catalog:      f.catalog,
		Feedback:     f.feedback,
		ChatMessages: f.messages,
	}
	f.service = NewService(repos, f.answers, f.appender, zap.NewNop(), nil)
	return f
}
