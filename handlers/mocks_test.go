package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/upb/storefront-assistant/models"
	"github.com/upb/storefront-assistant/services/assistant"
	"github.com/upb/storefront-assistant/services/conversation"
	"github.com/upb/storefront-assistant/services/retrieval"
)

var (
	_ AssistantService = (*MockAssistantService)(nil)
	_ MessageHandler   = (*MockMessageHandler)(nil)
)

// MockMessageHandler is a mock implementation of MessageHandler
type MockMessageHandler struct {
	mock.Mock
}

func (m *MockMessageHandler) HandleMessage(ctx context.Context, userID int64, text string) (*assistant.Reply, error) {
	args := m.Called(ctx, userID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assistant.Reply), args.Error(1)
}

// MockAssistantService is a mock implementation of AssistantService
type MockAssistantService struct {
	mock.Mock
}

func (m *MockAssistantService) Greet(ctx context.Context, userID int64, name string) (string, error) {
	args := m.Called(ctx, userID, name)
	return args.String(0), args.Error(1)
}

func (m *MockAssistantService) Recommend(ctx context.Context, userID int64, limit int) ([]models.ProductSummary, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProductSummary), args.Error(1)
}

func (m *MockAssistantService) Search(ctx context.Context, filter models.ProductFilter) ([]models.ProductSummary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProductSummary), args.Error(1)
}

func (m *MockAssistantService) Discounts(ctx context.Context, limit int) ([]models.Discount, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Discount), args.Error(1)
}

func (m *MockAssistantService) SaveFeedback(ctx context.Context, fb *models.Feedback) error {
	return m.Called(ctx, fb).Error(0)
}

func (m *MockAssistantService) FeedbackPrompt(ctx context.Context, userID int64) (*assistant.FeedbackPrompt, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assistant.FeedbackPrompt), args.Error(1)
}

// MockPolicyAnswerer is a mock implementation of PolicyAnswerer
type MockPolicyAnswerer struct {
	mock.Mock
}

func (m *MockPolicyAnswerer) Answer(ctx context.Context, query string) (*retrieval.Answer, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retrieval.Answer), args.Error(1)
}

// MockChatService is a mock implementation of ChatService
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Converse(ctx context.Context, userID int64, message string) (*conversation.ChatResult, error) {
	args := m.Called(ctx, userID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*conversation.ChatResult), args.Error(1)
}
