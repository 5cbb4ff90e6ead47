package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/upb/storefront-assistant/config"
	"github.com/upb/storefront-assistant/services/providers"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

// OpenAIAdapter implements providers.Provider for any OpenAI-compatible endpoint
type OpenAIAdapter struct {
	cfg    config.AssistantConfig
	client *goopenai.Client
}

// NewOpenAIAdapter creates a new OpenAI adapter
func NewOpenAIAdapter(cfg config.AssistantConfig) *OpenAIAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	clientConfig := goopenai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIAdapter{
		cfg:    cfg,
		client: goopenai.NewClientWithConfig(clientConfig),
	}
}

// Name returns the provider name
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// Configured reports whether an API key is present
func (a *OpenAIAdapter) Configured() bool {
	return a.cfg.APIKey != ""
}

// ChatCompletion performs a chat completion request
func (a *OpenAIAdapter) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	if !a.Configured() {
		return nil, providers.NewProviderError(a.Name(), "NOT_CONFIGURED", "no API key configured", 0, false, nil)
	}

	startTime := time.Now()

	resp, err := a.client.CreateChatCompletion(ctx, a.buildRequest(req))
	if err != nil {
		return nil, a.convertError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, providers.NewProviderError(a.Name(), "EMPTY_RESPONSE", "provider returned no choices", http.StatusOK, true, nil)
	}

	return a.convertResponse(resp, time.Since(startTime)), nil
}

// IsAvailable checks if the provider is currently available
func (a *OpenAIAdapter) IsAvailable(ctx context.Context) bool {
	if !a.Configured() {
		return false
	}
	_, err := a.client.ListModels(ctx)
	return err == nil
}

func (a *OpenAIAdapter) buildRequest(req *providers.ChatRequest) goopenai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = a.cfg.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = a.cfg.MaxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = a.cfg.Temperature
	}

	messages := make([]goopenai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = goopenai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	return goopenai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
		User:        req.User,
	}
}

func (a *OpenAIAdapter) convertResponse(resp goopenai.ChatCompletionResponse, latency time.Duration) *providers.ChatResponse {
	out := &providers.ChatResponse{
		ID:       resp.ID,
		Model:    resp.Model,
		Provider: a.Name(),
		Choices:  make([]providers.Choice, len(resp.Choices)),
		Usage: providers.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Latency: latency,
	}

	for i, choice := range resp.Choices {
		out.Choices[i] = providers.Choice{
			Index: choice.Index,
			Message: providers.Message{
				Role:    choice.Message.Role,
				Content: choice.Message.Content,
			},
			FinishReason: string(choice.FinishReason),
		}
	}

	return out
}

// convertError maps client errors onto ProviderError
func (a *OpenAIAdapter) convertError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		retryable := apiErr.HTTPStatusCode >= 500 || apiErr.HTTPStatusCode == http.StatusTooManyRequests
		code := apiErr.Type
		if code == "" {
			code = fmt.Sprintf("HTTP_%d", apiErr.HTTPStatusCode)
		}
		return providers.NewProviderError(a.Name(), code, apiErr.Message, apiErr.HTTPStatusCode, retryable, err)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		retryable := reqErr.HTTPStatusCode >= 500 || reqErr.HTTPStatusCode == http.StatusTooManyRequests
		return providers.NewProviderError(a.Name(), "REQUEST_ERROR", "request failed", reqErr.HTTPStatusCode, retryable, err)
	}

	return providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
}
