package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestChatResponse_Content(t *testing.T) {
	var nilResp *ChatResponse
	if got := nilResp.Content(); got != "" {
		t.Errorf("nil response Content() = %q, want empty", got)
	}

	empty := &ChatResponse{}
	if got := empty.Content(); got != "" {
		t.Errorf("empty response Content() = %q, want empty", got)
	}

	resp := &ChatResponse{
		Choices: []Choice{
			{Message: Message{Role: RoleAssistant, Content: "first"}},
			{Message: Message{Role: RoleAssistant, Content: "second"}},
		},
	}
	if got := resp.Content(); got != "first" {
		t.Errorf("Content() = %q, want first", got)
	}
}

func TestProviderError(t *testing.T) {
	cause := errors.New("upstream reset")
	err := NewProviderError("openai", "HTTP_ERROR", "request failed", 503, true, cause)

	if err.Error() != "request failed: upstream reset" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("ProviderError should unwrap to its cause")
	}

	bare := NewProviderError("openai", "BAD", "bad request", 400, false, nil)
	if bare.Error() != "bad request" {
		t.Errorf("Error() = %q, want bad request", bare.Error())
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"retryable", NewProviderError("openai", "RATE", "slow down", 429, true, nil), true},
		{"not retryable", NewProviderError("openai", "AUTH", "bad key", 401, false, nil), false},
		{"wrapped", fmt.Errorf("chat: %w", NewProviderError("openai", "HTTP", "down", 502, true, nil)), true},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	if !IsTimeout(fmt.Errorf("call: %w", ctx.Err())) {
		t.Error("IsTimeout() should detect a wrapped deadline error")
	}
	if IsTimeout(context.Canceled) {
		t.Error("IsTimeout() should not treat cancellation as timeout")
	}
}
