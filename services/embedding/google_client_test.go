package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/storefront-assistant/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestClient(baseURL, key string) *GoogleClient {
	return NewGoogleClient(config.EmbeddingConfig{
		APIKey:  key,
		BaseURL: baseURL,
		Model:   "textembedding-gecko-001",
		Timeout: 2 * time.Second,
	}, zap.NewNop(), nil)
}

func TestGoogleClient_Embed_Shapes(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   Vector
		wantOK bool
	}{
		{"data list", `{"data":[{"embedding":[0.1,0.2,0.3]}]}`, Vector{0.1, 0.2, 0.3}, true},
		{"embedding list", `{"embedding":[1,2]}`, Vector{1, 2}, true},
		{"embedding values", `{"embedding":{"values":[0.5,0.25]}}`, Vector{0.5, 0.25}, true},
		{"unrecognized", `{"vector":[1,2,3]}`, nil, false},
		{"empty data falls through to missing embedding", `{"data":[]}`, nil, false},
		{"values missing", `{"embedding":{"other":[1]}}`, nil, false},
		{"non numeric", `{"embedding":["a","b"]}`, nil, false},
		{"empty vector", `{"embedding":[]}`, nil, false},
		{"not json", `<html>`, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			vec, ok := newTestClient(server.URL, "secret").Embed(context.Background(), "return window")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, vec)
		})
	}
}

func TestGoogleClient_Embed_Request(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/textembedding-gecko-001:embedText", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req embedTextRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "how do refunds work", req.Text)

		_, _ = w.Write([]byte(`{"embedding":{"values":[1,0]}}`))
	}))
	defer server.Close()

	vec, ok := newTestClient(server.URL, "secret").Embed(context.Background(), "how do refunds work")
	require.True(t, ok)
	assert.Equal(t, Vector{1, 0}, vec)
}

func TestGoogleClient_Embed_NoCallWithoutKeyOrText(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"embedding":[1]}`))
	}))
	defer server.Close()

	_, ok := newTestClient(server.URL, "").Embed(context.Background(), "refund")
	assert.False(t, ok)

	_, ok = newTestClient(server.URL, "secret").Embed(context.Background(), "   ")
	assert.False(t, ok)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestGoogleClient_Embed_Failures(t *testing.T) {
	t.Run("non 200", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, ok := newTestClient(server.URL, "secret").Embed(context.Background(), "refund")
		assert.False(t, ok)
	})

	t.Run("unreachable", func(t *testing.T) {
		_, ok := newTestClient("http://127.0.0.1:1", "secret").Embed(context.Background(), "refund")
		assert.False(t, ok)
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"embedding":[1]}`))
		}))
		defer server.Close()

		client := NewGoogleClient(config.EmbeddingConfig{
			APIKey:  "secret",
			BaseURL: server.URL,
			Model:   "m",
			Timeout: 20 * time.Millisecond,
		}, zap.NewNop(), nil)

		_, ok := client.Embed(context.Background(), "refund")
		assert.False(t, ok)
	})
}

func TestGoogleClient_Embed_KeyNotLogged(t *testing.T) {
	const key = "k3y-never-in-logs"

	core, logs := observer.New(zap.DebugLevel)
	client := NewGoogleClient(config.EmbeddingConfig{
		APIKey:  key,
		BaseURL: "http://127.0.0.1:1",
		Model:   "m",
		Timeout: time.Second,
	}, zap.New(core), nil)

	_, ok := client.Embed(context.Background(), "refund")
	require.False(t, ok)

	entries := logs.FilterMessage("embedding request failed").All()
	require.Len(t, entries, 1)
	for _, entry := range logs.All() {
		assert.NotContains(t, entry.Message, key)
		for field, value := range entry.ContextMap() {
			assert.NotContains(t, fmt.Sprint(value), key, "field %s", field)
		}
	}
}

func TestNop(t *testing.T) {
	vec, ok := Nop{}.Embed(context.Background(), "anything")
	assert.False(t, ok)
	assert.Nil(t, vec)
}
