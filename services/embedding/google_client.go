package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/upb/storefront-assistant/config"
	"github.com/upb/storefront-assistant/internal/observability"
	"go.uber.org/zap"
)

const (
	maxResponseBytes = 4 << 20
	apiKeyHeader     = "x-goog-api-key"
)

// GoogleClient calls the Generative Language embedText endpoint.
// One attempt per call, bounded by the configured timeout.
type GoogleClient struct {
	cfg     config.EmbeddingConfig
	client  *http.Client
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewGoogleClient creates a client from explicit configuration
func NewGoogleClient(cfg config.EmbeddingConfig, logger *zap.Logger, metrics *observability.Metrics) *GoogleClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &GoogleClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
		metrics: metrics,
	}
}

// Configured reports whether a credential is present
func (c *GoogleClient) Configured() bool {
	return c.cfg.APIKey != ""
}

// Model returns the embedding model name
func (c *GoogleClient) Model() string {
	return c.cfg.Model
}

type embedTextRequest struct {
	Text string `json:"text"`
}

// Embed implements Embedder. It never returns an error; failures are logged
// and reported as ok == false.
func (c *GoogleClient) Embed(ctx context.Context, text string) (Vector, bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}
	if !c.Configured() {
		c.metrics.RecordEmbedding("skipped", 0)
		return nil, false
	}

	start := time.Now()
	vec, err := c.call(ctx, text)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn("embedding request failed",
			zap.String("model", c.cfg.Model),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		c.metrics.RecordEmbedding("absent", elapsed)
		return nil, false
	}

	c.metrics.RecordEmbedding("present", elapsed)
	return vec, true
}

func (c *GoogleClient) call(ctx context.Context, text string) (Vector, error) {
	payload, err := json.Marshal(embedTextRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	// The key goes in a header; url.Error quotes the full URL.
	endpoint := fmt.Sprintf("%s/models/%s:embedText",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		url.PathEscape(c.cfg.Model),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling embedding provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("embedding provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	shape, vec := decodeResponse(body)
	if shape == shapeUnrecognized {
		return nil, fmt.Errorf("unrecognized embedding response shape")
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty embedding in %s response", shape)
	}

	c.logger.Debug("embedding received",
		zap.String("shape", shape.String()),
		zap.Int("dimensions", len(vec)),
	)
	return vec, nil
}
