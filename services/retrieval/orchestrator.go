package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/upb/storefront-assistant/config"
	"github.com/upb/storefront-assistant/internal/observability"
	"github.com/upb/storefront-assistant/services"
	"go.uber.org/zap"
)

// TierFallback names the answer produced when every strategy comes up empty
const TierFallback = "fallback"

// Answer is a policy answer and the documents it was built from
type Answer struct {
	Text      string  `json:"answer"`
	SourceIDs []int64 `json:"sources"`
	Tier      string  `json:"-"`
}

// Orchestrator runs the strategy cascade and assembles the answer text
type Orchestrator struct {
	strategies   []Strategy
	snippetLimit int
	fallback     string
	logger       *zap.Logger
	metrics      *observability.Metrics
}

// NewOrchestrator creates an orchestrator that tries strategies in order
func NewOrchestrator(cfg config.RetrievalConfig, strategies []Strategy, logger *zap.Logger, metrics *observability.Metrics) *Orchestrator {
	fallback := cfg.FallbackMessage
	if strings.TrimSpace(fallback) == "" {
		fallback = config.DefaultFallbackMessage
	}
	limit := cfg.SnippetLimit
	if limit <= 0 {
		limit = 800
	}
	return &Orchestrator{
		strategies:   strategies,
		snippetLimit: limit,
		fallback:     fallback,
		logger:       logger,
		metrics:      metrics,
	}
}

// Answer returns an answer for query. The only error is ErrEmptyQuery for a
// blank query; every retrieval failure degrades to the next tier.
func (o *Orchestrator) Answer(ctx context.Context, query string) (*Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, services.ErrEmptyQuery
	}

	for _, strategy := range o.strategies {
		outcome := o.run(ctx, strategy, query)

		switch outcome.Status {
		case StatusHit:
			if answer := o.compose(outcome.Candidates); answer != nil {
				answer.Tier = strategy.Name()
				o.metrics.RecordRetrieval(answer.Tier)
				return answer, nil
			}
			o.logger.Debug("retrieval tier matched only blank documents", zap.String("tier", strategy.Name()))
			return o.fallbackAnswer(), nil
		case StatusFailed:
			o.logger.Warn("retrieval tier failed",
				zap.String("tier", strategy.Name()),
				zap.String("reason", outcome.Reason),
			)
		default:
			o.logger.Debug("retrieval tier empty",
				zap.String("tier", strategy.Name()),
				zap.String("reason", outcome.Reason),
			)
		}
	}

	return o.fallbackAnswer(), nil
}

func (o *Orchestrator) fallbackAnswer() *Answer {
	o.metrics.RecordRetrieval(TierFallback)
	return &Answer{Text: o.fallback, SourceIDs: []int64{}, Tier: TierFallback}
}

// run isolates a strategy so a panic inside it degrades like any other failure
func (o *Orchestrator) run(ctx context.Context, strategy Strategy, query string) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = failed(fmt.Errorf("panic: %v", r))
		}
	}()
	return strategy.Retrieve(ctx, query)
}

// compose joins truncated bodies with a blank line. Returns nil when the
// joined text is blank.
func (o *Orchestrator) compose(candidates []RankedCandidate) *Answer {
	snippets := make([]string, 0, len(candidates))
	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		snippets = append(snippets, truncate(c.Document.Body, o.snippetLimit))
		ids = append(ids, c.Document.ID)
	}

	text := strings.Join(snippets, "\n\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return &Answer{Text: text, SourceIDs: ids}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
