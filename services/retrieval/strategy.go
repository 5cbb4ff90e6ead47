package retrieval

import (
	"context"

	"github.com/upb/storefront-assistant/repositories"
	"github.com/upb/storefront-assistant/services/embedding"
)

// Status tags the result of one retrieval strategy
type Status string

const (
	// StatusHit means the strategy produced at least one document
	StatusHit Status = "hit"
	// StatusEmpty means the strategy ran but found nothing usable
	StatusEmpty Status = "empty"
	// StatusFailed means the strategy could not run to completion
	StatusFailed Status = "failed"
)

// Outcome is the tagged result of a strategy. Candidates is non-empty only
// when Status is StatusHit.
type Outcome struct {
	Status     Status
	Candidates []RankedCandidate
	Reason     string
}

func hit(c []RankedCandidate) Outcome {
	return Outcome{Status: StatusHit, Candidates: c}
}

func empty(reason string) Outcome {
	return Outcome{Status: StatusEmpty, Reason: reason}
}

func failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Reason: err.Error()}
}

// Strategy is one tier of the retrieval cascade. Retrieve reports problems
// through the Outcome and never panics on bad data.
type Strategy interface {
	Name() string
	Retrieve(ctx context.Context, query string) Outcome
}

// SemanticStrategy ranks embedded documents by similarity to the query embedding
type SemanticStrategy struct {
	embedder embedding.Embedder
	docs     repositories.DocumentRepository
	topK     int
}

// NewSemanticStrategy creates the embedding-backed tier
func NewSemanticStrategy(embedder embedding.Embedder, docs repositories.DocumentRepository, topK int) *SemanticStrategy {
	return &SemanticStrategy{embedder: embedder, docs: docs, topK: topK}
}

// Name implements Strategy
func (s *SemanticStrategy) Name() string { return "semantic" }

// Retrieve implements Strategy
func (s *SemanticStrategy) Retrieve(ctx context.Context, query string) Outcome {
	vec, ok := s.embedder.Embed(ctx, query)
	if !ok {
		return empty("query embedding unavailable")
	}

	docs, err := s.docs.ListWithEmbeddings(ctx)
	if err != nil {
		return failed(err)
	}
	if len(docs) == 0 {
		return empty("no embedded documents")
	}

	ranked := Rank(vec, docs, s.topK)
	if len(ranked) == 0 {
		return empty("no comparable embeddings")
	}
	return hit(ranked)
}

// KeywordStrategy wraps KeywordSearch as a cascade tier
type KeywordStrategy struct {
	search *KeywordSearch
	limit  int
}

// NewKeywordStrategy creates the keyword tier
func NewKeywordStrategy(search *KeywordSearch, limit int) *KeywordStrategy {
	return &KeywordStrategy{search: search, limit: limit}
}

// Name implements Strategy
func (k *KeywordStrategy) Name() string { return "keyword" }

// Retrieve implements Strategy
func (k *KeywordStrategy) Retrieve(ctx context.Context, query string) Outcome {
	docs, err := k.search.Search(ctx, query, k.limit)
	if err != nil {
		return failed(err)
	}
	if len(docs) == 0 {
		return empty("no keyword matches")
	}

	candidates := make([]RankedCandidate, 0, len(docs))
	for _, doc := range docs {
		candidates = append(candidates, RankedCandidate{Document: doc})
	}
	return hit(candidates)
}
