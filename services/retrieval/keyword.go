package retrieval

import (
	"context"
	"fmt"

	"github.com/upb/storefront-assistant/models"
	"github.com/upb/storefront-assistant/repositories"
)

// KeywordSearch does existence-based, case-insensitive substring matching.
// Results come back in storage order, not ranked by relevance.
type KeywordSearch struct {
	docs repositories.DocumentRepository
}

// NewKeywordSearch creates a keyword search over the document store
func NewKeywordSearch(docs repositories.DocumentRepository) *KeywordSearch {
	return &KeywordSearch{docs: docs}
}

// Search returns at most limit documents whose title or body contains any
// term of query. A blank query or non-positive limit yields no documents.
func (k *KeywordSearch) Search(ctx context.Context, query string, limit int) ([]*models.PolicyDocument, error) {
	terms := Terms(query)
	if len(terms) == 0 || limit <= 0 {
		return []*models.PolicyDocument{}, nil
	}

	docs, err := k.docs.SearchByTerms(ctx, terms, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	if docs == nil {
		docs = []*models.PolicyDocument{}
	}
	return docs, nil
}
