package retrieval

import (
	"math"
	"sort"

	"github.com/upb/storefront-assistant/models"
)

const similarityEpsilon = 1e-10

// RankedCandidate is a document paired with its similarity to the query
type RankedCandidate struct {
	Document *models.PolicyDocument
	Score    float64
}

// CosineSimilarity returns dot(a, b) / (|a||b| + 1e-10).
// Vectors of different length score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + similarityEpsilon)
}

// Rank scores docs against query and returns the topK best, highest first.
// Documents without a parseable embedding, or whose embedding length differs
// from the query, are skipped. Ties keep input order.
func Rank(query []float64, docs []*models.PolicyDocument, topK int) []RankedCandidate {
	ranked := make([]RankedCandidate, 0, len(docs))
	if len(query) == 0 || topK <= 0 {
		return ranked
	}

	for _, doc := range docs {
		if doc == nil {
			continue
		}
		vec, err := doc.Embedding()
		if err != nil || len(vec) != len(query) {
			continue
		}
		ranked = append(ranked, RankedCandidate{
			Document: doc,
			Score:    CosineSimilarity(query, vec),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
