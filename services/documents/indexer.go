package documents

import (
	"context"
	"fmt"

	"github.com/upb/storefront-assistant/models"
	"github.com/upb/storefront-assistant/repositories"
	"github.com/upb/storefront-assistant/services/embedding"
	"go.uber.org/zap"
)

// ReembedResult counts what a re-embedding pass did
type ReembedResult struct {
	Embedded int
	Skipped  int
	Failed   int
}

// Indexer writes policy documents and their embeddings
type Indexer struct {
	docs     repositories.DocumentRepository
	tx       repositories.TransactionManager
	embedder embedding.Embedder
	logger   *zap.Logger
}

// NewIndexer creates an Indexer. embedder may be embedding.Nop{} when only
// importing.
func NewIndexer(docs repositories.DocumentRepository, tx repositories.TransactionManager, embedder embedding.Embedder, logger *zap.Logger) *Indexer {
	return &Indexer{
		docs:     docs,
		tx:       tx,
		embedder: embedder,
		logger:   logger,
	}
}

// Import inserts all documents in one transaction; either all are stored or none
func (i *Indexer) Import(ctx context.Context, docs []*models.PolicyDocument) error {
	err := i.tx.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		for _, doc := range docs {
			if err := i.docs.Create(ctx, doc); err != nil {
				return fmt.Errorf("import %q: %w", doc.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	i.logger.Info("policy documents imported", zap.Int("count", len(docs)))
	return nil
}

// Reembed computes and stores embeddings. Documents that already carry one
// are skipped unless force is set. A document the provider cannot embed is
// counted as failed and left unchanged; the pass continues.
func (i *Indexer) Reembed(ctx context.Context, force bool) (ReembedResult, error) {
	var result ReembedResult

	docs, err := i.docs.List(ctx)
	if err != nil {
		return result, fmt.Errorf("list policy documents: %w", err)
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if doc.HasEmbedding() && !force {
			result.Skipped++
			continue
		}

		vec, ok := i.embedder.Embed(ctx, EmbeddingText(doc))
		if !ok {
			i.logger.Warn("embedding unavailable for document", zap.Int64("id", doc.ID))
			result.Failed++
			continue
		}

		encoded, err := models.EncodeEmbedding(vec)
		if err != nil {
			return result, err
		}
		if err := i.docs.UpdateEmbedding(ctx, doc.ID, encoded); err != nil {
			return result, fmt.Errorf("store embedding for document %d: %w", doc.ID, err)
		}
		result.Embedded++
	}

	i.logger.Info("policy document embeddings refreshed",
		zap.Int("embedded", result.Embedded),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result, nil
}

// EmbeddingText is the text embedded for a document
func EmbeddingText(doc *models.PolicyDocument) string {
	return doc.Title + "\n\n" + doc.Body
}
