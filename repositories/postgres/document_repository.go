package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/upb/storefront-assistant/models"
	"github.com/upb/storefront-assistant/repositories"
	"go.uber.org/zap"
)

// DocumentRepository implements the repositories.DocumentRepository interface
type DocumentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB, logger *zap.Logger) repositories.DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a document and sets its ID
func (r *DocumentRepository) Create(ctx context.Context, doc *models.PolicyDocument) error {
	query := `
		INSERT INTO policy_documents (title, body, embedding_vector, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	q := queryerFor(ctx, r.db)
	err := q.QueryRowContext(ctx, query,
		doc.Title,
		doc.Body,
		doc.EmbeddingVector,
		doc.CreatedAt,
	).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("failed to create policy document: %w", err)
	}

	r.logger.Debug("policy document created", zap.Int64("id", doc.ID))
	return nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*models.PolicyDocument, error) {
	query := `
		SELECT id, title, body, embedding_vector, created_at
		FROM policy_documents
		WHERE id = $1
	`

	q := queryerFor(ctx, r.db)
	doc := &models.PolicyDocument{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&doc.ID,
		&doc.Title,
		&doc.Body,
		&doc.EmbeddingVector,
		&doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("policy document %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get policy document: %w", err)
	}

	return doc, nil
}

// List returns every document in storage order
func (r *DocumentRepository) List(ctx context.Context) ([]*models.PolicyDocument, error) {
	query := `
		SELECT id, title, body, embedding_vector, created_at
		FROM policy_documents
		ORDER BY id
	`

	return r.queryDocuments(ctx, query)
}

// SearchByTerms matches any term against title or body with ILIKE.
// Wildcards inside terms are escaped so they match literally.
func (r *DocumentRepository) SearchByTerms(ctx context.Context, terms []string, limit int) ([]*models.PolicyDocument, error) {
	if len(terms) == 0 || limit <= 0 {
		return []*models.PolicyDocument{}, nil
	}

	patterns := make([]string, 0, len(terms))
	for _, term := range terms {
		patterns = append(patterns, "%"+escapeLike(term)+"%")
	}

	query := `
		SELECT id, title, body, embedding_vector, created_at
		FROM policy_documents
		WHERE title ILIKE ANY($1) OR body ILIKE ANY($1)
		ORDER BY id
		LIMIT $2
	`

	return r.queryDocuments(ctx, query, pq.Array(patterns), limit)
}

// ListWithEmbeddings returns every document carrying a stored embedding
func (r *DocumentRepository) ListWithEmbeddings(ctx context.Context) ([]*models.PolicyDocument, error) {
	query := `
		SELECT id, title, body, embedding_vector, created_at
		FROM policy_documents
		WHERE embedding_vector IS NOT NULL
		ORDER BY id
	`

	return r.queryDocuments(ctx, query)
}

// UpdateEmbedding stores a serialized embedding for a document
func (r *DocumentRepository) UpdateEmbedding(ctx context.Context, id int64, embedding string) error {
	query := `UPDATE policy_documents SET embedding_vector = $2 WHERE id = $1`

	q := queryerFor(ctx, r.db)
	result, err := q.ExecContext(ctx, query, id, embedding)
	if err != nil {
		return fmt.Errorf("failed to update policy document embedding: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("policy document %d: %w", id, repositories.ErrNotFound)
	}

	r.logger.Debug("policy document embedding updated", zap.Int64("id", id))
	return nil
}

// queryDocuments is a helper method to query multiple documents
func (r *DocumentRepository) queryDocuments(ctx context.Context, query string, args ...interface{}) ([]*models.PolicyDocument, error) {
	q := queryerFor(ctx, r.db)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query policy documents: %w", err)
	}
	defer rows.Close()

	docs := []*models.PolicyDocument{}
	for rows.Next() {
		doc := &models.PolicyDocument{}
		err := rows.Scan(
			&doc.ID,
			&doc.Title,
			&doc.Body,
			&doc.EmbeddingVector,
			&doc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating policy document rows: %w", err)
	}

	return docs, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
