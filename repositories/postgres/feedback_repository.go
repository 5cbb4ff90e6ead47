package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/storefront-assistant/models"
	"github.com/upb/storefront-assistant/repositories"
	"go.uber.org/zap"
)

// FeedbackRepository implements the repositories.FeedbackRepository interface
type FeedbackRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *DB, logger *zap.Logger) repositories.FeedbackRepository {
	return &FeedbackRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts feedback and sets its ID and CreatedAt
func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	query := `
		INSERT INTO feedbacks (user_id, product_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}

	q := queryerFor(ctx, r.db)
	err := q.QueryRowContext(ctx, query,
		fb.UserID,
		fb.ProductID,
		fb.Rating,
		fb.Comment,
		fb.CreatedAt,
	).Scan(&fb.ID)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}

	r.logger.Debug("feedback created",
		zap.Int64("id", fb.ID),
		zap.Int64("product_id", fb.ProductID),
	)
	return nil
}

// ChatMessageRepository implements the repositories.ChatMessageRepository interface
type ChatMessageRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewChatMessageRepository creates a new chat message repository
func NewChatMessageRepository(db *DB, logger *zap.Logger) repositories.ChatMessageRepository {
	return &ChatMessageRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a message and sets its ID
func (r *ChatMessageRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (user_id, role, message, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	q := queryerFor(ctx, r.db)
	err := q.QueryRowContext(ctx, query,
		msg.UserID,
		msg.Role,
		msg.Message,
		msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}

	return nil
}
