package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/upb/storefront-assistant/models"
	"github.com/upb/storefront-assistant/repositories"
	"go.uber.org/zap"
)

// ConversationRepository implements the repositories.ConversationRepository interface
type ConversationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB, logger *zap.Logger) repositories.ConversationRepository {
	return &ConversationRepository{
		db:     db,
		logger: logger,
	}
}

// GetOrCreate returns the user's conversation, creating an empty one on first access.
// The insert is a no-op when the row already exists, so concurrent first
// accesses for one user converge on a single row.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, userID int64) (*models.Conversation, error) {
	insert := `
		INSERT INTO conversation_histories (user_id, history, turns, version, created_at, updated_at)
		VALUES ($1, '', '[]'::jsonb, 0, $2, $2)
		ON CONFLICT (user_id) DO NOTHING
	`

	q := queryerFor(ctx, r.db)
	if _, err := q.ExecContext(ctx, insert, userID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	query := `
		SELECT id, user_id, history, turns, version, created_at, updated_at
		FROM conversation_histories
		WHERE user_id = $1
	`

	conv := &models.Conversation{}
	var turns []byte
	err := q.QueryRowContext(ctx, query, userID).Scan(
		&conv.ID,
		&conv.UserID,
		&conv.History,
		&turns,
		&conv.Version,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	conv.Turns = []models.ConversationTurn{}
	if len(turns) > 0 {
		if err := json.Unmarshal(turns, &conv.Turns); err != nil {
			return nil, fmt.Errorf("failed to decode conversation turns: %w", err)
		}
	}

	return conv, nil
}

// CompareAndSwap writes the transcript only if no one else wrote since conv was read
func (r *ConversationRepository) CompareAndSwap(ctx context.Context, conv *models.Conversation) error {
	turns, err := json.Marshal(conv.Turns)
	if err != nil {
		return fmt.Errorf("failed to encode conversation turns: %w", err)
	}

	query := `
		UPDATE conversation_histories
		SET history = $2,
		    turns = $3,
		    version = version + 1,
		    updated_at = $4
		WHERE user_id = $1 AND version = $5
	`

	now := time.Now().UTC()
	q := queryerFor(ctx, r.db)
	result, err := q.ExecContext(ctx, query,
		conv.UserID,
		conv.History,
		turns,
		now,
		conv.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("conversation for user %d at version %d: %w", conv.UserID, conv.Version, repositories.ErrVersionConflict)
	}

	conv.Version++
	conv.UpdatedAt = now

	r.logger.Debug("conversation updated",
		zap.Int64("user_id", conv.UserID),
		zap.Int64("version", conv.Version),
	)
	return nil
}
