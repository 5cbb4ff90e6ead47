// Package conversation keeps each shopper's transcript and runs
// model-backed conversational turns over it.
package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/storefront-assistant/internal/observability"
	"github.com/upb/storefront-assistant/models"
	"github.com/upb/storefront-assistant/repositories"
	"github.com/upb/storefront-assistant/services"
	"go.uber.org/zap"
)

const defaultAppendAttempts = 3

// Store loads and appends to per-user transcripts. Appends use optimistic
// concurrency: a write only lands if the row is unchanged since it was read,
// and a lost race reloads and retries.
type Store struct {
	repo     repositories.ConversationRepository
	attempts int
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewStore creates a transcript store
func NewStore(repo repositories.ConversationRepository, attempts int, logger *zap.Logger, metrics *observability.Metrics) *Store {
	if attempts <= 0 {
		attempts = defaultAppendAttempts
	}
	return &Store{
		repo:     repo,
		attempts: attempts,
		logger:   logger,
		metrics:  metrics,
	}
}

// Load returns the user's conversation, creating an empty one on first access
func (s *Store) Load(ctx context.Context, userID int64) (*models.Conversation, error) {
	if userID <= 0 {
		return nil, services.ErrInvalidUserID
	}

	conv, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, services.WrapInternal("failed to load conversation", err)
	}
	return conv, nil
}

// Append adds one exchange to the user's transcript and returns the updated
// conversation. Returns ErrConcurrentUpdate when every attempt lost a race.
func (s *Store) Append(ctx context.Context, userID int64, userTurn, assistantTurn models.ConversationTurn) (*models.Conversation, error) {
	for attempt := 1; attempt <= s.attempts; attempt++ {
		conv, err := s.Load(ctx, userID)
		if err != nil {
			s.metrics.RecordConversationAppend("error")
			return nil, err
		}

		conv.Append(userTurn, assistantTurn)

		err = s.repo.CompareAndSwap(ctx, conv)
		if err == nil {
			s.metrics.RecordConversationAppend("ok")
			return conv, nil
		}
		if !errors.Is(err, repositories.ErrVersionConflict) {
			s.metrics.RecordConversationAppend("error")
			return nil, services.WrapInternal("failed to append conversation", err)
		}

		s.logger.Debug("conversation append lost race, retrying",
			zap.Int64("user_id", userID),
			zap.Int("attempt", attempt),
		)
	}

	s.metrics.RecordConversationAppend("conflict")
	return nil, services.WrapError(services.ErrorTypeConflict,
		fmt.Sprintf("conversation changed concurrently %d times", s.attempts),
		services.ErrConcurrentUpdate)
}
