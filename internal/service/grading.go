package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/domain/progression"
	"github.com/aliskhannn/flashcards-engine/internal/domain/srs"
)

// GradeResult is the outcome of one grading action.
type GradeResult struct {
	Card     *entities.Card
	LogEntry entities.ReviewLogEntry
	// Progression is nil when the progression update was deferred to the
	// follow-up queue.
	Progression *progression.Delta
}

// GradingService schedules a graded card and records the review.
type GradingService struct {
	store       Store
	scheduler   *srs.Scheduler
	progression *ProgressionService
	cache       StatsCache
	retry       RetryPolicy
	logger      *zap.Logger
}

func NewGradingService(
	store Store,
	scheduler *srs.Scheduler,
	progression *ProgressionService,
	cache StatsCache,
	retry RetryPolicy,
	logger *zap.Logger,
) *GradingService {
	return &GradingService{
		store:       store,
		scheduler:   scheduler,
		progression: progression,
		cache:       cache,
		retry:       retry,
		logger:      logger,
	}
}

// GradeCard applies rating to the user's card at now.
//
// The card update and the log append commit together or not at all; a
// concurrent grading of the same card is retried per the retry policy.
// Progression is applied afterwards in its own transaction and never fails
// the grading: on error, or while older events of the user are still queued,
// the event is queued and Progression is nil.
func (s *GradingService) GradeCard(
	ctx context.Context,
	userID int64,
	cardID uuid.UUID,
	rating entities.Rating,
	now time.Time,
) (*GradeResult, error) {
	if !rating.IsValid() {
		return nil, fmt.Errorf("grade card: %w: %d", entities.ErrInvalidRating, int(rating))
	}

	var result GradeResult
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
			card, err := tx.Cards().Get(ctx, cardID)
			if err != nil {
				return err
			}
			if card.UserID != userID {
				return entities.ErrUnauthorized
			}

			next, entry, err := s.scheduler.Schedule(card, rating, now)
			if err != nil {
				return err
			}
			if err := tx.Cards().UpdateIfVersion(ctx, next, card.Version); err != nil {
				return err
			}
			if _, err := tx.ReviewLogs().Append(ctx, &entry); err != nil {
				return err
			}

			result = GradeResult{Card: next, LogEntry: entry}
			return nil
		})
	})
	if err != nil {
		return nil, persistenceError("grade card", err)
	}

	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("failed to invalidate stats cache", zap.Int64("user_id", userID), zap.Error(err))
	}

	// Streaks depend on the order of study days, so a user's events never
	// overtake the ones still waiting on the follow-up queue.
	if s.progression.HasBacklog(ctx, userID) {
		s.logger.Info("progression backlog pending, event queued behind it",
			zap.Int64("user_id", userID),
			zap.String("log_id", result.LogEntry.ID.String()),
		)
		s.progression.Defer(ctx, result.LogEntry)
		return &result, nil
	}

	delta, err := s.progression.ApplyReview(ctx, result.LogEntry)
	if err != nil {
		s.logger.Error("progression update failed, queued for retry",
			zap.Int64("user_id", userID),
			zap.String("card_id", cardID.String()),
			zap.String("log_id", result.LogEntry.ID.String()),
			zap.Error(err),
		)
		s.progression.Defer(ctx, result.LogEntry)
		return &result, nil
	}

	result.Progression = delta
	return &result, nil
}
