package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/domain/progression"
)

// ProgressionService applies review events to the per-user progression
// aggregate. Each event is applied at most once, keyed by its log ID.
type ProgressionService struct {
	store     Store
	engine    *progression.Engine
	timezones TimezoneSource
	queue     FollowUpQueue
	notifier  Notifier
	retry     RetryPolicy
	logger    *zap.Logger
}

func NewProgressionService(
	store Store,
	engine *progression.Engine,
	timezones TimezoneSource,
	queue FollowUpQueue,
	retry RetryPolicy,
	logger *zap.Logger,
) *ProgressionService {
	return &ProgressionService{
		store:     store,
		engine:    engine,
		timezones: timezones,
		queue:     queue,
		retry:     retry,
		logger:    logger,
	}
}

// SetNotifier sets the notifier (called after the delivery layer is created).
func (s *ProgressionService) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// SyncCatalog writes the configured achievement catalog to storage.
func (s *ProgressionService) SyncCatalog(ctx context.Context) error {
	if err := s.store.Achievements().SyncCatalog(ctx, s.engine.Catalog()); err != nil {
		return persistenceError("sync catalog", err)
	}
	return nil
}

// ApplyReview applies one review event. It returns a nil delta when the event
// had already been applied.
func (s *ProgressionService) ApplyReview(ctx context.Context, entry entities.ReviewLogEntry) (*progression.Delta, error) {
	loc, err := s.timezones.Location(ctx, entry.UserID)
	if err != nil {
		return nil, persistenceError("resolve timezone", err)
	}

	var delta *progression.Delta
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		delta = nil
		return s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
			d, err := s.apply(ctx, tx, entry, loc)
			delta = d
			return err
		})
	})
	if err != nil {
		return nil, persistenceError("apply review", err)
	}

	if delta != nil {
		s.notify(ctx, entry.UserID, *delta)
	}
	return delta, nil
}

func (s *ProgressionService) apply(
	ctx context.Context,
	tx Store,
	entry entities.ReviewLogEntry,
	loc *time.Location,
) (*progression.Delta, error) {
	fresh, err := tx.Progression().MarkApplied(ctx, entry.UserID, entry.ID)
	if err != nil {
		return nil, err
	}
	if !fresh {
		return nil, nil
	}

	p, err := tx.Progression().Get(ctx, entry.UserID)
	if err != nil {
		return nil, err
	}

	today := entities.LocalDate(entry.ReviewedAt, loc)
	existing, err := tx.DailyTasks().ListForDate(ctx, entry.UserID, today)
	if err != nil {
		return nil, err
	}
	unlocked, err := s.unlockedKeys(ctx, tx, entry.UserID)
	if err != nil {
		return nil, err
	}

	out := s.engine.ApplyReview(p, s.engine.TasksForDay(entry.UserID, today, existing), unlocked, entry, loc)

	for _, a := range out.Delta.Unlocked {
		created, err := tx.Achievements().Unlock(ctx, entities.UserAchievement{
			UserID:     entry.UserID,
			Key:        a.Key,
			UnlockedAt: entry.ReviewedAt,
		})
		if err != nil {
			return nil, err
		}
		if !created {
			// Another event unlocked it first; recompute without the reward.
			return nil, entities.ErrConcurrencyConflict
		}
	}
	for _, t := range out.Tasks {
		if err := tx.DailyTasks().Upsert(ctx, t); err != nil {
			return nil, err
		}
	}
	if err := tx.Progression().Save(ctx, out.Progression, p.Version); err != nil {
		return nil, err
	}

	return &out.Delta, nil
}

func (s *ProgressionService) unlockedKeys(ctx context.Context, tx Store, userID int64) (map[string]bool, error) {
	list, err := tx.Achievements().ListUnlocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool, len(list))
	for _, ua := range list {
		keys[ua.Key] = true
	}
	return keys, nil
}

// Defer queues entry for a later attempt by DrainFollowUps.
func (s *ProgressionService) Defer(ctx context.Context, entry entities.ReviewLogEntry) {
	if err := s.queue.Enqueue(ctx, entry); err != nil {
		s.logger.Error("failed to queue progression follow-up",
			zap.Int64("user_id", entry.UserID),
			zap.String("log_id", entry.ID.String()),
			zap.Error(err),
		)
	}
}

// HasBacklog reports whether earlier events of the user still wait on the
// queue. When the queue cannot be read it reports false: deferring to an
// unreachable queue would drop the event.
func (s *ProgressionService) HasBacklog(ctx context.Context, userID int64) bool {
	pending, err := s.queue.Pending(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to check progression backlog", zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	return pending
}

// DrainFollowUps applies up to limit queued events in order. An event that
// fails again goes back to the head of the queue and stops the drain.
func (s *ProgressionService) DrainFollowUps(ctx context.Context, limit int) (int, error) {
	applied := 0
	for applied < limit {
		entry, err := s.queue.Dequeue(ctx)
		if err != nil {
			return applied, fmt.Errorf("dequeue follow-up: %w", err)
		}
		if entry == nil {
			break
		}

		if _, err := s.ApplyReview(ctx, *entry); err != nil {
			if qerr := s.queue.Requeue(ctx, *entry); qerr != nil {
				s.logger.Error("failed to requeue progression follow-up",
					zap.Int64("user_id", entry.UserID),
					zap.String("log_id", entry.ID.String()),
					zap.Error(qerr),
				)
			}
			return applied, fmt.Errorf("apply follow-up %s: %w", entry.ID, err)
		}
		applied++
	}
	return applied, nil
}

func (s *ProgressionService) notify(ctx context.Context, userID int64, delta progression.Delta) {
	if s.notifier == nil || delta.IsEmpty() {
		return
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, entities.ErrUserNotFound) {
			s.logger.Warn("failed to load user for notification", zap.Int64("user_id", userID), zap.Error(err))
		}
		return
	}

	if err := s.notifier.NotifyProgression(ctx, user, delta); err != nil {
		s.logger.Warn("failed to send progression notification",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}

// ProgressionView is the user's progression as shown on a profile screen.
type ProgressionView struct {
	UserID         int64                      `json:"user_id"`
	TotalXP        int64                      `json:"total_xp"`
	Level          int                        `json:"level"`
	Progress       float64                    `json:"progress"`
	NextLevelXP    int64                      `json:"next_level_xp"`
	CurrentStreak  int                        `json:"current_streak"`
	LongestStreak  int                        `json:"longest_streak"`
	TotalReviews   int64                      `json:"total_reviews"`
	CorrectReviews int64                      `json:"correct_reviews"`
	Accuracy       float64                    `json:"accuracy"`
	Tasks          []entities.DailyTask       `json:"tasks"`
	Achievements   []entities.UserAchievement `json:"achievements"`
}

// GetProgression returns the user's progression as of now. A streak whose
// last study day is before yesterday reads as broken; nothing is written.
func (s *ProgressionService) GetProgression(ctx context.Context, userID int64, now time.Time) (*ProgressionView, error) {
	loc, err := s.timezones.Location(ctx, userID)
	if err != nil {
		return nil, persistenceError("resolve timezone", err)
	}
	today := entities.LocalDate(now, loc)

	p, err := s.store.Progression().Get(ctx, userID)
	if err != nil {
		return nil, persistenceError("get progression", err)
	}
	existing, err := s.store.DailyTasks().ListForDate(ctx, userID, today)
	if err != nil {
		return nil, persistenceError("list daily tasks", err)
	}
	achievements, err := s.store.Achievements().ListUnlocked(ctx, userID)
	if err != nil {
		return nil, persistenceError("list achievements", err)
	}

	level := p.XP.Level()
	return &ProgressionView{
		UserID:         userID,
		TotalXP:        p.XP.TotalXP,
		Level:          level,
		Progress:       p.XP.Progress(),
		NextLevelXP:    entities.XPThreshold(level + 1),
		CurrentStreak:  p.Streak.Effective(today),
		LongestStreak:  p.Streak.LongestStreak,
		TotalReviews:   p.TotalReviews,
		CorrectReviews: p.CorrectReviews,
		Accuracy:       p.Accuracy(),
		Tasks:          s.engine.TasksForDay(userID, today, existing),
		Achievements:   achievements,
	}, nil
}
