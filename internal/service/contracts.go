package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/domain/progression"
	"github.com/aliskhannn/flashcards-engine/internal/domain/stats"
)

// CardRepository reads and writes cards with an optimistic version check.
type CardRepository interface {
	Get(ctx context.Context, cardID uuid.UUID) (*entities.Card, error)
	Create(ctx context.Context, card *entities.Card) error
	// UpdateIfVersion writes card only if the stored version equals expected,
	// then sets card.Version to the new version. It returns
	// entities.ErrConcurrencyConflict when no row matched.
	UpdateIfVersion(ctx context.Context, card *entities.Card, expected int64) error
	ListDue(ctx context.Context, userID int64, deckID *uuid.UUID, now time.Time) ([]*entities.Card, error)
	ListDueBefore(ctx context.Context, userID int64, until time.Time) ([]*entities.Card, error)
}

// ReviewLogRepository is the append-only review history.
type ReviewLogRepository interface {
	Append(ctx context.Context, entry *entities.ReviewLogEntry) (uuid.UUID, error)
	ListByUserBetween(ctx context.Context, userID int64, from, to time.Time) ([]entities.ReviewLogEntry, error)
}

// ProgressionRepository stores the per-user progression aggregate.
type ProgressionRepository interface {
	// Get returns the stored aggregate, or an empty one with Version 0.
	Get(ctx context.Context, userID int64) (*entities.UserProgression, error)
	// Save writes p if the stored version equals expected (0 inserts).
	Save(ctx context.Context, p *entities.UserProgression, expected int64) error
	// MarkApplied records that a review event was applied; false means it
	// already was.
	MarkApplied(ctx context.Context, userID int64, logID uuid.UUID) (bool, error)
}

type DailyTaskRepository interface {
	ListForDate(ctx context.Context, userID int64, date time.Time) ([]entities.DailyTask, error)
	Upsert(ctx context.Context, task entities.DailyTask) error
}

type AchievementRepository interface {
	SyncCatalog(ctx context.Context, catalog []entities.Achievement) error
	ListUnlocked(ctx context.Context, userID int64) ([]entities.UserAchievement, error)
	// Unlock inserts the marker; false means it already existed.
	Unlock(ctx context.Context, ua entities.UserAchievement) (bool, error)
}

type UserRepository interface {
	Save(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, userID int64) (*entities.User, error)
	ListReminderBatch(ctx context.Context, limit, offset int) ([]*entities.User, error)
}

// Store groups the repositories. Repositories obtained inside WithinTx see
// and write the transaction only.
type Store interface {
	Cards() CardRepository
	ReviewLogs() ReviewLogRepository
	Progression() ProgressionRepository
	DailyTasks() DailyTaskRepository
	Achievements() AchievementRepository
	Users() UserRepository
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// TimezoneSource resolves the location that defines a user's calendar day.
type TimezoneSource interface {
	Location(ctx context.Context, userID int64) (*time.Location, error)
}

// StatsCache keeps computed views. Invalidate makes every view of the user
// miss; Last still returns the most recent view of a kind for stale fallbacks.
type StatsCache interface {
	Get(ctx context.Context, userID int64, key string) (*stats.View, bool, error)
	Set(ctx context.Context, userID int64, key string, view *stats.View) error
	Last(ctx context.Context, userID int64, kind stats.Kind) (*stats.View, bool, error)
	Invalidate(ctx context.Context, userID int64) error
}

// FollowUpQueue holds review events whose progression update failed.
type FollowUpQueue interface {
	Enqueue(ctx context.Context, entry entities.ReviewLogEntry) error
	// Dequeue returns nil when the queue is empty.
	Dequeue(ctx context.Context) (*entities.ReviewLogEntry, error)
	// Requeue puts entry back at the head, ahead of later events.
	Requeue(ctx context.Context, entry entities.ReviewLogEntry) error
	// Pending reports whether any event of the user is queued.
	Pending(ctx context.Context, userID int64) (bool, error)
}

// Notifier delivers progression and reminder messages to a user.
type Notifier interface {
	NotifyProgression(ctx context.Context, user *entities.User, delta progression.Delta) error
	NotifyDue(ctx context.Context, user *entities.User, today stats.ForecastDay) error
}
