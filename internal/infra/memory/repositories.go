package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
)

type cardRepository struct{ s *Store }

func (r *cardRepository) Get(_ context.Context, cardID uuid.UUID) (*entities.Card, error) {
	defer r.s.lock()()
	c, ok := r.s.data.cards[cardID]
	if !ok {
		return nil, entities.ErrCardNotFound
	}
	return c.Clone(), nil
}

func (r *cardRepository) Create(_ context.Context, card *entities.Card) error {
	defer r.s.lock()()
	card.Version = 1
	r.s.data.cards[card.ID] = card.Clone()
	return nil
}

func (r *cardRepository) UpdateIfVersion(_ context.Context, card *entities.Card, expected int64) error {
	defer r.s.lock()()
	stored, ok := r.s.data.cards[card.ID]
	if !ok || stored.Version != expected {
		return entities.ErrConcurrencyConflict
	}
	next := card.Clone()
	next.Content = stored.Content
	next.Version = expected + 1
	r.s.data.cards[card.ID] = next
	card.Version = next.Version
	return nil
}

func (r *cardRepository) ListDue(_ context.Context, userID int64, deckID *uuid.UUID, now time.Time) ([]*entities.Card, error) {
	defer r.s.lock()()
	return r.collect(func(c *entities.Card) bool {
		return c.UserID == userID && (deckID == nil || c.DeckID == *deckID) && c.IsDue(now)
	}), nil
}

func (r *cardRepository) ListDueBefore(_ context.Context, userID int64, until time.Time) ([]*entities.Card, error) {
	defer r.s.lock()()
	return r.collect(func(c *entities.Card) bool {
		return c.UserID == userID && c.DueAt.Before(until)
	}), nil
}

func (r *cardRepository) collect(match func(*entities.Card) bool) []*entities.Card {
	var out []*entities.Card
	for _, c := range r.s.data.cards {
		if match(c) {
			out = append(out, c.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *entities.Card) int {
		if c := a.DueAt.Compare(b.DueAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out
}

type reviewLogRepository struct{ s *Store }

func (r *reviewLogRepository) Append(_ context.Context, entry *entities.ReviewLogEntry) (uuid.UUID, error) {
	defer r.s.lock()()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.s.data.logs = append(r.s.data.logs, *entry)
	return entry.ID, nil
}

func (r *reviewLogRepository) ListByUserBetween(_ context.Context, userID int64, from, to time.Time) ([]entities.ReviewLogEntry, error) {
	defer r.s.lock()()
	var out []entities.ReviewLogEntry
	for _, e := range r.s.data.logs {
		if e.UserID == userID && !e.ReviewedAt.Before(from) && !e.ReviewedAt.After(to) {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b entities.ReviewLogEntry) int {
		return a.ReviewedAt.Compare(b.ReviewedAt)
	})
	return out, nil
}

type progressionRepository struct{ s *Store }

func (r *progressionRepository) Get(_ context.Context, userID int64) (*entities.UserProgression, error) {
	defer r.s.lock()()
	if p, ok := r.s.data.progression[userID]; ok {
		return p.Clone(), nil
	}
	return entities.NewUserProgression(userID), nil
}

func (r *progressionRepository) Save(_ context.Context, p *entities.UserProgression, expected int64) error {
	defer r.s.lock()()
	var current int64
	if stored, ok := r.s.data.progression[p.UserID]; ok {
		current = stored.Version
	}
	if current != expected {
		return entities.ErrConcurrencyConflict
	}
	next := p.Clone()
	next.Version = expected + 1
	r.s.data.progression[p.UserID] = next
	p.Version = next.Version
	return nil
}

func (r *progressionRepository) MarkApplied(_ context.Context, userID int64, logID uuid.UUID) (bool, error) {
	defer r.s.lock()()
	if _, ok := r.s.data.applied[logID]; ok {
		return false, nil
	}
	r.s.data.applied[logID] = userID
	return true, nil
}

type dailyTaskRepository struct{ s *Store }

func (r *dailyTaskRepository) ListForDate(_ context.Context, userID int64, date time.Time) ([]entities.DailyTask, error) {
	defer r.s.lock()()
	var out []entities.DailyTask
	for k, t := range r.s.data.tasks {
		if k.userID == userID && k.date.Equal(date) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b entities.DailyTask) int { return cmp.Compare(a.Key, b.Key) })
	return out, nil
}

func (r *dailyTaskRepository) Upsert(_ context.Context, task entities.DailyTask) error {
	defer r.s.lock()()
	k := taskKey{userID: task.UserID, date: task.Date.UTC(), key: task.Key}
	if stored, ok := r.s.data.tasks[k]; ok && stored.Completed {
		task.Completed = true
		task.CompletedAt = stored.CompletedAt
	}
	r.s.data.tasks[k] = task
	return nil
}

type achievementRepository struct{ s *Store }

func (r *achievementRepository) SyncCatalog(_ context.Context, catalog []entities.Achievement) error {
	defer r.s.lock()()
	for _, a := range catalog {
		r.s.data.catalog[a.Key] = a
	}
	return nil
}

func (r *achievementRepository) ListUnlocked(_ context.Context, userID int64) ([]entities.UserAchievement, error) {
	defer r.s.lock()()
	var out []entities.UserAchievement
	for k, ua := range r.s.data.unlocked {
		if k.userID == userID {
			out = append(out, ua)
		}
	}
	slices.SortFunc(out, func(a, b entities.UserAchievement) int {
		if c := a.UnlockedAt.Compare(b.UnlockedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out, nil
}

func (r *achievementRepository) Unlock(_ context.Context, ua entities.UserAchievement) (bool, error) {
	defer r.s.lock()()
	k := unlockKey{userID: ua.UserID, key: ua.Key}
	if _, ok := r.s.data.unlocked[k]; ok {
		return false, nil
	}
	r.s.data.unlocked[k] = ua
	return true, nil
}

type userRepository struct{ s *Store }

func (r *userRepository) Save(_ context.Context, user *entities.User) error {
	defer r.s.lock()()
	u := *user
	r.s.data.users[user.ID] = &u
	return nil
}

func (r *userRepository) GetByID(_ context.Context, userID int64) (*entities.User, error) {
	defer r.s.lock()()
	u, ok := r.s.data.users[userID]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *userRepository) ListReminderBatch(_ context.Context, limit, offset int) ([]*entities.User, error) {
	defer r.s.lock()()
	var all []*entities.User
	for _, u := range r.s.data.users {
		if u.RemindersEnabled {
			c := *u
			all = append(all, &c)
		}
	}
	slices.SortFunc(all, func(a, b *entities.User) int { return cmp.Compare(a.ID, b.ID) })
	if offset >= len(all) {
		return nil, nil
	}
	return all[offset:min(len(all), offset+limit)], nil
}
