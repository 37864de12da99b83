// Package memory is an in-process storage driver for local runs and tests.
// It keeps the same contracts as the Postgres driver: version checks,
// insert-if-absent markers and all-or-nothing transactions.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/service"
)

type taskKey struct {
	userID int64
	date   time.Time
	key    string
}

type unlockKey struct {
	userID int64
	key    string
}

type data struct {
	cards       map[uuid.UUID]*entities.Card
	logs        []entities.ReviewLogEntry
	progression map[int64]*entities.UserProgression
	applied     map[uuid.UUID]int64
	tasks       map[taskKey]entities.DailyTask
	catalog     map[string]entities.Achievement
	unlocked    map[unlockKey]entities.UserAchievement
	users       map[int64]*entities.User
}

func newData() *data {
	return &data{
		cards:       make(map[uuid.UUID]*entities.Card),
		progression: make(map[int64]*entities.UserProgression),
		applied:     make(map[uuid.UUID]int64),
		tasks:       make(map[taskKey]entities.DailyTask),
		catalog:     make(map[string]entities.Achievement),
		unlocked:    make(map[unlockKey]entities.UserAchievement),
		users:       make(map[int64]*entities.User),
	}
}

// clone copies everything a transaction may change. Stored values are never
// mutated in place, so pointer maps only need a shallow copy.
func (d *data) clone() *data {
	return &data{
		cards:       maps.Clone(d.cards),
		logs:        append([]entities.ReviewLogEntry(nil), d.logs...),
		progression: maps.Clone(d.progression),
		applied:     maps.Clone(d.applied),
		tasks:       maps.Clone(d.tasks),
		catalog:     maps.Clone(d.catalog),
		unlocked:    maps.Clone(d.unlocked),
		users:       maps.Clone(d.users),
	}
}

// Store is the in-memory service.Store. Transactions are serialized.
type Store struct {
	mu   *sync.Mutex
	data *data
	inTx bool
}

func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, data: newData()}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Cards() service.CardRepository               { return &cardRepository{s} }
func (s *Store) ReviewLogs() service.ReviewLogRepository     { return &reviewLogRepository{s} }
func (s *Store) Progression() service.ProgressionRepository  { return &progressionRepository{s} }
func (s *Store) DailyTasks() service.DailyTaskRepository     { return &dailyTaskRepository{s} }
func (s *Store) Achievements() service.AchievementRepository { return &achievementRepository{s} }
func (s *Store) Users() service.UserRepository               { return &userRepository{s} }

// WithinTx runs fn under the store lock and restores the previous state when
// fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx service.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(ctx, &Store{mu: s.mu, data: s.data, inTx: true}); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}
