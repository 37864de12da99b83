package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/domain/progression"
	"github.com/aliskhannn/flashcards-engine/internal/domain/srs"
	"github.com/aliskhannn/flashcards-engine/internal/domain/stats"
	"github.com/aliskhannn/flashcards-engine/internal/infra/memory"
	"github.com/aliskhannn/flashcards-engine/internal/service"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

const userID int64 = 42

// faults injects failures into a wrapped store.
type faults struct {
	mu             sync.Mutex
	cardConflicts  int
	updateCalls    int
	appendErr      error
	progressionErr error
	readErr        error
}

func (f *faults) set(apply func(f *faults)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	apply(f)
}

func (f *faults) get() faults {
	f.mu.Lock()
	defer f.mu.Unlock()
	return faults{
		cardConflicts:  f.cardConflicts,
		updateCalls:    f.updateCalls,
		appendErr:      f.appendErr,
		progressionErr: f.progressionErr,
		readErr:        f.readErr,
	}
}

type faultStore struct {
	service.Store
	f *faults
}

func (s *faultStore) Cards() service.CardRepository {
	return &faultCards{CardRepository: s.Store.Cards(), f: s.f}
}

func (s *faultStore) ReviewLogs() service.ReviewLogRepository {
	return &faultLogs{ReviewLogRepository: s.Store.ReviewLogs(), f: s.f}
}

func (s *faultStore) Progression() service.ProgressionRepository {
	return &faultProgression{ProgressionRepository: s.Store.Progression(), f: s.f}
}

func (s *faultStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx service.Store) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx service.Store) error {
		return fn(ctx, &faultStore{Store: tx, f: s.f})
	})
}

type faultCards struct {
	service.CardRepository
	f *faults
}

func (c *faultCards) UpdateIfVersion(ctx context.Context, card *entities.Card, expected int64) error {
	c.f.mu.Lock()
	c.f.updateCalls++
	conflict := c.f.cardConflicts > 0
	if conflict {
		c.f.cardConflicts--
	}
	c.f.mu.Unlock()

	if conflict {
		return entities.ErrConcurrencyConflict
	}
	return c.CardRepository.UpdateIfVersion(ctx, card, expected)
}

func (c *faultCards) ListDueBefore(ctx context.Context, userID int64, until time.Time) ([]*entities.Card, error) {
	if err := c.f.get().readErr; err != nil {
		return nil, err
	}
	return c.CardRepository.ListDueBefore(ctx, userID, until)
}

type faultLogs struct {
	service.ReviewLogRepository
	f *faults
}

func (l *faultLogs) Append(ctx context.Context, entry *entities.ReviewLogEntry) (uuid.UUID, error) {
	if err := l.f.get().appendErr; err != nil {
		return uuid.Nil, err
	}
	return l.ReviewLogRepository.Append(ctx, entry)
}

func (l *faultLogs) ListByUserBetween(ctx context.Context, userID int64, from, to time.Time) ([]entities.ReviewLogEntry, error) {
	if err := l.f.get().readErr; err != nil {
		return nil, err
	}
	// A database driver gives up on a cancelled context.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.ReviewLogRepository.ListByUserBetween(ctx, userID, from, to)
}

type faultProgression struct {
	service.ProgressionRepository
	f *faults
}

func (p *faultProgression) MarkApplied(ctx context.Context, userID int64, logID uuid.UUID) (bool, error) {
	if err := p.f.get().progressionErr; err != nil {
		return false, err
	}
	return p.ProgressionRepository.MarkApplied(ctx, userID, logID)
}

type recordingNotifier struct {
	mu          sync.Mutex
	progression []progression.Delta
	due         map[int64]stats.ForecastDay
}

func (n *recordingNotifier) NotifyProgression(_ context.Context, _ *entities.User, delta progression.Delta) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.progression = append(n.progression, delta)
	return nil
}

func (n *recordingNotifier) NotifyDue(_ context.Context, user *entities.User, today stats.ForecastDay) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.due == nil {
		n.due = make(map[int64]stats.ForecastDay)
	}
	n.due[user.ID] = today
	return nil
}

type env struct {
	mem         *memory.Store
	store       *faultStore
	faults      *faults
	queue       *memory.Queue
	cache       *memory.StatsCache
	notifier    *recordingNotifier
	scheduler   *srs.Scheduler
	grading     *service.GradingService
	progression *service.ProgressionService
	cards       *service.CardService
	stats       *service.StatsService
	users       *service.UserService
	reminders   *service.ReminderService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	scheduler, err := srs.NewScheduler(srs.DefaultConfig())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	engine, err := progression.NewEngine(progression.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	aggregator, err := stats.NewAggregator(stats.DefaultConfig())
	if err != nil {
		t.Fatalf("NewAggregator: %v", err)
	}

	logger := zap.NewNop()
	retry := service.RetryPolicy{Attempts: 3, Backoff: time.Millisecond}

	e := &env{
		mem:       memory.NewStore(),
		faults:    &faults{},
		queue:     memory.NewQueue(),
		cache:     memory.NewStatsCache(),
		notifier:  &recordingNotifier{},
		scheduler: scheduler,
	}
	e.store = &faultStore{Store: e.mem, f: e.faults}

	timezones := service.NewUserTimezones(e.store.Users())
	e.progression = service.NewProgressionService(e.store, engine, timezones, e.queue, retry, logger)
	e.progression.SetNotifier(e.notifier)
	e.grading = service.NewGradingService(e.store, scheduler, e.progression, e.cache, retry, logger)
	e.cards = service.NewCardService(e.store, scheduler)
	e.stats = service.NewStatsService(e.store, aggregator, timezones, e.cache, logger)
	e.users = service.NewUserService(e.store.Users(), logger)
	e.reminders = service.NewReminderService(
		e.store.Users(),
		e.stats,
		service.ReminderConfig{Spec: "0 * * * *", BatchSize: 2, MaxConcurrent: 2},
		logger,
	)
	e.reminders.SetNotifier(e.notifier)

	if err := e.progression.SyncCatalog(context.Background()); err != nil {
		t.Fatalf("SyncCatalog: %v", err)
	}
	if _, err := e.users.EnsureUser(context.Background(), userID, 1000); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	return e
}

func (e *env) newCard(t *testing.T, deck uuid.UUID, now time.Time) *entities.Card {
	t.Helper()
	card, err := e.cards.CreateCard(context.Background(), userID, deck, entities.CardContent{Front: "front", Back: "back"}, now)
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	return card
}

func (e *env) grade(t *testing.T, cardID uuid.UUID, r entities.Rating, now time.Time) *service.GradeResult {
	t.Helper()
	res, err := e.grading.GradeCard(context.Background(), userID, cardID, r, now)
	if err != nil {
		t.Fatalf("GradeCard(%v): %v", r, err)
	}
	return res
}

func (e *env) logs(t *testing.T) []entities.ReviewLogEntry {
	t.Helper()
	logs, err := e.mem.ReviewLogs().ListByUserBetween(context.Background(), userID, time.Time{}, t0.AddDate(1, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	return logs
}

func (e *env) progressionState(t *testing.T) *entities.UserProgression {
	t.Helper()
	p, err := e.mem.Progression().Get(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	return p
}
