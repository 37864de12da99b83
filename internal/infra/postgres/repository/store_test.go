package repository

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/infra/postgres"
	"github.com/aliskhannn/flashcards-engine/internal/service"
)

var errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")

var (
	poolOnce sync.Once
	pool     *pgxpool.Pool
	poolErr  error
)

func testPool(tb testing.TB) *pgxpool.Pool {
	tb.Helper()

	poolOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			poolErr = errMissingDSN
			return
		}
		ctx := context.Background()
		pool, poolErr = postgres.NewPool(ctx, dsn, postgres.PoolConfig{MaxConns: 4})
		if poolErr != nil {
			return
		}
		poolErr = postgres.Migrate(ctx, pool)
	})

	if errors.Is(poolErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run repository integration tests")
	}
	if poolErr != nil {
		tb.Fatalf("init test db: %v", poolErr)
	}
	return pool
}

var errRollback = errors.New("rollback")

// inTx runs fn inside a transaction that is always rolled back.
func inTx(t *testing.T, fn func(ctx context.Context, s service.Store)) {
	t.Helper()
	store := NewStore(testPool(t))
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx service.Store) error {
		fn(ctx, tx)
		return errRollback
	})
	if !errors.Is(err, errRollback) {
		t.Fatalf("WithinTx: %v", err)
	}
}

func testUserID() int64 {
	return rand.Int64N(1<<40) + 1
}

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestCardRepository(t *testing.T) {
	inTx(t, func(ctx context.Context, s service.Store) {
		userID := testUserID()
		deck := uuid.New()
		card := entities.NewCard(userID, deck, entities.CardContent{Front: "hola", Back: "hello", Tags: []string{"es"}}, t0)

		if err := s.Cards().Create(ctx, card); err != nil {
			t.Fatalf("Create: %v", err)
		}
		got, err := s.Cards().Get(ctx, card.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.State != entities.StateNew || got.Version != 1 || got.Content.Tags[0] != "es" {
			t.Errorf("Get = %+v", got)
		}

		got.State = entities.StateLearning
		got.DueAt = t0.Add(10 * time.Minute)
		if err := s.Cards().UpdateIfVersion(ctx, got, 1); err != nil {
			t.Fatalf("UpdateIfVersion: %v", err)
		}
		if got.Version != 2 {
			t.Errorf("version = %d, want 2", got.Version)
		}
		if err := s.Cards().UpdateIfVersion(ctx, got, 1); !errors.Is(err, entities.ErrConcurrencyConflict) {
			t.Errorf("stale update error = %v, want ErrConcurrencyConflict", err)
		}

		if _, err := s.Cards().Get(ctx, uuid.New()); !errors.Is(err, entities.ErrCardNotFound) {
			t.Errorf("missing card error = %v", err)
		}

		other := entities.NewCard(userID, uuid.New(), entities.CardContent{Front: "a", Back: "b"}, t0.Add(-time.Hour))
		if err := s.Cards().Create(ctx, other); err != nil {
			t.Fatalf("Create: %v", err)
		}
		due, err := s.Cards().ListDue(ctx, userID, nil, t0.Add(time.Hour))
		if err != nil {
			t.Fatalf("ListDue: %v", err)
		}
		if len(due) != 2 || due[0].ID != other.ID {
			t.Errorf("ListDue order = %v", due)
		}
		due, _ = s.Cards().ListDue(ctx, userID, &deck, t0.Add(time.Hour))
		if len(due) != 1 || due[0].ID != card.ID {
			t.Errorf("ListDue by deck = %v", due)
		}
	})
}

func TestReviewLogRepository(t *testing.T) {
	inTx(t, func(ctx context.Context, s service.Store) {
		userID := testUserID()
		card := entities.NewCard(userID, uuid.New(), entities.CardContent{Front: "f", Back: "b"}, t0)
		if err := s.Cards().Create(ctx, card); err != nil {
			t.Fatalf("Create: %v", err)
		}
		entry := &entities.ReviewLogEntry{
			CardID: card.ID, UserID: userID, DeckID: card.DeckID, Rating: entities.RatingGood,
			ReviewedAt: t0, PriorState: entities.StateNew, ResultingState: entities.StateLearning, EaseFactor: 2.5,
		}
		id, err := s.ReviewLogs().Append(ctx, entry)
		if err != nil || id == uuid.Nil {
			t.Fatalf("Append = %v, %v", id, err)
		}
		logs, err := s.ReviewLogs().ListByUserBetween(ctx, userID, t0.Add(-time.Hour), t0)
		if err != nil {
			t.Fatalf("ListByUserBetween: %v", err)
		}
		if len(logs) != 1 || logs[0].ID != id || logs[0].Rating != entities.RatingGood || logs[0].ResultingState != entities.StateLearning {
			t.Errorf("logs = %+v", logs)
		}
	})
}

func TestProgressionRepository(t *testing.T) {
	inTx(t, func(ctx context.Context, s service.Store) {
		userID := testUserID()
		p, err := s.Progression().Get(ctx, userID)
		if err != nil || p.Version != 0 {
			t.Fatalf("Get empty = %+v, %v", p, err)
		}

		day := entities.LocalDate(t0, time.UTC)
		p.XP.TotalXP = 120
		p.Streak = entities.StreakState{CurrentStreak: 2, LongestStreak: 4, LastStudyDate: &day}
		p.UpdatedAt = t0
		if err := s.Progression().Save(ctx, p, 0); err != nil {
			t.Fatalf("Save insert: %v", err)
		}
		if err := s.Progression().Save(ctx, p, 0); !errors.Is(err, entities.ErrConcurrencyConflict) {
			t.Errorf("second insert error = %v", err)
		}
		got, _ := s.Progression().Get(ctx, userID)
		if got.XP.TotalXP != 120 || got.Version != 1 || !got.Streak.LastStudyDate.Equal(day) {
			t.Errorf("Get = %+v", got)
		}
		if err := s.Progression().Save(ctx, got, 1); err != nil || got.Version != 2 {
			t.Errorf("Save update = %v, version %d", err, got.Version)
		}

		logID := uuid.New()
		first, err := s.Progression().MarkApplied(ctx, userID, logID)
		if err != nil || !first {
			t.Fatalf("MarkApplied = %v, %v", first, err)
		}
		if again, _ := s.Progression().MarkApplied(ctx, userID, logID); again {
			t.Error("MarkApplied twice returned true")
		}
	})
}

func TestDailyTaskAndAchievementRepositories(t *testing.T) {
	inTx(t, func(ctx context.Context, s service.Store) {
		userID := testUserID()
		day := entities.LocalDate(t0, time.UTC)
		task := entities.DailyTaskTemplate{Key: "review_20", Kind: entities.TaskReviewCount, Target: 20, XPReward: 50}.NewTask(userID, day)
		task.Progress = 3
		if err := s.DailyTasks().Upsert(ctx, task); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		tasks, err := s.DailyTasks().ListForDate(ctx, userID, day)
		if err != nil || len(tasks) != 1 || tasks[0].Progress != 3 {
			t.Fatalf("ListForDate = %+v, %v", tasks, err)
		}

		catalog := []entities.Achievement{{Key: "test_first", Title: "First", Criterion: entities.Criterion{Kind: entities.CriterionTotalReviews, Threshold: 1}, XPReward: 5}}
		if err := s.Achievements().SyncCatalog(ctx, catalog); err != nil {
			t.Fatalf("SyncCatalog: %v", err)
		}
		ua := entities.UserAchievement{UserID: userID, Key: "test_first", UnlockedAt: t0}
		if ok, err := s.Achievements().Unlock(ctx, ua); err != nil || !ok {
			t.Fatalf("Unlock = %v, %v", ok, err)
		}
		if ok, _ := s.Achievements().Unlock(ctx, ua); ok {
			t.Error("second Unlock returned true")
		}
		unlocked, _ := s.Achievements().ListUnlocked(ctx, userID)
		if len(unlocked) != 1 {
			t.Errorf("ListUnlocked = %+v", unlocked)
		}
	})
}

func TestUserRepository(t *testing.T) {
	inTx(t, func(ctx context.Context, s service.Store) {
		user := entities.NewUser(testUserID(), 42)
		user.Timezone = "Europe/Berlin"
		if err := s.Users().Save(ctx, user); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, err := s.Users().GetByID(ctx, user.ID)
		if err != nil || got.Timezone != "Europe/Berlin" || got.ReminderHour != entities.DefaultReminderHour {
			t.Fatalf("GetByID = %+v, %v", got, err)
		}
		if _, err := s.Users().GetByID(ctx, -1); !errors.Is(err, entities.ErrUserNotFound) {
			t.Errorf("missing user error = %v", err)
		}
	})
}
