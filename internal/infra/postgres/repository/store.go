package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aliskhannn/flashcards-engine/internal/infra/postgres"
	"github.com/aliskhannn/flashcards-engine/internal/service"
)

// Store hands out repositories bound to the pool, or to a transaction inside
// WithinTx.
type Store struct {
	db         postgres.DBTX
	transactor *postgres.Transactor // nil when db is already a transaction
}

// NewStore creates a Store backed by pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{db: pool, transactor: postgres.NewTransactor(pool)}
}

func (s *Store) Cards() service.CardRepository {
	return NewCardRepository(s.db)
}

func (s *Store) ReviewLogs() service.ReviewLogRepository {
	return NewReviewLogRepository(s.db)
}

func (s *Store) Progression() service.ProgressionRepository {
	return NewProgressionRepository(s.db)
}

func (s *Store) DailyTasks() service.DailyTaskRepository {
	return NewDailyTaskRepository(s.db)
}

func (s *Store) Achievements() service.AchievementRepository {
	return NewAchievementRepository(s.db)
}

func (s *Store) Users() service.UserRepository {
	return NewUserRepository(s.db)
}

// WithinTx runs fn with a Store bound to a new transaction. Nested calls
// join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx service.Store) error) error {
	if s.transactor == nil {
		return fn(ctx, s)
	}
	return s.transactor.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &Store{db: tx})
	})
}
