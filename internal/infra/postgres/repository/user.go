package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/infra/postgres"
)

// UserRepository provides access to user data in the database.
type UserRepository struct {
	db postgres.DBTX
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db postgres.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Save inserts a new user or updates an existing one.
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (id, chat_id, timezone, reminders_enabled, reminder_hour, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			chat_id = EXCLUDED.chat_id,
			timezone = EXCLUDED.timezone,
			reminders_enabled = EXCLUDED.reminders_enabled,
			reminder_hour = EXCLUDED.reminder_hour
	`

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.ChatID,
		user.Timezone,
		user.RemindersEnabled,
		int16(user.ReminderHour),
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*entities.User, error) {
	query := `
		SELECT id, chat_id, timezone, reminders_enabled, reminder_hour, created_at
		FROM users
		WHERE id = $1
	`

	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// ListReminderBatch returns a page of users with reminders enabled, ordered by ID.
func (r *UserRepository) ListReminderBatch(ctx context.Context, limit, offset int) ([]*entities.User, error) {
	query := `
		SELECT id, chat_id, timezone, reminders_enabled, reminder_hour, created_at
		FROM users
		WHERE reminders_enabled
		ORDER BY id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reminder users: %w", err)
	}
	defer rows.Close()

	users := make([]*entities.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var (
		user entities.User
		hour int16
	)
	if err := row.Scan(
		&user.ID,
		&user.ChatID,
		&user.Timezone,
		&user.RemindersEnabled,
		&hour,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	user.ReminderHour = int(hour)
	return &user, nil
}

// sendBatch executes every queued statement and closes the results.
func sendBatch(ctx context.Context, db postgres.DBTX, b *pgx.Batch) error {
	br := db.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}
