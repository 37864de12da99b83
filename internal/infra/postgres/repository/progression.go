package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/infra/postgres"
)

// ProgressionRepository stores the per-user progression aggregate.
type ProgressionRepository struct {
	db postgres.DBTX
}

func NewProgressionRepository(db postgres.DBTX) *ProgressionRepository {
	return &ProgressionRepository{db: db}
}

// Get returns the user's aggregate. A user without a row gets an empty
// aggregate with version 0.
func (r *ProgressionRepository) Get(ctx context.Context, userID int64) (*entities.UserProgression, error) {
	query := `
		SELECT user_id, total_xp, current_streak, longest_streak, last_study_date,
		       total_reviews, correct_reviews, version, updated_at
		FROM user_progression
		WHERE user_id = $1
	`

	var p entities.UserProgression
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.XP.TotalXP,
		&p.Streak.CurrentStreak,
		&p.Streak.LongestStreak,
		&p.Streak.LastStudyDate,
		&p.TotalReviews,
		&p.CorrectReviews,
		&p.Version,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entities.NewUserProgression(userID), nil
		}
		return nil, fmt.Errorf("get progression: %w", err)
	}

	return &p, nil
}

// Save writes p when the stored version equals expected. Version 0 means the
// row must not exist yet.
func (r *ProgressionRepository) Save(ctx context.Context, p *entities.UserProgression, expected int64) error {
	var query string
	args := []any{
		p.UserID,
		p.XP.TotalXP,
		p.Streak.CurrentStreak,
		p.Streak.LongestStreak,
		p.Streak.LastStudyDate,
		p.TotalReviews,
		p.CorrectReviews,
		p.UpdatedAt,
	}

	if expected == 0 {
		query = `
			INSERT INTO user_progression (
				user_id, total_xp, current_streak, longest_streak, last_study_date,
				total_reviews, correct_reviews, updated_at, version
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
			ON CONFLICT (user_id) DO NOTHING
			RETURNING version
		`
	} else {
		query = `
			UPDATE user_progression SET
				total_xp = $2,
				current_streak = $3,
				longest_streak = $4,
				last_study_date = $5,
				total_reviews = $6,
				correct_reviews = $7,
				updated_at = $8,
				version = version + 1
			WHERE user_id = $1 AND version = $9
			RETURNING version
		`
		args = append(args, expected)
	}

	var version int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entities.ErrConcurrencyConflict
		}
		return fmt.Errorf("save progression: %w", err)
	}

	p.Version = version
	return nil
}

// MarkApplied records that the review event logID has been applied.
func (r *ProgressionRepository) MarkApplied(ctx context.Context, userID int64, logID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO progression_applied (log_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (log_id) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query, logID, userID)
	if err != nil {
		return false, fmt.Errorf("mark progression applied: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
