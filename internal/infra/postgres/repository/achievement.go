package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/infra/postgres"
)

// AchievementRepository stores the catalog and per-user unlock markers.
type AchievementRepository struct {
	db postgres.DBTX
}

func NewAchievementRepository(db postgres.DBTX) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// SyncCatalog upserts every catalog entry. Entries missing from catalog are
// kept so existing unlocks stay valid.
func (r *AchievementRepository) SyncCatalog(ctx context.Context, catalog []entities.Achievement) error {
	query := `
		INSERT INTO achievements (key, title, criterion_kind, threshold, min_reviews, xp_reward)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key) DO UPDATE SET
			title = EXCLUDED.title,
			criterion_kind = EXCLUDED.criterion_kind,
			threshold = EXCLUDED.threshold,
			min_reviews = EXCLUDED.min_reviews,
			xp_reward = EXCLUDED.xp_reward
	`

	batch := &pgx.Batch{}
	for _, a := range catalog {
		batch.Queue(query, a.Key, a.Title, string(a.Criterion.Kind), a.Criterion.Threshold, a.Criterion.MinReviews, a.XPReward)
	}

	if err := sendBatch(ctx, r.db, batch); err != nil {
		return fmt.Errorf("sync achievement catalog: %w", err)
	}
	return nil
}

// ListUnlocked returns the user's unlocked achievements, oldest first.
func (r *AchievementRepository) ListUnlocked(ctx context.Context, userID int64) ([]entities.UserAchievement, error) {
	query := `
		SELECT user_id, achievement_key, unlocked_at
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY unlocked_at, achievement_key
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list unlocked achievements: %w", err)
	}
	defer rows.Close()

	var out []entities.UserAchievement
	for rows.Next() {
		var ua entities.UserAchievement
		if err := rows.Scan(&ua.UserID, &ua.Key, &ua.UnlockedAt); err != nil {
			return nil, fmt.Errorf("scan user achievement: %w", err)
		}
		out = append(out, ua)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user achievements: %w", err)
	}

	return out, nil
}

// Unlock inserts the marker and reports whether it was new.
func (r *AchievementRepository) Unlock(ctx context.Context, ua entities.UserAchievement) (bool, error) {
	query := `
		INSERT INTO user_achievements (user_id, achievement_key, unlocked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, achievement_key) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query, ua.UserID, ua.Key, ua.UnlockedAt)
	if err != nil {
		return false, fmt.Errorf("unlock achievement: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
