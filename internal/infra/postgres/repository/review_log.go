package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/infra/postgres"
)

// ReviewLogRepository appends and reads review events.
type ReviewLogRepository struct {
	db postgres.DBTX
}

func NewReviewLogRepository(db postgres.DBTX) *ReviewLogRepository {
	return &ReviewLogRepository{db: db}
}

// Append stores entry, assigning an ID when it has none.
func (r *ReviewLogRepository) Append(ctx context.Context, entry *entities.ReviewLogEntry) (uuid.UUID, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := `
		INSERT INTO review_logs (
			id, card_id, user_id, deck_id, rating, reviewed_at,
			prior_state, resulting_state, prior_interval_days, resulting_interval_days, ease_factor
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.CardID,
		entry.UserID,
		entry.DeckID,
		int16(entry.Rating),
		entry.ReviewedAt,
		string(entry.PriorState),
		string(entry.ResultingState),
		entry.PriorIntervalDays,
		entry.ResultingIntervalDays,
		entry.EaseFactor,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("append review log: %w", err)
	}

	return entry.ID, nil
}

// ListByUserBetween returns the user's events with from <= reviewed_at <= to,
// oldest first.
func (r *ReviewLogRepository) ListByUserBetween(ctx context.Context, userID int64, from, to time.Time) ([]entities.ReviewLogEntry, error) {
	query := `
		SELECT id, card_id, user_id, deck_id, rating, reviewed_at,
		       prior_state, resulting_state, prior_interval_days, resulting_interval_days, ease_factor
		FROM review_logs
		WHERE user_id = $1 AND reviewed_at >= $2 AND reviewed_at <= $3
		ORDER BY reviewed_at, id
	`

	rows, err := r.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list review logs: %w", err)
	}
	defer rows.Close()

	var entries []entities.ReviewLogEntry
	for rows.Next() {
		var (
			e                     entities.ReviewLogEntry
			rating                int16
			priorState, nextState string
		)
		if err := rows.Scan(
			&e.ID, &e.CardID, &e.UserID, &e.DeckID, &rating, &e.ReviewedAt,
			&priorState, &nextState, &e.PriorIntervalDays, &e.ResultingIntervalDays, &e.EaseFactor,
		); err != nil {
			return nil, fmt.Errorf("scan review log: %w", err)
		}
		e.Rating = entities.Rating(rating)
		e.PriorState = entities.State(priorState)
		e.ResultingState = entities.State(nextState)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review logs: %w", err)
	}

	return entries, nil
}
