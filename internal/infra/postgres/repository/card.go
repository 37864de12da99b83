package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/infra/postgres"
)

const cardColumns = `
	id, user_id, deck_id, front, back, media_refs, tags,
	state, ease_factor, interval_days, due_at, step, lapse_interval_days,
	lapses, reps, last_reviewed_at, version, created_at, updated_at`

// CardRepository provides access to cards in the database.
type CardRepository struct {
	db postgres.DBTX
}

// NewCardRepository creates a new CardRepository.
func NewCardRepository(db postgres.DBTX) *CardRepository {
	return &CardRepository{db: db}
}

// Create inserts a new card with version 1.
func (r *CardRepository) Create(ctx context.Context, card *entities.Card) error {
	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, 1, $17, $18)
	`

	_, err := r.db.Exec(ctx, query,
		card.ID,
		card.UserID,
		card.DeckID,
		card.Content.Front,
		card.Content.Back,
		nonNil(card.Content.MediaRefs),
		nonNil(card.Content.Tags),
		string(card.State),
		card.EaseFactor,
		card.IntervalDays,
		card.DueAt,
		card.Step,
		card.LapseIntervalDays,
		card.Lapses,
		card.Reps,
		card.LastReviewedAt,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create card: %w", err)
	}

	card.Version = 1
	return nil
}

// Get retrieves a card by ID.
func (r *CardRepository) Get(ctx context.Context, cardID uuid.UUID) (*entities.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	card, err := scanCard(r.db.QueryRow(ctx, query, cardID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrCardNotFound
		}
		return nil, fmt.Errorf("get card: %w", err)
	}

	return card, nil
}

// UpdateIfVersion writes the scheduling fields of card if its stored version
// still equals expected.
func (r *CardRepository) UpdateIfVersion(ctx context.Context, card *entities.Card, expected int64) error {
	query := `
		UPDATE cards SET
			state = $3,
			ease_factor = $4,
			interval_days = $5,
			due_at = $6,
			step = $7,
			lapse_interval_days = $8,
			lapses = $9,
			reps = $10,
			last_reviewed_at = $11,
			updated_at = $12,
			version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version
	`

	var version int64
	err := r.db.QueryRow(ctx, query,
		card.ID,
		expected,
		string(card.State),
		card.EaseFactor,
		card.IntervalDays,
		card.DueAt,
		card.Step,
		card.LapseIntervalDays,
		card.Lapses,
		card.Reps,
		card.LastReviewedAt,
		card.UpdatedAt,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entities.ErrConcurrencyConflict
		}
		return fmt.Errorf("update card: %w", err)
	}

	card.Version = version
	return nil
}

// ListDue returns the user's cards due at now, optionally limited to a deck,
// ordered by due time and then ID.
func (r *CardRepository) ListDue(ctx context.Context, userID int64, deckID *uuid.UUID, now time.Time) ([]*entities.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE user_id = $1
		  AND ($2::uuid IS NULL OR deck_id = $2)
		  AND due_at <= $3
		ORDER BY due_at, id
	`

	rows, err := r.db.Query(ctx, query, userID, deckID, now)
	if err != nil {
		return nil, fmt.Errorf("list due cards: %w", err)
	}
	return collectCards(rows)
}

// ListDueBefore returns every card of the user due before until, overdue
// cards included.
func (r *CardRepository) ListDueBefore(ctx context.Context, userID int64, until time.Time) ([]*entities.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE user_id = $1 AND due_at < $2
		ORDER BY due_at, id
	`

	rows, err := r.db.Query(ctx, query, userID, until)
	if err != nil {
		return nil, fmt.Errorf("list cards due before: %w", err)
	}
	return collectCards(rows)
}

func collectCards(rows pgx.Rows) ([]*entities.Card, error) {
	defer rows.Close()

	var cards []*entities.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}

	return cards, nil
}

func scanCard(row pgx.Row) (*entities.Card, error) {
	var (
		card  entities.Card
		state string
	)

	err := row.Scan(
		&card.ID,
		&card.UserID,
		&card.DeckID,
		&card.Content.Front,
		&card.Content.Back,
		&card.Content.MediaRefs,
		&card.Content.Tags,
		&state,
		&card.EaseFactor,
		&card.IntervalDays,
		&card.DueAt,
		&card.Step,
		&card.LapseIntervalDays,
		&card.Lapses,
		&card.Reps,
		&card.LastReviewedAt,
		&card.Version,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.State = entities.State(state)
	return &card, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
