package entities

import (
	"time"

	"github.com/google/uuid"
)

// DefaultEaseFactor is the ease factor a card starts with.
const DefaultEaseFactor = 2.5

// CardContent holds what is shown to the user. The engine never reads it.
type CardContent struct {
	Front     string   `json:"front"`
	Back      string   `json:"back"`
	MediaRefs []string `json:"media_refs,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Card is a flashcard together with its scheduling state.
type Card struct {
	ID      uuid.UUID
	UserID  int64
	DeckID  uuid.UUID
	Content CardContent

	// Scheduling fields.
	State             State
	EaseFactor        float64   // multiplier for review interval growth
	IntervalDays      int       // 0 while new, learning or relearning
	DueAt             time.Time // the card is due when now >= DueAt
	Step              int       // current learning or relearning step
	LapseIntervalDays int       // review interval held before the last lapse
	Lapses            int
	Reps              int
	LastReviewedAt    *time.Time

	Version   int64 // bumped on every scheduling write
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCard creates a card in the new state that is due immediately.
func NewCard(userID int64, deckID uuid.UUID, content CardContent, now time.Time) *Card {
	return &Card{
		ID:         uuid.New(),
		UserID:     userID,
		DeckID:     deckID,
		Content:    content,
		State:      StateNew,
		EaseFactor: DefaultEaseFactor,
		DueAt:      now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsDue reports whether the card should be shown at now.
func (c *Card) IsDue(now time.Time) bool {
	return !now.Before(c.DueAt)
}

// Clone returns a deep copy of the card.
func (c *Card) Clone() *Card {
	out := *c
	out.Content.MediaRefs = append([]string(nil), c.Content.MediaRefs...)
	out.Content.Tags = append([]string(nil), c.Content.Tags...)
	if c.LastReviewedAt != nil {
		t := *c.LastReviewedAt
		out.LastReviewedAt = &t
	}
	return &out
}
