package entities

import (
	"time"

	"github.com/google/uuid"
)

// ReviewLogEntry records a single grading action. Entries are never mutated.
type ReviewLogEntry struct {
	ID                    uuid.UUID `json:"id"`
	CardID                uuid.UUID `json:"card_id"`
	UserID                int64     `json:"user_id"`
	DeckID                uuid.UUID `json:"deck_id"`
	Rating                Rating    `json:"rating"`
	ReviewedAt            time.Time `json:"reviewed_at"`
	PriorState            State     `json:"prior_state"`
	ResultingState        State     `json:"resulting_state"`
	PriorIntervalDays     int       `json:"prior_interval_days"`
	ResultingIntervalDays int       `json:"resulting_interval_days"`
	EaseFactor            float64   `json:"ease_factor"` // ease after the grading
}
