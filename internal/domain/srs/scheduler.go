// Package srs decides when a card is shown next.
//
// The scheduler is a pure state machine over new, learning, review and
// relearning cards. It performs no I/O and never mutates its input.
package srs

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
)

const day = 24 * time.Hour

// Scheduler applies gradings to cards.
type Scheduler struct {
	cfg Config
}

// NewScheduler validates cfg and returns a Scheduler.
func NewScheduler(cfg Config) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.LearningSteps = append([]time.Duration(nil), cfg.LearningSteps...)
	cfg.RelearningSteps = append([]time.Duration(nil), cfg.RelearningSteps...)
	return &Scheduler{cfg: cfg}, nil
}

// Config returns a copy of the scheduler constants.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// NewCard creates a new card using the configured starting ease.
func (s *Scheduler) NewCard(userID int64, deckID uuid.UUID, content entities.CardContent, now time.Time) *entities.Card {
	c := entities.NewCard(userID, deckID, content, now)
	c.EaseFactor = s.cfg.StartingEase
	return c
}

// Schedule grades card with rating at now. It returns the next card state and
// the log entry describing the transition; the input card is left untouched.
// The log entry has no ID yet; the recorder assigns one.
func (s *Scheduler) Schedule(card *entities.Card, rating entities.Rating, now time.Time) (*entities.Card, entities.ReviewLogEntry, error) {
	if !rating.IsValid() {
		return nil, entities.ReviewLogEntry{}, fmt.Errorf("%w: %d", entities.ErrInvalidRating, int(rating))
	}

	if card.Step < 0 || card.IntervalDays < 0 {
		return nil, entities.ReviewLogEntry{}, fmt.Errorf("%w: step %d, interval %d on card %s",
			entities.ErrCorruptState, card.Step, card.IntervalDays, card.ID)
	}

	next := card.Clone()
	switch card.State {
	case entities.StateNew:
		s.gradeNew(next, rating, now)
	case entities.StateLearning:
		s.gradeSteps(next, rating, now, s.cfg.LearningSteps)
	case entities.StateReview:
		s.gradeReview(next, rating, now)
	case entities.StateRelearning:
		s.gradeSteps(next, rating, now, s.cfg.RelearningSteps)
	default:
		return nil, entities.ReviewLogEntry{}, fmt.Errorf("%w: state %q on card %s", entities.ErrCorruptState, card.State, card.ID)
	}

	reviewedAt := now
	next.LastReviewedAt = &reviewedAt
	next.Reps++
	next.UpdatedAt = now

	entry := entities.ReviewLogEntry{
		CardID:                card.ID,
		UserID:                card.UserID,
		DeckID:                card.DeckID,
		Rating:                rating,
		ReviewedAt:            now,
		PriorState:            card.State,
		ResultingState:        next.State,
		PriorIntervalDays:     card.IntervalDays,
		ResultingIntervalDays: next.IntervalDays,
		EaseFactor:            next.EaseFactor,
	}
	return next, entry, nil
}

// Preview returns the card that each rating would produce.
func (s *Scheduler) Preview(card *entities.Card, now time.Time) (map[entities.Rating]*entities.Card, error) {
	out := make(map[entities.Rating]*entities.Card, len(entities.Ratings))
	for _, r := range entities.Ratings {
		c, _, err := s.Schedule(card, r, now)
		if err != nil {
			return nil, err
		}
		out[r] = c
	}
	return out, nil
}

// gradeNew moves a first-time card into learning, or straight to review on easy.
func (s *Scheduler) gradeNew(c *entities.Card, rating entities.Rating, now time.Time) {
	var offset time.Duration
	switch rating {
	case entities.RatingAgain:
		offset = s.cfg.NewCardOffsets.Again
	case entities.RatingHard:
		offset = s.cfg.NewCardOffsets.Hard
	case entities.RatingGood:
		offset = s.cfg.NewCardOffsets.Good
	case entities.RatingEasy:
		s.graduate(c, now, s.cfg.GraduatingInterval)
		return
	}
	c.State = entities.StateLearning
	c.Step = 0
	c.IntervalDays = 0
	c.DueAt = now.Add(offset)
}

// gradeSteps walks the learning or relearning ladder.
func (s *Scheduler) gradeSteps(c *entities.Card, rating entities.Rating, now time.Time, steps []time.Duration) {
	switch rating {
	case entities.RatingAgain:
		c.Step = 0
		c.IntervalDays = 0
		c.DueAt = now.Add(steps[0])
	case entities.RatingHard, entities.RatingGood:
		nextStep := c.Step + 1
		if nextStep >= len(steps) {
			s.graduate(c, now, s.graduationInterval(c, rating))
			return
		}
		c.Step = nextStep
		c.IntervalDays = 0
		c.DueAt = now.Add(steps[nextStep])
	case entities.RatingEasy:
		s.graduate(c, now, s.graduationInterval(c, rating))
	}
}

// graduationInterval is the first review interval after leaving the steps.
// Relearning cards resume from a fraction of the interval they lapsed from.
func (s *Scheduler) graduationInterval(c *entities.Card, rating entities.Rating) int {
	if c.State == entities.StateRelearning {
		return max(1, roundHalfUp(float64(c.LapseIntervalDays)*s.cfg.LapseIntervalFactor))
	}
	if rating == entities.RatingEasy {
		return s.cfg.EasyInterval
	}
	return s.cfg.GraduatingInterval
}

func (s *Scheduler) graduate(c *entities.Card, now time.Time, intervalDays int) {
	c.State = entities.StateReview
	c.Step = 0
	c.IntervalDays = intervalDays
	c.DueAt = now.Add(time.Duration(intervalDays) * day)
}

// gradeReview grows or lapses a card in the long-term review cycle.
func (s *Scheduler) gradeReview(c *entities.Card, rating entities.Rating, now time.Time) {
	ivl := c.IntervalDays
	switch rating {
	case entities.RatingAgain:
		c.State = entities.StateRelearning
		c.Step = 0
		c.LapseIntervalDays = ivl
		c.Lapses++
		c.IntervalDays = 0
		c.EaseFactor = s.floorEase(c.EaseFactor - s.cfg.LapseEasePenalty)
		c.DueAt = now.Add(s.cfg.RelearningSteps[0])
		return
	case entities.RatingHard:
		c.IntervalDays = max(1, roundHalfUp(float64(ivl)*s.cfg.HardIntervalFactor))
		c.EaseFactor = s.floorEase(c.EaseFactor - s.cfg.HardEasePenalty)
	case entities.RatingGood:
		c.IntervalDays = max(ivl+1, roundHalfUp(float64(ivl)*c.EaseFactor))
	case entities.RatingEasy:
		c.IntervalDays = max(ivl+1, roundHalfUp(float64(ivl)*c.EaseFactor*s.cfg.EasyBonus))
		c.EaseFactor = roundEase(c.EaseFactor + s.cfg.EasyEaseBonus)
	}
	c.DueAt = now.Add(time.Duration(c.IntervalDays) * day)
}

func (s *Scheduler) floorEase(e float64) float64 {
	return math.Max(s.cfg.EaseFloor, roundEase(e))
}

// roundHalfUp rounds non-negative x to the nearest integer, halves going up.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// roundEase keeps ease factors at two decimals so repeated adjustments do not drift.
func roundEase(e float64) float64 {
	return math.Round(e*100) / 100
}
