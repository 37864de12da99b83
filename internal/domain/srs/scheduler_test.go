package srs

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
)

const epsilon = 1e-9

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func mustScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler(DefaultConfig())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return s
}

func assertFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %.6f, want %.6f", name, got, want)
	}
}

func newCard(s *Scheduler) *entities.Card {
	return s.NewCard(42, uuid.New(), entities.CardContent{Front: "q", Back: "a"}, t0)
}

func reviewCard(s *Scheduler, interval int, ease float64) *entities.Card {
	c := newCard(s)
	c.State = entities.StateReview
	c.IntervalDays = interval
	c.EaseFactor = ease
	return c
}

func mustSchedule(t *testing.T, s *Scheduler, c *entities.Card, r entities.Rating, now time.Time) (*entities.Card, entities.ReviewLogEntry) {
	t.Helper()
	next, entry, err := s.Schedule(c, r, now)
	if err != nil {
		t.Fatalf("Schedule(%v, %v): %v", c.State, r, err)
	}
	return next, entry
}

// --- config ---

func TestNewSchedulerRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no learning steps", func(c *Config) { c.LearningSteps = nil }},
		{"no relearning steps", func(c *Config) { c.RelearningSteps = nil }},
		{"decreasing steps", func(c *Config) { c.LearningSteps = []time.Duration{time.Hour, time.Minute} }},
		{"day long step", func(c *Config) { c.LearningSteps = []time.Duration{24 * time.Hour} }},
		{"offsets not increasing", func(c *Config) { c.NewCardOffsets.Good = time.Second }},
		{"floor at one", func(c *Config) { c.EaseFloor = 1 }},
		{"starting ease below floor", func(c *Config) { c.StartingEase = 1.2 }},
		{"negative penalty", func(c *Config) { c.HardEasePenalty = -0.1 }},
		{"shrinking hard factor", func(c *Config) { c.HardIntervalFactor = 0.9 }},
		{"lapse factor above one", func(c *Config) { c.LapseIntervalFactor = 1.5 }},
		{"zero graduating interval", func(c *Config) { c.GraduatingInterval = 0 }},
		{"easy below good", func(c *Config) { c.EasyInterval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := NewScheduler(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("NewScheduler error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

// --- errors ---

func TestScheduleInvalidRating(t *testing.T) {
	s := mustScheduler(t)
	for _, r := range []entities.Rating{0, 5, -1} {
		if _, _, err := s.Schedule(newCard(s), r, t0); !errors.Is(err, entities.ErrInvalidRating) {
			t.Errorf("Schedule(rating=%d) error = %v, want ErrInvalidRating", r, err)
		}
	}
}

func TestScheduleCorruptState(t *testing.T) {
	s := mustScheduler(t)
	c := newCard(s)
	c.State = "graduated"
	if _, _, err := s.Schedule(c, entities.RatingGood, t0); !errors.Is(err, entities.ErrCorruptState) {
		t.Errorf("Schedule error = %v, want ErrCorruptState", err)
	}
}

func TestScheduleRejectsNegativeCounters(t *testing.T) {
	s := mustScheduler(t)
	tests := []struct {
		name  string
		setup func(c *entities.Card)
	}{
		{"learning step", func(c *entities.Card) { c.State = entities.StateLearning; c.Step = -2 }},
		{"relearning step", func(c *entities.Card) { c.State = entities.StateRelearning; c.Step = -1 }},
		{"interval", func(c *entities.Card) { c.State = entities.StateReview; c.IntervalDays = -3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCard(s)
			tt.setup(c)
			for _, r := range entities.Ratings {
				if _, _, err := s.Schedule(c, r, t0); !errors.Is(err, entities.ErrCorruptState) {
					t.Errorf("Schedule(%v) error = %v, want ErrCorruptState", r, err)
				}
			}
		})
	}
}

func TestScheduleDoesNotMutateInput(t *testing.T) {
	s := mustScheduler(t)
	c := reviewCard(s, 10, 2.5)
	before := *c
	_, _, _ = s.Schedule(c, entities.RatingAgain, t0)
	if c.State != before.State || c.IntervalDays != before.IntervalDays || c.EaseFactor != before.EaseFactor || c.Version != before.Version {
		t.Errorf("input card mutated: %+v", c)
	}
}

// --- new ---

func TestNewCardFirstGrading(t *testing.T) {
	s := mustScheduler(t)
	cfg := s.Config()
	tests := []struct {
		rating   entities.Rating
		state    entities.State
		interval int
		due      time.Time
	}{
		{entities.RatingAgain, entities.StateLearning, 0, t0.Add(cfg.NewCardOffsets.Again)},
		{entities.RatingHard, entities.StateLearning, 0, t0.Add(cfg.NewCardOffsets.Hard)},
		{entities.RatingGood, entities.StateLearning, 0, t0.Add(cfg.NewCardOffsets.Good)},
		{entities.RatingEasy, entities.StateReview, 1, t0.Add(24 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.rating.String(), func(t *testing.T) {
			c, entry := mustSchedule(t, s, newCard(s), tt.rating, t0)
			if c.State != tt.state {
				t.Errorf("State = %v, want %v", c.State, tt.state)
			}
			if c.IntervalDays != tt.interval {
				t.Errorf("IntervalDays = %d, want %d", c.IntervalDays, tt.interval)
			}
			if !c.DueAt.Equal(tt.due) {
				t.Errorf("DueAt = %v, want %v", c.DueAt, tt.due)
			}
			assertFloat(t, "EaseFactor", c.EaseFactor, cfg.StartingEase)
			if entry.PriorState != entities.StateNew || entry.ResultingState != tt.state {
				t.Errorf("entry states = %v -> %v", entry.PriorState, entry.ResultingState)
			}
		})
	}
}

func TestNewCardGoodIsDueWithinFirstLearningStep(t *testing.T) {
	s := mustScheduler(t)
	c, _ := mustSchedule(t, s, newCard(s), entities.RatingGood, t0)
	if c.State != entities.StateLearning || c.IntervalDays != 0 {
		t.Fatalf("got state=%v interval=%d, want learning/0", c.State, c.IntervalDays)
	}
	if c.DueAt.After(t0.Add(s.Config().LearningSteps[0])) {
		t.Errorf("DueAt = %v, beyond first learning step", c.DueAt)
	}
}

func TestNewCardAgainNeverLeavesLearning(t *testing.T) {
	s := mustScheduler(t)
	c := newCard(s)
	now := t0
	for i := 0; i < 10; i++ {
		c, _ = mustSchedule(t, s, c, entities.RatingAgain, now)
		if c.State != entities.StateLearning {
			t.Fatalf("after %d again ratings state = %v, want learning", i+1, c.State)
		}
		now = c.DueAt
	}
}

// --- learning ---

func TestLearningLadder(t *testing.T) {
	s := mustScheduler(t)
	steps := s.Config().LearningSteps

	c, _ := mustSchedule(t, s, newCard(s), entities.RatingGood, t0)
	if c.Step != 0 {
		t.Fatalf("Step = %d, want 0", c.Step)
	}

	now := c.DueAt
	c, _ = mustSchedule(t, s, c, entities.RatingGood, now)
	if c.State != entities.StateLearning || c.Step != 1 {
		t.Fatalf("state=%v step=%d, want learning/1", c.State, c.Step)
	}
	if !c.DueAt.Equal(now.Add(steps[1])) {
		t.Errorf("DueAt = %v, want %v", c.DueAt, now.Add(steps[1]))
	}

	now = c.DueAt
	c, _ = mustSchedule(t, s, c, entities.RatingHard, now)
	if c.State != entities.StateReview || c.IntervalDays != 1 {
		t.Fatalf("state=%v interval=%d, want review/1", c.State, c.IntervalDays)
	}
	assertFloat(t, "EaseFactor", c.EaseFactor, 2.5)
	if !c.DueAt.Equal(now.Add(24 * time.Hour)) {
		t.Errorf("DueAt = %v, want one day later", c.DueAt)
	}
}

func TestLearningAgainResetsToFirstStep(t *testing.T) {
	s := mustScheduler(t)
	c := newCard(s)
	c.State = entities.StateLearning
	c.Step = 1
	next, _ := mustSchedule(t, s, c, entities.RatingAgain, t0)
	if next.State != entities.StateLearning || next.Step != 0 {
		t.Errorf("state=%v step=%d, want learning/0", next.State, next.Step)
	}
	if !next.DueAt.Equal(t0.Add(s.Config().LearningSteps[0])) {
		t.Errorf("DueAt = %v", next.DueAt)
	}
}

func TestLearningEasyGraduatesEarly(t *testing.T) {
	s := mustScheduler(t)
	c, _ := mustSchedule(t, s, newCard(s), entities.RatingGood, t0)
	c, _ = mustSchedule(t, s, c, entities.RatingEasy, c.DueAt)
	if c.State != entities.StateReview || c.IntervalDays != 4 {
		t.Errorf("state=%v interval=%d, want review/4", c.State, c.IntervalDays)
	}
	assertFloat(t, "EaseFactor", c.EaseFactor, 2.5)
}

// --- review ---

func TestReviewTransitions(t *testing.T) {
	s := mustScheduler(t)
	tests := []struct {
		name     string
		interval int
		ease     float64
		rating   entities.Rating
		state    entities.State
		wantIvl  int
		wantEase float64
	}{
		{"again lapses", 10, 2.5, entities.RatingAgain, entities.StateRelearning, 0, 2.3},
		{"hard grows slowly", 10, 2.5, entities.RatingHard, entities.StateReview, 12, 2.35},
		{"hard minimum one", 1, 2.5, entities.RatingHard, entities.StateReview, 1, 2.35},
		{"good multiplies by ease", 4, 2.5, entities.RatingGood, entities.StateReview, 10, 2.5},
		{"good at least plus one", 1, 1.3, entities.RatingGood, entities.StateReview, 2, 1.3},
		{"good rounds half up", 3, 2.5, entities.RatingGood, entities.StateReview, 8, 2.5},
		{"easy adds bonus", 10, 2.5, entities.RatingEasy, entities.StateReview, 33, 2.65},
		{"again floors ease", 10, 1.4, entities.RatingAgain, entities.StateRelearning, 0, 1.3},
		{"hard floors ease", 10, 1.35, entities.RatingHard, entities.StateReview, 12, 1.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, entry := mustSchedule(t, s, reviewCard(s, tt.interval, tt.ease), tt.rating, t0)
			if c.State != tt.state {
				t.Errorf("State = %v, want %v", c.State, tt.state)
			}
			if c.IntervalDays != tt.wantIvl {
				t.Errorf("IntervalDays = %d, want %d", c.IntervalDays, tt.wantIvl)
			}
			assertFloat(t, "EaseFactor", c.EaseFactor, tt.wantEase)
			if entry.PriorIntervalDays != tt.interval || entry.ResultingIntervalDays != tt.wantIvl {
				t.Errorf("entry intervals = %d -> %d", entry.PriorIntervalDays, entry.ResultingIntervalDays)
			}
		})
	}
}

func TestReviewDueAtFollowsInterval(t *testing.T) {
	s := mustScheduler(t)
	c, _ := mustSchedule(t, s, reviewCard(s, 4, 2.5), entities.RatingGood, t0)
	want := t0.Add(10 * 24 * time.Hour)
	if !c.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v", c.DueAt, want)
	}
}

func TestReviewGoodIsMonotonic(t *testing.T) {
	s := mustScheduler(t)
	for _, ease := range []float64{1.3, 1.5, 2.0, 2.5, 3.1} {
		for ivl := 0; ivl <= 400; ivl++ {
			c, _ := mustSchedule(t, s, reviewCard(s, ivl, ease), entities.RatingGood, t0)
			if c.IntervalDays < ivl+1 {
				t.Fatalf("ease=%.2f ivl=%d: good produced %d", ease, ivl, c.IntervalDays)
			}
		}
	}
}

func TestEaseNeverBelowFloor(t *testing.T) {
	s := mustScheduler(t)
	c := reviewCard(s, 30, 2.5)
	now := t0
	for i := 0; i < 50; i++ {
		c, _ = mustSchedule(t, s, c, entities.RatingAgain, now)
		now = c.DueAt
		c, _ = mustSchedule(t, s, c, entities.RatingEasy, now) // graduate back
		now = c.DueAt
		c, _ = mustSchedule(t, s, c, entities.RatingHard, now)
		now = c.DueAt
		if c.EaseFactor < s.Config().EaseFloor {
			t.Fatalf("iteration %d: ease %.2f below floor", i, c.EaseFactor)
		}
	}
	assertFloat(t, "EaseFactor", c.EaseFactor, s.Config().EaseFloor)
}

// --- relearning ---

func TestRelearningGraduatesWithPenalizedInterval(t *testing.T) {
	s := mustScheduler(t)
	c, _ := mustSchedule(t, s, reviewCard(s, 10, 2.5), entities.RatingAgain, t0)
	if c.LapseIntervalDays != 10 || c.Lapses != 1 {
		t.Fatalf("lapse bookkeeping = %d/%d", c.LapseIntervalDays, c.Lapses)
	}

	// Single relearning step: good graduates straight away.
	now := c.DueAt
	c, _ = mustSchedule(t, s, c, entities.RatingGood, now)
	if c.State != entities.StateReview || c.IntervalDays != 5 {
		t.Errorf("state=%v interval=%d, want review/5", c.State, c.IntervalDays)
	}
	assertFloat(t, "EaseFactor", c.EaseFactor, 2.3)
}

func TestRelearningShortIntervalFloorsAtOne(t *testing.T) {
	s := mustScheduler(t)
	c, _ := mustSchedule(t, s, reviewCard(s, 1, 2.5), entities.RatingAgain, t0)
	c, _ = mustSchedule(t, s, c, entities.RatingEasy, c.DueAt)
	if c.IntervalDays != 1 {
		t.Errorf("IntervalDays = %d, want 1", c.IntervalDays)
	}
}

func TestRelearningAgainStays(t *testing.T) {
	s := mustScheduler(t)
	c, _ := mustSchedule(t, s, reviewCard(s, 10, 2.5), entities.RatingAgain, t0)
	c, _ = mustSchedule(t, s, c, entities.RatingAgain, c.DueAt)
	if c.State != entities.StateRelearning || c.Step != 0 || c.IntervalDays != 0 {
		t.Errorf("state=%v step=%d interval=%d", c.State, c.Step, c.IntervalDays)
	}
	assertFloat(t, "EaseFactor", c.EaseFactor, 2.3)
}

// --- invariants over random-ish walks ---

func TestNewStateHasZeroIntervalAcrossWalks(t *testing.T) {
	s := mustScheduler(t)
	seq := []entities.Rating{3, 1, 4, 2, 3, 3, 1, 1, 4, 2, 3, 4, 4, 1, 2}
	for start := range seq {
		c := newCard(s)
		now := t0
		for i := 0; i < len(seq); i++ {
			r := seq[(start+i)%len(seq)]
			c, _ = mustSchedule(t, s, c, r, now)
			if c.State == entities.StateNew && c.IntervalDays != 0 {
				t.Fatalf("new card with interval %d", c.IntervalDays)
			}
			if c.State != entities.StateReview && c.IntervalDays != 0 {
				t.Fatalf("%v card with interval %d", c.State, c.IntervalDays)
			}
			if !c.DueAt.After(now) {
				t.Fatalf("DueAt %v not after now %v", c.DueAt, now)
			}
			now = c.DueAt
		}
	}
}

func TestScenarioNewLearningReview(t *testing.T) {
	s := mustScheduler(t)
	c, _ := mustSchedule(t, s, newCard(s), entities.RatingGood, t0)
	if c.State != entities.StateLearning || c.IntervalDays != 0 {
		t.Fatalf("step 1: %v/%d", c.State, c.IntervalDays)
	}
	c, _ = mustSchedule(t, s, c, entities.RatingEasy, c.DueAt)
	if c.State != entities.StateReview || c.IntervalDays != 4 {
		t.Fatalf("step 2: %v/%d", c.State, c.IntervalDays)
	}
	c, _ = mustSchedule(t, s, c, entities.RatingGood, c.DueAt)
	if c.State != entities.StateReview || c.IntervalDays != 10 {
		t.Fatalf("step 3: %v/%d", c.State, c.IntervalDays)
	}
	assertFloat(t, "EaseFactor", c.EaseFactor, 2.5)
	if c.Reps != 3 {
		t.Errorf("Reps = %d, want 3", c.Reps)
	}
}

func TestPreview(t *testing.T) {
	s := mustScheduler(t)
	got, err := s.Preview(reviewCard(s, 4, 2.5), t0)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	if got[entities.RatingGood].IntervalDays != 10 {
		t.Errorf("good preview interval = %d, want 10", got[entities.RatingGood].IntervalDays)
	}
	if got[entities.RatingAgain].State != entities.StateRelearning {
		t.Errorf("again preview state = %v", got[entities.RatingAgain].State)
	}
}
