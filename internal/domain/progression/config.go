package progression

import (
	"errors"
	"fmt"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
)

var ErrInvalidConfig = errors.New("progression: invalid config")

// RatingXP is the experience granted for a single graded card.
type RatingXP struct {
	Again int64 `mapstructure:"again"`
	Hard  int64 `mapstructure:"hard"`
	Good  int64 `mapstructure:"good"`
	Easy  int64 `mapstructure:"easy"`
}

// For returns the XP for r; invalid ratings earn nothing.
func (x RatingXP) For(r entities.Rating) int64 {
	switch r {
	case entities.RatingAgain:
		return x.Again
	case entities.RatingHard:
		return x.Hard
	case entities.RatingGood:
		return x.Good
	case entities.RatingEasy:
		return x.Easy
	default:
		return 0
	}
}

// Config holds XP rewards, the daily task templates and the achievement catalog.
type Config struct {
	ReviewXP     RatingXP                     `mapstructure:"review_xp"`
	DailyTasks   []entities.DailyTaskTemplate `mapstructure:"daily_tasks"`
	Achievements []entities.Achievement       `mapstructure:"achievements"`
}

// DefaultConfig returns the stock rewards and catalogs.
func DefaultConfig() Config {
	return Config{
		ReviewXP: RatingXP{Again: 2, Hard: 5, Good: 10, Easy: 12},
		DailyTasks: []entities.DailyTaskTemplate{
			{Key: "review_20", Kind: entities.TaskReviewCount, Target: 20, XPReward: 50},
			{Key: "correct_10", Kind: entities.TaskCorrectCount, Target: 10, XPReward: 30},
			{Key: "accuracy_80", Kind: entities.TaskAccuracy, Target: 15, MinAccuracy: 0.8, XPReward: 40},
		},
		Achievements: []entities.Achievement{
			{Key: "first_review", Title: "First steps", Criterion: entities.Criterion{Kind: entities.CriterionTotalReviews, Threshold: 1}, XPReward: 10},
			{Key: "reviews_100", Title: "Centurion", Criterion: entities.Criterion{Kind: entities.CriterionTotalReviews, Threshold: 100}, XPReward: 100},
			{Key: "reviews_1000", Title: "Thousand cards", Criterion: entities.Criterion{Kind: entities.CriterionTotalReviews, Threshold: 1000}, XPReward: 500},
			{Key: "streak_3", Title: "Warming up", Criterion: entities.Criterion{Kind: entities.CriterionStreak, Threshold: 3}, XPReward: 30},
			{Key: "streak_7", Title: "One week", Criterion: entities.Criterion{Kind: entities.CriterionStreak, Threshold: 7}, XPReward: 70},
			{Key: "streak_30", Title: "One month", Criterion: entities.Criterion{Kind: entities.CriterionStreak, Threshold: 30}, XPReward: 300},
			{Key: "level_5", Title: "Level 5", Criterion: entities.Criterion{Kind: entities.CriterionLevel, Threshold: 5}, XPReward: 50},
			{Key: "level_10", Title: "Level 10", Criterion: entities.Criterion{Kind: entities.CriterionLevel, Threshold: 10}, XPReward: 150},
			{Key: "accuracy_90", Title: "Sharp memory", Criterion: entities.Criterion{Kind: entities.CriterionAccuracy, Threshold: 90, MinReviews: 100}, XPReward: 200},
		},
	}
}

// Validate rejects catalogs the engine cannot evaluate.
func (c Config) Validate() error {
	for _, r := range entities.Ratings {
		if c.ReviewXP.For(r) < 0 {
			return fmt.Errorf("%w: negative review xp for %v", ErrInvalidConfig, r)
		}
	}

	seen := make(map[string]bool, len(c.DailyTasks))
	for _, t := range c.DailyTasks {
		if t.Key == "" || seen[t.Key] {
			return fmt.Errorf("%w: daily task key %q is empty or duplicated", ErrInvalidConfig, t.Key)
		}
		seen[t.Key] = true
		switch t.Kind {
		case entities.TaskReviewCount, entities.TaskCorrectCount:
		case entities.TaskAccuracy:
			if t.MinAccuracy <= 0 || t.MinAccuracy > 1 {
				return fmt.Errorf("%w: task %q min accuracy must be in (0, 1]", ErrInvalidConfig, t.Key)
			}
		default:
			return fmt.Errorf("%w: task %q has unknown kind %q", ErrInvalidConfig, t.Key, t.Kind)
		}
		if t.Target <= 0 || t.XPReward < 0 {
			return fmt.Errorf("%w: task %q needs a positive target and non-negative reward", ErrInvalidConfig, t.Key)
		}
	}

	seen = make(map[string]bool, len(c.Achievements))
	for _, a := range c.Achievements {
		if a.Key == "" || seen[a.Key] {
			return fmt.Errorf("%w: achievement key %q is empty or duplicated", ErrInvalidConfig, a.Key)
		}
		seen[a.Key] = true
		switch a.Criterion.Kind {
		case entities.CriterionTotalReviews, entities.CriterionStreak, entities.CriterionLevel:
		case entities.CriterionAccuracy:
			if a.Criterion.Threshold > 100 {
				return fmt.Errorf("%w: achievement %q accuracy above 100%%", ErrInvalidConfig, a.Key)
			}
		default:
			return fmt.Errorf("%w: achievement %q has unknown criterion %q", ErrInvalidConfig, a.Key, a.Criterion.Kind)
		}
		if a.Criterion.Threshold <= 0 || a.XPReward < 0 {
			return fmt.Errorf("%w: achievement %q needs a positive threshold and non-negative reward", ErrInvalidConfig, a.Key)
		}
	}
	return nil
}
