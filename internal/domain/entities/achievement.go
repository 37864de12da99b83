package entities

import "time"

// CriterionKind selects the statistic an achievement is measured against.
type CriterionKind string

const (
	CriterionTotalReviews CriterionKind = "total_reviews"
	CriterionStreak       CriterionKind = "streak"
	CriterionLevel        CriterionKind = "level"
	CriterionAccuracy     CriterionKind = "accuracy" // Threshold is a percentage
)

// Criterion is an unlock condition.
type Criterion struct {
	Kind       CriterionKind `mapstructure:"kind"`
	Threshold  int64         `mapstructure:"threshold"`
	MinReviews int64         `mapstructure:"min_reviews"` // accuracy only
}

// Achievement is a global catalog entry.
type Achievement struct {
	Key       string    `mapstructure:"key"`
	Title     string    `mapstructure:"title"`
	Criterion Criterion `mapstructure:"criterion"`
	XPReward  int64     `mapstructure:"xp_reward"`
}

// UserAchievement marks an achievement as unlocked for a user. It is never removed.
type UserAchievement struct {
	UserID     int64
	Key        string
	UnlockedAt time.Time
}
