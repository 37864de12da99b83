package entities

import (
	"math"
	"time"
)

// XPThreshold returns the total XP needed to reach level. Level 1 starts at 0.
func XPThreshold(level int) int64 {
	if level <= 1 {
		return 0
	}
	l := int64(level - 1)
	return l * l * 100
}

// LevelForXP returns the largest level whose threshold does not exceed xp.
func LevelForXP(xp int64) int {
	if xp <= 0 {
		return 1
	}
	level := int(math.Sqrt(float64(xp)/100)) + 1
	// Correct float drift at exact boundaries.
	for XPThreshold(level+1) <= xp {
		level++
	}
	for level > 1 && XPThreshold(level) > xp {
		level--
	}
	return level
}

// XPState is a user's experience total. Level and progress are derived.
type XPState struct {
	TotalXP int64 `json:"total_xp"`
}

// Level returns the level reached with the current XP.
func (x XPState) Level() int {
	return LevelForXP(x.TotalXP)
}

// Progress returns the percentage of the way to the next level, in [0, 100].
func (x XPState) Progress() float64 {
	level := x.Level()
	lo, hi := XPThreshold(level), XPThreshold(level+1)
	p := float64(x.TotalXP-lo) / float64(hi-lo) * 100
	return math.Min(100, math.Max(0, p))
}

// Grant adds amount XP and returns every level boundary crossed, in order.
// Non-positive amounts are ignored so XP never decreases.
func (x *XPState) Grant(amount int64) []int {
	if amount <= 0 {
		return nil
	}
	before := x.Level()
	x.TotalXP += amount
	after := x.Level()

	var crossed []int
	for l := before + 1; l <= after; l++ {
		crossed = append(crossed, l)
	}
	return crossed
}

// StreakState tracks consecutive study days.
type StreakState struct {
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	LastStudyDate *time.Time `json:"last_study_date,omitempty"` // see LocalDate
}

// Record registers a qualifying review on the given local date.
// It reports whether the streak counter changed.
func (s *StreakState) Record(today time.Time) bool {
	if s.LastStudyDate != nil {
		switch gap := DaysBetween(*s.LastStudyDate, today); {
		case gap <= 0:
			// Already counted, or an event older than the last study day.
			return false
		case gap == 1:
			s.CurrentStreak++
		default:
			s.CurrentStreak = 1
		}
	} else {
		s.CurrentStreak = 1
	}

	d := today
	s.LastStudyDate = &d
	s.LongestStreak = max(s.LongestStreak, s.CurrentStreak)
	return true
}

// Effective returns the streak as seen on today. A streak whose last study day
// is older than yesterday is broken and reads as zero; nothing is written.
func (s StreakState) Effective(today time.Time) int {
	if s.LastStudyDate == nil {
		return 0
	}
	if DaysBetween(*s.LastStudyDate, today) > 1 {
		return 0
	}
	return s.CurrentStreak
}

// UserProgression is the per-user progression aggregate.
// It is loaded, passed through pure update functions and saved as a unit.
type UserProgression struct {
	UserID         int64
	XP             XPState
	Streak         StreakState
	TotalReviews   int64
	CorrectReviews int64
	Version        int64 // zero when the row does not exist yet
	UpdatedAt      time.Time
}

// NewUserProgression returns the empty aggregate for a user.
func NewUserProgression(userID int64) *UserProgression {
	return &UserProgression{UserID: userID}
}

// Accuracy returns the lifetime share of correct reviews, in [0, 1].
func (p *UserProgression) Accuracy() float64 {
	if p.TotalReviews == 0 {
		return 0
	}
	return float64(p.CorrectReviews) / float64(p.TotalReviews)
}

// Clone returns a deep copy of the aggregate.
func (p *UserProgression) Clone() *UserProgression {
	out := *p
	if p.Streak.LastStudyDate != nil {
		d := *p.Streak.LastStudyDate
		out.Streak.LastStudyDate = &d
	}
	return &out
}
