package entities

import "time"

// TaskKind determines which review events advance a daily task.
type TaskKind string

const (
	TaskReviewCount  TaskKind = "review_count"  // every graded card counts
	TaskCorrectCount TaskKind = "correct_count" // only good or easy counts
	TaskAccuracy     TaskKind = "accuracy"      // every card counts, completes only at MinAccuracy
)

// DailyTask is one user's task for one local calendar day.
type DailyTask struct {
	UserID      int64
	Date        time.Time // see LocalDate
	Key         string
	Kind        TaskKind
	Target      int
	Progress    int
	Correct     int
	MinAccuracy float64 // only used by TaskAccuracy
	Completed   bool
	CompletedAt *time.Time
	XPReward    int64
}

// Accuracy returns the share of correct reviews counted by the task.
func (t *DailyTask) Accuracy() float64 {
	if t.Progress == 0 {
		return 0
	}
	return float64(t.Correct) / float64(t.Progress)
}

// DailyTaskTemplate describes a task handed out every day.
type DailyTaskTemplate struct {
	Key         string   `mapstructure:"key"`
	Kind        TaskKind `mapstructure:"kind"`
	Target      int      `mapstructure:"target"`
	MinAccuracy float64  `mapstructure:"min_accuracy"`
	XPReward    int64    `mapstructure:"xp_reward"`
}

// NewTask instantiates the template for a user and date.
func (tt DailyTaskTemplate) NewTask(userID int64, date time.Time) DailyTask {
	return DailyTask{
		UserID:      userID,
		Date:        date,
		Key:         tt.Key,
		Kind:        tt.Kind,
		Target:      tt.Target,
		MinAccuracy: tt.MinAccuracy,
		XPReward:    tt.XPReward,
	}
}
