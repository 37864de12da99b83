// Package progression turns review events into XP, levels, streaks,
// daily-task completions and achievement unlocks.
//
// Everything here is pure: callers load the per-user aggregate, pass it in,
// and persist what comes back.
package progression

import (
	"time"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
)

// Engine applies review events to a user's progression.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Catalog returns the achievement catalog.
func (e *Engine) Catalog() []entities.Achievement {
	return append([]entities.Achievement(nil), e.cfg.Achievements...)
}

// Delta summarises what one event changed, for callers and notifications.
type Delta struct {
	XPGained       int64                  `json:"xp_gained"`
	TotalXP        int64                  `json:"total_xp"`
	Level          int                    `json:"level"`
	Progress       float64                `json:"progress"`
	LevelsCrossed  []int                  `json:"levels_crossed,omitempty"`
	Streak         entities.StreakState   `json:"streak"`
	StreakChanged  bool                   `json:"streak_changed"`
	CompletedTasks []entities.DailyTask   `json:"completed_tasks,omitempty"`
	Unlocked       []entities.Achievement `json:"unlocked,omitempty"`
}

// IsEmpty reports whether the event changed nothing worth telling the user.
func (d *Delta) IsEmpty() bool {
	return len(d.LevelsCrossed) == 0 && len(d.CompletedTasks) == 0 && len(d.Unlocked) == 0
}

// Outcome is the result of applying one review event.
type Outcome struct {
	Progression *entities.UserProgression
	Tasks       []entities.DailyTask // every task of the event's day, updated
	Delta       Delta
}

// TasksForDay returns the user's tasks for date, creating any template that
// has no row yet. Existing rows keep their progress.
func (e *Engine) TasksForDay(userID int64, date time.Time, existing []entities.DailyTask) []entities.DailyTask {
	byKey := make(map[string]entities.DailyTask, len(existing))
	for _, t := range existing {
		byKey[t.Key] = t
	}
	out := make([]entities.DailyTask, 0, len(e.cfg.DailyTasks))
	for _, tmpl := range e.cfg.DailyTasks {
		if t, ok := byKey[tmpl.Key]; ok {
			out = append(out, t)
			continue
		}
		out = append(out, tmpl.NewTask(userID, date))
	}
	return out
}

// ApplyReview applies a graded card to the user's progression.
//
// tasks are the user's tasks for the local day of the review (see TasksForDay);
// unlocked holds the achievement keys the user already has. Inputs are not
// modified.
func (e *Engine) ApplyReview(
	p *entities.UserProgression,
	tasks []entities.DailyTask,
	unlocked map[string]bool,
	entry entities.ReviewLogEntry,
	loc *time.Location,
) Outcome {
	next := p.Clone()
	today := entities.LocalDate(entry.ReviewedAt, loc)
	levelBefore := next.XP.Level()
	xpBefore := next.XP.TotalXP

	next.TotalReviews++
	if entry.Rating.IsCorrect() {
		next.CorrectReviews++
	}
	streakChanged := next.Streak.Record(today)
	next.XP.Grant(e.cfg.ReviewXP.For(entry.Rating))

	updated := make([]entities.DailyTask, len(tasks))
	copy(updated, tasks)
	var completed []entities.DailyTask
	for i := range updated {
		t := &updated[i]
		if !t.Date.Equal(today) {
			continue
		}
		if advanceTask(t, entry.Rating) {
			at := entry.ReviewedAt
			t.CompletedAt = &at
			next.XP.Grant(t.XPReward)
			completed = append(completed, *t)
		}
	}

	newly := e.unlockAll(next, unlocked)
	next.UpdatedAt = entry.ReviewedAt

	levelAfter := next.XP.Level()
	var crossed []int
	for l := levelBefore + 1; l <= levelAfter; l++ {
		crossed = append(crossed, l)
	}

	return Outcome{
		Progression: next,
		Tasks:       updated,
		Delta: Delta{
			XPGained:       next.XP.TotalXP - xpBefore,
			TotalXP:        next.XP.TotalXP,
			Level:          levelAfter,
			Progress:       next.XP.Progress(),
			LevelsCrossed:  crossed,
			Streak:         next.Streak,
			StreakChanged:  streakChanged,
			CompletedTasks: completed,
			Unlocked:       newly,
		},
	}
}

// advanceTask counts the rating towards t and reports whether t completed now.
func advanceTask(t *entities.DailyTask, r entities.Rating) bool {
	switch t.Kind {
	case entities.TaskReviewCount, entities.TaskAccuracy:
		t.Progress++
		if r.IsCorrect() {
			t.Correct++
		}
	case entities.TaskCorrectCount:
		if r.IsCorrect() {
			t.Progress++
			t.Correct++
		}
	default:
		return false
	}

	if t.Completed || t.Progress < t.Target {
		return false
	}
	if t.Kind == entities.TaskAccuracy && t.Accuracy() < t.MinAccuracy {
		return false
	}
	t.Completed = true
	return true
}

// unlockAll grants every achievement whose criterion p now satisfies. Rewards
// can raise the level and satisfy further level achievements, so evaluation
// repeats until a pass unlocks nothing.
func (e *Engine) unlockAll(p *entities.UserProgression, unlocked map[string]bool) []entities.Achievement {
	have := make(map[string]bool, len(unlocked))
	for k, v := range unlocked {
		have[k] = v
	}

	var newly []entities.Achievement
	for {
		found := false
		for _, a := range e.cfg.Achievements {
			if have[a.Key] || !Satisfied(a.Criterion, p) {
				continue
			}
			have[a.Key] = true
			p.XP.Grant(a.XPReward)
			newly = append(newly, a)
			found = true
		}
		if !found {
			return newly
		}
	}
}

// Satisfied reports whether p meets the criterion.
func Satisfied(c entities.Criterion, p *entities.UserProgression) bool {
	switch c.Kind {
	case entities.CriterionTotalReviews:
		return p.TotalReviews >= c.Threshold
	case entities.CriterionStreak:
		return int64(p.Streak.CurrentStreak) >= c.Threshold
	case entities.CriterionLevel:
		return int64(p.XP.Level()) >= c.Threshold
	case entities.CriterionAccuracy:
		return p.TotalReviews >= c.MinReviews && p.Accuracy()*100 >= float64(c.Threshold)
	default:
		return false
	}
}
