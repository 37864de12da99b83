package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/infra/postgres"
)

// DailyTaskRepository stores per-day task progress.
type DailyTaskRepository struct {
	db postgres.DBTX
}

func NewDailyTaskRepository(db postgres.DBTX) *DailyTaskRepository {
	return &DailyTaskRepository{db: db}
}

// ListForDate returns the user's tasks for a local date, ordered by key.
func (r *DailyTaskRepository) ListForDate(ctx context.Context, userID int64, date time.Time) ([]entities.DailyTask, error) {
	query := `
		SELECT user_id, task_date, task_key, kind, target, progress, correct,
		       min_accuracy, completed, completed_at, xp_reward
		FROM daily_tasks
		WHERE user_id = $1 AND task_date = $2
		ORDER BY task_key
	`

	rows, err := r.db.Query(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("list daily tasks: %w", err)
	}
	defer rows.Close()

	var tasks []entities.DailyTask
	for rows.Next() {
		var (
			t    entities.DailyTask
			kind string
		)
		if err := rows.Scan(
			&t.UserID, &t.Date, &t.Key, &kind, &t.Target, &t.Progress, &t.Correct,
			&t.MinAccuracy, &t.Completed, &t.CompletedAt, &t.XPReward,
		); err != nil {
			return nil, fmt.Errorf("scan daily task: %w", err)
		}
		t.Kind = entities.TaskKind(kind)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily tasks: %w", err)
	}

	return tasks, nil
}

// Upsert creates or updates a task row. A completed task never reverts.
func (r *DailyTaskRepository) Upsert(ctx context.Context, task entities.DailyTask) error {
	query := `
		INSERT INTO daily_tasks (
			user_id, task_date, task_key, kind, target, progress, correct,
			min_accuracy, completed, completed_at, xp_reward
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, task_date, task_key) DO UPDATE SET
			progress = EXCLUDED.progress,
			correct = EXCLUDED.correct,
			completed = daily_tasks.completed OR EXCLUDED.completed,
			completed_at = COALESCE(daily_tasks.completed_at, EXCLUDED.completed_at)
	`

	_, err := r.db.Exec(ctx, query,
		task.UserID,
		task.Date,
		task.Key,
		string(task.Kind),
		task.Target,
		task.Progress,
		task.Correct,
		task.MinAccuracy,
		task.Completed,
		task.CompletedAt,
		task.XPReward,
	)
	if err != nil {
		return fmt.Errorf("upsert daily task: %w", err)
	}

	return nil
}
