package telegram

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/domain/progression"
	"github.com/aliskhannn/flashcards-engine/internal/domain/stats"
)

// Notifier pushes progression events and due-card reminders to the user's chat.
type Notifier struct {
	sender Sender
	logger *zap.Logger
}

func NewNotifier(sender Sender, logger *zap.Logger) *Notifier {
	return &Notifier{sender: sender, logger: logger}
}

func (n *Notifier) NotifyProgression(_ context.Context, user *entities.User, delta progression.Delta) error {
	if _, err := n.sender.Send(newMessage(user.ChatID, formatDelta(delta))); err != nil {
		return fmt.Errorf("send progression message: %w", err)
	}
	return nil
}

func (n *Notifier) NotifyDue(_ context.Context, user *entities.User, today stats.ForecastDay) error {
	msg := newMessage(user.ChatID, formatDueReminder(today))
	msg.ReplyMarkup = buildStudyKeyboard()
	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	return nil
}

// LogNotifier only logs. It is used when no bot token is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyProgression(_ context.Context, user *entities.User, delta progression.Delta) error {
	n.logger.Info("progression",
		zap.Int64("user_id", user.ID),
		zap.Int64("xp_gained", delta.XPGained),
		zap.Ints("levels_crossed", delta.LevelsCrossed),
		zap.Int("tasks_completed", len(delta.CompletedTasks)),
		zap.Int("achievements_unlocked", len(delta.Unlocked)),
	)
	return nil
}

func (n *LogNotifier) NotifyDue(_ context.Context, user *entities.User, today stats.ForecastDay) error {
	n.logger.Info("cards due today",
		zap.Int64("user_id", user.ID),
		zap.Int("total", today.Total),
		zap.Int("estimated_minutes", today.EstimatedMinutes),
	)
	return nil
}
