package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
)

var ErrInvalidReminderHour = errors.New("reminder hour must be between 0 and 23")

// UserService manages the study profile: chat binding, timezone and reminders.
type UserService struct {
	repository UserRepository
	logger     *zap.Logger
}

func NewUserService(repository UserRepository, logger *zap.Logger) *UserService {
	return &UserService{repository: repository, logger: logger}
}

// EnsureUser creates the user with defaults unless it already exists.
func (s *UserService) EnsureUser(ctx context.Context, userID, chatID int64) (*entities.User, error) {
	user, err := s.repository.GetByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, entities.ErrUserNotFound) {
		return nil, persistenceError("get user", err)
	}

	user = entities.NewUser(userID, chatID)
	if err := s.repository.Save(ctx, user); err != nil {
		return nil, persistenceError("save user", err)
	}

	s.logger.Info("user created", zap.Int64("user_id", userID))
	return user, nil
}

// SetTimezone validates tz (an IANA name or a UTC offset) and stores it.
func (s *UserService) SetTimezone(ctx context.Context, userID int64, tz string) error {
	loc, err := entities.ParseTimezoneLocation(tz)
	if err != nil {
		return fmt.Errorf("set timezone: %w", err)
	}

	user, err := s.repository.GetByID(ctx, userID)
	if err != nil {
		return persistenceError("get user", err)
	}

	user.Timezone = loc.String()
	if err := s.repository.Save(ctx, user); err != nil {
		return persistenceError("save user", err)
	}

	s.logger.Info("timezone set", zap.Int64("user_id", userID), zap.String("timezone", user.Timezone))
	return nil
}

// SetReminders enables or disables the daily due-card reminder at a local hour.
func (s *UserService) SetReminders(ctx context.Context, userID int64, enabled bool, hour int) error {
	if hour < 0 || hour > 23 {
		return ErrInvalidReminderHour
	}

	user, err := s.repository.GetByID(ctx, userID)
	if err != nil {
		return persistenceError("get user", err)
	}

	user.RemindersEnabled = enabled
	user.ReminderHour = hour
	if err := s.repository.Save(ctx, user); err != nil {
		return persistenceError("save user", err)
	}

	s.logger.Info("reminders updated",
		zap.Int64("user_id", userID),
		zap.Bool("enabled", enabled),
		zap.Int("hour", hour),
	)
	return nil
}
