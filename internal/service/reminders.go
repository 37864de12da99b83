package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/domain/stats"
)

type ReminderConfig struct {
	Spec          string `mapstructure:"spec"`
	BatchSize     int    `mapstructure:"batch_size"`
	MaxConcurrent int    `mapstructure:"max_concurrent"`
}

// ReminderService tells users how many cards are due today, once a day at
// their local reminder hour.
type ReminderService struct {
	users    UserRepository
	stats    *StatsService
	notifier Notifier
	cfg      ReminderConfig
	logger   *zap.Logger
}

// NewReminderService creates a new reminder service.
func NewReminderService(users UserRepository, stats *StatsService, cfg ReminderConfig, logger *zap.Logger) *ReminderService {
	return &ReminderService{
		users:  users,
		stats:  stats,
		cfg:    cfg,
		logger: logger,
	}
}

// SetNotifier sets the notifier (called after the delivery layer is created).
func (s *ReminderService) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// Start runs the reminder job on the cron spec until ctx is cancelled.
func (s *ReminderService) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(s.cfg.Spec, func() {
		s.logger.Info("cron triggered: processing due-card reminders")
		if _, err := s.SendDueReminders(ctx, time.Now().UTC()); err != nil {
			s.logger.Error("failed to send due-card reminders", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("add reminder job: %w", err)
	}

	c.Start()
	s.logger.Info("reminder service started", zap.String("spec", s.cfg.Spec))

	<-ctx.Done()

	<-c.Stop().Done()
	s.logger.Info("reminder service stopped")
	return nil
}

// SendDueReminders scans users in batches and notifies those whose local hour
// is their reminder hour and who have cards due today.
func (s *ReminderService) SendDueReminders(ctx context.Context, now time.Time) (int, error) {
	if s.notifier == nil {
		return 0, fmt.Errorf("notifier not initialized")
	}

	offset := 0
	totalSent := 0
	for {
		users, err := s.users.ListReminderBatch(ctx, s.cfg.BatchSize, offset)
		if err != nil {
			return totalSent, fmt.Errorf("list reminder batch: %w", err)
		}
		if len(users) == 0 {
			break
		}

		totalSent += s.processBatch(ctx, users, now)

		if len(users) < s.cfg.BatchSize {
			break
		}
		offset += s.cfg.BatchSize
	}

	s.logger.Info("due-card reminders processed", zap.Int("total_sent", totalSent))
	return totalSent, nil
}

// processBatch processes a batch of users concurrently.
func (s *ReminderService) processBatch(ctx context.Context, users []*entities.User, now time.Time) int {
	sem := make(chan struct{}, max(1, s.cfg.MaxConcurrent))
	var wg sync.WaitGroup
	var mu sync.Mutex
	sent := 0

	for _, user := range users {
		wg.Add(1)
		sem <- struct{}{}

		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			ok, err := s.processUser(ctx, user, now)
			if err != nil {
				s.logger.Error("failed to process reminder",
					zap.Int64("user_id", user.ID),
					zap.Error(err))
				return
			}
			if ok {
				mu.Lock()
				sent++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return sent
}

// processUser sends the reminder for one user and reports whether it was sent.
func (s *ReminderService) processUser(ctx context.Context, user *entities.User, now time.Time) (bool, error) {
	if now.In(user.Location()).Hour() != user.ReminderHour {
		return false, nil
	}

	view, err := s.stats.GetStats(ctx, user.ID, stats.KindForecast, stats.Window{Now: now, Days: 1})
	if err != nil {
		return false, fmt.Errorf("get forecast: %w", err)
	}
	if view.Stale || len(view.Forecast) == 0 || view.Forecast[0].Total == 0 {
		return false, nil
	}

	if err := s.notifier.NotifyDue(ctx, user, view.Forecast[0]); err != nil {
		return false, fmt.Errorf("send notification: %w", err)
	}

	s.logger.Debug("reminder sent",
		zap.Int64("user_id", user.ID),
		zap.Int("due", view.Forecast[0].Total),
	)
	return true, nil
}
