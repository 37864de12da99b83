package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/flashcards-engine/internal/config"
	"github.com/aliskhannn/flashcards-engine/internal/delivery/telegram"
	"github.com/aliskhannn/flashcards-engine/internal/domain/progression"
	"github.com/aliskhannn/flashcards-engine/internal/domain/srs"
	"github.com/aliskhannn/flashcards-engine/internal/domain/stats"
	"github.com/aliskhannn/flashcards-engine/internal/infra/memory"
	"github.com/aliskhannn/flashcards-engine/internal/infra/postgres"
	"github.com/aliskhannn/flashcards-engine/internal/infra/postgres/repository"
	"github.com/aliskhannn/flashcards-engine/internal/infra/redis"
	"github.com/aliskhannn/flashcards-engine/internal/logger"
	"github.com/aliskhannn/flashcards-engine/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage.
	var store service.Store
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		dsn, err := cfg.DB.DSN()
		if err != nil {
			lg.Fatal("database is not configured", zap.Error(err))
		}
		pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
			MaxConns:        cfg.DB.MaxConnections,
			MinConns:        cfg.DB.MinConnections,
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
			MaxConnIdleTime: cfg.DB.MaxConnIdleTime,
		})
		if err != nil {
			lg.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()

		if cfg.DB.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				lg.Fatal("failed to apply schema", zap.Error(err))
			}
		}
		store = repository.NewStore(pool)
	default:
		lg.Warn("using in-memory storage, data is lost on restart")
		store = memory.NewStore()
	}

	// Stats cache and progression follow-up queue.
	var (
		cache service.StatsCache    = memory.NewStatsCache()
		queue service.FollowUpQueue = memory.NewQueue()
	)
	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			lg.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()

		cache = redis.NewStatsCache(rdb, cfg.Redis.Prefix, cfg.Redis.StatsTTL)
		queue = redis.NewQueue(rdb, cfg.Redis.Prefix)
	}

	// Engines.
	scheduler, err := srs.NewScheduler(cfg.Scheduler)
	if err != nil {
		lg.Fatal("invalid scheduler config", zap.Error(err))
	}
	engine, err := progression.NewEngine(cfg.Progression)
	if err != nil {
		lg.Fatal("invalid progression config", zap.Error(err))
	}
	aggregator, err := stats.NewAggregator(cfg.Stats)
	if err != nil {
		lg.Fatal("invalid stats config", zap.Error(err))
	}

	// Services.
	timezones := service.NewUserTimezones(store.Users())
	userService := service.NewUserService(store.Users(), lg)
	cardService := service.NewCardService(store, scheduler)
	progressionService := service.NewProgressionService(store, engine, timezones, queue, cfg.Retry, lg)
	gradingService := service.NewGradingService(store, scheduler, progressionService, cache, cfg.Retry, lg)
	statsService := service.NewStatsService(store, aggregator, timezones, cache, lg)
	reminderService := service.NewReminderService(store.Users(), statsService, cfg.Reminders, lg)
	followUp := service.NewFollowUpWorker(progressionService, cfg.FollowUp.Spec, cfg.FollowUp.DrainSize, lg)

	if err := progressionService.SyncCatalog(ctx); err != nil {
		lg.Fatal("failed to sync achievement catalog", zap.Error(err))
	}

	g, ctx := errgroup.WithContext(ctx)

	// Delivery.
	if cfg.Telegram.Token != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			lg.Fatal("failed to create telegram bot", zap.Error(err))
		}
		bot.Debug = cfg.Telegram.Debug
		lg.Info("authorized on telegram", zap.String("account", bot.Self.UserName))

		commands := []tgbotapi.BotCommand{
			{Command: "start", Description: "Запустить бота"},
			{Command: "add", Description: "Добавить карточку (использование: /add #колода вопрос | ответ)"},
			{Command: "due", Description: "Повторить карточки"},
			{Command: "stats", Description: "Статистика"},
			{Command: "progress", Description: "Уровень, серия и задания"},
			{Command: "timezone", Description: "Часовой пояс"},
			{Command: "reminders", Description: "Напоминания"},
			{Command: "help", Description: "Помощь"},
		}
		if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
			lg.Warn("failed to set bot commands", zap.Error(err))
		}

		notifier := telegram.NewNotifier(bot, lg)
		progressionService.SetNotifier(notifier)
		reminderService.SetNotifier(notifier)

		handler := telegram.NewHandler(bot, lg, telegram.Services{
			Users:       userService,
			Cards:       cardService,
			Grading:     gradingService,
			Stats:       statsService,
			Progression: progressionService,
		})
		g.Go(func() error { return handler.Run(ctx) })
	} else {
		lg.Warn("TELEGRAM_API_TOKEN is not set, notifications are only logged")
		notifier := telegram.NewLogNotifier(lg)
		progressionService.SetNotifier(notifier)
		reminderService.SetNotifier(notifier)
	}

	g.Go(func() error { return reminderService.Start(ctx) })
	g.Go(func() error { return followUp.Start(ctx) })

	lg.Info("flashcards engine started",
		zap.String("env", cfg.Env),
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("redis", cfg.Redis.Enabled()),
	)

	if err := g.Wait(); err != nil {
		lg.Error("engine stopped with error", zap.Error(err))
		return
	}
	lg.Info("shutdown signal received")
}
