package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/aliskhannn/flashcards-engine/internal/domain/progression"
	"github.com/aliskhannn/flashcards-engine/internal/domain/srs"
	"github.com/aliskhannn/flashcards-engine/internal/domain/stats"
	"github.com/aliskhannn/flashcards-engine/internal/service"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrUnknownStorageDriver        = errors.New("unknown storage driver")
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env         string                 `mapstructure:"env"` // current application environment (local, dev, production etc)
	Storage     Storage                `mapstructure:"storage"`
	DB          DB                     `mapstructure:"database"`
	Redis       Redis                  `mapstructure:"redis"`
	Telegram    Telegram               `mapstructure:"telegram"`
	Scheduler   srs.Config             `mapstructure:"scheduler"`
	Progression progression.Config     `mapstructure:"progression"`
	Stats       stats.Config           `mapstructure:"stats"`
	Retry       service.RetryPolicy    `mapstructure:"retry"`
	Reminders   service.ReminderConfig `mapstructure:"reminders"`
	FollowUp    FollowUp               `mapstructure:"followup"`
}

type Storage struct {
	Driver string `mapstructure:"driver"` // postgres or memory
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                  // database connection string loaded from environment
	MaxConnections  int32         `mapstructure:"max_connections"`    // maximum number of open connections in the pool
	MinConnections  int32         `mapstructure:"min_connections"`    // connections kept open when idle
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`  // maximum lifetime of a single connection
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"` // idle connections are closed after this
	Migrate         bool          `mapstructure:"migrate"`            // apply the embedded schema on start
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Redis is optional; without an address the stats cache and the follow-up
// queue live in process memory.
type Redis struct {
	Addr     string        `mapstructure:"-"`
	Password string        `mapstructure:"-"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	StatsTTL time.Duration `mapstructure:"stats_ttl"`
}

func (r Redis) Enabled() bool {
	return r.Addr != ""
}

// Telegram is optional; without a token notifications are only logged.
type Telegram struct {
	Token string `mapstructure:"-"`
	Debug bool   `mapstructure:"debug"`
}

type FollowUp struct {
	Spec      string `mapstructure:"spec"`
	DrainSize int    `mapstructure:"drain_size"`
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// Pick up a local .env before reading the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	setDefaults(v)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("redis_password", "REDIS_PASSWORD")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.Telegram.Token = v.GetString("telegram_api_token")
	cfg.DB.URL = v.GetString("database_url")
	cfg.Redis.Addr = v.GetString("redis_addr")
	cfg.Redis.Password = v.GetString("redis_password")

	switch cfg.Storage.Driver {
	case DriverPostgres:
		if cfg.DB.URL == "" {
			return nil, fmt.Errorf("%w: DATABASE_URL", ErrMissingEnvironmentVariables)
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStorageDriver, cfg.Storage.Driver)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration keys.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("storage.driver", DriverPostgres)

	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.max_conn_lifetime", "30m")
	v.SetDefault("database.max_conn_idle_time", "5m")
	v.SetDefault("database.migrate", true)

	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "flashcards:")
	v.SetDefault("redis.stats_ttl", "10m")

	v.SetDefault("telegram.debug", false)

	sched := srs.DefaultConfig()
	v.SetDefault("scheduler.learning_steps", sched.LearningSteps)
	v.SetDefault("scheduler.relearning_steps", sched.RelearningSteps)
	v.SetDefault("scheduler.new_card_offsets.again", sched.NewCardOffsets.Again)
	v.SetDefault("scheduler.new_card_offsets.hard", sched.NewCardOffsets.Hard)
	v.SetDefault("scheduler.new_card_offsets.good", sched.NewCardOffsets.Good)
	v.SetDefault("scheduler.starting_ease", sched.StartingEase)
	v.SetDefault("scheduler.ease_floor", sched.EaseFloor)
	v.SetDefault("scheduler.lapse_ease_penalty", sched.LapseEasePenalty)
	v.SetDefault("scheduler.hard_ease_penalty", sched.HardEasePenalty)
	v.SetDefault("scheduler.easy_ease_bonus", sched.EasyEaseBonus)
	v.SetDefault("scheduler.hard_interval_factor", sched.HardIntervalFactor)
	v.SetDefault("scheduler.easy_bonus", sched.EasyBonus)
	v.SetDefault("scheduler.lapse_interval_factor", sched.LapseIntervalFactor)
	v.SetDefault("scheduler.graduating_interval", sched.GraduatingInterval)
	v.SetDefault("scheduler.easy_interval", sched.EasyInterval)

	prog := progression.DefaultConfig()
	v.SetDefault("progression.review_xp.again", prog.ReviewXP.Again)
	v.SetDefault("progression.review_xp.hard", prog.ReviewXP.Hard)
	v.SetDefault("progression.review_xp.good", prog.ReviewXP.Good)
	v.SetDefault("progression.review_xp.easy", prog.ReviewXP.Easy)
	v.SetDefault("progression.daily_tasks", prog.DailyTasks)
	v.SetDefault("progression.achievements", prog.Achievements)

	st := stats.DefaultConfig()
	v.SetDefault("stats.heatmap_days", st.HeatmapDays)
	v.SetDefault("stats.accuracy_days", st.AccuracyDays)
	v.SetDefault("stats.retention_days", st.RetentionDays)
	v.SetDefault("stats.forecast_days", st.ForecastDays)
	v.SetDefault("stats.seconds_per_card", st.SecondsPerCard)

	retry := service.DefaultRetryPolicy()
	v.SetDefault("retry.attempts", retry.Attempts)
	v.SetDefault("retry.backoff", retry.Backoff)

	v.SetDefault("reminders.spec", "0 * * * *") // hourly, each user is reminded at their local hour
	v.SetDefault("reminders.batch_size", 100)
	v.SetDefault("reminders.max_concurrent", 10)

	v.SetDefault("followup.spec", "@every 30s")
	v.SetDefault("followup.drain_size", 100)
}
