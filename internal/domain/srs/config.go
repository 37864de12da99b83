package srs

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidConfig = errors.New("srs: invalid scheduler config")

// NewCardOffsets are the delays applied on the first grading of a new card.
// Easy skips learning entirely and has no offset.
type NewCardOffsets struct {
	Again time.Duration `mapstructure:"again"`
	Hard  time.Duration `mapstructure:"hard"`
	Good  time.Duration `mapstructure:"good"`
}

// Config holds the tunable scheduling constants.
type Config struct {
	LearningSteps   []time.Duration `mapstructure:"learning_steps"`
	RelearningSteps []time.Duration `mapstructure:"relearning_steps"`
	NewCardOffsets  NewCardOffsets  `mapstructure:"new_card_offsets"`

	StartingEase     float64 `mapstructure:"starting_ease"`
	EaseFloor        float64 `mapstructure:"ease_floor"`
	LapseEasePenalty float64 `mapstructure:"lapse_ease_penalty"`
	HardEasePenalty  float64 `mapstructure:"hard_ease_penalty"`
	EasyEaseBonus    float64 `mapstructure:"easy_ease_bonus"`

	HardIntervalFactor  float64 `mapstructure:"hard_interval_factor"`
	EasyBonus           float64 `mapstructure:"easy_bonus"`
	LapseIntervalFactor float64 `mapstructure:"lapse_interval_factor"`
	GraduatingInterval  int     `mapstructure:"graduating_interval"`
	EasyInterval        int     `mapstructure:"easy_interval"`
}

// DefaultConfig returns the stock constants.
func DefaultConfig() Config {
	return Config{
		LearningSteps:   []time.Duration{10 * time.Minute, time.Hour},
		RelearningSteps: []time.Duration{10 * time.Minute},
		NewCardOffsets: NewCardOffsets{
			Again: time.Minute,
			Hard:  5 * time.Minute,
			Good:  10 * time.Minute,
		},
		StartingEase:        2.5,
		EaseFloor:           1.3,
		LapseEasePenalty:    0.20,
		HardEasePenalty:     0.15,
		EasyEaseBonus:       0.15,
		HardIntervalFactor:  1.2,
		EasyBonus:           1.3,
		LapseIntervalFactor: 0.5,
		GraduatingInterval:  1,
		EasyInterval:        4,
	}
}

// Validate checks that the constants keep intervals growing and ease floored.
func (c Config) Validate() error {
	if len(c.LearningSteps) == 0 {
		return fmt.Errorf("%w: at least one learning step is required", ErrInvalidConfig)
	}
	if len(c.RelearningSteps) == 0 {
		return fmt.Errorf("%w: at least one relearning step is required", ErrInvalidConfig)
	}
	for _, steps := range [][]time.Duration{c.LearningSteps, c.RelearningSteps} {
		for i, d := range steps {
			if d <= 0 || d >= 24*time.Hour {
				return fmt.Errorf("%w: step %s must be positive and shorter than a day", ErrInvalidConfig, d)
			}
			if i > 0 && d < steps[i-1] {
				return fmt.Errorf("%w: steps must not decrease", ErrInvalidConfig)
			}
		}
	}
	o := c.NewCardOffsets
	if o.Again <= 0 || o.Hard < o.Again || o.Good < o.Hard {
		return fmt.Errorf("%w: new card offsets must be positive and increase with rating", ErrInvalidConfig)
	}
	if c.EaseFloor <= 1 {
		return fmt.Errorf("%w: ease floor %.2f must exceed 1", ErrInvalidConfig, c.EaseFloor)
	}
	if c.StartingEase < c.EaseFloor {
		return fmt.Errorf("%w: starting ease %.2f below floor %.2f", ErrInvalidConfig, c.StartingEase, c.EaseFloor)
	}
	if c.LapseEasePenalty < 0 || c.HardEasePenalty < 0 || c.EasyEaseBonus < 0 {
		return fmt.Errorf("%w: ease adjustments must not be negative", ErrInvalidConfig)
	}
	if c.HardIntervalFactor < 1 || c.EasyBonus < 1 {
		return fmt.Errorf("%w: interval factors must be at least 1", ErrInvalidConfig)
	}
	if c.LapseIntervalFactor <= 0 || c.LapseIntervalFactor > 1 {
		return fmt.Errorf("%w: lapse interval factor must be in (0, 1]", ErrInvalidConfig)
	}
	if c.GraduatingInterval < 1 || c.EasyInterval < c.GraduatingInterval {
		return fmt.Errorf("%w: graduating intervals must be at least 1 day and easy >= good", ErrInvalidConfig)
	}
	return nil
}
