// Package stats derives read-only views from the review log and card schedule.
//
// All functions are deterministic: the window, including "now", is passed in
// and output is sorted by date.
package stats

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
)

var (
	ErrUnknownKind   = errors.New("unknown stats kind")
	ErrInvalidConfig = errors.New("stats: invalid config")
)

// Kind selects a view.
type Kind string

const (
	KindHeatmap   Kind = "heatmap"
	KindAccuracy  Kind = "accuracy"
	KindRetention Kind = "retention"
	KindForecast  Kind = "forecast"
)

// Kinds lists every view kind.
var Kinds = []Kind{KindHeatmap, KindAccuracy, KindRetention, KindForecast}

// ParseKind validates s as a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindHeatmap, KindAccuracy, KindRetention, KindForecast:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Retention buckets, keyed by the card's interval before the grading.
const (
	Bucket24h = "24h" // prior interval of 1 to 6 days
	Bucket7d  = "7d"  // prior interval of 7 days or more
)

// Config holds window defaults and the time budget per card.
type Config struct {
	HeatmapDays    int `mapstructure:"heatmap_days"`
	AccuracyDays   int `mapstructure:"accuracy_days"`
	RetentionDays  int `mapstructure:"retention_days"`
	ForecastDays   int `mapstructure:"forecast_days"`
	SecondsPerCard int `mapstructure:"seconds_per_card"`
}

func DefaultConfig() Config {
	return Config{
		HeatmapDays:    365,
		AccuracyDays:   30,
		RetentionDays:  30,
		ForecastDays:   7,
		SecondsPerCard: 30,
	}
}

func (c Config) Validate() error {
	if c.HeatmapDays <= 0 || c.AccuracyDays <= 0 || c.RetentionDays <= 0 || c.ForecastDays <= 0 {
		return fmt.Errorf("%w: window lengths must be positive", ErrInvalidConfig)
	}
	if c.SecondsPerCard <= 0 {
		return fmt.Errorf("%w: seconds per card must be positive", ErrInvalidConfig)
	}
	return nil
}

// DefaultDays returns the configured window length for kind.
func (c Config) DefaultDays(kind Kind) int {
	switch kind {
	case KindHeatmap:
		return c.HeatmapDays
	case KindAccuracy:
		return c.AccuracyDays
	case KindRetention:
		return c.RetentionDays
	case KindForecast:
		return c.ForecastDays
	default:
		return 0
	}
}

// Window is the span a view covers. Days counts local calendar days and
// includes the day of Now.
type Window struct {
	Now  time.Time `json:"now"`
	Days int       `json:"days"`
}

// Trailing returns the instants bounding the Days local days ending with
// Now's day: [start of the first day, Now].
func (w Window) Trailing(loc *time.Location) (from, to time.Time) {
	today := entities.LocalDate(w.Now, loc)
	first := today.AddDate(0, 0, -(w.Days - 1))
	return entities.StartOfLocalDay(first, loc), w.Now
}

// Ahead returns the end of the Days local days starting with Now's day.
func (w Window) Ahead(loc *time.Location) time.Time {
	today := entities.LocalDate(w.Now, loc)
	return entities.StartOfLocalDay(today.AddDate(0, 0, w.Days), loc)
}

type HeatmapDay struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

type AccuracyDay struct {
	Date         time.Time `json:"date"`
	ReviewCount  int       `json:"review_count"`
	CorrectCount int       `json:"correct_count"`
	Accuracy     float64   `json:"accuracy"`
}

type RetentionBucket struct {
	Bucket    string  `json:"bucket"`
	Reviews   int     `json:"reviews"`
	Correct   int     `json:"correct"`
	Retention float64 `json:"retention"`
}

// ForecastDay counts the cards due on one local day, per state.
type ForecastDay struct {
	Date             time.Time `json:"date"`
	New              int       `json:"new"`
	Learning         int       `json:"learning"`
	Review           int       `json:"review"`
	Relearning       int       `json:"relearning"`
	Total            int       `json:"total"`
	EstimatedMinutes int       `json:"estimated_minutes"`
}

// View is the result of a stats query. Exactly one of the slices is set,
// matching Kind. Stale marks a cached view served because fresh data could
// not be computed.
type View struct {
	Kind      Kind              `json:"kind"`
	Window    Window            `json:"window"`
	Heatmap   []HeatmapDay      `json:"heatmap,omitempty"`
	Accuracy  []AccuracyDay     `json:"accuracy,omitempty"`
	Retention []RetentionBucket `json:"retention,omitempty"`
	Forecast  []ForecastDay     `json:"forecast,omitempty"`
	Stale     bool              `json:"stale"`
}

// Heatmap counts reviews per local date inside the window. Days without
// reviews are omitted.
func Heatmap(logs []entities.ReviewLogEntry, w Window, loc *time.Location) []HeatmapDay {
	from, to := w.Trailing(loc)
	counts := make(map[time.Time]int)
	for _, e := range logs {
		if !inRange(e.ReviewedAt, from, to) {
			continue
		}
		counts[entities.LocalDate(e.ReviewedAt, loc)]++
	}

	out := make([]HeatmapDay, 0, len(counts))
	for d, n := range counts {
		out = append(out, HeatmapDay{Date: d, Count: n})
	}
	slices.SortFunc(out, func(a, b HeatmapDay) int { return a.Date.Compare(b.Date) })
	return out
}

// AccuracyTrend returns one entry per local day of the window, zero-filled.
func AccuracyTrend(logs []entities.ReviewLogEntry, w Window, loc *time.Location) []AccuracyDay {
	from, to := w.Trailing(loc)
	first := entities.LocalDate(from, loc)

	out := make([]AccuracyDay, w.Days)
	for i := range out {
		out[i].Date = first.AddDate(0, 0, i)
	}
	for _, e := range logs {
		if !inRange(e.ReviewedAt, from, to) {
			continue
		}
		i := entities.DaysBetween(first, entities.LocalDate(e.ReviewedAt, loc))
		if i < 0 || i >= len(out) {
			continue
		}
		out[i].ReviewCount++
		if e.Rating.IsCorrect() {
			out[i].CorrectCount++
		}
	}
	for i := range out {
		out[i].Accuracy = ratio(out[i].CorrectCount, out[i].ReviewCount)
	}
	return out
}

// Retention returns the share of correct review-state gradings per prior
// interval bucket. Both buckets are always present.
func Retention(logs []entities.ReviewLogEntry, w Window, loc *time.Location) []RetentionBucket {
	from, to := w.Trailing(loc)
	out := []RetentionBucket{{Bucket: Bucket24h}, {Bucket: Bucket7d}}
	for _, e := range logs {
		if e.PriorState != entities.StateReview || !inRange(e.ReviewedAt, from, to) {
			continue
		}
		var b *RetentionBucket
		switch {
		case e.PriorIntervalDays >= 7:
			b = &out[1]
		case e.PriorIntervalDays >= 1:
			b = &out[0]
		default:
			continue
		}
		b.Reviews++
		if e.Rating.IsCorrect() {
			b.Correct++
		}
	}
	for i := range out {
		out[i].Retention = ratio(out[i].Correct, out[i].Reviews)
	}
	return out
}

// Forecast counts cards due on each of the window's local days, starting
// with today. Overdue cards are counted on today.
func Forecast(cards []*entities.Card, w Window, loc *time.Location, secondsPerCard int) []ForecastDay {
	today := entities.LocalDate(w.Now, loc)
	end := w.Ahead(loc)

	out := make([]ForecastDay, w.Days)
	for i := range out {
		out[i].Date = today.AddDate(0, 0, i)
	}
	for _, c := range cards {
		if !c.DueAt.Before(end) {
			continue
		}
		i := max(0, entities.DaysBetween(today, entities.LocalDate(c.DueAt, loc)))
		if i >= len(out) {
			continue
		}
		d := &out[i]
		switch c.State {
		case entities.StateNew:
			d.New++
		case entities.StateLearning:
			d.Learning++
		case entities.StateReview:
			d.Review++
		case entities.StateRelearning:
			d.Relearning++
		default:
			continue
		}
		d.Total++
	}
	for i := range out {
		out[i].EstimatedMinutes = EstimatedMinutes(out[i].Total, secondsPerCard)
	}
	return out
}

// EstimatedMinutes rounds total×secondsPerCard/60 half up.
func EstimatedMinutes(total, secondsPerCard int) int {
	return (total*secondsPerCard + 30) / 60
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
