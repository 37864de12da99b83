package stats

import (
	"fmt"
	"time"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
)

// Aggregator builds views with configured defaults.
type Aggregator struct {
	cfg Config
}

func NewAggregator(cfg Config) (*Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Aggregator{cfg: cfg}, nil
}

func (a *Aggregator) Config() Config {
	return a.cfg
}

// Normalize fills in the default window length for kind.
func (a *Aggregator) Normalize(kind Kind, w Window) Window {
	if w.Days <= 0 {
		w.Days = a.cfg.DefaultDays(kind)
	}
	return w
}

// NeedsCards reports whether kind is computed from the card schedule rather
// than the review log.
func NeedsCards(kind Kind) bool {
	return kind == KindForecast
}

// Compute builds the view of kind. logs is used by history views and cards by
// the forecast; the caller loads whichever NeedsCards asks for.
func (a *Aggregator) Compute(
	kind Kind,
	w Window,
	loc *time.Location,
	logs []entities.ReviewLogEntry,
	cards []*entities.Card,
) (*View, error) {
	w = a.Normalize(kind, w)
	v := &View{Kind: kind, Window: w}
	switch kind {
	case KindHeatmap:
		v.Heatmap = Heatmap(logs, w, loc)
	case KindAccuracy:
		v.Accuracy = AccuracyTrend(logs, w, loc)
	case KindRetention:
		v.Retention = Retention(logs, w, loc)
	case KindForecast:
		v.Forecast = Forecast(cards, w, loc, a.cfg.SecondsPerCard)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return v, nil
}
