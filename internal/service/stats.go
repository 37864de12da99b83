package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/domain/stats"
)

// StatsService serves stats views computed from persisted history.
type StatsService struct {
	store      Store
	aggregator *stats.Aggregator
	timezones  TimezoneSource
	cache      StatsCache
	group      singleflight.Group
	logger     *zap.Logger
}

func NewStatsService(
	store Store,
	aggregator *stats.Aggregator,
	timezones TimezoneSource,
	cache StatsCache,
	logger *zap.Logger,
) *StatsService {
	return &StatsService{
		store:      store,
		aggregator: aggregator,
		timezones:  timezones,
		cache:      cache,
		logger:     logger,
	}
}

// GetStats returns the view of kind over w. A zero w.Days uses the default
// window for kind.
//
// Stats never block studying: when the view cannot be computed the last
// cached view of the same kind is returned, or an empty one, with Stale set.
func (s *StatsService) GetStats(ctx context.Context, userID int64, kind stats.Kind, w stats.Window) (*stats.View, error) {
	if _, err := stats.ParseKind(string(kind)); err != nil {
		return nil, err
	}
	w = s.aggregator.Normalize(kind, w)

	loc, err := s.timezones.Location(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to resolve timezone, using UTC", zap.Int64("user_id", userID), zap.Error(err))
		loc = time.UTC
	}

	key := cacheKey(kind, w, loc)
	if v, ok, err := s.cache.Get(ctx, userID, key); err != nil {
		s.logger.Warn("stats cache read failed", zap.Int64("user_id", userID), zap.Error(err))
	} else if ok {
		return v, nil
	}

	// The flight is shared, so one caller giving up must not fail the others.
	flightCtx := context.WithoutCancel(ctx)
	res, err, _ := s.group.Do(fmt.Sprintf("%d:%s", userID, key), func() (any, error) {
		return s.compute(flightCtx, userID, kind, w, loc)
	})
	if err != nil {
		return s.fallback(ctx, userID, kind, w, loc, err)
	}

	view := res.(*stats.View)
	if err := s.cache.Set(ctx, userID, key, view); err != nil {
		s.logger.Warn("stats cache write failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	return view, nil
}

func (s *StatsService) compute(
	ctx context.Context,
	userID int64,
	kind stats.Kind,
	w stats.Window,
	loc *time.Location,
) (*stats.View, error) {
	var (
		logs  []entities.ReviewLogEntry
		cards []*entities.Card
		err   error
	)
	if stats.NeedsCards(kind) {
		cards, err = s.store.Cards().ListDueBefore(ctx, userID, w.Ahead(loc))
	} else {
		from, to := w.Trailing(loc)
		logs, err = s.store.ReviewLogs().ListByUserBetween(ctx, userID, from, to)
	}
	if err != nil {
		return nil, persistenceError("load stats data", err)
	}
	return s.aggregator.Compute(kind, w, loc, logs, cards)
}

func (s *StatsService) fallback(
	ctx context.Context,
	userID int64,
	kind stats.Kind,
	w stats.Window,
	loc *time.Location,
	cause error,
) (*stats.View, error) {
	s.logger.Error("failed to compute stats, serving stale view",
		zap.Int64("user_id", userID),
		zap.String("kind", string(kind)),
		zap.Error(cause),
	)

	if last, ok, err := s.cache.Last(ctx, userID, kind); err == nil && ok {
		last.Stale = true
		return last, nil
	}

	empty, err := s.aggregator.Compute(kind, w, loc, nil, nil)
	if err != nil {
		return nil, err
	}
	empty.Stale = true
	return empty, nil
}

// cacheKey identifies a view. Now is truncated to the minute so repeated
// requests share an entry.
func cacheKey(kind stats.Kind, w stats.Window, loc *time.Location) string {
	return fmt.Sprintf("%s:%d:%d:%s", kind, w.Days, w.Now.Truncate(time.Minute).Unix(), loc.String())
}
