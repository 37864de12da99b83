package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/domain/stats"
)

// testClient connects to TEST_REDIS_ADDR and returns a key prefix unique to the test.
func testClient(t *testing.T) (*goredis.Client, string) {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	rdb, err := NewClient(context.Background(), Config{Addr: addr})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	prefix := fmt.Sprintf("test:%s:", uuid.NewString())
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := rdb.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			_ = rdb.Del(ctx, keys...).Err()
		}
		_ = rdb.Close()
	})
	return rdb, prefix
}

func TestStatsCacheGenerations(t *testing.T) {
	rdb, prefix := testClient(t)
	ctx := context.Background()
	c := NewStatsCache(rdb, prefix, time.Minute)

	if _, ok, err := c.Get(ctx, 1, "heatmap"); ok || err != nil {
		t.Fatalf("empty Get = %v, %v", ok, err)
	}

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	view := &stats.View{Kind: stats.KindHeatmap, Heatmap: []stats.HeatmapDay{{Date: day, Count: 3}}}
	if err := c.Set(ctx, 1, "heatmap", view); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := c.Get(ctx, 1, "heatmap")
	if err != nil || !ok || got.Heatmap[0].Count != 3 || !got.Heatmap[0].Date.Equal(day) {
		t.Fatalf("Get = %+v, %v, %v", got, ok, err)
	}

	if err := c.Invalidate(ctx, 1); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := c.Get(ctx, 1, "heatmap"); ok {
		t.Error("hit after Invalidate")
	}
	if last, ok, _ := c.Last(ctx, 1, stats.KindHeatmap); !ok || last.Heatmap[0].Count != 3 {
		t.Errorf("Last = %+v, %v", last, ok)
	}
}

func TestQueueRoundTrip(t *testing.T) {
	rdb, prefix := testClient(t)
	ctx := context.Background()
	q := NewQueue(rdb, prefix)

	first := entities.ReviewLogEntry{ID: uuid.New(), UserID: 7, Rating: entities.RatingHard, ReviewedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	second := entities.ReviewLogEntry{ID: uuid.New(), UserID: 7, Rating: entities.RatingEasy}
	if err := q.Enqueue(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := q.Dequeue(ctx)
	if err != nil || got.ID != first.ID || got.Rating != entities.RatingHard || !got.ReviewedAt.Equal(first.ReviewedAt) {
		t.Fatalf("first Dequeue = %+v, %v", got, err)
	}
	got, _ = q.Dequeue(ctx)
	if got.ID != second.ID {
		t.Errorf("second Dequeue = %+v", got)
	}
	if got, err := q.Dequeue(ctx); got != nil || err != nil {
		t.Errorf("empty Dequeue = %+v, %v", got, err)
	}
}

func TestQueueRequeueAndPending(t *testing.T) {
	rdb, prefix := testClient(t)
	ctx := context.Background()
	q := NewQueue(rdb, prefix)

	first := entities.ReviewLogEntry{ID: uuid.New(), UserID: 7}
	if err := q.Enqueue(ctx, first); err != nil {
		t.Fatal(err)
	}
	got, _ := q.Dequeue(ctx)
	if ok, _ := q.Pending(ctx, 7); ok {
		t.Error("Pending after Dequeue = true")
	}
	if err := q.Enqueue(ctx, entities.ReviewLogEntry{ID: uuid.New(), UserID: 8}); err != nil {
		t.Fatal(err)
	}
	if err := q.Requeue(ctx, *got); err != nil {
		t.Fatal(err)
	}
	if ok, err := q.Pending(ctx, 7); !ok || err != nil {
		t.Errorf("Pending(7) = %v, %v", ok, err)
	}
	if head, _ := q.Dequeue(ctx); head == nil || head.ID != first.ID {
		t.Errorf("head = %+v, want the requeued entry", head)
	}
}
