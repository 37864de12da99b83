package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
)

// Queue is a FIFO of review events kept in a Redis list.
type Queue struct {
	rdb *goredis.Client
	key string
}

func NewQueue(rdb *goredis.Client, prefix string) *Queue {
	return &Queue{rdb: rdb, key: prefix + "progression:followup"}
}

func (q *Queue) Enqueue(ctx context.Context, entry entities.ReviewLogEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("enqueue entry: %w", err)
	}
	return nil
}

// Requeue pushes entry back to the head of the list.
func (q *Queue) Requeue(ctx context.Context, entry entities.ReviewLogEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("requeue entry: %w", err)
	}
	return nil
}

// Pending scans the list for an event of the user. The list only holds
// failed updates, so it stays short.
func (q *Queue) Pending(ctx context.Context, userID int64) (bool, error) {
	raws, err := q.rdb.LRange(ctx, q.key, 0, -1).Result()
	if err != nil {
		return false, fmt.Errorf("list entries: %w", err)
	}
	for _, raw := range raws {
		var entry entities.ReviewLogEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return false, fmt.Errorf("unmarshal entry: %w", err)
		}
		if entry.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (q *Queue) Dequeue(ctx context.Context) (*entities.ReviewLogEntry, error) {
	raw, err := q.rdb.LPop(ctx, q.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue entry: %w", err)
	}

	var entry entities.ReviewLogEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("unmarshal entry: %w", err)
	}
	return &entry, nil
}
