package memory

import (
	"context"
	"sync"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
)

// Queue is a process-local FIFO service.FollowUpQueue.
type Queue struct {
	mu      sync.Mutex
	entries []entities.ReviewLogEntry
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Enqueue(_ context.Context, entry entities.ReviewLogEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, entry)
	return nil
}

func (q *Queue) Dequeue(_ context.Context) (*entities.ReviewLogEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil, nil
	}
	e := q.entries[0]
	q.entries = q.entries[1:]
	return &e, nil
}

func (q *Queue) Requeue(_ context.Context, entry entities.ReviewLogEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append([]entities.ReviewLogEntry{entry}, q.entries...)
	return nil
}

func (q *Queue) Pending(_ context.Context, userID int64) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
