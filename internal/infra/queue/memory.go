package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue implements Queue in process memory. Used when no Redis URL is
// configured and throughout the test suite. Delivery semantics match the
// Redis queue: oldest ready task first, delayed tasks invisible until due.
type MemoryQueue struct {
	mu    sync.Mutex
	items []memoryItem
	now   func() time.Time
}

type memoryItem struct {
	task    Task
	readyAt time.Time
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{now: time.Now}
}

// SetClock replaces the queue's time source. Test hook.
func (q *MemoryQueue) SetClock(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = now
}

func (q *MemoryQueue) Enqueue(ctx context.Context, task *Task) error {
	return q.EnqueueIn(ctx, task, 0)
}

func (q *MemoryQueue) EnqueueIn(ctx context.Context, task *Task, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	t := *task
	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = q.now().UTC()
	}
	q.items = append(q.items, memoryItem{task: t, readyAt: q.now().Add(delay)})
	return nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Task, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	best := -1
	for i, item := range q.items {
		if item.readyAt.After(now) {
			continue
		}
		if best == -1 || item.readyAt.Before(q.items[best].readyAt) {
			best = i
		}
	}
	if best == -1 {
		return nil, false, nil
	}

	task := q.items[best].task
	q.items = append(q.items[:best], q.items[best+1:]...)
	return &task, true, nil
}

func (q *MemoryQueue) Size(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

// Health reports the in-memory queue as always healthy.
func (q *MemoryQueue) Health(ctx context.Context) error {
	return nil
}
