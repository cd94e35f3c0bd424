package gojob

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

// DeadLetter is a message the queue gave up on, kept for inspection.
type DeadLetter struct {
	Message *job.ExecutionMessage
	Reason  string
}

// MemoryQueue is an in-process go-job queue for single-binary
// deployments. The daemon's periodic maintenance jobs flow through it
// so the enqueue and dequeue contracts stay identical when a
// broker-backed queue takes its place.
type MemoryQueue struct {
	mu    sync.Mutex
	dead  []DeadLetter
	items chan *job.ExecutionMessage
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 16
	}
	return &MemoryQueue{items: make(chan *job.ExecutionMessage, capacity)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, msg *job.ExecutionMessage) error {
	if q == nil || q.items == nil {
		return fmt.Errorf("gojob: memory queue is not configured")
	}
	if msg == nil || strings.TrimSpace(msg.JobID) == "" {
		return fmt.Errorf("gojob: execution message with a job id is required")
	}
	select {
	case q.items <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (queue.Delivery, error) {
	if q == nil || q.items == nil {
		return nil, fmt.Errorf("gojob: memory queue is not configured")
	}
	select {
	case msg := <-q.items:
		return &memoryDelivery{queue: q, message: msg}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DeadLetters returns a copy of everything the queue has given up on.
func (q *MemoryQueue) DeadLetters() []DeadLetter {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]DeadLetter, len(q.dead))
	copy(out, q.dead)
	return out
}

func (q *MemoryQueue) deadLetter(msg *job.ExecutionMessage, reason string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, DeadLetter{Message: msg, Reason: strings.TrimSpace(reason)})
}

func (q *MemoryQueue) requeue(msg *job.ExecutionMessage, delay time.Duration) {
	push := func() {
		select {
		case q.items <- msg:
		default:
			q.deadLetter(msg, "queue full on requeue")
		}
	}
	if delay > 0 {
		time.AfterFunc(delay, push)
		return
	}
	push()
}

type memoryDelivery struct {
	queue   *MemoryQueue
	message *job.ExecutionMessage

	mu      sync.Mutex
	settled bool
}

func (d *memoryDelivery) Message() *job.ExecutionMessage {
	if d == nil {
		return nil
	}
	return d.message
}

func (d *memoryDelivery) Ack(context.Context) error {
	return d.settle(func() {})
}

func (d *memoryDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	return d.settle(func() {
		switch {
		case opts.DeadLetter:
			d.queue.deadLetter(d.message, opts.Reason)
		case opts.Requeue:
			d.queue.requeue(d.message, opts.Delay)
		}
	})
}

func (d *memoryDelivery) settle(apply func()) error {
	if d == nil {
		return fmt.Errorf("gojob: delivery is not configured")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.settled {
		return fmt.Errorf("gojob: delivery already settled")
	}
	d.settled = true
	apply()
	return nil
}

var (
	_ queue.Enqueuer = (*MemoryQueue)(nil)
	_ queue.Dequeuer = (*MemoryQueue)(nil)
	_ queue.Delivery = (*memoryDelivery)(nil)
)
