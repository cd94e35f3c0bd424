package gojob

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-marketplace/core"
)

func TestMemoryQueue_RoundTripThroughAdapters(t *testing.T) {
	queue := NewMemoryQueue(4)
	enqueuer := NewEnqueuerAdapter(queue)
	dequeuer := NewDequeuerAdapter(queue, RetryPolicy{MaxAttempts: 1, DeadLetterOnMax: true})

	ctx := context.Background()
	if err := enqueuer.Enqueue(ctx, &core.JobExecutionMessage{
		JobID:          JobIDWebhookSweep,
		IdempotencyKey: "sweep-1",
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	delivery, err := dequeuer.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	msg := delivery.Message()
	if msg == nil || msg.JobID != JobIDWebhookSweep || msg.IdempotencyKey != "sweep-1" {
		t.Fatalf("unexpected message %#v", msg)
	}
	if err := delivery.Ack(ctx); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if err := delivery.Ack(ctx); err == nil {
		t.Fatal("expected second settle to fail")
	}
}

func TestMemoryQueue_PreservesOrder(t *testing.T) {
	queue := NewMemoryQueue(4)
	enqueuer := NewEnqueuerAdapter(queue)
	dequeuer := NewDequeuerAdapter(queue, RetryPolicy{})

	ctx := context.Background()
	for _, jobID := range []string{JobIDWebhookSweep, JobIDTokenPrune} {
		if err := enqueuer.Enqueue(ctx, &core.JobExecutionMessage{JobID: jobID}); err != nil {
			t.Fatalf("enqueue %s: %v", jobID, err)
		}
	}
	for _, want := range []string{JobIDWebhookSweep, JobIDTokenPrune} {
		delivery, err := dequeuer.Dequeue(ctx)
		if err != nil {
			t.Fatalf("dequeue: %v", err)
		}
		if got := delivery.Message().JobID; got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
		if err := delivery.Ack(ctx); err != nil {
			t.Fatalf("ack: %v", err)
		}
	}
}

func TestMemoryQueue_NackRequeues(t *testing.T) {
	queue := NewMemoryQueue(4)
	dequeuer := NewDequeuerAdapter(queue, RetryPolicy{MaxAttempts: 3})

	ctx := context.Background()
	if err := queue.Enqueue(ctx, ToExecutionMessage(&core.JobExecutionMessage{JobID: JobIDTokenPrune})); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	delivery, err := dequeuer.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if err := delivery.Nack(ctx, core.JobNackOptions{Requeue: true, Reason: "transient"}); err != nil {
		t.Fatalf("nack: %v", err)
	}

	again, err := dequeuer.Dequeue(ctx)
	if err != nil {
		t.Fatalf("redequeue: %v", err)
	}
	if got := again.Message().JobID; got != JobIDTokenPrune {
		t.Fatalf("expected requeued message, got %s", got)
	}
	if len(queue.DeadLetters()) != 0 {
		t.Fatalf("expected no dead letters, got %d", len(queue.DeadLetters()))
	}
}

func TestMemoryQueue_DeadLettersOnGiveUp(t *testing.T) {
	queue := NewMemoryQueue(4)
	dequeuer := NewDequeuerAdapter(queue, RetryPolicy{MaxAttempts: 1, DeadLetterOnMax: true})

	ctx := context.Background()
	if err := queue.Enqueue(ctx, ToExecutionMessage(&core.JobExecutionMessage{JobID: JobIDWebhookSweep})); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	delivery, err := dequeuer.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if err := delivery.Nack(ctx, core.JobNackOptions{DeadLetter: true, Reason: "handler blew up"}); err != nil {
		t.Fatalf("nack: %v", err)
	}

	dead := queue.DeadLetters()
	if len(dead) != 1 || dead[0].Reason != "handler blew up" {
		t.Fatalf("expected one dead letter with cause, got %#v", dead)
	}
	if dead[0].Message.JobID != JobIDWebhookSweep {
		t.Fatalf("unexpected dead-lettered job %s", dead[0].Message.JobID)
	}
}

func TestMemoryQueue_DequeueHonorsContext(t *testing.T) {
	queue := NewMemoryQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := queue.Dequeue(ctx); err == nil {
		t.Fatal("expected context expiry on an empty queue")
	}
}

func TestMemoryQueue_RejectsBlankJobID(t *testing.T) {
	queue := NewMemoryQueue(1)
	if err := queue.Enqueue(context.Background(), ToExecutionMessage(&core.JobExecutionMessage{JobID: "   "})); err == nil {
		t.Fatal("expected blank job id rejection")
	}
}
