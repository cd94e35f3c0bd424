package main

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-marketplace/core"
)

// jobHandler runs one unit of scheduled maintenance work.
type jobHandler func(ctx context.Context) error

// jobRunner drains the maintenance queue and hands each message to the
// handler registered for its job id. Failed runs are dead-lettered
// rather than requeued: the scheduler enqueues a fresh message on the
// next tick anyway.
type jobRunner struct {
	dequeuer core.JobDequeuer
	handlers map[string]jobHandler
	hook     core.JobWorkerHook
	logger   core.Logger
}

func newJobRunner(dequeuer core.JobDequeuer, hook core.JobWorkerHook, logger core.Logger) *jobRunner {
	return &jobRunner{
		dequeuer: dequeuer,
		handlers: map[string]jobHandler{},
		hook:     hook,
		logger:   logger,
	}
}

func (r *jobRunner) Handle(jobID string, handler jobHandler) {
	if r != nil && handler != nil {
		r.handlers[jobID] = handler
	}
}

func (r *jobRunner) Run(ctx context.Context) error {
	if r == nil || r.dequeuer == nil {
		return fmt.Errorf("job runner is not configured")
	}
	for {
		delivery, err := r.dequeuer.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Error("job dequeue failed", "error", err)
			continue
		}
		r.process(ctx, delivery)
	}
}

func (r *jobRunner) process(ctx context.Context, delivery core.JobDelivery) {
	msg := delivery.Message()
	if msg == nil {
		_ = delivery.Nack(ctx, core.JobNackOptions{DeadLetter: true, Reason: "empty message"})
		return
	}
	event := core.JobWorkerEvent{Message: msg, Attempt: 1, StartedAt: time.Now().UTC()}
	r.hook.OnStart(ctx, event)

	handler, ok := r.handlers[msg.JobID]
	if !ok {
		event.Err = fmt.Errorf("no handler for job %s", msg.JobID)
		r.hook.OnFailure(ctx, event)
		_ = delivery.Nack(ctx, core.JobNackOptions{DeadLetter: true, Reason: event.Err.Error()})
		return
	}

	err := handler(ctx)
	event.Duration = time.Since(event.StartedAt)
	if err != nil {
		event.Err = err
		r.hook.OnFailure(ctx, event)
		_ = delivery.Nack(ctx, core.JobNackOptions{DeadLetter: true, Reason: err.Error()})
		return
	}
	r.hook.OnSuccess(ctx, event)
	_ = delivery.Ack(ctx)
}

// scheduleJob enqueues jobID every interval until the context ends.
func scheduleJob(ctx context.Context, enqueuer core.JobEnqueuer, jobID string, every time.Duration, logger core.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg := &core.JobExecutionMessage{
				JobID:          jobID,
				IdempotencyKey: fmt.Sprintf("%s-%d", jobID, time.Now().UnixNano()),
			}
			if err := enqueuer.Enqueue(ctx, msg); err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Error("job enqueue failed", "job_id", jobID, "error", err)
			}
		}
	}
}

// observerJobHook reports job lifecycle through the shared observer so
// maintenance runs land in the same log and metric streams as webhook
// attempts.
type observerJobHook struct {
	observer *core.Observer
}

func (h observerJobHook) OnStart(ctx context.Context, event core.JobWorkerEvent) {
	h.observer.LogInfo(ctx, "job started", jobFields(event))
}

func (h observerJobHook) OnSuccess(ctx context.Context, event core.JobWorkerEvent) {
	h.observer.ObserveOperation(ctx, event.StartedAt, "job_run", nil, jobFields(event))
}

func (h observerJobHook) OnFailure(ctx context.Context, event core.JobWorkerEvent) {
	h.observer.ObserveOperation(ctx, event.StartedAt, "job_run", event.Err, jobFields(event))
}

func (h observerJobHook) OnRetry(ctx context.Context, event core.JobWorkerEvent) {
	h.observer.LogInfo(ctx, "job retry scheduled", jobFields(event))
}

func jobFields(event core.JobWorkerEvent) map[string]any {
	fields := map[string]any{"attempt": event.Attempt}
	if event.Message != nil {
		fields["job_id"] = event.Message.JobID
	}
	return fields
}

var _ core.JobWorkerHook = observerJobHook{}
