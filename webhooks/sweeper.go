package webhooks

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-marketplace/core"
)

// Sweeper periodically claims due events and pushes them through one
// delivery attempt each. It is the safety net for chains lost to crashes
// or restarts: anything whose lease or backoff deadline has passed
// becomes claimable again. A failure on one event never stops the rest
// of the batch.
type Sweeper struct {
	events     core.EventStore
	dispatcher *Dispatcher
	interval   time.Duration
	batchSize  int
	lease      time.Duration
	observer   *core.Observer

	Now func() time.Time
}

func NewSweeper(
	events core.EventStore,
	dispatcher *Dispatcher,
	interval time.Duration,
	batchSize int,
	lease time.Duration,
	observer *core.Observer,
) (*Sweeper, error) {
	if events == nil {
		return nil, fmt.Errorf("webhooks: event store is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("webhooks: dispatcher is required")
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	if lease <= 0 {
		lease = 30 * time.Second
	}
	return &Sweeper{
		events:     events,
		dispatcher: dispatcher,
		interval:   interval,
		batchSize:  batchSize,
		lease:      lease,
		observer:   observer,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// Run loops until the context is cancelled. Sweep errors are logged and
// absorbed; only cancellation ends the loop.
func (s *Sweeper) Run(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("webhooks: sweeper is not configured")
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			stats, err := s.SweepOnce(ctx)
			if err != nil {
				s.observer.LogError(ctx, "sweep pass failed", map[string]any{
					"error": err.Error(),
				})
				continue
			}
			if stats.Claimed > 0 {
				s.observer.LogInfo(ctx, "sweep pass completed", map[string]any{
					"claimed":   stats.Claimed,
					"delivered": stats.Delivered,
					"retried":   stats.Retried,
					"failed":    stats.Failed,
					"errors":    stats.Errors,
				})
			}
		}
	}
}

// SweepOnce claims one batch of due events and attempts each in turn.
func (s *Sweeper) SweepOnce(ctx context.Context) (core.SweepStats, error) {
	if s == nil || s.events == nil || s.dispatcher == nil {
		return core.SweepStats{}, fmt.Errorf("webhooks: sweeper is not configured")
	}
	now := s.now()
	claimed, err := s.events.ClaimDue(ctx, now, s.lease, s.batchSize)
	if err != nil {
		return core.SweepStats{}, err
	}

	stats := core.SweepStats{Claimed: len(claimed)}
	for _, event := range claimed {
		outcome, _, attemptErr := s.dispatcher.AttemptClaimed(ctx, event)
		if attemptErr != nil {
			stats.Errors++
			s.observer.LogError(ctx, "sweep attempt errored", map[string]any{
				"event_id": event.EventID,
				"error":    attemptErr.Error(),
			})
			continue
		}
		switch outcome {
		case AttemptDelivered:
			stats.Delivered++
		case AttemptRetried:
			stats.Retried++
		case AttemptFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

func (s *Sweeper) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
