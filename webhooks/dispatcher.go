package webhooks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-marketplace/core"
)

type AttemptOutcome string

const (
	// AttemptSkipped means the claim was lost: another worker owns the
	// attempt or the event already reached a terminal status.
	AttemptSkipped   AttemptOutcome = "skipped"
	AttemptDelivered AttemptOutcome = "delivered"
	AttemptRetried   AttemptOutcome = "retried"
	AttemptFailed    AttemptOutcome = "failed"
)

// Dispatcher drives the delivery state machine
// pending -> retrying -> delivered|failed. Dispatch returns immediately;
// attempts run on dispatcher-owned goroutines that schedule their own
// backoff waits, so no call stack ever sleeps recursively. Ownership of
// an attempt is a guarded claim update in the event store shared with
// the sweeper, which picks up any chain this process loses.
type Dispatcher struct {
	events   core.EventStore
	client   core.DeliveryClient
	secrets  core.SecretProvider
	policy   RetryPolicy
	lease    time.Duration
	observer *core.Observer

	Now func() time.Time

	wg   sync.WaitGroup
	quit chan struct{}
	once sync.Once
}

func NewDispatcher(
	events core.EventStore,
	client core.DeliveryClient,
	secrets core.SecretProvider,
	policy RetryPolicy,
	lease time.Duration,
	observer *core.Observer,
) (*Dispatcher, error) {
	if events == nil {
		return nil, fmt.Errorf("webhooks: event store is required")
	}
	if client == nil {
		return nil, fmt.Errorf("webhooks: delivery client is required")
	}
	if secrets == nil {
		return nil, fmt.Errorf("webhooks: secret provider is required")
	}
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	if lease <= 0 {
		lease = 30 * time.Second
	}
	return &Dispatcher{
		events:   events,
		client:   client,
		secrets:  secrets,
		policy:   policy,
		lease:    lease,
		observer: observer,
		Now: func() time.Time {
			return time.Now().UTC()
		},
		quit: make(chan struct{}),
	}, nil
}

// Dispatch schedules delivery of a stored event and returns without
// waiting for the outcome. An optional delay defers the first attempt.
func (d *Dispatcher) Dispatch(ctx context.Context, eventID string, delay time.Duration) error {
	if d == nil {
		return fmt.Errorf("webhooks: dispatcher is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return fmt.Errorf("webhooks: event id is required")
	}

	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if delay > 0 {
			if !d.wait(detached, delay) {
				return
			}
		}
		d.runChain(detached, eventID)
	}()
	return nil
}

func (d *Dispatcher) runChain(ctx context.Context, eventID string) {
	for {
		outcome, nextDelay, err := d.Attempt(ctx, eventID)
		if err != nil {
			d.observer.LogError(ctx, "webhook attempt chain aborted", map[string]any{
				"event_id": eventID,
				"error":    err.Error(),
			})
			return
		}
		if outcome != AttemptRetried {
			return
		}
		if !d.wait(ctx, nextDelay) {
			return
		}
	}
}

// Attempt claims the event and, if the claim wins, performs one delivery
// attempt. The returned delay is meaningful only for AttemptRetried.
func (d *Dispatcher) Attempt(ctx context.Context, eventID string) (AttemptOutcome, time.Duration, error) {
	if d == nil || d.events == nil {
		return "", 0, fmt.Errorf("webhooks: dispatcher is not configured")
	}
	event, claimed, err := d.events.Claim(ctx, eventID, d.now(), d.lease)
	if err != nil {
		return "", 0, err
	}
	if !claimed {
		return AttemptSkipped, 0, nil
	}
	return d.AttemptClaimed(ctx, event)
}

// AttemptClaimed delivers an already-claimed event and records the
// outcome. The sweeper calls this directly with batch-claimed events.
func (d *Dispatcher) AttemptClaimed(ctx context.Context, event core.WebhookEvent) (AttemptOutcome, time.Duration, error) {
	startedAt := d.now()
	deliverErr := d.deliverSigned(ctx, event)
	fields := map[string]any{
		"event_id":   event.EventID,
		"event_type": string(event.EventType),
		"store_id":   event.StoreID,
		"attempt":    event.Attempts,
	}
	d.observer.ObserveOperation(ctx, startedAt, "webhook_attempt", deliverErr, fields)

	if deliverErr == nil {
		if err := d.events.MarkDelivered(ctx, event.EventID, d.now()); err != nil {
			return "", 0, err
		}
		return AttemptDelivered, 0, nil
	}

	if d.policy.Exhausted(event.Attempts) {
		if err := d.events.MarkFailed(ctx, event.EventID, deliverErr.Error(), d.now()); err != nil {
			return "", 0, err
		}
		return AttemptFailed, 0, nil
	}

	nextDelay := d.policy.NextDelay(event.Attempts)
	if err := d.events.MarkRetrying(ctx, event.EventID, deliverErr.Error(), d.now().Add(nextDelay)); err != nil {
		return "", 0, err
	}
	return AttemptRetried, nextDelay, nil
}

func (d *Dispatcher) deliverSigned(ctx context.Context, event core.WebhookEvent) error {
	secret, err := d.secrets.SigningSecret(ctx, event.ClientID)
	if err != nil {
		return fmt.Errorf("webhooks: signing secret for client %q: %w", event.ClientID, err)
	}
	signature := NewHMACSigner(secret).Sign(event.Payload)
	_, err = d.client.Deliver(ctx, core.DeliveryRequest{
		URL:       event.WebhookURL,
		Payload:   event.Payload,
		Signature: signature,
	})
	return err
}

// wait blocks for the duration, returning false when the dispatcher is
// closed or the context ends first.
func (d *Dispatcher) wait(ctx context.Context, duration time.Duration) bool {
	if duration <= 0 {
		return true
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-d.quit:
		return false
	}
}

// Close stops in-flight backoff waits. Pending events stay claimable by
// the sweeper once their lease expires.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		close(d.quit)
	})
}

// DrainWait blocks until every dispatched chain has returned.
func (d *Dispatcher) DrainWait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

func (d *Dispatcher) now() time.Time {
	if d != nil && d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}
