package webhooks

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-marketplace/core"
)

// Trigger decides whether a domain action becomes a stored webhook
// event. Missing or disabled configuration is a silent no-op reported in
// the result, not an error; only unknown stores and malformed requests
// fail. When an event is created its payload and destination URL are
// captured immediately and the dispatcher is handed the event id.
type Trigger struct {
	events       core.EventStore
	stores       core.StoreStore
	integrations core.IntegrationStore
	dispatcher   *Dispatcher
	payload      *PayloadBuilder
	burst        BurstController
	observer     *core.Observer

	Now func() time.Time
}

func NewTrigger(
	events core.EventStore,
	stores core.StoreStore,
	integrations core.IntegrationStore,
	dispatcher *Dispatcher,
	observer *core.Observer,
) (*Trigger, error) {
	if events == nil {
		return nil, fmt.Errorf("webhooks: event store is required")
	}
	if stores == nil {
		return nil, fmt.Errorf("webhooks: store store is required")
	}
	if integrations == nil {
		return nil, fmt.Errorf("webhooks: integration store is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("webhooks: dispatcher is required")
	}
	return &Trigger{
		events:       events,
		stores:       stores,
		integrations: integrations,
		dispatcher:   dispatcher,
		payload:      NewPayloadBuilder(),
		observer:     observer,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// WithBurstController coalesces rapid duplicate triggers for the same
// store, type, and resource.
func (t *Trigger) WithBurstController(burst BurstController) *Trigger {
	if t != nil {
		t.burst = burst
	}
	return t
}

// WithPayloadBuilder swaps the payload builder, mainly for tests that
// need deterministic ids and timestamps.
func (t *Trigger) WithPayloadBuilder(builder *PayloadBuilder) *Trigger {
	if t != nil && builder != nil {
		t.payload = builder
	}
	return t
}

func (t *Trigger) Trigger(ctx context.Context, req core.TriggerRequest) (core.TriggerResult, error) {
	if t == nil {
		return core.TriggerResult{}, fmt.Errorf("webhooks: trigger is not configured")
	}
	eventType, err := core.ParseEventType(string(req.EventType))
	if err != nil {
		return core.TriggerResult{}, goerrors.New(err.Error(), goerrors.CategoryBadInput)
	}
	req.EventType = eventType

	storeID := strings.TrimSpace(req.StoreID)
	if storeID == "" {
		return core.TriggerResult{}, goerrors.New("webhooks: store id is required", goerrors.CategoryBadInput)
	}
	req.StoreID = storeID

	store, err := t.stores.Get(ctx, storeID)
	if err != nil {
		return core.TriggerResult{}, err
	}

	target, reason := t.resolveTarget(ctx, store)
	if reason != "" {
		t.observer.LogInfo(ctx, "webhook trigger suppressed", map[string]any{
			"event_type": string(eventType),
			"store_id":   storeID,
			"reason":     reason,
		})
		return core.TriggerResult{Reason: reason}, nil
	}

	if category := eventType.Category(); category != "" && !target.WebhooksConfig.Enabled(category) {
		reason = "category " + category + " disabled"
		t.observer.LogInfo(ctx, "webhook trigger suppressed", map[string]any{
			"event_type": string(eventType),
			"store_id":   storeID,
			"reason":     reason,
		})
		return core.TriggerResult{Reason: reason}, nil
	}

	if t.burst != nil {
		decision := t.burst.Allow(ctx, burstKey(req))
		if !decision.Allow {
			return core.TriggerResult{Reason: "coalesced"}, nil
		}
	}

	eventID := t.payload.EventID()
	body, err := t.payload.Build(eventID, req)
	if err != nil {
		return core.TriggerResult{}, err
	}

	now := t.now()
	event := core.WebhookEvent{
		EventID:    eventID,
		EventType:  eventType,
		StoreID:    storeID,
		ClientID:   target.ClientID,
		OrderID:    strings.TrimSpace(req.OrderID),
		Payload:    body,
		WebhookURL: target.WebhookURL,
		Status:     core.EventStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.Delay > 0 {
		// Park the row until the delay elapses. The dispatch goroutine
		// waits the same span, but the claim guard is what keeps an
		// overlapping sweep from delivering early.
		dueAt := now.Add(req.Delay)
		event.NextRetryAt = &dueAt
	}
	created, err := t.events.Create(ctx, event)
	if err != nil {
		return core.TriggerResult{}, err
	}

	if err := t.dispatcher.Dispatch(ctx, created.EventID, req.Delay); err != nil {
		return core.TriggerResult{}, err
	}

	t.observer.LogInfo(ctx, "webhook event triggered", map[string]any{
		"event_id":   created.EventID,
		"event_type": string(eventType),
		"store_id":   storeID,
	})
	return core.TriggerResult{Triggered: true, EventID: created.EventID}, nil
}

// RetryEvent rearms a delivered or failed event for manual redelivery.
// Events that are still pending or mid-attempt are left alone so a
// redelivery request can never race an in-flight claim. The stored
// payload is reused untouched.
func (t *Trigger) RetryEvent(ctx context.Context, eventID string) (core.WebhookEvent, error) {
	if t == nil {
		return core.WebhookEvent{}, fmt.Errorf("webhooks: trigger is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return core.WebhookEvent{}, goerrors.New("webhooks: event id is required", goerrors.CategoryBadInput)
	}
	event, err := t.events.ResetForRetry(ctx, eventID, t.now())
	if err != nil {
		return core.WebhookEvent{}, err
	}
	if err := t.dispatcher.Dispatch(ctx, event.EventID, 0); err != nil {
		return core.WebhookEvent{}, err
	}
	t.observer.LogInfo(ctx, "webhook event requeued", map[string]any{
		"event_id": event.EventID,
	})
	return event, nil
}

// resolveTarget combines the store's callback URL with its integration
// state. A non-empty reason means delivery is configured off.
func (t *Trigger) resolveTarget(ctx context.Context, store core.Store) (core.WebhookTarget, string) {
	if strings.TrimSpace(store.WebhookURL) == "" {
		return core.WebhookTarget{}, "webhook url not configured"
	}

	target := core.WebhookTarget{
		StoreID:    store.StoreID,
		ClientID:   store.ClientID,
		WebhookURL: store.WebhookURL,
		Enabled:    true,
	}

	integration, err := t.integrations.GetByStore(ctx, store.StoreID)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryNotFound {
			return core.WebhookTarget{}, "integration not configured"
		}
		return core.WebhookTarget{}, "integration lookup failed: " + err.Error()
	}
	if !integration.IntegrationEnabled {
		return core.WebhookTarget{}, "integration disabled"
	}
	target.WebhooksConfig = integration.WebhooksConfig
	if strings.TrimSpace(integration.ClientID) != "" {
		target.ClientID = integration.ClientID
	}
	return target, ""
}

func (t *Trigger) now() time.Time {
	if t != nil && t.Now != nil {
		return t.Now().UTC()
	}
	return time.Now().UTC()
}

func burstKey(req core.TriggerRequest) string {
	parts := []string{strings.TrimSpace(req.StoreID), string(req.EventType)}
	if orderID := strings.TrimSpace(req.OrderID); orderID != "" {
		parts = append(parts, orderID)
	}
	return strings.Join(parts, ":")
}
