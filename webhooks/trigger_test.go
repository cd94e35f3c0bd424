package webhooks

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-marketplace/core"
)

type triggerFixture struct {
	events       *memoryEventStore
	stores       *memoryStoreStore
	integrations *memoryIntegrationStore
	client       *stubDeliveryClient
	dispatcher   *Dispatcher
	trigger      *Trigger
}

func newTriggerFixture(t *testing.T, integrations ...core.StoreIntegration) *triggerFixture {
	t.Helper()
	events := newMemoryEventStore()
	stores := newMemoryStoreStore(core.Store{
		StoreID:    "store_1",
		ClientID:   "demo_client_id",
		Name:       "Demo Pizza",
		Status:     core.StoreStatusOnline,
		WebhookURL: "http://pos.example/webhook",
	})
	integrationStore := newMemoryIntegrationStore(integrations...)
	client := &stubDeliveryClient{}
	dispatcher := newTestDispatcher(t, events, client, fastPolicy())
	trigger, err := NewTrigger(events, stores, integrationStore, dispatcher, testObserver())
	if err != nil {
		t.Fatalf("new trigger: %v", err)
	}
	return &triggerFixture{
		events:       events,
		stores:       stores,
		integrations: integrationStore,
		client:       client,
		dispatcher:   dispatcher,
		trigger:      trigger,
	}
}

func enabledIntegration() core.StoreIntegration {
	return core.StoreIntegration{
		StoreID:            "store_1",
		ClientID:           "demo_client_id",
		IntegrationEnabled: true,
	}
}

func TestTrigger_CreatesAndDeliversEvent(t *testing.T) {
	fx := newTriggerFixture(t, enabledIntegration())

	result, err := fx.trigger.Trigger(context.Background(), core.TriggerRequest{
		EventType: core.EventOrderNotification,
		StoreID:   "store_1",
		OrderID:   "order_42",
		Status:    "created",
	})
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if !result.Triggered || result.EventID == "" {
		t.Fatalf("expected triggered result, got %+v", result)
	}
	fx.dispatcher.DrainWait()

	stored := fx.events.snapshot(result.EventID)
	if stored.Status != core.EventStatusDelivered {
		t.Fatalf("expected delivered, got %q (%s)", stored.Status, stored.LastError)
	}
	if stored.WebhookURL != "http://pos.example/webhook" {
		t.Fatalf("expected captured webhook url, got %q", stored.WebhookURL)
	}
	if stored.ClientID != "demo_client_id" {
		t.Fatalf("expected client id captured, got %q", stored.ClientID)
	}

	var payload map[string]any
	if err := json.Unmarshal(stored.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["event_type"] != "orders.notification" || payload["resource_id"] != "order_42" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestTrigger_DisabledCategoryCreatesNothing(t *testing.T) {
	integration := enabledIntegration()
	integration.WebhooksConfig = core.WebhookCategories{
		core.CategoryOrderRelease: {IsEnabled: false},
	}
	fx := newTriggerFixture(t, integration)

	result, err := fx.trigger.Trigger(context.Background(), core.TriggerRequest{
		EventType: core.EventOrderRelease,
		StoreID:   "store_1",
		OrderID:   "order_42",
	})
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if result.Triggered {
		t.Fatalf("expected suppression for disabled category")
	}
	if result.Reason == "" {
		t.Fatalf("expected suppression reason")
	}

	listed, err := fx.events.List(context.Background(), core.EventFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected no event rows, got %d", len(listed))
	}
}

func TestTrigger_AbsentCategoryDefaultsEnabled(t *testing.T) {
	integration := enabledIntegration()
	integration.WebhooksConfig = core.WebhookCategories{
		core.CategoryOrderRelease: {IsEnabled: false},
	}
	fx := newTriggerFixture(t, integration)

	result, err := fx.trigger.Trigger(context.Background(), core.TriggerRequest{
		EventType: core.EventOrderScheduledNotification,
		StoreID:   "store_1",
		OrderID:   "order_43",
	})
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if !result.Triggered {
		t.Fatalf("expected absent category to trigger, got reason %q", result.Reason)
	}
	fx.dispatcher.DrainWait()
}

func TestTrigger_UngatedTypesIgnoreCategoryConfig(t *testing.T) {
	integration := enabledIntegration()
	integration.WebhooksConfig = core.WebhookCategories{
		core.CategoryOrderRelease:   {IsEnabled: false},
		core.CategoryScheduledOrder: {IsEnabled: false},
		core.CategoryDeliveryStatus: {IsEnabled: false},
	}
	fx := newTriggerFixture(t, integration)

	result, err := fx.trigger.Trigger(context.Background(), core.TriggerRequest{
		EventType: core.EventOrderCancel,
		StoreID:   "store_1",
		OrderID:   "order_44",
	})
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if !result.Triggered {
		t.Fatalf("expected ungated type to trigger, got reason %q", result.Reason)
	}
	fx.dispatcher.DrainWait()
}

func TestTrigger_NoIntegrationIsSilentNoop(t *testing.T) {
	fx := newTriggerFixture(t)

	result, err := fx.trigger.Trigger(context.Background(), core.TriggerRequest{
		EventType: core.EventOrderNotification,
		StoreID:   "store_1",
		OrderID:   "order_42",
	})
	if err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if result.Triggered {
		t.Fatalf("expected no trigger without integration")
	}
	if result.Reason != "integration not configured" {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
}

func TestTrigger_DisabledIntegrationIsSilentNoop(t *testing.T) {
	integration := enabledIntegration()
	integration.IntegrationEnabled = false
	fx := newTriggerFixture(t, integration)

	result, err := fx.trigger.Trigger(context.Background(), core.TriggerRequest{
		EventType: core.EventOrderNotification,
		StoreID:   "store_1",
	})
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if result.Triggered || result.Reason != "integration disabled" {
		t.Fatalf("expected disabled integration suppression, got %+v", result)
	}
}

func TestTrigger_MissingWebhookURLIsSilentNoop(t *testing.T) {
	fx := newTriggerFixture(t, enabledIntegration())
	if _, err := fx.stores.SetWebhookURL(context.Background(), "store_1", ""); err != nil {
		t.Fatalf("clear webhook url: %v", err)
	}

	result, err := fx.trigger.Trigger(context.Background(), core.TriggerRequest{
		EventType: core.EventOrderNotification,
		StoreID:   "store_1",
	})
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if result.Triggered || result.Reason != "webhook url not configured" {
		t.Fatalf("expected missing url suppression, got %+v", result)
	}
}

func TestTrigger_UnknownStoreFails(t *testing.T) {
	fx := newTriggerFixture(t, enabledIntegration())

	_, err := fx.trigger.Trigger(context.Background(), core.TriggerRequest{
		EventType: core.EventOrderNotification,
		StoreID:   "store_missing",
	})
	if err == nil {
		t.Fatalf("expected unknown store error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.Category != goerrors.CategoryNotFound {
		t.Fatalf("expected not found category, got %v", err)
	}
}

func TestTrigger_RejectsUnknownEventType(t *testing.T) {
	fx := newTriggerFixture(t, enabledIntegration())

	_, err := fx.trigger.Trigger(context.Background(), core.TriggerRequest{
		EventType: "orders.bogus",
		StoreID:   "store_1",
	})
	if err == nil {
		t.Fatalf("expected unknown event type rejection")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.Category != goerrors.CategoryBadInput {
		t.Fatalf("expected bad input category, got %v", err)
	}
}

func TestTrigger_DelayDoesNotBlockCaller(t *testing.T) {
	fx := newTriggerFixture(t, enabledIntegration())

	start := time.Now()
	result, err := fx.trigger.Trigger(context.Background(), core.TriggerRequest{
		EventType: core.EventOrderNotification,
		StoreID:   "store_1",
		OrderID:   "order_42",
		Delay:     40 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Fatalf("trigger blocked for %s", elapsed)
	}
	if !result.Triggered {
		t.Fatalf("expected event created before delay elapses")
	}
	if fx.events.snapshot(result.EventID).Status != core.EventStatusPending {
		t.Fatalf("expected pending while delay runs")
	}

	fx.dispatcher.DrainWait()
	if fx.events.snapshot(result.EventID).Status != core.EventStatusDelivered {
		t.Fatalf("expected delivery after delay")
	}
}

func TestTrigger_ManualRetryReusesStoredPayload(t *testing.T) {
	fx := newTriggerFixture(t, enabledIntegration())
	fx.client.failTimes = -1

	result, err := fx.trigger.Trigger(context.Background(), core.TriggerRequest{
		EventType: core.EventOrderNotification,
		StoreID:   "store_1",
		OrderID:   "order_42",
	})
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	fx.dispatcher.DrainWait()

	failed := fx.events.snapshot(result.EventID)
	if failed.Status != core.EventStatusFailed {
		t.Fatalf("expected failed event, got %q", failed.Status)
	}

	fx.client.mu.Lock()
	fx.client.failTimes = 0
	fx.client.mu.Unlock()

	retried, err := fx.trigger.RetryEvent(context.Background(), result.EventID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if string(retried.Payload) != string(failed.Payload) {
		t.Fatalf("expected payload unchanged across manual retry")
	}
	fx.dispatcher.DrainWait()

	final := fx.events.snapshot(result.EventID)
	if final.Status != core.EventStatusDelivered {
		t.Fatalf("expected delivery after manual retry, got %q", final.Status)
	}
	requests := fx.client.recorded()
	last := requests[len(requests)-1]
	if string(last.Payload) != string(failed.Payload) {
		t.Fatalf("expected retry to send the stored payload")
	}
}

func TestTrigger_ManualRetryRefusedWhileInFlight(t *testing.T) {
	fx := newTriggerFixture(t, enabledIntegration())

	pending := seedEvent(fx.events, "event_pending", `{"k":"v"}`)
	var conflict *goerrors.Error
	if _, err := fx.trigger.RetryEvent(context.Background(), pending.EventID); !goerrors.As(err, &conflict) || conflict.Category != goerrors.CategoryConflict {
		t.Fatalf("expected conflict for pending event, got %v", err)
	}

	claimed := seedEvent(fx.events, "event_claimed", `{"k":"v"}`)
	if _, ok, err := fx.events.Claim(context.Background(), claimed.EventID, time.Now().UTC(), time.Minute); err != nil || !ok {
		t.Fatalf("claim: ok=%v err=%v", ok, err)
	}
	if _, err := fx.trigger.RetryEvent(context.Background(), claimed.EventID); !goerrors.As(err, &conflict) || conflict.Category != goerrors.CategoryConflict {
		t.Fatalf("expected conflict for claimed event, got %v", err)
	}
	if got := fx.events.snapshot(claimed.EventID); got.Status != core.EventStatusRetrying || got.Attempts != 1 {
		t.Fatalf("expected claim left untouched, got %#v", got)
	}
	if len(fx.client.recorded()) != 0 {
		t.Fatalf("expected no redelivery of an owned attempt")
	}
}

func TestTrigger_DelayedEventParksRowUntilDue(t *testing.T) {
	fx := newTriggerFixture(t, enabledIntegration())

	const delay = 150 * time.Millisecond
	start := time.Now().UTC()
	result, err := fx.trigger.Trigger(context.Background(), core.TriggerRequest{
		EventType: core.EventOrderNotification,
		StoreID:   "store_1",
		OrderID:   "order_42",
		Delay:     delay,
	})
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}

	stored := fx.events.snapshot(result.EventID)
	if stored.NextRetryAt == nil {
		t.Fatalf("expected the delay recorded on the row")
	}
	if stored.NextRetryAt.Before(start.Add(delay)) {
		t.Fatalf("expected due at or after %s, got %s", start.Add(delay), stored.NextRetryAt)
	}

	claimed, err := fx.events.ClaimDue(context.Background(), start, time.Minute, 10)
	if err != nil {
		t.Fatalf("claim due: %v", err)
	}
	if len(claimed) != 0 {
		t.Fatalf("expected no claimable rows before the delay elapses, got %d", len(claimed))
	}
	if len(fx.client.recorded()) != 0 {
		t.Fatalf("expected no delivery before the delay elapses")
	}

	fx.dispatcher.DrainWait()
	if fx.events.snapshot(result.EventID).Status != core.EventStatusDelivered {
		t.Fatalf("expected delivery after the delay")
	}
}

func TestTrigger_ManualRetryUnknownEvent(t *testing.T) {
	fx := newTriggerFixture(t, enabledIntegration())

	_, err := fx.trigger.RetryEvent(context.Background(), "event_missing")
	if err == nil {
		t.Fatalf("expected unknown event error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.Category != goerrors.CategoryNotFound {
		t.Fatalf("expected not found category, got %v", err)
	}
}

func TestTrigger_BurstControllerCoalesces(t *testing.T) {
	fx := newTriggerFixture(t, enabledIntegration())
	fx.trigger.WithBurstController(NewBurstController(BurstOptions{
		Mode:   BurstModeCoalesce,
		Window: time.Minute,
	}))

	first, err := fx.trigger.Trigger(context.Background(), core.TriggerRequest{
		EventType: core.EventOrderNotification,
		StoreID:   "store_1",
		OrderID:   "order_42",
	})
	if err != nil || !first.Triggered {
		t.Fatalf("expected first trigger to pass: %+v %v", first, err)
	}

	second, err := fx.trigger.Trigger(context.Background(), core.TriggerRequest{
		EventType: core.EventOrderNotification,
		StoreID:   "store_1",
		OrderID:   "order_42",
	})
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if second.Triggered || second.Reason != "coalesced" {
		t.Fatalf("expected coalesced duplicate, got %+v", second)
	}

	other, err := fx.trigger.Trigger(context.Background(), core.TriggerRequest{
		EventType: core.EventOrderNotification,
		StoreID:   "store_1",
		OrderID:   "order_43",
	})
	if err != nil || !other.Triggered {
		t.Fatalf("expected different order to pass: %+v %v", other, err)
	}
	fx.dispatcher.DrainWait()
}
