package webhooks

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/goliatone/go-marketplace/core"
)

func fixedPayloadBuilder(at time.Time, eventID string) *PayloadBuilder {
	return &PayloadBuilder{
		Now:        func() time.Time { return at },
		NewEventID: func() string { return eventID },
	}
}

func TestPayloadBuilder_OrderEvent(t *testing.T) {
	at := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	builder := fixedPayloadBuilder(at, "event_abc12345")

	body, err := builder.Build(builder.EventID(), core.TriggerRequest{
		EventType: core.EventOrderNotification,
		StoreID:   "store_1",
		OrderID:   "order_42",
		Status:    "created",
	})
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded["event_id"] != "event_abc12345" {
		t.Fatalf("unexpected event_id %v", decoded["event_id"])
	}
	if decoded["event_type"] != "orders.notification" {
		t.Fatalf("unexpected event_type %v", decoded["event_type"])
	}
	if int64(decoded["event_time"].(float64)) != at.Unix() {
		t.Fatalf("unexpected event_time %v", decoded["event_time"])
	}
	if decoded["resource_id"] != "order_42" {
		t.Fatalf("unexpected resource_id %v", decoded["resource_id"])
	}
	if decoded["user_id"] != "store_1" {
		t.Fatalf("unexpected user_id %v", decoded["user_id"])
	}
	if decoded["resource_href"] != "/v1/eats/orders/order_42" {
		t.Fatalf("unexpected resource_href %v", decoded["resource_href"])
	}
	meta, ok := decoded["meta"].(map[string]any)
	if !ok || meta["status"] != "created" {
		t.Fatalf("unexpected meta %v", decoded["meta"])
	}
	if meta["user_id"] != "store_1" {
		t.Fatalf("expected meta user_id store_1, got %v", meta["user_id"])
	}
	if meta["resource_id"] != "order_42" {
		t.Fatalf("expected meta resource_id order_42, got %v", meta["resource_id"])
	}
}

func TestPayloadBuilder_StoreEventHasNullHref(t *testing.T) {
	builder := fixedPayloadBuilder(time.Now().UTC(), "event_def67890")

	body, err := builder.Build(builder.EventID(), core.TriggerRequest{
		EventType: core.EventStoreProvisioned,
		StoreID:   "store_9",
	})
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded["resource_href"] != nil {
		t.Fatalf("expected null resource_href, got %v", decoded["resource_href"])
	}
	if decoded["resource_id"] != "store_9" {
		t.Fatalf("expected store id as resource, got %v", decoded["resource_id"])
	}
	meta, ok := decoded["meta"].(map[string]any)
	if !ok {
		t.Fatalf("expected meta block, got %v", decoded["meta"])
	}
	if meta["user_id"] != "store_9" || meta["resource_id"] != "store_9" {
		t.Fatalf("expected meta identifiers for store_9, got %v", meta)
	}
	if _, hasStatus := meta["status"]; hasStatus {
		t.Fatalf("expected no status in meta, got %v", meta["status"])
	}
}

func TestPayloadBuilder_RejectsBadInput(t *testing.T) {
	builder := NewPayloadBuilder()

	if _, err := builder.Build("", core.TriggerRequest{EventType: core.EventOrderCancel, StoreID: "store_1"}); err == nil {
		t.Fatalf("expected missing event id rejection")
	}
	if _, err := builder.Build("event_x", core.TriggerRequest{EventType: "orders.bogus", StoreID: "store_1"}); err == nil {
		t.Fatalf("expected unknown event type rejection")
	}
}

func TestDefaultEventID_Format(t *testing.T) {
	id := DefaultEventID()
	if len(id) != len("event_")+8 {
		t.Fatalf("unexpected event id %q", id)
	}
	if id[:6] != "event_" {
		t.Fatalf("expected event_ prefix, got %q", id)
	}
	if id == DefaultEventID() {
		t.Fatalf("expected unique event ids")
	}
}
