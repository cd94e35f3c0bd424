package webhooks

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-marketplace/core"
)

type eventPayload struct {
	EventID      string         `json:"event_id"`
	EventType    string         `json:"event_type"`
	EventTime    int64          `json:"event_time"`
	ResourceID   string         `json:"resource_id"`
	ResourceHref *string        `json:"resource_href"`
	UserID       string         `json:"user_id"`
	Meta         map[string]any `json:"meta"`
}

// PayloadBuilder renders the canonical notification body. The body is
// serialized once at event creation and stored byte for byte; retries
// never rebuild it.
type PayloadBuilder struct {
	Now        func() time.Time
	NewEventID func() string
}

func NewPayloadBuilder() *PayloadBuilder {
	return &PayloadBuilder{
		Now: func() time.Time {
			return time.Now().UTC()
		},
		NewEventID: DefaultEventID,
	}
}

func DefaultEventID() string {
	return "event_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (b *PayloadBuilder) EventID() string {
	if b != nil && b.NewEventID != nil {
		return b.NewEventID()
	}
	return DefaultEventID()
}

func (b *PayloadBuilder) Build(eventID string, req core.TriggerRequest) ([]byte, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, fmt.Errorf("webhooks: event id is required")
	}
	if !req.EventType.Valid() {
		return nil, fmt.Errorf("webhooks: unknown event type %q", req.EventType)
	}

	resourceID := strings.TrimSpace(req.OrderID)
	if resourceID == "" {
		resourceID = strings.TrimSpace(req.StoreID)
	}

	payload := eventPayload{
		EventID:    eventID,
		EventType:  string(req.EventType),
		EventTime:  b.now().Unix(),
		ResourceID: resourceID,
		UserID:     strings.TrimSpace(req.StoreID),
	}
	if req.EventType.OrderScoped() && strings.TrimSpace(req.OrderID) != "" {
		href := "/v1/eats/orders/" + strings.TrimSpace(req.OrderID)
		payload.ResourceHref = &href
	}

	meta := map[string]any{}
	for key, value := range req.Metadata {
		meta[key] = value
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		meta["status"] = status
	}
	// meta mirrors the envelope identifiers so receivers that only parse
	// the meta block still learn who and what the event is about.
	meta["user_id"] = payload.UserID
	meta["resource_id"] = resourceID
	payload.Meta = meta

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("webhooks: payload encode failed: %w", err)
	}
	return encoded, nil
}

func (b *PayloadBuilder) now() time.Time {
	if b != nil && b.Now != nil {
		return b.Now().UTC()
	}
	return time.Now().UTC()
}
