package core

import (
	"fmt"
	"strings"
	"time"
)

type EventType string

const (
	EventOrderNotification          EventType = "orders.notification"
	EventOrderScheduledNotification EventType = "orders.scheduled.notification"
	EventOrderRelease               EventType = "orders.release"
	EventOrderStatusUpdate          EventType = "orders.status_update"
	EventOrderCancel                EventType = "orders.cancel"
	EventDeliveryStateChanged       EventType = "delivery.state_changed"
	EventStoreProvisioned           EventType = "store.provisioned"
	EventStoreDeprovisioned         EventType = "store.deprovisioned"
)

const (
	CategoryOrderRelease   = "order_release_webhooks"
	CategoryScheduledOrder = "schedule_order_webhooks"
	CategoryDeliveryStatus = "delivery_status_webhooks"
)

func EventTypes() []EventType {
	return []EventType{
		EventOrderNotification,
		EventOrderScheduledNotification,
		EventOrderRelease,
		EventOrderStatusUpdate,
		EventOrderCancel,
		EventDeliveryStateChanged,
		EventStoreProvisioned,
		EventStoreDeprovisioned,
	}
}

func ParseEventType(value string) (EventType, error) {
	trimmed := EventType(strings.TrimSpace(value))
	for _, known := range EventTypes() {
		if trimmed == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("core: unknown event type %q", value)
}

func (t EventType) Valid() bool {
	_, err := ParseEventType(string(t))
	return err == nil
}

// Category returns the per-store enablement category guarding this event
// type, or "" for types that are always delivered.
func (t EventType) Category() string {
	switch t {
	case EventOrderRelease:
		return CategoryOrderRelease
	case EventOrderScheduledNotification:
		return CategoryScheduledOrder
	case EventDeliveryStateChanged:
		return CategoryDeliveryStatus
	default:
		return ""
	}
}

// OrderScoped reports whether events of this type carry an order id as
// their resource.
func (t EventType) OrderScoped() bool {
	switch t {
	case EventStoreProvisioned, EventStoreDeprovisioned:
		return false
	default:
		return true
	}
}

type EventStatus string

const (
	EventStatusPending   EventStatus = "pending"
	EventStatusRetrying  EventStatus = "retrying"
	EventStatusDelivered EventStatus = "delivered"
	EventStatusFailed    EventStatus = "failed"
)

func ParseEventStatus(value string) (EventStatus, error) {
	switch EventStatus(strings.TrimSpace(strings.ToLower(value))) {
	case EventStatusPending:
		return EventStatusPending, nil
	case EventStatusRetrying:
		return EventStatusRetrying, nil
	case EventStatusDelivered:
		return EventStatusDelivered, nil
	case EventStatusFailed:
		return EventStatusFailed, nil
	}
	return "", fmt.Errorf("core: unknown event status %q", value)
}

func (s EventStatus) Terminal() bool {
	return s == EventStatusDelivered || s == EventStatusFailed
}

// WebhookEvent is one outbound notification instance. Payload and
// WebhookURL are captured at creation time so every retry sends
// byte-identical content to the destination the event was queued for.
type WebhookEvent struct {
	EventID       string
	EventType     EventType
	StoreID       string
	ClientID      string
	OrderID       string
	Payload       []byte
	WebhookURL    string
	Status        EventStatus
	Attempts      int
	LastError     string
	LastAttemptAt *time.Time
	NextRetryAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CategoryFlag struct {
	IsEnabled bool `json:"is_enabled"`
}

// WebhookCategories is the per-integration category enablement map. A
// category that is absent is enabled; only an explicit is_enabled=false
// suppresses delivery.
type WebhookCategories map[string]CategoryFlag

func (c WebhookCategories) Enabled(category string) bool {
	category = strings.TrimSpace(category)
	if category == "" {
		return true
	}
	flag, ok := c[category]
	if !ok {
		return true
	}
	return flag.IsEnabled
}

type StoreIntegration struct {
	ID                      string
	StoreID                 string
	ClientID                string
	IntegratorStoreID       string
	IntegratorBrandID       string
	MerchantStoreID         string
	IsOrderManager          bool
	RequireManualAcceptance bool
	IntegrationEnabled      bool
	StoreConfigurationData  string
	WebhooksConfig          WebhookCategories
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// WebhookTarget is the resolved delivery destination for one store: the
// callback URL from the store record combined with the integration's
// enablement state.
type WebhookTarget struct {
	StoreID        string
	ClientID       string
	WebhookURL     string
	Enabled        bool
	WebhooksConfig WebhookCategories
}

type StoreStatus string

const (
	StoreStatusOnline  StoreStatus = "online"
	StoreStatusOffline StoreStatus = "offline"
	StoreStatusPaused  StoreStatus = "paused"
)

type Store struct {
	StoreID    string
	ClientID   string
	Name       string
	Status     StoreStatus
	WebhookURL string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusDenied    OrderStatus = "denied"
	OrderStatusReleased  OrderStatus = "released"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type Order struct {
	OrderID   string
	StoreID   string
	Status    OrderStatus
	Data      map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Client struct {
	ClientID     string
	ClientSecret string
}

type AccessToken struct {
	Token     string
	ClientID  string
	GrantType string
	Scope     string
	ExpiresAt time.Time
}

// HasScope checks a space-delimited OAuth scope grant for one scope.
func (t AccessToken) HasScope(scope string) bool {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return true
	}
	for _, granted := range strings.Fields(t.Scope) {
		if granted == scope {
			return true
		}
	}
	return false
}

type TriggerRequest struct {
	EventType EventType
	StoreID   string
	OrderID   string
	Status    string
	Metadata  map[string]any
	// Delay models marketplace-side latency before the first delivery
	// attempt. It never blocks the caller.
	Delay time.Duration
}

// TriggerResult reports whether an event row was created. Triggered=false
// with a Reason is the expected steady state for stores without a
// configured or enabled integration, not an error.
type TriggerResult struct {
	Triggered bool
	EventID   string
	Reason    string
}

type EventFilter struct {
	Status EventStatus
	Limit  int
}

type DeliveryRequest struct {
	URL       string
	Payload   []byte
	Signature string
}

type DeliveryResult struct {
	StatusCode int
}

type UpsertIntegrationInput struct {
	StoreID                 string
	ClientID                string
	IntegratorStoreID       string
	IntegratorBrandID       string
	MerchantStoreID         string
	IsOrderManager          bool
	RequireManualAcceptance bool
	StoreConfigurationData  string
	WebhooksConfig          WebhookCategories
}

// IntegrationPatch is a typed partial update: only non-nil fields are
// applied, column by column.
type IntegrationPatch struct {
	IntegratorStoreID       *string
	IntegratorBrandID       *string
	MerchantStoreID         *string
	IsOrderManager          *bool
	RequireManualAcceptance *bool
	IntegrationEnabled      *bool
	StoreConfigurationData  *string
	WebhooksConfig          *WebhookCategories
}

func (p IntegrationPatch) Empty() bool {
	return p.IntegratorStoreID == nil &&
		p.IntegratorBrandID == nil &&
		p.MerchantStoreID == nil &&
		p.IsOrderManager == nil &&
		p.RequireManualAcceptance == nil &&
		p.IntegrationEnabled == nil &&
		p.StoreConfigurationData == nil &&
		p.WebhooksConfig == nil
}

type CreateOrderInput struct {
	StoreID      string
	CustomerName string
	Total        float64
	Scheduled    bool
	Data         map[string]any
}

type SweepStats struct {
	Claimed   int
	Delivered int
	Retried   int
	Failed    int
	Errors    int
}
