package webhooks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-marketplace/core"
)

type memoryEventStore struct {
	mu     sync.Mutex
	events map[string]*core.WebhookEvent
}

func newMemoryEventStore() *memoryEventStore {
	return &memoryEventStore{events: map[string]*core.WebhookEvent{}}
}

func (s *memoryEventStore) Create(_ context.Context, event core.WebhookEvent) (core.WebhookEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[event.EventID]; exists {
		return core.WebhookEvent{}, fmt.Errorf("webhooks: event %s already exists", event.EventID)
	}
	stored := event
	s.events[event.EventID] = &stored
	return stored, nil
}

func (s *memoryEventStore) Get(_ context.Context, eventID string) (core.WebhookEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return core.WebhookEvent{}, goerrors.New(
			fmt.Sprintf("webhooks: event %s not found", eventID),
			goerrors.CategoryNotFound,
		)
	}
	return *event, nil
}

func (s *memoryEventStore) List(_ context.Context, filter core.EventFilter) ([]core.WebhookEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.WebhookEvent, 0, len(s.events))
	for _, event := range s.events {
		if filter.Status != "" && event.Status != filter.Status {
			continue
		}
		out = append(out, *event)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *memoryEventStore) Claim(_ context.Context, eventID string, now time.Time, lease time.Duration) (core.WebhookEvent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return core.WebhookEvent{}, false, goerrors.New(
			fmt.Sprintf("webhooks: event %s not found", eventID),
			goerrors.CategoryNotFound,
		)
	}
	if !claimable(event, now) {
		return core.WebhookEvent{}, false, nil
	}
	claim(event, now, lease)
	return *event, true, nil
}

func (s *memoryEventStore) ClaimDue(_ context.Context, now time.Time, lease time.Duration, limit int) ([]core.WebhookEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	due := make([]*core.WebhookEvent, 0)
	for _, event := range s.events {
		if claimable(event, now) {
			due = append(due, event)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	out := make([]core.WebhookEvent, 0, len(due))
	for _, event := range due {
		claim(event, now, lease)
		out = append(out, *event)
	}
	return out, nil
}

func claimable(event *core.WebhookEvent, now time.Time) bool {
	if event.Status.Terminal() {
		return false
	}
	if event.NextRetryAt != nil && event.NextRetryAt.After(now) {
		return false
	}
	return true
}

func claim(event *core.WebhookEvent, now time.Time, lease time.Duration) {
	event.Attempts++
	event.Status = core.EventStatusRetrying
	attemptAt := now
	leaseUntil := now.Add(lease)
	event.LastAttemptAt = &attemptAt
	event.NextRetryAt = &leaseUntil
	event.UpdatedAt = now
}

func (s *memoryEventStore) MarkDelivered(_ context.Context, eventID string, at time.Time) error {
	return s.update(eventID, func(event *core.WebhookEvent) {
		event.Status = core.EventStatusDelivered
		event.NextRetryAt = nil
		event.UpdatedAt = at
	})
}

func (s *memoryEventStore) MarkRetrying(_ context.Context, eventID string, cause string, nextRetryAt time.Time) error {
	return s.update(eventID, func(event *core.WebhookEvent) {
		event.Status = core.EventStatusRetrying
		event.LastError = cause
		next := nextRetryAt
		event.NextRetryAt = &next
		event.UpdatedAt = nextRetryAt
	})
}

func (s *memoryEventStore) MarkFailed(_ context.Context, eventID string, cause string, at time.Time) error {
	return s.update(eventID, func(event *core.WebhookEvent) {
		event.Status = core.EventStatusFailed
		event.LastError = cause
		event.NextRetryAt = nil
		event.UpdatedAt = at
	})
}

func (s *memoryEventStore) ResetForRetry(_ context.Context, eventID string, now time.Time) (core.WebhookEvent, error) {
	var reset core.WebhookEvent
	var busy core.EventStatus
	err := s.update(eventID, func(event *core.WebhookEvent) {
		if !event.Status.Terminal() {
			busy = event.Status
			return
		}
		event.Status = core.EventStatusPending
		event.Attempts = 0
		event.LastError = ""
		event.NextRetryAt = nil
		event.UpdatedAt = now
		reset = *event
	})
	if err != nil {
		return core.WebhookEvent{}, err
	}
	if busy != "" {
		return core.WebhookEvent{}, goerrors.New(
			fmt.Sprintf("webhooks: event %s is %s and cannot be rearmed", eventID, busy),
			goerrors.CategoryConflict,
		)
	}
	return reset, nil
}

func (s *memoryEventStore) update(eventID string, apply func(*core.WebhookEvent)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return goerrors.New(
			fmt.Sprintf("webhooks: event %s not found", eventID),
			goerrors.CategoryNotFound,
		)
	}
	apply(event)
	return nil
}

func (s *memoryEventStore) snapshot(eventID string) core.WebhookEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return core.WebhookEvent{}
	}
	return *event
}

func (s *memoryEventStore) forceDue(eventID string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event, ok := s.events[eventID]; ok {
		past := now.Add(-time.Second)
		event.NextRetryAt = &past
	}
}

type memoryStoreStore struct {
	mu     sync.Mutex
	stores map[string]core.Store
}

func newMemoryStoreStore(stores ...core.Store) *memoryStoreStore {
	out := &memoryStoreStore{stores: map[string]core.Store{}}
	for _, store := range stores {
		out.stores[store.StoreID] = store
	}
	return out
}

func (s *memoryStoreStore) Create(_ context.Context, store core.Store) (core.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores[store.StoreID] = store
	return store, nil
}

func (s *memoryStoreStore) Get(_ context.Context, storeID string) (core.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, ok := s.stores[storeID]
	if !ok {
		return core.Store{}, goerrors.New(
			fmt.Sprintf("webhooks: store %s not found", storeID),
			goerrors.CategoryNotFound,
		)
	}
	return store, nil
}

func (s *memoryStoreStore) List(_ context.Context, clientID string) ([]core.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Store, 0, len(s.stores))
	for _, store := range s.stores {
		if clientID != "" && store.ClientID != clientID {
			continue
		}
		out = append(out, store)
	}
	return out, nil
}

func (s *memoryStoreStore) UpdateStatus(_ context.Context, storeID string, status core.StoreStatus) (core.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	store := s.stores[storeID]
	store.Status = status
	s.stores[storeID] = store
	return store, nil
}

func (s *memoryStoreStore) SetWebhookURL(_ context.Context, storeID string, url string) (core.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	store := s.stores[storeID]
	store.WebhookURL = url
	s.stores[storeID] = store
	return store, nil
}

type memoryIntegrationStore struct {
	mu           sync.Mutex
	integrations map[string]core.StoreIntegration
}

func newMemoryIntegrationStore(integrations ...core.StoreIntegration) *memoryIntegrationStore {
	out := &memoryIntegrationStore{integrations: map[string]core.StoreIntegration{}}
	for _, integration := range integrations {
		out.integrations[integration.StoreID] = integration
	}
	return out
}

func (s *memoryIntegrationStore) Upsert(_ context.Context, in core.UpsertIntegrationInput) (core.StoreIntegration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	integration := core.StoreIntegration{
		StoreID:            in.StoreID,
		ClientID:           in.ClientID,
		IntegrationEnabled: true,
		WebhooksConfig:     in.WebhooksConfig,
	}
	s.integrations[in.StoreID] = integration
	return integration, nil
}

func (s *memoryIntegrationStore) GetByStore(_ context.Context, storeID string) (core.StoreIntegration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	integration, ok := s.integrations[storeID]
	if !ok {
		return core.StoreIntegration{}, goerrors.New(
			fmt.Sprintf("webhooks: integration for store %s not found", storeID),
			goerrors.CategoryNotFound,
		)
	}
	return integration, nil
}

func (s *memoryIntegrationStore) Patch(_ context.Context, storeID string, patch core.IntegrationPatch) (core.StoreIntegration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	integration := s.integrations[storeID]
	if patch.IntegrationEnabled != nil {
		integration.IntegrationEnabled = *patch.IntegrationEnabled
	}
	if patch.WebhooksConfig != nil {
		integration.WebhooksConfig = *patch.WebhooksConfig
	}
	s.integrations[storeID] = integration
	return integration, nil
}

func (s *memoryIntegrationStore) Delete(_ context.Context, storeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.integrations, storeID)
	return nil
}

type staticSecrets map[string]string

func (s staticSecrets) SigningSecret(_ context.Context, clientID string) (string, error) {
	secret, ok := s[clientID]
	if !ok {
		return "", fmt.Errorf("webhooks: no signing secret for client %q", clientID)
	}
	return secret, nil
}

type stubDeliveryClient struct {
	mu        sync.Mutex
	requests  []core.DeliveryRequest
	failTimes int
	status    int
}

func (c *stubDeliveryClient) Deliver(_ context.Context, req core.DeliveryRequest) (core.DeliveryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if c.failTimes != 0 {
		if c.failTimes > 0 {
			c.failTimes--
		}
		status := c.status
		if status == 0 {
			status = 500
		}
		return core.DeliveryResult{StatusCode: status}, fmt.Errorf("webhooks: receiver returned status %d", status)
	}
	return core.DeliveryResult{StatusCode: 200}, nil
}

func (c *stubDeliveryClient) recorded() []core.DeliveryRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.DeliveryRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

func testObserver() *core.Observer {
	return core.NewObserver(nil, core.NopMetricsRecorder{})
}

func seedEvent(s *memoryEventStore, eventID string, payload string) core.WebhookEvent {
	now := time.Now().UTC()
	event := core.WebhookEvent{
		EventID:    eventID,
		EventType:  core.EventOrderNotification,
		StoreID:    "store_1",
		ClientID:   "demo_client_id",
		OrderID:    "order_1",
		Payload:    []byte(payload),
		WebhookURL: "http://pos.example/webhook",
		Status:     core.EventStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	created, err := s.Create(context.Background(), event)
	if err != nil {
		panic(err)
	}
	return created
}

var _ core.EventStore = (*memoryEventStore)(nil)
var _ core.StoreStore = (*memoryStoreStore)(nil)
var _ core.IntegrationStore = (*memoryIntegrationStore)(nil)
var _ core.SecretProvider = staticSecrets(nil)
var _ core.DeliveryClient = (*stubDeliveryClient)(nil)
