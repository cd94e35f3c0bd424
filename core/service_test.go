package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type recordingTrigger struct {
	requests []TriggerRequest
	retried  []string
}

func (t *recordingTrigger) Trigger(_ context.Context, req TriggerRequest) (TriggerResult, error) {
	t.requests = append(t.requests, req)
	return TriggerResult{Triggered: true, EventID: fmt.Sprintf("event_%d", len(t.requests))}, nil
}

func (t *recordingTrigger) RetryEvent(_ context.Context, eventID string) (WebhookEvent, error) {
	t.retried = append(t.retried, eventID)
	return WebhookEvent{EventID: eventID, Status: EventStatusPending}, nil
}

type fakeStoreStore struct {
	stores map[string]Store
}

func (s *fakeStoreStore) Create(_ context.Context, store Store) (Store, error) {
	s.stores[store.StoreID] = store
	return store, nil
}

func (s *fakeStoreStore) Get(_ context.Context, storeID string) (Store, error) {
	store, ok := s.stores[storeID]
	if !ok {
		return Store{}, goerrors.New(
			fmt.Sprintf("store %s not found", storeID),
			goerrors.CategoryNotFound,
		)
	}
	return store, nil
}

func (s *fakeStoreStore) List(_ context.Context, clientID string) ([]Store, error) {
	var out []Store
	for _, store := range s.stores {
		if clientID == "" || store.ClientID == clientID {
			out = append(out, store)
		}
	}
	return out, nil
}

func (s *fakeStoreStore) UpdateStatus(ctx context.Context, storeID string, status StoreStatus) (Store, error) {
	store, err := s.Get(ctx, storeID)
	if err != nil {
		return Store{}, err
	}
	store.Status = status
	s.stores[storeID] = store
	return store, nil
}

func (s *fakeStoreStore) SetWebhookURL(ctx context.Context, storeID string, url string) (Store, error) {
	store, err := s.Get(ctx, storeID)
	if err != nil {
		return Store{}, err
	}
	store.WebhookURL = url
	s.stores[storeID] = store
	return store, nil
}

type fakeOrderStore struct {
	orders map[string]Order
	serial int
}

func (s *fakeOrderStore) Create(_ context.Context, in CreateOrderInput) (Order, error) {
	s.serial++
	order := Order{
		OrderID: fmt.Sprintf("order_%d", s.serial),
		StoreID: in.StoreID,
		Status:  OrderStatusPending,
	}
	s.orders[order.OrderID] = order
	return order, nil
}

func (s *fakeOrderStore) Get(_ context.Context, orderID string) (Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return Order{}, goerrors.New(
			fmt.Sprintf("order %s not found", orderID),
			goerrors.CategoryNotFound,
		)
	}
	return order, nil
}

func (s *fakeOrderStore) List(_ context.Context, storeID string, _ int) ([]Order, error) {
	var out []Order
	for _, order := range s.orders {
		if storeID == "" || order.StoreID == storeID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (s *fakeOrderStore) UpdateStatus(ctx context.Context, orderID string, status OrderStatus) (Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	order.Status = status
	s.orders[orderID] = order
	return order, nil
}

type fakeIntegrationStore struct {
	integrations map[string]StoreIntegration
	deleted      []string
}

func (s *fakeIntegrationStore) Upsert(_ context.Context, in UpsertIntegrationInput) (StoreIntegration, error) {
	integration := StoreIntegration{
		StoreID:            in.StoreID,
		ClientID:           in.ClientID,
		IntegrationEnabled: true,
		WebhooksConfig:     in.WebhooksConfig,
	}
	s.integrations[in.StoreID] = integration
	return integration, nil
}

func (s *fakeIntegrationStore) GetByStore(_ context.Context, storeID string) (StoreIntegration, error) {
	integration, ok := s.integrations[storeID]
	if !ok {
		return StoreIntegration{}, goerrors.New(
			fmt.Sprintf("integration for store %s not found", storeID),
			goerrors.CategoryNotFound,
		)
	}
	return integration, nil
}

func (s *fakeIntegrationStore) Patch(ctx context.Context, storeID string, patch IntegrationPatch) (StoreIntegration, error) {
	integration, err := s.GetByStore(ctx, storeID)
	if err != nil {
		return StoreIntegration{}, err
	}
	if patch.IntegrationEnabled != nil {
		integration.IntegrationEnabled = *patch.IntegrationEnabled
	}
	if patch.WebhooksConfig != nil {
		integration.WebhooksConfig = *patch.WebhooksConfig
	}
	s.integrations[storeID] = integration
	return integration, nil
}

func (s *fakeIntegrationStore) Delete(_ context.Context, storeID string) error {
	delete(s.integrations, storeID)
	s.deleted = append(s.deleted, storeID)
	return nil
}

type fakeProvider struct {
	storeStore       *fakeStoreStore
	orderStore       *fakeOrderStore
	integrationStore *fakeIntegrationStore
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		storeStore:       &fakeStoreStore{stores: map[string]Store{}},
		orderStore:       &fakeOrderStore{orders: map[string]Order{}},
		integrationStore: &fakeIntegrationStore{integrations: map[string]StoreIntegration{}},
	}
}

func (p *fakeProvider) EventStore() EventStore             { return nil }
func (p *fakeProvider) IntegrationStore() IntegrationStore { return p.integrationStore }
func (p *fakeProvider) StoreStore() StoreStore             { return p.storeStore }
func (p *fakeProvider) OrderStore() OrderStore             { return p.orderStore }
func (p *fakeProvider) TokenStore() TokenStore             { return nil }
func (p *fakeProvider) ClientStore() ClientStore           { return nil }

func newServiceFixture(t *testing.T) (*Service, *fakeProvider, *recordingTrigger) {
	t.Helper()
	provider := newFakeProvider()
	trigger := &recordingTrigger{}
	service, err := NewService(provider, trigger, NewObserver(nil, nil))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	provider.storeStore.stores["store_1"] = Store{
		StoreID:  "store_1",
		ClientID: "demo_client_id",
		Name:     "Demo Store",
		Status:   StoreStatusOnline,
	}
	provider.storeStore.stores["store_2"] = Store{
		StoreID:  "store_2",
		ClientID: "demo_client_id",
		Name:     "Second Store",
		Status:   StoreStatusOnline,
	}
	return service, provider, trigger
}

func TestConfigureWebhookUpdatesAllClientStores(t *testing.T) {
	service, provider, _ := newServiceFixture(t)

	updated, err := service.ConfigureWebhook(context.Background(), "demo_client_id", "https://pos.example.com/hook")
	if err != nil {
		t.Fatalf("ConfigureWebhook: %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("expected 2 updated stores, got %d", len(updated))
	}
	for id, store := range provider.storeStore.stores {
		if store.WebhookURL != "https://pos.example.com/hook" {
			t.Fatalf("store %s url not updated: %q", id, store.WebhookURL)
		}
	}
}

func TestConfigureWebhookValidatesInput(t *testing.T) {
	service, _, _ := newServiceFixture(t)
	if _, err := service.ConfigureWebhook(context.Background(), "", "https://pos.example.com"); err == nil {
		t.Fatal("expected missing client id rejection")
	}
	if _, err := service.ConfigureWebhook(context.Background(), "demo_client_id", " "); err == nil {
		t.Fatal("expected missing url rejection")
	}
}

func TestActivateIntegrationFiresProvisioned(t *testing.T) {
	service, provider, trigger := newServiceFixture(t)

	integration, err := service.ActivateIntegration(context.Background(), UpsertIntegrationInput{
		StoreID:  "store_1",
		ClientID: "demo_client_id",
	})
	if err != nil {
		t.Fatalf("ActivateIntegration: %v", err)
	}
	if !integration.IntegrationEnabled {
		t.Fatal("expected integration enabled on activation")
	}
	if len(trigger.requests) != 1 || trigger.requests[0].EventType != EventStoreProvisioned {
		t.Fatalf("expected store.provisioned trigger, got %+v", trigger.requests)
	}
	if _, ok := provider.integrationStore.integrations["store_1"]; !ok {
		t.Fatal("expected integration persisted")
	}
}

func TestActivateIntegrationUnknownStore(t *testing.T) {
	service, _, trigger := newServiceFixture(t)
	_, err := service.ActivateIntegration(context.Background(), UpsertIntegrationInput{
		StoreID:  "missing",
		ClientID: "demo_client_id",
	})
	if err == nil {
		t.Fatal("expected unknown store rejection")
	}
	if len(trigger.requests) != 0 {
		t.Fatalf("expected no trigger, got %+v", trigger.requests)
	}
}

func TestRemoveIntegrationTriggersBeforeDelete(t *testing.T) {
	service, provider, trigger := newServiceFixture(t)
	if _, err := service.ActivateIntegration(context.Background(), UpsertIntegrationInput{
		StoreID:  "store_1",
		ClientID: "demo_client_id",
	}); err != nil {
		t.Fatalf("ActivateIntegration: %v", err)
	}

	if err := service.RemoveIntegration(context.Background(), "store_1"); err != nil {
		t.Fatalf("RemoveIntegration: %v", err)
	}
	if len(trigger.requests) != 2 || trigger.requests[1].EventType != EventStoreDeprovisioned {
		t.Fatalf("expected store.deprovisioned trigger, got %+v", trigger.requests)
	}
	if len(provider.integrationStore.deleted) != 1 {
		t.Fatal("expected integration removed")
	}
	if err := service.RemoveIntegration(context.Background(), "store_1"); err == nil {
		t.Fatal("expected missing integration rejection on second removal")
	}
}

func TestSimulateOrderPicksNotificationChannel(t *testing.T) {
	service, _, trigger := newServiceFixture(t)

	order, result, err := service.SimulateOrder(context.Background(), CreateOrderInput{StoreID: "store_1"})
	if err != nil {
		t.Fatalf("SimulateOrder: %v", err)
	}
	if order.Status != OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if !result.Triggered {
		t.Fatal("expected trigger result")
	}
	if trigger.requests[0].EventType != EventOrderNotification {
		t.Fatalf("expected orders.notification, got %s", trigger.requests[0].EventType)
	}

	if _, _, err := service.SimulateOrder(context.Background(), CreateOrderInput{
		StoreID:   "store_1",
		Scheduled: true,
	}); err != nil {
		t.Fatalf("SimulateOrder scheduled: %v", err)
	}
	if trigger.requests[1].EventType != EventOrderScheduledNotification {
		t.Fatalf("expected orders.scheduled.notification, got %s", trigger.requests[1].EventType)
	}
}

func TestOrderTransitionsFireStatusEvents(t *testing.T) {
	service, provider, trigger := newServiceFixture(t)
	order, _, err := service.SimulateOrder(context.Background(), CreateOrderInput{StoreID: "store_1"})
	if err != nil {
		t.Fatalf("SimulateOrder: %v", err)
	}

	accepted, _, err := service.AcceptOrder(context.Background(), order.OrderID)
	if err != nil {
		t.Fatalf("AcceptOrder: %v", err)
	}
	if accepted.Status != OrderStatusAccepted {
		t.Fatalf("expected accepted, got %s", accepted.Status)
	}

	denied, _, err := service.DenyOrder(context.Background(), order.OrderID, "out of stock")
	if err != nil {
		t.Fatalf("DenyOrder: %v", err)
	}
	if denied.Status != OrderStatusDenied {
		t.Fatalf("expected denied, got %s", denied.Status)
	}

	last := trigger.requests[len(trigger.requests)-1]
	if last.EventType != EventOrderStatusUpdate {
		t.Fatalf("expected orders.status_update, got %s", last.EventType)
	}
	if last.Metadata["reason"] != "out of stock" {
		t.Fatalf("expected denial reason in metadata, got %+v", last.Metadata)
	}

	if _, _, err := service.ReleaseOrder(context.Background(), order.OrderID); err != nil {
		t.Fatalf("ReleaseOrder: %v", err)
	}
	if trigger.requests[len(trigger.requests)-1].EventType != EventOrderRelease {
		t.Fatal("expected orders.release trigger")
	}
	if provider.orderStore.orders[order.OrderID].Status != OrderStatusReleased {
		t.Fatal("expected released order status")
	}

	if _, _, err := service.CancelOrder(context.Background(), order.OrderID); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if trigger.requests[len(trigger.requests)-1].EventType != EventOrderCancel {
		t.Fatal("expected orders.cancel trigger")
	}
}

func TestUpdateDeliveryState(t *testing.T) {
	service, _, trigger := newServiceFixture(t)
	order, _, err := service.SimulateOrder(context.Background(), CreateOrderInput{StoreID: "store_1"})
	if err != nil {
		t.Fatalf("SimulateOrder: %v", err)
	}

	if _, err := service.UpdateDeliveryState(context.Background(), order.OrderID, "en_route"); err != nil {
		t.Fatalf("UpdateDeliveryState: %v", err)
	}
	last := trigger.requests[len(trigger.requests)-1]
	if last.EventType != EventDeliveryStateChanged || last.Status != "en_route" {
		t.Fatalf("expected delivery.state_changed with status, got %+v", last)
	}

	if _, err := service.UpdateDeliveryState(context.Background(), order.OrderID, " "); err == nil {
		t.Fatal("expected missing state rejection")
	}
	if _, err := service.UpdateDeliveryState(context.Background(), "missing", "en_route"); err == nil {
		t.Fatal("expected unknown order rejection")
	}
}

func TestSetStoreStatusValidatesStatus(t *testing.T) {
	service, _, _ := newServiceFixture(t)
	store, err := service.SetStoreStatus(context.Background(), "store_1", StoreStatusPaused)
	if err != nil {
		t.Fatalf("SetStoreStatus: %v", err)
	}
	if store.Status != StoreStatusPaused {
		t.Fatalf("expected paused, got %s", store.Status)
	}
	if _, err := service.SetStoreStatus(context.Background(), "store_1", "unknown"); err == nil {
		t.Fatal("expected unknown status rejection")
	}
}

func TestServiceClockDefaultsToUTC(t *testing.T) {
	service, _, _ := newServiceFixture(t)
	service.Now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("x", 3600)) }
	if service.now().Location() != time.UTC {
		t.Fatal("expected UTC normalized clock")
	}
}
