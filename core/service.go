package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Service orchestrates the marketplace mock: store and order lifecycle,
// POS integration provisioning, and the webhook surface. Every mutation
// that the marketplace would notify a POS about funnels through the
// configured EventTrigger.
type Service struct {
	stores   StoreProvider
	trigger  EventTrigger
	observer *Observer

	Now func() time.Time
}

func NewService(stores StoreProvider, trigger EventTrigger, observer *Observer) (*Service, error) {
	if stores == nil {
		return nil, fmt.Errorf("core: store provider is required")
	}
	if trigger == nil {
		return nil, fmt.Errorf("core: event trigger is required")
	}
	if observer == nil {
		observer = NewObserver(nil, nil)
	}
	return &Service{
		stores:   stores,
		trigger:  trigger,
		observer: observer,
		Now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Service) TriggerEvent(ctx context.Context, req TriggerRequest) (TriggerResult, error) {
	if s == nil || s.trigger == nil {
		return TriggerResult{}, fmt.Errorf("core: service is not configured")
	}
	startedAt := s.now()
	result, err := s.trigger.Trigger(ctx, req)
	s.observer.ObserveOperation(ctx, startedAt, "trigger_event", err, map[string]any{
		"event_type": string(req.EventType),
		"store_id":   req.StoreID,
		"event_id":   result.EventID,
	})
	return result, err
}

func (s *Service) RetryEvent(ctx context.Context, eventID string) (WebhookEvent, error) {
	if s == nil || s.trigger == nil {
		return WebhookEvent{}, fmt.Errorf("core: service is not configured")
	}
	startedAt := s.now()
	event, err := s.trigger.RetryEvent(ctx, eventID)
	s.observer.ObserveOperation(ctx, startedAt, "retry_event", err, map[string]any{
		"event_id": eventID,
	})
	return event, err
}

// ConfigureWebhook points every store owned by the client at the given
// callback URL and returns the updated stores.
func (s *Service) ConfigureWebhook(ctx context.Context, clientID string, webhookURL string) ([]Store, error) {
	if s == nil || s.stores == nil {
		return nil, fmt.Errorf("core: service is not configured")
	}
	startedAt := s.now()
	clientID = strings.TrimSpace(clientID)
	webhookURL = strings.TrimSpace(webhookURL)
	if clientID == "" {
		return nil, goerrors.New("core: client id is required", goerrors.CategoryBadInput)
	}
	if webhookURL == "" {
		return nil, goerrors.New("core: webhook url is required", goerrors.CategoryBadInput)
	}

	owned, err := s.stores.StoreStore().List(ctx, clientID)
	if err == nil {
		updated := make([]Store, 0, len(owned))
		for _, store := range owned {
			var next Store
			next, err = s.stores.StoreStore().SetWebhookURL(ctx, store.StoreID, webhookURL)
			if err != nil {
				break
			}
			updated = append(updated, next)
		}
		if err == nil {
			s.observer.ObserveOperation(ctx, startedAt, "configure_webhook", nil, map[string]any{
				"client_id": clientID,
				"stores":    len(updated),
			})
			return updated, nil
		}
	}
	s.observer.ObserveOperation(ctx, startedAt, "configure_webhook", err, map[string]any{
		"client_id": clientID,
	})
	return nil, err
}

// ActivateIntegration provisions a POS integration for a store and fires
// store.provisioned.
func (s *Service) ActivateIntegration(ctx context.Context, in UpsertIntegrationInput) (StoreIntegration, error) {
	if s == nil || s.stores == nil {
		return StoreIntegration{}, fmt.Errorf("core: service is not configured")
	}
	startedAt := s.now()
	integration, err := s.activateIntegration(ctx, in)
	s.observer.ObserveOperation(ctx, startedAt, "activate_integration", err, map[string]any{
		"store_id":  in.StoreID,
		"client_id": in.ClientID,
	})
	return integration, err
}

func (s *Service) activateIntegration(ctx context.Context, in UpsertIntegrationInput) (StoreIntegration, error) {
	if _, err := s.stores.StoreStore().Get(ctx, in.StoreID); err != nil {
		return StoreIntegration{}, err
	}
	integration, err := s.stores.IntegrationStore().Upsert(ctx, in)
	if err != nil {
		return StoreIntegration{}, err
	}
	if _, err := s.trigger.Trigger(ctx, TriggerRequest{
		EventType: EventStoreProvisioned,
		StoreID:   in.StoreID,
	}); err != nil {
		return StoreIntegration{}, err
	}
	return integration, nil
}

func (s *Service) UpdateIntegration(ctx context.Context, storeID string, patch IntegrationPatch) (StoreIntegration, error) {
	if s == nil || s.stores == nil {
		return StoreIntegration{}, fmt.Errorf("core: service is not configured")
	}
	startedAt := s.now()
	integration, err := s.stores.IntegrationStore().Patch(ctx, storeID, patch)
	s.observer.ObserveOperation(ctx, startedAt, "update_integration", err, map[string]any{
		"store_id": storeID,
	})
	return integration, err
}

func (s *Service) GetIntegration(ctx context.Context, storeID string) (StoreIntegration, error) {
	if s == nil || s.stores == nil {
		return StoreIntegration{}, fmt.Errorf("core: service is not configured")
	}
	return s.stores.IntegrationStore().GetByStore(ctx, storeID)
}

// RemoveIntegration deprovisions a store's POS integration and fires
// store.deprovisioned. The trigger runs before the delete so the
// integration's webhook configuration still gates the event.
func (s *Service) RemoveIntegration(ctx context.Context, storeID string) error {
	if s == nil || s.stores == nil {
		return fmt.Errorf("core: service is not configured")
	}
	startedAt := s.now()
	err := s.removeIntegration(ctx, storeID)
	s.observer.ObserveOperation(ctx, startedAt, "remove_integration", err, map[string]any{
		"store_id": storeID,
	})
	return err
}

func (s *Service) removeIntegration(ctx context.Context, storeID string) error {
	if _, err := s.stores.IntegrationStore().GetByStore(ctx, storeID); err != nil {
		return err
	}
	if _, err := s.trigger.Trigger(ctx, TriggerRequest{
		EventType: EventStoreDeprovisioned,
		StoreID:   storeID,
	}); err != nil {
		return err
	}
	return s.stores.IntegrationStore().Delete(ctx, storeID)
}

// SimulateOrder creates an order and fires the matching notification
// event. Scheduled orders announce through the scheduled channel.
func (s *Service) SimulateOrder(ctx context.Context, in CreateOrderInput) (Order, TriggerResult, error) {
	if s == nil || s.stores == nil {
		return Order{}, TriggerResult{}, fmt.Errorf("core: service is not configured")
	}
	startedAt := s.now()
	order, result, err := s.simulateOrder(ctx, in)
	s.observer.ObserveOperation(ctx, startedAt, "simulate_order", err, map[string]any{
		"store_id": in.StoreID,
		"event_id": result.EventID,
	})
	return order, result, err
}

func (s *Service) simulateOrder(ctx context.Context, in CreateOrderInput) (Order, TriggerResult, error) {
	if _, err := s.stores.StoreStore().Get(ctx, in.StoreID); err != nil {
		return Order{}, TriggerResult{}, err
	}
	order, err := s.stores.OrderStore().Create(ctx, in)
	if err != nil {
		return Order{}, TriggerResult{}, err
	}

	eventType := EventOrderNotification
	if in.Scheduled {
		eventType = EventOrderScheduledNotification
	}
	result, err := s.trigger.Trigger(ctx, TriggerRequest{
		EventType: eventType,
		StoreID:   order.StoreID,
		OrderID:   order.OrderID,
		Status:    string(order.Status),
	})
	if err != nil {
		return order, TriggerResult{}, err
	}
	return order, result, nil
}

// ReleaseOrder fires orders.release for a scheduled order.
func (s *Service) ReleaseOrder(ctx context.Context, orderID string) (Order, TriggerResult, error) {
	return s.transitionOrder(ctx, orderID, OrderStatusReleased, EventOrderRelease, "release_order", "")
}

// CancelOrder cancels an order and fires orders.cancel.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (Order, TriggerResult, error) {
	return s.transitionOrder(ctx, orderID, OrderStatusCancelled, EventOrderCancel, "cancel_order", "")
}

// AcceptOrder marks an order accepted and fires orders.status_update.
func (s *Service) AcceptOrder(ctx context.Context, orderID string) (Order, TriggerResult, error) {
	return s.transitionOrder(ctx, orderID, OrderStatusAccepted, EventOrderStatusUpdate, "accept_order", "")
}

// DenyOrder marks an order denied and fires orders.status_update with
// the denial reason.
func (s *Service) DenyOrder(ctx context.Context, orderID string, reason string) (Order, TriggerResult, error) {
	return s.transitionOrder(ctx, orderID, OrderStatusDenied, EventOrderStatusUpdate, "deny_order", reason)
}

func (s *Service) transitionOrder(
	ctx context.Context,
	orderID string,
	status OrderStatus,
	eventType EventType,
	operation string,
	reason string,
) (Order, TriggerResult, error) {
	if s == nil || s.stores == nil {
		return Order{}, TriggerResult{}, fmt.Errorf("core: service is not configured")
	}
	startedAt := s.now()
	order, result, err := s.doTransitionOrder(ctx, orderID, status, eventType, reason)
	s.observer.ObserveOperation(ctx, startedAt, operation, err, map[string]any{
		"order_id":   orderID,
		"store_id":   order.StoreID,
		"event_type": string(eventType),
	})
	return order, result, err
}

func (s *Service) doTransitionOrder(
	ctx context.Context,
	orderID string,
	status OrderStatus,
	eventType EventType,
	reason string,
) (Order, TriggerResult, error) {
	order, err := s.stores.OrderStore().UpdateStatus(ctx, orderID, status)
	if err != nil {
		return Order{}, TriggerResult{}, err
	}
	req := TriggerRequest{
		EventType: eventType,
		StoreID:   order.StoreID,
		OrderID:   order.OrderID,
		Status:    string(status),
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		req.Metadata = map[string]any{"reason": reason}
	}
	result, err := s.trigger.Trigger(ctx, req)
	if err != nil {
		return order, TriggerResult{}, err
	}
	return order, result, nil
}

// UpdateDeliveryState fires delivery.state_changed without touching the
// order row; courier state lives outside the POS order lifecycle.
func (s *Service) UpdateDeliveryState(ctx context.Context, orderID string, state string) (TriggerResult, error) {
	if s == nil || s.stores == nil {
		return TriggerResult{}, fmt.Errorf("core: service is not configured")
	}
	startedAt := s.now()
	result, err := s.updateDeliveryState(ctx, orderID, state)
	s.observer.ObserveOperation(ctx, startedAt, "update_delivery_state", err, map[string]any{
		"order_id": orderID,
		"state":    state,
	})
	return result, err
}

func (s *Service) updateDeliveryState(ctx context.Context, orderID string, state string) (TriggerResult, error) {
	state = strings.TrimSpace(state)
	if state == "" {
		return TriggerResult{}, goerrors.New("core: delivery state is required", goerrors.CategoryBadInput)
	}
	order, err := s.stores.OrderStore().Get(ctx, orderID)
	if err != nil {
		return TriggerResult{}, err
	}
	return s.trigger.Trigger(ctx, TriggerRequest{
		EventType: EventDeliveryStateChanged,
		StoreID:   order.StoreID,
		OrderID:   order.OrderID,
		Status:    state,
	})
}

func (s *Service) CreateStore(ctx context.Context, store Store) (Store, error) {
	if s == nil || s.stores == nil {
		return Store{}, fmt.Errorf("core: service is not configured")
	}
	return s.stores.StoreStore().Create(ctx, store)
}

func (s *Service) SetStoreStatus(ctx context.Context, storeID string, status StoreStatus) (Store, error) {
	if s == nil || s.stores == nil {
		return Store{}, fmt.Errorf("core: service is not configured")
	}
	switch status {
	case StoreStatusOnline, StoreStatusOffline, StoreStatusPaused:
	default:
		return Store{}, goerrors.New(
			fmt.Sprintf("core: unknown store status %q", status),
			goerrors.CategoryBadInput,
		)
	}
	return s.stores.StoreStore().UpdateStatus(ctx, storeID, status)
}

func (s *Service) GetStore(ctx context.Context, storeID string) (Store, error) {
	if s == nil || s.stores == nil {
		return Store{}, fmt.Errorf("core: service is not configured")
	}
	return s.stores.StoreStore().Get(ctx, storeID)
}

func (s *Service) ListStores(ctx context.Context, clientID string) ([]Store, error) {
	if s == nil || s.stores == nil {
		return nil, fmt.Errorf("core: service is not configured")
	}
	return s.stores.StoreStore().List(ctx, clientID)
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (Order, error) {
	if s == nil || s.stores == nil {
		return Order{}, fmt.Errorf("core: service is not configured")
	}
	return s.stores.OrderStore().Get(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context, storeID string, limit int) ([]Order, error) {
	if s == nil || s.stores == nil {
		return nil, fmt.Errorf("core: service is not configured")
	}
	return s.stores.OrderStore().List(ctx, storeID, limit)
}

func (s *Service) GetEvent(ctx context.Context, eventID string) (WebhookEvent, error) {
	if s == nil || s.stores == nil {
		return WebhookEvent{}, fmt.Errorf("core: service is not configured")
	}
	return s.stores.EventStore().Get(ctx, eventID)
}

func (s *Service) ListEvents(ctx context.Context, filter EventFilter) ([]WebhookEvent, error) {
	if s == nil || s.stores == nil {
		return nil, fmt.Errorf("core: service is not configured")
	}
	return s.stores.EventStore().List(ctx, filter)
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
