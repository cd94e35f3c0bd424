package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-marketplace/core"
)

const (
	TypeTriggerEvent        = "marketplace.command.webhook.trigger"
	TypeRetryEvent          = "marketplace.command.webhook.retry"
	TypeConfigureWebhook    = "marketplace.command.webhook.configure"
	TypeActivateIntegration = "marketplace.command.integration.activate"
	TypeUpdateIntegration   = "marketplace.command.integration.update"
	TypeRemoveIntegration   = "marketplace.command.integration.remove"
	TypeSimulateOrder       = "marketplace.command.order.simulate"
	TypeAcceptOrder         = "marketplace.command.order.accept"
	TypeDenyOrder           = "marketplace.command.order.deny"
	TypeReleaseOrder        = "marketplace.command.order.release"
	TypeCancelOrder         = "marketplace.command.order.cancel"
	TypeUpdateDeliveryState = "marketplace.command.delivery.update_state"
	TypeSetStoreStatus      = "marketplace.command.store.set_status"
)

type TriggerEventMessage struct {
	Request core.TriggerRequest
}

func (TriggerEventMessage) Type() string { return TypeTriggerEvent }

func (m TriggerEventMessage) Validate() error {
	if !m.Request.EventType.Valid() {
		return fmt.Errorf("command: unknown event type %q", m.Request.EventType)
	}
	if strings.TrimSpace(m.Request.StoreID) == "" {
		return fmt.Errorf("command: store id is required")
	}
	return nil
}

type RetryEventMessage struct {
	EventID string
}

func (RetryEventMessage) Type() string { return TypeRetryEvent }

func (m RetryEventMessage) Validate() error {
	if strings.TrimSpace(m.EventID) == "" {
		return fmt.Errorf("command: event id is required")
	}
	return nil
}

type ConfigureWebhookMessage struct {
	ClientID   string
	WebhookURL string
}

func (ConfigureWebhookMessage) Type() string { return TypeConfigureWebhook }

func (m ConfigureWebhookMessage) Validate() error {
	if strings.TrimSpace(m.ClientID) == "" {
		return fmt.Errorf("command: client id is required")
	}
	if strings.TrimSpace(m.WebhookURL) == "" {
		return fmt.Errorf("command: webhook url is required")
	}
	return nil
}

type ActivateIntegrationMessage struct {
	Input core.UpsertIntegrationInput
}

func (ActivateIntegrationMessage) Type() string { return TypeActivateIntegration }

func (m ActivateIntegrationMessage) Validate() error {
	if strings.TrimSpace(m.Input.StoreID) == "" {
		return fmt.Errorf("command: store id is required")
	}
	if strings.TrimSpace(m.Input.ClientID) == "" {
		return fmt.Errorf("command: client id is required")
	}
	return nil
}

type UpdateIntegrationMessage struct {
	StoreID string
	Patch   core.IntegrationPatch
}

func (UpdateIntegrationMessage) Type() string { return TypeUpdateIntegration }

func (m UpdateIntegrationMessage) Validate() error {
	if strings.TrimSpace(m.StoreID) == "" {
		return fmt.Errorf("command: store id is required")
	}
	return nil
}

type RemoveIntegrationMessage struct {
	StoreID string
}

func (RemoveIntegrationMessage) Type() string { return TypeRemoveIntegration }

func (m RemoveIntegrationMessage) Validate() error {
	if strings.TrimSpace(m.StoreID) == "" {
		return fmt.Errorf("command: store id is required")
	}
	return nil
}

type SimulateOrderMessage struct {
	Input core.CreateOrderInput
}

func (SimulateOrderMessage) Type() string { return TypeSimulateOrder }

func (m SimulateOrderMessage) Validate() error {
	if strings.TrimSpace(m.Input.StoreID) == "" {
		return fmt.Errorf("command: store id is required")
	}
	return nil
}

type AcceptOrderMessage struct {
	OrderID string
}

func (AcceptOrderMessage) Type() string { return TypeAcceptOrder }

func (m AcceptOrderMessage) Validate() error {
	return validateOrderID(m.OrderID)
}

type DenyOrderMessage struct {
	OrderID string
	Reason  string
}

func (DenyOrderMessage) Type() string { return TypeDenyOrder }

func (m DenyOrderMessage) Validate() error {
	return validateOrderID(m.OrderID)
}

type ReleaseOrderMessage struct {
	OrderID string
}

func (ReleaseOrderMessage) Type() string { return TypeReleaseOrder }

func (m ReleaseOrderMessage) Validate() error {
	return validateOrderID(m.OrderID)
}

type CancelOrderMessage struct {
	OrderID string
}

func (CancelOrderMessage) Type() string { return TypeCancelOrder }

func (m CancelOrderMessage) Validate() error {
	return validateOrderID(m.OrderID)
}

type UpdateDeliveryStateMessage struct {
	OrderID string
	State   string
}

func (UpdateDeliveryStateMessage) Type() string { return TypeUpdateDeliveryState }

func (m UpdateDeliveryStateMessage) Validate() error {
	if err := validateOrderID(m.OrderID); err != nil {
		return err
	}
	if strings.TrimSpace(m.State) == "" {
		return fmt.Errorf("command: delivery state is required")
	}
	return nil
}

type SetStoreStatusMessage struct {
	StoreID string
	Status  core.StoreStatus
}

func (SetStoreStatusMessage) Type() string { return TypeSetStoreStatus }

func (m SetStoreStatusMessage) Validate() error {
	if strings.TrimSpace(m.StoreID) == "" {
		return fmt.Errorf("command: store id is required")
	}
	if strings.TrimSpace(string(m.Status)) == "" {
		return fmt.Errorf("command: store status is required")
	}
	return nil
}

func validateOrderID(orderID string) error {
	if strings.TrimSpace(orderID) == "" {
		return fmt.Errorf("command: order id is required")
	}
	return nil
}
