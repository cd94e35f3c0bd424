package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-marketplace/core"
)

type MutatingService interface {
	TriggerEvent(ctx context.Context, req core.TriggerRequest) (core.TriggerResult, error)
	RetryEvent(ctx context.Context, eventID string) (core.WebhookEvent, error)
	ConfigureWebhook(ctx context.Context, clientID string, webhookURL string) ([]core.Store, error)
	ActivateIntegration(ctx context.Context, in core.UpsertIntegrationInput) (core.StoreIntegration, error)
	UpdateIntegration(ctx context.Context, storeID string, patch core.IntegrationPatch) (core.StoreIntegration, error)
	RemoveIntegration(ctx context.Context, storeID string) error
	SimulateOrder(ctx context.Context, in core.CreateOrderInput) (core.Order, core.TriggerResult, error)
	AcceptOrder(ctx context.Context, orderID string) (core.Order, core.TriggerResult, error)
	DenyOrder(ctx context.Context, orderID string, reason string) (core.Order, core.TriggerResult, error)
	ReleaseOrder(ctx context.Context, orderID string) (core.Order, core.TriggerResult, error)
	CancelOrder(ctx context.Context, orderID string) (core.Order, core.TriggerResult, error)
	UpdateDeliveryState(ctx context.Context, orderID string, state string) (core.TriggerResult, error)
	SetStoreStatus(ctx context.Context, storeID string, status core.StoreStatus) (core.Store, error)
}

type TriggerEventCommand struct {
	service MutatingService
}

func NewTriggerEventCommand(service MutatingService) *TriggerEventCommand {
	return &TriggerEventCommand{service: service}
}

func (c *TriggerEventCommand) Execute(ctx context.Context, msg TriggerEventMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: trigger service is required")
	}
	out, err := c.service.TriggerEvent(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RetryEventCommand struct {
	service MutatingService
}

func NewRetryEventCommand(service MutatingService) *RetryEventCommand {
	return &RetryEventCommand{service: service}
}

func (c *RetryEventCommand) Execute(ctx context.Context, msg RetryEventMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: retry service is required")
	}
	out, err := c.service.RetryEvent(ctx, msg.EventID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ConfigureWebhookCommand struct {
	service MutatingService
}

func NewConfigureWebhookCommand(service MutatingService) *ConfigureWebhookCommand {
	return &ConfigureWebhookCommand{service: service}
}

func (c *ConfigureWebhookCommand) Execute(ctx context.Context, msg ConfigureWebhookMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: webhook configuration service is required")
	}
	out, err := c.service.ConfigureWebhook(ctx, msg.ClientID, msg.WebhookURL)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ActivateIntegrationCommand struct {
	service MutatingService
}

func NewActivateIntegrationCommand(service MutatingService) *ActivateIntegrationCommand {
	return &ActivateIntegrationCommand{service: service}
}

func (c *ActivateIntegrationCommand) Execute(ctx context.Context, msg ActivateIntegrationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: integration service is required")
	}
	out, err := c.service.ActivateIntegration(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateIntegrationCommand struct {
	service MutatingService
}

func NewUpdateIntegrationCommand(service MutatingService) *UpdateIntegrationCommand {
	return &UpdateIntegrationCommand{service: service}
}

func (c *UpdateIntegrationCommand) Execute(ctx context.Context, msg UpdateIntegrationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: integration service is required")
	}
	out, err := c.service.UpdateIntegration(ctx, msg.StoreID, msg.Patch)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RemoveIntegrationCommand struct {
	service MutatingService
}

func NewRemoveIntegrationCommand(service MutatingService) *RemoveIntegrationCommand {
	return &RemoveIntegrationCommand{service: service}
}

func (c *RemoveIntegrationCommand) Execute(ctx context.Context, msg RemoveIntegrationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: integration service is required")
	}
	return c.service.RemoveIntegration(ctx, msg.StoreID)
}

type SimulateOrderCommand struct {
	service MutatingService
}

func NewSimulateOrderCommand(service MutatingService) *SimulateOrderCommand {
	return &SimulateOrderCommand{service: service}
}

// OrderActionOutcome pairs the affected order with the trigger result
// so command callers can report both.
type OrderActionOutcome struct {
	Order   core.Order
	Trigger core.TriggerResult
}

func (c *SimulateOrderCommand) Execute(ctx context.Context, msg SimulateOrderMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: order service is required")
	}
	order, result, err := c.service.SimulateOrder(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, OrderActionOutcome{Order: order, Trigger: result})
	return nil
}

type AcceptOrderCommand struct {
	service MutatingService
}

func NewAcceptOrderCommand(service MutatingService) *AcceptOrderCommand {
	return &AcceptOrderCommand{service: service}
}

func (c *AcceptOrderCommand) Execute(ctx context.Context, msg AcceptOrderMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: order service is required")
	}
	order, result, err := c.service.AcceptOrder(ctx, msg.OrderID)
	if err != nil {
		return err
	}
	storeResult(ctx, OrderActionOutcome{Order: order, Trigger: result})
	return nil
}

type DenyOrderCommand struct {
	service MutatingService
}

func NewDenyOrderCommand(service MutatingService) *DenyOrderCommand {
	return &DenyOrderCommand{service: service}
}

func (c *DenyOrderCommand) Execute(ctx context.Context, msg DenyOrderMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: order service is required")
	}
	order, result, err := c.service.DenyOrder(ctx, msg.OrderID, msg.Reason)
	if err != nil {
		return err
	}
	storeResult(ctx, OrderActionOutcome{Order: order, Trigger: result})
	return nil
}

type ReleaseOrderCommand struct {
	service MutatingService
}

func NewReleaseOrderCommand(service MutatingService) *ReleaseOrderCommand {
	return &ReleaseOrderCommand{service: service}
}

func (c *ReleaseOrderCommand) Execute(ctx context.Context, msg ReleaseOrderMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: order service is required")
	}
	order, result, err := c.service.ReleaseOrder(ctx, msg.OrderID)
	if err != nil {
		return err
	}
	storeResult(ctx, OrderActionOutcome{Order: order, Trigger: result})
	return nil
}

type CancelOrderCommand struct {
	service MutatingService
}

func NewCancelOrderCommand(service MutatingService) *CancelOrderCommand {
	return &CancelOrderCommand{service: service}
}

func (c *CancelOrderCommand) Execute(ctx context.Context, msg CancelOrderMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: order service is required")
	}
	order, result, err := c.service.CancelOrder(ctx, msg.OrderID)
	if err != nil {
		return err
	}
	storeResult(ctx, OrderActionOutcome{Order: order, Trigger: result})
	return nil
}

type UpdateDeliveryStateCommand struct {
	service MutatingService
}

func NewUpdateDeliveryStateCommand(service MutatingService) *UpdateDeliveryStateCommand {
	return &UpdateDeliveryStateCommand{service: service}
}

func (c *UpdateDeliveryStateCommand) Execute(ctx context.Context, msg UpdateDeliveryStateMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: delivery service is required")
	}
	out, err := c.service.UpdateDeliveryState(ctx, msg.OrderID, msg.State)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SetStoreStatusCommand struct {
	service MutatingService
}

func NewSetStoreStatusCommand(service MutatingService) *SetStoreStatusCommand {
	return &SetStoreStatusCommand{service: service}
}

func (c *SetStoreStatusCommand) Execute(ctx context.Context, msg SetStoreStatusMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: store service is required")
	}
	out, err := c.service.SetStoreStatus(ctx, msg.StoreID, msg.Status)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
