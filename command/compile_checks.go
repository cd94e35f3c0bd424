package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[TriggerEventMessage]        = (*TriggerEventCommand)(nil)
	_ gocmd.Commander[RetryEventMessage]          = (*RetryEventCommand)(nil)
	_ gocmd.Commander[ConfigureWebhookMessage]    = (*ConfigureWebhookCommand)(nil)
	_ gocmd.Commander[ActivateIntegrationMessage] = (*ActivateIntegrationCommand)(nil)
	_ gocmd.Commander[UpdateIntegrationMessage]   = (*UpdateIntegrationCommand)(nil)
	_ gocmd.Commander[RemoveIntegrationMessage]   = (*RemoveIntegrationCommand)(nil)
	_ gocmd.Commander[SimulateOrderMessage]       = (*SimulateOrderCommand)(nil)
	_ gocmd.Commander[AcceptOrderMessage]         = (*AcceptOrderCommand)(nil)
	_ gocmd.Commander[DenyOrderMessage]           = (*DenyOrderCommand)(nil)
	_ gocmd.Commander[ReleaseOrderMessage]        = (*ReleaseOrderCommand)(nil)
	_ gocmd.Commander[CancelOrderMessage]         = (*CancelOrderCommand)(nil)
	_ gocmd.Commander[UpdateDeliveryStateMessage] = (*UpdateDeliveryStateCommand)(nil)
	_ gocmd.Commander[SetStoreStatusMessage]      = (*SetStoreStatusCommand)(nil)
)
