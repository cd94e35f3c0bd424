package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-marketplace/core"
)

var (
	_ gocmd.Querier[ListWebhookEventsMessage, []core.WebhookEvent] = (*ListWebhookEventsQuery)(nil)
	_ gocmd.Querier[GetWebhookEventMessage, core.WebhookEvent]     = (*GetWebhookEventQuery)(nil)
	_ gocmd.Querier[ListStoresMessage, []core.Store]               = (*ListStoresQuery)(nil)
	_ gocmd.Querier[GetStoreMessage, core.Store]                   = (*GetStoreQuery)(nil)
	_ gocmd.Querier[GetIntegrationMessage, core.StoreIntegration]  = (*GetIntegrationQuery)(nil)
	_ gocmd.Querier[ListOrdersMessage, []core.Order]               = (*ListOrdersQuery)(nil)
	_ gocmd.Querier[GetOrderMessage, core.Order]                   = (*GetOrderQuery)(nil)
)
