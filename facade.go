package marketplace

import (
	"fmt"

	marketcommand "github.com/goliatone/go-marketplace/command"
	marketquery "github.com/goliatone/go-marketplace/query"
)

// CommandQueryService is what the facade needs from the orchestrator:
// every mutation plus the read surfaces. core.Service satisfies it.
type CommandQueryService interface {
	marketcommand.MutatingService
	marketquery.EventReader
	marketquery.StoreReader
	marketquery.OrderReader
}

type Commands struct {
	TriggerEvent        *marketcommand.TriggerEventCommand
	RetryEvent          *marketcommand.RetryEventCommand
	ConfigureWebhook    *marketcommand.ConfigureWebhookCommand
	ActivateIntegration *marketcommand.ActivateIntegrationCommand
	UpdateIntegration   *marketcommand.UpdateIntegrationCommand
	RemoveIntegration   *marketcommand.RemoveIntegrationCommand
	SimulateOrder       *marketcommand.SimulateOrderCommand
	AcceptOrder         *marketcommand.AcceptOrderCommand
	DenyOrder           *marketcommand.DenyOrderCommand
	ReleaseOrder        *marketcommand.ReleaseOrderCommand
	CancelOrder         *marketcommand.CancelOrderCommand
	UpdateDeliveryState *marketcommand.UpdateDeliveryStateCommand
	SetStoreStatus      *marketcommand.SetStoreStatusCommand
}

type Queries struct {
	ListWebhookEvents *marketquery.ListWebhookEventsQuery
	GetWebhookEvent   *marketquery.GetWebhookEventQuery
	ListStores        *marketquery.ListStoresQuery
	GetStore          *marketquery.GetStoreQuery
	GetIntegration    *marketquery.GetIntegrationQuery
	ListOrders        *marketquery.ListOrdersQuery
	GetOrder          *marketquery.GetOrderQuery
}

// Facade bundles the command and query handlers around one service so
// callers can register the whole set with a dispatcher in one pass.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("marketplace: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		TriggerEvent:        marketcommand.NewTriggerEventCommand(service),
		RetryEvent:          marketcommand.NewRetryEventCommand(service),
		ConfigureWebhook:    marketcommand.NewConfigureWebhookCommand(service),
		ActivateIntegration: marketcommand.NewActivateIntegrationCommand(service),
		UpdateIntegration:   marketcommand.NewUpdateIntegrationCommand(service),
		RemoveIntegration:   marketcommand.NewRemoveIntegrationCommand(service),
		SimulateOrder:       marketcommand.NewSimulateOrderCommand(service),
		AcceptOrder:         marketcommand.NewAcceptOrderCommand(service),
		DenyOrder:           marketcommand.NewDenyOrderCommand(service),
		ReleaseOrder:        marketcommand.NewReleaseOrderCommand(service),
		CancelOrder:         marketcommand.NewCancelOrderCommand(service),
		UpdateDeliveryState: marketcommand.NewUpdateDeliveryStateCommand(service),
		SetStoreStatus:      marketcommand.NewSetStoreStatusCommand(service),
	}
	facade.queries = Queries{
		ListWebhookEvents: marketquery.NewListWebhookEventsQuery(service),
		GetWebhookEvent:   marketquery.NewGetWebhookEventQuery(service),
		ListStores:        marketquery.NewListStoresQuery(service),
		GetStore:          marketquery.NewGetStoreQuery(service),
		GetIntegration:    marketquery.NewGetIntegrationQuery(service),
		ListOrders:        marketquery.NewListOrdersQuery(service),
		GetOrder:          marketquery.NewGetOrderQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
