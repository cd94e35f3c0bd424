package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-marketplace/core"
)

const (
	TypeListWebhookEvents = "marketplace.query.webhook_events.list"
	TypeGetWebhookEvent   = "marketplace.query.webhook_events.get"
	TypeListStores        = "marketplace.query.stores.list"
	TypeGetStore          = "marketplace.query.stores.get"
	TypeGetIntegration    = "marketplace.query.integrations.get"
	TypeListOrders        = "marketplace.query.orders.list"
	TypeGetOrder          = "marketplace.query.orders.get"
)

type ListWebhookEventsMessage struct {
	Filter core.EventFilter
}

func (ListWebhookEventsMessage) Type() string { return TypeListWebhookEvents }

func (m ListWebhookEventsMessage) Validate() error {
	if m.Filter.Limit < 0 {
		return fmt.Errorf("query: limit must be >= 0")
	}
	if status := strings.TrimSpace(string(m.Filter.Status)); status != "" {
		if _, err := core.ParseEventStatus(status); err != nil {
			return fmt.Errorf("query: %w", err)
		}
	}
	return nil
}

type GetWebhookEventMessage struct {
	EventID string
}

func (GetWebhookEventMessage) Type() string { return TypeGetWebhookEvent }

func (m GetWebhookEventMessage) Validate() error {
	if strings.TrimSpace(m.EventID) == "" {
		return fmt.Errorf("query: event id is required")
	}
	return nil
}

type ListStoresMessage struct {
	ClientID string
}

func (ListStoresMessage) Type() string { return TypeListStores }

func (ListStoresMessage) Validate() error { return nil }

type GetStoreMessage struct {
	StoreID string
}

func (GetStoreMessage) Type() string { return TypeGetStore }

func (m GetStoreMessage) Validate() error {
	if strings.TrimSpace(m.StoreID) == "" {
		return fmt.Errorf("query: store id is required")
	}
	return nil
}

type GetIntegrationMessage struct {
	StoreID string
}

func (GetIntegrationMessage) Type() string { return TypeGetIntegration }

func (m GetIntegrationMessage) Validate() error {
	if strings.TrimSpace(m.StoreID) == "" {
		return fmt.Errorf("query: store id is required")
	}
	return nil
}

type ListOrdersMessage struct {
	StoreID string
	Limit   int
}

func (ListOrdersMessage) Type() string { return TypeListOrders }

func (m ListOrdersMessage) Validate() error {
	if m.Limit < 0 {
		return fmt.Errorf("query: limit must be >= 0")
	}
	return nil
}

type GetOrderMessage struct {
	OrderID string
}

func (GetOrderMessage) Type() string { return TypeGetOrder }

func (m GetOrderMessage) Validate() error {
	if strings.TrimSpace(m.OrderID) == "" {
		return fmt.Errorf("query: order id is required")
	}
	return nil
}
