package query

import (
	"context"

	"github.com/goliatone/go-marketplace/core"
)

type EventReader interface {
	ListEvents(ctx context.Context, filter core.EventFilter) ([]core.WebhookEvent, error)
	GetEvent(ctx context.Context, eventID string) (core.WebhookEvent, error)
}

type StoreReader interface {
	ListStores(ctx context.Context, clientID string) ([]core.Store, error)
	GetStore(ctx context.Context, storeID string) (core.Store, error)
	GetIntegration(ctx context.Context, storeID string) (core.StoreIntegration, error)
}

type OrderReader interface {
	ListOrders(ctx context.Context, storeID string, limit int) ([]core.Order, error)
	GetOrder(ctx context.Context, orderID string) (core.Order, error)
}

type ListWebhookEventsQuery struct {
	reader EventReader
}

func NewListWebhookEventsQuery(reader EventReader) *ListWebhookEventsQuery {
	return &ListWebhookEventsQuery{reader: reader}
}

func (q *ListWebhookEventsQuery) Query(ctx context.Context, msg ListWebhookEventsMessage) ([]core.WebhookEvent, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: event reader is required")
	}
	return q.reader.ListEvents(ctx, msg.Filter)
}

type GetWebhookEventQuery struct {
	reader EventReader
}

func NewGetWebhookEventQuery(reader EventReader) *GetWebhookEventQuery {
	return &GetWebhookEventQuery{reader: reader}
}

func (q *GetWebhookEventQuery) Query(ctx context.Context, msg GetWebhookEventMessage) (core.WebhookEvent, error) {
	if q == nil || q.reader == nil {
		return core.WebhookEvent{}, queryDependencyError("query: event reader is required")
	}
	return q.reader.GetEvent(ctx, msg.EventID)
}

type ListStoresQuery struct {
	reader StoreReader
}

func NewListStoresQuery(reader StoreReader) *ListStoresQuery {
	return &ListStoresQuery{reader: reader}
}

func (q *ListStoresQuery) Query(ctx context.Context, msg ListStoresMessage) ([]core.Store, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: store reader is required")
	}
	return q.reader.ListStores(ctx, msg.ClientID)
}

type GetStoreQuery struct {
	reader StoreReader
}

func NewGetStoreQuery(reader StoreReader) *GetStoreQuery {
	return &GetStoreQuery{reader: reader}
}

func (q *GetStoreQuery) Query(ctx context.Context, msg GetStoreMessage) (core.Store, error) {
	if q == nil || q.reader == nil {
		return core.Store{}, queryDependencyError("query: store reader is required")
	}
	return q.reader.GetStore(ctx, msg.StoreID)
}

type GetIntegrationQuery struct {
	reader StoreReader
}

func NewGetIntegrationQuery(reader StoreReader) *GetIntegrationQuery {
	return &GetIntegrationQuery{reader: reader}
}

func (q *GetIntegrationQuery) Query(ctx context.Context, msg GetIntegrationMessage) (core.StoreIntegration, error) {
	if q == nil || q.reader == nil {
		return core.StoreIntegration{}, queryDependencyError("query: store reader is required")
	}
	return q.reader.GetIntegration(ctx, msg.StoreID)
}

type ListOrdersQuery struct {
	reader OrderReader
}

func NewListOrdersQuery(reader OrderReader) *ListOrdersQuery {
	return &ListOrdersQuery{reader: reader}
}

func (q *ListOrdersQuery) Query(ctx context.Context, msg ListOrdersMessage) ([]core.Order, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: order reader is required")
	}
	return q.reader.ListOrders(ctx, msg.StoreID, msg.Limit)
}

type GetOrderQuery struct {
	reader OrderReader
}

func NewGetOrderQuery(reader OrderReader) *GetOrderQuery {
	return &GetOrderQuery{reader: reader}
}

func (q *GetOrderQuery) Query(ctx context.Context, msg GetOrderMessage) (core.Order, error) {
	if q == nil || q.reader == nil {
		return core.Order{}, queryDependencyError("query: order reader is required")
	}
	return q.reader.GetOrder(ctx, msg.OrderID)
}
