package marketplace

import "github.com/goliatone/go-marketplace/core"

type Config = core.Config

type Service = core.Service

type Observer = core.Observer

type Store = core.Store
type StoreIntegration = core.StoreIntegration
type Order = core.Order
type WebhookEvent = core.WebhookEvent
type WebhookCategories = core.WebhookCategories

type EventType = core.EventType
type EventStatus = core.EventStatus
type OrderStatus = core.OrderStatus
type StoreStatus = core.StoreStatus

type TriggerRequest = core.TriggerRequest
type TriggerResult = core.TriggerResult
type EventFilter = core.EventFilter

type CreateOrderInput = core.CreateOrderInput
type UpsertIntegrationInput = core.UpsertIntegrationInput
type IntegrationPatch = core.IntegrationPatch

type EventStore = core.EventStore
type IntegrationStore = core.IntegrationStore
type StoreStore = core.StoreStore
type OrderStore = core.OrderStore
type TokenStore = core.TokenStore
type ClientStore = core.ClientStore
type StoreProvider = core.StoreProvider
type EventTrigger = core.EventTrigger
type DeliveryClient = core.DeliveryClient
type SecretProvider = core.SecretProvider

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(stores core.StoreProvider, trigger core.EventTrigger, observer *core.Observer) (*Service, error) {
	return core.NewService(stores, trigger, observer)
}

func NewObserver(logger core.Logger, metrics core.MetricsRecorder) *Observer {
	return core.NewObserver(logger, metrics)
}
