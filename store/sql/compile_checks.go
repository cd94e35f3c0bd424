package sqlstore

import "github.com/goliatone/go-marketplace/core"

var (
	_ core.EventStore             = (*WebhookEventStore)(nil)
	_ core.IntegrationStore       = (*IntegrationStore)(nil)
	_ core.IntegrationStore       = (*CachedIntegrationStore)(nil)
	_ core.StoreStore             = (*StoreStore)(nil)
	_ core.OrderStore             = (*OrderStore)(nil)
	_ core.TokenStore             = (*TokenStore)(nil)
	_ core.ClientStore            = (*ClientStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
