package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-marketplace/core"
)

type RepositoryFactory struct {
	db *bun.DB

	eventStore       *WebhookEventStore
	integrationStore *IntegrationStore
	storeStore       *StoreStore
	orderStore       *OrderStore
	tokenStore       *TokenStore
	clientStore      *ClientStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.eventStore != nil && f.storeStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) EventStore() core.EventStore {
	if f == nil {
		return nil
	}
	return f.eventStore
}

func (f *RepositoryFactory) IntegrationStore() core.IntegrationStore {
	if f == nil {
		return nil
	}
	return f.integrationStore
}

func (f *RepositoryFactory) StoreStore() core.StoreStore {
	if f == nil {
		return nil
	}
	return f.storeStore
}

func (f *RepositoryFactory) OrderStore() core.OrderStore {
	if f == nil {
		return nil
	}
	return f.orderStore
}

func (f *RepositoryFactory) TokenStore() core.TokenStore {
	if f == nil {
		return nil
	}
	return f.tokenStore
}

func (f *RepositoryFactory) ClientStore() core.ClientStore {
	if f == nil {
		return nil
	}
	return f.clientStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	eventStore, err := NewWebhookEventStore(f.db)
	if err != nil {
		return err
	}
	f.eventStore = eventStore
	integrationStore, err := NewIntegrationStore(f.db)
	if err != nil {
		return err
	}
	f.integrationStore = integrationStore
	storeStore, err := NewStoreStore(f.db)
	if err != nil {
		return err
	}
	f.storeStore = storeStore
	orderStore, err := NewOrderStore(f.db)
	if err != nil {
		return err
	}
	f.orderStore = orderStore
	tokenStore, err := NewTokenStore(f.db)
	if err != nil {
		return err
	}
	f.tokenStore = tokenStore
	clientStore, err := NewClientStore(f.db)
	if err != nil {
		return err
	}
	f.clientStore = clientStore

	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
