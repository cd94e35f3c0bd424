package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-marketplace/core"
)

type countingIntegrationStore struct {
	gets    int
	upserts int
	patches int
	deletes int
	byStore map[string]core.StoreIntegration
	getErr  error
}

func newCountingIntegrationStore() *countingIntegrationStore {
	return &countingIntegrationStore{byStore: map[string]core.StoreIntegration{}}
}

func (s *countingIntegrationStore) Upsert(_ context.Context, in core.UpsertIntegrationInput) (core.StoreIntegration, error) {
	s.upserts++
	integration := core.StoreIntegration{
		ID:                 "int_" + in.StoreID,
		StoreID:            in.StoreID,
		ClientID:           in.ClientID,
		IsOrderManager:     in.IsOrderManager,
		IntegrationEnabled: true,
	}
	s.byStore[in.StoreID] = integration
	return integration, nil
}

func (s *countingIntegrationStore) GetByStore(_ context.Context, storeID string) (core.StoreIntegration, error) {
	s.gets++
	if s.getErr != nil {
		return core.StoreIntegration{}, s.getErr
	}
	integration, ok := s.byStore[storeID]
	if !ok {
		return core.StoreIntegration{}, errors.New("integration not found")
	}
	return integration, nil
}

func (s *countingIntegrationStore) Patch(_ context.Context, storeID string, patch core.IntegrationPatch) (core.StoreIntegration, error) {
	s.patches++
	integration := s.byStore[storeID]
	if patch.IntegrationEnabled != nil {
		integration.IntegrationEnabled = *patch.IntegrationEnabled
	}
	s.byStore[storeID] = integration
	return integration, nil
}

func (s *countingIntegrationStore) Delete(_ context.Context, storeID string) error {
	s.deletes++
	delete(s.byStore, storeID)
	return nil
}

func newTestIntegrationCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func TestIntegrationCacheKey(t *testing.T) {
	key, err := IntegrationCacheKey("store_123")
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	if key != "go-marketplace::store_integration::v1::store_123" {
		t.Fatalf("unexpected cache key %q", key)
	}
	if _, err := IntegrationCacheKey("   "); err == nil {
		t.Fatal("expected blank store id to be rejected")
	}
}

func TestCachedIntegrationStore_ReadThrough(t *testing.T) {
	base := newCountingIntegrationStore()
	store, err := NewCachedIntegrationStore(base, newTestIntegrationCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}
	ctx := context.Background()

	if _, err := base.Upsert(ctx, core.UpsertIntegrationInput{StoreID: "store_123", ClientID: "client_1"}); err != nil {
		t.Fatalf("seed base: %v", err)
	}

	for i := 0; i < 3; i++ {
		integration, err := store.GetByStore(ctx, "store_123")
		if err != nil {
			t.Fatalf("get by store: %v", err)
		}
		if integration.StoreID != "store_123" {
			t.Fatalf("unexpected integration: %#v", integration)
		}
	}
	if base.gets != 1 {
		t.Fatalf("expected a single base fetch, got %d", base.gets)
	}
}

func TestCachedIntegrationStore_WritesInvalidate(t *testing.T) {
	base := newCountingIntegrationStore()
	store, err := NewCachedIntegrationStore(base, newTestIntegrationCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Upsert(ctx, core.UpsertIntegrationInput{StoreID: "store_123", ClientID: "client_1"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := store.GetByStore(ctx, "store_123"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	disabled := false
	if _, err := store.Patch(ctx, "store_123", core.IntegrationPatch{IntegrationEnabled: &disabled}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	integration, err := store.GetByStore(ctx, "store_123")
	if err != nil {
		t.Fatalf("get after patch: %v", err)
	}
	if integration.IntegrationEnabled {
		t.Fatal("expected patch to invalidate the cached entry")
	}
	if base.gets != 2 {
		t.Fatalf("expected refetch after invalidation, got %d base fetches", base.gets)
	}

	if err := store.Delete(ctx, "store_123"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetByStore(ctx, "store_123"); err == nil {
		t.Fatal("expected miss after delete")
	}
}

func TestCachedIntegrationStore_PropagatesBaseErrors(t *testing.T) {
	base := newCountingIntegrationStore()
	base.getErr = errors.New("database offline")
	store, err := NewCachedIntegrationStore(base, newTestIntegrationCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	if _, err := store.GetByStore(context.Background(), "store_123"); err == nil {
		t.Fatal("expected base error propagation")
	}
}
