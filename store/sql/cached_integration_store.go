package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-marketplace/core"
)

const integrationCacheKeyPrefix = "go-marketplace::store_integration::v1"

// CachedIntegrationStore puts a read-through cache in front of the
// integration lookup on the trigger hot path. Every write goes to the
// base store first and then invalidates the cached entry.
type CachedIntegrationStore struct {
	base  core.IntegrationStore
	cache repositorycache.CacheService
}

func NewCachedIntegrationStore(
	base core.IntegrationStore,
	cacheService repositorycache.CacheService,
) (*CachedIntegrationStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base integration store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: integration cache service is required")
	}
	return &CachedIntegrationStore{base: base, cache: cacheService}, nil
}

// IntegrationCacheKey returns the deterministic cache key for one
// store's integration record:
// go-marketplace::store_integration::v1::<store_id>.
func IntegrationCacheKey(storeID string) (string, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return "", fmt.Errorf("sqlstore: store id is required")
	}
	return integrationCacheKeyPrefix + "::" + url.PathEscape(storeID), nil
}

func (s *CachedIntegrationStore) GetByStore(ctx context.Context, storeID string) (core.StoreIntegration, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.StoreIntegration{}, fmt.Errorf("sqlstore: cached integration store is not configured")
	}
	cacheKey, err := IntegrationCacheKey(storeID)
	if err != nil {
		return core.StoreIntegration{}, err
	}
	integration, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.StoreIntegration, error) {
		fetched, fetchErr := s.base.GetByStore(ctx, storeID)
		if fetchErr != nil {
			return core.StoreIntegration{}, fetchErr
		}
		return cloneIntegration(fetched), nil
	})
	if err != nil {
		return core.StoreIntegration{}, err
	}
	return cloneIntegration(integration), nil
}

func (s *CachedIntegrationStore) Upsert(ctx context.Context, in core.UpsertIntegrationInput) (core.StoreIntegration, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.StoreIntegration{}, fmt.Errorf("sqlstore: cached integration store is not configured")
	}
	integration, err := s.base.Upsert(ctx, in)
	if err != nil {
		return core.StoreIntegration{}, err
	}
	if err := s.invalidate(ctx, in.StoreID); err != nil {
		return core.StoreIntegration{}, err
	}
	return integration, nil
}

func (s *CachedIntegrationStore) Patch(ctx context.Context, storeID string, patch core.IntegrationPatch) (core.StoreIntegration, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.StoreIntegration{}, fmt.Errorf("sqlstore: cached integration store is not configured")
	}
	integration, err := s.base.Patch(ctx, storeID, patch)
	if err != nil {
		return core.StoreIntegration{}, err
	}
	if err := s.invalidate(ctx, storeID); err != nil {
		return core.StoreIntegration{}, err
	}
	return integration, nil
}

func (s *CachedIntegrationStore) Delete(ctx context.Context, storeID string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached integration store is not configured")
	}
	if err := s.base.Delete(ctx, storeID); err != nil {
		return err
	}
	return s.invalidate(ctx, storeID)
}

func (s *CachedIntegrationStore) invalidate(ctx context.Context, storeID string) error {
	cacheKey, err := IntegrationCacheKey(storeID)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

func cloneIntegration(integration core.StoreIntegration) core.StoreIntegration {
	cloned := integration
	if len(integration.WebhooksConfig) > 0 {
		config := make(core.WebhookCategories, len(integration.WebhooksConfig))
		for category, flag := range integration.WebhooksConfig {
			config[category] = flag
		}
		cloned.WebhooksConfig = config
	}
	return cloned
}

var _ core.IntegrationStore = (*CachedIntegrationStore)(nil)
