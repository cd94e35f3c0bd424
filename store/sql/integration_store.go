package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-marketplace/core"
)

type IntegrationStore struct {
	db   *bun.DB
	repo repository.Repository[*storeIntegrationRecord]
}

func NewIntegrationStore(db *bun.DB) (*IntegrationStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*storeIntegrationRecord](db, storeIntegrationHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid integration repository wiring: %w", err)
		}
	}
	return &IntegrationStore{db: db, repo: repo}, nil
}

func (s *IntegrationStore) Upsert(ctx context.Context, in core.UpsertIntegrationInput) (core.StoreIntegration, error) {
	if s == nil || s.db == nil {
		return core.StoreIntegration{}, fmt.Errorf("sqlstore: integration store is not configured")
	}
	storeID := strings.TrimSpace(in.StoreID)
	clientID := strings.TrimSpace(in.ClientID)
	if storeID == "" || clientID == "" {
		return core.StoreIntegration{}, fmt.Errorf("sqlstore: store id and client id are required")
	}

	now := time.Now().UTC()
	record := &storeIntegrationRecord{
		ID:                      uuid.NewString(),
		StoreID:                 storeID,
		ClientID:                clientID,
		IntegratorStoreID:       strings.TrimSpace(in.IntegratorStoreID),
		IntegratorBrandID:       strings.TrimSpace(in.IntegratorBrandID),
		MerchantStoreID:         strings.TrimSpace(in.MerchantStoreID),
		IsOrderManager:          in.IsOrderManager,
		RequireManualAcceptance: in.RequireManualAcceptance,
		IntegrationEnabled:      true,
		StoreConfigurationData:  in.StoreConfigurationData,
		WebhooksConfig:          categoriesToMap(in.WebhooksConfig),
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (store_id, client_id) DO UPDATE").
		Set("integrator_store_id = EXCLUDED.integrator_store_id").
		Set("integrator_brand_id = EXCLUDED.integrator_brand_id").
		Set("merchant_store_id = EXCLUDED.merchant_store_id").
		Set("is_order_manager = EXCLUDED.is_order_manager").
		Set("require_manual_acceptance = EXCLUDED.require_manual_acceptance").
		Set("integration_enabled = EXCLUDED.integration_enabled").
		Set("store_configuration_data = EXCLUDED.store_configuration_data").
		Set("webhooks_config = EXCLUDED.webhooks_config").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return core.StoreIntegration{}, err
	}
	return s.GetByStore(ctx, storeID)
}

func (s *IntegrationStore) GetByStore(ctx context.Context, storeID string) (core.StoreIntegration, error) {
	if s == nil || s.db == nil {
		return core.StoreIntegration{}, fmt.Errorf("sqlstore: integration store is not configured")
	}
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return core.StoreIntegration{}, fmt.Errorf("sqlstore: store id is required")
	}
	record := &storeIntegrationRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.store_id = ?", storeID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.StoreIntegration{}, integrationNotFound(storeID)
		}
		return core.StoreIntegration{}, err
	}
	return integrationToDomain(record), nil
}

// Patch applies only the fields present on the patch, column by column.
func (s *IntegrationStore) Patch(ctx context.Context, storeID string, patch core.IntegrationPatch) (core.StoreIntegration, error) {
	if s == nil || s.db == nil {
		return core.StoreIntegration{}, fmt.Errorf("sqlstore: integration store is not configured")
	}
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return core.StoreIntegration{}, fmt.Errorf("sqlstore: store id is required")
	}
	if patch.Empty() {
		return s.GetByStore(ctx, storeID)
	}

	query := s.db.NewUpdate().
		Model((*storeIntegrationRecord)(nil)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("store_id = ?", storeID)
	if patch.IntegratorStoreID != nil {
		query = query.Set("integrator_store_id = ?", strings.TrimSpace(*patch.IntegratorStoreID))
	}
	if patch.IntegratorBrandID != nil {
		query = query.Set("integrator_brand_id = ?", strings.TrimSpace(*patch.IntegratorBrandID))
	}
	if patch.MerchantStoreID != nil {
		query = query.Set("merchant_store_id = ?", strings.TrimSpace(*patch.MerchantStoreID))
	}
	if patch.IsOrderManager != nil {
		query = query.Set("is_order_manager = ?", *patch.IsOrderManager)
	}
	if patch.RequireManualAcceptance != nil {
		query = query.Set("require_manual_acceptance = ?", *patch.RequireManualAcceptance)
	}
	if patch.IntegrationEnabled != nil {
		query = query.Set("integration_enabled = ?", *patch.IntegrationEnabled)
	}
	if patch.StoreConfigurationData != nil {
		query = query.Set("store_configuration_data = ?", *patch.StoreConfigurationData)
	}
	if patch.WebhooksConfig != nil {
		query = query.Set("webhooks_config = ?", categoriesToMap(*patch.WebhooksConfig))
	}

	result, err := query.Exec(ctx)
	if err != nil {
		return core.StoreIntegration{}, err
	}
	if affected, affectedErr := result.RowsAffected(); affectedErr == nil && affected == 0 {
		return core.StoreIntegration{}, integrationNotFound(storeID)
	}
	return s.GetByStore(ctx, storeID)
}

func (s *IntegrationStore) Delete(ctx context.Context, storeID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: integration store is not configured")
	}
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return fmt.Errorf("sqlstore: store id is required")
	}
	result, err := s.db.NewDelete().
		Model((*storeIntegrationRecord)(nil)).
		Where("store_id = ?", storeID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, affectedErr := result.RowsAffected(); affectedErr == nil && affected == 0 {
		return integrationNotFound(storeID)
	}
	return nil
}

func integrationNotFound(storeID string) error {
	return goerrors.New(
		fmt.Sprintf("sqlstore: integration for store %s not found", storeID),
		goerrors.CategoryNotFound,
	)
}

var _ core.IntegrationStore = (*IntegrationStore)(nil)
