package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-marketplace/core"
)

type StoreStore struct {
	db   *bun.DB
	repo repository.Repository[*storeRecord]
}

func NewStoreStore(db *bun.DB) (*StoreStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*storeRecord](db, storeHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid store repository wiring: %w", err)
		}
	}
	return &StoreStore{db: db, repo: repo}, nil
}

func (s *StoreStore) Create(ctx context.Context, store core.Store) (core.Store, error) {
	if s == nil || s.repo == nil {
		return core.Store{}, fmt.Errorf("sqlstore: store store is not configured")
	}
	storeID := strings.TrimSpace(store.StoreID)
	if storeID == "" {
		return core.Store{}, fmt.Errorf("sqlstore: store id is required")
	}
	now := time.Now().UTC()
	record := &storeRecord{
		StoreID:    storeID,
		ClientID:   strings.TrimSpace(store.ClientID),
		Name:       strings.TrimSpace(store.Name),
		Status:     string(store.Status),
		WebhookURL: strings.TrimSpace(store.WebhookURL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if record.Status == "" {
		record.Status = string(core.StoreStatusOnline)
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Store{}, err
	}
	return storeToDomain(created), nil
}

func (s *StoreStore) Get(ctx context.Context, storeID string) (core.Store, error) {
	if s == nil || s.db == nil {
		return core.Store{}, fmt.Errorf("sqlstore: store store is not configured")
	}
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return core.Store{}, fmt.Errorf("sqlstore: store id is required")
	}
	record := &storeRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.store_id = ?", storeID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Store{}, storeNotFound(storeID)
		}
		return core.Store{}, err
	}
	return storeToDomain(record), nil
}

func (s *StoreStore) List(ctx context.Context, clientID string) ([]core.Store, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: store store is not configured")
	}
	var records []storeRecord
	query := s.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.store_id ASC")
	if clientID = strings.TrimSpace(clientID); clientID != "" {
		query = query.Where("?TableAlias.client_id = ?", clientID)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	stores := make([]core.Store, 0, len(records))
	for i := range records {
		stores = append(stores, storeToDomain(&records[i]))
	}
	return stores, nil
}

func (s *StoreStore) UpdateStatus(ctx context.Context, storeID string, status core.StoreStatus) (core.Store, error) {
	if s == nil || s.db == nil {
		return core.Store{}, fmt.Errorf("sqlstore: store store is not configured")
	}
	storeID = strings.TrimSpace(storeID)
	result, err := s.db.NewUpdate().
		Model((*storeRecord)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("store_id = ?", storeID).
		Exec(ctx)
	if err != nil {
		return core.Store{}, err
	}
	if affected, affectedErr := result.RowsAffected(); affectedErr == nil && affected == 0 {
		return core.Store{}, storeNotFound(storeID)
	}
	return s.Get(ctx, storeID)
}

func (s *StoreStore) SetWebhookURL(ctx context.Context, storeID string, url string) (core.Store, error) {
	if s == nil || s.db == nil {
		return core.Store{}, fmt.Errorf("sqlstore: store store is not configured")
	}
	storeID = strings.TrimSpace(storeID)
	result, err := s.db.NewUpdate().
		Model((*storeRecord)(nil)).
		Set("webhook_url = ?", strings.TrimSpace(url)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("store_id = ?", storeID).
		Exec(ctx)
	if err != nil {
		return core.Store{}, err
	}
	if affected, affectedErr := result.RowsAffected(); affectedErr == nil && affected == 0 {
		return core.Store{}, storeNotFound(storeID)
	}
	return s.Get(ctx, storeID)
}

func storeNotFound(storeID string) error {
	return goerrors.New(
		fmt.Sprintf("sqlstore: store %s not found", storeID),
		goerrors.CategoryNotFound,
	)
}

var _ core.StoreStore = (*StoreStore)(nil)
