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

type OrderStore struct {
	db   *bun.DB
	repo repository.Repository[*orderRecord]
}

func NewOrderStore(db *bun.DB) (*OrderStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*orderRecord](db, orderHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid order repository wiring: %w", err)
		}
	}
	return &OrderStore{db: db, repo: repo}, nil
}

func (s *OrderStore) Create(ctx context.Context, in core.CreateOrderInput) (core.Order, error) {
	if s == nil || s.repo == nil {
		return core.Order{}, fmt.Errorf("sqlstore: order store is not configured")
	}
	storeID := strings.TrimSpace(in.StoreID)
	if storeID == "" {
		return core.Order{}, fmt.Errorf("sqlstore: store id is required")
	}

	data := copyAnyMap(in.Data)
	if name := strings.TrimSpace(in.CustomerName); name != "" {
		data["customer_name"] = name
	}
	if in.Total > 0 {
		data["total"] = in.Total
	}
	if in.Scheduled {
		data["scheduled"] = true
	}

	now := time.Now().UTC()
	record := &orderRecord{
		OrderID:   "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		StoreID:   storeID,
		Status:    string(core.OrderStatusPending),
		OrderData: data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Order{}, err
	}
	return orderToDomain(created), nil
}

func (s *OrderStore) Get(ctx context.Context, orderID string) (core.Order, error) {
	if s == nil || s.db == nil {
		return core.Order{}, fmt.Errorf("sqlstore: order store is not configured")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return core.Order{}, fmt.Errorf("sqlstore: order id is required")
	}
	record := &orderRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.order_id = ?", orderID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Order{}, orderNotFound(orderID)
		}
		return core.Order{}, err
	}
	return orderToDomain(record), nil
}

func (s *OrderStore) List(ctx context.Context, storeID string, limit int) ([]core.Order, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: order store is not configured")
	}
	var records []orderRecord
	query := s.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.created_at DESC")
	if storeID = strings.TrimSpace(storeID); storeID != "" {
		query = query.Where("?TableAlias.store_id = ?", storeID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	orders := make([]core.Order, 0, len(records))
	for i := range records {
		orders = append(orders, orderToDomain(&records[i]))
	}
	return orders, nil
}

func (s *OrderStore) UpdateStatus(ctx context.Context, orderID string, status core.OrderStatus) (core.Order, error) {
	if s == nil || s.db == nil {
		return core.Order{}, fmt.Errorf("sqlstore: order store is not configured")
	}
	orderID = strings.TrimSpace(orderID)
	result, err := s.db.NewUpdate().
		Model((*orderRecord)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("order_id = ?", orderID).
		Exec(ctx)
	if err != nil {
		return core.Order{}, err
	}
	if affected, affectedErr := result.RowsAffected(); affectedErr == nil && affected == 0 {
		return core.Order{}, orderNotFound(orderID)
	}
	return s.Get(ctx, orderID)
}

func orderNotFound(orderID string) error {
	return goerrors.New(
		fmt.Sprintf("sqlstore: order %s not found", orderID),
		goerrors.CategoryNotFound,
	)
}

var _ core.OrderStore = (*OrderStore)(nil)
