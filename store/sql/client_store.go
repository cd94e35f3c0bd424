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

type ClientStore struct {
	db   *bun.DB
	repo repository.Repository[*clientRecord]
}

func NewClientStore(db *bun.DB) (*ClientStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*clientRecord](db, clientHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid client repository wiring: %w", err)
		}
	}
	return &ClientStore{db: db, repo: repo}, nil
}

func (s *ClientStore) Upsert(ctx context.Context, client core.Client) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: client store is not configured")
	}
	clientID := strings.TrimSpace(client.ClientID)
	if clientID == "" {
		return fmt.Errorf("sqlstore: client id is required")
	}
	record := &clientRecord{
		ClientID:     clientID,
		ClientSecret: strings.TrimSpace(client.ClientSecret),
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (client_id) DO UPDATE").
		Set("client_secret = EXCLUDED.client_secret").
		Exec(ctx)
	return err
}

func (s *ClientStore) Get(ctx context.Context, clientID string) (core.Client, error) {
	if s == nil || s.db == nil {
		return core.Client{}, fmt.Errorf("sqlstore: client store is not configured")
	}
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return core.Client{}, fmt.Errorf("sqlstore: client id is required")
	}
	record := &clientRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.client_id = ?", clientID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Client{}, goerrors.New(
				fmt.Sprintf("sqlstore: client %s not found", clientID),
				goerrors.CategoryNotFound,
			)
		}
		return core.Client{}, err
	}
	return core.Client{ClientID: record.ClientID, ClientSecret: record.ClientSecret}, nil
}

var _ core.ClientStore = (*ClientStore)(nil)
