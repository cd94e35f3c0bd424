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

type TokenStore struct {
	db   *bun.DB
	repo repository.Repository[*tokenRecord]
}

func NewTokenStore(db *bun.DB) (*TokenStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*tokenRecord](db, tokenHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid token repository wiring: %w", err)
		}
	}
	return &TokenStore{db: db, repo: repo}, nil
}

func (s *TokenStore) Save(ctx context.Context, token core.AccessToken) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: token store is not configured")
	}
	value := strings.TrimSpace(token.Token)
	if value == "" {
		return fmt.Errorf("sqlstore: access token is required")
	}
	if token.ExpiresAt.IsZero() {
		return fmt.Errorf("sqlstore: token expiry is required")
	}
	record := &tokenRecord{
		AccessToken: value,
		ClientID:    strings.TrimSpace(token.ClientID),
		GrantType:   strings.TrimSpace(token.GrantType),
		Scope:       strings.TrimSpace(token.Scope),
		ExpiresAt:   token.ExpiresAt.UTC(),
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.repo.Create(ctx, record)
	return err
}

func (s *TokenStore) Get(ctx context.Context, token string) (core.AccessToken, error) {
	if s == nil || s.db == nil {
		return core.AccessToken{}, fmt.Errorf("sqlstore: token store is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return core.AccessToken{}, fmt.Errorf("sqlstore: access token is required")
	}
	record := &tokenRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.access_token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.AccessToken{}, goerrors.New(
				"sqlstore: access token not found",
				goerrors.CategoryAuth,
			)
		}
		return core.AccessToken{}, err
	}
	return tokenToDomain(record), nil
}

func (s *TokenStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: token store is not configured")
	}
	result, err := s.db.NewDelete().
		Model((*tokenRecord)(nil)).
		Where("expires_at <= ?", now.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(affected), nil
}

var _ core.TokenStore = (*TokenStore)(nil)
