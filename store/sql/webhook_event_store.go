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

// WebhookEventStore is the durable attempt ledger. Claim and ClaimDue
// serialize attempt ownership through guarded updates: the row is only
// claimable while non-terminal and past its next_retry_at deadline, and
// a successful claim advances the attempt counter and parks the deadline
// at now+lease in the same statement.
type WebhookEventStore struct {
	db   *bun.DB
	repo repository.Repository[*webhookEventRecord]
}

func NewWebhookEventStore(db *bun.DB) (*WebhookEventStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*webhookEventRecord](db, webhookEventHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid webhook event repository wiring: %w", err)
		}
	}
	return &WebhookEventStore{db: db, repo: repo}, nil
}

func (s *WebhookEventStore) Create(ctx context.Context, event core.WebhookEvent) (core.WebhookEvent, error) {
	if s == nil || s.repo == nil {
		return core.WebhookEvent{}, fmt.Errorf("sqlstore: webhook event store is not configured")
	}
	if strings.TrimSpace(event.EventID) == "" {
		return core.WebhookEvent{}, fmt.Errorf("sqlstore: event id is required")
	}
	if strings.TrimSpace(string(event.EventType)) == "" {
		return core.WebhookEvent{}, fmt.Errorf("sqlstore: event type is required")
	}
	if strings.TrimSpace(event.WebhookURL) == "" {
		return core.WebhookEvent{}, fmt.Errorf("sqlstore: webhook url is required")
	}

	record := webhookEventToRecord(event)
	if record.Status == "" {
		record.Status = string(core.EventStatusPending)
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.WebhookEvent{}, err
	}
	return webhookEventToDomain(created), nil
}

func (s *WebhookEventStore) Get(ctx context.Context, eventID string) (core.WebhookEvent, error) {
	if s == nil || s.db == nil {
		return core.WebhookEvent{}, fmt.Errorf("sqlstore: webhook event store is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return core.WebhookEvent{}, fmt.Errorf("sqlstore: event id is required")
	}
	record := &webhookEventRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.event_id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.WebhookEvent{}, eventNotFound(eventID)
		}
		return core.WebhookEvent{}, err
	}
	return webhookEventToDomain(record), nil
}

// List returns events newest first, optionally filtered by status.
func (s *WebhookEventStore) List(ctx context.Context, filter core.EventFilter) ([]core.WebhookEvent, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: webhook event store is not configured")
	}
	var records []webhookEventRecord
	query := s.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.created_at DESC")
	if filter.Status != "" {
		query = query.Where("?TableAlias.status = ?", string(filter.Status))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	events := make([]core.WebhookEvent, 0, len(records))
	for i := range records {
		events = append(events, webhookEventToDomain(&records[i]))
	}
	return events, nil
}

func (s *WebhookEventStore) Claim(ctx context.Context, eventID string, now time.Time, lease time.Duration) (core.WebhookEvent, bool, error) {
	if s == nil || s.db == nil {
		return core.WebhookEvent{}, false, fmt.Errorf("sqlstore: webhook event store is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return core.WebhookEvent{}, false, fmt.Errorf("sqlstore: event id is required")
	}
	now = now.UTC()
	leaseUntil := now.Add(lease)

	var records []webhookEventRecord
	query := `
UPDATE webhook_events
SET status = ?,
	attempts = attempts + 1,
	last_attempt_at = ?,
	next_retry_at = ?,
	updated_at = ?
WHERE event_id = ?
  AND status IN (?, ?)
  AND (next_retry_at IS NULL OR next_retry_at <= ?)
RETURNING
	event_id,
	event_type,
	store_id,
	client_id,
	order_id,
	payload,
	webhook_url,
	status,
	attempts,
	last_error,
	last_attempt_at,
	next_retry_at,
	created_at,
	updated_at
`
	err := s.db.NewRaw(
		query,
		string(core.EventStatusRetrying),
		now,
		leaseUntil,
		now,
		eventID,
		string(core.EventStatusPending),
		string(core.EventStatusRetrying),
		now,
	).Scan(ctx, &records)
	if err != nil {
		return core.WebhookEvent{}, false, err
	}
	if len(records) == 0 {
		// Distinguish a lost claim from a missing row.
		exists, existsErr := s.db.NewSelect().
			Model((*webhookEventRecord)(nil)).
			Where("event_id = ?", eventID).
			Exists(ctx)
		if existsErr != nil {
			return core.WebhookEvent{}, false, existsErr
		}
		if !exists {
			return core.WebhookEvent{}, false, eventNotFound(eventID)
		}
		return core.WebhookEvent{}, false, nil
	}
	return webhookEventToDomain(&records[0]), true, nil
}

func (s *WebhookEventStore) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]core.WebhookEvent, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: webhook event store is not configured")
	}
	if limit <= 0 {
		limit = 1
	}
	now = now.UTC()
	leaseUntil := now.Add(lease)

	var records []webhookEventRecord
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		query := `
WITH claimed AS (
	SELECT event_id
	FROM webhook_events
	WHERE status IN (?, ?)
	  AND (next_retry_at IS NULL OR next_retry_at <= ?)
	ORDER BY created_at ASC
	LIMIT ?
)
UPDATE webhook_events
SET status = ?,
	attempts = attempts + 1,
	last_attempt_at = ?,
	next_retry_at = ?,
	updated_at = ?
WHERE event_id IN (SELECT event_id FROM claimed)
  AND status IN (?, ?)
  AND (next_retry_at IS NULL OR next_retry_at <= ?)
RETURNING
	event_id,
	event_type,
	store_id,
	client_id,
	order_id,
	payload,
	webhook_url,
	status,
	attempts,
	last_error,
	last_attempt_at,
	next_retry_at,
	created_at,
	updated_at
`
		return tx.NewRaw(
			query,
			string(core.EventStatusPending),
			string(core.EventStatusRetrying),
			now,
			limit,
			string(core.EventStatusRetrying),
			now,
			leaseUntil,
			now,
			string(core.EventStatusPending),
			string(core.EventStatusRetrying),
			now,
		).Scan(ctx, &records)
	})
	if err != nil {
		return nil, err
	}

	events := make([]core.WebhookEvent, 0, len(records))
	for i := range records {
		events = append(events, webhookEventToDomain(&records[i]))
	}
	return events, nil
}

func (s *WebhookEventStore) MarkDelivered(ctx context.Context, eventID string, at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: webhook event store is not configured")
	}
	_, err := s.db.NewUpdate().
		Model((*webhookEventRecord)(nil)).
		Set("status = ?", string(core.EventStatusDelivered)).
		Set("last_error = ?", "").
		Set("next_retry_at = NULL").
		Set("updated_at = ?", at.UTC()).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		Exec(ctx)
	return err
}

func (s *WebhookEventStore) MarkRetrying(ctx context.Context, eventID string, cause string, nextRetryAt time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: webhook event store is not configured")
	}
	_, err := s.db.NewUpdate().
		Model((*webhookEventRecord)(nil)).
		Set("status = ?", string(core.EventStatusRetrying)).
		Set("last_error = ?", strings.TrimSpace(cause)).
		Set("next_retry_at = ?", nextRetryAt.UTC()).
		Set("updated_at = ?", time.Now().UTC()).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		Exec(ctx)
	return err
}

func (s *WebhookEventStore) MarkFailed(ctx context.Context, eventID string, cause string, at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: webhook event store is not configured")
	}
	_, err := s.db.NewUpdate().
		Model((*webhookEventRecord)(nil)).
		Set("status = ?", string(core.EventStatusFailed)).
		Set("last_error = ?", strings.TrimSpace(cause)).
		Set("next_retry_at = NULL").
		Set("updated_at = ?", at.UTC()).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		Exec(ctx)
	return err
}

// ResetForRetry rearms a delivered or failed event for manual
// redelivery. Rows that are pending or mid-attempt are refused with a
// conflict so the reset can never hand the dispatcher an event another
// attempt still owns. The payload column is deliberately untouched.
func (s *WebhookEventStore) ResetForRetry(ctx context.Context, eventID string, now time.Time) (core.WebhookEvent, error) {
	if s == nil || s.db == nil {
		return core.WebhookEvent{}, fmt.Errorf("sqlstore: webhook event store is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return core.WebhookEvent{}, fmt.Errorf("sqlstore: event id is required")
	}
	result, err := s.db.NewUpdate().
		Model((*webhookEventRecord)(nil)).
		Set("status = ?", string(core.EventStatusPending)).
		Set("attempts = ?", 0).
		Set("last_error = ?", "").
		Set("next_retry_at = NULL").
		Set("updated_at = ?", now.UTC()).
		Where("event_id = ?", eventID).
		Where("status IN (?, ?)", string(core.EventStatusFailed), string(core.EventStatusDelivered)).
		Exec(ctx)
	if err != nil {
		return core.WebhookEvent{}, err
	}
	if affected, affectedErr := result.RowsAffected(); affectedErr == nil && affected == 0 {
		existing, getErr := s.Get(ctx, eventID)
		if getErr != nil {
			return core.WebhookEvent{}, getErr
		}
		return core.WebhookEvent{}, retryConflict(eventID, existing.Status)
	}
	return s.Get(ctx, eventID)
}

func eventNotFound(eventID string) error {
	return goerrors.New(
		fmt.Sprintf("sqlstore: event %s not found", eventID),
		goerrors.CategoryNotFound,
	)
}

func retryConflict(eventID string, status core.EventStatus) error {
	return goerrors.New(
		fmt.Sprintf("sqlstore: event %s is %s and cannot be rearmed", eventID, status),
		goerrors.CategoryConflict,
	)
}

var _ core.EventStore = (*WebhookEventStore)(nil)
