package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// EventStore is the durable ledger behind the delivery engine. Claim and
// ClaimDue are the only paths that may move an event into an attempt:
// both perform a guarded update that increments attempts, stamps
// last_attempt_at, and parks next_retry_at at now+lease so a crashed
// attempt becomes due again once the lease expires.
type EventStore interface {
	Create(ctx context.Context, event WebhookEvent) (WebhookEvent, error)
	Get(ctx context.Context, eventID string) (WebhookEvent, error)
	List(ctx context.Context, filter EventFilter) ([]WebhookEvent, error)

	// Claim attempts to take ownership of a single event. ok=false with a
	// nil error means another worker holds the attempt or the event is
	// terminal; it is not a failure.
	Claim(ctx context.Context, eventID string, now time.Time, lease time.Duration) (WebhookEvent, bool, error)
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]WebhookEvent, error)

	MarkDelivered(ctx context.Context, eventID string, at time.Time) error
	MarkRetrying(ctx context.Context, eventID string, cause string, nextRetryAt time.Time) error
	MarkFailed(ctx context.Context, eventID string, cause string, at time.Time) error

	// ResetForRetry rearms a delivered or failed event for manual
	// redelivery: status back to pending, attempt counter cleared,
	// payload untouched. Pending or mid-attempt events are refused
	// with a conflict.
	ResetForRetry(ctx context.Context, eventID string, now time.Time) (WebhookEvent, error)
}

type IntegrationStore interface {
	Upsert(ctx context.Context, in UpsertIntegrationInput) (StoreIntegration, error)
	GetByStore(ctx context.Context, storeID string) (StoreIntegration, error)
	Patch(ctx context.Context, storeID string, patch IntegrationPatch) (StoreIntegration, error)
	Delete(ctx context.Context, storeID string) error
}

type StoreStore interface {
	Create(ctx context.Context, store Store) (Store, error)
	Get(ctx context.Context, storeID string) (Store, error)
	List(ctx context.Context, clientID string) ([]Store, error)
	UpdateStatus(ctx context.Context, storeID string, status StoreStatus) (Store, error)
	SetWebhookURL(ctx context.Context, storeID string, url string) (Store, error)
}

type OrderStore interface {
	Create(ctx context.Context, in CreateOrderInput) (Order, error)
	Get(ctx context.Context, orderID string) (Order, error)
	List(ctx context.Context, storeID string, limit int) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID string, status OrderStatus) (Order, error)
}

type TokenStore interface {
	Save(ctx context.Context, token AccessToken) error
	Get(ctx context.Context, token string) (AccessToken, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type ClientStore interface {
	Upsert(ctx context.Context, client Client) error
	Get(ctx context.Context, clientID string) (Client, error)
}

type StoreProvider interface {
	EventStore() EventStore
	IntegrationStore() IntegrationStore
	StoreStore() StoreStore
	OrderStore() OrderStore
	TokenStore() TokenStore
	ClientStore() ClientStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

// EventTrigger turns a domain action into a stored webhook event and
// hands it to the delivery engine. Implemented by the webhooks package.
type EventTrigger interface {
	Trigger(ctx context.Context, req TriggerRequest) (TriggerResult, error)
	RetryEvent(ctx context.Context, eventID string) (WebhookEvent, error)
}

// DeliveryClient performs exactly one delivery attempt; retry decisions
// belong to the caller. A non-2xx response surfaces as an error.
type DeliveryClient interface {
	Deliver(ctx context.Context, req DeliveryRequest) (DeliveryResult, error)
}

type PayloadSigner interface {
	Sign(payload []byte) string
}

// SecretProvider resolves the shared signing secret for a client.
type SecretProvider interface {
	SigningSecret(ctx context.Context, clientID string) (string, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type CommandMessage interface {
	Type() string
}

type CommandDispatcher interface {
	Dispatch(ctx context.Context, msg any) error
}

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}
