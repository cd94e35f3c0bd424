package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type webhookEventRecord struct {
	bun.BaseModel `bun:"table:webhook_events,alias:we"`

	EventID       string     `bun:"event_id,pk"`
	EventType     string     `bun:"event_type,notnull"`
	StoreID       string     `bun:"store_id,notnull"`
	ClientID      string     `bun:"client_id,notnull"`
	OrderID       *string    `bun:"order_id"`
	Payload       []byte     `bun:"payload,notnull"`
	WebhookURL    string     `bun:"webhook_url,notnull"`
	Status        string     `bun:"status,notnull"`
	Attempts      int        `bun:"attempts,notnull"`
	LastError     string     `bun:"last_error"`
	LastAttemptAt *time.Time `bun:"last_attempt_at,nullzero"`
	NextRetryAt   *time.Time `bun:"next_retry_at,nullzero"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type storeIntegrationRecord struct {
	bun.BaseModel `bun:"table:store_integrations,alias:si"`

	ID                      string         `bun:"id,pk"`
	StoreID                 string         `bun:"store_id,notnull"`
	ClientID                string         `bun:"client_id,notnull"`
	IntegratorStoreID       string         `bun:"integrator_store_id"`
	IntegratorBrandID       string         `bun:"integrator_brand_id"`
	MerchantStoreID         string         `bun:"merchant_store_id"`
	IsOrderManager          bool           `bun:"is_order_manager,notnull"`
	RequireManualAcceptance bool           `bun:"require_manual_acceptance,notnull"`
	IntegrationEnabled      bool           `bun:"integration_enabled,notnull"`
	StoreConfigurationData  string         `bun:"store_configuration_data"`
	WebhooksConfig          map[string]any `bun:"webhooks_config,type:jsonb"`
	CreatedAt               time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt               time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type storeRecord struct {
	bun.BaseModel `bun:"table:stores,alias:st"`

	StoreID    string    `bun:"store_id,pk"`
	ClientID   string    `bun:"client_id,notnull"`
	Name       string    `bun:"name,notnull"`
	Status     string    `bun:"status,notnull"`
	WebhookURL string    `bun:"webhook_url"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type orderRecord struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	OrderID   string         `bun:"order_id,pk"`
	StoreID   string         `bun:"store_id,notnull"`
	Status    string         `bun:"status,notnull"`
	OrderData map[string]any `bun:"order_data,type:jsonb"`
	CreatedAt time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type clientRecord struct {
	bun.BaseModel `bun:"table:clients,alias:c"`

	ClientID     string    `bun:"client_id,pk"`
	ClientSecret string    `bun:"client_secret,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type tokenRecord struct {
	bun.BaseModel `bun:"table:tokens,alias:t"`

	AccessToken string    `bun:"access_token,pk"`
	ClientID    string    `bun:"client_id,notnull"`
	GrantType   string    `bun:"grant_type,notnull"`
	Scope       string    `bun:"scope"`
	ExpiresAt   time.Time `bun:"expires_at,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
