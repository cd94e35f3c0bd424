package core

import (
	"fmt"
	"strings"
	"time"
)

type HTTPConfig struct {
	Addr string `koanf:"addr" mapstructure:"addr"`
}

type DatabaseConfig struct {
	Driver string `koanf:"driver" mapstructure:"driver"`
	DSN    string `koanf:"dsn" mapstructure:"dsn"`
	Debug  bool   `koanf:"debug" mapstructure:"debug"`
}

type WebhookConfig struct {
	MaxAttempts   int           `koanf:"max_attempts" mapstructure:"max_attempts"`
	BackoffBase   time.Duration `koanf:"backoff_base" mapstructure:"backoff_base"`
	Timeout       time.Duration `koanf:"timeout" mapstructure:"timeout"`
	ClaimLease    time.Duration `koanf:"claim_lease" mapstructure:"claim_lease"`
	SweepInterval time.Duration `koanf:"sweep_interval" mapstructure:"sweep_interval"`
	SweepBatch    int           `koanf:"sweep_batch" mapstructure:"sweep_batch"`
	SigningSecret string        `koanf:"signing_secret" mapstructure:"signing_secret"`
}

type Config struct {
	ServiceName string         `koanf:"service_name" mapstructure:"service_name"`
	HTTP        HTTPConfig     `koanf:"http" mapstructure:"http"`
	Database    DatabaseConfig `koanf:"database" mapstructure:"database"`
	Webhooks    WebhookConfig  `koanf:"webhooks" mapstructure:"webhooks"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "marketplace",
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "file:marketplace.db?_foreign_keys=on",
		},
		Webhooks: WebhookConfig{
			MaxAttempts:   3,
			BackoffBase:   2 * time.Second,
			Timeout:       10 * time.Second,
			ClaimLease:    30 * time.Second,
			SweepInterval: 30 * time.Second,
			SweepBatch:    10,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Database.Driver) == "" {
		return fmt.Errorf("core: database.driver is required")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("core: database.driver %q is not supported", c.Database.Driver)
	}
	if c.Webhooks.MaxAttempts <= 0 {
		return fmt.Errorf("core: webhooks.max_attempts must be positive")
	}
	if c.Webhooks.BackoffBase <= 0 {
		return fmt.Errorf("core: webhooks.backoff_base must be positive")
	}
	if c.Webhooks.Timeout <= 0 {
		return fmt.Errorf("core: webhooks.timeout must be positive")
	}
	if c.Webhooks.ClaimLease <= c.Webhooks.Timeout {
		return fmt.Errorf("core: webhooks.claim_lease must exceed webhooks.timeout")
	}
	if c.Webhooks.SweepInterval <= 0 {
		return fmt.Errorf("core: webhooks.sweep_interval must be positive")
	}
	if c.Webhooks.SweepBatch <= 0 {
		return fmt.Errorf("core: webhooks.sweep_batch must be positive")
	}
	return nil
}
