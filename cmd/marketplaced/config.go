package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-marketplace/core"
)

// envConfigLoader builds the raw configuration map from MARKETPLACE_*
// environment variables. Anything unset falls through to the defaults.
type envConfigLoader struct{}

func (envConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	raw := map[string]any{}

	if value := envString("MARKETPLACE_SERVICE_NAME"); value != "" {
		raw["service_name"] = value
	}
	if value := envString("MARKETPLACE_HTTP_ADDR"); value != "" {
		raw["http"] = map[string]any{"addr": value}
	}

	database := map[string]any{}
	if value := envString("MARKETPLACE_DB_DRIVER"); value != "" {
		database["driver"] = value
	}
	if value := envString("MARKETPLACE_DB_DSN"); value != "" {
		database["dsn"] = value
	}
	if value := envString("MARKETPLACE_DB_DEBUG"); value != "" {
		debug, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("parse MARKETPLACE_DB_DEBUG: %w", err)
		}
		database["debug"] = debug
	}
	if len(database) > 0 {
		raw["database"] = database
	}

	webhooks := map[string]any{}
	if value := envString("MARKETPLACE_WEBHOOKS_MAX_ATTEMPTS"); value != "" {
		attempts, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("parse MARKETPLACE_WEBHOOKS_MAX_ATTEMPTS: %w", err)
		}
		webhooks["max_attempts"] = attempts
	}
	if value := envString("MARKETPLACE_WEBHOOKS_SWEEP_BATCH"); value != "" {
		batch, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("parse MARKETPLACE_WEBHOOKS_SWEEP_BATCH: %w", err)
		}
		webhooks["sweep_batch"] = batch
	}
	for env, key := range map[string]string{
		"MARKETPLACE_WEBHOOKS_BACKOFF_BASE":   "backoff_base",
		"MARKETPLACE_WEBHOOKS_TIMEOUT":        "timeout",
		"MARKETPLACE_WEBHOOKS_CLAIM_LEASE":    "claim_lease",
		"MARKETPLACE_WEBHOOKS_SWEEP_INTERVAL": "sweep_interval",
	} {
		value := envString(env)
		if value == "" {
			continue
		}
		duration, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", env, err)
		}
		webhooks[key] = duration
	}
	if value := envString("MARKETPLACE_WEBHOOKS_SIGNING_SECRET"); value != "" {
		webhooks["signing_secret"] = value
	}
	if len(webhooks) > 0 {
		raw["webhooks"] = webhooks
	}

	return raw, nil
}

func loadConfig(ctx context.Context) (core.Config, error) {
	provider := core.NewCfgxConfigProvider(envConfigLoader{})
	return provider.Load(ctx, core.DefaultConfig())
}

func envString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
