package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GoOptionsResolver merges defaults, loaded configuration, and runtime
// overrides through a go-options layer stack, highest priority last.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || strings.TrimSpace(cfg.HTTP.Addr) != "" {
		layer["http"] = map[string]any{
			"addr": cfg.HTTP.Addr,
		}
	}
	if includeZero || strings.TrimSpace(cfg.Database.Driver) != "" || strings.TrimSpace(cfg.Database.DSN) != "" || cfg.Database.Debug {
		database := map[string]any{}
		if includeZero || strings.TrimSpace(cfg.Database.Driver) != "" {
			database["driver"] = cfg.Database.Driver
		}
		if includeZero || strings.TrimSpace(cfg.Database.DSN) != "" {
			database["dsn"] = cfg.Database.DSN
		}
		if includeZero || cfg.Database.Debug {
			database["debug"] = cfg.Database.Debug
		}
		layer["database"] = database
	}
	webhooks := map[string]any{}
	setDuration := func(key string, value time.Duration) {
		if includeZero || value > 0 {
			webhooks[key] = value
		}
	}
	if includeZero || cfg.Webhooks.MaxAttempts > 0 {
		webhooks["max_attempts"] = cfg.Webhooks.MaxAttempts
	}
	setDuration("backoff_base", cfg.Webhooks.BackoffBase)
	setDuration("timeout", cfg.Webhooks.Timeout)
	setDuration("claim_lease", cfg.Webhooks.ClaimLease)
	setDuration("sweep_interval", cfg.Webhooks.SweepInterval)
	if includeZero || cfg.Webhooks.SweepBatch > 0 {
		webhooks["sweep_batch"] = cfg.Webhooks.SweepBatch
	}
	if includeZero || strings.TrimSpace(cfg.Webhooks.SigningSecret) != "" {
		webhooks["signing_secret"] = cfg.Webhooks.SigningSecret
	}
	if len(webhooks) > 0 {
		layer["webhooks"] = webhooks
	}
	return layer
}
