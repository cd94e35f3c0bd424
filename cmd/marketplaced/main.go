package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	gocmd "github.com/goliatone/go-command"
	repositorycache "github.com/goliatone/go-repository-cache/cache"

	marketplace "github.com/goliatone/go-marketplace"
	"github.com/goliatone/go-marketplace/adapters/gocommand"
	"github.com/goliatone/go-marketplace/adapters/gojob"
	"github.com/goliatone/go-marketplace/adapters/gologger"
	"github.com/goliatone/go-marketplace/auth"
	"github.com/goliatone/go-marketplace/core"
	"github.com/goliatone/go-marketplace/migrations"
	"github.com/goliatone/go-marketplace/rest"
	"github.com/goliatone/go-marketplace/security"
	sqlstore "github.com/goliatone/go-marketplace/store/sql"
	"github.com/goliatone/go-marketplace/webhooks"
)

const (
	demoClientID     = "demo_client_id"
	demoClientSecret = "demo_client_secret"
	demoStoreID      = "store_123"
	demoStoreName    = "Demo Restaurant"

	tokenPruneInterval = time.Hour
	shutdownTimeout    = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "marketplaced: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	_, logger := gologger.Resolve(cfg.ServiceName, nil, newConsoleLogger(cfg.ServiceName))
	observer := core.NewObserver(logger, nil)

	client, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		return fmt.Errorf("build repositories: %w", err)
	}

	secrets, err := buildSecretProvider(factory, cfg.Webhooks.SigningSecret)
	if err != nil {
		return fmt.Errorf("build secret provider: %w", err)
	}

	dispatcher, err := webhooks.NewDispatcher(
		factory.EventStore(),
		webhooks.NewHTTPDeliveryClient(cfg.Webhooks.Timeout),
		secrets,
		webhooks.RetryPolicy{
			MaxAttempts: cfg.Webhooks.MaxAttempts,
			Base:        cfg.Webhooks.BackoffBase,
		},
		cfg.Webhooks.ClaimLease,
		observer,
	)
	if err != nil {
		return fmt.Errorf("build dispatcher: %w", err)
	}
	defer dispatcher.Close()

	integrations, err := buildIntegrationCache(factory.IntegrationStore())
	if err != nil {
		return fmt.Errorf("build integration cache: %w", err)
	}

	trigger, err := webhooks.NewTrigger(
		factory.EventStore(),
		factory.StoreStore(),
		integrations,
		dispatcher,
		observer,
	)
	if err != nil {
		return fmt.Errorf("build trigger: %w", err)
	}

	sweeper, err := webhooks.NewSweeper(
		factory.EventStore(),
		dispatcher,
		cfg.Webhooks.SweepInterval,
		cfg.Webhooks.SweepBatch,
		cfg.Webhooks.ClaimLease,
		observer,
	)
	if err != nil {
		return fmt.Errorf("build sweeper: %w", err)
	}

	provider := cachedStoreProvider{StoreProvider: factory, integrations: integrations}
	service, err := core.NewService(provider, trigger, observer)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	authService, err := auth.NewService(factory.ClientStore(), factory.TokenStore(), auth.ServiceConfig{})
	if err != nil {
		return fmt.Errorf("build auth service: %w", err)
	}

	if err := seedDemoData(ctx, service, authService); err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}

	if err := registerHandlers(service); err != nil {
		return fmt.Errorf("register dispatch handlers: %w", err)
	}

	// Periodic maintenance runs through the job queue: a scheduler
	// enqueues sweep and prune messages, the runner executes them.
	jobQueue := gojob.NewMemoryQueue(32)
	enqueuer := gojob.NewEnqueuerAdapter(jobQueue)
	dequeuer := gojob.NewDequeuerAdapter(jobQueue, gojob.RetryPolicy{MaxAttempts: 1, DeadLetterOnMax: true})
	runner := newJobRunner(dequeuer, observerJobHook{observer: observer}, logger)
	runner.Handle(gojob.JobIDWebhookSweep, func(ctx context.Context) error {
		_, err := sweeper.SweepOnce(ctx)
		return err
	})
	runner.Handle(gojob.JobIDTokenPrune, func(ctx context.Context) error {
		_, err := authService.PruneExpired(ctx)
		return err
	})
	go func() {
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("job runner stopped", "error", err)
		}
	}()
	go scheduleJob(ctx, enqueuer, gojob.JobIDWebhookSweep, cfg.Webhooks.SweepInterval, logger)
	go scheduleJob(ctx, enqueuer, gojob.JobIDTokenPrune, tokenPruneInterval, logger)

	server, err := rest.NewServer(service, authService, rest.WithObserver(observer))
	if err != nil {
		return fmt.Errorf("build http handler: %w", err)
	}
	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: server,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("marketplace listening", "addr", cfg.HTTP.Addr, "driver", cfg.Database.Driver)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	dispatcher.DrainWait()
	return nil
}

// persistenceConfig satisfies the configuration contract go-persistence-bun
// expects when building a client around an already-open *sql.DB.
type persistenceConfig struct {
	debug  bool
	driver string
	server string
}

func (c persistenceConfig) GetDebug() bool                { return c.debug }
func (c persistenceConfig) GetDriver() string             { return c.driver }
func (c persistenceConfig) GetServer() string             { return c.server }
func (c persistenceConfig) GetPingTimeout() time.Duration { return 5 * time.Second }
func (c persistenceConfig) GetOtelIdentifier() string     { return "" }

func openDatabase(ctx context.Context, cfg core.DatabaseConfig) (*persistence.Client, error) {
	var (
		driver           string
		dialect          schema.Dialect
		migrationDialect string
	)
	switch cfg.Driver {
	case "sqlite", "sqlite3":
		driver = "sqlite3"
		dialect = sqlitedialect.New()
		migrationDialect = migrations.DialectSQLite
	case "postgres", "postgresql":
		driver = "postgres"
		dialect = pgdialect.New()
		migrationDialect = migrations.DialectPostgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	sqlDB, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == "sqlite3" {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(persistenceConfig{
		debug:  cfg.Debug,
		driver: driver,
		server: cfg.DSN,
	}, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("new persistence client: %w", err)
	}

	_, err = migrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != migrationDialect {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, migrations.WithValidationTargets(migrationDialect))
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("register migrations: %w", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return client, nil
}

// cachedStoreProvider swaps the read-through integration cache into the
// provider so service writes and trigger reads share one invalidation
// path.
type cachedStoreProvider struct {
	core.StoreProvider
	integrations core.IntegrationStore
}

func (p cachedStoreProvider) IntegrationStore() core.IntegrationStore {
	return p.integrations
}

// buildIntegrationCache fronts integration lookups with an in-process
// cache; the trigger resolves the integration row on every event.
func buildIntegrationCache(base core.IntegrationStore) (core.IntegrationStore, error) {
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	cacheService, err := repositorycache.NewCacheService(config)
	if err != nil {
		return nil, err
	}
	return sqlstore.NewCachedIntegrationStore(base, cacheService)
}

// buildSecretProvider signs webhooks with per-client secrets from the
// database. When a global signing secret is configured it becomes the
// fallback for clients without one instead of failing delivery outright.
func buildSecretProvider(factory *sqlstore.RepositoryFactory, signingSecret string) (core.SecretProvider, error) {
	primary, err := security.NewStoreSecretProvider(factory.ClientStore())
	if err != nil {
		return nil, err
	}
	if signingSecret == "" {
		return primary, nil
	}

	keyring, err := security.NewKeyringSecretProvider(security.WithDefaultSigningSecret(signingSecret))
	if err != nil {
		return nil, err
	}
	return security.NewFailoverSecretProvider(primary,
		security.WithFallbackSecretProvider(keyring),
		security.WithSecretProviderFailurePolicy(security.SecretProviderFailurePolicyFallback),
	)
}

// seedDemoData provisions the demo credentials and store so a fresh
// database is immediately usable for integration testing.
func seedDemoData(ctx context.Context, service *core.Service, authService *auth.Service) error {
	if err := authService.SeedClient(ctx, demoClientID, demoClientSecret); err != nil {
		return err
	}

	if _, err := service.GetStore(ctx, demoStoreID); err == nil {
		return nil
	}
	_, err := service.CreateStore(ctx, core.Store{
		StoreID:  demoStoreID,
		ClientID: demoClientID,
		Name:     demoStoreName,
		Status:   core.StoreStatusOnline,
	})
	return err
}

// registerHandlers exposes the service through the go-command dispatcher
// so embedded callers can Dispatch and Query without holding the service.
func registerHandlers(service *core.Service) error {
	facade, err := marketplace.NewFacade(service)
	if err != nil {
		return err
	}

	adapter := gocommand.NewRegistryAdapter(gocmd.NewRegistry())
	commands := facade.Commands()
	queries := facade.Queries()

	if _, err := gocommand.RegisterAndSubscribe(adapter, commands.TriggerEvent); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribe(adapter, commands.RetryEvent); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribe(adapter, commands.ConfigureWebhook); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribe(adapter, commands.ActivateIntegration); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribe(adapter, commands.UpdateIntegration); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribe(adapter, commands.RemoveIntegration); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribe(adapter, commands.SimulateOrder); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribe(adapter, commands.AcceptOrder); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribe(adapter, commands.DenyOrder); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribe(adapter, commands.ReleaseOrder); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribe(adapter, commands.CancelOrder); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribe(adapter, commands.UpdateDeliveryState); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribe(adapter, commands.SetStoreStatus); err != nil {
		return err
	}

	if _, err := gocommand.RegisterAndSubscribeQuery(adapter, queries.ListWebhookEvents); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribeQuery(adapter, queries.GetWebhookEvent); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribeQuery(adapter, queries.ListStores); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribeQuery(adapter, queries.GetStore); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribeQuery(adapter, queries.GetIntegration); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribeQuery(adapter, queries.ListOrders); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribeQuery(adapter, queries.GetOrder); err != nil {
		return err
	}

	return adapter.Initialize()
}
