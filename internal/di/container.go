// Package di wires the review module's collaborators from configuration:
// storage, logging, transition tables, sync, and the engine service itself.
package di

import (
	"database/sql"
	"fmt"
	"strings"

	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-review/internal/domain"
	"github.com/goliatone/go-review/internal/linksync"
	"github.com/goliatone/go-review/internal/logging"
	"github.com/goliatone/go-review/internal/logging/gologger"
	"github.com/goliatone/go-review/internal/review"
	"github.com/goliatone/go-review/internal/runtimeconfig"
	"github.com/goliatone/go-review/internal/workflow"
	"github.com/goliatone/go-review/pkg/interfaces"
)

// Container wires module dependencies from configuration plus overrides.
type Container struct {
	Config runtimeconfig.Config

	bunDB         *bun.DB
	ownsDB        bool
	store         review.Store
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	provider interfaces.LoggerProvider
	notifier interfaces.ReviewNotifier

	tables map[domain.Kind]workflow.Tables
	flows  review.FlowFactory
	sync   review.Synchronizer
	svc    review.Service
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB supplies an existing database handle instead of opening one from
// the storage configuration.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithStore overrides the persistence layer entirely.
func WithStore(store review.Store) Option {
	return func(c *Container) {
		c.store = store
	}
}

// WithCache enables cached point reads on the bun store.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithLoggerProvider overrides the logger provider built from configuration.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.provider = provider
	}
}

// WithNotifier installs the post-commit status-change notifier.
func WithNotifier(notifier interfaces.ReviewNotifier) Option {
	return func(c *Container) {
		c.notifier = notifier
	}
}

// WithService overrides the default service binding.
func WithService(svc review.Service) Option {
	return func(c *Container) {
		c.svc = svc
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	if err := c.configureStorage(); err != nil {
		return nil, err
	}
	if err := c.configureTables(); err != nil {
		return nil, err
	}
	c.configureService()
	return c, nil
}

func (c *Container) configureLogging() error {
	if c.provider != nil || !c.Config.Features.Logger {
		return nil
	}
	provider, err := gologger.NewProvider(gologger.Config{
		Level:     c.Config.Logging.Level,
		Format:    c.Config.Logging.Format,
		AddSource: c.Config.Logging.AddSource,
		Focus:     c.Config.Logging.Focus,
	})
	if err != nil {
		return err
	}
	c.provider = provider
	return nil
}

func (c *Container) configureStorage() error {
	if c.store != nil {
		return nil
	}

	if c.bunDB == nil && c.Config.Enabled {
		db, err := openDB(c.Config.Storage)
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}

	if c.bunDB == nil {
		c.store = review.NewMemoryStore()
		return nil
	}

	if c.Config.Features.Cache && c.cacheService != nil && c.keySerializer != nil {
		c.store = review.NewBunStoreWithCache(c.bunDB, c.cacheService, c.keySerializer)
		return nil
	}
	c.store = review.NewBunStore(c.bunDB)
	return nil
}

func (c *Container) configureTables() error {
	tables, err := workflow.CompileTableConfigs(c.Config.Review.Tables)
	if err != nil {
		return err
	}
	c.tables = tables
	if len(c.Config.Review.Tables) > 0 {
		c.flows = review.DefaultFlowFactory(tables)
	} else {
		c.flows = review.DefaultFlowFactory(nil)
	}
	return nil
}

func (c *Container) configureService() {
	if c.Config.Features.Sync {
		c.sync = linksync.New(c.store, c.flows,
			linksync.WithLogger(logging.SyncLogger(c.provider)))
	}

	if c.svc != nil {
		return
	}

	svcOpts := []review.Option{
		review.WithFlowFactory(c.flows),
		review.WithStrictStatusCheck(c.Config.Review.StrictStatusCheck || c.Config.Features.StrictStatus),
	}
	if c.provider != nil {
		svcOpts = append(svcOpts, review.WithLoggerProvider(c.provider))
	}
	if c.sync != nil {
		svcOpts = append(svcOpts, review.WithSynchronizer(c.sync))
	}
	if c.notifier != nil {
		svcOpts = append(svcOpts, review.WithNotifier(c.notifier))
	}
	c.svc = review.NewService(c.store, svcOpts...)
}

func openDB(cfg runtimeconfig.StorageConfig) (*bun.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	sqlDB, err := sql.Open(driverName(driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("di: open %s database: %w", driver, err)
	}
	switch driver {
	case "sqlite", "sqlite3":
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	case "postgres", "pg", "pgx":
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		sqlDB.Close()
		return nil, fmt.Errorf("di: unsupported storage driver %q", cfg.Driver)
	}
}

func driverName(driver string) string {
	if driver == "sqlite" {
		return "sqlite3"
	}
	return driver
}

// Service returns the configured review service.
func (c *Container) Service() review.Service {
	return c.svc
}

// Store exposes the persistence layer for advanced integrations.
func (c *Container) Store() review.Store {
	return c.store
}

// Tables returns the compiled transition tables in effect.
func (c *Container) Tables() map[domain.Kind]workflow.Tables {
	return c.tables
}

// FlowFactory returns the flow factory in effect.
func (c *Container) FlowFactory() review.FlowFactory {
	return c.flows
}

// LoggerProvider returns the provider in effect, or nil when logging is disabled.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.provider
}

// DB returns the database handle, or nil when running on the memory store.
func (c *Container) DB() *bun.DB {
	return c.bunDB
}

// Close releases resources the container opened itself. Databases supplied by
// the host stay open.
func (c *Container) Close() error {
	if c.ownsDB && c.bunDB != nil {
		return c.bunDB.Close()
	}
	return nil
}
