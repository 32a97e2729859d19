package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/catalog"
	"github.com/viakashmir/admin-console/internal/core/events"
	"github.com/viakashmir/admin-console/internal/database"
	"github.com/viakashmir/admin-console/internal/metrics"
	"github.com/viakashmir/admin-console/internal/preset"
	presetRepository "github.com/viakashmir/admin-console/internal/preset/postgres"
	"github.com/viakashmir/admin-console/internal/resource"
	"github.com/viakashmir/admin-console/internal/token"
	"github.com/viakashmir/admin-console/pkg/logger"
)

// Dependencies is everything a command needs to reach the admin API. The
// preset database is opened on first use.
type Dependencies struct {
	Config    *internal.Config
	Logger    *slog.Logger
	Collector *metrics.Collector
	Registry  *catalog.Registry
	Bus       *events.EventBus
	Redis     *redis.Client
	Tokens    *token.Provider
	Client    *resource.Client

	db      *sqlx.DB
	gorm    *gorm.DB
	presets *preset.Service
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.LoggerWrapper()
	collector := metrics.NewCollector()
	httpClient := &http.Client{Timeout: cfg.API.Timeout}

	var (
		rdb   *redis.Client
		store token.Store = token.NewMemoryStore()
	)
	if cfg.Cache.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			lg.Warn("redis unreachable, caching the api token in memory", "addr", cfg.Cache.RedisAddr, "error", err)
			_ = rdb.Close()
			rdb = nil
		} else {
			store = token.NewRedisStore(rdb)
		}
	}

	tokens := token.NewProvider(token.Config{
		BaseURL:      cfg.API.BaseURL,
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		MinValidity:  cfg.Auth.MinValidity,
		DefaultTTL:   cfg.Auth.DefaultTTL,
		Timeout:      cfg.API.Timeout,
	}, store, httpClient, collector, lg.With("component", "token"))

	client := resource.NewClient(resource.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, tokens, httpClient, collector, lg.With("component", "resource"))

	bus := events.NewEventBus(lg)
	subscribeAudit(bus, lg)

	return &Dependencies{
		Config:    cfg,
		Logger:    lg,
		Collector: collector,
		Registry:  catalog.NewRegistry(cfg.Views.PageSizes),
		Bus:       bus,
		Redis:     rdb,
		Tokens:    tokens,
		Client:    client,
	}, nil
}

// Database opens the preset database and applies pending migrations.
func (d *Dependencies) Database(ctx context.Context) (*sqlx.DB, *gorm.DB, error) {
	if d.db != nil {
		return d.db, d.gorm, nil
	}
	db, err := database.Open(d.Config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(ctx, db.DB, d.Config.Database.Driver, false, d.Logger); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	gdb, err := database.Gorm(db, d.Config.Database.Driver, d.Config.Observability.Logging.Level == "debug")
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	d.db, d.gorm = db, gdb
	return db, gdb, nil
}

func (d *Dependencies) Presets(ctx context.Context) (*preset.Service, error) {
	if d.presets != nil {
		return d.presets, nil
	}
	_, gdb, err := d.Database(ctx)
	if err != nil {
		return nil, err
	}
	d.presets = preset.NewService(presetRepository.NewPresetRepository(gdb), d.Registry, d.Logger.With("component", "preset"))
	return d.presets, nil
}

func (d *Dependencies) Entity(name string) (catalog.Entity, error) {
	return d.Registry.Get(name)
}

func (d *Dependencies) Close() {
	d.Bus.Wait()
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			d.Logger.Error("database close error", "error", err)
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("redis close error", "error", err)
		}
	}
}
