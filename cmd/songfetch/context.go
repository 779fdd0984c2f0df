package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/songfetch/songfetch-go/internal/api"
	"github.com/songfetch/songfetch-go/internal/config"
	"github.com/songfetch/songfetch-go/internal/metadata"
	"github.com/songfetch/songfetch-go/internal/monitoring"
	"github.com/songfetch/songfetch-go/internal/network"
	"github.com/songfetch/songfetch-go/internal/resolver"
	"github.com/songfetch/songfetch-go/internal/store"
)

// commandContext lazily builds the collaborators commands share: config,
// logger, HTTP client, catalog client, scan store. Construction happens
// on first use under one lock; close tears everything down once.
type commandContext struct {
	configFlag *string

	mu         sync.Mutex
	cfg        *config.Config
	logger     *zap.Logger
	httpClient *http.Client
	catalog    *api.SpotifyClient
	db         *sql.DB
	metrics    *monitoring.MetricsServer
	closed     bool
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (cc *commandContext) configPath() string {
	if cc.configFlag != nil && strings.TrimSpace(*cc.configFlag) != "" {
		return strings.TrimSpace(*cc.configFlag)
	}
	return config.GetConfigPath()
}

func (cc *commandContext) ensureConfig() (*config.Config, error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.configLocked()
}

func (cc *commandContext) configLocked() (*config.Config, error) {
	if cc.cfg != nil {
		return cc.cfg, nil
	}
	cfg, err := config.Load(cc.configPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cc.cfg = cfg
	return cfg, nil
}

func (cc *commandContext) ensureLogger() (*zap.Logger, error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.loggerLocked()
}

func (cc *commandContext) loggerLocked() (*zap.Logger, error) {
	if cc.logger != nil {
		return cc.logger, nil
	}
	cfg, err := cc.configLocked()
	if err != nil {
		return nil, err
	}
	logger, err := monitoring.NewLogger(&monitoring.LogConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	cc.logger = logger
	return logger, nil
}

func (cc *commandContext) ensureHTTPClient() (*http.Client, error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.httpClientLocked()
}

func (cc *commandContext) httpClientLocked() (*http.Client, error) {
	if cc.httpClient != nil {
		return cc.httpClient, nil
	}
	cfg, err := cc.configLocked()
	if err != nil {
		return nil, err
	}

	clientCfg := network.DefaultClientConfig()
	clientCfg.Timeout = time.Duration(cfg.Network.Timeout) * time.Second
	clientCfg.MaxIdleConns = cfg.Network.MaxIdleConns
	clientCfg.ProxyURL = cfg.Network.ProxyURL

	client, err := network.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create HTTP client: %w", err)
	}
	cc.httpClient = client
	return client, nil
}

// ensureCatalog builds the catalog client, validating credentials first.
// The metrics server rides along: it serves scrapes for the duration of
// catalog-bound commands when metrics are enabled.
func (cc *commandContext) ensureCatalog() (*api.SpotifyClient, error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.catalog != nil {
		return cc.catalog, nil
	}

	cfg, err := cc.configLocked()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}

	logger, err := cc.loggerLocked()
	if err != nil {
		return nil, err
	}

	client, err := cc.httpClientLocked()
	if err != nil {
		return nil, err
	}

	apiCfg := api.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		HTTPClient:   client,
	}
	if cfg.Spotify.UserAuth {
		apiCfg.AuthToken = cfg.Spotify.AuthToken
	}

	catalog, err := api.NewSpotifyClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("create catalog client: %w", err)
	}
	cc.catalog = catalog

	if cfg.Metrics.Enabled && cc.metrics == nil {
		health := monitoring.NewHealthChecker(version, cc.db, cc.catalogPing)
		cc.metrics = monitoring.NewMetricsServer(cfg.Metrics.ListenAddr, health, logger)
		cc.metrics.Start()
	}

	return catalog, nil
}

// catalogPing is handed to the health checker, which may probe from its
// own goroutine before or after the catalog client exists.
func (cc *commandContext) catalogPing(ctx context.Context) error {
	cc.mu.Lock()
	catalog := cc.catalog
	cc.mu.Unlock()
	if catalog == nil {
		return nil
	}
	return catalog.Ping(ctx)
}

func (cc *commandContext) ensureDB() (*sql.DB, error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.db != nil {
		return cc.db, nil
	}
	cfg, err := cc.configLocked()
	if err != nil {
		return nil, err
	}
	db, err := store.InitDB(cfg.Scan.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open scan database: %w", err)
	}
	cc.db = db
	return db, nil
}

func (cc *commandContext) scanStore() (*store.ScanStore, error) {
	db, err := cc.ensureDB()
	if err != nil {
		return nil, err
	}
	return store.NewScanStore(db), nil
}

// newResolver wires the resolver core for query resolution. Commands that
// touch the library (scan, tag writing) use newLibraryResolver instead.
func (cc *commandContext) newResolver() (*resolver.Resolver, error) {
	catalog, err := cc.ensureCatalog()
	if err != nil {
		return nil, err
	}
	logger, err := cc.ensureLogger()
	if err != nil {
		return nil, err
	}
	cfg, err := cc.ensureConfig()
	if err != nil {
		return nil, err
	}

	return resolver.New(resolver.Config{
		Catalog:       catalog,
		Logger:        logger,
		SaveExtension: cfg.Resolver.SaveExtension,
	})
}

// newLibraryResolver adds the tag reader and, when persistence is
// enabled, the scan store.
func (cc *commandContext) newLibraryResolver() (*resolver.Resolver, error) {
	catalog, err := cc.ensureCatalog()
	if err != nil {
		return nil, err
	}
	logger, err := cc.ensureLogger()
	if err != nil {
		return nil, err
	}
	cfg, err := cc.ensureConfig()
	if err != nil {
		return nil, err
	}

	resolverCfg := resolver.Config{
		Catalog:       catalog,
		Tags:          metadata.NewManager(nil),
		Logger:        logger,
		SaveExtension: cfg.Resolver.SaveExtension,
	}
	if cfg.Scan.Persist {
		scans, err := cc.scanStore()
		if err != nil {
			return nil, err
		}
		resolverCfg.Scans = scans
	}

	return resolver.New(resolverCfg)
}

// close releases everything the context opened. Safe to call when
// nothing was built and safe to call twice.
func (cc *commandContext) close() {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.closed {
		return
	}
	cc.closed = true

	if cc.metrics != nil {
		_ = cc.metrics.Stop(2 * time.Second)
	}
	if cc.db != nil {
		_ = cc.db.Close()
	}
	if cc.logger != nil {
		_ = cc.logger.Sync()
	}
}
