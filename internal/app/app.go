package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/riskibarqy/bingo-stats/external/wom"
	"github.com/riskibarqy/bingo-stats/internal/config"
	"github.com/riskibarqy/bingo-stats/internal/domain/catalog"
	"github.com/riskibarqy/bingo-stats/internal/domain/eventlog"
	"github.com/riskibarqy/bingo-stats/internal/infrastructure/bundlesource"
	eventloginfra "github.com/riskibarqy/bingo-stats/internal/infrastructure/eventlog"
	"github.com/riskibarqy/bingo-stats/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/bingo-stats/internal/interfaces/httpapi"
	"github.com/riskibarqy/bingo-stats/internal/platform/cache"
	"github.com/riskibarqy/bingo-stats/internal/platform/logging"
	"github.com/riskibarqy/bingo-stats/internal/platform/metrics"
	"github.com/riskibarqy/bingo-stats/internal/platform/resilience"
	"github.com/riskibarqy/bingo-stats/internal/usecase"
)

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	cat, err := LoadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	drops, err := loadDrops(cfg.EventLogPath, logger)
	if err != nil {
		return nil, err
	}
	defaultMode, err := usecase.ParseSourceMode(cfg.SpoonSource)
	if err != nil {
		return nil, fmt.Errorf("spoon source: %w", err)
	}

	var (
		recorder       *metrics.Recorder
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		recorder = metrics.New()
		metricsHandler = recorder.Handler()
	}

	womClient := NewWOMClient(cfg, recorder, logger)
	bundleSvc := usecase.NewBundleService(womClient, logger.Named("bundle"))
	bundleCache, closeCache, err := newBundleCache(cfg, logger)
	if err != nil {
		return nil, err
	}
	live := bundlesource.NewLiveSource(bundleSvc, bundleCache, recorder, logger.Named("live"))
	snapshot := bundlesource.NewSnapshotSource(cfg.SnapshotPath, recorder, logger.Named("snapshot"))

	leaderboardSvc := usecase.NewLeaderboardService(memory.NewDropRepository(drops))
	spoonSvc := usecase.NewSpoonService(
		leaderboardSvc,
		usecase.NewSpoonEngine(cat),
		usecase.SpoonSources{
			Auto:     bundlesource.FallbackSource{Primary: snapshot, Fallback: live},
			Snapshot: snapshot,
			Live:     live,
		},
		defaultMode,
		cfg.OverviewWorkers,
		logger.Named("spoon"),
	)

	handler := httpapi.NewHandler(leaderboardSvc, spoonSvc, live, logger)
	router := httpapi.NewRouter(handler, logger, metricsHandler, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		closeCache()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}
	server.RegisterOnShutdown(closeCache)

	return server, nil
}

const redisPingTimeout = 3 * time.Second

// newBundleCache picks Redis when BUNDLE_CACHE_REDIS_ADDR is set, process memory otherwise.
func newBundleCache(cfg config.Config, logger *logging.Logger) (bundlesource.BundleCache, func(), error) {
	if cfg.BundleCacheRedisAddr == "" {
		return bundlesource.NewMemoryCache(cache.NewStore(cfg.BundleCacheTTL)), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.BundleCacheRedisAddr,
		Password: cfg.BundleCacheRedisPassword,
		DB:       cfg.BundleCacheRedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping bundle cache redis %s: %w", cfg.BundleCacheRedisAddr, err)
	}
	logger.Info("bundle cache backed by redis", "addr", cfg.BundleCacheRedisAddr, "db", cfg.BundleCacheRedisDB)

	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("close bundle cache redis", "error", err)
		}
	}
	return bundlesource.NewRedisCache(client, cfg.BundleCacheRedisPrefix, cfg.BundleCacheTTL), closeFn, nil
}

// LoadCatalog reads the event tables named by EVENT_TABLES_PATH, or the built-in defaults.
func LoadCatalog(cfg config.Config) (catalog.Catalog, error) {
	tables, err := config.LoadTables(cfg.EventTablesPath)
	if err != nil {
		return catalog.Catalog{}, err
	}
	cat, err := tables.Catalog()
	if err != nil {
		return catalog.Catalog{}, fmt.Errorf("build catalog: %w", err)
	}
	return cat, nil
}

func NewWOMClient(cfg config.Config, recorder *metrics.Recorder, logger *logging.Logger) *wom.Client {
	return wom.NewClient(wom.ClientConfig{
		BaseURL:       cfg.WOMBaseURL,
		APIKey:        cfg.WOMAPIKey,
		UserAgent:     cfg.WOMUserAgent,
		Timeout:       cfg.WOMTimeout,
		MaxAttempts:   cfg.WOMMaxAttempts,
		BaseBackoff:   cfg.WOMBaseBackoff,
		MinBackoff:    cfg.WOMMinBackoff,
		RatePerMinute: cfg.WOMRatePerMinute,
		Logger:        logger.Named("wom"),
		Metrics:       recorder,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.WOMCircuitEnabled,
			FailureThreshold: cfg.WOMCircuitFailureCount,
			OpenTimeout:      cfg.WOMCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.WOMCircuitHalfOpenMaxReq,
		},
	})
}

// loadDrops reads the event log export, or falls back to the seed log when no path is set.
func loadDrops(path string, logger *logging.Logger) ([]eventlog.Drop, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		logger.Warn("EVENT_LOG_PATH not set, serving seed event log")
		return memory.SeedDrops(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	drops, err := eventloginfra.LoadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("load event log %s: %w", path, err)
	}
	logger.InfoContext(context.Background(), "event log loaded", "path", path, "rows", len(drops))
	return drops, nil
}
