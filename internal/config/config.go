package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/bingo-stats/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	HTTPAddr                   string
	CORSAllowedOrigins         []string
	ReadTimeout                time.Duration
	WriteTimeout               time.Duration
	EventLogPath               string
	EventTablesPath            string
	SnapshotPath               string
	SpoonSource                string
	BundleCacheTTL             time.Duration
	BundleCacheRedisAddr       string
	BundleCacheRedisPassword   string
	BundleCacheRedisDB         int
	BundleCacheRedisPrefix     string
	OverviewWorkers            int
	WOMBaseURL                 string
	WOMAPIKey                  string
	WOMUserAgent               string
	WOMTimeout                 time.Duration
	WOMMaxAttempts             int
	WOMBaseBackoff             time.Duration
	WOMMinBackoff              time.Duration
	WOMRatePerMinute           float64
	WOMCircuitEnabled          bool
	WOMCircuitFailureCount     int
	WOMCircuitOpenTimeout      time.Duration
	WOMCircuitHalfOpenMaxReq   int
	MetricsEnabled             bool
	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	LogLevel                   logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	metricsEnabled, err := strconv.ParseBool(getEnv("METRICS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse METRICS_ENABLED: %w", err)
	}

	spoonSource := strings.ToLower(strings.TrimSpace(getEnv("SPOON_SOURCE", "auto")))
	switch spoonSource {
	case "auto", "snapshot", "live":
	default:
		return Config{}, fmt.Errorf("invalid SPOON_SOURCE %q: valid values are auto, snapshot, live", spoonSource)
	}

	bundleCacheTTL, err := time.ParseDuration(getEnv("BUNDLE_CACHE_TTL", "6h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BUNDLE_CACHE_TTL: %w", err)
	}
	if bundleCacheTTL <= 0 {
		return Config{}, fmt.Errorf("BUNDLE_CACHE_TTL must be > 0")
	}
	bundleCacheRedisDB, err := getEnvAsInt("BUNDLE_CACHE_REDIS_DB", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse BUNDLE_CACHE_REDIS_DB: %w", err)
	}
	if bundleCacheRedisDB < 0 {
		return Config{}, fmt.Errorf("BUNDLE_CACHE_REDIS_DB must be >= 0")
	}
	overviewWorkers, err := getEnvAsInt("OVERVIEW_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse OVERVIEW_WORKERS: %w", err)
	}
	if overviewWorkers < 1 {
		return Config{}, fmt.Errorf("OVERVIEW_WORKERS must be >= 1")
	}

	womTimeout, err := time.ParseDuration(getEnv("WOM_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WOM_TIMEOUT: %w", err)
	}
	if womTimeout <= 0 {
		return Config{}, fmt.Errorf("WOM_TIMEOUT must be > 0")
	}
	womMaxAttempts, err := getEnvAsInt("WOM_MAX_ATTEMPTS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse WOM_MAX_ATTEMPTS: %w", err)
	}
	if womMaxAttempts < 1 {
		return Config{}, fmt.Errorf("WOM_MAX_ATTEMPTS must be >= 1")
	}
	womBaseBackoff, err := time.ParseDuration(getEnv("WOM_BASE_BACKOFF", "2s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WOM_BASE_BACKOFF: %w", err)
	}
	if womBaseBackoff <= 0 {
		return Config{}, fmt.Errorf("WOM_BASE_BACKOFF must be > 0")
	}
	womMinBackoff, err := time.ParseDuration(getEnv("WOM_MIN_BACKOFF", "1s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WOM_MIN_BACKOFF: %w", err)
	}
	if womMinBackoff <= 0 {
		return Config{}, fmt.Errorf("WOM_MIN_BACKOFF must be > 0")
	}
	womRatePerMinute, err := strconv.ParseFloat(strings.TrimSpace(getEnv("WOM_RATE_PER_MINUTE", "20")), 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse WOM_RATE_PER_MINUTE: %w", err)
	}
	if womRatePerMinute < 0 {
		return Config{}, fmt.Errorf("WOM_RATE_PER_MINUTE must be >= 0")
	}

	womCircuitEnabled, err := strconv.ParseBool(getEnv("WOM_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WOM_CIRCUIT_ENABLED: %w", err)
	}
	womCircuitFailureCount, err := getEnvAsInt("WOM_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse WOM_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if womCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("WOM_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	womCircuitOpenTimeout, err := time.ParseDuration(getEnv("WOM_CIRCUIT_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WOM_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if womCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("WOM_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	womCircuitHalfOpenMaxReq, err := getEnvAsInt("WOM_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse WOM_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if womCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("WOM_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	// Live spoon views can wait on several rate-limited WOM calls.
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "120s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "bingo-stats-api"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:                readTimeout,
		WriteTimeout:               writeTimeout,
		EventLogPath:               strings.TrimSpace(getEnv("EVENT_LOG_PATH", "")),
		EventTablesPath:            strings.TrimSpace(getEnv("EVENT_TABLES_PATH", "")),
		SnapshotPath:               strings.TrimSpace(getEnv("SNAPSHOT_PATH", "data/wom_snapshot.json")),
		SpoonSource:                spoonSource,
		BundleCacheTTL:             bundleCacheTTL,
		BundleCacheRedisAddr:       strings.TrimSpace(getEnv("BUNDLE_CACHE_REDIS_ADDR", "")),
		BundleCacheRedisPassword:   getEnv("BUNDLE_CACHE_REDIS_PASSWORD", ""),
		BundleCacheRedisDB:         bundleCacheRedisDB,
		BundleCacheRedisPrefix:     strings.TrimSpace(getEnv("BUNDLE_CACHE_REDIS_PREFIX", "bingo-stats:bundle:")),
		OverviewWorkers:            overviewWorkers,
		WOMBaseURL:                 strings.TrimSpace(getEnv("WOM_BASE_URL", "https://api.wiseoldman.net/v2")),
		WOMAPIKey:                  strings.TrimSpace(getEnv("WOM_API_KEY", "")),
		WOMUserAgent:               strings.TrimSpace(getEnv("WOM_USER_AGENT", "bingo-stats/1.0")),
		WOMTimeout:                 womTimeout,
		WOMMaxAttempts:             womMaxAttempts,
		WOMBaseBackoff:             womBaseBackoff,
		WOMMinBackoff:              womMinBackoff,
		WOMRatePerMinute:           womRatePerMinute,
		WOMCircuitEnabled:          womCircuitEnabled,
		WOMCircuitFailureCount:     womCircuitFailureCount,
		WOMCircuitOpenTimeout:      womCircuitOpenTimeout,
		WOMCircuitHalfOpenMaxReq:   womCircuitHalfOpenMaxReq,
		MetricsEnabled:             metricsEnabled,
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		LogLevel:                   logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
