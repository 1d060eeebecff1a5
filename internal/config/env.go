package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Pattern: EXPORTFIX_[SECTION]_[KEY].
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.ProjectRoot, "EXPORTFIX_PROJECT_ROOT")
	setEnvString(&cfg.DefaultExt, "EXPORTFIX_DEFAULT_EXT")

	// Database
	setEnvBoolPtr(&cfg.DB.Enabled, "EXPORTFIX_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "EXPORTFIX_DB_PATH")
	setEnvDuration(&cfg.DB.BusyTimeout, "EXPORTFIX_DB_BUSY_TIMEOUT")

	// Cache
	setEnvBoolPtr(&cfg.Cache.Enabled, "EXPORTFIX_CACHE_ENABLED")
	setEnvString(&cfg.Cache.Dir, "EXPORTFIX_CACHE_DIR")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "EXPORTFIX_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.RateLimit, "EXPORTFIX_WATCH_RATE_LIMIT")

	// Output
	setEnvString(&cfg.Output.Format, "EXPORTFIX_OUTPUT_FORMAT")
	setEnvString(&cfg.Output.Path, "EXPORTFIX_OUTPUT_PATH")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "EXPORTFIX_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.MetricsAddr, "EXPORTFIX_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "EXPORTFIX_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "EXPORTFIX_OBSERVABILITY_ENABLE_TRACING")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
