package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: MARKPREP_[SECTION]_[KEY] (e.g., MARKPREP_LOG_LEVEL).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.ModulesDir, "MARKPREP_MODULES_DIR")

	setEnvString(&cfg.Defaults.Script, "MARKPREP_DEFAULTS_SCRIPT")
	setEnvString(&cfg.Defaults.Style, "MARKPREP_DEFAULTS_STYLE")

	setEnvDuration(&cfg.Watch.Debounce, "MARKPREP_WATCH_DEBOUNCE")

	setEnvString(&cfg.Output.Dir, "MARKPREP_OUTPUT_DIR")
	setEnvString(&cfg.Observability.MetricsAddr, "MARKPREP_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "MARKPREP_OBSERVABILITY_OTLP_ENDPOINT")

	if setEnvString(&cfg.Log.Level, "MARKPREP_LOG_LEVEL") {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	}
}

func setEnvString(target *string, key string) bool {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
		return true
	}
	return false
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
