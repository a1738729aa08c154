package config

import "time"

type Config struct {
	Version        int                       `toml:"version"`
	ModulesDir     string                    `toml:"modules_dir"`
	Defaults       Defaults                  `toml:"defaults"`
	Aliases        []Alias                   `toml:"aliases"`
	AliasOverrides map[string]map[string]any `toml:"alias_overrides"`
	Transformers   map[string]map[string]any `toml:"transformers"`
	Commands       map[string]Command        `toml:"commands"`
	Watch          Watch                     `toml:"watch"`
	Output         Output                    `toml:"output"`
	Observability  Observability             `toml:"observability"`
	Log            Log                       `toml:"log"`
}

// Defaults are the languages assumed for blocks that name none.
type Defaults struct {
	Script string `toml:"script"`
	Style  string `toml:"style"`
}

type Alias struct {
	Alias string `toml:"alias"`
	Lang  string `toml:"lang"`
}

// Command replaces the transformer of a language with an external process
// that reads the block on stdin and writes the result to stdout.
type Command struct {
	Argv    []string      `toml:"argv"`
	Timeout time.Duration `toml:"timeout"`
	// Rate caps process starts per second. Zero means unlimited.
	Rate float64 `toml:"rate"`
}

type Watch struct {
	Debounce     time.Duration `toml:"debounce"`
	Extensions   []string      `toml:"extensions"`
	ExcludeDirs  []string      `toml:"exclude_dirs"`
	ExcludeFiles []string      `toml:"exclude_files"`
}

type Output struct {
	Dir string `toml:"dir"`
}

type Observability struct {
	MetricsAddr string `toml:"metrics_addr"`
	// OTLPEndpoint enables span export over OTLP/gRPC when set (host:port).
	OTLPEndpoint string `toml:"otlp_endpoint"`
	OTLPInsecure bool   `toml:"otlp_insecure"`
}

type Log struct {
	Level string `toml:"level"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
