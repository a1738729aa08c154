package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse decodes TOML, applies defaults and validates the result.
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	normalizeAliases(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.ModulesDir) == "" {
		cfg.ModulesDir = "node_modules"
	}
	if strings.TrimSpace(cfg.Defaults.Script) == "" {
		cfg.Defaults.Script = "javascript"
	}
	if strings.TrimSpace(cfg.Defaults.Style) == "" {
		cfg.Defaults.Style = "css"
	}
	for lang, cmd := range cfg.Commands {
		if cmd.Timeout <= 0 {
			cmd.Timeout = 30 * time.Second
			cfg.Commands[lang] = cmd
		}
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if len(cfg.Watch.Extensions) == 0 {
		cfg.Watch.Extensions = []string{".svelte", ".html"}
	}
	if cfg.Watch.ExcludeDirs == nil {
		cfg.Watch.ExcludeDirs = []string{".git", "node_modules"}
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = "info"
	}
}

func normalizeAliases(cfg *Config) {
	for i := range cfg.Aliases {
		cfg.Aliases[i].Alias = strings.TrimSpace(cfg.Aliases[i].Alias)
		cfg.Aliases[i].Lang = strings.TrimSpace(cfg.Aliases[i].Lang)
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
}
