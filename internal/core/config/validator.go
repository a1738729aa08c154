package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/gobwas/glob"
)

// Validate reports every problem in cfg, joined.
func Validate(cfg *Config) error {
	var errs []error
	errs = append(errs, validateVersion(cfg)...)
	errs = append(errs, validateAliases(cfg)...)
	errs = append(errs, validateCommands(cfg)...)
	errs = append(errs, validateWatch(cfg)...)
	errs = append(errs, validateObservability(cfg)...)
	errs = append(errs, validateLog(cfg)...)
	return errors.Join(errs...)
}

func validateVersion(cfg *Config) []error {
	if cfg.Version != 1 {
		return []error{fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)}
	}
	return nil
}

func validateAliases(cfg *Config) []error {
	var errs []error
	for i, a := range cfg.Aliases {
		ref := fmt.Sprintf("aliases[%d]", i)
		if a.Alias == "" {
			errs = append(errs, fmt.Errorf("%s.alias must not be empty", ref))
		}
		if a.Lang == "" {
			errs = append(errs, fmt.Errorf("%s.lang must not be empty", ref))
		}
	}
	return errs
}

func validateCommands(cfg *Config) []error {
	var errs []error
	for lang, cmd := range cfg.Commands {
		if len(cmd.Argv) == 0 || strings.TrimSpace(cmd.Argv[0]) == "" {
			errs = append(errs, fmt.Errorf("commands.%s.argv must name a program", lang))
		}
		if cmd.Rate < 0 {
			errs = append(errs, fmt.Errorf("commands.%s.rate must not be negative", lang))
		}
	}
	return errs
}

func validateWatch(cfg *Config) []error {
	var errs []error
	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative"))
	}
	for _, p := range append(append([]string(nil), cfg.Watch.ExcludeDirs...), cfg.Watch.ExcludeFiles...) {
		if _, err := glob.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("invalid watch exclude pattern %q: %w", p, err))
		}
	}
	for i, ext := range cfg.Watch.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("watch.extensions[%d] %q must start with a dot", i, ext))
		}
	}
	return errs
}

func validateObservability(cfg *Config) []error {
	var errs []error
	if addr := strings.TrimSpace(cfg.Observability.MetricsAddr); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			errs = append(errs, fmt.Errorf("observability.metrics_addr %q: %w", addr, err))
		}
	}
	if addr := strings.TrimSpace(cfg.Observability.OTLPEndpoint); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			errs = append(errs, fmt.Errorf("observability.otlp_endpoint %q: %w", addr, err))
		}
	}
	return errs
}

func validateLog(cfg *Config) []error {
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return []error{fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", cfg.Log.Level)}
}
