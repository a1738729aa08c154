package cliapp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"markprep/internal/core/config"
	"markprep/internal/engine/preprocess"
	"markprep/internal/shared/observability"
)

// session holds what every subcommand shares once the root has started.
type session struct {
	cfg             *config.Config
	pipeline        *preprocess.Pipeline
	server          *ObservabilityServer
	shutdownTracing func(context.Context) error
}

func (rt *session) start(ctx context.Context, opts rootOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyEnvOverrides(cfg)
	if opts.metricsAddr != "" {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	configureLogging(cfg.Log.Level, opts.verbose)

	if endpoint := strings.TrimSpace(cfg.Observability.OTLPEndpoint); endpoint != "" {
		shutdown, err := observability.SetupTracing(ctx, endpoint, cfg.Observability.OTLPInsecure)
		if err != nil {
			return err
		}
		rt.shutdownTracing = shutdown
	}
	if addr := strings.TrimSpace(cfg.Observability.MetricsAddr); addr != "" {
		rt.server = NewObservabilityServer(addr)
		if err := rt.server.Start(ctx); err != nil {
			return err
		}
	}

	pipeline, err := preprocess.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	rt.cfg = cfg
	rt.pipeline = pipeline
	return nil
}

func (rt *session) stop(ctx context.Context) error {
	var errs []error
	if rt.server != nil {
		errs = append(errs, rt.server.Stop(ctx))
	}
	if rt.shutdownTracing != nil {
		errs = append(errs, rt.shutdownTracing(ctx))
	}
	return errors.Join(errs...)
}

// loadConfig reads path. A missing file at the default path yields the defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path == defaultConfigPath && errors.Is(err, fs.ErrNotExist) {
		slog.Debug("no config file, using defaults", "path", path)
		return config.DefaultConfig(), nil
	}
	return nil, err
}

func configureLogging(level string, verbose bool) {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	if verbose {
		logLevel = slog.LevelDebug
	}

	// Stdout carries processed output.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
