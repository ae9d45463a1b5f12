package kv

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverValkey   = "valkey"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

// Config selects and configures one backend.
type Config struct {
	Driver      string
	Valkey      ValkeyConfig
	SQLitePath  string
	PostgresDSN string
	Badger      BadgerConfig
}

// Open builds the Provider named by cfg.Driver. An empty driver selects the
// in-memory backend.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))

	var (
		provider Provider
		err      error
	)
	switch driver {
	case "", DriverMemory:
		driver = DriverMemory
		provider = NewMemoryProvider()
	case DriverValkey:
		provider, err = NewValkeyProvider(ctx, cfg.Valkey)
	case DriverSQLite:
		provider, err = NewSQLiteProvider(ctx, cfg.SQLitePath)
	case DriverPostgres:
		provider, err = NewPostgresProvider(ctx, cfg.PostgresDSN)
	case DriverBadger:
		badgerCfg := cfg.Badger
		if badgerCfg.Logger == nil {
			badgerCfg.Logger = logger.With(slog.String("component", "badger"))
		}
		provider, err = NewBadgerProvider(badgerCfg)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}

	logger.Info("annotation store opened", slog.String("driver", driver))
	return provider, nil
}
