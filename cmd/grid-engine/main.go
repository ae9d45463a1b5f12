package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/surendarrv/datagrid/internal/annotations"
	"github.com/surendarrv/datagrid/internal/api"
	"github.com/surendarrv/datagrid/internal/config"
	"github.com/surendarrv/datagrid/internal/grid"
	"github.com/surendarrv/datagrid/internal/kv"
	"github.com/surendarrv/datagrid/internal/metrics"
	"github.com/surendarrv/datagrid/internal/reconcile"
	"github.com/surendarrv/datagrid/internal/repo"
	"github.com/surendarrv/datagrid/internal/services"
	"github.com/surendarrv/datagrid/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting grid-engine",
		slog.String("address", cfg.Server.Address),
		slog.Int("records", cfg.Grid.Records),
		slog.Int("page_size", cfg.Grid.PageSize))

	if err := run(cfg, logger); err != nil {
		logger.Error("grid-engine exited", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("grid-engine stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := kv.Open(ctx, storeConfig(cfg), logger)
	if err != nil {
		return err
	}
	defer provider.Close()

	dispatcher := reconcile.NewDispatcher(payrollClient(cfg, logger), reconcile.Options{
		QueueSize: cfg.Payroll.QueueSize,
		Workers:   cfg.Payroll.Workers,
		Timeout:   cfg.Payroll.Timeout,
		Logger:    logger.With(slog.String("component", "reconcile")),
	})

	ctrl, err := grid.New(grid.Synthetic(cfg.Grid.Records, cfg.Grid.Seed), grid.Options{
		PageSize:  cfg.Grid.PageSize,
		PageDelay: cfg.Grid.PageDelay,
		Outbox:    dispatcher,
		Logger:    logger.With(slog.String("component", "grid")),
	})
	if err != nil {
		return err
	}
	dispatcher.OnResult(ctrl.ObserveReconciliation)

	store := annotations.NewStore(provider, cfg.Store.Key, cfg.Store.Timeout, logger.With(slog.String("component", "annotations")))
	if err := annotations.Attach(ctx, ctrl, store); err != nil {
		return err
	}

	gridService := services.NewGridService(logger, ctrl, dispatcher)
	server, err := api.NewServer(cfg.Server, gridService)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		g.Go(func() error {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("gRPC server listening", slog.String("address", server.Address()))
		return server.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer cancel()
		server.Shutdown(shutdownCtx)
		ctrl.Close()
		if err := dispatcher.Close(shutdownCtx); err != nil {
			logger.Warn("reconcile queue not drained", slog.Any("error", err))
		}

		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server shutdown", slog.Any("error", err))
			}
		}
		return nil
	})

	return g.Wait()
}

func storeConfig(cfg *config.Config) kv.Config {
	return kv.Config{
		Driver: cfg.Store.Driver,
		Valkey: kv.ValkeyConfig{
			Addr:         cfg.Store.Valkey.Addr,
			Username:     cfg.Store.Valkey.Username,
			Password:     cfg.Store.Valkey.Password,
			DB:           cfg.Store.Valkey.DB,
			Prefix:       cfg.Store.Valkey.Prefix,
			DialTimeout:  cfg.Store.Valkey.DialTimeout,
			ReadTimeout:  cfg.Store.Valkey.ReadTimeout,
			WriteTimeout: cfg.Store.Valkey.WriteTimeout,
			MaxRetries:   cfg.Store.Valkey.MaxRetries,
			TLS:          cfg.Store.Valkey.TLS,
		},
		SQLitePath:  cfg.Store.SQLite.Path,
		PostgresDSN: cfg.Store.Postgres.DSN,
		Badger: kv.BadgerConfig{
			Path:       cfg.Store.Badger.Path,
			InMemory:   cfg.Store.Badger.InMemory,
			SyncWrites: cfg.Store.Badger.SyncWrites,
		},
	}
}

func payrollClient(cfg *config.Config, logger *slog.Logger) reconcile.Client {
	if cfg.Payroll.BaseURL == "" {
		logger.Info("payroll base URL not set, using logging mock", slog.Duration("delay", cfg.Payroll.MockDelay))
		return repo.LoggingPayroll{Delay: cfg.Payroll.MockDelay, Logger: logger.With(slog.String("component", "payroll"))}
	}
	return repo.NewPayrollClient(cfg.Payroll.BaseURL, cfg.Payroll.Path, cfg.Payroll.Timeout, logger.With(slog.String("component", "payroll")))
}
