// Copyright 2026 The Peering Manager Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/XioNoX/peering-manager/api"
	"github.com/XioNoX/peering-manager/database"
	"github.com/XioNoX/peering-manager/internal/config"
	"github.com/XioNoX/peering-manager/internal/version"
	"github.com/XioNoX/peering-manager/peeringdb"
	"github.com/XioNoX/peering-manager/reconcile"
	"github.com/XioNoX/peering-manager/resolver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OpenDatabase opens the cache database described by cfg. An empty
// database path selects an in-memory cache.
func OpenDatabase(
	cfg *config.Config,
	logger *slog.Logger,
) (*database.Database, error) {
	dataDir := cfg.DatabasePath
	if dataDir == "" {
		dataDir = database.InMemory
	}
	db, err := database.New(&database.Config{
		Logger:         logger,
		MetadataPlugin: cfg.MetadataPlugin,
		DataDir:        dataDir,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// NewRegistryClient builds the registry client described by cfg
func NewRegistryClient(
	cfg *config.Config,
	logger *slog.Logger,
) *peeringdb.Client {
	opts := []peeringdb.ClientOption{
		peeringdb.WithLogger(logger),
		peeringdb.WithTimeout(cfg.RequestTimeoutDuration()),
		peeringdb.WithUserAgent(version.UserAgent()),
	}
	if cfg.PeeringdbApiKey != "" {
		opts = append(opts, peeringdb.WithAPIKey(cfg.PeeringdbApiKey))
	}
	return peeringdb.NewClient(cfg.PeeringdbUrl, opts...)
}

// Run serves the API and metrics and keeps the cache reconciled until a
// termination signal is received
func Run(cfg *config.Config, logger *slog.Logger) error {
	logger = logger.With("component", "node")
	redacted := *cfg
	if redacted.PeeringdbApiKey != "" {
		redacted.PeeringdbApiKey = "<redacted>"
	}
	logger.Debug(fmt.Sprintf("config: %+v", redacted))

	operatorAsn, err := cfg.RequireOperatorAsn()
	if err != nil {
		return err
	}
	if cfg.Tracing {
		shutdownTracing, err := setupTracing(context.Background(), cfg)
		if err != nil {
			return err
		}
		defer func() {
			//nolint:contextcheck
			ctx, cancel := context.WithTimeout(
				context.Background(),
				cfg.ShutdownTimeoutDuration(),
			)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				logger.Error("tracing shutdown error", "error", err)
			}
		}()
		logger.Info("tracing enabled", "stdout", cfg.TracingStdout)
	}
	db, err := OpenDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	client := NewRegistryClient(cfg, logger)
	synchronizer, err := reconcile.New(reconcile.Config{
		DB:           db,
		Client:       client,
		Logger:       logger,
		PromRegistry: prometheus.DefaultRegisterer,
	})
	if err != nil {
		return err
	}
	peerResolver, err := resolver.New(resolver.Config{
		DB:          db,
		Client:      client,
		OperatorAsn: operatorAsn,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	shutdownTimeout := cfg.ShutdownTimeoutDuration()

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	apiServer := api.New(
		api.Config{
			ListenAddress:   cfg.ApiListenAddress(),
			ShutdownTimeout: shutdownTimeout,
		},
		peerResolver,
		synchronizer,
		logger,
	)
	if err := apiServer.Start(signalCtx); err != nil {
		return err
	}

	var metricsServer *http.Server
	metricsErr := make(chan error, 1)
	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:              cfg.MetricsListenAddress(),
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		logger.Info(
			"serving prometheus metrics on " + cfg.MetricsListenAddress(),
		)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				metricsErr <- fmt.Errorf("metrics listener: %w", err)
			}
		}()
	}

	var wg sync.WaitGroup
	if interval := cfg.SyncIntervalDuration(); interval > 0 {
		logger.Info(
			"periodic reconciliation enabled",
			"interval", interval.String(),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			synchronizer.RunPeriodic(signalCtx, interval)
		}()
	}

	var runErr error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
	case runErr = <-metricsErr:
		logger.Error(runErr.Error())
		signalCtxStop()
	}

	//nolint:contextcheck
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		shutdownTimeout,
	)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("API server shutdown error", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}
	// Let a pass in flight finish or abort
	wg.Wait()
	logger.Info("shutdown complete")
	return runErr
}
