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

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

const (
	DefaultListenAddress   = ":8080"
	defaultShutdownTimeout = 30 * time.Second
)

type Config struct {
	ListenAddress   string
	ShutdownTimeout time.Duration
}

// Server is the JSON API consumed by the application layer
type Server struct {
	config     Config
	logger     *slog.Logger
	resolver   Resolver
	sync       Synchronizer
	router     *mux.Router
	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
}

func New(
	cfg Config,
	resolver Resolver,
	synchronizer Synchronizer,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	s := &Server{
		config:   cfg,
		logger:   logger,
		resolver: resolver,
		sync:     synchronizer,
	}
	s.router = s.newRouter()
	return s
}

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestID, s.logRequests)
	r.NotFoundHandler = http.HandlerFunc(s.handleUnknownRoute)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/networks/{asn}", s.handleNetwork).
		Methods(http.MethodGet)
	v1.HandleFunc("/networks/{asn}/ixlans", s.handleNetworkIXLANs).
		Methods(http.MethodGet)
	v1.HandleFunc("/ixlans/{id}", s.handleIXLAN).
		Methods(http.MethodGet)
	v1.HandleFunc("/ixlans/{id}/prefixes", s.handleIXLANPrefixes).
		Methods(http.MethodGet)
	v1.HandleFunc("/ixs/{id}/peers", s.handleIXPeers).
		Methods(http.MethodGet)
	v1.HandleFunc("/sync", s.handleSync).
		Methods(http.MethodPost)
	v1.HandleFunc("/sync/status", s.handleSyncStatus).
		Methods(http.MethodGet)
	return r
}

// Handler returns the routed handler without starting a listener
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the bound address while the server is running
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start binds the listener and serves in the background until Stop is
// called or ctx is done
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return errors.New("server already started")
	}
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 60 * time.Second,
	}
	s.httpServer = server
	s.listener = ln
	shutdown := make(chan struct{})
	server.RegisterOnShutdown(func() {
		close(shutdown)
	})
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	s.logger.Info("API listener started on " + ln.Addr().String())

	go func() {
		select {
		case <-ctx.Done():
		case <-shutdown:
			return
		}
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			s.config.ShutdownTimeout,
		)
		defer cancel()
		s.logger.Debug("context cancelled, shutting down API server")
		//nolint:contextcheck
		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.listener = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.logger.Debug("shutting down API server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	return nil
}
