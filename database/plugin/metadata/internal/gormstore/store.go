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

// Package gormstore holds the query implementation shared by the gorm based
// metadata store plugins.
package gormstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/XioNoX/peering-manager/database/models"
	"github.com/XioNoX/peering-manager/database/types"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

// Store implements the metadata store queries on top of an open gorm
// database handle
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// New configures tracing on db and migrates the cache schema
func New(db *gorm.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s := &Store{
		db:     db,
		logger: logger,
	}
	// Configure tracing for GORM
	if err := s.db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("configure tracing: %w", err)
	}
	for _, model := range models.MigrateModels {
		s.logger.Debug(fmt.Sprintf("creating table: %T", model))
		if err := s.db.AutoMigrate(model); err != nil {
			return nil, fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	return s, nil
}

// DB returns the database handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the underlying database handle
func (s *Store) Close() error {
	// Guard against a store that was never started
	if s == nil || s.db == nil {
		return nil
	}
	db, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return db.Close()
}

// Transaction begins a new read-write transaction bound to ctx. Every query
// run in it carries ctx, so cancelling ctx aborts the transaction and the
// query spans nest under the caller's span. A failure to begin is reported
// by the returned handle on use.
func (s *Store) Transaction(ctx context.Context) types.Txn {
	if ctx == nil {
		ctx = context.Background()
	}
	db := s.db.WithContext(ctx).Begin()
	if db.Error != nil {
		s.logger.Error(
			"failed to begin transaction",
			"error", db.Error,
		)
		return newFailedTxn(db.Error)
	}
	return newTxn(db)
}

// resolveDB returns the handle queries should run against: the
// transaction's when one is given, the store's otherwise
func (s *Store) resolveDB(txn types.Txn) (*gorm.DB, error) {
	if txn == nil {
		return s.db, nil
	}
	t, ok := txn.(*Txn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	if t == nil {
		return nil, types.ErrNilTxn
	}
	if t.beginErr != nil {
		return nil, t.beginErr
	}
	if t.finished || t.db == nil {
		return nil, types.ErrTxnFinished
	}
	return t.db, nil
}
