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

package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/XioNoX/peering-manager/database/plugin"
	"github.com/XioNoX/peering-manager/database/plugin/metadata"
)

const (
	DefaultMetadataPlugin = "sqlite"

	// InMemory as DataDir selects a private in-memory sqlite database
	InMemory = ":memory:"
)

// Config holds the settings for opening the cache database
type Config struct {
	Logger         *slog.Logger
	MetadataPlugin string
	// DataDir overrides the metadata plugin's data-dir option when set
	DataDir string
}

type Database struct {
	logger   *slog.Logger
	metadata metadata.MetadataStore
	config   Config
}

// New opens the cache database using the configured metadata plugin
func New(config *Config) (*Database, error) {
	if config == nil {
		config = &Config{}
	}
	db := &Database{
		config: *config,
		logger: config.Logger,
	}
	if db.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		db.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if db.config.MetadataPlugin == "" {
		db.config.MetadataPlugin = DefaultMetadataPlugin
	}
	if db.config.DataDir != "" {
		dataDir := db.config.DataDir
		if dataDir == InMemory {
			dataDir = ""
		}
		if err := plugin.SetPluginOption(
			plugin.PluginTypeMetadata,
			db.config.MetadataPlugin,
			"data-dir",
			dataDir,
		); err != nil {
			return nil, fmt.Errorf("configure metadata plugin: %w", err)
		}
	}
	metadataDb, err := metadata.New(db.config.MetadataPlugin, db.logger)
	if err != nil {
		return nil, err
	}
	db.metadata = metadataDb
	db.logger.Debug(
		"opened database",
		"component", "database",
		"plugin", db.config.MetadataPlugin,
	)
	return db, nil
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// TransactionContext is Transaction with every query bound to ctx
func (d *Database) TransactionContext(ctx context.Context, readWrite bool) *Txn {
	return newTxnContext(ctx, d, readWrite)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	if d.metadata == nil {
		return nil
	}
	return d.metadata.Close()
}
