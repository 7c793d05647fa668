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

package mysql

import (
	"io"
	"log/slog"
	"testing"

	"github.com/XioNoX/peering-manager/database/plugin"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithHost(t *testing.T) {
	m := &MetadataStoreMysql{}
	option := WithHost("db.local")

	option(m)

	if m.host != "db.local" {
		t.Errorf("Expected host to be 'db.local', got '%s'", m.host)
	}
}

func TestWithLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := &MetadataStoreMysql{}
	option := WithLogger(logger)

	option(m)

	if m.logger != logger {
		t.Errorf("Expected logger to be set")
	}
}

func TestBuildDSNFromParts(t *testing.T) {
	m, err := NewWithOptions(
		WithHost("db.local"),
		WithPort(3307),
		WithUser("peering"),
		WithPassword("secret"),
		WithDatabase("cache"),
		WithSSLMode("skip-verify"),
	)
	require.NoError(t, err)

	dsn, dbName := m.buildDSN()
	assert.Equal(t, "cache", dbName)

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "peering", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "db.local:3307", cfg.Addr)
	assert.Equal(t, "cache", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "skip-verify", cfg.TLSConfig)
}

func TestBuildDSNOverride(t *testing.T) {
	m, err := NewWithOptions(
		WithHost("ignored"),
		WithDSN("root:pw@tcp(10.0.0.1:3306)/pdb?parseTime=true"),
	)
	require.NoError(t, err)

	dsn, dbName := m.buildDSN()
	assert.Equal(t, "root:pw@tcp(10.0.0.1:3306)/pdb?parseTime=true", dsn)
	assert.Equal(t, "pdb", dbName)
}

func TestDefaults(t *testing.T) {
	m, err := NewWithOptions()
	require.NoError(t, err)
	assert.Equal(t, "localhost", m.host)
	assert.Equal(t, uint(3306), m.port)
	assert.Equal(t, DefaultUser, m.user)
	assert.Equal(t, "peering_manager", m.database)

	dsn, dbName := m.buildDSN()
	assert.Equal(t, "peering_manager", dbName)
	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "peering_manager", cfg.User)
	assert.Equal(t, "preferred", cfg.TLSConfig)
	// Stopping a store that was never started is a no-op
	require.NoError(t, m.Stop())
}

func TestCustomEnvVar(t *testing.T) {
	t.Cleanup(initCmdlineOptions)
	t.Setenv("MYSQL_HOST", "from-env")
	require.NoError(t, plugin.ProcessEnvVars())

	p := plugin.GetPlugin(plugin.PluginTypeMetadata, "mysql")
	store, ok := p.(*MetadataStoreMysql)
	require.True(t, ok, "unexpected plugin type %T", p)
	assert.Equal(t, "from-env", store.host)
}
