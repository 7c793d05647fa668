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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "peering-manager.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeoutDuration())
	assert.Equal(t, time.Hour, cfg.SyncIntervalDuration())
	_, err = cfg.RequireOperatorAsn()
	require.ErrorIs(t, err, ErrOperatorAsnUnset)
}

func TestLoad_CompareFullStruct(t *testing.T) {
	path := writeConfigFile(t, `
operatorAsn: 64500
peeringdbUrl: "https://registry.example.net/api"
peeringdbApiKey: "secret"
requestTimeout: "5s"
syncInterval: "0s"
databasePath: "/var/lib/peering-manager"
metadataPlugin: "postgres"
bindAddr: "127.0.0.1"
apiPort: 8000
metricsPort: 9000
shutdownTimeout: "10s"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	expected := &Config{
		OperatorAsn:     64500,
		PeeringdbUrl:    "https://registry.example.net/api",
		PeeringdbApiKey: "secret",
		RequestTimeout:  "5s",
		SyncInterval:    "0s",
		DatabasePath:    "/var/lib/peering-manager",
		MetadataPlugin:  "postgres",
		BindAddr:        "127.0.0.1",
		ApiPort:         8000,
		MetricsPort:     9000,
		ShutdownTimeout: "10s",
	}
	assert.Equal(t, expected, cfg)
	assert.Equal(t, time.Duration(0), cfg.SyncIntervalDuration())
	assert.Equal(t, "127.0.0.1:8000", cfg.ApiListenAddress())
	assert.Equal(t, "127.0.0.1:9000", cfg.MetricsListenAddress())
	asn, err := cfg.RequireOperatorAsn()
	require.NoError(t, err)
	assert.Equal(t, int64(64500), asn)
}

func TestLoad_ConfigSection(t *testing.T) {
	path := writeConfigFile(t, `
config:
  operatorAsn: 64501
  apiPort: 8081
database:
  metadata:
    plugin: mysql
    mysql:
      host: db.example.net
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(64501), cfg.OperatorAsn)
	assert.Equal(t, uint(8081), cfg.ApiPort)
	assert.Equal(t, "mysql", cfg.MetadataPlugin)
	// Values not in the file keep their defaults
	assert.Equal(t, DefaultPeeringdbUrl, cfg.PeeringdbUrl)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
operatorAsn: 64500
apiPort: 8000
`)
	t.Setenv("PEERING_MANAGER_OPERATOR_ASN", "64999")
	t.Setenv("PEERING_MANAGER_PEERINGDB_API_KEY", "from-env")
	t.Setenv("PEERING_MANAGER_SYNC_INTERVAL", "15m")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(64999), cfg.OperatorAsn)
	assert.Equal(t, "from-env", cfg.PeeringdbApiKey)
	assert.Equal(t, 15*time.Minute, cfg.SyncIntervalDuration())
	assert.Equal(t, uint(8000), cfg.ApiPort)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "asn out of range", content: "operatorAsn: 0\n"},
		{name: "asn too large", content: "operatorAsn: 4294967296\n"},
		{name: "bad duration", content: "requestTimeout: soon\n"},
		{name: "negative interval", content: "syncInterval: -1m\n"},
		{name: "bad yaml", content: "operatorAsn: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, tc.content))
			require.Error(t, err)
		})
	}
}

func TestLoad_PluginListRequested(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PEERING_MANAGER_DATABASE_METADATA_PLUGIN", "list")
	_, err := LoadConfig("")
	require.ErrorIs(t, err, ErrPluginListRequested)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	cfg := Default()
	ctx := WithContext(t.Context(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
	assert.Nil(t, FromContext(t.Context()))
}
