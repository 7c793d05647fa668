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

package plugin_test

import (
	"testing"

	"github.com/XioNoX/peering-manager/database/plugin"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type optionDests struct {
	host    string
	port    uint64
	verbose bool
	retries int
}

func registerOptionPlugin(t *testing.T) (string, *optionDests) {
	t.Helper()
	dests := &optionDests{}
	name := "opts-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               name,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{
				Name:         "host",
				Type:         plugin.PluginOptionTypeString,
				DefaultValue: "localhost",
				Dest:         &dests.host,
			},
			{
				Name:         "port",
				Type:         plugin.PluginOptionTypeUint,
				DefaultValue: uint64(5432),
				Dest:         &dests.port,
			},
			{
				Name:         "verbose",
				Type:         plugin.PluginOptionTypeBool,
				DefaultValue: false,
				Dest:         &dests.verbose,
			},
			{
				Name:         "retries",
				Type:         plugin.PluginOptionTypeInt,
				DefaultValue: 3,
				Dest:         &dests.retries,
			},
		},
	})
	return name, dests
}

func TestSetPluginOption(t *testing.T) {
	name, dests := registerOptionPlugin(t)

	require.NoError(
		t,
		plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "host", "db1"),
	)
	assert.Equal(t, "db1", dests.host)

	// Setting with wrong type should return an error
	require.Error(
		t,
		plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "host", 123),
	)

	// uint options accept non-negative ints
	require.NoError(
		t,
		plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "port", 6432),
	)
	assert.Equal(t, uint64(6432), dests.port)
	require.Error(
		t,
		plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "port", -1),
	)

	require.NoError(
		t,
		plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "verbose", true),
	)
	assert.True(t, dests.verbose)

	// Setting an unknown option is a no-op
	require.NoError(
		t,
		plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "does-not-exist", "x"),
	)

	require.Error(
		t,
		plugin.SetPluginOption(plugin.PluginTypeMetadata, "nonexistent", "host", "x"),
	)
}

func TestPopulateCmdlineOptions(t *testing.T) {
	name, dests := registerOptionPlugin(t)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, plugin.PopulateCmdlineOptions(fs))

	// defaults are applied when flags are registered
	assert.Equal(t, "localhost", dests.host)
	assert.Equal(t, uint64(5432), dests.port)
	assert.Equal(t, 3, dests.retries)

	err := fs.Parse([]string{
		"--metadata-" + name + "-host", "db2",
		"--metadata-" + name + "-port", "7000",
	})
	require.NoError(t, err)
	assert.Equal(t, "db2", dests.host)
	assert.Equal(t, uint64(7000), dests.port)

	// explicit flags win over the config file and environment
	t.Setenv(plugin.EnvVarName(plugin.PluginTypeMetadata, name, "host"), "envhost")
	t.Setenv(plugin.EnvVarName(plugin.PluginTypeMetadata, name, "retries"), "9")
	require.NoError(t, plugin.ProcessEnvVars())
	assert.Equal(t, "db2", dests.host)
	assert.Equal(t, 9, dests.retries)

	require.NoError(t, plugin.ProcessConfig(map[string]map[string]map[string]any{
		"metadata": {
			name: {
				"port":    8000,
				"verbose": "true",
			},
		},
	}))
	assert.Equal(t, uint64(7000), dests.port)
	assert.True(t, dests.verbose)
}

func TestEnvVarName(t *testing.T) {
	assert.Equal(
		t,
		"PEERING_MANAGER_METADATA_POSTGRES_SSL_MODE",
		plugin.EnvVarName(plugin.PluginTypeMetadata, "postgres", "ssl-mode"),
	)
	assert.Equal(
		t,
		"metadata-sqlite-data-dir",
		plugin.FlagName(plugin.PluginTypeMetadata, "sqlite", "data-dir"),
	)
}
