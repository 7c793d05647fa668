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

package postgres

import (
	"sync"

	"github.com/XioNoX/peering-manager/database/plugin"
)

// Connection defaults for a cache living next to a peering-manager
// deployment, which conventionally owns a "peering_manager" role and
// database
const (
	DefaultHost     = "localhost"
	DefaultPort     = 5432
	DefaultUser     = "peering_manager"
	DefaultDatabase = "peering_manager"
	// DefaultSSLMode uses TLS when the server offers it and falls back to
	// plaintext on local sockets
	DefaultSSLMode  = "prefer"
	DefaultTimeZone = "UTC"
)

var (
	cmdlineOptions struct {
		host     string
		port     uint64
		user     string
		password string
		database string
		sslMode  string
		timeZone string
		dsn      string
	}
	cmdlineOptionsMutex sync.RWMutex
)

func initCmdlineOptions() {
	cmdlineOptionsMutex.Lock()
	defer cmdlineOptionsMutex.Unlock()
	cmdlineOptions.host = DefaultHost
	cmdlineOptions.port = DefaultPort
	cmdlineOptions.user = DefaultUser
	cmdlineOptions.password = ""
	cmdlineOptions.database = DefaultDatabase
	cmdlineOptions.sslMode = DefaultSSLMode
	cmdlineOptions.timeZone = DefaultTimeZone
	cmdlineOptions.dsn = ""
}

func init() {
	initCmdlineOptions()
	// Each option also honors the matching libpq variable, so an existing
	// PG* environment works unchanged
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               "postgres",
			Description:        "PeeringDB cache in PostgreSQL",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "host",
					Type:         plugin.PluginOptionTypeString,
					Description:  "PostgreSQL server host",
					DefaultValue: DefaultHost,
					CustomEnvVar: "PGHOST",
					Dest:         &(cmdlineOptions.host),
				},
				{
					Name:         "port",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "PostgreSQL server port",
					DefaultValue: uint64(DefaultPort),
					CustomEnvVar: "PGPORT",
					Dest:         &(cmdlineOptions.port),
				},
				{
					Name:         "user",
					Type:         plugin.PluginOptionTypeString,
					Description:  "role owning the cache tables",
					DefaultValue: DefaultUser,
					CustomEnvVar: "PGUSER",
					Dest:         &(cmdlineOptions.user),
				},
				{
					Name:         "password",
					Type:         plugin.PluginOptionTypeString,
					Description:  "password of the cache role",
					DefaultValue: "",
					CustomEnvVar: "PGPASSWORD",
					Dest:         &(cmdlineOptions.password),
				},
				{
					Name:         "database",
					Type:         plugin.PluginOptionTypeString,
					Description:  "database holding the cache tables",
					DefaultValue: DefaultDatabase,
					CustomEnvVar: "PGDATABASE",
					Dest:         &(cmdlineOptions.database),
				},
				{
					Name:         "ssl-mode",
					Type:         plugin.PluginOptionTypeString,
					Description:  "libpq sslmode (disable, prefer, require, verify-full)",
					DefaultValue: DefaultSSLMode,
					CustomEnvVar: "PGSSLMODE",
					Dest:         &(cmdlineOptions.sslMode),
				},
				{
					Name:         "timezone",
					Type:         plugin.PluginOptionTypeString,
					Description:  "session TimeZone for checkpoint timestamps",
					DefaultValue: DefaultTimeZone,
					CustomEnvVar: "PGTZ",
					Dest:         &(cmdlineOptions.timeZone),
				},
				{
					Name:         "dsn",
					Type:         plugin.PluginOptionTypeString,
					Description:  "full connection string, replaces every other option",
					DefaultValue: "",
					Dest:         &(cmdlineOptions.dsn),
				},
			},
		},
	)
}

func NewFromCmdlineOptions() plugin.Plugin {
	cmdlineOptionsMutex.RLock()
	opts := []PostgresOptionFunc{
		WithHost(cmdlineOptions.host),
		WithPort(uint(cmdlineOptions.port)),
		WithUser(cmdlineOptions.user),
		WithPassword(cmdlineOptions.password),
		WithDatabase(cmdlineOptions.database),
		WithSSLMode(cmdlineOptions.sslMode),
		WithTimeZone(cmdlineOptions.timeZone),
		WithDSN(cmdlineOptions.dsn),
	}
	cmdlineOptionsMutex.RUnlock()

	p, err := NewWithOptions(opts...)
	if err != nil {
		// Start reports the error
		return plugin.NewErrorPlugin(err)
	}
	return p
}
