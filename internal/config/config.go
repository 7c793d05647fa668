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
	"context"
	"errors"
	"fmt"
	"maps"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/XioNoX/peering-manager/database/plugin"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "peering-manager.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DefaultMetadataPlugin  = "sqlite"
	DefaultPeeringdbUrl    = "https://peeringdb.com/api/"
	DefaultRequestTimeout  = "30s"
	DefaultSyncInterval    = "1h"
	DefaultShutdownTimeout = "30s"

	// UnsetAsn marks an operator ASN that was never configured
	UnsetAsn = -1

	maxAsn = 4294967295
)

// ErrPluginListRequested is returned when the user requests to list available plugins
// This is not an error condition but a successful operation that displays plugin information
var ErrPluginListRequested = errors.New("plugin list requested")

// ErrOperatorAsnUnset is returned by RequireOperatorAsn when no operator ASN
// has been configured
var ErrOperatorAsnUnset = errors.New(
	"operatorAsn is not configured (set PEERING_MANAGER_OPERATOR_ASN)",
)

type tempConfig struct {
	Config   *Config                   `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	OperatorAsn     int64  `yaml:"operatorAsn"     split_words:"true"`
	PeeringdbUrl    string `yaml:"peeringdbUrl"    envconfig:"PEERINGDB_URL"`
	PeeringdbApiKey string `yaml:"peeringdbApiKey" envconfig:"PEERINGDB_API_KEY"`
	RequestTimeout  string `yaml:"requestTimeout"  split_words:"true"`
	// SyncInterval of 0 disables periodic reconciliation in serve mode
	SyncInterval    string `yaml:"syncInterval"    split_words:"true"`
	DatabasePath    string `yaml:"databasePath"    split_words:"true"`
	MetadataPlugin  string `yaml:"metadataPlugin"  envconfig:"DATABASE_METADATA_PLUGIN"`
	BindAddr        string `yaml:"bindAddr"        split_words:"true"`
	ApiPort         uint   `yaml:"apiPort"         split_words:"true"`
	MetricsPort     uint   `yaml:"metricsPort"     split_words:"true"`
	ShutdownTimeout string `yaml:"shutdownTimeout" split_words:"true"`
	// Tracing exports spans over OTLP/HTTP, configured by the standard
	// OTEL_EXPORTER_OTLP_* environment variables
	Tracing       bool `yaml:"tracing"`
	TracingStdout bool `yaml:"tracingStdout" split_words:"true"`
}

// Default returns a config populated with default values
func Default() *Config {
	return &Config{
		OperatorAsn:     UnsetAsn,
		PeeringdbUrl:    DefaultPeeringdbUrl,
		RequestTimeout:  DefaultRequestTimeout,
		SyncInterval:    DefaultSyncInterval,
		DatabasePath:    ".peering-manager",
		MetadataPlugin:  DefaultMetadataPlugin,
		BindAddr:        "0.0.0.0",
		ApiPort:         8080,
		MetricsPort:     9180,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// LoadConfig builds the config from defaults, the config file and the
// environment, in that order of precedence. Plugin options found in the
// file or the environment are applied to the plugin registry.
func LoadConfig(configFile string) (*Config, error) {
	cfg := Default()
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := cfg.loadFile(configFile); err != nil {
			return nil, err
		}
	}
	// Process environment variables
	if err := envconfig.Process("peering_manager", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	// Process plugin environment variables
	if err := plugin.ProcessEnvVars(); err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}
	if cfg.MetadataPlugin == "list" {
		return nil, ErrPluginListRequested
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	// Check for config file in this path: ~/.peering-manager/peering-manager.yaml
	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(
			homeDir,
			".peering-manager",
			"peering-manager.yaml",
		)
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	systemPath := "/etc/peering-manager/peering-manager.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return ""
}

func (c *Config) loadFile(configFile string) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	// First unmarshal into temp config to handle plugin sections
	var tempCfg tempConfig
	if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if tempCfg.Config != nil {
		// Overlay config values onto existing defaults
		configBytes, err := yaml.Marshal(tempCfg.Config)
		if err != nil {
			return fmt.Errorf("error re-marshalling config: %w", err)
		}
		if err := yaml.Unmarshal(configBytes, c); err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	} else if err := yaml.Unmarshal(buf, c); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Metadata != nil {
		pluginConfig["metadata"] = tempCfg.Metadata
	}
	if tempCfg.Database != nil && tempCfg.Database.Metadata != nil {
		metadataConfig := c.metadataSection(tempCfg.Database.Metadata)
		// Merge with existing metadata config instead of overwriting
		if pluginConfig["metadata"] == nil {
			pluginConfig["metadata"] = metadataConfig
		} else {
			maps.Copy(pluginConfig["metadata"], metadataConfig)
		}
	}
	if len(pluginConfig) > 0 {
		if err := plugin.ProcessConfig(pluginConfig); err != nil {
			return fmt.Errorf("error processing plugin config: %w", err)
		}
	}
	return nil
}

// metadataSection extracts the plugin name from a database.metadata section
// and returns the per-plugin option maps
func (c *Config) metadataSection(
	section map[string]any,
) map[string]map[string]any {
	if pluginVal, exists := section["plugin"]; exists {
		if pluginName, ok := pluginVal.(string); ok {
			c.MetadataPlugin = pluginName
		}
	}
	ret := make(map[string]map[string]any)
	for k, v := range section {
		if k == "plugin" {
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			ret[k] = val
		case map[any]any:
			// Convert map[any]any to map[string]any
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			ret[k] = stringAnyMap
		default:
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping metadata config entry %q: expected map, got %T\n",
				k,
				v,
			)
		}
	}
	return ret
}

// Validate checks the values that can be checked without side effects
func (c *Config) Validate() error {
	if c.OperatorAsn != UnsetAsn && (c.OperatorAsn < 1 || c.OperatorAsn > maxAsn) {
		return fmt.Errorf(
			"invalid operatorAsn %d: must be within 1..%d",
			c.OperatorAsn,
			maxAsn,
		)
	}
	durations := []struct {
		name  string
		value string
	}{
		{"requestTimeout", c.RequestTimeout},
		{"syncInterval", c.SyncInterval},
		{"shutdownTimeout", c.ShutdownTimeout},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
		if v < 0 {
			return fmt.Errorf("invalid %s %q: must not be negative", d.name, d.value)
		}
	}
	return nil
}

// RequireOperatorAsn returns the operator ASN, or ErrOperatorAsnUnset
func (c *Config) RequireOperatorAsn() (int64, error) {
	if c.OperatorAsn == UnsetAsn {
		return 0, ErrOperatorAsnUnset
	}
	return c.OperatorAsn, nil
}

// RequestTimeoutDuration returns the registry request timeout
func (c *Config) RequestTimeoutDuration() time.Duration {
	return mustDuration(c.RequestTimeout, DefaultRequestTimeout)
}

// SyncIntervalDuration returns the periodic reconciliation interval, 0 when
// disabled
func (c *Config) SyncIntervalDuration() time.Duration {
	return mustDuration(c.SyncInterval, DefaultSyncInterval)
}

func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.ShutdownTimeout, DefaultShutdownTimeout)
}

func (c *Config) ApiListenAddress() string {
	return net.JoinHostPort(c.BindAddr, strconv.FormatUint(uint64(c.ApiPort), 10))
}

func (c *Config) MetricsListenAddress() string {
	return net.JoinHostPort(
		c.BindAddr,
		strconv.FormatUint(uint64(c.MetricsPort), 10),
	)
}

// mustDuration parses value, falling back to fallback for values that
// Validate would reject
func mustDuration(value string, fallback string) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d >= 0 {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}
