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

package plugin

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

const envVarPrefix = "PEERING_MANAGER"

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = 1
	PluginOptionTypeBool   PluginOptionType = 2
	PluginOptionTypeInt    PluginOptionType = 3
	PluginOptionTypeUint   PluginOptionType = 4
)

// PluginOption describes a single plugin setting. Dest must be a pointer
// matching Type (*string, *bool, *int or *uint64). CustomEnvVar names an
// additional environment variable consulted when the generated one is unset.
type PluginOption struct {
	Name         string
	Type         PluginOptionType
	Description  string
	DefaultValue any
	CustomEnvVar string
	Dest         any
}

// populatedFlags is the flag set the plugin options were added to. It is
// used to keep explicitly set command line flags from being overridden by
// the config file or environment.
var populatedFlags *pflag.FlagSet

// FlagName returns the command line flag name for a plugin option, e.g.
// "metadata-postgres-host"
func FlagName(pluginType PluginType, pluginName string, optionName string) string {
	return fmt.Sprintf(
		"%s-%s-%s",
		PluginTypeName(pluginType),
		pluginName,
		optionName,
	)
}

// EnvVarName returns the environment variable for a plugin option, e.g.
// "PEERING_MANAGER_METADATA_POSTGRES_HOST"
func EnvVarName(pluginType PluginType, pluginName string, optionName string) string {
	name := envVarPrefix + "_" + FlagName(pluginType, pluginName, optionName)
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// PopulateCmdlineOptions adds a flag for every registered plugin option
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	for _, entry := range pluginEntries {
		for _, opt := range entry.Options {
			name := FlagName(entry.Type, entry.Name, opt.Name)
			if err := addFlag(fs, name, opt); err != nil {
				return err
			}
		}
	}
	populatedFlags = fs
	return nil
}

func addFlag(fs *pflag.FlagSet, name string, opt PluginOption) error {
	switch opt.Type {
	case PluginOptionTypeString:
		dest, def, err := flagArgs[string](opt)
		if err != nil {
			return err
		}
		fs.StringVar(dest, name, def, opt.Description)
	case PluginOptionTypeBool:
		dest, def, err := flagArgs[bool](opt)
		if err != nil {
			return err
		}
		fs.BoolVar(dest, name, def, opt.Description)
	case PluginOptionTypeInt:
		dest, def, err := flagArgs[int](opt)
		if err != nil {
			return err
		}
		fs.IntVar(dest, name, def, opt.Description)
	case PluginOptionTypeUint:
		dest, def, err := flagArgs[uint64](opt)
		if err != nil {
			return err
		}
		fs.Uint64Var(dest, name, def, opt.Description)
	default:
		return fmt.Errorf("unknown type for option %s: %d", name, opt.Type)
	}
	return nil
}

func flagArgs[T any](opt PluginOption) (*T, T, error) {
	var def T
	dest, ok := opt.Dest.(*T)
	if !ok || dest == nil {
		return nil, def, fmt.Errorf(
			"invalid destination for option %s: expected *%T",
			opt.Name,
			def,
		)
	}
	if opt.DefaultValue != nil {
		v, ok := opt.DefaultValue.(T)
		if !ok {
			return nil, def, fmt.Errorf(
				"invalid default value for option %s: expected %T",
				opt.Name,
				def,
			)
		}
		def = v
	}
	return dest, def, nil
}

func flagChanged(pluginType PluginType, pluginName string, optionName string) bool {
	if populatedFlags == nil {
		return false
	}
	return populatedFlags.Changed(FlagName(pluginType, pluginName, optionName))
}

// ProcessEnvVars applies plugin options from the environment
func ProcessEnvVars() error {
	for _, entry := range pluginEntries {
		for _, opt := range entry.Options {
			envName := EnvVarName(entry.Type, entry.Name, opt.Name)
			raw, ok := os.LookupEnv(envName)
			if !ok && opt.CustomEnvVar != "" {
				envName = opt.CustomEnvVar
				raw, ok = os.LookupEnv(envName)
			}
			if !ok || flagChanged(entry.Type, entry.Name, opt.Name) {
				continue
			}
			value, err := parseOptionValue(opt.Type, raw)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", envName, err)
			}
			if err := SetPluginOption(entry.Type, entry.Name, opt.Name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessConfig applies plugin options from the config file. The map is
// keyed by plugin type name, then plugin name, then option name.
func ProcessConfig(pluginConfig map[string]map[string]map[string]any) error {
	for _, entry := range pluginEntries {
		typeConfig, ok := pluginConfig[PluginTypeName(entry.Type)]
		if !ok {
			continue
		}
		options, ok := typeConfig[entry.Name]
		if !ok {
			continue
		}
		for _, opt := range entry.Options {
			value, ok := options[opt.Name]
			if !ok || flagChanged(entry.Type, entry.Name, opt.Name) {
				continue
			}
			// Scalars in YAML may not decode to the option's Go type
			if s, isString := value.(string); isString &&
				opt.Type != PluginOptionTypeString {
				parsed, err := parseOptionValue(opt.Type, s)
				if err != nil {
					return fmt.Errorf(
						"invalid value for %s plugin %s option %s: %w",
						PluginTypeName(entry.Type),
						entry.Name,
						opt.Name,
						err,
					)
				}
				value = parsed
			} else if opt.Type == PluginOptionTypeString && !isString {
				value = fmt.Sprint(value)
			}
			if err := SetPluginOption(entry.Type, entry.Name, opt.Name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseOptionValue(optType PluginOptionType, raw string) (any, error) {
	switch optType {
	case PluginOptionTypeString:
		return raw, nil
	case PluginOptionTypeBool:
		return strconv.ParseBool(raw)
	case PluginOptionTypeInt:
		return strconv.Atoi(raw)
	case PluginOptionTypeUint:
		return strconv.ParseUint(raw, 10, 64)
	default:
		return nil, fmt.Errorf("unknown option type %d", optType)
	}
}
