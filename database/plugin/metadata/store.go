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

package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/XioNoX/peering-manager/database/models"
	"github.com/XioNoX/peering-manager/database/plugin"
	_ "github.com/XioNoX/peering-manager/database/plugin/metadata/mysql"
	_ "github.com/XioNoX/peering-manager/database/plugin/metadata/postgres"
	_ "github.com/XioNoX/peering-manager/database/plugin/metadata/sqlite"
	"github.com/XioNoX/peering-manager/database/types"
	"gorm.io/gorm"
)

// MetadataStore is the local cache of registry objects. Every method takes
// an optional transaction; nil runs the operation on its own. Lookups return
// nil, nil when nothing matches.
type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	Transaction(ctx context.Context) types.Txn

	// Networks
	GetNetwork(int64, types.Txn) (*models.Network, error)
	GetNetworkByAsn(int64, types.Txn) (*models.Network, error)
	SetNetwork(*models.Network, types.Txn) error
	DeleteNetwork(int64, types.Txn) (bool, error)

	// Network IX LAN presences
	GetNetworkIXLAN(int64, types.Txn) (*models.NetworkIXLAN, error)
	GetNetworkIXLANsByAsn(int64, types.Txn) ([]models.NetworkIXLAN, error)
	GetNetworkIXLANsByIx(int64, types.Txn) ([]models.NetworkIXLAN, error)
	SetNetworkIXLAN(*models.NetworkIXLAN, types.Txn) error
	DeleteNetworkIXLAN(int64, types.Txn) (bool, error)

	// IX LAN prefixes
	GetPrefix(int64, types.Txn) (*models.Prefix, error)
	GetPrefixesByIxlan(int64, types.Txn) ([]models.Prefix, error)
	SetPrefix(*models.Prefix, types.Txn) error
	DeletePrefix(int64, types.Txn) (bool, error)

	// Sync checkpoints
	AddSyncCheckpoint(*models.SyncCheckpoint, types.Txn) error
	GetLatestSyncCheckpoint(types.Txn) (*models.SyncCheckpoint, error)
	GetSyncCheckpoints(int, types.Txn) ([]models.SyncCheckpoint, error)
}

type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// New creates and starts the named metadata store plugin
func New(pluginName string, logger *slog.Logger) (MetadataStore, error) {
	p := plugin.GetPlugin(plugin.PluginTypeMetadata, pluginName)
	if p == nil {
		return nil, fmt.Errorf("metadata plugin '%s' not found", pluginName)
	}
	if ls, ok := p.(loggerSetter); ok {
		ls.SetLogger(logger)
	}
	if err := p.Start(); err != nil {
		return nil, fmt.Errorf(
			"failed to start metadata plugin '%s': %w",
			pluginName,
			err,
		)
	}
	store, ok := p.(MetadataStore)
	if !ok {
		return nil, errors.Join(
			fmt.Errorf(
				"metadata plugin '%s' does not implement MetadataStore: %T",
				pluginName,
				p,
			),
			p.Stop(),
		)
	}
	return store, nil
}
