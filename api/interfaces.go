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

	"github.com/XioNoX/peering-manager/database/models"
	"github.com/XioNoX/peering-manager/reconcile"
	"github.com/XioNoX/peering-manager/resolver"
)

// Resolver is the read side the API serves from
type Resolver interface {
	GetNetwork(ctx context.Context, asn int64) (*resolver.Network, error)
	GetIXLAN(ctx context.Context, id int64) (*resolver.NetworkIXLAN, error)
	GetIXLANsForAsn(
		ctx context.Context,
		asn int64,
	) ([]resolver.NetworkIXLAN, error)
	GetPrefixesForIXLAN(
		ctx context.Context,
		id int64,
	) ([]resolver.PrefixPair, error)
	GetPeersForIX(ctx context.Context, ixID int64) ([]resolver.Peer, error)
}

// Synchronizer triggers and reports reconciliation passes
type Synchronizer interface {
	Run(ctx context.Context) (*reconcile.Result, error)
	Running() bool
	History(limit int) ([]models.SyncCheckpoint, error)
}
