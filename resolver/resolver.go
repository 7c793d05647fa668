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

package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/XioNoX/peering-manager/database"
	"github.com/XioNoX/peering-manager/peeringdb"
)

// ErrNotFound is returned when neither the cache nor the registry know the
// requested object
var ErrNotFound = errors.New("resolver: not found")

// Registry is the part of the registry client used for live lookups
type Registry interface {
	Networks(
		ctx context.Context,
		params url.Values,
	) ([]peeringdb.NetworkRecord, error)
	NetworkIXLANs(
		ctx context.Context,
		params url.Values,
	) ([]peeringdb.NetworkIXLANRecord, error)
	Prefixes(
		ctx context.Context,
		params url.Values,
	) ([]peeringdb.PrefixRecord, error)
}

type Config struct {
	DB          *database.Database
	Client      Registry
	OperatorAsn int64
	Logger      *slog.Logger
}

// Resolver answers read queries from the cache, falling back to the
// registry on a miss. It never writes to the cache.
type Resolver struct {
	config Config
}

func New(cfg Config) (*Resolver, error) {
	if cfg.DB == nil {
		return nil, errors.New("resolver: database is required")
	}
	if cfg.Client == nil {
		return nil, errors.New("resolver: registry client is required")
	}
	if cfg.OperatorAsn <= 0 {
		return nil, fmt.Errorf(
			"resolver: invalid operator ASN %d",
			cfg.OperatorAsn,
		)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "resolver")
	return &Resolver{config: cfg}, nil
}

func (r *Resolver) OperatorAsn() int64 {
	return r.config.OperatorAsn
}

// GetNetwork returns the network with the given ASN
func (r *Resolver) GetNetwork(ctx context.Context, asn int64) (*Network, error) {
	cached, err := r.config.DB.GetNetworkByAsn(asn, nil)
	if err != nil {
		return nil, fmt.Errorf("reading cached network: %w", err)
	}
	if cached != nil {
		return networkFromModel(cached), nil
	}
	records, err := r.config.Client.Networks(ctx, url.Values{
		"asn": []string{strconv.FormatInt(asn, 10)},
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("network AS%d: %w", asn, ErrNotFound)
	}
	r.config.Logger.Debug(
		fmt.Sprintf("network AS%d resolved from registry", asn),
	)
	return networkFromRecord(records[0]), nil
}

// GetIXLAN returns the IX LAN presence with the given id
func (r *Resolver) GetIXLAN(ctx context.Context, id int64) (*NetworkIXLAN, error) {
	cached, err := r.config.DB.GetNetworkIXLAN(id, nil)
	if err != nil {
		return nil, fmt.Errorf("reading cached ixlan: %w", err)
	}
	if cached != nil {
		ret := networkIXLANFromModel(cached)
		return &ret, nil
	}
	records, err := r.config.Client.NetworkIXLANs(ctx, url.Values{
		"id": []string{strconv.FormatInt(id, 10)},
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("ixlan #%d: %w", id, ErrNotFound)
	}
	ret := networkIXLANFromRecord(records[0])
	return &ret, nil
}

// GetIXLANsForAsn returns every IX LAN presence of the given ASN. An empty
// list means the registry confirmed there are none.
func (r *Resolver) GetIXLANsForAsn(
	ctx context.Context,
	asn int64,
) ([]NetworkIXLAN, error) {
	cached, err := r.config.DB.GetNetworkIXLANsByAsn(asn, nil)
	if err != nil {
		return nil, fmt.Errorf("reading cached ixlans: %w", err)
	}
	if len(cached) > 0 {
		ret := make([]NetworkIXLAN, 0, len(cached))
		for i := range cached {
			ret = append(ret, networkIXLANFromModel(&cached[i]))
		}
		return ret, nil
	}
	return r.liveIXLANs(ctx, "asn", asn)
}

// GetPrefixesForIXLAN returns the prefixes of the LAN that the given IX LAN
// presence is attached to. An unknown presence yields an empty list.
func (r *Resolver) GetPrefixesForIXLAN(
	ctx context.Context,
	id int64,
) ([]PrefixPair, error) {
	ixlan, err := r.GetIXLAN(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []PrefixPair{}, nil
		}
		return nil, err
	}
	cached, err := r.config.DB.GetPrefixesByIxlan(ixlan.IxlanID, nil)
	if err != nil {
		return nil, fmt.Errorf("reading cached prefixes: %w", err)
	}
	ret := make([]PrefixPair, 0, len(cached))
	if len(cached) > 0 {
		for _, p := range cached {
			ret = append(ret, PrefixPair{Protocol: p.Protocol, Prefix: p.Prefix})
		}
		return ret, nil
	}
	records, err := r.config.Client.Prefixes(ctx, url.Values{
		"ixlan_id": []string{strconv.FormatInt(ixlan.IxlanID, 10)},
	})
	if err != nil {
		return nil, err
	}
	for _, p := range records {
		ret = append(ret, PrefixPair{
			Protocol: string(p.Protocol),
			Prefix:   p.Prefix,
		})
	}
	return ret, nil
}

// GetPeersForIX returns the networks present on the given IX, except the
// operator's own
func (r *Resolver) GetPeersForIX(ctx context.Context, ixID int64) ([]Peer, error) {
	var ixlans []NetworkIXLAN
	cached, err := r.config.DB.GetNetworkIXLANsByIx(ixID, nil)
	if err != nil {
		return nil, fmt.Errorf("reading cached ixlans: %w", err)
	}
	if len(cached) > 0 {
		ixlans = make([]NetworkIXLAN, 0, len(cached))
		for i := range cached {
			ixlans = append(ixlans, networkIXLANFromModel(&cached[i]))
		}
	} else {
		ixlans, err = r.liveIXLANs(ctx, "ix_id", ixID)
		if err != nil {
			return nil, err
		}
	}
	peers := make([]Peer, 0, len(ixlans))
	for _, ixlan := range ixlans {
		if ixlan.Asn == r.config.OperatorAsn {
			continue
		}
		network, err := r.GetNetwork(ctx, ixlan.Asn)
		if err != nil {
			r.config.Logger.Warn(
				fmt.Sprintf("unable to resolve network AS%d", ixlan.Asn),
				"ix_id", ixID,
				"error", err,
			)
			network = nil
		}
		peers = append(peers, Peer{
			Network:      network,
			NetworkIXLAN: ixlan,
		})
	}
	return peers, nil
}

func (r *Resolver) liveIXLANs(
	ctx context.Context,
	key string,
	value int64,
) ([]NetworkIXLAN, error) {
	records, err := r.config.Client.NetworkIXLANs(ctx, url.Values{
		key: []string{strconv.FormatInt(value, 10)},
	})
	if err != nil {
		return nil, err
	}
	ret := make([]NetworkIXLAN, 0, len(records))
	for _, rec := range records {
		ret = append(ret, networkIXLANFromRecord(rec))
	}
	return ret, nil
}
