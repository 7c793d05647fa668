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
	"github.com/XioNoX/peering-manager/database/models"
	"github.com/XioNoX/peering-manager/peeringdb"
)

// Source tells where a resolved value came from. The resolver returns the
// same types for cached and live values, so Source is what separates a
// persisted record from a transient one.
//
// A value with SourceCache mirrors a row of the local cache and stays valid
// until the next reconciliation pass. A value with SourceRegistry was
// fetched live because the cache missed: it is not stored anywhere, a
// repeated lookup fetches it again, and callers that want to keep it must
// run a reconciliation pass rather than persist it themselves.
type Source string

const (
	// SourceCache marks a value read from the local cache
	SourceCache Source = "cache"
	// SourceRegistry marks a transient value fetched from the registry
	SourceRegistry Source = "registry"
)

type Network struct {
	ID            int64  `json:"id"`
	Asn           int64  `json:"asn"`
	Name          string `json:"name"`
	IrrAsSet      string `json:"irr_as_set"`
	InfoPrefixes4 int64  `json:"info_prefixes4"`
	InfoPrefixes6 int64  `json:"info_prefixes6"`
	Source        Source `json:"source"`
}

func networkFromModel(n *models.Network) *Network {
	return &Network{
		ID:            n.ID,
		Asn:           n.Asn,
		Name:          n.Name,
		IrrAsSet:      n.IrrAsSet,
		InfoPrefixes4: n.InfoPrefixes4,
		InfoPrefixes6: n.InfoPrefixes6,
		Source:        SourceCache,
	}
}

func networkFromRecord(rec peeringdb.NetworkRecord) *Network {
	return &Network{
		ID:            rec.ID,
		Asn:           rec.Asn,
		Name:          rec.Name,
		IrrAsSet:      rec.IrrAsSet,
		InfoPrefixes4: rec.InfoPrefixes4,
		InfoPrefixes6: rec.InfoPrefixes6,
		Source:        SourceRegistry,
	}
}

// NetworkIXLAN is a network's presence on an IX LAN
type NetworkIXLAN struct {
	ID      int64   `json:"id"`
	Asn     int64   `json:"asn"`
	IxID    int64   `json:"ix_id"`
	IxlanID int64   `json:"ixlan_id"`
	Name    string  `json:"name,omitempty"`
	Ipaddr4 *string `json:"ipaddr4"`
	Ipaddr6 *string `json:"ipaddr6"`
	Source  Source  `json:"source"`
}

func networkIXLANFromModel(n *models.NetworkIXLAN) NetworkIXLAN {
	return NetworkIXLAN{
		ID:      n.ID,
		Asn:     n.Asn,
		IxID:    n.IxID,
		IxlanID: n.IxlanID,
		Ipaddr4: n.Ipaddr4,
		Ipaddr6: n.Ipaddr6,
		Source:  SourceCache,
	}
}

func networkIXLANFromRecord(rec peeringdb.NetworkIXLANRecord) NetworkIXLAN {
	return NetworkIXLAN{
		ID:      rec.ID,
		Asn:     rec.Asn,
		IxID:    rec.IxID,
		IxlanID: rec.IxlanID,
		Name:    rec.Name,
		Ipaddr4: rec.Ipaddr4,
		Ipaddr6: rec.Ipaddr6,
		Source:  SourceRegistry,
	}
}

// PrefixPair is the projection of an IX LAN prefix used for filtering
type PrefixPair struct {
	Protocol string `json:"protocol"`
	Prefix   string `json:"prefix"`
}

// Peer pairs a presence on an IX with the network behind it. Network is nil
// when the network could not be resolved.
type Peer struct {
	Network      *Network     `json:"network"`
	NetworkIXLAN NetworkIXLAN `json:"network_ixlan"`
}
