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

package reconcile

import (
	"fmt"
	"slices"

	"github.com/XioNoX/peering-manager/database"
	"github.com/XioNoX/peering-manager/database/models"
	"github.com/XioNoX/peering-manager/peeringdb"
)

const (
	KindNetwork      = "network"
	KindNetworkIXLAN = "network_ixlan"
	KindPrefix       = "prefix"
)

type action int

const (
	actionAdded action = iota
	actionUpdated
)

func (a action) String() string {
	switch a {
	case actionAdded:
		return "added"
	case actionUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// kind describes how one registry object type is mirrored into the cache
type kind struct {
	name      string
	namespace peeringdb.Namespace
	// mirrored lists the registry fields copied into the cache
	mirrored []string
	// ignored lists registry fields that are known but not cached
	ignored []string
	remove  func(db *database.Database, id int64, txn *database.Txn) (bool, error)
	// merge creates or overwrites the cached row. A row found by id is an
	// update even when no mirrored field changed, in which case nothing is
	// written.
	merge func(db *database.Database, rec peeringdb.Record, txn *database.Txn) (action, error)
}

// kinds is applied in this order so that networks exist before the records
// that reference them
var kinds = []kind{
	{
		name:      KindNetwork,
		namespace: peeringdb.NamespaceNetwork,
		mirrored: []string{
			"id", "asn", "name", "irr_as_set",
			"info_prefixes4", "info_prefixes6",
		},
		ignored: []string{
			"org_id", "aka", "name_long", "website", "social_media",
			"looking_glass", "route_server", "info_type", "info_types",
			"info_traffic", "info_ratio", "info_scope", "info_unicast",
			"info_multicast", "info_ipv6", "info_never_via_route_servers",
			"ix_count", "fac_count", "notes", "netixlan_updated",
			"netfac_updated", "poc_updated", "policy_url", "policy_general",
			"policy_locations", "policy_ratio", "policy_contracts",
			"allow_ixp_update", "status_dashboard", "rir_status",
			"rir_status_updated", "logo", "created", "updated", "status",
		},
		remove: (*database.Database).DeleteNetwork,
		merge:  mergeNetwork,
	},
	{
		name:      KindNetworkIXLAN,
		namespace: peeringdb.NamespaceNetworkInternetExchangeLAN,
		mirrored: []string{
			"id", "asn", "ix_id", "ixlan_id", "ipaddr4", "ipaddr6",
		},
		ignored: []string{
			"net_id", "name", "notes", "speed", "is_rs_peer", "bfd_support",
			"operational", "created", "updated", "status", "net_side_id",
			"ix_side_id",
		},
		remove: (*database.Database).DeleteNetworkIXLAN,
		merge:  mergeNetworkIXLAN,
	},
	{
		name:      KindPrefix,
		namespace: peeringdb.NamespaceInternetExchangePrefix,
		mirrored:  []string{"id", "ixlan_id", "protocol", "prefix"},
		ignored: []string{
			"in_dfz", "notes", "created", "updated", "status",
		},
		remove: (*database.Database).DeletePrefix,
		merge:  mergePrefix,
	},
}

// unknownFields returns the fields of rec that the kind does not know about
func (k *kind) unknownFields(rec peeringdb.Record) []string {
	var ret []string
	for _, field := range rec.Fields() {
		if slices.Contains(k.mirrored, field) ||
			slices.Contains(k.ignored, field) {
			continue
		}
		ret = append(ret, field)
	}
	return ret
}

// missingFields returns the mirrored fields absent from rec
func (k *kind) missingFields(rec peeringdb.Record) []string {
	var ret []string
	for _, field := range k.mirrored {
		if _, ok := rec[field]; !ok {
			ret = append(ret, field)
		}
	}
	return ret
}

func decodeError(entity string, id int64, err error) error {
	return &models.ValidationError{
		Entity: entity,
		ID:     id,
		Field:  "record",
		Reason: err.Error(),
	}
}

func mergeNetwork(
	db *database.Database,
	rec peeringdb.Record,
	txn *database.Txn,
) (action, error) {
	var in peeringdb.NetworkRecord
	if err := rec.Decode(&in); err != nil {
		return 0, decodeError("network", in.ID, err)
	}
	network, err := db.GetNetwork(in.ID, txn)
	if err != nil {
		return 0, err
	}
	act := actionUpdated
	if network == nil {
		network = &models.Network{ID: in.ID}
		act = actionAdded
	} else if *network == *models.NetworkFromRecord(in) {
		// Only fields the cache does not mirror changed
		return actionUpdated, nil
	}
	network.Apply(in)
	if err := network.Validate(); err != nil {
		return 0, err
	}
	// The ASN column is unique, so a clash must be caught here rather than
	// failing the whole transaction on insert
	other, err := db.GetNetworkByAsn(network.Asn, txn)
	if err != nil {
		return 0, err
	}
	if other != nil && other.ID != network.ID {
		return 0, &models.ValidationError{
			Entity: "network",
			ID:     network.ID,
			Field:  "asn",
			Reason: fmt.Sprintf(
				"AS%d already cached for network #%d",
				network.Asn,
				other.ID,
			),
		}
	}
	if err := db.SetNetwork(network, txn); err != nil {
		return 0, err
	}
	return act, nil
}

func mergeNetworkIXLAN(
	db *database.Database,
	rec peeringdb.Record,
	txn *database.Txn,
) (action, error) {
	var in peeringdb.NetworkIXLANRecord
	if err := rec.Decode(&in); err != nil {
		return 0, decodeError("network_ixlan", in.ID, err)
	}
	netixlan, err := db.GetNetworkIXLAN(in.ID, txn)
	if err != nil {
		return 0, err
	}
	act := actionUpdated
	if netixlan == nil {
		netixlan = &models.NetworkIXLAN{ID: in.ID}
		act = actionAdded
	} else if sameNetworkIXLAN(netixlan, models.NetworkIXLANFromRecord(in)) {
		return actionUpdated, nil
	}
	netixlan.Apply(in)
	if err := netixlan.Validate(); err != nil {
		return 0, err
	}
	if err := db.SetNetworkIXLAN(netixlan, txn); err != nil {
		return 0, err
	}
	return act, nil
}

func mergePrefix(
	db *database.Database,
	rec peeringdb.Record,
	txn *database.Txn,
) (action, error) {
	var in peeringdb.PrefixRecord
	if err := rec.Decode(&in); err != nil {
		return 0, decodeError("prefix", in.ID, err)
	}
	prefix, err := db.GetPrefix(in.ID, txn)
	if err != nil {
		return 0, err
	}
	act := actionUpdated
	if prefix == nil {
		prefix = &models.Prefix{ID: in.ID}
		act = actionAdded
	} else if *prefix == *models.PrefixFromRecord(in) {
		return actionUpdated, nil
	}
	prefix.Apply(in)
	if err := prefix.Validate(); err != nil {
		return 0, err
	}
	if err := db.SetPrefix(prefix, txn); err != nil {
		return 0, err
	}
	return act, nil
}

func sameNetworkIXLAN(a, b *models.NetworkIXLAN) bool {
	return a.ID == b.ID &&
		a.Asn == b.Asn &&
		a.IxID == b.IxID &&
		a.IxlanID == b.IxlanID &&
		sameOptional(a.Ipaddr4, b.Ipaddr4) &&
		sameOptional(a.Ipaddr6, b.Ipaddr6)
}

func sameOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
