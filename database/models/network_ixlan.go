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

package models

import (
	"net/netip"

	"github.com/XioNoX/peering-manager/peeringdb"
)

// NetworkIXLAN is the cached presence of a network on an IX LAN, with the
// addresses it uses there.
type NetworkIXLAN struct {
	ID      int64   `gorm:"primaryKey;autoIncrement:false"`
	Asn     int64   `gorm:"index;not null"`
	IxID    int64   `gorm:"index;not null"`
	IxlanID int64   `gorm:"index;not null"`
	Ipaddr4 *string `gorm:"size:15"`
	Ipaddr6 *string `gorm:"size:45"`
}

func (NetworkIXLAN) TableName() string {
	return "peeringdb_network_ixlan"
}

// NetworkIXLANFromRecord builds a cache entity from a registry record
func NetworkIXLANFromRecord(rec peeringdb.NetworkIXLANRecord) *NetworkIXLAN {
	n := &NetworkIXLAN{ID: rec.ID}
	n.Apply(rec)
	return n
}

// Apply overwrites every mirrored attribute with the record's values
func (n *NetworkIXLAN) Apply(rec peeringdb.NetworkIXLANRecord) {
	n.Asn = rec.Asn
	n.IxID = rec.IxID
	n.IxlanID = rec.IxlanID
	n.Ipaddr4 = copyOptional(rec.Ipaddr4)
	n.Ipaddr6 = copyOptional(rec.Ipaddr6)
}

// Record returns the registry-shaped view of the cached entity
func (n *NetworkIXLAN) Record() peeringdb.NetworkIXLANRecord {
	return peeringdb.NetworkIXLANRecord{
		ID:      n.ID,
		Asn:     n.Asn,
		IxID:    n.IxID,
		IxlanID: n.IxlanID,
		Ipaddr4: copyOptional(n.Ipaddr4),
		Ipaddr6: copyOptional(n.Ipaddr6),
	}
}

func (n *NetworkIXLAN) Validate() error {
	const entity = "network_ixlan"
	if err := validateID(entity, "id", n.ID, n.ID); err != nil {
		return err
	}
	if err := validateAsn(entity, n.ID, n.Asn); err != nil {
		return err
	}
	if err := validateID(entity, "ix_id", n.IxID, n.ID); err != nil {
		return err
	}
	if err := validateID(entity, "ixlan_id", n.IxlanID, n.ID); err != nil {
		return err
	}
	if n.Ipaddr4 != nil {
		addr, err := netip.ParseAddr(*n.Ipaddr4)
		if err != nil || !addr.Is4() {
			return &ValidationError{
				Entity: entity,
				ID:     n.ID,
				Field:  "ipaddr4",
				Reason: "not a valid IPv4 address: " + *n.Ipaddr4,
			}
		}
	}
	if n.Ipaddr6 != nil {
		addr, err := netip.ParseAddr(*n.Ipaddr6)
		if err != nil || !addr.Is6() || addr.Is4In6() {
			return &ValidationError{
				Entity: entity,
				ID:     n.ID,
				Field:  "ipaddr6",
				Reason: "not a valid IPv6 address: " + *n.Ipaddr6,
			}
		}
	}
	return nil
}

func copyOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
