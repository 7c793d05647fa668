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
	"github.com/XioNoX/peering-manager/peeringdb"
)

// Network is the cached copy of a registry network. The primary key is the
// registry identifier.
type Network struct {
	ID            int64  `gorm:"primaryKey;autoIncrement:false"`
	Asn           int64  `gorm:"uniqueIndex;not null"`
	Name          string `gorm:"size:255;not null"`
	IrrAsSet      string `gorm:"size:255"`
	InfoPrefixes4 int64
	InfoPrefixes6 int64
}

func (Network) TableName() string {
	return "peeringdb_network"
}

// NetworkFromRecord builds a cache entity from a registry record
func NetworkFromRecord(rec peeringdb.NetworkRecord) *Network {
	n := &Network{ID: rec.ID}
	n.Apply(rec)
	return n
}

// Apply overwrites every mirrored attribute with the record's values
func (n *Network) Apply(rec peeringdb.NetworkRecord) {
	n.Asn = rec.Asn
	n.Name = rec.Name
	n.IrrAsSet = rec.IrrAsSet
	n.InfoPrefixes4 = rec.InfoPrefixes4
	n.InfoPrefixes6 = rec.InfoPrefixes6
}

// Record returns the registry-shaped view of the cached network
func (n *Network) Record() peeringdb.NetworkRecord {
	return peeringdb.NetworkRecord{
		ID:            n.ID,
		Asn:           n.Asn,
		Name:          n.Name,
		IrrAsSet:      n.IrrAsSet,
		InfoPrefixes4: n.InfoPrefixes4,
		InfoPrefixes6: n.InfoPrefixes6,
	}
}

func (n *Network) Validate() error {
	const entity = "network"
	if err := validateID(entity, "id", n.ID, n.ID); err != nil {
		return err
	}
	if err := validateAsn(entity, n.ID, n.Asn); err != nil {
		return err
	}
	if err := validateLength(entity, n.ID, "name", n.Name, true); err != nil {
		return err
	}
	if err := validateLength(entity, n.ID, "irr_as_set", n.IrrAsSet, false); err != nil {
		return err
	}
	if n.InfoPrefixes4 < 0 {
		return &ValidationError{
			Entity: entity,
			ID:     n.ID,
			Field:  "info_prefixes4",
			Reason: "must not be negative",
		}
	}
	if n.InfoPrefixes6 < 0 {
		return &ValidationError{
			Entity: entity,
			ID:     n.ID,
			Field:  "info_prefixes6",
			Reason: "must not be negative",
		}
	}
	return nil
}
