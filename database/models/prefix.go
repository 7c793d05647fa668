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

// Prefix is a cached IX LAN prefix
type Prefix struct {
	ID       int64  `gorm:"primaryKey;autoIncrement:false"`
	IxlanID  int64  `gorm:"index;not null"`
	Protocol string `gorm:"size:8;not null"`
	Prefix   string `gorm:"size:64;not null"`
}

func (Prefix) TableName() string {
	return "peeringdb_prefix"
}

// PrefixFromRecord builds a cache entity from a registry record
func PrefixFromRecord(rec peeringdb.PrefixRecord) *Prefix {
	p := &Prefix{ID: rec.ID}
	p.Apply(rec)
	return p
}

// Apply overwrites every mirrored attribute with the record's values
func (p *Prefix) Apply(rec peeringdb.PrefixRecord) {
	p.IxlanID = rec.IxlanID
	p.Protocol = string(rec.Protocol)
	p.Prefix = rec.Prefix
}

// Record returns the registry-shaped view of the cached prefix
func (p *Prefix) Record() peeringdb.PrefixRecord {
	return peeringdb.PrefixRecord{
		ID:       p.ID,
		IxlanID:  p.IxlanID,
		Protocol: peeringdb.Protocol(p.Protocol),
		Prefix:   p.Prefix,
	}
}

func (p *Prefix) Validate() error {
	const entity = "prefix"
	if err := validateID(entity, "id", p.ID, p.ID); err != nil {
		return err
	}
	if err := validateID(entity, "ixlan_id", p.IxlanID, p.ID); err != nil {
		return err
	}
	var want4 bool
	switch peeringdb.Protocol(p.Protocol) {
	case peeringdb.ProtocolIPv4:
		want4 = true
	case peeringdb.ProtocolIPv6:
	default:
		return &ValidationError{
			Entity: entity,
			ID:     p.ID,
			Field:  "protocol",
			Reason: "must be IPv4 or IPv6, got " + p.Protocol,
		}
	}
	pfx, err := netip.ParsePrefix(p.Prefix)
	if err != nil {
		return &ValidationError{
			Entity: entity,
			ID:     p.ID,
			Field:  "prefix",
			Reason: "not a valid CIDR prefix: " + p.Prefix,
		}
	}
	if pfx.Addr().Is4() != want4 {
		return &ValidationError{
			Entity: entity,
			ID:     p.ID,
			Field:  "prefix",
			Reason: p.Prefix + " does not match protocol " + p.Protocol,
		}
	}
	return nil
}
