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

package peeringdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
)

const StatusDeleted = "deleted"

// Record is a single object as returned by the registry. Field values are
// kept raw so callers can decode into whichever shape they need and detect
// fields they do not know about.
type Record map[string]json.RawMessage

// ID returns the registry identifier of the record
func (r Record) ID() (int64, error) {
	raw, ok := r["id"]
	if !ok {
		return 0, errors.New("record has no id")
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, fmt.Errorf("decoding record id: %w", err)
	}
	return id, nil
}

// Status returns the record status, or an empty string if it is absent or
// not a string.
func (r Record) Status() string {
	raw, ok := r["status"]
	if !ok {
		return ""
	}
	var status string
	if err := json.Unmarshal(raw, &status); err != nil {
		return ""
	}
	return status
}

// IsDeleted reports whether the record is a deletion marker
func (r Record) IsDeleted() bool {
	return r.Status() == StatusDeleted
}

// Fields returns the sorted field names present in the record
func (r Record) Fields() []string {
	ret := make([]string, 0, len(r))
	for k := range r {
		ret = append(ret, k)
	}
	slices.Sort(ret)
	return ret
}

// Decode unmarshals the record into v
func (r Record) Decode(v any) error {
	data, err := json.Marshal(map[string]json.RawMessage(r))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// NetworkRecord is the registry view of a network (namespace "net")
type NetworkRecord struct {
	ID            int64  `json:"id"`
	Asn           int64  `json:"asn"`
	Name          string `json:"name"`
	IrrAsSet      string `json:"irr_as_set"`
	InfoPrefixes4 int64  `json:"info_prefixes4"`
	InfoPrefixes6 int64  `json:"info_prefixes6"`
	Status        string `json:"status,omitempty"`
}

// NetworkIXLANRecord is the registry view of a network's presence on an IX
// LAN (namespace "netixlan")
type NetworkIXLANRecord struct {
	ID      int64   `json:"id"`
	Asn     int64   `json:"asn"`
	Name    string  `json:"name,omitempty"`
	IxID    int64   `json:"ix_id"`
	IxlanID int64   `json:"ixlan_id"`
	Ipaddr4 *string `json:"ipaddr4"`
	Ipaddr6 *string `json:"ipaddr6"`
	Status  string  `json:"status,omitempty"`
}

// PrefixRecord is the registry view of an IX LAN prefix (namespace "ixpfx")
type PrefixRecord struct {
	ID       int64    `json:"id"`
	IxlanID  int64    `json:"ixlan_id"`
	Protocol Protocol `json:"protocol"`
	Prefix   string   `json:"prefix"`
	Status   string   `json:"status,omitempty"`
}

// Protocol is an address family name as used by the registry ("IPv4" or
// "IPv6"). Numeric 4 and 6 are accepted when decoding.
type Protocol string

const (
	ProtocolIPv4 Protocol = "IPv4"
	ProtocolIPv6 Protocol = "IPv6"
)

func (p *Protocol) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = Protocol(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid protocol %s", string(data))
	}
	switch n {
	case 4:
		*p = ProtocolIPv4
	case 6:
		*p = ProtocolIPv6
	default:
		*p = Protocol(strconv.Itoa(n))
	}
	return nil
}
