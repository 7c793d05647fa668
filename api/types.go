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
	"time"

	"github.com/XioNoX/peering-manager/reconcile"
	"github.com/XioNoX/peering-manager/resolver"
)

type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
	Syncing   bool `json:"syncing"`
}

type NetworkIXLANsResponse struct {
	Asn    int64                   `json:"asn"`
	IXLANs []resolver.NetworkIXLAN `json:"ixlans"`
}

type PrefixesResponse struct {
	IXLAN    int64                 `json:"ixlan"`
	Prefixes []resolver.PrefixPair `json:"prefixes"`
}

type PeersResponse struct {
	IX    int64           `json:"ix"`
	Peers []resolver.Peer `json:"peers"`
}

type SyncResponse struct {
	PassID        string                       `json:"pass_id"`
	Since         int64                        `json:"since"`
	Added         int                          `json:"added"`
	Updated       int                          `json:"updated"`
	Deleted       int                          `json:"deleted"`
	Changes       map[string]reconcile.Changes `json:"changes"`
	Failures      []reconcile.RecordFailure    `json:"failures"`
	UnknownFields map[string][]string          `json:"unknown_fields"`
	DurationMs    int64                        `json:"duration_ms"`
	Checkpointed  bool                         `json:"checkpointed"`
}

type Checkpoint struct {
	Time    time.Time `json:"time"`
	Added   int64     `json:"added"`
	Updated int64     `json:"updated"`
	Deleted int64     `json:"deleted"`
}

type SyncStatusResponse struct {
	Running bool `json:"running"`
	// LastSync is the watermark as UNIX seconds, 0 before the first pass
	LastSync int64        `json:"last_sync"`
	History  []Checkpoint `json:"history"`
}
