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
	"time"

	"github.com/XioNoX/peering-manager/database/models"
)

// Changes counts the cache mutations applied for one kind
type Changes struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

func (c Changes) Total() int {
	return c.Added + c.Updated + c.Deleted
}

// RecordFailure describes a registry record that was skipped
type RecordFailure struct {
	Kind   string `json:"kind"`
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// Result summarizes a reconciliation pass
type Result struct {
	PassID   string        `json:"pass_id"`
	Since    int64         `json:"since"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Added    int           `json:"added"`
	Updated  int           `json:"updated"`
	Deleted  int           `json:"deleted"`
	// Changes holds the counts per kind
	Changes  map[string]Changes `json:"changes"`
	Failures []RecordFailure    `json:"failures,omitempty"`
	// UnknownFields lists, per kind, the registry fields that are not
	// recognized by the local schema
	UnknownFields map[string][]string `json:"unknown_fields,omitempty"`
	// Checkpoint is nil when the pass changed nothing
	Checkpoint *models.SyncCheckpoint `json:"checkpoint,omitempty"`
}

func newResult(passID string, since int64, started time.Time) *Result {
	return &Result{
		PassID:        passID,
		Since:         since,
		Started:       started,
		Changes:       make(map[string]Changes, len(kinds)),
		UnknownFields: make(map[string][]string),
	}
}

func (r *Result) Total() int {
	return r.Added + r.Updated + r.Deleted
}

func (r *Result) add(kindName string, c Changes) {
	r.Changes[kindName] = c
	r.Added += c.Added
	r.Updated += c.Updated
	r.Deleted += c.Deleted
}
