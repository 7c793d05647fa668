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

import "time"

// SyncCheckpoint records a reconciliation pass that changed the cache. Time
// is when the pass started and serves as the watermark for the next one.
// Rows are only ever appended.
type SyncCheckpoint struct {
	ID      uint      `gorm:"primarykey"`
	Time    time.Time `gorm:"index;not null"`
	Added   int64
	Updated int64
	Deleted int64
}

func (SyncCheckpoint) TableName() string {
	return "peeringdb_sync_checkpoint"
}

// Total returns the number of changes recorded by the checkpoint
func (s *SyncCheckpoint) Total() int64 {
	return s.Added + s.Updated + s.Deleted
}
