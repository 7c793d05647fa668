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

package database

import "github.com/XioNoX/peering-manager/database/models"

// AddSyncCheckpoint appends a checkpoint
func (d *Database) AddSyncCheckpoint(
	checkpoint *models.SyncCheckpoint,
	txn *Txn,
) error {
	return d.metadata.AddSyncCheckpoint(checkpoint, storeTxn(txn))
}

// GetLatestSyncCheckpoint returns the newest checkpoint, or nil if there
// is none
func (d *Database) GetLatestSyncCheckpoint(
	txn *Txn,
) (*models.SyncCheckpoint, error) {
	return d.metadata.GetLatestSyncCheckpoint(storeTxn(txn))
}

// GetSyncCheckpoints returns up to limit checkpoints, newest first
func (d *Database) GetSyncCheckpoints(
	limit int,
	txn *Txn,
) ([]models.SyncCheckpoint, error) {
	return d.metadata.GetSyncCheckpoints(limit, storeTxn(txn))
}

// GetLastSyncTime returns the watermark for the next reconciliation pass as
// UNIX seconds: the start time of the latest pass that changed the cache,
// or 0 if there has been none
func (d *Database) GetLastSyncTime(txn *Txn) (int64, error) {
	checkpoint, err := d.GetLatestSyncCheckpoint(txn)
	if err != nil {
		return 0, err
	}
	if checkpoint == nil {
		return 0, nil
	}
	return checkpoint.Time.Unix(), nil
}
