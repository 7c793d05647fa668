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

package gormstore

import (
	"errors"

	"github.com/XioNoX/peering-manager/database/models"
	"github.com/XioNoX/peering-manager/database/types"
	"gorm.io/gorm"
)

// AddSyncCheckpoint appends a checkpoint
func (s *Store) AddSyncCheckpoint(
	checkpoint *models.SyncCheckpoint,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(checkpoint).Error
}

// GetLatestSyncCheckpoint returns the most recent checkpoint, or nil if no
// pass has changed the cache yet
func (s *Store) GetLatestSyncCheckpoint(
	txn types.Txn,
) (*models.SyncCheckpoint, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.SyncCheckpoint{}
	result := db.Order("time DESC").Order("id DESC").First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetSyncCheckpoints returns up to limit checkpoints, newest first. A limit
// of zero or less returns all of them.
func (s *Store) GetSyncCheckpoints(
	limit int,
	txn types.Txn,
) ([]models.SyncCheckpoint, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Order("time DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var ret []models.SyncCheckpoint
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
