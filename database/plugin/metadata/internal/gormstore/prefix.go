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

// GetPrefix returns a cached IX LAN prefix by registry id
func (s *Store) GetPrefix(
	id int64,
	txn types.Txn,
) (*models.Prefix, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Prefix{}
	result := db.First(ret, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetPrefixesByIxlan returns the cached prefixes of an IX LAN
func (s *Store) GetPrefixesByIxlan(
	ixlanID int64,
	txn types.Txn,
) ([]models.Prefix, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Prefix
	result := db.Where("ixlan_id = ?", ixlanID).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetPrefix saves a prefix, or updates it if it already exists
func (s *Store) SetPrefix(
	prefix *models.Prefix,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Clauses(upsertByID).Create(prefix).Error
}

// DeletePrefix removes a prefix, reporting whether a row was removed
func (s *Store) DeletePrefix(
	id int64,
	txn types.Txn,
) (bool, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return false, err
	}
	result := db.Delete(&models.Prefix{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
