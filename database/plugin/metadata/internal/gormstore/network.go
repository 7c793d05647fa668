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
	"gorm.io/gorm/clause"
)

var upsertByID = clause.OnConflict{
	Columns:   []clause.Column{{Name: "id"}},
	UpdateAll: true,
}

// GetNetwork returns a cached network by registry id
func (s *Store) GetNetwork(
	id int64,
	txn types.Txn,
) (*models.Network, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Network{}
	result := db.First(ret, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetNetworkByAsn returns a cached network by ASN
func (s *Store) GetNetworkByAsn(
	asn int64,
	txn types.Txn,
) (*models.Network, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Network{}
	result := db.First(ret, "asn = ?", asn)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// SetNetwork saves a network, or updates it if it already exists
func (s *Store) SetNetwork(
	network *models.Network,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Clauses(upsertByID).Create(network).Error
}

// DeleteNetwork removes a network, reporting whether a row was removed
func (s *Store) DeleteNetwork(
	id int64,
	txn types.Txn,
) (bool, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return false, err
	}
	result := db.Delete(&models.Network{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
