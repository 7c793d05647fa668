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

// GetNetworkIXLAN returns a cached network IX LAN presence by registry id
func (s *Store) GetNetworkIXLAN(
	id int64,
	txn types.Txn,
) (*models.NetworkIXLAN, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.NetworkIXLAN{}
	result := db.First(ret, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetNetworkIXLANsByAsn returns every cached IX LAN presence of an ASN
func (s *Store) GetNetworkIXLANsByAsn(
	asn int64,
	txn types.Txn,
) ([]models.NetworkIXLAN, error) {
	return s.findNetworkIXLANs("asn = ?", asn, txn)
}

// GetNetworkIXLANsByIx returns every cached network presence on an IX
func (s *Store) GetNetworkIXLANsByIx(
	ixID int64,
	txn types.Txn,
) ([]models.NetworkIXLAN, error) {
	return s.findNetworkIXLANs("ix_id = ?", ixID, txn)
}

func (s *Store) findNetworkIXLANs(
	query string,
	arg int64,
	txn types.Txn,
) ([]models.NetworkIXLAN, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.NetworkIXLAN
	result := db.Where(query, arg).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetNetworkIXLAN saves a network IX LAN presence, or updates it if it
// already exists
func (s *Store) SetNetworkIXLAN(
	netixlan *models.NetworkIXLAN,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Clauses(upsertByID).Create(netixlan).Error
}

// DeleteNetworkIXLAN removes a network IX LAN presence, reporting whether a
// row was removed
func (s *Store) DeleteNetworkIXLAN(
	id int64,
	txn types.Txn,
) (bool, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return false, err
	}
	result := db.Delete(&models.NetworkIXLAN{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
