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

// GetPrefix returns the cached prefix with the given registry id, or nil
func (d *Database) GetPrefix(id int64, txn *Txn) (*models.Prefix, error) {
	return d.metadata.GetPrefix(id, storeTxn(txn))
}

func (d *Database) GetPrefixesByIxlan(
	ixlanID int64,
	txn *Txn,
) ([]models.Prefix, error) {
	return d.metadata.GetPrefixesByIxlan(ixlanID, storeTxn(txn))
}

func (d *Database) SetPrefix(prefix *models.Prefix, txn *Txn) error {
	return d.metadata.SetPrefix(prefix, storeTxn(txn))
}

func (d *Database) DeletePrefix(id int64, txn *Txn) (bool, error) {
	return d.metadata.DeletePrefix(id, storeTxn(txn))
}
