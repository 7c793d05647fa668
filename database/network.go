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

// GetNetwork returns the cached network with the given registry id, or nil
func (d *Database) GetNetwork(id int64, txn *Txn) (*models.Network, error) {
	return d.metadata.GetNetwork(id, storeTxn(txn))
}

// GetNetworkByAsn returns the cached network with the given ASN, or nil
func (d *Database) GetNetworkByAsn(asn int64, txn *Txn) (*models.Network, error) {
	return d.metadata.GetNetworkByAsn(asn, storeTxn(txn))
}

func (d *Database) SetNetwork(network *models.Network, txn *Txn) error {
	return d.metadata.SetNetwork(network, storeTxn(txn))
}

func (d *Database) DeleteNetwork(id int64, txn *Txn) (bool, error) {
	return d.metadata.DeleteNetwork(id, storeTxn(txn))
}

// GetNetworkIXLAN returns the cached IX LAN presence with the given
// registry id, or nil
func (d *Database) GetNetworkIXLAN(
	id int64,
	txn *Txn,
) (*models.NetworkIXLAN, error) {
	return d.metadata.GetNetworkIXLAN(id, storeTxn(txn))
}

func (d *Database) GetNetworkIXLANsByAsn(
	asn int64,
	txn *Txn,
) ([]models.NetworkIXLAN, error) {
	return d.metadata.GetNetworkIXLANsByAsn(asn, storeTxn(txn))
}

func (d *Database) GetNetworkIXLANsByIx(
	ixID int64,
	txn *Txn,
) ([]models.NetworkIXLAN, error) {
	return d.metadata.GetNetworkIXLANsByIx(ixID, storeTxn(txn))
}

func (d *Database) SetNetworkIXLAN(
	netixlan *models.NetworkIXLAN,
	txn *Txn,
) error {
	return d.metadata.SetNetworkIXLAN(netixlan, storeTxn(txn))
}

func (d *Database) DeleteNetworkIXLAN(id int64, txn *Txn) (bool, error) {
	return d.metadata.DeleteNetworkIXLAN(id, storeTxn(txn))
}
