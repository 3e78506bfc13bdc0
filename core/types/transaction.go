// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package types

import "github.com/ethersync/ethersync/common"

// Transaction is opaque to the sync engine beyond its hash and sender: the
// engine only needs to remove included transactions from the pending pool
// and reinject displaced ones during a reorg.
type Transaction struct {
	hash   common.Hash
	from   common.Address
	nonce  uint64
	data   []byte
}

func NewTransaction(hash common.Hash, from common.Address, nonce uint64, data []byte) *Transaction {
	return &Transaction{hash: hash, from: from, nonce: nonce, data: data}
}

func (tx *Transaction) Hash() common.Hash  { return tx.hash }
func (tx *Transaction) From() common.Address { return tx.from }
func (tx *Transaction) Nonce() uint64      { return tx.nonce }
func (tx *Transaction) Data() []byte       { return tx.data }

// Transactions is a list of transactions, plus the set-difference helper
// the reorg coordinator needs to recompute which transactions were
// displaced.
type Transactions []*Transaction

func (t Transactions) Len() int { return len(t) }

// TxDifference returns the transactions present in a but not in b, ordered
// by their position in a. Used by the reorg coordinator to compute which
// transactions of a displaced branch are genuinely gone versus re-included
// on the new branch.
func TxDifference(a, b Transactions) Transactions {
	keep := make(Transactions, 0, len(a))
	present := make(map[common.Hash]bool, len(b))
	for _, tx := range b {
		present[tx.Hash()] = true
	}
	for _, tx := range a {
		if !present[tx.Hash()] {
			keep = append(keep, tx)
		}
	}
	return keep
}

// Receipt is opaque to the engine beyond gas accounting; a real ledger
// returns one per executed transaction.
type Receipt struct {
	TxHash  common.Hash
	GasUsed uint64
	Status  uint64
	Bloom   [256]byte
}

type Receipts []*Receipt
