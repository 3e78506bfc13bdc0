// Copyright 2015 The go-ethereum Authors
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

// Package core defines the contracts the downloader borrows the ledger,
// storage, pending-tx pool and uncle pool through. It no longer carries a
// full EVM or state database; executeBlock and friends are abstract here
// so the engine can be driven and tested without either.
package core

import (
	"errors"
	"math/big"

	"github.com/ethersync/ethersync/common"
	"github.com/ethersync/ethersync/core/types"
)

// ExecutionStats mirrors the bookkeeping a real EVM implementation reports
// back after executing a block; the downloader never inspects these beyond
// passing them on to logs/metrics.
type ExecutionStats struct {
	DbReadTimePerc float64
	ParallelRate   float64
	CacheHitRates  float64
	CacheReadCount uint64
}

// ExecutionResult is what Ledger.ExecuteBlock returns on success.
type ExecutionResult struct {
	World    interface{}
	GasUsed  uint64
	Receipts types.Receipts
	Stats    ExecutionStats
}

// MissingStateNodeError reports that a state trie node the ledger needed
// while executing a block is not present locally. hash identifies the
// missing node; BlockNumber identifies the block whose execution stalled,
// so the same block can be retried once the node has been fetched.
type MissingStateNodeError struct {
	Hash        common.Hash
	BlockNumber uint64
}

func (e *MissingStateNodeError) Error() string {
	return "missing state node " + e.Hash.Hex()
}

// BlockExecutionError wraps any other ledger failure with the number of
// the block that failed, so the caller can log it without unwrapping.
type BlockExecutionError struct {
	BlockNumber uint64
	Err         error
}

func (e *BlockExecutionError) Error() string { return e.Err.Error() }
func (e *BlockExecutionError) Unwrap() error { return e.Err }

// ErrInvalidBlockSequence is returned by ValidateBlocksBeforeExecution when
// none of the offered blocks are acceptable.
var ErrInvalidBlockSequence = errors.New("invalid block sequence")

// Ledger executes blocks against world state. It is supplied by the EVM /
// state-transition subsystem and treated as an external collaborator: the
// downloader only ever calls these three methods.
type Ledger interface {
	ExecuteBlock(block *types.Block) (*ExecutionResult, error)
	ValidateBlocksBeforeExecution(blocks types.Blocks) (types.Blocks, error)
	// SetCurrBlockHeaderForChecking refreshes the validator's reference
	// header after a batch of blocks lands successfully.
	SetCurrBlockHeaderForChecking(header *types.Header)
}

// Storage is the key-value and index backend the downloader persists
// accepted blocks into and reads the canonical chain from.
type Storage interface {
	BestBlockNumber() uint64
	GetTotalDifficultyByHash(hash common.Hash) (*big.Int, bool)
	GetBlockHeaderByNumber(number uint64) (*types.Header, bool)
	GetBlockByNumber(number uint64) (*types.Block, bool)
	// SaveNewBlock persists world, block, receipts and the chain's new
	// total difficulty atomically: a crash partway through must not leave
	// an inconsistent on-disk chain.
	SaveNewBlock(world interface{}, block *types.Block, receipts types.Receipts, td *big.Int) error
	SwitchToWithUnconfirmed()
	ClearUnconfirmed()
	Put(key common.Hash, value []byte)
	FastSyncDone() bool
}

// TxPool is the pending-transaction pool. The downloader only ever adds
// displaced transactions back in (after a committed reorg, once the new
// branch's blocks land) and removes included ones (after a block executes).
type TxPool interface {
	Add(txs types.Transactions)
	Remove(txs types.Transactions)
}

// UnclePool tracks blocks that were valid but did not become canonical, so
// a later canonical block can still reference them for a reward.
type UnclePool interface {
	Add(headers types.Headers)
	Remove(headers types.Headers)
}
