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

package core

import (
	"sync"
	"sync/atomic"

	"github.com/ethersync/ethersync/core/types"
)

// SimpleLedger is a Ledger stand-in for driving and testing the downloader
// without a real EVM: ExecuteBlock always succeeds unless a number has
// been pre-armed to fail via FailAt, and ValidateBlocksBeforeExecution
// accepts every block whose parent links check out.
type SimpleLedger struct {
	mu       sync.Mutex
	failAt   map[uint64]error
	checking atomic.Value // *types.Header
}

func NewSimpleLedger() *SimpleLedger {
	return &SimpleLedger{failAt: make(map[uint64]error)}
}

// FailAt arms the ledger to return err the next time block number n is
// executed. The arming is consumed on first match.
func (l *SimpleLedger) FailAt(n uint64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failAt[n] = err
}

func (l *SimpleLedger) ExecuteBlock(block *types.Block) (*ExecutionResult, error) {
	l.mu.Lock()
	err, armed := l.failAt[block.NumberU64()]
	if armed {
		delete(l.failAt, block.NumberU64())
	}
	l.mu.Unlock()
	if armed {
		return nil, err
	}
	return &ExecutionResult{
		World:    nil,
		GasUsed:  block.Header().GasUsed,
		Receipts: make(types.Receipts, len(block.Transactions())),
	}, nil
}

func (l *SimpleLedger) ValidateBlocksBeforeExecution(blocks types.Blocks) (types.Blocks, error) {
	valid := make(types.Blocks, 0, len(blocks))
	for i, b := range blocks {
		if i > 0 && b.ParentHash() != blocks[i-1].Hash() {
			break
		}
		valid = append(valid, b)
	}
	if len(valid) == 0 {
		return nil, ErrInvalidBlockSequence
	}
	return valid, nil
}

func (l *SimpleLedger) SetCurrBlockHeaderForChecking(header *types.Header) {
	l.checking.Store(header)
}

// CheckingHeader returns the header most recently passed to
// SetCurrBlockHeaderForChecking, or nil.
func (l *SimpleLedger) CheckingHeader() *types.Header {
	v := l.checking.Load()
	if v == nil {
		return nil
	}
	return v.(*types.Header)
}
