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

package core

import (
	"sync"

	"github.com/ethersync/ethersync/common"
	"github.com/ethersync/ethersync/core/types"
)

// SimpleTxPool is a minimal in-memory TxPool: enough for the downloader to
// exercise Add/Remove against without pulling in a full validating mempool,
// which is an external collaborator per the sync engine's scope.
type SimpleTxPool struct {
	mu  sync.Mutex
	txs map[common.Hash]*types.Transaction
}

func NewSimpleTxPool() *SimpleTxPool {
	return &SimpleTxPool{txs: make(map[common.Hash]*types.Transaction)}
}

func (p *SimpleTxPool) Add(txs types.Transactions) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tx := range txs {
		p.txs[tx.Hash()] = tx
	}
}

func (p *SimpleTxPool) Remove(txs types.Transactions) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tx := range txs {
		delete(p.txs, tx.Hash())
	}
}

func (p *SimpleTxPool) Pending() types.Transactions {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(types.Transactions, 0, len(p.txs))
	for _, tx := range p.txs {
		out = append(out, tx)
	}
	return out
}

func (p *SimpleTxPool) Has(hash common.Hash) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.txs[hash]
	return ok
}

// SimpleUnclePool is a minimal in-memory UnclePool.
type SimpleUnclePool struct {
	mu     sync.Mutex
	uncles map[common.Hash]*types.Header
}

func NewSimpleUnclePool() *SimpleUnclePool {
	return &SimpleUnclePool{uncles: make(map[common.Hash]*types.Header)}
}

func (p *SimpleUnclePool) Add(headers types.Headers) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range headers {
		p.uncles[h.Hash()] = h
	}
}

func (p *SimpleUnclePool) Remove(headers types.Headers) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range headers {
		delete(p.uncles, h.Hash())
	}
}

func (p *SimpleUnclePool) Has(hash common.Hash) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.uncles[hash]
	return ok
}

func (p *SimpleUnclePool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.uncles)
}
