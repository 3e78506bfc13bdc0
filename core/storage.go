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
	"math/big"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/ethersync/ethersync/common"
	"github.com/ethersync/ethersync/core/types"
)

const (
	blockCacheLimit = 256
	tdCacheLimit    = 256
)

// ChainStore is a minimal, in-memory Storage implementation: a canonical
// by-number index guarded by a mutex, fronted by the same recent-block and
// recent-TD LRU caches the ledger's own blockchain keeps, sized the same
// way. It is enough to drive and test the downloader without a real
// key-value backend.
type ChainStore struct {
	mu sync.RWMutex

	best     uint64
	byNumber map[uint64]*types.Block
	tdByHash map[common.Hash]*big.Int
	nodes    map[common.Hash][]byte

	blockCache *lru.Cache
	tdCache    *lru.Cache

	unconfirmed []uint64 // numbers staged during an in-progress reorg
	fastSync    bool
}

// NewChainStore constructs a ChainStore seeded with a genesis block at
// number 0.
func NewChainStore(genesis *types.Block) *ChainStore {
	blockCache, _ := lru.New(blockCacheLimit)
	tdCache, _ := lru.New(tdCacheLimit)

	s := &ChainStore{
		byNumber:   make(map[uint64]*types.Block),
		tdByHash:   make(map[common.Hash]*big.Int),
		nodes:      make(map[common.Hash][]byte),
		blockCache: blockCache,
		tdCache:    tdCache,
		fastSync:   true,
	}
	if genesis != nil {
		s.byNumber[genesis.NumberU64()] = genesis
		s.tdByHash[genesis.Hash()] = new(big.Int).Set(genesis.Difficulty())
		s.best = genesis.NumberU64()
	}
	return s
}

func (s *ChainStore) BestBlockNumber() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.best
}

func (s *ChainStore) GetTotalDifficultyByHash(hash common.Hash) (*big.Int, bool) {
	if cached, ok := s.tdCache.Get(hash); ok {
		return cached.(*big.Int), true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, ok := s.tdByHash[hash]
	if ok {
		s.tdCache.Add(hash, td)
	}
	return td, ok
}

func (s *ChainStore) GetBlockHeaderByNumber(number uint64) (*types.Header, bool) {
	b, ok := s.GetBlockByNumber(number)
	if !ok {
		return nil, false
	}
	return b.Header(), true
}

func (s *ChainStore) GetBlockByNumber(number uint64) (*types.Block, bool) {
	if cached, ok := s.blockCache.Get(number); ok {
		return cached.(*types.Block), true
	}
	s.mu.RLock()
	b, ok := s.byNumber[number]
	s.mu.RUnlock()
	if ok {
		s.blockCache.Add(number, b)
	}
	return b, ok
}

// SaveNewBlock persists a block and its total difficulty atomically with
// respect to readers: the write lock is held for the full update.
func (s *ChainStore) SaveNewBlock(world interface{}, block *types.Block, receipts types.Receipts, td *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byNumber[block.NumberU64()] = block
	s.tdByHash[block.Hash()] = new(big.Int).Set(td)
	if block.NumberU64() > s.best {
		s.best = block.NumberU64()
	}
	s.blockCache.Add(block.NumberU64(), block)
	s.tdCache.Add(block.Hash(), td)
	return nil
}

// SwitchToWithUnconfirmed marks the current best as tentative, pending a
// reorg decision.
func (s *ChainStore) SwitchToWithUnconfirmed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unconfirmed = append(s.unconfirmed, s.best)
}

// ClearUnconfirmed discards the staged tentative numbers, called once a
// reorg commits for good.
func (s *ChainStore) ClearUnconfirmed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unconfirmed = nil
}

func (s *ChainStore) Put(key common.Hash, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[key] = value
}

func (s *ChainStore) Get(key common.Hash) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.nodes[key]
	return v, ok
}

func (s *ChainStore) FastSyncDone() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fastSync
}
