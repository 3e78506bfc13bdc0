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

package downloader

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ethersync/ethersync/common"
	"github.com/ethersync/ethersync/core"
	"github.com/ethersync/ethersync/core/types"
	"github.com/ethersync/ethersync/event"
)

// chain builds n headers extending from parent, each with the given
// difficulty, forming a well-formed adjacent sequence.
func chain(parent *types.Header, n int, difficulty int64) types.Headers {
	out := make(types.Headers, n)
	prev := parent
	for i := 0; i < n; i++ {
		h := &types.Header{
			ParentHash: prev.Hash(),
			Number:     new(big.Int).Add(prev.Number, big.NewInt(1)),
			Difficulty: big.NewInt(difficulty),
		}
		out[i] = h
		prev = h
	}
	return out
}

func genesisHeader() *types.Header {
	return &types.Header{Number: big.NewInt(0), Difficulty: big.NewInt(1)}
}

func bodiesFor(headers types.Headers) Bodies {
	out := make(Bodies, len(headers))
	for i := range headers {
		out[i] = &types.Body{}
	}
	return out
}

// harness wires a fresh Engine against in-memory reference
// implementations of every external collaborator.
type harness struct {
	t       *testing.T
	engine  *Engine
	storage *core.ChainStore
	ledger  *core.SimpleLedger
	txPool  *core.SimpleTxPool
	uncles  *core.SimpleUnclePool
	mux     *event.TypeMux
}

func newHarness(t *testing.T, opts ...func(*Config)) *harness {
	genesis := types.NewBlock(genesisHeader(), &types.Body{})
	storage := core.NewChainStore(genesis)
	ledger := core.NewSimpleLedger()
	txPool := core.NewSimpleTxPool()
	uncles := core.NewSimpleUnclePool()
	mux := event.NewTypeMux()

	cfg := DefaultConfig
	cfg.CheckForNewBlockInterval = 20 * time.Millisecond
	for _, opt := range opts {
		opt(&cfg)
	}

	e := New(cfg, ledger, storage, txPool, uncles, mux)
	h := &harness{t: t, engine: e, storage: storage, ledger: ledger, txPool: txPool, uncles: uncles, mux: mux}
	go e.Start()
	t.Cleanup(e.Stop)
	return h
}

// registerPeer wires a fake peer. On every requestHeaders call it reruns
// makeHeaders against the current local tip, the way a real peer would
// answer a GetBlockHeaders(start=bestBlockNumber+1) call; bodies are
// derived with makeBodies from whatever headers were just offered.
func (h *harness) registerPeer(id string, td *big.Int, makeHeaders func() types.Headers, makeBodies func(types.Headers) Bodies) {
	var lastOffered types.Headers
	requestHeaders := func(start HeaderStart, count, skip int, reverse bool) (types.Headers, bool, error) {
		lastOffered = makeHeaders()
		return lastOffered, true, nil
	}
	requestBodies := func(hashes []common.Hash) (Bodies, bool, error) {
		if makeBodies == nil {
			return nil, true, nil
		}
		return makeBodies(lastOffered), true, nil
	}
	requestNodeData := func(hash common.Hash) ([]byte, bool, error) { return []byte{0x1}, true, nil }

	require.NoError(h.t, h.engine.RegisterPeer(id, common.Hash{}, td, requestHeaders, requestBodies, requestNodeData))
}

func TestHappyTipFollow(t *testing.T) {
	h := newHarness(t)
	full := chain(genesisHeader(), 10, 10)

	h.registerPeer("peer1", big.NewInt(1000), func() types.Headers {
		best := h.storage.BestBlockNumber()
		if best >= 10 {
			return nil
		}
		return full[best:]
	}, bodiesFor)

	require.Eventually(t, func() bool {
		return h.storage.BestBlockNumber() == 10
	}, time.Second, 5*time.Millisecond)
}

func TestEmptyPeerResponse(t *testing.T) {
	h := newHarness(t)
	h.registerPeer("peer1", big.NewInt(1000), func() types.Headers { return nil }, nil)

	require.Never(t, func() bool {
		return h.storage.BestBlockNumber() != 0
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestShortReorgNewBranchWins(t *testing.T) {
	h := newHarness(t)

	// Local chain already has A#1 (diff 5).
	a1 := &types.Header{Number: big.NewInt(1), ParentHash: genesisHeader().Hash(), Difficulty: big.NewInt(5)}
	require.NoError(h.t, h.storage.SaveNewBlock(nil, types.NewBlock(a1, &types.Body{}), nil, big.NewInt(6)))

	b1 := &types.Header{Number: big.NewInt(1), ParentHash: genesisHeader().Hash(), Difficulty: big.NewInt(7)}
	b2 := &types.Header{Number: big.NewInt(2), ParentHash: b1.Hash(), Difficulty: big.NewInt(7)}
	offered := types.Headers{b1, b2}

	served := false
	h.registerPeer("peer1", big.NewInt(1000), func() types.Headers {
		if served {
			return nil
		}
		served = true
		return offered
	}, bodiesFor)

	require.Eventually(t, func() bool {
		return h.storage.BestBlockNumber() == 2
	}, time.Second, 5*time.Millisecond)

	blk, ok := h.storage.GetBlockByNumber(1)
	require.True(t, ok)
	require.Equal(t, b1.Hash(), blk.Hash())
}

func TestShortReorgNewBranchLoses(t *testing.T) {
	h := newHarness(t)

	a1 := &types.Header{Number: big.NewInt(1), ParentHash: genesisHeader().Hash(), Difficulty: big.NewInt(5)}
	require.NoError(h.t, h.storage.SaveNewBlock(nil, types.NewBlock(a1, &types.Body{}), nil, big.NewInt(6)))

	b1 := &types.Header{Number: big.NewInt(1), ParentHash: genesisHeader().Hash(), Difficulty: big.NewInt(3)}

	served := false
	h.registerPeer("peer1", big.NewInt(1000), func() types.Headers {
		if served {
			return nil
		}
		served = true
		return types.Headers{b1}
	}, nil)

	require.Never(t, func() bool {
		return h.storage.BestBlockNumber() != 1
	}, 100*time.Millisecond, 10*time.Millisecond)

	blk, ok := h.storage.GetBlockByNumber(1)
	require.True(t, ok)
	require.Equal(t, a1.Hash(), blk.Hash())
	require.True(t, h.uncles.Has(b1.Hash()))
}

// TestDeepForkForceBlacklists drives a peer through two consecutive
// fork-resolve attempts that both fail to rejoin the canonical chain
// within BlockResolveDepth, and checks that the peer ends up both
// blacklisted and recorded as a consecutive (force) offender.
func TestDeepForkForceBlacklists(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.BlockResolveDepth = 2 })

	a1 := &types.Header{Number: big.NewInt(1), ParentHash: genesisHeader().Hash(), Difficulty: big.NewInt(5)}
	require.NoError(h.t, h.storage.SaveNewBlock(nil, types.NewBlock(a1, &types.Body{}), nil, big.NewInt(6)))

	// deepHeader is the backward step the peer offers in response to the
	// fork resolver's StartAtHash request; its parent still isn't the
	// local genesis, so the second attempt diverges too.
	deepHeader := &types.Header{Number: big.NewInt(1), ParentHash: common.HexToHash("0xbadbad"), Difficulty: big.NewInt(9)}
	unrelated := &types.Header{Number: big.NewInt(1), ParentHash: deepHeader.Hash(), Difficulty: big.NewInt(9)}

	calls := 0
	h.registerPeer("peer1", big.NewInt(1000), func() types.Headers {
		calls++
		switch calls {
		case 1:
			return types.Headers{unrelated}
		case 2:
			return types.Headers{deepHeader}
		default:
			return nil
		}
	}, bodiesFor)

	require.Eventually(t, func() bool {
		return h.engine.peers.blacklist.Contains("peer1")
	}, time.Second, 5*time.Millisecond)
	require.True(t, h.engine.forkLog.Consecutive("peer1"))
}

func TestMissingStateNodeRecovers(t *testing.T) {
	h := newHarness(t)
	headers := chain(genesisHeader(), 1, 10)
	missing := &core.MissingStateNodeError{Hash: common.HexToHash("0xdead"), BlockNumber: headers[0].NumberU64()}
	h.ledger.FailAt(headers[0].NumberU64(), missing)

	h.registerPeer("peer1", big.NewInt(1000), func() types.Headers {
		if h.storage.BestBlockNumber() >= headers[0].NumberU64() {
			return nil
		}
		return headers
	}, bodiesFor)

	require.Eventually(t, func() bool {
		_, ok := h.storage.Get(missing.Hash)
		return ok
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return h.storage.BestBlockNumber() == headers[0].NumberU64()
	}, time.Second, 5*time.Millisecond)
}
