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

// Package types holds the canonical chain entities shared between the
// downloader, the ledger and the storage layer: headers, bodies, blocks and
// their wire-level aggregate, NewBlockPacket.
package types

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"
	"sync/atomic"

	"github.com/ethersync/ethersync/common"
	"github.com/holiman/uint256"
)

// Header represents a block header. It is immutable once received: nothing
// in this package mutates a Header after construction.
type Header struct {
	ParentHash  common.Hash
	UncleHash   common.Hash
	Coinbase    common.Address
	Root        common.Hash
	TxHash      common.Hash
	ReceiptHash common.Hash
	Bloom       [256]byte
	Difficulty  *big.Int
	Number      *big.Int
	GasLimit    uint64
	GasUsed     uint64
	Time        uint64
	Extra       []byte
	MixDigest   common.Hash
	Nonce       uint64

	hash atomic.Value
}

// Hash returns the cached block hash of the header, computing it on first
// use. Headers are immutable, so the cache is never invalidated.
func (h *Header) Hash() common.Hash {
	if cached := h.hash.Load(); cached != nil {
		return cached.(common.Hash)
	}
	v := h.computeHash()
	h.hash.Store(v)
	return v
}

// computeHash derives a deterministic hash from the header's parent, uncle,
// coinbase, root, tx and receipt hashes, difficulty, number, time and extra
// data; Bloom, GasLimit, GasUsed, MixDigest and Nonce are not hashed. A
// production ledger would RLP-encode and keccak256 these; for the
// purposes of this engine all that matters is that it is stable and
// collision-free enough for tests and in-memory bookkeeping.
func (h *Header) computeHash() common.Hash {
	sum := sha256.New()
	sum.Write(h.ParentHash[:])
	sum.Write(h.UncleHash[:])
	sum.Write(h.Coinbase[:])
	sum.Write(h.Root[:])
	sum.Write(h.TxHash[:])
	sum.Write(h.ReceiptHash[:])
	if h.Difficulty != nil {
		sum.Write(h.Difficulty.Bytes())
	}
	var numBuf [8]byte
	if h.Number != nil {
		binary.BigEndian.PutUint64(numBuf[:], h.Number.Uint64())
	}
	sum.Write(numBuf[:])
	var timeBuf [8]byte
	binary.BigEndian.PutUint64(timeBuf[:], h.Time)
	sum.Write(timeBuf[:])
	sum.Write(h.Extra)
	return common.BytesToHash(sum.Sum(nil))
}

// NumberU64 returns the block number as a uint64.
func (h *Header) NumberU64() uint64 {
	if h.Number == nil {
		return 0
	}
	return h.Number.Uint64()
}

// DifficultyU256 returns the header's difficulty as a uint256.Int, the type
// the engine uses for all total-difficulty arithmetic.
func (h *Header) DifficultyU256() *uint256.Int {
	d, _ := uint256.FromBig(h.Difficulty)
	return d
}

// Headers is a slice of *Header, matching the wire-response shape of a
// GetBlockHeaders reply.
type Headers []*Header
