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

import (
	"math/big"
	"time"

	"github.com/ethersync/ethersync/common"
)

// Body is the pairing of transactions and uncle headers that accompanies a
// header over the wire in a BlockBodies response.
type Body struct {
	Transactions Transactions
	Uncles       Headers
}

// Block is the full in-memory representation the executor pipeline feeds to
// the ledger: a Header plus its Body.
type Block struct {
	header *Header
	body   *Body

	// ReceivedAt is stamped when the block body is paired with its header.
	// Nothing in this module reads or logs it.
	ReceivedAt time.Time
}

func NewBlock(header *Header, body *Body) *Block {
	return &Block{header: header, body: body}
}

func (b *Block) Header() *Header   { return b.header }
func (b *Block) Body() *Body       { return b.body }
func (b *Block) Hash() common.Hash { return b.header.Hash() }
func (b *Block) ParentHash() common.Hash { return b.header.ParentHash }
func (b *Block) Number() *big.Int  { return b.header.Number }
func (b *Block) NumberU64() uint64 { return b.header.NumberU64() }
func (b *Block) Difficulty() *big.Int { return b.header.Difficulty }
func (b *Block) Transactions() Transactions { return b.body.Transactions }
func (b *Block) Uncles() Headers   { return b.body.Uncles }

// Blocks is a slice of *Block, ordered ascending by number in every place
// the engine constructs one.
type Blocks []*Block

// NewBlockPacket is the externally broadcast form of a freshly imported
// block: the block itself plus the total difficulty of the chain it
// extends, exactly as required by the BroadcastNewBlocks contract.
type NewBlockPacket struct {
	Block           *Block
	TotalDifficulty *big.Int
}
