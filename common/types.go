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

package common

import "math/big"

const (
	HashLength    = 32
	AddressLength = 20
)

// Hash represents the 32 byte output of a cryptographic hash function.
type Hash [HashLength]byte

func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}
func StringToHash(s string) Hash { return BytesToHash([]byte(s)) }
func BigToHash(b *big.Int) Hash  { return BytesToHash(b.Bytes()) }
func HexToHash(s string) Hash    { return BytesToHash(FromHex(s)) }

func (h Hash) Str() string   { return string(h[:]) }
func (h Hash) Bytes() []byte { return h[:] }
func (h Hash) Big() *big.Int { return new(big.Int).SetBytes(h[:]) }
func (h Hash) Hex() string   { return "0x" + Bytes2Hex(h[:]) }
func (h Hash) String() string { return h.Hex() }

func (h Hash) TerminalString() string {
	return h.Hex()[:8]
}

func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	for i := len(b) - 1; i >= 0; i-- {
		h[HashLength-len(b)+i] = b[i]
	}
}

func (h *Hash) Set(other Hash) { *h = other }

func (h Hash) IsZero() bool { return h == (Hash{}) }

// Address represents the 20 byte address of an Ethereum-family account.
type Address [AddressLength]byte

func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}
func HexToAddress(s string) Address { return BytesToAddress(FromHex(s)) }

func (a Address) Bytes() []byte  { return a[:] }
func (a Address) Hex() string    { return "0x" + Bytes2Hex(a[:]) }
func (a Address) String() string { return a.Hex() }

func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	for i := len(b) - 1; i >= 0; i-- {
		a[AddressLength-len(b)+i] = b[i]
	}
}

// Hashes is a slice of Hash, sortable by value.
type Hashes []Hash

func (hs Hashes) Len() int           { return len(hs) }
func (hs Hashes) Less(i, j int) bool { return bytes2BigLess(hs[i][:], hs[j][:]) }
func (hs Hashes) Swap(i, j int)      { hs[i], hs[j] = hs[j], hs[i] }

func bytes2BigLess(a, b []byte) bool {
	return new(big.Int).SetBytes(a).Cmp(new(big.Int).SetBytes(b)) < 0
}
