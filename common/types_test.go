package common

import (
	"sort"
	"testing"
)

func TestHashHexRoundTrip(t *testing.T) {
	h := HexToHash("0x0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	if h.Hex() != "0x0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f" {
		t.Fatalf("got %s", h.Hex())
	}
	if h.IsZero() {
		t.Fatal("expected non-zero hash")
	}
}

func TestHashIsZero(t *testing.T) {
	var h Hash
	if !h.IsZero() {
		t.Fatal("expected zero value hash to report IsZero")
	}
}

func TestHashesSort(t *testing.T) {
	hs := Hashes{HexToHash("0x02"), HexToHash("0x01"), HexToHash("0x03")}
	sort.Sort(hs)
	if hs[0] != HexToHash("0x01") || hs[2] != HexToHash("0x03") {
		t.Fatalf("got %v", hs)
	}
}

func TestAddressBytesToAddress(t *testing.T) {
	a := BytesToAddress([]byte{1, 2, 3})
	if a.Bytes()[AddressLength-1] != 3 {
		t.Fatalf("got %x", a.Bytes())
	}
}
