package core

import (
	"math/big"
	"testing"

	"github.com/ethersync/ethersync/common"
	"github.com/ethersync/ethersync/core/types"
)

func TestChainStoreSaveAndLookup(t *testing.T) {
	genesis := types.NewBlock(&types.Header{Number: big.NewInt(0), Difficulty: big.NewInt(1)}, &types.Body{})
	store := NewChainStore(genesis)

	if store.BestBlockNumber() != 0 {
		t.Fatalf("got best %d, want 0", store.BestBlockNumber())
	}

	h1 := &types.Header{Number: big.NewInt(1), ParentHash: genesis.Hash(), Difficulty: big.NewInt(5)}
	b1 := types.NewBlock(h1, &types.Body{})
	if err := store.SaveNewBlock(nil, b1, nil, big.NewInt(6)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if store.BestBlockNumber() != 1 {
		t.Fatalf("got best %d, want 1", store.BestBlockNumber())
	}
	got, ok := store.GetBlockByNumber(1)
	if !ok || got.Hash() != b1.Hash() {
		t.Fatalf("lookup mismatch")
	}
	td, ok := store.GetTotalDifficultyByHash(b1.Hash())
	if !ok || td.Cmp(big.NewInt(6)) != 0 {
		t.Fatalf("got td %v, want 6", td)
	}
}

func TestChainStoreNodeData(t *testing.T) {
	store := NewChainStore(nil)
	hash := common.HexToHash("0x01")
	if _, ok := store.Get(hash); ok {
		t.Fatal("expected miss before Put")
	}
	store.Put(hash, []byte{1, 2, 3})
	v, ok := store.Get(hash)
	if !ok || len(v) != 3 {
		t.Fatalf("got %v, ok=%v", v, ok)
	}
}

func TestSimpleTxPoolAddRemove(t *testing.T) {
	pool := NewSimpleTxPool()
	tx := types.NewTransaction(common.HexToHash("0xaa"), common.Address{}, 0, nil)
	pool.Add(types.Transactions{tx})
	if !pool.Has(tx.Hash()) {
		t.Fatal("expected tx present after Add")
	}
	pool.Remove(types.Transactions{tx})
	if pool.Has(tx.Hash()) {
		t.Fatal("expected tx gone after Remove")
	}
}

func TestSimpleUnclePoolAddRemove(t *testing.T) {
	pool := NewSimpleUnclePool()
	h := &types.Header{Number: big.NewInt(1)}
	pool.Add(types.Headers{h})
	if pool.Len() != 1 {
		t.Fatalf("got len %d, want 1", pool.Len())
	}
	pool.Remove(types.Headers{h})
	if pool.Len() != 0 {
		t.Fatalf("got len %d, want 0", pool.Len())
	}
}

func TestTxDifference(t *testing.T) {
	tx1 := types.NewTransaction(common.HexToHash("0x01"), common.Address{}, 0, nil)
	tx2 := types.NewTransaction(common.HexToHash("0x02"), common.Address{}, 1, nil)
	a := types.Transactions{tx1, tx2}
	b := types.Transactions{tx1}

	diff := types.TxDifference(a, b)
	if len(diff) != 1 || diff[0].Hash() != tx2.Hash() {
		t.Fatalf("got %v, want [tx2]", diff)
	}
}
