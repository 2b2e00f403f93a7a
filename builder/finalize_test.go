package builder

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/triedb"
)

func newFinalizeTestStateDB(t *testing.T) *state.StateDB {
	t.Helper()
	db := rawdb.NewMemoryDatabase()
	sdb, err := state.New(common.Hash{}, state.NewDatabase(triedb.NewDatabase(db, nil), nil))
	if err != nil {
		t.Fatalf("state.New: %v", err)
	}
	return sdb
}

// gas_used on the sealed block must equal whatever the executor accumulated
// on header.GasUsed; finalizeBlock itself never touches that field, only
// derives the roots and bloom around it.
func TestFinalizeBlockDerivesReceiptsAndTxRoots(t *testing.T) {
	db := newFinalizeTestStateDB(t)
	header := &types.Header{Number: big.NewInt(1), GasUsed: 42_000}
	env := &BlockEnvironment{}
	attrs := &BuildAttributes{}
	txs := []*types.Transaction{fakeTx(0, 21_000)}
	receipts := []*types.Receipt{{GasUsed: 21_000}}

	block, err := finalizeBlock(db, header, env, attrs, txs, receipts, nil)
	if err != nil {
		t.Fatalf("finalizeBlock: %v", err)
	}
	if block.GasUsed() != 42_000 {
		t.Fatalf("expected block gas_used to carry the header's accumulated value, got %d", block.GasUsed())
	}
	wantReceiptRoot := types.DeriveSha(types.Receipts(receipts), trie.NewStackTrie(nil))
	if block.Header().ReceiptHash != wantReceiptRoot {
		t.Fatalf("receipt root mismatch: got %s want %s", block.Header().ReceiptHash, wantReceiptRoot)
	}
	wantTxRoot := types.DeriveSha(types.Transactions(txs), trie.NewStackTrie(nil))
	if block.Header().TxHash != wantTxRoot {
		t.Fatalf("tx root mismatch: got %s want %s", block.Header().TxHash, wantTxRoot)
	}
	if block.Header().WithdrawalsHash != nil {
		t.Fatalf("expected no withdrawals root pre-Shanghai")
	}
	if block.Header().RequestsHash != nil {
		t.Fatalf("expected no requests hash pre-Prague")
	}
}

func TestFinalizeBlockCreditsWithdrawalsAndSetsRoot(t *testing.T) {
	db := newFinalizeTestStateDB(t)
	addr := common.HexToAddress("0x01")
	header := &types.Header{Number: big.NewInt(1)}
	env := &BlockEnvironment{IsShanghai: true}
	attrs := &BuildAttributes{
		Withdrawals: types.Withdrawals{
			{Index: 0, Validator: 1, Address: addr, Amount: 5_000_000_000}, // gwei
		},
	}

	block, err := finalizeBlock(db, header, env, attrs, nil, nil, nil)
	if err != nil {
		t.Fatalf("finalizeBlock: %v", err)
	}
	if block.Header().WithdrawalsHash == nil {
		t.Fatalf("expected a withdrawals root post-Shanghai")
	}
	wantRoot := types.DeriveSha(attrs.Withdrawals, trie.NewStackTrie(nil))
	if *block.Header().WithdrawalsHash != wantRoot {
		t.Fatalf("withdrawals root mismatch: got %s want %s", *block.Header().WithdrawalsHash, wantRoot)
	}

	wantWei := new(big.Int).Mul(big.NewInt(5_000_000_000), big.NewInt(1_000_000_000))
	if got := db.GetBalance(addr).ToBig(); got.Cmp(wantWei) != 0 {
		t.Fatalf("expected withdrawal credited as wei, got %s want %s", got, wantWei)
	}
}

func TestFinalizeBlockPragueSetsRequestsHash(t *testing.T) {
	db := newFinalizeTestStateDB(t)
	header := &types.Header{Number: big.NewInt(1)}
	env := &BlockEnvironment{IsPrague: true}
	attrs := &BuildAttributes{}
	requests := [][]byte{{0x00, 1, 2, 3}}

	block, err := finalizeBlock(db, header, env, attrs, nil, nil, requests)
	if err != nil {
		t.Fatalf("finalizeBlock: %v", err)
	}
	if block.Header().RequestsHash == nil {
		t.Fatalf("expected a requests hash post-Prague when requests is non-nil")
	}
	want := types.CalcRequestsHash(requests)
	if *block.Header().RequestsHash != want {
		t.Fatalf("requests hash mismatch: got %s want %s", *block.Header().RequestsHash, want)
	}
}

// Prague alone does not force a requests hash: an empty build with no
// harvested requests (requests == nil) must leave the header field unset.
func TestFinalizeBlockPragueWithNilRequestsLeavesHashUnset(t *testing.T) {
	db := newFinalizeTestStateDB(t)
	header := &types.Header{Number: big.NewInt(1)}
	env := &BlockEnvironment{IsPrague: true}
	attrs := &BuildAttributes{}

	block, err := finalizeBlock(db, header, env, attrs, nil, nil, nil)
	if err != nil {
		t.Fatalf("finalizeBlock: %v", err)
	}
	if block.Header().RequestsHash != nil {
		t.Fatalf("expected no requests hash when requests is nil")
	}
}

func TestFetchBlobSidecarsNoBlobTxsReturnsNil(t *testing.T) {
	txs := []*types.Transaction{fakeTx(0, 21_000)}
	sidecars, err := fetchBlobSidecars(&fakeMempool{it: &fakeIterator{}}, txs)
	if err != nil {
		t.Fatalf("fetchBlobSidecars: %v", err)
	}
	if sidecars != nil {
		t.Fatalf("expected no sidecar lookup for a block with no blob txs")
	}
}

type erroringBlobMempool struct{ err error }

func (m *erroringBlobMempool) BestTransactions(BestTransactionsAttributes) BestTransactionsIterator {
	panic("not used by fetchBlobSidecars")
}

func (m *erroringBlobMempool) GetAllBlobsExact([]common.Hash) ([]*types.BlobTxSidecar, error) {
	return nil, m.err
}

func TestFetchBlobSidecarsMissingSidecarIsFatal(t *testing.T) {
	underlying := errors.New("sidecar not found")
	txs := []*types.Transaction{fakeBlobTx(0, 21_000, 1)}

	_, err := fetchBlobSidecars(&erroringBlobMempool{err: underlying}, txs)
	if !errors.Is(err, ErrOther) {
		t.Fatalf("expected a wrapped ErrOther, got %v", err)
	}
	if !errors.Is(err, underlying) {
		t.Fatalf("expected errors.Unwrap to reach the underlying cause, got %v", err)
	}
}
