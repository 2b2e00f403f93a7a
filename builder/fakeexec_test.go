package builder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto/kzg4844"
	"github.com/holiman/uint256"
)

// fakeExecResult is one canned Transact outcome.
type fakeExecResult struct {
	err         error
	gasUsed     uint64
	blobGasUsed uint64
}

// fakeExecutor is a TransactionExecutor test double driven by a script of
// per-hash canned outcomes, consumed in order on repeated offers of the same
// transaction (the inclusion-list pass re-offers a transient entry across
// restarts). It lets the packing and inclusion-list loops be exercised
// without a real EVM or state database.
type fakeExecutor struct {
	gas     uint64
	results map[common.Hash][]fakeExecResult
	calls   map[common.Hash]int
}

func newFakeExecutor(gas uint64) *fakeExecutor {
	return &fakeExecutor{
		gas:     gas,
		results: make(map[common.Hash][]fakeExecResult),
		calls:   make(map[common.Hash]int),
	}
}

// script registers the outcomes Transact should hand back on successive
// offers of tx, in order; the last entry repeats for any offer beyond the
// scripted count.
func (f *fakeExecutor) script(tx *types.Transaction, outcomes ...fakeExecResult) {
	f.results[tx.Hash()] = outcomes
}

func (f *fakeExecutor) GasRemaining() uint64 { return f.gas }

func (f *fakeExecutor) Transact(tx *types.Transaction, _ common.Address) (*types.Receipt, error) {
	outcomes, ok := f.results[tx.Hash()]
	if !ok || len(outcomes) == 0 {
		panic("fakeExecutor: no canned result scripted for " + tx.Hash().Hex())
	}
	idx := f.calls[tx.Hash()]
	if idx >= len(outcomes) {
		idx = len(outcomes) - 1
	}
	f.calls[tx.Hash()]++

	res := outcomes[idx]
	if res.err != nil {
		return nil, res.err
	}
	f.gas -= res.gasUsed
	return &types.Receipt{GasUsed: res.gasUsed, BlobGasUsed: res.blobGasUsed}, nil
}

// fakeTx builds a bare legacy transaction; only its gas limit, nonce (for
// hash uniqueness) and type matter to the packing/IL loops, since execution
// outcomes are canned on fakeExecutor rather than derived from tx contents.
func fakeTx(nonce uint64, gasLimit uint64) *types.Transaction {
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: big.NewInt(1),
		Gas:      gasLimit,
		To:       &common.Address{},
		Value:    big.NewInt(0),
	})
}

// fakeBlobTx builds a blob transaction carrying blobCount blob hashes, with a
// sidecar holding the same number of blobs. packing.go counts blobs by
// len(tx.BlobHashes()) both in the pre-commit gate check and in the
// post-commit blobCount bookkeeping.
func fakeBlobTx(nonce uint64, gasLimit uint64, blobCount int) *types.Transaction {
	hashes := make([]common.Hash, blobCount)
	blobs := make([]kzg4844.Blob, blobCount)
	for i := range hashes {
		hashes[i] = common.Hash{byte(nonce), byte(i + 1)}
	}
	return types.NewTx(&types.BlobTx{
		Nonce:      nonce,
		GasTipCap:  uint256.NewInt(1),
		GasFeeCap:  uint256.NewInt(1000),
		Gas:        gasLimit,
		To:         common.Address{},
		BlobHashes: hashes,
		Sidecar:    &types.BlobTxSidecar{Blobs: blobs},
	})
}
