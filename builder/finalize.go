package builder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/holiman/uint256"
)

// finalizeBlock turns the committed working state and accumulated
// transactions/receipts into a sealed block: withdrawals are credited, the
// roots and bloom derived, and the post-state committed. This package has no
// consensus.Engine to call FinalizeAndAssemble on, so the steps the miner
// would have delegated are done directly here instead.
func finalizeBlock(
	db *state.StateDB,
	header *types.Header,
	env *BlockEnvironment,
	attrs *BuildAttributes,
	txs []*types.Transaction,
	receipts []*types.Receipt,
	requests [][]byte,
) (*types.Block, error) {
	if env.IsShanghai {
		for _, w := range attrs.Withdrawals {
			amount := new(big.Int).Mul(new(big.Int).SetUint64(w.Amount), big.NewInt(1e9)) // gwei -> wei
			db.AddBalance(w.Address, uint256.MustFromBig(amount), tracing.BalanceIncreaseWithdrawal)
		}
		wroot := types.DeriveSha(attrs.Withdrawals, trie.NewStackTrie(nil))
		header.WithdrawalsHash = &wroot
	}

	if env.IsPrague && requests != nil {
		reqHash := types.CalcRequestsHash(requests)
		header.RequestsHash = &reqHash
	}

	header.ReceiptHash = types.DeriveSha(types.Receipts(receipts), trie.NewStackTrie(nil))
	header.Bloom = types.MergeBloom(receipts)
	header.TxHash = types.DeriveSha(types.Transactions(txs), trie.NewStackTrie(nil))

	root, err := db.Commit(header.Number.Uint64(), true, env.IsCancun)
	if err != nil {
		return nil, wrapFatal(ErrInternal, err)
	}
	header.Root = root

	body := &types.Body{Transactions: txs, Withdrawals: attrs.Withdrawals}
	block := types.NewBlock(header, body, receipts, trie.NewStackTrie(nil))

	return block, nil
}

// fetchBlobSidecars gathers the sidecar of every included blob transaction
// from the mempool by exact hash match, fatal if any is missing.
func fetchBlobSidecars(pool Mempool, txs []*types.Transaction) ([]*types.BlobTxSidecar, error) {
	var hashes []common.Hash
	for _, tx := range txs {
		if tx.Type() == types.BlobTxType {
			hashes = append(hashes, tx.Hash())
		}
	}
	if len(hashes) == 0 {
		return nil, nil
	}
	sidecars, err := pool.GetAllBlobsExact(hashes)
	if err != nil {
		log.Warn("missing blob sidecar for committed transaction", "err", err)
		return nil, wrapFatal(ErrOther, err)
	}
	return sidecars, nil
}
