package builder

import (
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
)

// ilResult is the fixed-point pass's output: the transactions and receipts
// it committed, which the caller appends onto the mempool pass's in
// inclusion order.
type ilResult struct {
	txs      []*types.Transaction
	receipts []*types.Receipt
}

// runInclusionListPass retries inclusion-list entries to a fixed point.
// The bitfield only ever transitions true->false (never back), which bounds
// total work at O(n^2): each of the n possible restarts can flip at most n
// bits, and a restart only happens after a successful commit, which strictly
// shrinks the population of true bits.
func runInclusionListPass(exec TransactionExecutor, il []*RecoveredTransaction) (*ilResult, error) {
	n := len(il)
	bitfield := make([]bool, n)
	for i, rtx := range il {
		bitfield[i] = rtx != nil
	}

	res := &ilResult{}

	i := 0
	for i < n {
		if !bitfield[i] {
			i++
			continue
		}
		rtx := il[i]
		tx := rtx.Tx

		if tx.Type() == types.BlobTxType {
			bitfield[i] = false
			i++
			continue
		}
		if tx.Gas() > exec.GasRemaining() {
			bitfield[i] = false
			i++
			continue
		}

		receipt, err := exec.Transact(tx, rtx.Signer)
		if err == nil {
			res.txs = append(res.txs, tx)
			res.receipts = append(res.receipts, receipt)
			bitfield[i] = false
			i = 0 // a newly committed tx may unlock an earlier transient entry
			continue
		}

		if isTransientNonceFault(err) {
			log.Trace("inclusion-list entry transiently unexecutable", "hash", tx.Hash(), "err", err)
			i++
			continue
		}
		switch classifyExecError(err) {
		case execFatal:
			return res, wrapFatal(ErrEvmExecution, err)
		default:
			log.Debug("inclusion-list entry permanently rejected", "hash", tx.Hash(), "err", err)
			bitfield[i] = false
			i++
		}
	}

	return res, nil
}
