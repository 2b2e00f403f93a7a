package builder

import (
	"math/big"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"

	"github.com/mantlenetworkio/il-builder/blobparams"
)

// packingResult is what the mempool pass hands back to the orchestrator:
// the committed transactions are already folded into the executor's running
// state and header gas counters, so only the bookkeeping the revenue gate
// and the finalizer need travels separately.
type packingResult struct {
	txs         []*types.Transaction
	receipts    []*types.Receipt
	blobCount   int
	invalidated mapset.Set[common.Address] // senders mark_invalid dropped this attempt
}

// runPacking drains the mempool's best-transactions iterator into the block
// until gas or blob-data-gas space runs out or cancellation fires. The
// iterator already interleaves blob and plain transactions by effective
// tip, so a single loop covers both.
func runPacking(cancel <-chan struct{}, pool Mempool, exec TransactionExecutor, header *types.Header, env *BlockEnvironment, sched blobparams.Schedule) (*packingResult, error) {
	res := &packingResult{invalidated: mapset.NewThreadUnsafeSet[common.Address]()}

	attrs := BestTransactionsAttributes{BaseFee: bigToUint256(env.BaseFee)}
	if env.IsCancun {
		attrs.BlobGasPrice = bigToUint256(env.BlobGasPrice)
	}
	it := pool.BestTransactions(attrs)

	blobsSkipped := false
	for {
		select {
		case <-cancel:
			return res, errCancelled
		default:
		}

		if exec.GasRemaining() < params.TxGas {
			log.Trace("not enough gas for further transactions", "have", exec.GasRemaining())
			break
		}

		tx, signer, ok := it.Next()
		if !ok {
			break
		}

		if res.invalidated.Contains(signer) {
			// Stale offer predating this sender's eviction; MarkInvalid
			// only prevents *future* Next calls from the same queue.
			continue
		}

		if tx.Gas() > exec.GasRemaining() {
			it.MarkInvalid(tx, ExceedsGasLimit(tx.Gas(), env.GasLimit))
			res.invalidated.Add(signer)
			continue
		}

		isBlob := tx.Type() == types.BlobTxType
		if isBlob && env.IsCancun {
			if blobsSkipped {
				// The blob budget is already full and skip_blobs has fired;
				// a blob tx the iterator still offers is passed over without
				// mark_invalid.
				continue
			}
			blobs := len(tx.BlobHashes())
			if uint64(res.blobCount+blobs) > sched.Max {
				it.MarkInvalid(tx, ExceedsBlobGasLimit(tx.BlobGas(), sched.MaxBlobGas()))
				res.invalidated.Add(signer)
				continue
			}
		}

		receipt, err := exec.Transact(tx, signer)
		switch classifyExecError(err) {
		case execOK:
			if isBlob && env.IsCancun {
				res.blobCount += len(tx.BlobHashes())
				*header.BlobGasUsed += receipt.BlobGasUsed
				res.txs = append(res.txs, tx.WithoutBlobTxSidecar())
			} else {
				res.txs = append(res.txs, tx)
			}
			res.receipts = append(res.receipts, receipt)
			if env.IsCancun && uint64(res.blobCount) >= sched.Max {
				it.SkipBlobs()
				blobsSkipped = true
			}
		case execNonceTooLow:
			// Not this tx's fault; leave the sender's remaining queue
			// untouched and let the iterator serve its next nonce.
			log.Trace("skipping low-nonce transaction", "hash", tx.Hash(), "sender", signer)
		case execFatal:
			return res, wrapFatal(ErrEvmExecution, err)
		default: // execRejected
			log.Debug("dropping sender after invalid transaction", "hash", tx.Hash(), "sender", signer, "err", err)
			it.MarkInvalid(tx, Consensus(err.Error()))
			res.invalidated.Add(signer)
		}
	}

	return res, nil
}

func bigToUint256(v *big.Int) *uint256.Int {
	if v == nil {
		return nil
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return uint256.NewInt(0).SetAllOne()
	}
	return u
}
