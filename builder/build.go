package builder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/consensus"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
)

// chainContextAdapter satisfies core.ChainContext so core.NewEVMBlockContext's
// GetHash callback (the BLOCKHASH opcode) can resolve ancestor headers
// through ClientHandle.
type chainContextAdapter struct {
	client ClientHandle
	engine consensus.Engine
}

func (a chainContextAdapter) Engine() consensus.Engine { return a.engine }

func (a chainContextAdapter) Config() *params.ChainConfig { return a.client.ChainSpec().Config() }

func (a chainContextAdapter) GetHeader(hash common.Hash, _ uint64) *types.Header {
	h, err := a.client.HeaderByHash(hash)
	if err != nil {
		return nil
	}
	return h
}

// Build runs one payload build attempt end to end: resolve the environment,
// run the pre-block system calls, pack the mempool, drive the inclusion
// list to its fixed point, gate on revenue, finalize and seal. emptyPayload
// selects the fallback mode: a no-op mempool and an unconditional win, so a
// payload always exists even before the first full attempt completes; the
// IL pass still runs and finalization proceeds normally.
func Build(args BuildArguments, attrs *BuildAttributes, emptyPayload bool) (Outcome, error) {
	client := args.Client
	spec := client.ChainSpec()
	chainConfig := spec.Config()

	parent, err := client.HeaderByHash(attrs.ParentHash)
	if err != nil {
		return Outcome{}, wrapFatal(ErrProvider, err)
	}

	env, err := resolveEnvironment(parent, attrs, spec, args.Config)
	if err != nil {
		return Outcome{}, wrapFatal(ErrOther, err)
	}

	db, err := args.CachedReads.StateAt(parent.Hash())
	if err != nil {
		return Outcome{}, wrapFatal(ErrProvider, err)
	}

	header := sealHeader(parent, env, args.Config, attrs, 0)

	blockCtx := core.NewEVMBlockContext(header, chainContextAdapter{client: client}, &env.Beneficiary)
	evm := vm.NewEVM(blockCtx, db, chainConfig, vm.Config{})

	runPreBlockSyscalls(evm, header, env, attrs)

	gasPool := new(core.GasPool).AddGas(env.GasLimit)
	exec := newGethExecutor(evm, gasPool, db, header)

	var (
		allTxs      []*types.Transaction
		allReceipts []*types.Receipt
		totalFees   = new(big.Int)
	)

	sched := spec.BlobSchedule(attrs.Timestamp)

	if !emptyPayload {
		packRes, err := runPacking(args.Cancel, args.Pool, exec, header, env, sched)
		if err != nil {
			if err == errCancelled {
				return Outcome{Cancelled: true}, nil
			}
			return Outcome{}, err
		}
		allTxs = append(allTxs, packRes.txs...)
		allReceipts = append(allReceipts, packRes.receipts...)
	}

	ilRes, err := runInclusionListPass(exec, attrs.InclusionList)
	if err != nil {
		return Outcome{}, err
	}
	allTxs = append(allTxs, ilRes.txs...)
	allReceipts = append(allReceipts, ilRes.receipts...)

	for i, tx := range allTxs {
		tip, _ := tx.EffectiveGasTip(env.BaseFee)
		fee := new(big.Int).Mul(new(big.Int).SetUint64(allReceipts[i].GasUsed), tip)
		totalFees.Add(totalFees, fee)
	}

	// Empty-payload mode is unconditionally "better": there is no prior
	// attempt worth comparing against, it exists purely to guarantee a
	// fallback payload is always available.
	if !emptyPayload && !betterThan(totalFees, args.BestPayload) {
		return Outcome{Aborted: &AbortedOutcome{Fees: totalFees, CachedReads: args.CachedReads}}, nil
	}

	logs := collectLogs(allReceipts)
	var requests [][]byte
	if env.IsPrague {
		requests, err = harvestRequests(evm, chainConfig, logs)
		if err != nil {
			return Outcome{}, err
		}
	}

	block, err := finalizeBlock(db, header, env, attrs, allTxs, allReceipts, requests)
	if err != nil {
		return Outcome{}, err
	}

	var sidecars []*types.BlobTxSidecar
	if env.IsCancun {
		sidecars, err = fetchBlobSidecars(args.Pool, allTxs)
		if err != nil {
			return Outcome{}, err
		}
	}

	if block == nil {
		return Outcome{}, ErrMissingPayload
	}

	payload := &BuiltPayload{
		PayloadID: attrs.PayloadID,
		Block:     block,
		TotalFees: totalFees,
		Requests:  requests,
		Sidecars:  sidecars,
	}

	return Outcome{Better: &BetterOutcome{Payload: payload, CachedReads: args.CachedReads}}, nil
}
