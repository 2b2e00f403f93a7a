package builder

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
)

// execOutcome classifies the result of attempting a single transaction.
type execOutcome int

const (
	execOK execOutcome = iota
	execNonceTooLow
	execRejected // permanently invalid this attempt: drop sender's remaining queue
	execFatal    // provider/internal error: abort the whole attempt
)

// classifyExecError buckets a core.ApplyTransaction error, shared by the
// mempool pass and the inclusion-list pass even though each uses a
// different subset of the buckets.
func classifyExecError(err error) execOutcome {
	switch {
	case err == nil:
		return execOK
	case errors.Is(err, core.ErrNonceTooLow):
		return execNonceTooLow
	case errors.Is(err, core.ErrNonceTooHigh),
		errors.Is(err, core.ErrInsufficientFunds),
		errors.Is(err, core.ErrInsufficientFundsForTransfer),
		errors.Is(err, core.ErrFloorDataGas),
		errors.Is(err, core.ErrGasLimitReached),
		errors.Is(err, core.ErrSenderNoEOA),
		errors.Is(err, core.ErrNonceMax),
		errors.Is(err, core.ErrGasUintOverflow),
		errors.Is(err, core.ErrIntrinsicGas),
		errors.Is(err, core.ErrTxTypeNotSupported),
		errors.Is(err, core.ErrTipAboveFeeCap),
		errors.Is(err, core.ErrTipVeryHigh),
		errors.Is(err, core.ErrFeeCapTooLow),
		errors.Is(err, core.ErrFeeCapVeryHigh),
		errors.Is(err, core.ErrMaxInitCodeSizeExceeded),
		errors.Is(err, core.ErrBlobFeeCapTooLow):
		return execRejected
	default:
		return execFatal
	}
}

// isTransientNonceFault reports the two errors the IL pass treats specially:
// a transaction that cannot execute *yet*, but might after other
// inclusion-list entries land first in this same pass.
func isTransientNonceFault(err error) bool {
	return errors.Is(err, core.ErrNonceTooHigh) || errors.Is(err, core.ErrInsufficientFunds)
}

// gethExecutor is the TransactionExecutor backed by a real go-ethereum EVM,
// gas pool and state database. One gethExecutor is built per attempt and
// threaded through both the mempool pass and the IL pass so gas and state
// accounting stay on a single running *state.StateDB.
type gethExecutor struct {
	evm     *vm.EVM
	gasPool *core.GasPool
	state   *state.StateDB
	header  *types.Header
	txIndex int
}

func newGethExecutor(evm *vm.EVM, gasPool *core.GasPool, db *state.StateDB, header *types.Header) *gethExecutor {
	return &gethExecutor{evm: evm, gasPool: gasPool, state: db, header: header}
}

// GasRemaining implements TransactionExecutor.
func (x *gethExecutor) GasRemaining() uint64 { return x.gasPool.Gas() }

// Transact implements TransactionExecutor. On failure, state and the gas
// pool are reverted to the pre-call snapshot, so a rejected transaction
// leaves no trace in the block.
func (x *gethExecutor) Transact(tx *types.Transaction, _ common.Address) (*types.Receipt, error) {
	snap := x.state.Snapshot()
	gp := x.gasPool.Gas()

	x.state.SetTxContext(tx.Hash(), x.txIndex)
	receipt, err := core.ApplyTransaction(x.evm, x.gasPool, x.state, x.header, tx, &x.header.GasUsed)
	if err != nil {
		x.state.RevertToSnapshot(snap)
		x.gasPool.SetGas(gp)
		return nil, err
	}
	x.txIndex++
	return receipt, nil
}
