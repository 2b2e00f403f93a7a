// Package builder implements the inclusion-list compliant payload build
// loop: given a parent header, a set of consensus-provided attributes and
// access to a mempool and a state database, it assembles the highest-revenue
// candidate block that either includes every inclusion-list transaction or
// proves by construction that the excluded ones are not executable.
package builder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"

	"github.com/mantlenetworkio/il-builder/blobparams"
)

// StateProvider resolves a mutable state view anchored at a historical block
// hash. Implementations may perform I/O.
type StateProvider interface {
	StateAt(parent common.Hash) (*state.StateDB, error)
}

// ChainSpec exposes fork-activation predicates and the blob parameter table,
// keyed by block number and timestamp the same way *params.ChainConfig is.
type ChainSpec interface {
	Config() *params.ChainConfig
	IsShanghai(number *big.Int, time uint64) bool
	IsCancun(number *big.Int, time uint64) bool
	IsPrague(number *big.Int, time uint64) bool

	// BlobSchedule returns the blob target/max table active at time.
	BlobSchedule(time uint64) blobparams.Schedule
}

// BestTransactionsAttributes parameterises a Mempool's best-transactions
// iterator: transactions priced below these floors are never worth offering.
type BestTransactionsAttributes struct {
	BaseFee      *uint256.Int
	BlobGasPrice *uint256.Int // nil before Cancun activates
}

// InvalidationReason classifies why mark_invalid evicted a transaction (and
// its nonce-descendants) from an iterator. It is advisory to the pool.
type InvalidationReason struct {
	Code   string
	Have   uint64
	Want   uint64
	Detail string
}

func (r InvalidationReason) String() string {
	if r.Detail != "" {
		return r.Code + ": " + r.Detail
	}
	return r.Code
}

// ExceedsGasLimit reports a transaction whose gas limit no longer fits the
// block's remaining budget: gas is the transaction's gas limit, limit the
// block gas limit.
func ExceedsGasLimit(gas, limit uint64) InvalidationReason {
	return InvalidationReason{Code: "ExceedsGasLimit", Have: gas, Want: limit}
}

// ExceedsBlobGasLimit reports a blob transaction whose blob gas no longer
// fits the block's remaining blob budget: blobGas is the transaction's blob
// gas, limit the per-block blob-data-gas cap.
func ExceedsBlobGasLimit(blobGas, limit uint64) InvalidationReason {
	return InvalidationReason{Code: "ExceedsBlobGasLimit", Have: blobGas, Want: limit}
}

// Consensus reports a transaction-level EVM error that is not specifically
// a nonce fault: the transaction (and its descendants) can never execute.
func Consensus(detail string) InvalidationReason {
	return InvalidationReason{Code: "Consensus", Detail: detail}
}

// BestTransactionsIterator yields candidate transactions in priority order.
// mark_invalid and skip_blobs are contractually required side-channels, not
// mere hints: a core that forgets to call them risks re-offering evicted
// descendants and wastes O(n^2) work.
type BestTransactionsIterator interface {
	// Next returns the next candidate, or ok=false once exhausted.
	Next() (tx *types.Transaction, signer common.Address, ok bool)

	// MarkInvalid evicts tx and every later-nonce transaction from the same
	// sender from the remainder of the iteration.
	MarkInvalid(tx *types.Transaction, reason InvalidationReason)

	// SkipBlobs hints that no further blob transactions will be accepted
	// this attempt (the per-block blob-data-gas budget is exhausted).
	SkipBlobs()
}

// Mempool is the transaction-pool collaborator (out of scope for this
// package beyond the interface it must satisfy).
type Mempool interface {
	BestTransactions(attrs BestTransactionsAttributes) BestTransactionsIterator

	// GetAllBlobsExact returns the sidecar for every given blob-transaction
	// hash, erroring if any is unknown to the pool.
	GetAllBlobsExact(hashes []common.Hash) ([]*types.BlobTxSidecar, error)
}

// TransactionExecutor is the EVM collaborator. A single instance is scoped
// to one block environment and one working state; it is expected to update
// that state (and the header's running gas counters) on every call.
type TransactionExecutor interface {
	// Transact executes tx against the working state. The returned receipt
	// is valid only when err is nil. Callers classify err with errors.Is
	// against the sentinel errors in this package (or the go-ethereum core
	// package errors they wrap) to decide skip/mark-invalid/fatal handling.
	Transact(tx *types.Transaction, signer common.Address) (*types.Receipt, error)

	// GasRemaining reports the block gas budget left in the shared gas pool,
	// so the packing loop and the inclusion-list pass can apply their own
	// gas guards ahead of offering tx to Transact.
	GasRemaining() uint64
}
