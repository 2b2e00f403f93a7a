package builder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// RecoveredTransaction pairs a signed transaction with its already-recovered
// sender; the one shape is threaded through both the mempool and the
// inclusion-list pass.
type RecoveredTransaction struct {
	Tx     *types.Transaction
	Signer common.Address
}

// BuildAttributes bundles the consensus-provided parameters for one build
// attempt.
type BuildAttributes struct {
	PayloadID             [8]byte
	ParentHash            common.Hash
	Timestamp             uint64
	SuggestedFeeRecipient common.Address
	Random                common.Hash
	ParentBeaconBlockRoot *common.Hash // present post-Cancun
	Withdrawals           types.Withdrawals

	// InclusionList is an ordered sequence of optional recovered
	// transactions. A nil entry denotes an IL slot that failed to decode
	// on ingress; it is permanently excluded without ever being offered to
	// the EVM.
	InclusionList []*RecoveredTransaction
}

// Config is builder policy, not consensus data: extra-data bytes to stamp
// into built headers, and the function mapping a parent's gas limit to the
// child's.
type Config struct {
	ExtraData      []byte
	GasLimitPolicy func(parentGasLimit uint64) uint64
}

// DefaultGasLimitPolicy preserves the parent's gas limit unchanged.
func DefaultGasLimitPolicy(parentGasLimit uint64) uint64 { return parentGasLimit }

// BlockEnvironment is the immutable-once-computed result of resolving a
// parent header + attributes + fork schedule into block-level parameters.
type BlockEnvironment struct {
	Number        *big.Int
	Timestamp     uint64
	GasLimit      uint64
	BaseFee       *big.Int
	BlobGasPrice  *big.Int // nil pre-Cancun
	Beneficiary   common.Address
	PrevRandao    common.Hash
	ExcessBlobGas *uint64 // nil pre-Cancun

	IsShanghai bool
	IsCancun   bool
	IsPrague   bool
}

// BestPayload is the minimal state of a prior attempt the revenue gate
// needs: its total miner fee.
type BestPayload struct {
	Fees *big.Int
}

// BuildArguments bundles everything one build attempt needs.
type BuildArguments struct {
	Client      ClientHandle
	Pool        Mempool
	// CachedReads wraps the client's underlying state.Database with a
	// read-through bytecode cache threaded across attempts against the
	// same parent; see cachedreads.Cache.NewProvider.
	CachedReads StateProvider
	Config      Config
	Cancel      <-chan struct{}
	BestPayload *BestPayload
}

// ClientHandle is the chain-data collaborator: chain spec plus state
// lookups, and the parent header the attempt builds on.
type ClientHandle interface {
	ChainSpec() ChainSpec
	StateProvider() StateProvider
	HeaderByHash(hash common.Hash) (*types.Header, error)
}
