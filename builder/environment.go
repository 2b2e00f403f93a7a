package builder

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/consensus/misc/eip1559"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mantlenetworkio/il-builder/blobparams"
)

// resolveEnvironment derives the block environment from the parent header,
// the attributes and the fork schedule. Timestamp, beneficiary and
// prev-randao come verbatim from the attributes; the gas limit is the
// builder's policy call; base fee and blob fields follow the active fork's
// rules from parent.
func resolveEnvironment(parent *types.Header, attrs *BuildAttributes, spec ChainSpec, cfg Config) (*BlockEnvironment, error) {
	if parent == nil {
		return nil, fmt.Errorf("resolveEnvironment: nil parent header")
	}
	if attrs.Timestamp <= parent.Time {
		return nil, fmt.Errorf("resolveEnvironment: invalid timestamp, parent %d given %d", parent.Time, attrs.Timestamp)
	}

	number := new(big.Int).Add(parent.Number, common.Big1)

	policy := cfg.GasLimitPolicy
	if policy == nil {
		policy = DefaultGasLimitPolicy
	}
	gasLimit := policy(parent.GasLimit)

	env := &BlockEnvironment{
		Number:      number,
		Timestamp:   attrs.Timestamp,
		GasLimit:    gasLimit,
		Beneficiary: attrs.SuggestedFeeRecipient,
		PrevRandao:  attrs.Random,
		IsShanghai:  spec.IsShanghai(number, attrs.Timestamp),
		IsCancun:    spec.IsCancun(number, attrs.Timestamp),
		IsPrague:    spec.IsPrague(number, attrs.Timestamp),
	}

	// Base fee follows the fork's EIP-1559 formula from parent; parent may
	// itself be pre-London, in which case eip1559.CalcBaseFee returns the
	// initial base fee constant.
	env.BaseFee = eip1559.CalcBaseFee(spec.Config(), parent)

	if env.IsCancun {
		sched := spec.BlobSchedule(attrs.Timestamp)
		var excess uint64
		if parentIsCancun(parent) {
			var parentExcess, parentUsed uint64
			if parent.ExcessBlobGas != nil {
				parentExcess = *parent.ExcessBlobGas
			}
			if parent.BlobGasUsed != nil {
				parentUsed = *parent.BlobGasUsed
			}
			excess = blobparams.CalcExcessBlobGas(parentExcess, parentUsed, sched)
		}
		// else: first post-fork block, excess starts at zero.
		env.ExcessBlobGas = &excess
		env.BlobGasPrice = blobparams.CalcBlobFee(excess, sched)
	}

	return env, nil
}

func parentIsCancun(parent *types.Header) bool {
	return parent.ExcessBlobGas != nil && parent.BlobGasUsed != nil
}

// sealHeader assembles the consensus-facing *types.Header skeleton from the
// resolved environment; the build loop and the finalizer fill in the gas,
// root and blob fields as they accumulate.
func sealHeader(parent *types.Header, env *BlockEnvironment, cfg Config, attrs *BuildAttributes, gasUsed uint64) *types.Header {
	header := &types.Header{
		ParentHash:  parent.Hash(),
		UncleHash:   types.EmptyUncleHash,
		Coinbase:    env.Beneficiary,
		Difficulty:  new(big.Int),
		Number:      env.Number,
		GasLimit:    env.GasLimit,
		GasUsed:     gasUsed,
		Time:        env.Timestamp,
		MixDigest:   env.PrevRandao,
		BaseFee:     env.BaseFee,
		Nonce:       types.BlockNonce{}, // BEACON_NONCE: all zero
	}
	if len(cfg.ExtraData) != 0 {
		header.Extra = cfg.ExtraData
	}
	// WithdrawalsHash is left unset here; the finalizer populates it once
	// the withdrawals root is computed.
	if env.IsCancun {
		header.ExcessBlobGas = env.ExcessBlobGas
		header.ParentBeaconRoot = attrs.ParentBeaconBlockRoot
		blobGasUsed := uint64(0)
		header.BlobGasUsed = &blobGasUsed // accumulated by the packing loop
	}
	return header
}
