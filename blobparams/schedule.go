// Package blobparams generalises consensus/misc/eip4844's single global
// blob-gas schedule into a fork-indexed table, so Cancun and Prague can
// carry distinct target/max blob counts per EIP-7691/7840 instead of one
// fixed pair of constants.
package blobparams

import "math/big"

// BlobTxBlobGasPerBlob is the gas consumption of a single data blob; it does
// not vary across the schedules below.
const BlobTxBlobGasPerBlob uint64 = 1 << 17

const minBlobGasPrice uint64 = 1

// Schedule is the per-fork blob-gas parameter table: how many blobs a block
// targets and may contain at most, and how steeply the blob base fee reacts
// to excess demand.
type Schedule struct {
	Target         uint64 // target blobs per block
	Max            uint64 // max blobs per block
	UpdateFraction uint64 // controls the blob basefee's rate of change
}

// TargetBlobGas is the target blob gas consumption per block under this
// schedule, used as the anchor for the excess-blob-gas accumulator.
func (s Schedule) TargetBlobGas() uint64 { return s.Target * BlobTxBlobGasPerBlob }

// MaxBlobGas is the hard per-block blob-data-gas cap under this schedule.
func (s Schedule) MaxBlobGas() uint64 { return s.Max * BlobTxBlobGasPerBlob }

// Cancun is the EIP-4844 launch schedule: target 3 blobs, max 6.
var Cancun = Schedule{Target: 3, Max: 6, UpdateFraction: 3338477}

// Prague is the EIP-7691 schedule: target 6 blobs, max 9.
var Prague = Schedule{Target: 6, Max: 9, UpdateFraction: 5007716}

// CalcExcessBlobGas calculates the excess blob gas after applying a block
// that used parentBlobGasUsed blob gas, rolled forward from
// parentExcessBlobGas, under the given schedule. It mirrors
// consensus/misc/eip4844.CalcExcessBlobGas, generalised to take the
// schedule's target instead of a package-level constant.
func CalcExcessBlobGas(parentExcessBlobGas, parentBlobGasUsed uint64, sched Schedule) uint64 {
	excess := parentExcessBlobGas + parentBlobGasUsed
	target := sched.TargetBlobGas()
	if excess < target {
		return 0
	}
	return excess - target
}

// CalcBlobFee calculates the blob base fee from the excess blob gas field
// under the given schedule, mirroring eip4844.CalcBlobFee's fake-exponential
// approximation.
func CalcBlobFee(excessBlobGas uint64, sched Schedule) *big.Int {
	return fakeExponential(
		new(big.Int).SetUint64(minBlobGasPrice),
		new(big.Int).SetUint64(excessBlobGas),
		new(big.Int).SetUint64(sched.UpdateFraction),
	)
}

// fakeExponential approximates factor * e**(numerator/denominator) using a
// Taylor expansion, same construction as eip4844.fakeExponential.
func fakeExponential(factor, numerator, denominator *big.Int) *big.Int {
	var (
		output = new(big.Int)
		accum  = new(big.Int).Mul(factor, denominator)
	)
	for i := 1; accum.Sign() > 0; i++ {
		output.Add(output, accum)

		accum.Mul(accum, numerator)
		accum.Div(accum, denominator)
		accum.Div(accum, big.NewInt(int64(i)))
	}
	return output.Div(output, denominator)
}
