package builder

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"

	"github.com/mantlenetworkio/il-builder/blobparams"
)

type fakeChainSpec struct {
	config   *params.ChainConfig
	shanghai bool
	cancun   bool
	prague   bool
	sched    blobparams.Schedule
}

func (f fakeChainSpec) Config() *params.ChainConfig             { return f.config }
func (f fakeChainSpec) IsShanghai(*big.Int, uint64) bool        { return f.shanghai }
func (f fakeChainSpec) IsCancun(*big.Int, uint64) bool          { return f.cancun }
func (f fakeChainSpec) IsPrague(*big.Int, uint64) bool          { return f.prague }
func (f fakeChainSpec) BlobSchedule(uint64) blobparams.Schedule { return f.sched }

func TestResolveEnvironmentDerivesNumberAndGasLimit(t *testing.T) {
	parent := &types.Header{
		Number:   big.NewInt(100),
		Time:     1000,
		GasLimit: 30_000_000,
		BaseFee:  big.NewInt(7),
	}
	spec := fakeChainSpec{config: &params.ChainConfig{}}
	attrs := &BuildAttributes{Timestamp: 1012}

	env, err := resolveEnvironment(parent, attrs, spec, Config{})
	if err != nil {
		t.Fatalf("resolveEnvironment: %v", err)
	}
	if env.Number.Cmp(big.NewInt(101)) != 0 {
		t.Fatalf("expected number 101, got %s", env.Number)
	}
	if env.GasLimit != 30_000_000 {
		t.Fatalf("expected default policy to preserve parent gas limit, got %d", env.GasLimit)
	}
	if env.IsCancun {
		t.Fatalf("fake spec did not enable cancun")
	}
}

func TestResolveEnvironmentRejectsNonIncreasingTimestamp(t *testing.T) {
	parent := &types.Header{Number: big.NewInt(1), Time: 1000, GasLimit: 1}
	spec := fakeChainSpec{config: &params.ChainConfig{}}
	attrs := &BuildAttributes{Timestamp: 1000}

	if _, err := resolveEnvironment(parent, attrs, spec, Config{}); err == nil {
		t.Fatalf("expected an error for a non-increasing timestamp")
	}
}

func TestResolveEnvironmentAppliesCustomGasLimitPolicy(t *testing.T) {
	parent := &types.Header{Number: big.NewInt(1), Time: 1000, GasLimit: 30_000_000}
	spec := fakeChainSpec{config: &params.ChainConfig{}}
	attrs := &BuildAttributes{Timestamp: 1001}
	cfg := Config{GasLimitPolicy: func(parentGasLimit uint64) uint64 { return parentGasLimit + 1 }}

	env, err := resolveEnvironment(parent, attrs, spec, cfg)
	if err != nil {
		t.Fatalf("resolveEnvironment: %v", err)
	}
	if env.GasLimit != 30_000_001 {
		t.Fatalf("expected custom policy to apply, got %d", env.GasLimit)
	}
}

func TestResolveEnvironmentCancunDerivesBlobFields(t *testing.T) {
	excess := uint64(0)
	used := uint64(0)
	parent := &types.Header{
		Number:        big.NewInt(1),
		Time:          1000,
		GasLimit:      30_000_000,
		BaseFee:       big.NewInt(7),
		ExcessBlobGas: &excess,
		BlobGasUsed:   &used,
	}
	spec := fakeChainSpec{config: &params.ChainConfig{}, cancun: true, sched: blobparams.Cancun}
	attrs := &BuildAttributes{Timestamp: 1001}

	env, err := resolveEnvironment(parent, attrs, spec, Config{})
	if err != nil {
		t.Fatalf("resolveEnvironment: %v", err)
	}
	if env.ExcessBlobGas == nil {
		t.Fatalf("expected ExcessBlobGas to be set post-Cancun")
	}
	if env.BlobGasPrice == nil {
		t.Fatalf("expected BlobGasPrice to be set post-Cancun")
	}
}
