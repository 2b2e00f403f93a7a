package builder

import (
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
)

// runPreBlockSyscalls performs the EIP-4788 beacon-root write and, from
// Prague, the EIP-2935 parent-blockhash write. Both run ahead of any
// transaction execution, commit as ordinary state transitions, and produce
// no receipt and consume no block gas.
func runPreBlockSyscalls(evm *vm.EVM, header *types.Header, env *BlockEnvironment, attrs *BuildAttributes) {
	if env.IsCancun && attrs.ParentBeaconBlockRoot != nil {
		core.ProcessBeaconBlockRoot(*attrs.ParentBeaconBlockRoot, evm)
	}
	if env.IsPrague {
		core.ProcessParentBlockHash(header.ParentHash, evm)
	}
}

// harvestRequests collects the EIP-7685 consensus-layer requests after all
// transactions have executed: EIP-6110 deposits parsed from the receipts'
// logs, then the withdrawal and consolidation queue system calls, each
// element prefixed by its request type byte.
func harvestRequests(evm *vm.EVM, chainConfig *params.ChainConfig, logs []*types.Log) ([][]byte, error) {
	requests := [][]byte{}
	if err := core.ParseDepositLogs(&requests, logs, chainConfig); err != nil {
		log.Warn("failed to parse deposit requests", "err", err)
		return nil, wrapFatal(ErrInternal, err)
	}
	if err := core.ProcessWithdrawalQueue(&requests, evm); err != nil {
		log.Warn("withdrawal requests system call failed", "err", err)
		return nil, wrapFatal(ErrInternal, err)
	}
	if err := core.ProcessConsolidationQueue(&requests, evm); err != nil {
		log.Warn("consolidation requests system call failed", "err", err)
		return nil, wrapFatal(ErrInternal, err)
	}
	return requests, nil
}

func collectLogs(receipts []*types.Receipt) []*types.Log {
	var logs []*types.Log
	for _, r := range receipts {
		logs = append(logs, r.Logs...)
	}
	return logs
}
