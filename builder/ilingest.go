package builder

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// SignerCache memoises transaction-sender recovery across repeated decodes
// of the same inclusion list: a build attempt and its retries see the
// identical IL bytes over and over, and ecrecover is expensive enough to be
// worth caching by hash. Adapted from the hash-keyed map bookkeeping of
// preconf.FIFOTxSet; the FIFO queue itself is dropped since recovery order
// doesn't matter here, only the cache does.
type SignerCache struct {
	mu      sync.Mutex
	signers map[common.Hash]common.Address
}

// NewSignerCache returns an empty cache.
func NewSignerCache() *SignerCache {
	return &SignerCache{signers: make(map[common.Hash]common.Address)}
}

func (c *SignerCache) recover(tx *types.Transaction, signer types.Signer) (common.Address, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash := tx.Hash()
	if addr, ok := c.signers[hash]; ok {
		return addr, true
	}
	addr, err := types.Sender(signer, tx)
	if err != nil {
		return common.Address{}, false
	}
	c.signers[hash] = addr
	return addr, true
}

// DecodeInclusionList turns raw RLP-encoded transaction bytes into recovered
// transactions. A slot that fails to decode or fails signature recovery
// becomes a permanent nil: the IL bitfield never considers it true, so it is
// excluded without ever reaching the EVM.
func DecodeInclusionList(raw [][]byte, signer types.Signer, cache *SignerCache) []*RecoveredTransaction {
	out := make([]*RecoveredTransaction, len(raw))
	for i, encoded := range raw {
		tx := new(types.Transaction)
		if err := tx.UnmarshalBinary(encoded); err != nil {
			out[i] = nil
			continue
		}
		addr, ok := cache.recover(tx, signer)
		if !ok {
			out[i] = nil
			continue
		}
		out[i] = &RecoveredTransaction{Tx: tx, Signer: addr}
	}
	return out
}
