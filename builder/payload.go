package builder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
)

// BuiltPayload is the immutable record of a successful build attempt,
// returned inside Outcome.Better. Sidecars are the pointers the mempool's
// GetAllBlobsExact returned; they are not copied, so they remain shared with
// the pool.
type BuiltPayload struct {
	PayloadID [8]byte
	Block     *types.Block
	TotalFees *big.Int
	Requests  [][]byte
	Sidecars  []*types.BlobTxSidecar
}
