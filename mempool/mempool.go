// Package mempool provides a reference implementation of the builder's
// Mempool/BestTransactionsIterator collaborator: per-sender nonce queues
// drained in effective-tip order, the same shape go-ethereum's miner gets
// from its by-price-and-nonce pool iterator. It exists so the builder
// package can be exercised and tested without a full go-ethereum txpool,
// and as a starting point for wiring a real one.
package mempool

import (
	"container/heap"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/mantlenetworkio/il-builder/builder"
)

// entry is one pending transaction together with its recovered sender.
type entry struct {
	tx     *types.Transaction
	signer common.Address
}

// Pool is a price-ordered, per-sender-nonce-ordered transaction pool. It is
// safe for concurrent Add/Remove; BestTransactions snapshots the current
// contents so a live iteration is unaffected by concurrent mutation.
type Pool struct {
	mu       sync.Mutex
	bySender map[common.Address][]entry // kept sorted by nonce ascending
	sidecars map[common.Hash]*types.BlobTxSidecar
}

// New creates an empty Pool.
func New() *Pool {
	return &Pool{
		bySender: make(map[common.Address][]entry),
		sidecars: make(map[common.Hash]*types.BlobTxSidecar),
	}
}

// Add inserts tx (with recovered sender) into the pool, maintaining
// per-sender nonce order. sidecar may be nil for non-blob transactions.
func (p *Pool) Add(tx *types.Transaction, signer common.Address, sidecar *types.BlobTxSidecar) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q := p.bySender[signer]
	i := 0
	for i < len(q) && q[i].tx.Nonce() < tx.Nonce() {
		i++
	}
	if i < len(q) && q[i].tx.Nonce() == tx.Nonce() {
		q[i] = entry{tx: tx, signer: signer} // replace (fee bump / resubmit)
	} else {
		q = append(q, entry{})
		copy(q[i+1:], q[i:])
		q[i] = entry{tx: tx, signer: signer}
	}
	p.bySender[signer] = q

	if sidecar != nil {
		p.sidecars[tx.Hash()] = sidecar
	}
}

// Remove drops a transaction (and does not touch its descendants; that is
// the iterator's MarkInvalid/NonceTooLow job, not the pool's).
func (p *Pool) Remove(signer common.Address, hash common.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q := p.bySender[signer]
	for i, e := range q {
		if e.tx.Hash() == hash {
			p.bySender[signer] = append(q[:i], q[i+1:]...)
			break
		}
	}
	delete(p.sidecars, hash)
}

// GetAllBlobsExact implements builder.Mempool.
func (p *Pool) GetAllBlobsExact(hashes []common.Hash) ([]*types.BlobTxSidecar, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*types.BlobTxSidecar, 0, len(hashes))
	for _, h := range hashes {
		sc, ok := p.sidecars[h]
		if !ok {
			return nil, errMissingSidecar(h)
		}
		out = append(out, sc)
	}
	return out, nil
}

// BestTransactions implements builder.Mempool: a snapshot heap ordered by
// each sender's head-of-queue effective tip, descending.
func (p *Pool) BestTransactions(attrs builder.BestTransactionsAttributes) builder.BestTransactionsIterator {
	p.mu.Lock()
	defer p.mu.Unlock()

	queues := make(map[common.Address][]entry, len(p.bySender))
	for addr, q := range p.bySender {
		cp := make([]entry, len(q))
		copy(cp, q)
		queues[addr] = cp
	}

	it := &bestIterator{
		queues:   queues,
		returned: make(map[common.Hash]common.Address),
		baseFee:  attrs.BaseFee,
	}
	it.rebuild()
	return it
}

type heapItem struct {
	addr common.Address
	tip  *uint256.Int
}

type tipHeap []heapItem

func (h tipHeap) Len() int            { return len(h) }
func (h tipHeap) Less(i, j int) bool  { return h[i].tip.Cmp(h[j].tip) > 0 } // max-heap
func (h tipHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *tipHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *tipHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// bestIterator is builder.BestTransactionsIterator over a Pool snapshot.
// Each sender contributes at most one heap entry at a time (its current
// queue head); once Next returns a transaction it is popped from the
// sender's queue and, if the queue still has a head worth offering, that
// new head is pushed back onto the heap.
type bestIterator struct {
	queues    map[common.Address][]entry
	heap      tipHeap
	returned  map[common.Hash]common.Address // tx hash -> sender, for MarkInvalid lookups
	baseFee   *uint256.Int
	skipBlobs bool
}

// rebuild derives the initial heap from every sender's queue head. Only
// needed once, at construction; afterwards Next/pushSenderHead maintain it
// incrementally.
func (it *bestIterator) rebuild() {
	it.heap = it.heap[:0]
	for addr := range it.queues {
		it.pushSenderHead(addr)
	}
	heap.Init(&it.heap)
}

// pushSenderHead offers addr's current queue head onto the heap, unless the
// queue is empty.
func (it *bestIterator) pushSenderHead(addr common.Address) {
	q := it.queues[addr]
	if len(q) == 0 {
		return
	}
	tip := effectiveTip(q[0].tx, it.baseFee)
	heap.Push(&it.heap, heapItem{addr: addr, tip: tip})
}

func effectiveTip(tx *types.Transaction, baseFee *uint256.Int) *uint256.Int {
	if baseFee == nil {
		return uint256.MustFromBig(tx.GasTipCap())
	}
	tip, _ := uint256.FromBig(tx.GasTipCap())
	feeCap, _ := uint256.FromBig(tx.GasFeeCap())
	if feeCap.Cmp(baseFee) < 0 {
		return uint256.NewInt(0)
	}
	headroom := new(uint256.Int).Sub(feeCap, baseFee)
	if tip.Cmp(headroom) < 0 {
		return tip
	}
	return headroom
}

// Next pops the queue head with the highest effective tip and returns it. On
// success the caller either commits (leaving the sender's next nonce to
// surface on a later call), calls MarkInvalid to drop the whole remaining
// queue for that sender (a true descendant eviction, since the head is
// already gone), or, for NonceTooLow, does nothing further, which is
// exactly "skip this tx only" since the next call already serves the next
// nonce.
func (it *bestIterator) Next() (*types.Transaction, common.Address, bool) {
	for it.heap.Len() > 0 {
		top := heap.Pop(&it.heap).(heapItem)
		q := it.queues[top.addr]
		if len(q) == 0 {
			continue
		}
		head := q[0]
		if it.skipBlobs && head.tx.Type() == types.BlobTxType {
			// Leave this sender's queue untouched but don't re-offer it;
			// a later, non-blob head (if any) for this sender is also
			// blocked since blob and non-blob nonces don't interleave
			// for a well-formed account queue.
			continue
		}
		it.queues[top.addr] = q[1:]
		it.pushSenderHead(top.addr)
		it.returned[head.tx.Hash()] = head.signer
		return head.tx, head.signer, true
	}
	return nil, common.Address{}, false
}

// MarkInvalid implements builder.BestTransactionsIterator: tx (already
// popped by Next) and every later-nonce transaction from the same sender
// are evicted from the remainder of this iteration. The pool itself is
// untouched, only this attempt's snapshot.
func (it *bestIterator) MarkInvalid(tx *types.Transaction, _ builder.InvalidationReason) {
	addr, ok := it.returned[tx.Hash()]
	if !ok {
		return
	}
	delete(it.queues, addr) // drop every remaining (higher-nonce) entry
}

// SkipBlobs implements builder.BestTransactionsIterator.
func (it *bestIterator) SkipBlobs() {
	it.skipBlobs = true
}

type missingSidecarError common.Hash

func errMissingSidecar(h common.Hash) error { return missingSidecarError(h) }
func (e missingSidecarError) Error() string {
	return "mempool: missing blob sidecar for " + common.Hash(e).Hex()
}
