// Package cachedreads implements the read memoisation layer threaded across
// build attempts against the same parent: repeated attempts re-read the
// same contract bytecode as the mempool iterator and the inclusion-list
// fixed-point pass retry the same senders, so amortising that I/O matters
// far more here than in a single-shot block processor.
package cachedreads

import (
	"github.com/VictoriaMetrics/fastcache"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
)

// defaultCacheBytes sizes the cache generously for a single payload-id's
// worth of retries; callers building many payload ids concurrently should
// construct one Cache per id.
const defaultCacheBytes = 32 * 1024 * 1024

// Cache is a read-through memoisation layer over a state.Database. It is
// created once per BuildArguments.CachedReads and moved (by reference) from
// attempt to attempt; it is never accessed by two attempts concurrently.
type Cache struct {
	code *fastcache.Cache
}

// New allocates a Cache. A zero sizeBytes selects defaultCacheBytes.
func New(sizeBytes int) *Cache {
	if sizeBytes <= 0 {
		sizeBytes = defaultCacheBytes
	}
	return &Cache{code: fastcache.New(sizeBytes)}
}

// Wrap decorates db so contract-code reads are served from the cache first.
// Everything else (trie nodes, the disk/trie-db handles) passes straight
// through to db, since go-ethereum's own snapshot/trie layers already cache
// those across blocks at the database level; bytecode is the one read path
// that is both hot across IL/mempool retries and otherwise uncached per
// attempt.
func (c *Cache) Wrap(db state.Database) state.Database {
	return &cachingDatabase{Database: db, cache: c}
}

// Reset discards all cached entries. Callers should call this when the
// parent hash changes, since cached bytecode for one state root has no
// bearing on another (code is keyed by hash so stale entries are harmless,
// but Reset bounds memory growth across many distinct parents).
func (c *Cache) Reset() {
	c.code.Reset()
}

type cachingDatabase struct {
	state.Database
	cache *Cache
}

func (d *cachingDatabase) ContractCode(addr common.Address, codeHash common.Hash) ([]byte, error) {
	if code := d.cache.code.Get(nil, codeHash[:]); len(code) > 0 {
		return code, nil
	}
	code, err := d.Database.ContractCode(addr, codeHash)
	if err != nil {
		return nil, err
	}
	if len(code) > 0 {
		d.cache.code.Set(codeHash[:], code)
	}
	return code, nil
}

func (d *cachingDatabase) ContractCodeSize(addr common.Address, codeHash common.Hash) (int, error) {
	if code := d.cache.code.Get(nil, codeHash[:]); len(code) > 0 {
		return len(code), nil
	}
	return d.Database.ContractCodeSize(addr, codeHash)
}
