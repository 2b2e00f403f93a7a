package cachedreads

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mantlenetworkio/il-builder/builder"
)

// HeaderReader resolves a historical header by hash, the same lookup
// ClientHandle.HeaderByHash exposes; Provider reuses it to turn a parent
// block hash into the state root Wrap's cached state.Database opens.
type HeaderReader interface {
	HeaderByHash(hash common.Hash) (*types.Header, error)
}

// Provider is the concrete builder.StateProvider backed by a Cache: it is
// what BuildArguments.CachedReads should hold so that repeated build
// attempts against the same parent actually share the cached bytecode
// reads instead of each attempt opening an unwrapped state.Database.
type Provider struct {
	headers HeaderReader
	db      state.Database
}

// NewProvider wraps underlying in c and pairs it with headers for parent
// hash -> state root resolution. The returned Provider is safe to reuse
// across every attempt for one payload id; call c.Reset when the parent
// hash changes.
func (c *Cache) NewProvider(headers HeaderReader, underlying state.Database) *Provider {
	return &Provider{headers: headers, db: c.Wrap(underlying)}
}

// StateAt resolves parent to its state root and opens a StateDB over the
// cached database. It satisfies builder.StateProvider.
func (p *Provider) StateAt(parent common.Hash) (*state.StateDB, error) {
	header, err := p.headers.HeaderByHash(parent)
	if err != nil {
		return nil, err
	}
	return state.New(header.Root, p.db)
}

var _ builder.StateProvider = (*Provider)(nil)
