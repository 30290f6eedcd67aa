package protocol

import (
	"fmt"
	"sync/atomic"

	"github.com/azerzeki/mcp-reticle/internal/types"
)

// IDAllocator issues correlation ids for a single sender identity. Ids are
// formatted "<identity>-<n>" with n strictly increasing from 1 and are never
// recycled within the allocator's lifetime.
type IDAllocator struct {
	identity string
	counter  atomic.Int64
}

// NewIDAllocator creates an allocator scoped to one sender identity.
func NewIDAllocator(identity string) *IDAllocator {
	return &IDAllocator{identity: identity}
}

// Next returns the next correlation id.
func (a *IDAllocator) Next() types.ID {
	n := a.counter.Add(1)
	return types.ID(fmt.Sprintf("%s-%d", a.identity, n))
}

// Issued reports how many ids have been allocated so far.
func (a *IDAllocator) Issued() int64 {
	return a.counter.Load()
}
