package onfi

import (
	"fmt"
	"sync"
)

// Allocator supplies storage for part descriptors.
type Allocator interface {
	AllocPart() (*PartDescriptor, error)
}

// HeapAllocator allocates descriptors from the Go heap.
type HeapAllocator struct{}

// AllocPart implements Allocator.
func (HeapAllocator) AllocPart() (*PartDescriptor, error) {
	return &PartDescriptor{}, nil
}

// PoolAllocator hands out descriptors from a fixed pool, the way a board
// with a static part table would.
type PoolAllocator struct {
	mu    sync.Mutex
	parts []PartDescriptor
	used  int
}

// NewPoolAllocator returns a pool holding n descriptors.
func NewPoolAllocator(n int) *PoolAllocator {
	return &PoolAllocator{parts: make([]PartDescriptor, n)}
}

// AllocPart implements Allocator.
func (p *PoolAllocator) AllocPart() (*PartDescriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.used >= len(p.parts) {
		return nil, fmt.Errorf("part pool exhausted (%d descriptors)", len(p.parts))
	}
	d := &p.parts[p.used]
	p.used++
	return d, nil
}

// Available returns the number of descriptors left in the pool.
func (p *PoolAllocator) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.parts) - p.used
}
