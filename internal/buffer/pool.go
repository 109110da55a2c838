// Package buffer implements the fixed-count packet buffer pools and the
// tiered manager that owns them. All storage is pre-allocated once at
// construction; steady-state allocate/deallocate never touches the heap.
package buffer

import (
	"fmt"
	"sync"

	"firestige.xyz/netkit/internal/core"
)

// Buffer count clamp applied by NewPool. A pool smaller than minPoolCount is
// not worth the bookkeeping; one larger than maxPoolCount would pin an
// unreasonable amount of memory at startup.
const (
	minPoolCount = 16
	maxPoolCount = 65536
)

// PoolStats is a point-in-time snapshot of a pool's accounting.
type PoolStats struct {
	BufferSize    int
	Total         int
	Allocated     int
	Available     int
	PeakAllocated int
	AllocFailures uint64
}

// Pool is a fixed set of pre-allocated buffers of one size. The invariant
// available + allocated == total holds at all times; buffers returned to the
// pool are zero-filled and restored to the fixed size before they rejoin the
// available set.
//
// Allocate never blocks: exhaustion is reported as ErrBufferFull and the
// caller decides whether to shed load.
type Pool struct {
	mu sync.Mutex

	bufferSize int
	total      int
	available  [][]byte

	allocated     int
	peakAllocated int
	allocFailures uint64
}

// NewPool pre-allocates count buffers of exactly bufferSize bytes. The count
// is clamped to [16, 65536]. Failure here means the one-time startup
// allocation could not be satisfied and is fatal to subsystem bring-up.
func NewPool(bufferSize, count int) (*Pool, error) {
	if bufferSize <= 0 {
		return nil, fmt.Errorf("buffer size must be positive, got %d: %w", bufferSize, core.ErrInvalidPacket)
	}
	if count < minPoolCount {
		count = minPoolCount
	}
	if count > maxPoolCount {
		count = maxPoolCount
	}

	p := &Pool{
		bufferSize: bufferSize,
		total:      count,
		available:  make([][]byte, 0, count),
	}
	for i := 0; i < count; i++ {
		p.available = append(p.available, make([]byte, bufferSize))
	}
	return p, nil
}

// Allocate removes one buffer from the available set and returns it.
// Returns ErrBufferFull when the pool is exhausted.
func (p *Pool) Allocate() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.available) == 0 {
		p.allocFailures++
		return nil, core.ErrBufferFull
	}

	n := len(p.available) - 1
	buf := p.available[n]
	p.available[n] = nil
	p.available = p.available[:n]

	p.allocated++
	if p.allocated > p.peakAllocated {
		p.peakAllocated = p.allocated
	}
	return buf, nil
}

// Deallocate zero-fills buf, restores it to the pool's fixed size and
// returns it to the available set. Zeroing on return prevents data leaking
// between users of the same slot.
func (p *Pool) Deallocate(buf []byte) {
	buf = buf[:cap(buf)]
	if cap(buf) < p.bufferSize {
		// Does not belong to this pool; adopt a fresh slot instead of
		// shrinking the pool's fixed size.
		buf = make([]byte, p.bufferSize)
	}
	buf = buf[:p.bufferSize]
	clear(buf)

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.available) >= p.total {
		// Double free; dropping the slot keeps available+allocated == total.
		return
	}
	p.available = append(p.available, buf)
	if p.allocated > 0 {
		p.allocated--
	}
}

// BufferSize returns the fixed size of every buffer in the pool.
func (p *Pool) BufferSize() int {
	return p.bufferSize
}

// Available returns the number of free buffers.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.available)
}

// Utilization returns allocated/total as a percentage in [0, 100].
func (p *Pool) Utilization() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return float64(p.allocated) / float64(p.total) * 100
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{
		BufferSize:    p.bufferSize,
		Total:         p.total,
		Allocated:     p.allocated,
		Available:     len(p.available),
		PeakAllocated: p.peakAllocated,
		AllocFailures: p.allocFailures,
	}
}
