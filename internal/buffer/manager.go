package buffer

import (
	"fmt"

	"firestige.xyz/netkit/internal/core"
	"firestige.xyz/netkit/internal/metrics"
)

// Tier buffer sizes. Small covers control traffic and DNS-sized payloads,
// medium the standard Ethernet MTU, large jumbo frames.
const (
	SmallBufferSize  = 512
	MediumBufferSize = 1500
	LargeBufferSize  = 9000
)

// Default per-tier buffer counts, used when the configuration does not
// override them.
const (
	DefaultSmallCount  = 512
	DefaultMediumCount = 1024
	DefaultLargeCount  = 256
)

// TierCounts configures how many buffers each tier pre-allocates.
type TierCounts struct {
	Small  int
	Medium int
	Large  int
}

// DefaultTierCounts returns the standard tier sizing.
func DefaultTierCounts() TierCounts {
	return TierCounts{
		Small:  DefaultSmallCount,
		Medium: DefaultMediumCount,
		Large:  DefaultLargeCount,
	}
}

// ManagerStats groups the per-tier snapshots.
type ManagerStats struct {
	Small  PoolStats
	Medium PoolStats
	Large  PoolStats
}

// Manager owns the three buffer pool tiers and routes every packet
// allocation to the smallest tier that fits. It is the only component that
// hands out transport-layer packets; callers never touch a pool directly.
type Manager struct {
	small  *Pool
	medium *Pool
	large  *Pool
}

// NewManager pre-allocates all three tiers. An error here is fatal to
// subsystem bring-up.
func NewManager(counts TierCounts) (*Manager, error) {
	small, err := NewPool(SmallBufferSize, counts.Small)
	if err != nil {
		return nil, fmt.Errorf("small tier: %w", err)
	}
	medium, err := NewPool(MediumBufferSize, counts.Medium)
	if err != nil {
		return nil, fmt.Errorf("medium tier: %w", err)
	}
	large, err := NewPool(LargeBufferSize, counts.Large)
	if err != nil {
		return nil, fmt.Errorf("large tier: %w", err)
	}
	return &Manager{small: small, medium: medium, large: large}, nil
}

// tierFor selects the smallest tier whose buffers can hold size bytes.
func (m *Manager) tierFor(size int) (*Pool, string) {
	switch {
	case size <= SmallBufferSize:
		return m.small, "small"
	case size <= MediumBufferSize:
		return m.medium, "medium"
	case size <= LargeBufferSize:
		return m.large, "large"
	}
	return nil, ""
}

// tierByCapacity finds the tier whose fixed buffer size matches capacity
// exactly, for routing storage back on release.
func (m *Manager) tierByCapacity(capacity int) (*Pool, string) {
	switch capacity {
	case SmallBufferSize:
		return m.small, "small"
	case MediumBufferSize:
		return m.medium, "medium"
	case LargeBufferSize:
		return m.large, "large"
	}
	return nil, ""
}

// AllocatePacket draws a buffer from the smallest tier that can hold size
// bytes and wraps it in a zero-length Packet. Sizes above the large tier
// fail with ErrInvalidPacket; an exhausted tier fails with ErrBufferFull.
func (m *Manager) AllocatePacket(size int) (*core.Packet, error) {
	if size < 0 {
		return nil, core.ErrInvalidPacket
	}
	pool, tier := m.tierFor(size)
	if pool == nil {
		return nil, core.ErrInvalidPacket
	}

	buf, err := pool.Allocate()
	if err != nil {
		metrics.BufferAllocFailures.WithLabelValues(tier).Inc()
		return nil, err
	}
	metrics.BuffersAllocated.WithLabelValues(tier).Inc()
	return core.PacketFromStorage(buf), nil
}

// AllocatePacketWithCapacity is AllocatePacket keyed on the desired storage
// capacity rather than an initial payload size. The tier rule is identical.
func (m *Manager) AllocatePacketWithCapacity(capacity int) (*core.Packet, error) {
	return m.AllocatePacket(capacity)
}

// DeallocatePacket returns the packet's storage to the tier whose buffer
// size matches its capacity. Storage that matches no tier is discarded
// rather than pooled.
func (m *Manager) DeallocatePacket(pkt *core.Packet) {
	if pkt == nil {
		return
	}
	pool, tier := m.tierByCapacity(pkt.Cap())
	if pool == nil {
		return
	}
	pool.Deallocate(pkt.Storage())
	metrics.BuffersAllocated.WithLabelValues(tier).Dec()
}

// TotalUtilization returns the unweighted arithmetic mean of the three
// tiers' utilization percentages.
func (m *Manager) TotalUtilization() float64 {
	return (m.small.Utilization() + m.medium.Utilization() + m.large.Utilization()) / 3
}

// HasAvailableBuffers reports whether any tier has at least one free buffer.
func (m *Manager) HasAvailableBuffers() bool {
	return m.small.Available() > 0 || m.medium.Available() > 0 || m.large.Available() > 0
}

// Stats snapshots all three tiers and refreshes the utilization gauges.
func (m *Manager) Stats() ManagerStats {
	stats := ManagerStats{
		Small:  m.small.Stats(),
		Medium: m.medium.Stats(),
		Large:  m.large.Stats(),
	}
	metrics.BufferUtilization.WithLabelValues("small").Set(m.small.Utilization())
	metrics.BufferUtilization.WithLabelValues("medium").Set(m.medium.Utilization())
	metrics.BufferUtilization.WithLabelValues("large").Set(m.large.Utilization())
	return stats
}
