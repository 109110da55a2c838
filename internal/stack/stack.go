// Package stack assembles the packet buffer manager and the UDP layer into
// one explicitly constructed network subsystem context. Callers hold a
// *Stack instead of reaching through process globals; the kernel owns its
// lifetime.
package stack

import (
	"fmt"
	"sync"

	"firestige.xyz/netkit/internal/buffer"
	"firestige.xyz/netkit/internal/config"
	"firestige.xyz/netkit/internal/core"
	"firestige.xyz/netkit/internal/link"
	"firestige.xyz/netkit/internal/log"
	"firestige.xyz/netkit/internal/udp"
)

// Stack is the network subsystem context. Bring-up happens in two idempotent
// stages: InitNetworkBuffers pre-allocates the pool tiers (the only time the
// kernel allocator is consulted), InitNetworkDevices stands up the transport
// registry and its static bindings.
type Stack struct {
	mu  sync.Mutex
	cfg *config.Config

	buffers *buffer.Manager
	udp     *udp.Layer
	ingest  *link.Ingest
}

// New creates an unstarted stack from cfg. A nil cfg uses the defaults.
func New(cfg *config.Config) *Stack {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Stack{cfg: cfg}
}

// InitNetworkBuffers pre-allocates all pool tiers. Idempotent; a failure
// here means the one-time startup allocation could not be satisfied and the
// subsystem must not come up.
func (s *Stack) InitNetworkBuffers() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buffers != nil {
		return nil
	}

	counts := buffer.TierCounts{
		Small:  s.cfg.Buffers.SmallCount,
		Medium: s.cfg.Buffers.MediumCount,
		Large:  s.cfg.Buffers.LargeCount,
	}
	mgr, err := buffer.NewManager(counts)
	if err != nil {
		return fmt.Errorf("network buffer init failed: %w", err)
	}
	s.buffers = mgr

	log.GetLogger().WithFields(map[string]interface{}{
		"small":  counts.Small,
		"medium": counts.Medium,
		"large":  counts.Large,
	}).Info("network buffer pools initialized")
	return nil
}

// InitNetworkDevices brings up the transport registry and registers the
// configured static bindings. Requires InitNetworkBuffers to have run.
// Idempotent.
func (s *Stack) InitNetworkDevices() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.udp != nil {
		return nil
	}
	if s.buffers == nil {
		return fmt.Errorf("network devices before buffers: %w", core.ErrDeviceNotFound)
	}

	layer := udp.NewLayer()
	for _, b := range s.cfg.UDP.Bindings {
		addr := core.IPv4Wildcard()
		if b.Address != "" {
			parsed, err := core.ParseIPv4(b.Address)
			if err != nil {
				return fmt.Errorf("static binding %q: %w", b.Address, err)
			}
			addr = parsed
		}
		id, err := layer.Bind(addr, b.Port)
		if err != nil {
			return fmt.Errorf("static binding %s:%d: %w", addr, b.Port, err)
		}
		log.GetLogger().Infof("bound udp endpoint %d on %s:%d", id, addr, b.Port)
	}
	s.udp = layer
	s.ingest = link.NewIngest(s)

	log.GetLogger().Info("network devices initialized")
	return nil
}

// UDP returns the transport registry. Nil before InitNetworkDevices.
func (s *Stack) UDP() *udp.Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.udp
}

// AllocateNetworkPacket draws a pooled packet sized for a payload of size
// bytes. Returns ErrResourceBusy before InitNetworkBuffers.
func (s *Stack) AllocateNetworkPacket(size int) (*core.Packet, error) {
	mgr, err := s.manager()
	if err != nil {
		return nil, err
	}
	return mgr.AllocatePacket(size)
}

// AllocateNetworkPacketWithCapacity draws a pooled packet by desired storage
// capacity.
func (s *Stack) AllocateNetworkPacketWithCapacity(capacity int) (*core.Packet, error) {
	mgr, err := s.manager()
	if err != nil {
		return nil, err
	}
	return mgr.AllocatePacketWithCapacity(capacity)
}

// DeallocateNetworkPacket returns a packet's storage to its pool tier.
func (s *Stack) DeallocateNetworkPacket(pkt *core.Packet) {
	mgr, err := s.manager()
	if err != nil {
		return
	}
	mgr.DeallocatePacket(pkt)
}

// BufferStats snapshots the per-tier pool statistics.
func (s *Stack) BufferStats() (buffer.ManagerStats, error) {
	mgr, err := s.manager()
	if err != nil {
		return buffer.ManagerStats{}, err
	}
	return mgr.Stats(), nil
}

// TotalBufferUtilization returns the mean utilization across tiers, or 0
// before initialization.
func (s *Stack) TotalBufferUtilization() float64 {
	mgr, err := s.manager()
	if err != nil {
		return 0
	}
	return mgr.TotalUtilization()
}

// HasAvailableBuffers reports whether any tier can satisfy an allocation.
func (s *Stack) HasAvailableBuffers() bool {
	mgr, err := s.manager()
	if err != nil {
		return false
	}
	return mgr.HasAvailableBuffers()
}

// SendDatagram builds an outbound datagram on the given binding and
// marshals it into a pooled packet ready for the IP layer. The caller
// releases the packet with DeallocateNetworkPacket once transmitted.
func (s *Stack) SendDatagram(id int, destAddr core.IPv4Address, destPort uint16, payload []byte) (*core.Packet, error) {
	layer, err := s.layer()
	if err != nil {
		return nil, err
	}
	mgr, err := s.manager()
	if err != nil {
		return nil, err
	}

	dgram, err := layer.Send(id, destAddr, destPort, payload)
	if err != nil {
		return nil, err
	}

	pkt, err := mgr.AllocatePacket(udp.HeaderLen + len(payload))
	if err != nil {
		return nil, err
	}
	if err := pkt.Append(dgram.Marshal()); err != nil {
		mgr.DeallocatePacket(pkt)
		return nil, err
	}
	return pkt, nil
}

// HandleInbound parses a raw UDP segment delivered by the IP layer and
// dispatches it to a bound endpoint. Returns the matched binding id, or
// id -1 with a nil error when no binding matched.
func (s *Stack) HandleInbound(sourceAddr, destAddr core.IPv4Address, data []byte) (int, error) {
	layer, err := s.layer()
	if err != nil {
		return -1, err
	}

	dgram, err := udp.ParseDatagram(data)
	if err != nil {
		return -1, err
	}

	id, ok := layer.ProcessDatagram(sourceAddr, destAddr, dgram)
	if !ok {
		return -1, nil
	}
	return id, nil
}

// HandleFrame classifies a raw Ethernet frame from a device receive queue
// and, for IPv4/UDP traffic, dispatches it through HandleInbound. The ingest
// decoder is stateful, so HandleFrame must only be called from the device's
// single receive goroutine. Returns ErrResourceBusy before
// InitNetworkDevices.
func (s *Stack) HandleFrame(frame []byte) (int, bool, error) {
	s.mu.Lock()
	in := s.ingest
	s.mu.Unlock()
	if in == nil {
		return -1, false, core.ErrResourceBusy
	}
	return in.HandleFrame(frame)
}

func (s *Stack) manager() (*buffer.Manager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffers == nil {
		return nil, core.ErrResourceBusy
	}
	return s.buffers, nil
}

func (s *Stack) layer() (*udp.Layer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.udp == nil {
		return nil, core.ErrResourceBusy
	}
	return s.udp, nil
}
