package udp

import (
	"sync"

	"firestige.xyz/netkit/internal/core"
	"firestige.xyz/netkit/internal/metrics"
)

// Ephemeral port range scanned by AllocatePort.
const (
	EphemeralPortStart = 32768
	EphemeralPortEnd   = 65535
)

// receiveQueueDepth bounds each binding's receive queue. A full queue drops
// the newest datagram; flow control above this layer is the socket API's
// concern.
const receiveQueueDepth = 128

// Binding is a registered local endpoint, optionally narrowed to a single
// remote peer by Connect. A binding's slot index is its stable identifier;
// slots are reused only after an explicit Unbind.
type Binding struct {
	LocalAddr core.IPv4Address
	LocalPort uint16

	Connected  bool
	RemoteAddr core.IPv4Address
	RemotePort uint16

	recv chan Datagram
}

// matches reports whether an inbound datagram addressed to (addr, port)
// structurally belongs to this binding. The wildcard local address matches
// any destination address.
func (b *Binding) matches(addr core.IPv4Address, port uint16) bool {
	if b.LocalPort != port {
		return false
	}
	return b.LocalAddr.IsWildcard() || b.LocalAddr == addr
}

// Layer is the UDP endpoint registry. All mutable state sits behind one
// mutex; every critical section is a short, bounded scan or slot update and
// never blocks on I/O.
type Layer struct {
	mu       sync.Mutex
	bindings []*Binding // nil entries are free slots
}

// NewLayer creates an empty registry.
func NewLayer() *Layer {
	return &Layer{}
}

// Bind registers a local (address, port) endpoint and returns its id.
//
// The collision rule is deliberately narrow: only an exact duplicate of the
// pair is rejected with ErrAddressInUse. A wildcard binding and a
// specific-address binding may coexist on the same port; which one receives
// ambiguous traffic is decided by registration order at dispatch time.
func (l *Layer) Bind(localAddr core.IPv4Address, port uint16) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	free := -1
	for i, b := range l.bindings {
		if b == nil {
			if free < 0 {
				free = i
			}
			continue
		}
		if b.LocalAddr == localAddr && b.LocalPort == port {
			return 0, core.ErrAddressInUse
		}
	}

	binding := &Binding{
		LocalAddr: localAddr,
		LocalPort: port,
		recv:      make(chan Datagram, receiveQueueDepth),
	}
	if free >= 0 {
		l.bindings[free] = binding
		metrics.UDPBindings.Inc()
		return free, nil
	}
	l.bindings = append(l.bindings, binding)
	metrics.UDPBindings.Inc()
	return len(l.bindings) - 1, nil
}

// Connect records a remote peer on an existing binding. Only datagrams from
// exactly that peer are dispatched to it afterwards. No network exchange
// takes place.
func (l *Layer) Connect(id int, remoteAddr core.IPv4Address, remotePort uint16) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := l.binding(id)
	if err != nil {
		return err
	}
	b.Connected = true
	b.RemoteAddr = remoteAddr
	b.RemotePort = remotePort
	return nil
}

// Send builds an outbound datagram from the binding's local port toward
// (destAddr, destPort). Returns ErrInvalidAddress for an unknown binding id.
// Handing the datagram to the IP layer is the caller's job.
func (l *Layer) Send(id int, destAddr core.IPv4Address, destPort uint16, payload []byte) (Datagram, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := l.binding(id)
	if err != nil {
		return Datagram{}, err
	}
	return NewDatagram(b.LocalPort, destPort, payload), nil
}

// ProcessDatagram dispatches an inbound datagram to the first binding, in
// slot order, that matches its destination. Connected bindings additionally
// require the source to equal their recorded remote peer exactly; an
// unconnected binding accepts any source. Returns the matched binding id,
// or ok=false when no binding matched.
func (l *Layer) ProcessDatagram(sourceAddr, destAddr core.IPv4Address, dgram Datagram) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, b := range l.bindings {
		if b == nil || !b.matches(destAddr, dgram.Header.DstPort) {
			continue
		}
		if b.Connected {
			if sourceAddr != b.RemoteAddr || dgram.Header.SrcPort != b.RemotePort {
				continue
			}
		}
		select {
		case b.recv <- dgram:
		default:
			metrics.UDPReceiveDrops.Inc()
		}
		metrics.UDPDatagramsDispatched.Inc()
		return i, true
	}

	metrics.UDPDatagramsUnmatched.Inc()
	return 0, false
}

// Receive pops the next queued datagram for a binding without blocking.
// Returns ErrResourceBusy when the queue is empty and ErrInvalidAddress for
// an unknown id.
func (l *Layer) Receive(id int) (Datagram, error) {
	l.mu.Lock()
	b, err := l.binding(id)
	l.mu.Unlock()
	if err != nil {
		return Datagram{}, err
	}

	select {
	case d := <-b.recv:
		return d, nil
	default:
		return Datagram{}, core.ErrResourceBusy
	}
}

// Unbind removes the binding at id, freeing its slot for reuse. Returns
// ErrInvalidAddress when id names no live binding.
func (l *Layer) Unbind(id int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.binding(id); err != nil {
		return err
	}
	l.bindings[id] = nil
	metrics.UDPBindings.Dec()
	return nil
}

// AllocatePort scans the ephemeral range upward for the first port no live
// binding holds. Returns ErrAddressInUse only when the whole range is
// exhausted.
func (l *Layer) AllocatePort() (uint16, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for port := EphemeralPortStart; port <= EphemeralPortEnd; port++ {
		if !l.portUsed(uint16(port)) {
			return uint16(port), nil
		}
	}
	return 0, core.ErrAddressInUse
}

// Lookup returns a copy of the binding at id, for inspection.
func (l *Layer) Lookup(id int) (Binding, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := l.binding(id)
	if err != nil {
		return Binding{}, err
	}
	out := *b
	out.recv = nil
	return out, nil
}

// Count returns the number of live bindings.
func (l *Layer) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, b := range l.bindings {
		if b != nil {
			n++
		}
	}
	return n
}

// binding resolves an id to a live binding. Callers hold l.mu.
func (l *Layer) binding(id int) (*Binding, error) {
	if id < 0 || id >= len(l.bindings) || l.bindings[id] == nil {
		return nil, core.ErrInvalidAddress
	}
	return l.bindings[id], nil
}

// portUsed reports whether any live binding holds port. Callers hold l.mu.
func (l *Layer) portUsed(port uint16) bool {
	for _, b := range l.bindings {
		if b != nil && b.LocalPort == port {
			return true
		}
	}
	return false
}
