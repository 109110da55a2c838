// Package link bridges raw driver frames into the transport layer. It
// decodes Ethernet/IPv4/UDP framing and hands the addressing context plus
// the UDP bytes to a datagram sink; ARP, routing and fragmentation stay with
// the external link and IP collaborators.
package link

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/netkit/internal/core"
	"firestige.xyz/netkit/internal/metrics"
)

// DatagramSink consumes the UDP bytes of a decoded frame together with the
// IP-layer addressing context.
type DatagramSink interface {
	HandleInbound(sourceAddr, destAddr core.IPv4Address, data []byte) (int, error)
}

// Ingest decodes inbound frames. It reuses one DecodingLayerParser with
// pre-bound layer structs, so steady-state decoding does not allocate.
//
// An Ingest is not safe for concurrent use; the driver receive path owns
// one per receive queue.
type Ingest struct {
	sink DatagramSink

	parser  *gopacket.DecodingLayerParser
	decoded []gopacket.LayerType

	eth layers.Ethernet
	ip4 layers.IPv4
	udp layers.UDP
}

// NewIngest builds an ingest feeding sink.
func NewIngest(sink DatagramSink) *Ingest {
	in := &Ingest{
		sink:    sink,
		decoded: make([]gopacket.LayerType, 0, 4),
	}
	in.parser = gopacket.NewDecodingLayerParser(
		layers.LayerTypeEthernet,
		&in.eth,
		&in.ip4,
		&in.udp,
	)
	in.parser.IgnoreUnsupported = true
	return in
}

// HandleFrame decodes one Ethernet frame. UDP-over-IPv4 frames are parsed
// and dispatched through the sink, returning the matched binding id.
// Frames of any other protocol are skipped with handled=false and no error;
// truncated or malformed frames fail with ErrInvalidPacket.
func (in *Ingest) HandleFrame(frame []byte) (id int, handled bool, err error) {
	if err := in.parser.DecodeLayers(frame, &in.decoded); err != nil {
		metrics.LinkFramesIngested.WithLabelValues("malformed").Inc()
		return 0, false, core.ErrInvalidPacket
	}

	var sawIP, sawUDP bool
	for _, layerType := range in.decoded {
		switch layerType {
		case layers.LayerTypeIPv4:
			sawIP = true
		case layers.LayerTypeUDP:
			sawUDP = true
		}
	}
	if !sawIP || !sawUDP {
		metrics.LinkFramesIngested.WithLabelValues("skipped").Inc()
		return 0, false, nil
	}

	srcAddr, err := core.IPv4FromBytes(in.ip4.SrcIP.To4())
	if err != nil {
		metrics.LinkFramesIngested.WithLabelValues("malformed").Inc()
		return 0, false, core.ErrInvalidPacket
	}
	dstAddr, err := core.IPv4FromBytes(in.ip4.DstIP.To4())
	if err != nil {
		metrics.LinkFramesIngested.WithLabelValues("malformed").Inc()
		return 0, false, core.ErrInvalidPacket
	}

	// Hand over the whole UDP segment (the IPv4 payload): the sink owns
	// wire-format validation, including the declared-length check.
	id, err = in.sink.HandleInbound(srcAddr, dstAddr, in.ip4.Payload)
	if err != nil {
		metrics.LinkFramesIngested.WithLabelValues("malformed").Inc()
		return 0, false, err
	}
	if id < 0 {
		metrics.LinkFramesIngested.WithLabelValues("unmatched").Inc()
		return 0, false, nil
	}
	metrics.LinkFramesIngested.WithLabelValues("dispatched").Inc()
	return id, true, nil
}
