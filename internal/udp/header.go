// Package udp implements the UDP wire format and the endpoint binding
// registry that dispatches inbound datagrams.
package udp

import (
	"encoding/binary"

	"firestige.xyz/netkit/internal/core"
)

// HeaderLen is the fixed UDP header size on the wire.
const HeaderLen = 8

// Header is the 8-byte UDP header. All fields are big-endian u16 on the
// wire, in the order source port, destination port, length, checksum.
type Header struct {
	SrcPort  uint16
	DstPort  uint16
	Length   uint16 // header + payload
	Checksum uint16
}

// NewHeader builds a header for a payload of payloadLen bytes. The checksum
// is left zero; computing it needs the IP pseudo-header and belongs to the
// layer that knows both addresses.
func NewHeader(srcPort, dstPort uint16, payloadLen int) Header {
	return Header{
		SrcPort: srcPort,
		DstPort: dstPort,
		Length:  uint16(HeaderLen + payloadLen),
	}
}

// ParseHeader decodes a header from data. Returns ErrInvalidPacket when
// fewer than 8 bytes are supplied.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderLen {
		return Header{}, core.ErrInvalidPacket
	}
	return Header{
		SrcPort:  binary.BigEndian.Uint16(data[0:2]),
		DstPort:  binary.BigEndian.Uint16(data[2:4]),
		Length:   binary.BigEndian.Uint16(data[4:6]),
		Checksum: binary.BigEndian.Uint16(data[6:8]),
	}, nil
}

// Marshal encodes the header to exactly 8 bytes, the inverse of ParseHeader.
func (h Header) Marshal() []byte {
	buf := make([]byte, HeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], h.SrcPort)
	binary.BigEndian.PutUint16(buf[2:4], h.DstPort)
	binary.BigEndian.PutUint16(buf[4:6], h.Length)
	binary.BigEndian.PutUint16(buf[6:8], h.Checksum)
	return buf
}

// Datagram is a complete UDP datagram.
type Datagram struct {
	Header  Header
	Payload []byte
}

// NewDatagram builds a datagram whose header length reflects the payload.
func NewDatagram(srcPort, dstPort uint16, payload []byte) Datagram {
	return Datagram{
		Header:  NewHeader(srcPort, dstPort, len(payload)),
		Payload: payload,
	}
}

// ParseDatagram decodes a datagram from data. The buffer must contain at
// least the 8 header bytes and at least the header's declared length;
// anything shorter is ErrInvalidPacket. Exactly length-8 payload bytes are
// sliced out, even when the buffer carries trailing link-layer padding.
func ParseDatagram(data []byte) (Datagram, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return Datagram{}, err
	}
	if int(header.Length) < HeaderLen || len(data) < int(header.Length) {
		return Datagram{}, core.ErrInvalidPacket
	}
	return Datagram{
		Header:  header,
		Payload: data[HeaderLen:header.Length],
	}, nil
}

// Marshal encodes the datagram as header bytes followed by payload bytes.
func (d Datagram) Marshal() []byte {
	buf := make([]byte, 0, HeaderLen+len(d.Payload))
	buf = append(buf, d.Header.Marshal()...)
	buf = append(buf, d.Payload...)
	return buf
}
