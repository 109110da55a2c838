package core

import (
	"fmt"
	"net/netip"
)

// MACAddress is a 48-bit link-layer address.
//
// It is an immutable value type: comparable with ==, usable as a map key,
// and safe to share between cores without locking.
type MACAddress [6]byte

// MACFromBytes builds a MACAddress from a 6-byte slice.
// Returns ErrInvalidAddress if the slice is not exactly 6 bytes.
func MACFromBytes(b []byte) (MACAddress, error) {
	if len(b) != 6 {
		return MACAddress{}, ErrInvalidAddress
	}
	var a MACAddress
	copy(a[:], b)
	return a, nil
}

// BroadcastMAC returns the all-ones broadcast address ff:ff:ff:ff:ff:ff.
func BroadcastMAC() MACAddress {
	return MACAddress{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
}

// IsBroadcast reports whether a is the all-ones broadcast address.
func (a MACAddress) IsBroadcast() bool {
	return a == BroadcastMAC()
}

// IsMulticast reports whether a is a group address. The I/G bit (low bit of
// the first octet) distinguishes group from individual addresses; the
// broadcast address is excluded even though its I/G bit is set.
func (a MACAddress) IsMulticast() bool {
	return a[0]&0x01 == 1 && !a.IsBroadcast()
}

// IsUnicast reports whether a is an individual address.
func (a MACAddress) IsUnicast() bool {
	return a[0]&0x01 == 0
}

func (a MACAddress) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", a[0], a[1], a[2], a[3], a[4], a[5])
}

// IPv4Address is a 4-byte network-layer address, stored in network byte
// order. Like MACAddress it is a comparable immutable value type.
type IPv4Address [4]byte

// IPv4 builds an address from its four dotted-quad octets.
func IPv4(a, b, c, d byte) IPv4Address {
	return IPv4Address{a, b, c, d}
}

// IPv4FromBytes builds an IPv4Address from a 4-byte slice.
// Returns ErrInvalidAddress if the slice is not exactly 4 bytes.
func IPv4FromBytes(b []byte) (IPv4Address, error) {
	if len(b) != 4 {
		return IPv4Address{}, ErrInvalidAddress
	}
	var a IPv4Address
	copy(a[:], b)
	return a, nil
}

// IPv4Wildcard returns 0.0.0.0, the "any local interface" address used in
// binding and matching logic.
func IPv4Wildcard() IPv4Address {
	return IPv4Address{}
}

// IPv4Broadcast returns the limited broadcast address 255.255.255.255.
func IPv4Broadcast() IPv4Address {
	return IPv4Address{255, 255, 255, 255}
}

// ParseIPv4 parses a dotted-quad string into an address. Returns
// ErrInvalidAddress for anything that is not an IPv4 address.
func ParseIPv4(s string) (IPv4Address, error) {
	ip, err := netip.ParseAddr(s)
	if err != nil || !ip.Is4() {
		return IPv4Address{}, ErrInvalidAddress
	}
	return IPv4Address(ip.As4()), nil
}

// IsWildcard reports whether a is the all-zero wildcard address.
func (a IPv4Address) IsWildcard() bool {
	return a == IPv4Address{}
}

// IsLoopback reports whether a is in 127.0.0.0/8.
func (a IPv4Address) IsLoopback() bool {
	return a[0] == 127
}

// IsPrivate reports whether a falls in one of the RFC 1918 ranges:
// 10.0.0.0/8, 172.16.0.0/12 or 192.168.0.0/16.
func (a IPv4Address) IsPrivate() bool {
	switch {
	case a[0] == 10:
		return true
	case a[0] == 172 && a[1]&0xF0 == 16:
		return true
	case a[0] == 192 && a[1] == 168:
		return true
	}
	return false
}

// IsBroadcast reports whether a is the limited broadcast address.
func (a IPv4Address) IsBroadcast() bool {
	return a == IPv4Broadcast()
}

// IsMulticast reports whether a is in 224.0.0.0/4.
func (a IPv4Address) IsMulticast() bool {
	return a[0]&0xF0 == 224
}

func (a IPv4Address) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", a[0], a[1], a[2], a[3])
}
