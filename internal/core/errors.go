// Package core defines the shared data types and sentinel errors of the
// network subsystem. It has zero external dependencies.
package core

import "errors"

// Sentinel errors. The taxonomy is flat: every fallible operation in the
// subsystem reports exactly one of these, synchronously, to its immediate
// caller. Retry and backoff policy belongs to the socket layer above.
var (
	ErrDeviceNotFound      = errors.New("netkit: device not found")
	ErrInvalidPacket       = errors.New("netkit: invalid packet")
	ErrBufferFull          = errors.New("netkit: buffer full")
	ErrConnectionClosed    = errors.New("netkit: connection closed")
	ErrConnectionRefused   = errors.New("netkit: connection refused")
	ErrAddressInUse        = errors.New("netkit: address in use")
	ErrNetworkUnreachable  = errors.New("netkit: network unreachable")
	ErrTimeout             = errors.New("netkit: timeout")
	ErrInvalidAddress      = errors.New("netkit: invalid address")
	ErrPermissionDenied    = errors.New("netkit: permission denied")
	ErrResourceBusy        = errors.New("netkit: resource busy")
	ErrNoRoute             = errors.New("netkit: no route to host")
	ErrFragmentationNeeded = errors.New("netkit: fragmentation needed")
)
