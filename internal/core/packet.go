package core

// Packet is an owned byte buffer with a fixed capacity and a tracked logical
// length. Write operations that would exceed the capacity fail with
// ErrBufferFull instead of growing the storage: the hot path never touches
// the heap allocator.
//
// Packets are normally created by the buffer manager, which adopts a buffer
// slot from one of its pools, and returned to it when the caller is done.
type Packet struct {
	storage []byte // full-capacity backing buffer, len(storage) == capacity
	length  int    // logical length, 0 <= length <= len(storage)
}

// NewPacket allocates a zero-length packet able to hold up to capacity
// bytes. The storage never grows afterwards.
func NewPacket(capacity int) *Packet {
	return &Packet{storage: make([]byte, capacity)}
}

// PacketFromStorage adopts buf as the packet's backing storage without
// copying. The packet's capacity is len(buf) and its length starts at zero.
// Ownership of buf transfers to the packet until it is released back to its
// pool.
func PacketFromStorage(buf []byte) *Packet {
	return &Packet{storage: buf}
}

// Push appends a single byte. Returns ErrBufferFull when the packet is at
// capacity.
func (p *Packet) Push(b byte) error {
	if p.length == len(p.storage) {
		return ErrBufferFull
	}
	p.storage[p.length] = b
	p.length++
	return nil
}

// Append appends all of data, or nothing at all. Returns ErrBufferFull if
// the combined length would exceed the capacity; no partial write occurs.
func (p *Packet) Append(data []byte) error {
	if p.length+len(data) > len(p.storage) {
		return ErrBufferFull
	}
	copy(p.storage[p.length:], data)
	p.length += len(data)
	return nil
}

// Truncate shrinks the logical length to n. It is a no-op when n is not
// smaller than the current length.
func (p *Packet) Truncate(n int) {
	if n < p.length && n >= 0 {
		p.length = n
	}
}

// Clear resets the length to zero. The contents are not zeroed here; that
// happens when the storage is returned to its pool.
func (p *Packet) Clear() {
	p.length = 0
}

// Len returns the logical length.
func (p *Packet) Len() int {
	return p.length
}

// Cap returns the fixed capacity of the backing storage.
func (p *Packet) Cap() int {
	return len(p.storage)
}

// Bytes returns the written portion of the packet. The slice aliases the
// packet's storage and is invalidated by release to the pool.
func (p *Packet) Bytes() []byte {
	return p.storage[:p.length]
}

// Storage returns the full-capacity backing buffer, for returning it to the
// pool that owns it.
func (p *Packet) Storage() []byte {
	return p.storage
}
