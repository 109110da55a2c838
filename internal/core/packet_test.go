package core

import (
	"bytes"
	"errors"
	"testing"
)

func TestPacketPush(t *testing.T) {
	p := NewPacket(2)

	if err := p.Push(0xAA); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := p.Push(0xBB); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := p.Push(0xCC); !errors.Is(err, ErrBufferFull) {
		t.Errorf("expected ErrBufferFull, got %v", err)
	}
	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
	if !bytes.Equal(p.Bytes(), []byte{0xAA, 0xBB}) {
		t.Errorf("Bytes() = %x", p.Bytes())
	}
}

func TestPacketAppendAtomic(t *testing.T) {
	p := NewPacket(4)
	if err := p.Append([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Would exceed capacity: nothing must be written.
	if err := p.Append([]byte{4, 5}); !errors.Is(err, ErrBufferFull) {
		t.Fatalf("expected ErrBufferFull, got %v", err)
	}
	if p.Len() != 3 {
		t.Errorf("partial write happened, Len() = %d", p.Len())
	}

	if err := p.Append([]byte{4}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !bytes.Equal(p.Bytes(), []byte{1, 2, 3, 4}) {
		t.Errorf("Bytes() = %x", p.Bytes())
	}
}

func TestPacketTruncate(t *testing.T) {
	p := NewPacket(8)
	if err := p.Append([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	p.Truncate(6) // larger than length: no-op
	if p.Len() != 4 {
		t.Errorf("Len() = %d after no-op truncate", p.Len())
	}

	p.Truncate(2)
	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
	if !bytes.Equal(p.Bytes(), []byte{1, 2}) {
		t.Errorf("Bytes() = %x", p.Bytes())
	}
}

func TestPacketClearKeepsCapacity(t *testing.T) {
	p := NewPacket(8)
	if err := p.Append([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	p.Clear()
	if p.Len() != 0 {
		t.Errorf("Len() = %d after Clear", p.Len())
	}
	if p.Cap() != 8 {
		t.Errorf("Cap() = %d after Clear", p.Cap())
	}
	// Clear does not zero; the storage still holds the old bytes until the
	// pool wipes it on return.
	if p.Storage()[0] != 1 {
		t.Errorf("Clear must not zero storage")
	}
}

func TestPacketFromStorage(t *testing.T) {
	buf := make([]byte, 16)
	p := PacketFromStorage(buf)
	if p.Cap() != 16 || p.Len() != 0 {
		t.Errorf("Cap()=%d Len()=%d", p.Cap(), p.Len())
	}
	if err := p.Append(bytes.Repeat([]byte{0xFF}, 16)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := p.Push(0); !errors.Is(err, ErrBufferFull) {
		t.Errorf("expected ErrBufferFull, got %v", err)
	}
}
