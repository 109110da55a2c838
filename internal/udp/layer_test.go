package udp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/netkit/internal/core"
)

func TestBindDuplicateRejected(t *testing.T) {
	l := NewLayer()
	addr := core.IPv4(192, 168, 1, 10)

	_, err := l.Bind(addr, 53)
	require.NoError(t, err)

	_, err = l.Bind(addr, 53)
	assert.ErrorIs(t, err, core.ErrAddressInUse)

	// Same port on a different address is fine.
	_, err = l.Bind(core.IPv4(192, 168, 1, 11), 53)
	assert.NoError(t, err)
}

func TestBindWildcardCoexistsWithSpecific(t *testing.T) {
	// The collision rule is deliberately narrow: a wildcard binding and a
	// specific-address binding share a port without conflict, and
	// registration order decides who receives ambiguous traffic.
	l := NewLayer()
	local := core.IPv4(10, 0, 0, 1)

	wildcardID, err := l.Bind(core.IPv4Wildcard(), 4000)
	require.NoError(t, err)
	specificID, err := l.Bind(local, 4000)
	require.NoError(t, err)

	d := NewDatagram(5555, 4000, []byte("x"))
	id, ok := l.ProcessDatagram(core.IPv4(8, 8, 8, 8), local, d)
	require.True(t, ok)
	assert.Equal(t, wildcardID, id, "first registered binding wins")
	assert.NotEqual(t, specificID, id)
}

func TestBindOrderDecidesAmbiguousDispatch(t *testing.T) {
	// Same setup, opposite registration order.
	l := NewLayer()
	local := core.IPv4(10, 0, 0, 1)

	specificID, err := l.Bind(local, 4000)
	require.NoError(t, err)
	_, err = l.Bind(core.IPv4Wildcard(), 4000)
	require.NoError(t, err)

	d := NewDatagram(5555, 4000, []byte("x"))
	id, ok := l.ProcessDatagram(core.IPv4(8, 8, 8, 8), local, d)
	require.True(t, ok)
	assert.Equal(t, specificID, id)
}

func TestConnectedBindingFiltersSource(t *testing.T) {
	l := NewLayer()
	local := core.IPv4(192, 168, 0, 2)

	id, err := l.Bind(core.IPv4Wildcard(), 53)
	require.NoError(t, err)
	require.NoError(t, l.Connect(id, core.IPv4(8, 8, 8, 8), 53))

	d := NewDatagram(53, 53, []byte("answer"))

	got, ok := l.ProcessDatagram(core.IPv4(8, 8, 8, 8), local, d)
	require.True(t, ok)
	assert.Equal(t, id, got)

	// Wrong source address.
	_, ok = l.ProcessDatagram(core.IPv4(1, 1, 1, 1), local, d)
	assert.False(t, ok)

	// Right address, wrong source port.
	wrongPort := NewDatagram(5353, 53, []byte("answer"))
	_, ok = l.ProcessDatagram(core.IPv4(8, 8, 8, 8), local, wrongPort)
	assert.False(t, ok)
}

func TestUnconnectedBindingAcceptsAnySource(t *testing.T) {
	l := NewLayer()
	local := core.IPv4(192, 168, 0, 2)

	id, err := l.Bind(core.IPv4Wildcard(), 8000)
	require.NoError(t, err)

	for _, src := range []core.IPv4Address{
		core.IPv4(1, 1, 1, 1),
		core.IPv4(8, 8, 8, 8),
		core.IPv4(10, 20, 30, 40),
	} {
		got, ok := l.ProcessDatagram(src, local, NewDatagram(999, 8000, nil))
		require.True(t, ok, "source %s", src)
		assert.Equal(t, id, got)
	}
}

func TestProcessDatagramNoMatch(t *testing.T) {
	l := NewLayer()
	_, err := l.Bind(core.IPv4Wildcard(), 8000)
	require.NoError(t, err)

	_, ok := l.ProcessDatagram(core.IPv4(1, 2, 3, 4), core.IPv4(5, 6, 7, 8), NewDatagram(1, 9999, nil))
	assert.False(t, ok)
}

func TestSendUsesLocalPortAsSource(t *testing.T) {
	l := NewLayer()
	id, err := l.Bind(core.IPv4Wildcard(), 5353)
	require.NoError(t, err)

	d, err := l.Send(id, core.IPv4(8, 8, 4, 4), 53, []byte("query"))
	require.NoError(t, err)
	assert.Equal(t, uint16(5353), d.Header.SrcPort)
	assert.Equal(t, uint16(53), d.Header.DstPort)
	assert.Equal(t, uint16(HeaderLen+5), d.Header.Length)

	_, err = l.Send(42, core.IPv4(8, 8, 4, 4), 53, nil)
	assert.ErrorIs(t, err, core.ErrInvalidAddress)
}

func TestReceiveQueue(t *testing.T) {
	l := NewLayer()
	local := core.IPv4(10, 0, 0, 1)
	id, err := l.Bind(core.IPv4Wildcard(), 7000)
	require.NoError(t, err)

	_, err = l.Receive(id)
	assert.ErrorIs(t, err, core.ErrResourceBusy, "empty queue")

	sent := NewDatagram(1234, 7000, []byte("payload"))
	_, ok := l.ProcessDatagram(core.IPv4(9, 9, 9, 9), local, sent)
	require.True(t, ok)

	got, err := l.Receive(id)
	require.NoError(t, err)
	assert.Equal(t, sent.Header, got.Header)
	assert.Equal(t, sent.Payload, got.Payload)

	_, err = l.Receive(99)
	assert.ErrorIs(t, err, core.ErrInvalidAddress)
}

func TestUnbindAndSlotReuse(t *testing.T) {
	l := NewLayer()

	a, err := l.Bind(core.IPv4Wildcard(), 1000)
	require.NoError(t, err)
	b, err := l.Bind(core.IPv4Wildcard(), 1001)
	require.NoError(t, err)

	require.NoError(t, l.Unbind(a))
	assert.ErrorIs(t, l.Unbind(a), core.ErrInvalidAddress, "double unbind")
	assert.ErrorIs(t, l.Unbind(99), core.ErrInvalidAddress, "out of range")

	// The freed slot is reused; the surviving binding keeps its id.
	c, err := l.Bind(core.IPv4Wildcard(), 1002)
	require.NoError(t, err)
	assert.Equal(t, a, c)

	got, err := l.Lookup(b)
	require.NoError(t, err)
	assert.Equal(t, uint16(1001), got.LocalPort)
}

func TestAllocatePort(t *testing.T) {
	l := NewLayer()

	port, err := l.AllocatePort()
	require.NoError(t, err)
	assert.Equal(t, uint16(EphemeralPortStart), port)

	// Occupy the first ephemeral port; the allocator must skip it.
	_, err = l.Bind(core.IPv4Wildcard(), port)
	require.NoError(t, err)

	next, err := l.AllocatePort()
	require.NoError(t, err)
	assert.Equal(t, uint16(EphemeralPortStart+1), next)
}

func TestAllocatePortNeverReturnsHeldPort(t *testing.T) {
	l := NewLayer()

	held := map[uint16]bool{}
	for i := 0; i < 50; i++ {
		port, err := l.AllocatePort()
		require.NoError(t, err)
		assert.False(t, held[port], "port %d returned twice", port)
		held[port] = true
		_, err = l.Bind(core.IPv4Wildcard(), port)
		require.NoError(t, err)
	}
}

func TestCount(t *testing.T) {
	l := NewLayer()
	assert.Equal(t, 0, l.Count())

	id, err := l.Bind(core.IPv4Wildcard(), 2000)
	require.NoError(t, err)
	_, err = l.Bind(core.IPv4Wildcard(), 2001)
	require.NoError(t, err)
	assert.Equal(t, 2, l.Count())

	require.NoError(t, l.Unbind(id))
	assert.Equal(t, 1, l.Count())
}
