/*
 * rover distance-vector routing node.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package dataplane

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routewisp/rover/addr"
	"github.com/routewisp/rover/clock"
	"github.com/routewisp/rover/metrics"
	"github.com/routewisp/rover/roverlog"
	"github.com/routewisp/rover/wire"
)

// fakeTable is a test double for Table: NextHop is driven by a function
// so tests can make a route appear, disappear, or stay put.
type fakeTable struct {
	nextHop func() (addr.Public, bool)
	metric  uint8
}

func (f *fakeTable) NextHop(addr.Private) (addr.Public, bool) { return f.nextHop() }
func (f *fakeTable) Metric(addr.Private) uint8                { return f.metric }

// newLoopbackSender builds an IO whose sockets are real but bound on
// loopback-only, non-production addresses: dataConn sends from an
// ephemeral port, ackConn listens on the fixed AckPort on 127.0.0.1 so
// a test peer can reply to it the way a real next hop would.
func newLoopbackSender(t *testing.T, tbl Table) *IO {
	t.Helper()

	dataConn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	t.Cleanup(func() { dataConn.Close() })

	ackConn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: AckPort})
	require.NoError(t, err)
	t.Cleanup(func() { ackConn.Close() })

	m := metrics.New(prometheus.NewRegistry(), "1")

	return &IO{
		dataConn: dataConn,
		ackConn:  ackConn,
		self:     addr.FromRoverID(1),
		table:    tbl,
		log:      roverlog.Nil{},
		metrics:  m,
	}
}

// newLoopbackPeer binds the "next hop" side of the data-plane link on a
// distinct loopback address (127.0.0.2) so it does not collide with the
// sender's own dataConn/ackConn bound on 127.0.0.1.
func newLoopbackPeer(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP("127.0.0.2"), Port: DataPort})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func alwaysRoute(via [4]byte) func() (addr.Public, bool) {
	return func() (addr.Public, bool) { return addr.PublicFrom4(via), true }
}

func noopLog(string, roverlog.KV) {}

// Scenario from spec §8: the sender never advances past sequence k
// without receiving ack-number k+1; a matching ACK on the first try
// advances it exactly once, with no retransmit.
func TestSendChunkAdvancesOnMatchingAck(t *testing.T) {
	tbl := &fakeTable{nextHop: alwaysRoute([4]byte{127, 0, 0, 2}), metric: 1}
	d := newLoopbackSender(t, tbl)
	peer := newLoopbackPeer(t)

	AckTimeout = 200 * time.Millisecond
	defer func() { AckTimeout = time.Second }()

	frame := wire.DataFrame{Dest: addr.FromRoverID(2), Source: addr.FromRoverID(1), Seq: 3, Flags: wire.FlagNORMAL, Payload: []byte("hello")}

	done := make(chan error, 1)
	go func() { done <- d.sendChunkAndAwaitAck(context.Background(), frame, clock.Real{}, noopLog) }()

	buf := make([]byte, 1500)
	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := peer.ReadFromUDP(buf)
	require.NoError(t, err)
	got, err := wire.DecodeDataFrame(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, uint32(3), got.Seq)
	assert.True(t, got.IsNorm())

	ack := wire.DataFrame{Dest: addr.FromRoverID(1), Source: addr.FromRoverID(2), Ack: 4, Flags: wire.FlagACK}
	_, err = peer.WriteToUDP(wire.EncodeDataFrame(ack), &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: AckPort})
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sendChunkAndAwaitAck never returned")
	}

	assert.Equal(t, float64(0), testutil.ToFloat64(d.metrics.Retransmissions))
}

// An ACK bearing an unrelated ack-number (stale, or meant for a
// different chunk) must not be mistaken for progress: the sender keeps
// waiting, times out, and retransmits instead of advancing.
func TestSendChunkIgnoresUnrelatedAckAndRetransmitsOnTimeout(t *testing.T) {
	tbl := &fakeTable{nextHop: alwaysRoute([4]byte{127, 0, 0, 2}), metric: 1}
	d := newLoopbackSender(t, tbl)
	peer := newLoopbackPeer(t)

	AckTimeout = 150 * time.Millisecond
	defer func() { AckTimeout = time.Second }()

	frame := wire.DataFrame{Dest: addr.FromRoverID(2), Source: addr.FromRoverID(1), Seq: 0, Flags: wire.FlagSYN, TotalSize: 5, Payload: []byte("hello")}

	done := make(chan error, 1)
	go func() { done <- d.sendChunkAndAwaitAck(context.Background(), frame, clock.Real{}, noopLog) }()

	buf := make([]byte, 1500)
	peer.SetReadDeadline(time.Now().Add(2 * time.Second))

	// First delivery: reply with an ack-number that does not match
	// expectAck (1). The sender must not treat this as progress.
	n, _, err := peer.ReadFromUDP(buf)
	require.NoError(t, err)
	_, err = wire.DecodeDataFrame(buf[:n])
	require.NoError(t, err)
	stale := wire.DataFrame{Dest: addr.FromRoverID(1), Source: addr.FromRoverID(2), Ack: 99, Flags: wire.FlagACK}
	_, err = peer.WriteToUDP(wire.EncodeDataFrame(stale), &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: AckPort})
	require.NoError(t, err)

	// The stale ack must not satisfy awaitAck: the sender retransmits
	// the same frame once AckTimeout elapses.
	n, _, err = peer.ReadFromUDP(buf)
	require.NoError(t, err)
	retransmitted, err := wire.DecodeDataFrame(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, uint32(0), retransmitted.Seq, "retransmit must carry the same sequence number as the original")

	correct := wire.DataFrame{Dest: addr.FromRoverID(1), Source: addr.FromRoverID(2), Ack: 1, Flags: wire.FlagACK}
	_, err = peer.WriteToUDP(wire.EncodeDataFrame(correct), &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: AckPort})
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sendChunkAndAwaitAck never returned")
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(d.metrics.Retransmissions), "exactly one retransmit must have happened")
}

// While no route to the destination exists, sendChunkAndAwaitAck must
// not write any frame; it polls the table on c and proceeds only once a
// route appears, honoring context cancellation in the meantime (spec
// §4.6's convergence wait, exercised here at the per-chunk level).
func TestSendChunkWaitsForRouteBeforeSending(t *testing.T) {
	c := clock.NewVirtual()
	ctx, cancel := context.WithCancel(context.Background())

	var pollCount int32
	tbl := &fakeTable{
		nextHop: func() (addr.Public, bool) {
			n := atomic.AddInt32(&pollCount, 1)
			if n < 3 {
				return addr.Public{}, false
			}
			// The route has just appeared: cancel so the test does not
			// need a live peer to observe sendChunkAndAwaitAck unblock.
			cancel()
			return addr.PublicFrom4([4]byte{127, 0, 0, 2}), true
		},
	}
	d := newLoopbackSender(t, tbl)

	frame := wire.DataFrame{Dest: addr.FromRoverID(2), Source: addr.FromRoverID(1), Seq: 0, Flags: wire.FlagSYN, TotalSize: 5, Payload: []byte("hello")}

	done := make(chan error, 1)
	go func() { done <- d.sendChunkAndAwaitAck(ctx, frame, c, noopLog) }()

	// Let the no-route branch observe the table twice, each gated by a
	// RoutePollInterval sleep on the virtual clock, before it finds a
	// route on the third check.
	require.Eventually(t, func() bool { return atomic.LoadInt32(&pollCount) >= 1 }, time.Second, time.Millisecond)
	c.Advance(RoutePollInterval)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&pollCount) >= 2 }, time.Second, time.Millisecond)
	c.Advance(RoutePollInterval)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("sendChunkAndAwaitAck never returned after the route appeared")
	}

	assert.GreaterOrEqual(t, atomic.LoadInt32(&pollCount), int32(3))
}
