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

// Package dataplane implements the reliable unicast forwarder, sender
// and receiver built on top of the routing table: stop-and-wait with
// sequence numbers, ACKs, retransmission, and store-and-forward
// relaying (spec §4.6).
package dataplane

import (
	"context"
	"net"
	"time"

	"github.com/routewisp/rover/addr"
	"github.com/routewisp/rover/metrics"
	"github.com/routewisp/rover/rib"
	"github.com/routewisp/rover/roverlog"
	"github.com/routewisp/rover/roverr"
	"github.com/routewisp/rover/wire"
)

const (
	// DataPort carries SYN/NORMAL frames and, for intermediate hops,
	// relayed ACK frames.
	DataPort = 6161
	// AckPort carries ACK frames on their final hop to the originator.
	AckPort = 5454

	// ChunkSize is the fixed payload size read from the source file per
	// frame (spec §4.6).
	ChunkSize = 5000
)

// Table is the subset of rib.Table the data plane depends on.
type Table interface {
	NextHop(dest addr.Private) (addr.Public, bool)
	Metric(dest addr.Private) uint8
}

var _ Table = (*rib.Table)(nil)

// IO owns the data and ACK unicast sockets and runs the
// receiver/forwarder loop shared by both roles.
type IO struct {
	dataConn *net.UDPConn
	ackConn  *net.UDPConn

	self    addr.Private
	table   Table
	log     roverlog.Log
	metrics *metrics.Metrics

	recv *receiver
}

// Open binds the fixed data (6161) and ACK (5454) ports. self is this
// rover's private address; sinkPath is the fixed output filename
// (spec §6's OUTPUT_FILE) a receiver writes an inbound transfer to.
func Open(self addr.Private, table Table, sinkPath string, log roverlog.Log, m *metrics.Metrics) (*IO, error) {
	dataConn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: DataPort})
	if err != nil {
		return nil, roverr.New(roverr.FatalIO, "dataplane.Open", err)
	}

	ackConn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: AckPort})
	if err != nil {
		dataConn.Close()
		return nil, roverr.New(roverr.FatalIO, "dataplane.Open", err)
	}

	io := &IO{
		dataConn: dataConn,
		ackConn:  ackConn,
		self:     self,
		table:    table,
		log:      roverlog.Of(log),
		metrics:  m,
		recv:     newReceiver(self, sinkPath, log, m),
	}

	return io, nil
}

func (d *IO) Close() {
	d.dataConn.Close()
	d.ackConn.Close()
}

// Done reports the completion of an inbound transfer at this rover,
// matching spec §4.6's "close the sink and terminate the process" when
// this rover is the final destination of a transfer.
func (d *IO) Done() <-chan struct{} {
	return d.recv.done
}

func (d *IO) write(b []byte, to addr.Public, port int) {
	_, err := d.dataConn.WriteToUDP(b, &net.UDPAddr{IP: net.IP(func() []byte { a := to.As4(); return a[:] }()), Port: port})
	if err != nil {
		d.log.Error("dataplane", "write failed", roverlog.KV{"error": err.Error(), "port": port})
	}
}

// ReceiveLoop reads every datagram that arrives on the data port and
// either relays it (store-and-forward) or hands it to the local
// receiver state machine, per spec §4.6, until ctx is cancelled or a
// fatal socket error occurs.
func (d *IO) ReceiveLoop(ctx context.Context) error {
	buf := make([]byte, 65535)

	// Cancelling ctx expires the read deadline so a blocked ReadFromUDP
	// returns instead of waiting for the next datagram.
	stop := context.AfterFunc(ctx, func() { d.dataConn.SetReadDeadline(time.Now()) })
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, _, err := d.dataConn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return roverr.New(roverr.FatalIO, "dataplane.ReceiveLoop", err)
		}

		frame, err := wire.DecodeDataFrame(buf[:n])
		if err != nil {
			d.log.Warn("dataplane", "discarding malformed data frame", nil)
			continue
		}

		d.handle(frame, append([]byte(nil), buf[:n]...))
	}
}

func (d *IO) handle(frame wire.DataFrame, raw []byte) {
	if frame.Dest != d.self {
		d.forward(frame, raw)
		return
	}

	ack, send := d.recv.receive(frame)
	if send {
		d.sendAck(ack)
	}
}

// forward implements store-and-forward relaying: the exact bytes are
// retransmitted unchanged to the next hop toward frame.Dest. The
// forwarding destination port is the ACK port only when the frame is
// itself an ACK and this is the last hop to the destination (spec
// §4.6).
func (d *IO) forward(frame wire.DataFrame, raw []byte) {
	next, ok := d.table.NextHop(frame.Dest)
	if !ok {
		d.metrics.FramesDropped.Inc()
		d.log.Warn("dataplane", "no route, dropping frame", roverlog.KV{"dest": frame.Dest.String()})
		return
	}

	port := DataPort
	if frame.IsACK() && d.table.Metric(frame.Dest) == 1 {
		port = AckPort
	}

	d.write(raw, next, port)
	d.metrics.FramesForwarded.Inc()
}

// sendAck builds and routes an ACK frame per spec §4.6's ACK
// construction rule.
func (d *IO) sendAck(ack wire.DataFrame) {
	next, ok := d.table.NextHop(ack.Dest)
	if !ok {
		d.metrics.FramesDropped.Inc()
		return
	}

	port := DataPort
	if d.table.Metric(ack.Dest) == 1 {
		port = AckPort
	}

	d.write(wire.EncodeDataFrame(ack), next, port)
	d.metrics.AcksSent.Inc()
}
