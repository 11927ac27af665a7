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
	"io"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/routewisp/rover/addr"
	"github.com/routewisp/rover/clock"
	"github.com/routewisp/rover/roverlog"
	"github.com/routewisp/rover/roverr"
	"github.com/routewisp/rover/wire"
)

const (
	// StartupDelay lets routes converge before the sender's first send
	// attempt (spec §4.6).
	StartupDelay = 3 * time.Second
	// RoutePollInterval is how long the sender sleeps between checks
	// for a route to destination while none exists yet.
	RoutePollInterval = 5 * time.Second
)

// AckTimeout is how long the sender waits for a matching ACK before
// retransmitting the same chunk. A var, not a const, so tests can
// shrink it rather than wait out the production value.
var AckTimeout = 1000 * time.Millisecond

// sleep blocks the calling goroutine for d, scheduled through c so that
// tests can drive it with a clock.Virtual instead of real time.
func sleep(c clock.Clock, d time.Duration) {
	done := make(chan struct{})
	c.AfterFunc(d, func() { close(done) })
	<-done
}

// RunSender drives the stop-and-wait sender state machine of spec
// §4.6: wait for routes to converge, then send the file in fixed-size
// chunks, retransmitting on ACK timeout, until the whole file has been
// sent and acknowledged. It blocks until the transfer completes or ctx
// is cancelled; its caller is expected to terminate the process on a
// nil return (spec: "the sender terminates the process when the file
// has been fully sent and acknowledged").
func (d *IO) RunSender(ctx context.Context, dest addr.Private, file io.Reader, totalSize uint32, c clock.Clock) error {
	transferID := uuid.NewString()
	logf := func(msg string, kv roverlog.KV) {
		if kv == nil {
			kv = roverlog.KV{}
		}
		kv["transfer"] = transferID
		kv["dest"] = dest.String()
		d.log.Info("dataplane.sender", msg, kv)
	}

	sleep(c, StartupDelay)

	for {
		if _, ok := d.table.NextHop(dest); ok {
			break
		}
		logf("no route to destination yet, waiting", nil)
		sleep(c, RoutePollInterval)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	var seq uint32
	remaining := totalSize

	for remaining > 0 {
		chunkLen := uint32(ChunkSize)
		if remaining < chunkLen {
			chunkLen = remaining
		}

		buf := make([]byte, chunkLen)
		if _, err := io.ReadFull(file, buf); err != nil {
			return roverr.New(roverr.FatalIO, "dataplane.RunSender", err)
		}

		frame := wire.DataFrame{
			Dest:    dest,
			Source:  d.self,
			Seq:     seq,
			Payload: buf,
		}
		if seq == 0 {
			frame.Flags = wire.FlagSYN
			frame.TotalSize = totalSize
		} else {
			frame.Flags = wire.FlagNORMAL
		}

		if err := d.sendChunkAndAwaitAck(ctx, frame, c, logf); err != nil {
			return err
		}

		remaining -= chunkLen
		seq++
	}

	logf("transfer complete", nil)
	return nil
}

// sendChunkAndAwaitAck implements the per-chunk sender state machine:
// SENDING -> AWAITING_ACK on transmit, AWAITING_ACK -> ADVANCED on a
// matching ACK, AWAITING_ACK -> SENDING (retransmit) on timeout. There
// is no retry cap, per spec §7.
func (d *IO) sendChunkAndAwaitAck(ctx context.Context, frame wire.DataFrame, c clock.Clock, logf func(string, roverlog.KV)) error {
	expectAck := frame.Seq + 1
	encoded := wire.EncodeDataFrame(frame)

	for {
		next, ok := d.table.NextHop(frame.Dest)
		if !ok {
			sleep(c, RoutePollInterval)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		d.write(encoded, next, DataPort)

		matched, err := d.awaitAck(ctx, expectAck)
		if err != nil {
			return err
		}
		if matched {
			return nil
		}

		d.metrics.Retransmissions.Inc()
		logf("ack timeout, retransmitting", roverlog.KV{"seq": frame.Seq})
	}
}

// awaitAck waits up to AckTimeout for an ACK frame with ack number ==
// expect, ignoring any unrelated frame within the same window (spec
// §4.6).
func (d *IO) awaitAck(ctx context.Context, expect uint32) (bool, error) {
	deadline := time.Now().Add(AckTimeout)

	buf := make([]byte, 1500)

	for {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		d.ackConn.SetReadDeadline(deadline)
		n, _, err := d.ackConn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return false, nil
			}
			return false, roverr.New(roverr.FatalIO, "dataplane.awaitAck", err)
		}

		frame, err := wire.DecodeDataFrame(buf[:n])
		if err != nil {
			continue
		}

		if frame.IsACK() && frame.Ack == expect {
			return true, nil
		}
		// Unrelated frame: keep waiting within the same window.
	}
}
