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
	"io"
	"os"
	"sync"

	"github.com/routewisp/rover/addr"
	"github.com/routewisp/rover/metrics"
	"github.com/routewisp/rover/roverlog"
	"github.com/routewisp/rover/wire"
)

const (
	stateIdle      = "IDLE"
	stateReceiving = "RECEIVING"
	stateDone      = "DONE"
)

// receiver is the one-per-process receiver state machine of spec §4.6:
// IDLE -> RECEIVING on a valid SYN, RECEIVING -> RECEIVING|DONE on
// successive NORMAL frames, invalid inputs keep the current state.
type receiver struct {
	self     addr.Private
	sinkPath string
	log      roverlog.Log
	metrics  *metrics.Metrics

	mu          sync.Mutex
	state       string
	expectedSeq uint32
	remaining   uint32
	sink        io.WriteCloser

	done     chan struct{}
	closeDone sync.Once
}

func newReceiver(self addr.Private, sinkPath string, log roverlog.Log, m *metrics.Metrics) *receiver {
	return &receiver{
		self:     self,
		sinkPath: sinkPath,
		log:      roverlog.Of(log),
		metrics:  m,
		state:    stateIdle,
		done:     make(chan struct{}),
	}
}

// openOutputSink opens the fixed OUTPUT_FILE for write-truncate, per
// spec §6 persisted state.
func openOutputSink(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
}

// receive applies the drop rules and state transitions of spec §4.6 to
// one inbound frame addressed to this rover. It returns the ACK frame
// to send (if any) and whether the caller should actually send it: a
// dropped frame, or a duplicate SYN, yields send=false.
func (r *receiver) receive(frame wire.DataFrame) (wire.DataFrame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case frame.IsNorm():
		if frame.Seq != r.expectedSeq {
			// Duplicate/out-of-order NORMAL. The spec's default is to
			// drop silently, which can stall the sender if the
			// original ACK was lost; per the open question in §9 we
			// take the alternative of re-ACKing the immediately
			// preceding sequence number so the sender's retransmit
			// finds an ACK already in flight.
			if r.expectedSeq > 0 && frame.Seq == r.expectedSeq-1 {
				return r.ackFor(frame, frame.Seq), true
			}
			r.metrics.FramesDropped.Inc()
			return wire.DataFrame{}, false
		}

	case frame.IsSYN():
		if r.expectedSeq != 0 {
			// Already in a transfer: ignored per spec invariant, no
			// re-ACK.
			r.metrics.FramesDropped.Inc()
			return wire.DataFrame{}, false
		}

	default:
		// An ACK (or frame with no recognised flag) addressed to us on
		// the data port is not a valid receiver input.
		r.metrics.FramesDropped.Inc()
		return wire.DataFrame{}, false
	}

	if frame.IsSYN() {
		sink, err := openOutputSink(r.sinkPath)
		if err != nil {
			r.log.Error("dataplane", "failed to open output sink", roverlog.KV{"error": err.Error()})
			return wire.DataFrame{}, false
		}
		r.sink = sink
		r.remaining = frame.TotalSize - uint32(len(frame.Payload))
		r.state = stateReceiving
	} else {
		r.remaining -= uint32(len(frame.Payload))
	}

	if r.sink != nil {
		r.sink.Write(frame.Payload)
	}

	ack := r.ackFor(frame, frame.Seq)
	r.expectedSeq++

	if r.remaining == 0 && !frame.IsACK() {
		r.state = stateDone
		if r.sink != nil {
			r.sink.Close()
		}
		r.closeDone.Do(func() { close(r.done) })
	}

	return ack, true
}

// ackFor builds the ACK addressed back toward frame's source, per spec
// §4.6's ACK construction rule: dest=source, source=self, ack=seq+1.
func (r *receiver) ackFor(frame wire.DataFrame, seq uint32) wire.DataFrame {
	return wire.DataFrame{
		Dest:   frame.Source,
		Source: r.self,
		Ack:    seq + 1,
		Flags:  wire.FlagACK,
	}
}
