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

// Package distancevector implements the routing protocol state machine:
// applying inbound advertisements to the routing table by the
// distance-vector rule with split-horizon-by-poisoning, reacting to
// neighbor death, and deciding when a triggered update is owed.
package distancevector

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/routewisp/rover/addr"
	"github.com/routewisp/rover/clock"
	"github.com/routewisp/rover/metrics"
	"github.com/routewisp/rover/neighbor"
	"github.com/routewisp/rover/rib"
	"github.com/routewisp/rover/roverlog"
	"github.com/routewisp/rover/wire"
)

// PeriodicInterval is the cadence of unconditional full-table
// advertisements (spec §4.4).
const PeriodicInterval = 5 * time.Second

// EmitFunc sends one advertisement frame, typically onto the multicast
// control-plane socket.
type EmitFunc func(command uint8, records []rib.Record)

// DistanceVector owns the update rule. It does not own the socket: it is
// handed decoded advertisements by controlplane.IO and calls back out
// through Emit whenever the protocol requires an advertisement to be
// sent.
type DistanceVector struct {
	selfID      addr.RoverID
	selfPrivate addr.Private
	selfPublic  addr.Public

	table    *rib.Table
	liveness *neighbor.Liveness
	cache    *neighbor.Cache
	log      roverlog.Log
	metrics  *metrics.Metrics
	emit     EmitFunc

	// triggerLimit rate-limits triggered updates only; periodic
	// emission (PeriodicInterval) is never subject to it. See
	// SPEC_FULL.md DOMAIN STACK: golang.org/x/time/rate.
	triggerLimit *rate.Limiter

	// mu serializes the entire mutation path - per-advertisement
	// processing and neighbor-death handling - so that a death
	// callback firing on its own goroutine can never interleave its
	// table writes with an in-flight advertisement (spec §5 ordering
	// guarantees).
	mu sync.Mutex
}

// New builds a DistanceVector for rover id, whose own addresses are
// selfPrivate/selfPublic, backed by table and using c to schedule
// neighbor dead-interval timers.
func New(id addr.RoverID, selfPrivate addr.Private, selfPublic addr.Public, table *rib.Table, c clock.Clock, log roverlog.Log, m *metrics.Metrics, emit EmitFunc) *DistanceVector {
	dv := &DistanceVector{
		selfID:       id,
		selfPrivate:  selfPrivate,
		selfPublic:   selfPublic,
		table:        table,
		cache:        neighbor.NewCache(),
		log:          roverlog.Of(log),
		metrics:      m,
		emit:         emit,
		triggerLimit: rate.NewLimiter(rate.Every(PeriodicInterval/2), 1),
	}
	dv.liveness = neighbor.New(c, dv.onDeath)
	return dv
}

// Cache exposes the neighbor cache for status reporting.
func (dv *DistanceVector) Cache() *neighbor.Cache { return dv.cache }

// Liveness exposes the liveness tracker for status reporting.
func (dv *DistanceVector) Liveness() *neighbor.Liveness { return dv.liveness }

// emitNow renders the current table snapshot and sends it with command,
// updating metrics accordingly. Callers must not hold dv.mu: this does
// network I/O (indirectly, via emit) and spec §5 only requires the
// table mutation to precede the send, not that the send itself be
// inside the critical section.
func (dv *DistanceVector) emitNow(command uint8, triggered bool) {
	all := dv.table.Snapshot()

	// A rover's own entry is never advertised, per spec §3: the RIB
	// always contains a self-route, but it exists only to let Get/Has
	// answer sanely for the local address, not as wire content.
	records := make([]rib.Record, 0, len(all))
	for _, r := range all {
		if r.Dest == dv.selfPrivate {
			continue
		}
		records = append(records, r)
	}

	dv.emit(command, records)
	if triggered {
		dv.metrics.TriggeredUpdates.Inc()
	} else {
		dv.metrics.PeriodicUpdates.Inc()
	}
}

// EmitPeriodic sends a full advertisement with command=update. Wired to
// the periodic scheduler (clock.Every(PeriodicInterval, dv.EmitPeriodic)),
// which per spec §4.4 fires once immediately at startup.
func (dv *DistanceVector) EmitPeriodic() {
	dv.emitNow(wire.CmdUpdate, false)
}
