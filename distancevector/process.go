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

package distancevector

import (
	"github.com/routewisp/rover/addr"
	"github.com/routewisp/rover/neighbor"
	"github.com/routewisp/rover/rib"
	"github.com/routewisp/rover/roverlog"
	"github.com/routewisp/rover/wire"
)

// Process applies one decoded advertisement to the routing table per
// spec §4.4: self-reject, neighbor install, per-record update,
// heartbeat, then a triggered update if warranted.
func (dv *DistanceVector) Process(adv wire.Advertisement) {
	if adv.RoverID == dv.selfID {
		// Our own multicast echo.
		dv.metrics.AdvertisementsDrop.Inc()
		return
	}

	dv.metrics.AdvertisementsRecv.Inc()

	neighborPrivate := addr.FromRoverID(adv.RoverID)
	neighborPublic := adv.From

	dv.cache.Put(neighborPrivate, neighbor.Entry{Records: adv.Records, Public: neighborPublic})

	dv.mu.Lock()

	before := dv.table.Signature()

	// Neighbor install: unconditional, overwrites any prior record.
	dv.table.Put(neighborPrivate, rib.Record{Mask: rib.MaskLen, NextHop: neighborPublic, Metric: 1})

	for _, rec := range adv.Records {
		if rec.Dest == dv.selfPrivate {
			continue // split horizon: never believe a peer about reaching us
		}
		dv.applyRecord(rec, neighborPublic)
	}

	after := dv.table.Signature()
	changed := before != after

	dv.mu.Unlock()

	// Heartbeat: reset the neighbor's dead-interval timer. This has its
	// own lock, independent of dv.mu, and is safe to do outside the
	// table critical section.
	dv.liveness.Touch(neighborPrivate, neighborPublic)
	dv.metrics.NeighborsAlive.Set(float64(dv.liveness.Count()))
	dv.metrics.RoutesKnown.Set(float64(len(dv.table.Snapshot())))

	dv.triggerFollowing(changed, adv.Command)
}

// applyRecord implements the per-record update rule of spec §4.4. It
// must be called with dv.mu held.
func (dv *DistanceVector) applyRecord(rec rib.Record, sourcePublic addr.Public) {
	v := rec.Metric
	if v > rib.Infinity {
		v = rib.Infinity
	}
	if rec.NextHop == dv.selfPublic {
		// Split-horizon by poisoning: never believe a peer that claims
		// to reach a destination through us.
		v = rib.Infinity
	}

	newMetric := uint16(v) + 1
	if newMetric > rib.Infinity {
		newMetric = rib.Infinity
	}

	existing, ok := dv.table.Get(rec.Dest)
	switch {
	case !ok:
		dv.table.Put(rec.Dest, rib.Record{Mask: rec.Mask, NextHop: sourcePublic, Metric: uint8(newMetric)})
	case existing.NextHop == sourcePublic || existing.Metric > uint8(newMetric):
		dv.table.Put(rec.Dest, rib.Record{Mask: rec.Mask, NextHop: sourcePublic, Metric: uint8(newMetric)})
	default:
		// Neither condition holds: leave the existing, better route in
		// place.
	}
}

// triggerFollowing implements spec §4.4's triggered-update rule: emit
// immediately if the table changed and triggerLimit has a token, or if
// the peer explicitly asked (command == request), in addition to
// whatever the periodic timer does. A change that triggerLimit
// suppresses is not emitted here; it goes out with the next periodic
// advertisement.
func (dv *DistanceVector) triggerFollowing(changed bool, command uint8) {
	switch {
	case changed && dv.triggerLimit.Allow():
		dv.emitNow(wire.CmdUpdate, true)
	case command == wire.CmdRequest:
		dv.metrics.RequestsServed.Inc()
		dv.emitNow(wire.CmdUpdate, true)
	}
}

// onDeath is NeighborLiveness's death callback: it marks the dead
// neighbor and everything routed through it unreachable, then emits a
// triggered update (spec §4.4 "Neighbor death"). It is dispatched by
// the timer goroutine, not reentered into by DistanceVector directly
// (spec §9 design note), but still serializes on dv.mu like every other
// mutation path.
//
// Unlike the changed branch of triggerFollowing, this emission is never
// subject to triggerLimit: a dead-interval expiry is a single, bounded
// event (at most one per neighbor per DeadInterval) and spec §4.4 calls
// for it to be reported unconditionally, the same way an explicit
// CmdRequest reply is.
func (dv *DistanceVector) onDeath(deadPrivate addr.Private, deadPublic addr.Public) {
	dv.mu.Lock()

	dv.table.Put(deadPrivate, rib.Record{Mask: rib.MaskLen, NextHop: deadPublic, Metric: rib.Infinity})
	dv.table.PoisonVia(deadPublic)

	dv.mu.Unlock()

	dv.metrics.NeighborDeaths.Inc()
	dv.metrics.NeighborsAlive.Set(float64(dv.liveness.Count()))
	dv.metrics.RoutesKnown.Set(float64(len(dv.table.Snapshot())))
	dv.log.Warn("distancevector", "neighbor declared dead", roverlog.KV{
		"neighbor": deadPrivate.String(),
		"public":   deadPublic.String(),
	})

	dv.emitNow(wire.CmdUpdate, true)
}
