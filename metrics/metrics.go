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

// Package metrics exposes the rover's internal counters as Prometheus
// collectors, purely for observability: nothing in the routing or
// forwarding core reads these values back.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every collector a rover registers. Construct one per
// process with New and wire it into distancevector and dataplane at
// startup.
type Metrics struct {
	RoutesKnown        prometheus.Gauge
	NeighborsAlive     prometheus.Gauge
	TriggeredUpdates   prometheus.Counter
	PeriodicUpdates    prometheus.Counter
	RequestsServed     prometheus.Counter
	AdvertisementsRecv prometheus.Counter
	AdvertisementsDrop prometheus.Counter
	FramesForwarded    prometheus.Counter
	FramesDropped      prometheus.Counter
	Retransmissions    prometheus.Counter
	AcksSent           prometheus.Counter
	NeighborDeaths     prometheus.Counter
}

// New constructs and registers every collector against reg.
func New(reg prometheus.Registerer, roverID string) *Metrics {
	labels := prometheus.Labels{"rover_id": roverID}

	f := func(name, help string) prometheus.Gauge {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "rover",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
		reg.MustRegister(g)
		return g
	}

	c := func(name, help string) prometheus.Counter {
		ctr := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "rover",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
		reg.MustRegister(ctr)
		return ctr
	}

	return &Metrics{
		RoutesKnown:        f("routes_known", "Number of destinations present in the routing table."),
		NeighborsAlive:     f("neighbors_alive", "Number of neighbors with a live heartbeat timer."),
		TriggeredUpdates:   c("triggered_updates_total", "Advertisements emitted outside the periodic cadence."),
		PeriodicUpdates:    c("periodic_updates_total", "Advertisements emitted by the periodic scheduler."),
		RequestsServed:     c("requests_served_total", "Inbound request-command advertisements answered."),
		AdvertisementsRecv: c("advertisements_received_total", "Advertisement frames received on the control plane."),
		AdvertisementsDrop: c("advertisements_dropped_total", "Advertisement frames discarded as self-originated echoes (malformed frames are logged, not counted)."),
		FramesForwarded:    c("data_frames_forwarded_total", "Data-plane frames relayed toward a next hop."),
		FramesDropped:      c("data_frames_dropped_total", "Data-plane frames dropped (no route, duplicate, out of order)."),
		Retransmissions:    c("retransmissions_total", "Sender-side chunk retransmissions due to ACK timeout."),
		AcksSent:           c("acks_sent_total", "ACK frames emitted by the receiver."),
		NeighborDeaths:     c("neighbor_deaths_total", "Neighbor dead-interval expirations observed."),
	}
}
