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

package supervisor

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routewisp/rover/addr"
	"github.com/routewisp/rover/clock"
	"github.com/routewisp/rover/metrics"
	"github.com/routewisp/rover/rib"
	"github.com/routewisp/rover/distancevector"
	"github.com/routewisp/rover/roverlog"
)

// buildTestSupervisor wires the table/metrics/distance-vector parts of a
// Supervisor without opening any socket, so Status() can be exercised in
// isolation from the network.
func buildTestSupervisor(t *testing.T) *Supervisor {
	t.Helper()

	self := addr.FromRoverID(1)
	selfPub := addr.PublicFrom4([4]byte{10, 0, 0, 1})
	table := rib.New(self, selfPub)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, self.String())
	c := clock.NewVirtual()

	dv := distancevector.New(1, self, selfPub, table, c, roverlog.Nil{}, m, func(uint8, []rib.Record) {})

	return &Supervisor{
		cfg:      Config{SelfPrivate: self, SelfPublic: selfPub},
		log:      roverlog.Nil{},
		table:    table,
		metrics:  m,
		registry: reg,
		dv:       dv,
	}
}

func TestStatusReportsSelfAndRoutes(t *testing.T) {
	s := buildTestSupervisor(t)

	neighbor := addr.FromRoverID(2)
	s.table.Put(neighbor, rib.Record{Mask: rib.MaskLen, NextHop: addr.PublicFrom4([4]byte{10, 0, 0, 2}), Metric: 1})

	status := s.Status()
	require.Equal(t, addr.FromRoverID(1).String(), status.Self)

	var found bool
	for _, r := range status.Routes {
		if r.Dest == neighbor.String() {
			found = true
			assert.Equal(t, uint8(1), r.Metric)
		}
	}
	assert.True(t, found)
}

func TestStatusReflectsNeighborLiveness(t *testing.T) {
	s := buildTestSupervisor(t)
	assert.Equal(t, 0, s.Status().NeighborsAlive)

	s.dv.Liveness().Touch(addr.FromRoverID(2), addr.PublicFrom4([4]byte{10, 0, 0, 2}))
	assert.Equal(t, 1, s.Status().NeighborsAlive)
}
