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

package neighbor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/routewisp/rover/addr"
	"github.com/routewisp/rover/clock"
)

func TestLivenessFiresOnceAfterDeadIntervalWithoutTouch(t *testing.T) {
	c := clock.NewVirtual()

	var mu sync.Mutex
	var dead []addr.Private

	l := New(c, func(p addr.Private, _ addr.Public) {
		mu.Lock()
		defer mu.Unlock()
		dead = append(dead, p)
	})

	n := addr.FromRoverID(2)
	l.Touch(n, addr.PublicFrom4([4]byte{192, 168, 1, 2}))
	assert.Equal(t, 1, l.Count())

	c.Advance(DeadInterval - 1)
	assert.Empty(t, dead)

	c.Advance(1)
	assert.Equal(t, []addr.Private{n}, dead)
}

func TestTouchBeforeDeadlinePostponesDeath(t *testing.T) {
	c := clock.NewVirtual()
	var deaths int

	l := New(c, func(addr.Private, addr.Public) { deaths++ })

	n := addr.FromRoverID(2)
	pub := addr.PublicFrom4([4]byte{192, 168, 1, 2})

	l.Touch(n, pub)
	c.Advance(DeadInterval - 1)
	l.Touch(n, pub) // heartbeat arrives just before expiry

	c.Advance(DeadInterval - 1)
	assert.Equal(t, 0, deaths, "a fresh heartbeat must reset the window")

	c.Advance(1)
	assert.Equal(t, 1, deaths)
}

func TestCancelDisarmsTimer(t *testing.T) {
	c := clock.NewVirtual()
	var deaths int

	l := New(c, func(addr.Private, addr.Public) { deaths++ })

	n := addr.FromRoverID(2)
	l.Touch(n, addr.PublicFrom4([4]byte{192, 168, 1, 2}))
	l.Cancel(n)
	assert.Equal(t, 0, l.Count())

	c.Advance(DeadInterval * 2)
	assert.Equal(t, 0, deaths)
}

func TestCountTracksMultipleNeighbors(t *testing.T) {
	c := clock.NewVirtual()
	l := New(c, func(addr.Private, addr.Public) {})

	l.Touch(addr.FromRoverID(2), addr.PublicFrom4([4]byte{192, 168, 1, 2}))
	l.Touch(addr.FromRoverID(3), addr.PublicFrom4([4]byte{192, 168, 1, 3}))
	assert.Equal(t, 2, l.Count())
}
