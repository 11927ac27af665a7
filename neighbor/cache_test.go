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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/routewisp/rover/addr"
	"github.com/routewisp/rover/rib"
)

func TestCachePutGet(t *testing.T) {
	c := NewCache()
	n := addr.FromRoverID(2)

	_, ok := c.Get(n)
	assert.False(t, ok)

	entry := Entry{Records: []rib.Record{{Dest: addr.FromRoverID(5), Metric: 2}}, Public: addr.PublicFrom4([4]byte{192, 168, 1, 2})}
	c.Put(n, entry)

	got, ok := c.Get(n)
	assert.True(t, ok)
	assert.Equal(t, entry, got)
}

func TestCachePutOverwrites(t *testing.T) {
	c := NewCache()
	n := addr.FromRoverID(2)

	c.Put(n, Entry{Public: addr.PublicFrom4([4]byte{192, 168, 1, 2})})
	c.Put(n, Entry{Public: addr.PublicFrom4([4]byte{192, 168, 1, 9})})

	got, _ := c.Get(n)
	assert.Equal(t, addr.PublicFrom4([4]byte{192, 168, 1, 9}), got.Public)
}
