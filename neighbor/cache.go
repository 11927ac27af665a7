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

	"github.com/routewisp/rover/addr"
	"github.com/routewisp/rover/rib"
)

// Entry is the last advertisement heard from a neighbor, plus the
// public address it arrived from.
type Entry struct {
	Records []rib.Record
	Public  addr.Public
}

// Cache remembers the last advertisement from every neighbor ever heard
// from. Per spec §9, it is populated on every advertisement but not
// consulted by the neighbor-death path in this system; it exists for a
// future full-recomputation strategy that is deliberately not
// implemented here (see DESIGN.md).
type Cache struct {
	mu   sync.RWMutex
	rows map[addr.Private]Entry
}

func NewCache() *Cache {
	return &Cache{rows: map[addr.Private]Entry{}}
}

// Put records the latest advertisement contents from neighbor.
func (c *Cache) Put(neighbor addr.Private, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[neighbor] = e
}

// Get returns the last cached advertisement from neighbor, if any.
func (c *Cache) Get(neighbor addr.Private) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.rows[neighbor]
	return e, ok
}
