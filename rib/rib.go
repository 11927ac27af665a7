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

// Package rib is the routing information base: a concurrent mapping from
// a rover's private address to the best known route to it. It is mutated
// only by the distancevector package and read by everyone else.
package rib

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/routewisp/rover/addr"
)

// Infinity is the sentinel metric meaning "unreachable".
const Infinity = 16

// MaskLen is the subnet prefix length carried on every route in this
// system; it is fixed, never negotiated.
const MaskLen = 24

// Record is one entry of the routing table: how to reach Dest, and how
// far away it is.
type Record struct {
	Dest    addr.Private
	Mask    uint8
	NextHop addr.Public
	Metric  uint8 // 1..16, 16 == Infinity
}

// Table is a concurrent destination -> Record map. Every operation is
// safe for concurrent use by the control-plane listener, the data-plane
// forwarder/sender, and neighbor death timers.
type Table struct {
	mu   sync.RWMutex
	self addr.Private
	rows map[addr.Private]Record
}

// New creates an empty table seeded with the rover's own self-route
// (metric 1, next hop its own public address). The self entry is never
// advertised (distancevector's emitNow leaves it out of every
// advertisement); it exists so Get/Has behave sanely for the local
// address.
func New(self addr.Private, self4 addr.Public) *Table {
	t := &Table{self: self, rows: map[addr.Private]Record{}}
	t.rows[self] = Record{Dest: self, Mask: MaskLen, NextHop: self4, Metric: 1}
	return t
}

// Get returns the current record for dest, if any.
func (t *Table) Get(dest addr.Private) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rows[dest]
	return r, ok
}

// Has reports whether dest has ever been seen.
func (t *Table) Has(dest addr.Private) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.rows[dest]
	return ok
}

// Put installs or overwrites the record for dest. The record's Dest
// field is forced to match the key, satisfying the invariant that a
// record's destination always matches its key.
func (t *Table) Put(dest addr.Private, r Record) {
	r.Dest = dest
	if r.Metric > Infinity {
		r.Metric = Infinity
	}
	if r.Metric == 0 {
		r.Metric = Infinity
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[dest] = r
}

// SetMetric rewrites only the metric field of an existing record. It is
// a no-op if dest is unknown.
func (t *Table) SetMetric(dest addr.Private, metric uint8) {
	if metric > Infinity {
		metric = Infinity
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rows[dest]
	if !ok {
		return
	}
	r.Metric = metric
	t.rows[dest] = r
}

// NextHop resolves the next hop public address for dest. The bool is
// false if there is no route at all, mirroring NoRouteToDestination.
func (t *Table) NextHop(dest addr.Private) (addr.Public, bool) {
	r, ok := t.Get(dest)
	if !ok {
		return addr.Public{}, false
	}
	return r.NextHop, true
}

// Metric returns the current metric for dest, or Infinity if unknown.
func (t *Table) Metric(dest addr.Private) uint8 {
	r, ok := t.Get(dest)
	if !ok {
		return Infinity
	}
	return r.Metric
}

// Snapshot returns every record currently in the table, safe to call
// while other goroutines mutate it. The slice returned is a point in
// time copy; a concurrent Put racing with Snapshot may or may not be
// reflected in the result, per the consistency contract in spec §4.2.
func (t *Table) Snapshot() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Record, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, r)
	}
	return out
}

// PoisonVia sets every record whose next hop equals via to Infinity,
// leaving next hop and mask untouched. Used for neighbor-death
// poisoning. Returns true if the table actually changed.
func (t *Table) PoisonVia(via addr.Public) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	var changed bool
	for dest, r := range t.rows {
		if r.NextHop == via && r.Metric != Infinity {
			r.Metric = Infinity
			t.rows[dest] = r
			changed = true
		}
	}
	return changed
}

// Signature returns a stable textual rendering of the table, sorted by
// destination, suitable for detecting whether a round of updates
// actually changed anything (see distancevector's triggered-update
// rule). Two tables with the same rows in any order produce the same
// signature.
func (t *Table) Signature() string {
	rows := t.Snapshot()
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Dest.String() < rows[j].Dest.String()
	})

	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%s/%d>%s=%d;", r.Dest, r.Mask, r.NextHop, r.Metric)
	}
	return b.String()
}
