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

package clock

import (
	"sort"
	"sync"
	"time"
)

// Virtual is a manually-advanced Clock for deterministic tests of
// NeighborLiveness dead-interval expiry and the periodic advertisement
// cadence, without sleeping real seconds.
type Virtual struct {
	mu      sync.Mutex
	now     time.Time
	nextID  uint64
	pending map[uint64]*virtualEntry
}

type virtualEntry struct {
	at       time.Time
	fn       func()
	period   time.Duration // zero for one-shot
	cancelled bool
}

// NewVirtual creates a virtual clock starting at an arbitrary epoch.
func NewVirtual() *Virtual {
	return &Virtual{now: time.Unix(0, 0), pending: map[uint64]*virtualEntry{}}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

type virtualTimer struct {
	v  *Virtual
	id uint64
}

// Reset reschedules a timer that is still pending. It has no effect on
// a one-shot timer that has already fired, or on a stopped timer once
// Advance has dropped it.
func (t virtualTimer) Reset(d time.Duration) {
	t.v.mu.Lock()
	defer t.v.mu.Unlock()
	if e, ok := t.v.pending[t.id]; ok {
		e.cancelled = false
		e.at = t.v.now.Add(d)
	}
}

func (t virtualTimer) Stop() {
	t.v.mu.Lock()
	defer t.v.mu.Unlock()
	if e, ok := t.v.pending[t.id]; ok {
		e.cancelled = true
	}
}

func (v *Virtual) AfterFunc(d time.Duration, fn func()) Timer {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextID
	v.nextID++
	v.pending[id] = &virtualEntry{at: v.now.Add(d), fn: fn}
	return virtualTimer{v: v, id: id}
}

func (v *Virtual) Every(d time.Duration, fn func()) (stop func()) {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.pending[id] = &virtualEntry{at: v.now.Add(d), fn: fn, period: d}
	v.mu.Unlock()

	fn() // fire immediately, matching Real

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if e, ok := v.pending[id]; ok {
			e.cancelled = true
		}
	}
}

// Advance moves the virtual clock forward by d, running (in timestamp
// order) every timer and periodic tick that falls due, including ticks
// that become due as a side effect of an earlier callback in the same
// Advance call.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	v.mu.Unlock()

	for {
		v.mu.Lock()
		var dueID uint64
		var due *virtualEntry
		found := false

		ids := make([]uint64, 0, len(v.pending))
		for id := range v.pending {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		for _, id := range ids {
			e := v.pending[id]
			if e.cancelled {
				delete(v.pending, id)
				continue
			}
			if e.at.After(target) {
				continue
			}
			if !found || e.at.Before(due.at) {
				dueID, due, found = id, e, true
			}
		}

		if !found {
			v.now = target
			v.mu.Unlock()
			return
		}

		v.now = due.at
		if due.period > 0 {
			due.at = due.at.Add(due.period)
		} else {
			delete(v.pending, dueID)
		}
		v.mu.Unlock()

		due.fn()
	}
}
