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

// Package neighbor tracks, per peer, the last advertisement heard and a
// one-shot dead-interval timer. It has no opinion on what happens when a
// neighbor dies; it only invokes a callback. The callback is a direct
// function call made on the timer's goroutine after Liveness has
// released its own lock, not a message sent to the distance vector
// component.
package neighbor

import (
	"sync"
	"time"

	"github.com/routewisp/rover/addr"
	"github.com/routewisp/rover/clock"
)

// DeadInterval is how long a neighbor may go without a heartbeat before
// it is declared dead.
const DeadInterval = 7 * time.Second

// DeathFunc is invoked, at most once per Touch, when a neighbor's timer
// expires without being refreshed.
type DeathFunc func(private addr.Private, public addr.Public)

// Liveness owns one one-shot timer per neighbor ever heard from.
type Liveness struct {
	clock   clock.Clock
	onDeath DeathFunc
	dead    time.Duration

	mu     sync.Mutex
	timers map[addr.Private]clock.Timer
}

// New builds a Liveness that calls onDeath on expiry, using c to
// schedule timers (swap in a clock.Virtual in tests to avoid sleeping 7
// real seconds per test case).
func New(c clock.Clock, onDeath DeathFunc) *Liveness {
	return &Liveness{
		clock:   c,
		onDeath: onDeath,
		dead:    DeadInterval,
		timers:  map[addr.Private]clock.Timer{},
	}
}

// Touch cancels any existing timer for neighbor and arms a fresh one.
// Called on every heartbeat (spec §4.4 "heartbeat" step) regardless of
// whether the neighbor was already known.
func (l *Liveness) Touch(neighbor addr.Private, public addr.Public) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.timers[neighbor]; ok {
		t.Stop()
	}

	l.timers[neighbor] = l.clock.AfterFunc(l.dead, func() {
		l.mu.Lock()
		delete(l.timers, neighbor)
		l.mu.Unlock()
		l.onDeath(neighbor, public)
	})
}

// Cancel disarms the timer for neighbor, if any.
func (l *Liveness) Cancel(neighbor addr.Private) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.timers[neighbor]; ok {
		t.Stop()
		delete(l.timers, neighbor)
	}
}

// Count returns the number of neighbors with a currently armed timer,
// used for the neighbors_alive gauge.
func (l *Liveness) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}
