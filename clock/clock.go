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

// Package clock abstracts monotonic time and scheduling so that
// NeighborLiveness's dead-interval timers and the periodic advertisement
// scheduler can be driven by a virtual clock in tests instead of real
// wall time, the way the teacher substitutes a fake BGPNotify in its own
// session tests.
package clock

import "time"

// Timer is a handle to a scheduled one-shot task.
type Timer interface {
	// Reset cancels any pending fire and reschedules after d.
	Reset(d time.Duration)
	// Stop disarms the timer. A concurrent in-flight fire may still run.
	Stop()
}

// Clock schedules periodic and one-shot work against a notion of time
// that production code and tests can disagree about.
type Clock interface {
	Now() time.Time

	// AfterFunc arms a one-shot timer that calls fn after d elapses,
	// unless reset or stopped first. Used by NeighborLiveness.
	AfterFunc(d time.Duration, fn func()) Timer

	// Every starts a periodic task, first firing immediately (matching
	// spec §4.4's "first emission occurs at startup with no initial
	// delay"), then every d thereafter, until stop() is called.
	Every(d time.Duration, fn func()) (stop func())
}

// Real is the production Clock, backed by the standard library.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

type realTimer struct{ t *time.Timer }

func (r realTimer) Reset(d time.Duration) { r.t.Reset(d) }
func (r realTimer) Stop()                 { r.t.Stop() }

func (Real) AfterFunc(d time.Duration, fn func()) Timer {
	return realTimer{t: time.AfterFunc(d, fn)}
}

func (Real) Every(d time.Duration, fn func()) (stop func()) {
	done := make(chan struct{})
	go func() {
		fn() // fire immediately, per spec §4.4
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return func() { close(done) }
}
