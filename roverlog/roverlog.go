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

// Package roverlog is the logging sink contract every component takes
// at construction, following the shape of the teacher's cue/log.Log
// interface: a small structured interface with a no-op implementation
// for tests, plus (unlike the teacher) a real production backend.
package roverlog

// KV is a bag of structured fields attached to a log line, matching the
// teacher's own KV = map[string]any convention in bgp/pool.go.
type KV = map[string]any

// Log is the structured logging contract. component identifies the
// emitting subsystem (e.g. "distancevector", "dataplane").
type Log interface {
	Info(component, msg string, fields KV)
	Warn(component, msg string, fields KV)
	Error(component, msg string, fields KV)
}

// Nil discards everything; used by tests and as the default when no
// logger is supplied, mirroring cue/log.Nil.
type Nil struct{}

func (Nil) Info(string, string, KV)  {}
func (Nil) Warn(string, string, KV)  {}
func (Nil) Error(string, string, KV) {}

// Of returns l if non-nil, otherwise a Nil logger. Components that take
// a logger at construction call this once rather than nil-checking on
// every log call, the same pattern as bgp.Session.log() / bgp.Pool.log().
func Of(l Log) Log {
	if l != nil {
		return l
	}
	return Nil{}
}
