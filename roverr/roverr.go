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

// Package roverr names the error kinds the core distinguishes between,
// following the teacher's habit (bgp.notification, bgp.local) of small
// typed values at the edges rather than ad hoc strings everywhere.
package roverr

import "errors"

// Kind classifies an error the way §7 of the spec does, so callers can
// branch on what happened instead of parsing strings.
type Kind int

const (
	Unknown Kind = iota
	MalformedFrame
	NoRouteToDestination
	PeerDead
	AckTimeout
	FatalIO
)

func (k Kind) String() string {
	switch k {
	case MalformedFrame:
		return "malformed-frame"
	case NoRouteToDestination:
		return "no-route-to-destination"
	case PeerDead:
		return "peer-dead"
	case AckTimeout:
		return "ack-timeout"
	case FatalIO:
		return "fatal-io"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with the Kind that lets callers decide
// whether to drop-and-log, retry, or exit.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return e.Op + ": " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err (or anything it wraps) is a roverr.Error of kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
