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

// Package addr holds the two address spaces a rover moves between: the
// synthetic private address that names a rover in the routing domain, and
// the public address it is actually reachable on.
package addr

import (
	"fmt"
	"net"
	"net/netip"
)

// Private is the synthetic 10.<id>.0.1 identity of a rover. It is the
// key used throughout the routing table and is independent of whatever
// interface address the rover happens to be reachable on.
type Private netip.Addr

// Public is a rover's real interface address, used as a UDP next hop.
type Public netip.Addr

// RoverID is the 8-bit identity carried in advertisement headers.
type RoverID uint8

// FromRoverID constructs the private address 10.<id>.0.1 for id.
func FromRoverID(id RoverID) Private {
	return Private(netip.AddrFrom4([4]byte{10, byte(id), 0, 1}))
}

// ID recovers the rover identity encoded in a private address. It is only
// meaningful for addresses produced by FromRoverID.
func (p Private) ID() RoverID {
	a := netip.Addr(p).As4()
	return RoverID(a[1])
}

func (p Private) String() string { return netip.Addr(p).String() }
func (p Public) String() string  { return netip.Addr(p).String() }

// IsValid reports whether the address was ever assigned a value.
func (p Private) IsValid() bool { return netip.Addr(p).IsValid() }
func (p Public) IsValid() bool  { return netip.Addr(p).IsValid() }

// As4 returns the 4-byte representation used on the wire.
func (p Private) As4() [4]byte { return netip.Addr(p).As4() }
func (p Public) As4() [4]byte  { return netip.Addr(p).As4() }

// PrivateFrom4 interprets a wire-format 4-byte field as a private address.
func PrivateFrom4(b [4]byte) Private { return Private(netip.AddrFrom4(b)) }

// PublicFrom4 interprets a wire-format 4-byte field as a public address.
func PublicFrom4(b [4]byte) Public { return Public(netip.AddrFrom4(b)) }

// PublicFromUDP extracts the public address portion of a UDP peer address,
// discarding the ephemeral port the datagram happened to arrive from.
func PublicFromUDP(a *net.UDPAddr) (Public, error) {
	addr, ok := netip.AddrFromSlice(a.IP.To4())
	if !ok {
		return Public{}, fmt.Errorf("addr: %s is not an IPv4 address", a.IP)
	}
	return Public(addr), nil
}

// DiscoverPublic asks the OS which local address it would use to reach
// dialTarget, without sending any traffic. This is the standard Go idiom
// for "what is my outbound address": connect a UDP socket (no packets are
// actually transmitted for UDP connect) and read back the chosen local
// address. Failure here is always FatalIO to the caller: a rover with no
// usable route off the host cannot participate in the protocol.
func DiscoverPublic(dialTarget string) (Public, error) {
	conn, err := net.Dial("udp4", dialTarget)
	if err != nil {
		return Public{}, fmt.Errorf("addr: discovering public address via %s: %w", dialTarget, err)
	}
	defer conn.Close()

	local, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return Public{}, fmt.Errorf("addr: unexpected local address type %T", conn.LocalAddr())
	}

	addr, ok := netip.AddrFromSlice(local.IP.To4())
	if !ok {
		return Public{}, fmt.Errorf("addr: local address %s is not IPv4", local.IP)
	}

	return Public(addr), nil
}
