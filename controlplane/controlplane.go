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

// Package controlplane owns the multicast socket: it periodically emits
// advertisements and continuously receives peer advertisements, handing
// each one to distancevector.DistanceVector.
package controlplane

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/routewisp/rover/addr"
	"github.com/routewisp/rover/rib"
	"github.com/routewisp/rover/roverlog"
	"github.com/routewisp/rover/roverr"
	"github.com/routewisp/rover/wire"
)

// receiveBufferSize is the control-plane receive buffer size, above the
// 1024-byte minimum of spec §4.5.
const receiveBufferSize = 1500

// Processor is the subset of distancevector.DistanceVector that
// ControlPlaneIO depends on, kept narrow so tests can supply a stub.
type Processor interface {
	Process(adv wire.Advertisement)
}

// IO owns the multicast socket used for routing advertisements.
type IO struct {
	pconn *ipv4.PacketConn
	group *net.UDPAddr
	iface *net.Interface

	selfID addr.RoverID
	dv     Processor
	log    roverlog.Log
}

// Open joins groupAddr:port on ifaceName (the default interface if
// empty) and returns a ready-to-use ControlPlaneIO. Using
// golang.org/x/net/ipv4 rather than net.ListenMulticastUDP lets us pin
// the outgoing interface explicitly instead of leaving it to routing
// table lookup.
func Open(groupAddr string, port int, ifaceName string, id addr.RoverID, dv Processor, log roverlog.Log) (*IO, error) {
	group := &net.UDPAddr{IP: net.ParseIP(groupAddr), Port: port}
	if group.IP == nil {
		return nil, roverr.New(roverr.FatalIO, "controlplane.Open", fmt.Errorf("invalid multicast group %q", groupAddr))
	}

	var iface *net.Interface
	if ifaceName != "" {
		i, err := net.InterfaceByName(ifaceName)
		if err != nil {
			return nil, roverr.New(roverr.FatalIO, "controlplane.Open", err)
		}
		iface = i
	}

	conn, err := net.ListenPacket("udp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, roverr.New(roverr.FatalIO, "controlplane.Open", err)
	}

	pconn := ipv4.NewPacketConn(conn)

	if err := pconn.JoinGroup(iface, &net.UDPAddr{IP: group.IP}); err != nil {
		conn.Close()
		return nil, roverr.New(roverr.FatalIO, "controlplane.Open", err)
	}

	if iface != nil {
		if err := pconn.SetMulticastInterface(iface); err != nil {
			conn.Close()
			return nil, roverr.New(roverr.FatalIO, "controlplane.Open", err)
		}
	}

	_ = pconn.SetMulticastLoopback(true)

	return &IO{
		pconn:  pconn,
		group:  group,
		iface:  iface,
		selfID: id,
		dv:     dv,
		log:    roverlog.Of(log),
	}, nil
}

func (io *IO) Close() error {
	return io.pconn.Close()
}

// Emit sends one advertisement, built from records, as a multicast
// datagram. Matches distancevector.EmitFunc.
func (io *IO) Emit(command uint8, records []rib.Record) {
	buf := wire.EncodeAdvertisement(command, io.selfID, records)
	if _, err := io.pconn.WriteTo(buf, nil, io.group); err != nil {
		io.log.Error("controlplane", "emit failed", roverlog.KV{"error": err.Error()})
	}
}

// ReceiveLoop blocks on datagram arrival until ctx is cancelled or a
// fatal socket error occurs. Per spec §4.5, errors on receive are
// fatal; malformed advertisement frames are discarded and logged, not
// fatal.
func (io *IO) ReceiveLoop(ctx context.Context) error {
	buf := make([]byte, receiveBufferSize)

	// Cancelling ctx expires the read deadline so a blocked ReadFrom
	// returns instead of waiting for the next datagram.
	stop := context.AfterFunc(ctx, func() { io.pconn.SetReadDeadline(time.Now()) })
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, _, peer, err := io.pconn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return roverr.New(roverr.FatalIO, "controlplane.ReceiveLoop", err)
		}

		udpPeer, ok := peer.(*net.UDPAddr)
		if !ok {
			continue
		}

		adv, err := wire.DecodeAdvertisement(buf[:n])
		if err != nil {
			io.log.Warn("controlplane", "discarding malformed advertisement", roverlog.KV{"from": udpPeer.String()})
			continue
		}

		from, err := addr.PublicFromUDP(udpPeer)
		if err != nil {
			io.log.Warn("controlplane", "discarding advertisement with unparseable source", roverlog.KV{"from": udpPeer.String()})
			continue
		}
		adv.From = from

		io.dv.Process(adv)
	}
}
