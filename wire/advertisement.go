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

// Package wire holds the two on-the-wire frame codecs: the RIPv2-inspired
// routing advertisement and the data-plane frame. Both are pure
// encode/decode functions with no side effects, deliberately kept free
// of any dependency on sockets, timers, or the routing table itself.
package wire

import (
	"github.com/routewisp/rover/addr"
	"github.com/routewisp/rover/rib"
	"github.com/routewisp/rover/roverr"
)

const (
	CmdRequest = 1
	CmdUpdate  = 2

	version       = 2
	addressFamily = 2

	headerLen = 8
	recordLen = 16
)

// Advertisement is a decoded routing-advertisement frame, annotated with
// the bits the codec itself cannot know (who sent it, and from where).
type Advertisement struct {
	Command  uint8
	RoverID  addr.RoverID
	Records  []rib.Record
	From     addr.Public // filled in by the caller from the UDP source address
}

// EncodeAdvertisement renders command/id/records into the 8-byte header
// plus N 16-byte records described in spec §4.1. The mask and metric
// occupy only the low byte of their field; metric is clamped to
// 0..=16 on encode per the open question in spec §9 (wire format is a
// single byte, core treats metric as unsigned).
func EncodeAdvertisement(command uint8, id addr.RoverID, records []rib.Record) []byte {
	buf := make([]byte, headerLen+recordLen*len(records))

	buf[0] = command
	buf[1] = version
	buf[2] = byte(id)
	buf[3] = 0
	buf[4] = 0
	buf[5] = addressFamily
	buf[6] = 0
	buf[7] = 0

	for i, r := range records {
		off := headerLen + i*recordLen
		ip := r.Dest.As4()
		copy(buf[off:off+4], ip[:])
		// buf[off+4 : off+7] pad, already zero
		metric := r.Metric
		if metric > rib.Infinity {
			metric = rib.Infinity
		}
		buf[off+7] = r.Mask
		hop := r.NextHop.As4()
		copy(buf[off+8:off+12], hop[:])
		// buf[off+12 : off+15] pad, already zero
		buf[off+15] = metric
	}

	return buf
}

// DecodeAdvertisement parses an advertisement frame. The record count is
// derived from the buffer length; a length that is not header-plus-exact-
// multiple-of-16 is MalformedFrame, as is a buffer shorter than the
// header itself.
func DecodeAdvertisement(buf []byte) (Advertisement, error) {
	if len(buf) < headerLen {
		return Advertisement{}, roverr.New(roverr.MalformedFrame, "wire.DecodeAdvertisement", nil)
	}

	rem := len(buf) - headerLen
	if rem%recordLen != 0 {
		return Advertisement{}, roverr.New(roverr.MalformedFrame, "wire.DecodeAdvertisement", nil)
	}
	n := rem / recordLen

	a := Advertisement{
		Command: buf[0],
		RoverID: addr.RoverID(buf[2]),
		Records: make([]rib.Record, 0, n),
	}

	for i := 0; i < n; i++ {
		off := headerLen + i*recordLen
		var ip, hop [4]byte
		copy(ip[:], buf[off:off+4])
		mask := buf[off+7]
		copy(hop[:], buf[off+8:off+12])
		metric := buf[off+15]

		a.Records = append(a.Records, rib.Record{
			Dest:    addr.PrivateFrom4(ip),
			Mask:    mask,
			NextHop: addr.PublicFrom4(hop),
			Metric:  metric,
		})
	}

	return a, nil
}
