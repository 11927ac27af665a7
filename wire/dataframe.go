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

package wire

import (
	"encoding/binary"

	"github.com/routewisp/rover/addr"
	"github.com/routewisp/rover/roverr"
)

// Flag bits for DataFrame.Flags. Exactly one is set on any well-formed
// frame (spec §3 DataFrame invariant).
const (
	FlagSYN    = 1 << 0
	FlagNORMAL = 1 << 1
	FlagACK    = 1 << 2
)

const dataHeaderLen = 4 + 4 + 4 + 4 + 1 + 4 // dest, src, seq, ack, flags, totalsize

// DataFrame is a decoded data-plane frame.
type DataFrame struct {
	Dest      addr.Private
	Source    addr.Private
	Seq       uint32
	Ack       uint32
	Flags     uint8
	TotalSize uint32 // meaningful only when FlagSYN is set
	Payload   []byte
}

func (f DataFrame) IsSYN() bool  { return f.Flags&FlagSYN != 0 }
func (f DataFrame) IsACK() bool  { return f.Flags&FlagACK != 0 }
func (f DataFrame) IsNorm() bool { return f.Flags&FlagNORMAL != 0 }

// EncodeDataFrame renders f per spec §4.1: destination (4), source (4),
// seqno (4, big-endian), ackno (4, big-endian), flags (1), total-size
// (4, big-endian), then payload bytes to the end of the datagram.
func EncodeDataFrame(f DataFrame) []byte {
	buf := make([]byte, dataHeaderLen+len(f.Payload))

	d := f.Dest.As4()
	s := f.Source.As4()
	copy(buf[0:4], d[:])
	copy(buf[4:8], s[:])
	binary.BigEndian.PutUint32(buf[8:12], f.Seq)
	binary.BigEndian.PutUint32(buf[12:16], f.Ack)
	buf[16] = f.Flags
	binary.BigEndian.PutUint32(buf[17:21], f.TotalSize)
	copy(buf[dataHeaderLen:], f.Payload)

	return buf
}

// DecodeDataFrame parses a data frame. A buffer shorter than the fixed
// 21-byte header is MalformedFrame.
func DecodeDataFrame(buf []byte) (DataFrame, error) {
	if len(buf) < dataHeaderLen {
		return DataFrame{}, roverr.New(roverr.MalformedFrame, "wire.DecodeDataFrame", nil)
	}

	var d, s [4]byte
	copy(d[:], buf[0:4])
	copy(s[:], buf[4:8])

	f := DataFrame{
		Dest:      addr.PrivateFrom4(d),
		Source:    addr.PrivateFrom4(s),
		Seq:       binary.BigEndian.Uint32(buf[8:12]),
		Ack:       binary.BigEndian.Uint32(buf[12:16]),
		Flags:     buf[16],
		TotalSize: binary.BigEndian.Uint32(buf[17:21]),
	}

	if len(buf) > dataHeaderLen {
		f.Payload = append([]byte(nil), buf[dataHeaderLen:]...)
	}

	return f, nil
}
