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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVirtualAfterFuncFiresOnceAtDeadline(t *testing.T) {
	v := NewVirtual()
	var fired int
	v.AfterFunc(5*time.Second, func() { fired++ })

	v.Advance(4 * time.Second)
	assert.Equal(t, 0, fired)

	v.Advance(1 * time.Second)
	assert.Equal(t, 1, fired)

	v.Advance(10 * time.Second)
	assert.Equal(t, 1, fired, "a one-shot timer never fires twice")
}

func TestVirtualTimerResetPostponesFire(t *testing.T) {
	v := NewVirtual()
	var fired int
	timer := v.AfterFunc(5*time.Second, func() { fired++ })

	v.Advance(3 * time.Second)
	timer.Reset(5 * time.Second)
	v.Advance(4 * time.Second)
	assert.Equal(t, 0, fired, "reset should have pushed the deadline further out")

	v.Advance(1 * time.Second)
	assert.Equal(t, 1, fired)
}

func TestVirtualTimerStopPreventsFire(t *testing.T) {
	v := NewVirtual()
	var fired int
	timer := v.AfterFunc(5*time.Second, func() { fired++ })
	timer.Stop()

	v.Advance(10 * time.Second)
	assert.Equal(t, 0, fired)
}

func TestVirtualEveryFiresImmediatelyThenOnCadence(t *testing.T) {
	v := NewVirtual()
	var fired int
	stop := v.Every(5*time.Second, func() { fired++ })

	assert.Equal(t, 1, fired, "first emission occurs at startup with no initial delay")

	v.Advance(5 * time.Second)
	assert.Equal(t, 2, fired)

	v.Advance(5 * time.Second)
	assert.Equal(t, 3, fired)

	stop()
	v.Advance(20 * time.Second)
	assert.Equal(t, 3, fired, "stop must end the periodic cadence")
}

func TestVirtualAdvanceOrdersMultipleTimersByDeadline(t *testing.T) {
	v := NewVirtual()
	var order []string
	v.AfterFunc(3*time.Second, func() { order = append(order, "b") })
	v.AfterFunc(1*time.Second, func() { order = append(order, "a") })
	v.AfterFunc(2*time.Second, func() { order = append(order, "c") })

	v.Advance(3 * time.Second)
	assert.Equal(t, []string{"a", "c", "b"}, order)
}
