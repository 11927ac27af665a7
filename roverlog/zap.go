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

package roverlog

import "go.uber.org/zap"

// Zap adapts a *zap.Logger to the Log interface. This is the production
// logging sink: every console line a running rover emits goes through
// here.
type Zap struct {
	base *zap.Logger
}

// NewZap builds a Zap logger from a base *zap.Logger (typically
// zap.NewProduction() or zap.NewDevelopment()).
func NewZap(base *zap.Logger) *Zap {
	return &Zap{base: base}
}

func fields(kv KV) []zap.Field {
	fs := make([]zap.Field, 0, len(kv))
	for k, v := range kv {
		fs = append(fs, zap.Any(k, v))
	}
	return fs
}

func (z *Zap) Info(component, msg string, kv KV) {
	z.base.With(zap.String("component", component)).Info(msg, fields(kv)...)
}

func (z *Zap) Warn(component, msg string, kv KV) {
	z.base.With(zap.String("component", component)).Warn(msg, fields(kv)...)
}

func (z *Zap) Error(component, msg string, kv KV) {
	z.base.With(zap.String("component", component)).Error(msg, fields(kv)...)
}
