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

// Package supervisor wires the control plane, data plane and distance
// vector components together and owns their goroutine lifecycle, the
// way cmd/bgp.go wires a bgp.Session but with an errgroup instead of a
// hand-timed sequence of sleeps.
package supervisor

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/routewisp/rover/addr"
	"github.com/routewisp/rover/clock"
	"github.com/routewisp/rover/controlplane"
	"github.com/routewisp/rover/dataplane"
	"github.com/routewisp/rover/distancevector"
	"github.com/routewisp/rover/metrics"
	"github.com/routewisp/rover/rib"
	"github.com/routewisp/rover/roverlog"
	"github.com/routewisp/rover/roverr"
)

// StatusAddr is the internal HTTP server exposing /metrics and /status,
// never required for the routing/forwarding core to function.
const StatusAddr = ":9494"

// OutputFile is the fixed receiver sink filename, per spec §6's
// persisted state.
const OutputFile = "OUTPUT_FILE"

// Config is everything needed to stand up one rover process.
type Config struct {
	ID          addr.RoverID
	Group       string
	Port        int
	Interface   string
	SelfPrivate addr.Private
	SelfPublic  addr.Public

	// SourcePath, when non-empty, makes this rover also originate a
	// transfer to Destination at startup.
	SourcePath  string
	Destination addr.Private

	Log   roverlog.Log
	Clock clock.Clock
}

// Supervisor owns every long-lived goroutine and socket of one rover
// process.
type Supervisor struct {
	cfg Config
	log roverlog.Log

	table    *rib.Table
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	dv       *distancevector.DistanceVector
	cp       *controlplane.IO
	dp       *dataplane.IO

	httpSrv *http.Server
}

// New constructs every component, opens the control-plane and
// data-plane sockets, and wires them together, but starts no
// goroutines; call Run for that.
func New(cfg Config) (*Supervisor, error) {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	log := roverlog.Of(cfg.Log)

	table := rib.New(cfg.SelfPrivate, cfg.SelfPublic)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg, cfg.SelfPrivate.String())

	s := &Supervisor{cfg: cfg, log: log, table: table, metrics: m, registry: reg}

	s.dv = distancevector.New(cfg.ID, cfg.SelfPrivate, cfg.SelfPublic, table, cfg.Clock, log, m, s.emit)

	cp, err := controlplane.Open(cfg.Group, cfg.Port, cfg.Interface, cfg.ID, s.dv, log)
	if err != nil {
		return nil, err
	}
	s.cp = cp

	dp, err := dataplane.Open(cfg.SelfPrivate, table, OutputFile, log, m)
	if err != nil {
		cp.Close()
		return nil, err
	}
	s.dp = dp

	return s, nil
}

// emit is distancevector.EmitFunc, routing outbound advertisements onto
// the multicast socket.
func (s *Supervisor) emit(command uint8, records []rib.Record) {
	s.cp.Emit(command, records)
}

// Run starts every goroutine under one errgroup.Group: the control-plane
// receive loop, the periodic advertisement scheduler, the data-plane
// receive/forward loop, the status/metrics HTTP server, and (if
// SourcePath is set) the sender. The first goroutine to return a non-nil
// error cancels ctx and stops the rest; Run returns that error. When an
// inbound transfer to this rover completes, or the outbound transfer is
// fully acknowledged, every goroutine is stopped and Run returns nil.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx, finish := context.WithCancel(ctx)
	defer finish()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.cp.ReceiveLoop(ctx) })
	g.Go(func() error { return s.dp.ReceiveLoop(ctx) })

	g.Go(func() error {
		stop := s.cfg.Clock.Every(distancevector.PeriodicInterval, s.dv.EmitPeriodic)
		<-ctx.Done()
		stop()
		return nil
	})

	g.Go(func() error { return s.runStatusServer(ctx) })

	if s.cfg.SourcePath != "" {
		g.Go(func() error {
			if err := s.runSender(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			s.log.Info("supervisor", "outbound transfer complete", nil)
			finish()
			return nil
		})
	}

	g.Go(func() error {
		select {
		case <-s.dp.Done():
			s.log.Info("supervisor", "inbound transfer complete, output file written", roverlog.KV{"file": OutputFile})
			finish()
		case <-ctx.Done():
		}
		return nil
	})

	return g.Wait()
}

func (s *Supervisor) runSender(ctx context.Context) error {
	f, err := os.Open(s.cfg.SourcePath)
	if err != nil {
		return roverr.New(roverr.FatalIO, "supervisor.runSender", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return roverr.New(roverr.FatalIO, "supervisor.runSender", err)
	}

	return s.dp.RunSender(ctx, s.cfg.Destination, f, uint32(info.Size()), s.cfg.Clock)
}

// Fatal logs err and terminates the process, mirroring cmd/bgp.go's
// log.Fatal usage for unrecoverable setup errors.
func Fatal(log roverlog.Log, op string, err error) {
	roverlog.Of(log).Error("supervisor", "fatal error, exiting", roverlog.KV{"op": op, "error": err.Error()})
	os.Exit(1)
}

// Close releases every socket the supervisor opened.
func (s *Supervisor) Close() {
	s.cp.Close()
	s.dp.Close()
	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.httpSrv.Shutdown(ctx)
	}
}
