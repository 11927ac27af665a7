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

package supervisor

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouteStatus is one row of the JSON /status routing table dump.
type RouteStatus struct {
	Dest    string `json:"dest"`
	NextHop string `json:"next_hop"`
	Metric  uint8  `json:"metric"`
}

// Status is the full point-in-time snapshot returned at /status,
// analogous to bgp.Session.Status().
type Status struct {
	Self           string        `json:"self"`
	Routes         []RouteStatus `json:"routes"`
	NeighborsAlive int           `json:"neighbors_alive"`
}

// Status builds a Status snapshot from the live table and liveness
// tracker. Safe to call concurrently with any other Supervisor method.
func (s *Supervisor) Status() Status {
	rows := s.table.Snapshot()
	out := Status{
		Self:           s.cfg.SelfPrivate.String(),
		Routes:         make([]RouteStatus, 0, len(rows)),
		NeighborsAlive: s.dv.Liveness().Count(),
	}
	for _, r := range rows {
		out.Routes = append(out.Routes, RouteStatus{
			Dest:    r.Dest.String(),
			NextHop: r.NextHop.String(),
			Metric:  r.Metric,
		})
	}
	return out
}

// runStatusServer serves /metrics (Prometheus) and /status (JSON) until
// ctx is cancelled. No server error is fatal, a failure to bind the
// listener included: it is logged and the core keeps running without
// observability.
func (s *Supervisor) runStatusServer(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.Status())
	})

	s.httpSrv = &http.Server{Addr: StatusAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpSrv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			s.log.Warn("supervisor", "status server exited", map[string]any{"error": err.Error()})
		}
		return nil
	}
}
