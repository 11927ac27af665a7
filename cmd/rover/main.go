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

// Command rover runs one distance-vector routing node: the CLI contract
// is external to the protocol (spec §6), built here with cobra/pflag
// instead of the bare flag package.
package main

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/routewisp/rover/addr"
	"github.com/routewisp/rover/config"
	"github.com/routewisp/rover/roverlog"
	"github.com/routewisp/rover/supervisor"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type flags struct {
	id          uint8
	group       string
	port        int
	iface       string
	source      string
	destination uint8
	configPath  string
}

func newRootCommand() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "rover",
		Short: "Run a distance-vector routing node",
		Long: `rover runs one node of a small distance-vector routing network:
it advertises and learns routes over a multicast group, and can
originate or relay a reliable file transfer over the resulting routes.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f)
		},
	}

	pf := cmd.Flags()
	pf.Uint8Var(&f.id, "id", 0, "this rover's id (1-255)")
	pf.StringVar(&f.group, "group", "239.0.0.1", "multicast group address for routing advertisements")
	pf.IntVar(&f.port, "port", 5000, "multicast port for routing advertisements")
	pf.StringVar(&f.iface, "interface", "", "network interface to join the multicast group on (default interface if empty)")
	pf.StringVar(&f.source, "source", "", "path to a file to send; leave empty to only relay/receive")
	pf.Uint8Var(&f.destination, "destination", 0, "destination rover id for --source (required if --source is set)")
	pf.StringVar(&f.configPath, "config", "", "optional YAML config file; flags override file values")

	return cmd
}

func run(f flags) error {
	fileCfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("rover: loading config: %w", err)
	}

	var destStr string
	if f.destination != 0 {
		destStr = fmt.Sprintf("%d", f.destination)
	}

	merged := config.File{
		ID:          f.id,
		Group:       f.group,
		Port:        f.port,
		Interface:   f.iface,
		Source:      f.source,
		Destination: destStr,
	}.Merge(fileCfg)

	if merged.ID == 0 {
		return fmt.Errorf("rover: --id is required")
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("rover: building logger: %w", err)
	}
	defer zapLogger.Sync()
	log := roverlog.NewZap(zapLogger)

	selfPrivate := addr.FromRoverID(addr.RoverID(merged.ID))

	selfPublic, err := addr.DiscoverPublic(netip.AddrPortFrom(mustParseAddr(merged.Group), uint16(merged.Port)).String())
	if err != nil {
		supervisor.Fatal(log, "cmd.rover.DiscoverPublic", err)
	}

	var dest addr.Private
	if merged.Source != "" {
		if merged.Destination == "" {
			return fmt.Errorf("rover: --destination is required when --source is set")
		}
		var id uint64
		if _, err := fmt.Sscanf(merged.Destination, "%d", &id); err != nil {
			return fmt.Errorf("rover: invalid --destination %q: %w", merged.Destination, err)
		}
		dest = addr.FromRoverID(addr.RoverID(id))
	}

	cfg := supervisor.Config{
		ID:          addr.RoverID(merged.ID),
		Group:       merged.Group,
		Port:        merged.Port,
		Interface:   merged.Interface,
		SelfPrivate: selfPrivate,
		SelfPublic:  selfPublic,
		SourcePath:  merged.Source,
		Destination: dest,
		Log:         log,
	}

	sup, err := supervisor.New(cfg)
	if err != nil {
		supervisor.Fatal(log, "cmd.rover.New", err)
	}
	defer sup.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("cmd.rover", "rover started", roverlog.KV{
		"id":     merged.ID,
		"self":   selfPrivate.String(),
		"public": selfPublic.String(),
		"group":  merged.Group,
		"port":   merged.Port,
	})

	if err := sup.Run(ctx); err != nil {
		supervisor.Fatal(log, "cmd.rover.Run", err)
	}

	return nil
}

func mustParseAddr(s string) netip.Addr {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.MustParseAddr("8.8.8.8")
	}
	return a
}
