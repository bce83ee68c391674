/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/allbin/serialrelay/internal/advertise"
	"github.com/allbin/serialrelay/internal/tui/components"
)

var discoverTimeout time.Duration

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find relays announced over mDNS",
	Long: `Browse the local network for relays started with --mdns and list the
addresses monitor and send can connect to.

Examples:
  serialrelay discover
  serialrelay discover --timeout 10s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), discoverTimeout)
		defer cancel()

		fmt.Fprintf(cmd.ErrOrStderr(), "Browsing %s for %s...\n", advertise.ServiceType, discoverTimeout)
		relays, err := advertise.Discover(ctx)
		if err != nil {
			return fmt.Errorf("discover: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(relays) == 0 {
			fmt.Fprintln(out, "No relays found")
			return nil
		}

		rows := make([]map[string]any, len(relays))
		for i, r := range relays {
			rows[i] = map[string]any{
				"instance": r.Instance,
				"addr":     r.Addr(),
				"version":  r.Text["version"],
				"ws":       websocketURL(r),
			}
		}
		fmt.Fprintln(out, components.Listing([]components.Column{
			{Key: "instance", Title: "Instance", Width: 28},
			{Key: "addr", Title: "Address", Width: 22},
			{Key: "version", Title: "Version", Width: 10},
			{Key: "ws", Title: "WebSocket", Width: 30},
		}, rows))
		return nil
	},
}

func websocketURL(r advertise.Relay) string {
	port, path := r.Text["ws_port"], r.Text["ws_path"]
	if port == "" {
		return "-"
	}
	host, _, err := net.SplitHostPort(r.Addr())
	if err != nil {
		return "-"
	}
	return "ws://" + net.JoinHostPort(host, port) + path
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().DurationVarP(&discoverTimeout, "timeout", "t", 3*time.Second, "how long to browse")
}
