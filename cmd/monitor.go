/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/allbin/serialrelay/internal/tui"
)

var monitorDialTimeout time.Duration

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor <addr>",
	Short: "Interactive network client for a running relay",
	Long: `Connect to a relay as a network client and open an interactive terminal.

Lines sent by the device scroll in the main view. Press 'i' to type a line
and Enter to send it to the device; Tab switches between ASCII and hex input.

Examples:
  serialrelay monitor 192.168.1.20:8880
  serialrelay monitor relay.local:8880 --dial-timeout 10s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := args[0]

		conn, err := net.DialTimeout("tcp", addr, monitorDialTimeout)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return tui.RunMonitor(ctx, addr, conn)
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().DurationVar(&monitorDialTimeout, "dial-timeout", 5*time.Second, "timeout for connecting to the relay")
}
