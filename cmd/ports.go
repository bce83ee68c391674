/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	serial "github.com/allbin/serialrelay"
	"github.com/allbin/serialrelay/internal/tui/components"
)

var portsPlain bool

// portsCmd represents the ports command
var portsCmd = &cobra.Command{
	Use:     "ports",
	Aliases: []string{"list"},
	Short:   "List serial ports usable as device, console or wireless",
	Long: `List the serial ports found on this machine.

Use the printed paths with run --device, --console and --wireless.
Virtual terminals and pseudo-terminals are not listed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := serial.ListPorts()
		if err != nil {
			return fmt.Errorf("listing ports: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(ports) == 0 {
			fmt.Fprintln(out, "No serial ports found")
			return nil
		}

		if portsPlain {
			for _, p := range ports {
				fmt.Fprintln(out, p)
			}
			return nil
		}

		rows := make([]map[string]any, len(ports))
		for i, p := range ports {
			rows[i] = map[string]any{
				"name": filepath.Base(p),
				"path": p,
				"desc": serial.Describe(p),
			}
		}
		fmt.Fprintf(out, "Found %d serial port(s):\n", len(ports))
		fmt.Fprintln(out, components.Listing([]components.Column{
			{Key: "name", Title: "Name", Width: 12},
			{Key: "path", Title: "Path", Width: 20},
			{Key: "desc", Title: "Description", Width: 24},
		}, rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)

	portsCmd.Flags().BoolVarP(&portsPlain, "plain", "p", false, "print one path per line")
}
