/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/allbin/serialrelay/internal/tui"
	"github.com/allbin/serialrelay/internal/tui/components"
)

var (
	sendHex         bool
	sendWait        time.Duration
	sendDialTimeout time.Duration
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] <addr>",
	Short: "Send a line to the device through a relay",
	Long: `Connect to a relay as a network client, send one line and disconnect.

Text data gets a '\n' appended unless it already ends with one. With --hex the
bytes are sent exactly as given. Without data, stdin is read when it is not a
terminal. With --wait the lines received in that time are printed.

Examples:
  serialrelay send "STATUS" 192.168.1.20:8880
  serialrelay send --hex "48 65 6C 6C 6F 0A" 192.168.1.20:8880
  echo "RESET" | serialrelay send 192.168.1.20:8880
  serialrelay send "VERSION" relay.local:8880 --wait 2s`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := args[len(args)-1]

		var payload []byte
		switch {
		case len(args) == 2:
			data, err := encodePayload(args[0], sendHex)
			if err != nil {
				return err
			}
			payload = data
		case !isatty.IsTerminal(os.Stdin.Fd()):
			in, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			data, err := encodePayload(string(in), sendHex)
			if err != nil {
				return err
			}
			payload = data
		default:
			return errors.New("no data given and stdin is a terminal")
		}

		conn, err := net.DialTimeout("tcp", addr, sendDialTimeout)
		if err != nil {
			return err
		}
		defer conn.Close()

		if _, err := conn.Write(payload); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Sent %d bytes to %s\n", len(payload), addr)

		if sendWait <= 0 {
			return nil
		}
		if err := conn.SetReadDeadline(time.Now().Add(sendWait)); err != nil {
			return err
		}
		err = tui.ReadLines(conn, func(line []byte) {
			os.Stdout.Write(line)
		})
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil
		}
		return err
	},
}

// encodePayload turns user input into the bytes to send. Text is
// terminated with '\n'; hex is taken literally
func encodePayload(data string, hex bool) ([]byte, error) {
	if hex {
		return components.ParseHex(data)
	}
	if data == "" {
		return nil, errors.New("empty data")
	}
	b := []byte(data)
	if !bytes.HasSuffix(b, []byte{'\n'}) {
		b = append(b, '\n')
	}
	return b, nil
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolVarP(&sendHex, "hex", "x", false, "interpret data as hex bytes")
	sendCmd.Flags().DurationVarP(&sendWait, "wait", "w", 0, "print lines received for this long after sending")
	sendCmd.Flags().DurationVar(&sendDialTimeout, "dial-timeout", 5*time.Second, "timeout for connecting to the relay")
}
