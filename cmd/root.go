/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/allbin/serialrelay/internal/config"
)

var (
	cfgFile string

	// v holds every setting; run binds its flags into it
	v = config.New()

	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
)

// version is set at build time with -ldflags "-X .../cmd.version=..."
var version = "dev"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serialrelay",
	Short: "Relay newline-terminated lines between a serial device and its peers",
	Long: `serialrelay connects a serial device to a console, an optional wireless
serial link and up to four network clients.

Every line the device sends is copied to all peers; every line a peer sends
goes to the device. Lines end with '\n' and may be at most 2047 bytes long.

Examples:
  serialrelay run --device /dev/ttyUSB0
  serialrelay monitor 192.168.1.20:8880
  serialrelay send "STATUS" 192.168.1.20:8880 --wait 1s
  serialrelay discover`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(v.GetString(config.KeyLogLevel))
		if err != nil {
			return fmt.Errorf("log level %q: %w", v.GetString(config.KeyLogLevel), err)
		}
		logger = logger.Level(level)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./serialrelay.yaml or /etc/serialrelay/serialrelay.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: trace, debug, info, warn, error")
	_ = v.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
}
