/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/allbin/serialrelay/internal/advertise"
	"github.com/allbin/serialrelay/internal/config"
	"github.com/allbin/serialrelay/internal/relay"
	"github.com/allbin/serialrelay/internal/transport"
)

const banner = "serialrelay initialization completed.\n"

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the relay",
	Long: `Open the device, console and wireless ports, start the network
listeners and relay lines until interrupted.

Settings come from flags, SERIALRELAY_* environment variables and the config
file, in that order. Relay diagnostics are written to the console.

Examples:
  serialrelay run --device /dev/ttyUSB0
  serialrelay run --device /dev/ttyAMA0 --wireless /dev/ttyUSB1 --listen :8880
  serialrelay run --device /dev/ttyUSB0 --console /dev/ttyS0 --websocket :8881 --mdns
  SERIALRELAY_DEVICE_PATH=/dev/ttyUSB0 serialrelay run --metrics :9100`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		logger = logger.Level(cfg.LogLevel())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runRelay(ctx, cfg)
	},
}

// console is what the relay diagnostics and startup banner are written to
type console interface {
	relay.Stream
	io.Closer
}

func openConsole(cfg *config.Config) (console, error) {
	if cfg.ConsoleIsStdio() {
		return transport.Stdio()
	}
	return transport.OpenSerial(cfg.Console.Path, cfg.ConsoleOptions()...)
}

func runRelay(ctx context.Context, cfg *config.Config) error {
	device, err := transport.OpenSerial(cfg.Device.Path, cfg.DeviceOptions()...)
	if err != nil {
		return fmt.Errorf("device: %w", err)
	}
	defer device.Close()
	if err := device.Port().FlushInput(); err != nil {
		logger.Warn().Err(err).Msg("discarding stale device input")
	}

	con, err := openConsole(cfg)
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}
	defer con.Close()

	var wireless relay.Stream
	if cfg.Wireless.Path != "" {
		w, err := transport.OpenSerial(cfg.Wireless.Path, cfg.WirelessOptions()...)
		if err != nil {
			return fmt.Errorf("wireless: %w", err)
		}
		defer w.Close()
		wireless = w
	}

	reg, err := relay.NewRegistry(device, con, wireless)
	if err != nil {
		return err
	}

	metrics, stopMetrics, err := serveMetrics(cfg.Metrics.Listen)
	if err != nil {
		return err
	}
	defer stopMetrics()

	var listeners []relay.Listener
	info := advertise.Info{
		Instance:   advertise.InstanceName(cfg.MDNS.Instance),
		Version:    version,
		MaxClients: relay.MaxClients,
	}

	if cfg.Network.Listen != "" {
		tcp, err := transport.ListenTCP(ctx, cfg.Network.Listen, cfg.Network.WriteTimeout, logger)
		if err != nil {
			return err
		}
		defer tcp.Close()
		listeners = append(listeners, tcp)
		info.Port = tcp.Port()
		logger.Info().Str("addr", tcp.Addr().String()).Msg("accepting TCP clients")
	}

	if cfg.Network.WebSocket != "" {
		ws, err := transport.ListenWebSocket(ctx, cfg.Network.WebSocket, cfg.Network.WebSocketPath, cfg.Network.WriteTimeout, logger)
		if err != nil {
			return err
		}
		defer ws.Close()
		listeners = append(listeners, ws)
		if addr, ok := ws.Addr().(*net.TCPAddr); ok {
			info.WebSocketPort = addr.Port
			info.WebSocketPath = cfg.Network.WebSocketPath
		}
		logger.Info().Str("addr", ws.Addr().String()).Str("path", cfg.Network.WebSocketPath).Msg("accepting WebSocket clients")
	}

	if cfg.MDNS.Enabled && info.Port > 0 {
		adv, err := advertise.Advertise(info)
		if err != nil {
			logger.Warn().Err(err).Msg("mDNS advertisement failed")
		} else {
			defer adv.Shutdown()
			logger.Info().Str("instance", info.Instance).Str("service", advertise.ServiceType).Msg("advertising over mDNS")
		}
	}

	diagLog := zerolog.New(zerolog.ConsoleWriter{
		Out:        zerolog.SyncWriter(con),
		NoColor:    true,
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()

	r := relay.New(reg, relay.Options{
		Listeners:   listeners,
		Diagnostics: relay.NewDiagnostics(diagLog, metrics),
		Metrics:     metrics,
		Idle:        cfg.Loop.Idle,
	})

	if _, err := io.WriteString(con, banner); err != nil {
		logger.Warn().Err(err).Msg("writing banner")
	}
	logger.Info().Str("device", cfg.Device.Path).Int("baud", cfg.Device.Baud).Msg("relay running")

	err = r.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info().Msg("relay stopped")
		return nil
	}
	return err
}

// serveMetrics starts the Prometheus handler on addr. With an empty addr
// metrics are disabled and the returned *relay.Metrics is nil
func serveMetrics(addr string) (*relay.Metrics, func(), error) {
	if addr == "" {
		return nil, func() {}, nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := relay.NewMetrics(reg)
	if err != nil {
		return nil, nil, fmt.Errorf("register metrics: %w", err)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	logger.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")

	return m, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringP("device", "d", "", "device serial port (required)")
	flags.IntP("baud", "b", 115200, "device baud rate")
	flags.String("console", config.StdioPath, "console serial port, - for stdin/stdout")
	flags.String("wireless", "", "wireless serial port (empty disables it)")
	flags.String("flow-control", "rtscts", "wireless flow control: none, cts, rtscts")
	flags.StringP("listen", "l", ":8880", "TCP address for network clients (empty disables it)")
	flags.String("websocket", "", "address for WebSocket clients (empty disables it)")
	flags.String("metrics", "", "address for the Prometheus /metrics endpoint")
	flags.Bool("mdns", false, "advertise the TCP listener over mDNS")

	for key, name := range map[string]string{
		config.KeyDevicePath:    "device",
		config.KeyDeviceBaud:    "baud",
		config.KeyConsolePath:   "console",
		config.KeyWirelessPath:  "wireless",
		config.KeyWirelessFlow:  "flow-control",
		config.KeyNetworkListen: "listen",
		config.KeyWebSocket:     "websocket",
		config.KeyMetricsListen: "metrics",
		config.KeyMDNSEnabled:   "mdns",
	} {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}
