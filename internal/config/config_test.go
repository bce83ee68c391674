package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serial "github.com/allbin/serialrelay"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "serialrelay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERIALRELAY_DEVICE_PATH", "/dev/ttyUSB0")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Device.Path)
	assert.Equal(t, 115200, cfg.Device.Baud)
	assert.Equal(t, StdioPath, cfg.Console.Path)
	assert.True(t, cfg.ConsoleIsStdio())
	assert.Empty(t, cfg.Wireless.Path)
	assert.Equal(t, "rtscts", cfg.Wireless.FlowControl)
	assert.Equal(t, 4096, cfg.Wireless.TxBuffer)
	assert.Equal(t, ":8880", cfg.Network.Listen)
	assert.Equal(t, "/ws", cfg.Network.WebSocketPath)
	assert.Equal(t, 100*time.Millisecond, cfg.Network.WriteTimeout)
	assert.Equal(t, time.Millisecond, cfg.Loop.Idle)
	assert.False(t, cfg.MDNS.Enabled)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
device:
  path: /dev/ttyACM0
  baud: 921600
console:
  path: /dev/ttyS0
  baud: 9600
wireless:
  path: /dev/ttyUSB1
  flow_control: cts
  tx_buffer: 512
network:
  listen: 127.0.0.1:9000
  websocket: :8081
loop:
  idle: 5ms
log:
  level: debug
`)

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Device.Path)
	assert.Equal(t, 921600, cfg.Device.Baud)
	assert.False(t, cfg.ConsoleIsStdio())
	assert.Equal(t, 9600, cfg.Console.Baud)
	assert.Equal(t, "cts", cfg.Wireless.FlowControl)
	assert.Equal(t, 512, cfg.Wireless.TxBuffer)
	assert.Equal(t, "127.0.0.1:9000", cfg.Network.Listen)
	assert.Equal(t, ":8081", cfg.Network.WebSocket)
	assert.Equal(t, 5*time.Millisecond, cfg.Loop.Idle)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "device:\n  path: /dev/ttyACM0\n  baud: 9600\n")
	t.Setenv("SERIALRELAY_DEVICE_BAUD", "57600")
	t.Setenv("SERIALRELAY_LOOP_IDLE", "2ms")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, 57600, cfg.Device.Baud)
	assert.Equal(t, 2*time.Millisecond, cfg.Loop.Idle)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Device:  SerialConfig{Path: "/dev/ttyUSB0", Baud: 115200},
			Console: SerialConfig{Path: StdioPath},
			Wireless: WirelessConfig{
				Path: "/dev/ttyUSB1", Baud: 115200, FlowControl: "rtscts", TxBuffer: 4096,
			},
			Network: NetworkConfig{Listen: ":8880", WebSocketPath: "/ws"},
			Loop:    LoopConfig{Idle: time.Millisecond},
			Log:     LogConfig{Level: "info"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"missing device", func(c *Config) { c.Device.Path = "" }, false},
		{"bad device baud", func(c *Config) { c.Device.Baud = 12345 }, false},
		{"bad serial console baud", func(c *Config) { c.Console = SerialConfig{Path: "/dev/ttyS0", Baud: 7} }, false},
		{"stdio console ignores baud", func(c *Config) { c.Console.Baud = 7 }, true},
		{"bad flow control", func(c *Config) { c.Wireless.FlowControl = "xonxoff" }, false},
		{"zero tx buffer", func(c *Config) { c.Wireless.TxBuffer = 0 }, false},
		{"wireless disabled skips checks", func(c *Config) { c.Wireless = WirelessConfig{FlowControl: "bogus"} }, true},
		{"no listeners", func(c *Config) { c.Network.Listen = "" }, false},
		{"websocket only", func(c *Config) { c.Network.Listen = ""; c.Network.WebSocket = ":8081" }, true},
		{"relative websocket path", func(c *Config) { c.Network.WebSocket = ":8081"; c.Network.WebSocketPath = "ws" }, false},
		{"negative write timeout", func(c *Config) { c.Network.WriteTimeout = -time.Second }, false},
		{"zero idle", func(c *Config) { c.Loop.Idle = 0 }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Config{Log: LogConfig{Level: "info"}}
	err := cfg.Validate()
	require.Error(t, err)
	for _, key := range []string{KeyDevicePath, KeyDeviceBaud, KeyNetworkListen, KeyLoopIdle} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestWirelessOptions(t *testing.T) {
	cfg := Config{Wireless: WirelessConfig{Baud: 460800, FlowControl: "cts", TxBuffer: 256}}

	sc := serial.DefaultConfig()
	for _, opt := range cfg.WirelessOptions() {
		require.NoError(t, opt(&sc))
	}
	assert.Equal(t, 460800, sc.BaudRate)
	assert.Equal(t, serial.FlowControlCTS, sc.FlowControl)
	assert.Equal(t, 256, sc.TxBufferSize)
}

func TestDeviceAndConsoleOptions(t *testing.T) {
	cfg := Config{
		Device:  SerialConfig{Baud: 230400},
		Console: SerialConfig{Baud: 9600},
	}

	sc := serial.DefaultConfig()
	for _, opt := range cfg.DeviceOptions() {
		require.NoError(t, opt(&sc))
	}
	assert.Equal(t, 230400, sc.BaudRate)

	sc = serial.DefaultConfig()
	for _, opt := range cfg.ConsoleOptions() {
		require.NoError(t, opt(&sc))
	}
	assert.Equal(t, 9600, sc.BaudRate)
}
