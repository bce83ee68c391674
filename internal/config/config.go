// Package config loads serialrelay settings with viper.
//
// Precedence is flags, then SERIALRELAY_* environment variables, then the
// config file, then the defaults registered by New.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	serial "github.com/allbin/serialrelay"
)

// EnvPrefix prefixes every environment variable, e.g. SERIALRELAY_DEVICE_PATH
const EnvPrefix = "SERIALRELAY"

// StdioPath selects the process's stdin and stdout as the console
const StdioPath = "-"

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Keys
const (
	KeyDevicePath       = "device.path"
	KeyDeviceBaud       = "device.baud"
	KeyConsolePath      = "console.path"
	KeyConsoleBaud      = "console.baud"
	KeyWirelessPath     = "wireless.path"
	KeyWirelessBaud     = "wireless.baud"
	KeyWirelessFlow     = "wireless.flow_control"
	KeyWirelessTxBuffer = "wireless.tx_buffer"
	KeyNetworkListen    = "network.listen"
	KeyWebSocket        = "network.websocket"
	KeyWebSocketPath    = "network.websocket_path"
	KeyWriteTimeout     = "network.write_timeout"
	KeyMetricsListen    = "metrics.listen"
	KeyMDNSEnabled      = "mdns.enabled"
	KeyMDNSInstance     = "mdns.instance"
	KeyLoopIdle         = "loop.idle"
	KeyLogLevel         = "log.level"
)

type Config struct {
	Device   SerialConfig   `mapstructure:"device"`
	Console  SerialConfig   `mapstructure:"console"`
	Wireless WirelessConfig `mapstructure:"wireless"`
	Network  NetworkConfig  `mapstructure:"network"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	MDNS     MDNSConfig     `mapstructure:"mdns"`
	Loop     LoopConfig     `mapstructure:"loop"`
	Log      LogConfig      `mapstructure:"log"`
}

type SerialConfig struct {
	Path string `mapstructure:"path"`
	Baud int    `mapstructure:"baud"`
}

type WirelessConfig struct {
	Path        string `mapstructure:"path"`
	Baud        int    `mapstructure:"baud"`
	FlowControl string `mapstructure:"flow_control"`
	TxBuffer    int    `mapstructure:"tx_buffer"`
}

type NetworkConfig struct {
	Listen        string        `mapstructure:"listen"`
	WebSocket     string        `mapstructure:"websocket"`
	WebSocketPath string        `mapstructure:"websocket_path"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
}

type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

type MDNSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Instance string `mapstructure:"instance"`
}

type LoopConfig struct {
	Idle time.Duration `mapstructure:"idle"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// New returns a viper instance with defaults and environment binding set
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the default for every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDevicePath, "")
	v.SetDefault(KeyDeviceBaud, 115200)
	v.SetDefault(KeyConsolePath, StdioPath)
	v.SetDefault(KeyConsoleBaud, 115200)
	v.SetDefault(KeyWirelessPath, "")
	v.SetDefault(KeyWirelessBaud, 115200)
	v.SetDefault(KeyWirelessFlow, "rtscts")
	v.SetDefault(KeyWirelessTxBuffer, 4096)
	v.SetDefault(KeyNetworkListen, ":8880")
	v.SetDefault(KeyWebSocket, "")
	v.SetDefault(KeyWebSocketPath, "/ws")
	v.SetDefault(KeyWriteTimeout, 100*time.Millisecond)
	v.SetDefault(KeyMetricsListen, "")
	v.SetDefault(KeyMDNSEnabled, false)
	v.SetDefault(KeyMDNSInstance, "")
	v.SetDefault(KeyLoopIdle, time.Millisecond)
	v.SetDefault(KeyLogLevel, "info")
}

// Load reads the config file into v and decodes the result. With an empty
// file the default locations are searched and a missing file is not an
// error; an explicit file must exist
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("serialrelay")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/serialrelay")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem with c at once
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Device.Path == "" {
		invalid("%s is required", KeyDevicePath)
	}
	if !serial.ValidBaudRate(c.Device.Baud) {
		invalid("%s: unsupported baud rate %d", KeyDeviceBaud, c.Device.Baud)
	}
	if c.Console.Path != StdioPath && c.Console.Path != "" && !serial.ValidBaudRate(c.Console.Baud) {
		invalid("%s: unsupported baud rate %d", KeyConsoleBaud, c.Console.Baud)
	}
	if c.Wireless.Path != "" {
		if !serial.ValidBaudRate(c.Wireless.Baud) {
			invalid("%s: unsupported baud rate %d", KeyWirelessBaud, c.Wireless.Baud)
		}
		if _, err := serial.ParseFlowControl(c.Wireless.FlowControl); err != nil {
			invalid("%s: %v", KeyWirelessFlow, err)
		}
		if c.Wireless.TxBuffer <= 0 {
			invalid("%s must be positive", KeyWirelessTxBuffer)
		}
	}
	if c.Network.Listen == "" && c.Network.WebSocket == "" {
		invalid("one of %s or %s is required", KeyNetworkListen, KeyWebSocket)
	}
	if c.Network.WebSocket != "" && !strings.HasPrefix(c.Network.WebSocketPath, "/") {
		invalid("%s must start with /", KeyWebSocketPath)
	}
	if c.Network.WriteTimeout < 0 {
		invalid("%s must not be negative", KeyWriteTimeout)
	}
	if c.Loop.Idle <= 0 {
		invalid("%s must be positive", KeyLoopIdle)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		invalid("%s: %v", KeyLogLevel, err)
	}

	return errors.Join(errs...)
}

// ConsoleIsStdio reports whether the console is the process's stdio
func (c *Config) ConsoleIsStdio() bool {
	return c.Console.Path == "" || c.Console.Path == StdioPath
}

// DeviceOptions returns the port options for the device channel
func (c *Config) DeviceOptions() []serial.Option {
	return []serial.Option{serial.WithBaudRate(c.Device.Baud)}
}

// ConsoleOptions returns the port options for a serial console
func (c *Config) ConsoleOptions() []serial.Option {
	return []serial.Option{serial.WithBaudRate(c.Console.Baud)}
}

// WirelessOptions returns the port options for the wireless link. Validate
// must have accepted c
func (c *Config) WirelessOptions() []serial.Option {
	fc, _ := serial.ParseFlowControl(c.Wireless.FlowControl)
	return []serial.Option{
		serial.WithBaudRate(c.Wireless.Baud),
		serial.WithFlowControl(fc),
		serial.WithTxBufferSize(c.Wireless.TxBuffer),
	}
}

// LogLevel returns the parsed log level, info when unset
func (c *Config) LogLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || c.Log.Level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
