package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. MOONWIRE_SERVER_PORT
const EnvPrefix = "MOONWIRE"

var (
	ErrInvalidBind  = errors.New("invalid bind address")
	ErrInvalidPort  = errors.New("invalid port")
	ErrInvalidLimit = errors.New("invalid protocol limit")
)

// Config represents the root configuration structure for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Protocol ProtocolConfig `mapstructure:"protocol"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds the network settings
type ServerConfig struct {
	Bind         string        `mapstructure:"bind"`
	Port         int           `mapstructure:"port"`
	Reuseport    bool          `mapstructure:"reuseport"`     // listen with SO_REUSEPORT
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`  // 0 disables
	WriteTimeout time.Duration `mapstructure:"write_timeout"` // 0 disables
	ReadBuffer   int           `mapstructure:"read_buffer"`   // initial per-connection buffer
	AcceptRate   float64       `mapstructure:"accept_rate"`   // new connections per second, 0 disables
	AcceptBurst  int           `mapstructure:"accept_burst"`
}

// ProtocolConfig bounds what a single frame may contain. Zero disables a limit
type ProtocolConfig struct {
	MaxDepth    int   `mapstructure:"max_depth"`
	MaxBulkLen  int64 `mapstructure:"max_bulk_len"`
	MaxArrayLen int64 `mapstructure:"max_array_len"`
	MaxLineLen  int   `mapstructure:"max_line_len"`
}

// LogConfig defines logging verbosity and output style
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// MetricsConfig controls the prometheus endpoint
type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the HTTP endpoint
}

// Addr returns the listen address of the RESP server
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Bind, fmt.Sprint(c.Port))
}

// Load reads the configuration from a file and overrides it with environment variables
// and, when flags is not nil, with the flags the user set explicitly.
// Flags are matched by name: "bind" and "port" map to server.bind and server.port
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// flagKeys maps config keys to command line flag names
var flagKeys = map[string]string{
	"server.bind":      "bind",
	"server.port":      "port",
	"server.reuseport": "reuseport",
	"log.level":        "log-level",
	"log.format":       "log-format",
	"metrics.addr":     "metrics-addr",
}

// Validate reports the first setting that can't be used to start the server
func (c *Config) Validate() error {
	if net.ParseIP(c.Server.Bind) == nil {
		return fmt.Errorf("%w: %q is not an IP address", ErrInvalidBind, c.Server.Bind)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: %d is out of range 0-65535", ErrInvalidPort, c.Server.Port)
	}

	if c.Server.AcceptRate < 0 || c.Server.AcceptBurst < 0 {
		return fmt.Errorf("%w: accept rate and burst must not be negative", ErrInvalidLimit)
	}

	if c.Protocol.MaxDepth < 0 || c.Protocol.MaxBulkLen < 0 || c.Protocol.MaxArrayLen < 0 || c.Protocol.MaxLineLen < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidLimit)
	}

	return nil
}

// setDefaults populates viper with fallback values if they are not provided via file or ENV
func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.bind", "127.0.0.1")
	v.SetDefault("server.port", 6379)
	v.SetDefault("server.reuseport", false)
	v.SetDefault("server.idle_timeout", "0s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.read_buffer", 4*1024)
	v.SetDefault("server.accept_rate", 0)
	v.SetDefault("server.accept_burst", 64)

	// Protocol
	v.SetDefault("protocol.max_depth", 128)
	v.SetDefault("protocol.max_bulk_len", 512*1024*1024)
	v.SetDefault("protocol.max_array_len", 1024*1024)
	v.SetDefault("protocol.max_line_len", 64*1024)

	// Logger
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Metrics
	v.SetDefault("metrics.addr", "")
}
