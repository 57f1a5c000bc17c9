package config

import (
	"fmt"
	"time"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Verifier modes.
const (
	VerifierStatic = "static"
	VerifierRemote = "remote"
	VerifierToken  = "token"
)

// Config holds relay configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	// IOTimeout bounds a single store call or websocket write.
	IOTimeout       time.Duration `mapstructure:"io_timeout" yaml:"io_timeout"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat       string        `mapstructure:"log_format" yaml:"log_format"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	ClientBuffer    int           `mapstructure:"client_buffer" yaml:"client_buffer"`
	// RateLimit is the number of inbound actions a connection may send per minute; 0 disables it.
	RateLimit   int      `mapstructure:"rate_limit" yaml:"rate_limit"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`

	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Verifier  VerifierConfig  `mapstructure:"verifier" yaml:"verifier"`
	Redis     RedisConfig     `mapstructure:"redis" yaml:"redis"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// StoreConfig selects and configures the message store.
type StoreConfig struct {
	Driver      string `mapstructure:"driver" yaml:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	PostgresURL string `mapstructure:"postgres_url" yaml:"postgres_url"`
}

// VerifierConfig selects how participants are verified.
type VerifierConfig struct {
	Mode string `mapstructure:"mode" yaml:"mode"`
	// Participants maps a group contract address to its participant wallets (static mode).
	Participants map[string][]string `mapstructure:"participants" yaml:"participants"`
	RemoteURL    string              `mapstructure:"remote_url" yaml:"remote_url"`
	TokenSecret  string              `mapstructure:"token_secret" yaml:"token_secret"`
	TokenIssuer  string              `mapstructure:"token_issuer" yaml:"token_issuer"`
}

// RedisConfig enables the verification cache when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// TelemetryConfig enables OTLP tracing when Endpoint is set.
type TelemetryConfig struct {
	Endpoint    string `mapstructure:"endpoint" yaml:"endpoint"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		IOTimeout:         5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		MaxMessageBytes:   64 << 10,
		ClientBuffer:      32,
		RateLimit:         120,
		CORSOrigins:       []string{"http://localhost:3000"},
		Store: StoreConfig{
			Driver:     DriverSQLite,
			SQLitePath: "relay.db",
		},
		Verifier: VerifierConfig{
			Mode:         VerifierStatic,
			Participants: map[string][]string{},
		},
		Redis: RedisConfig{
			TTL: 5 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "chat-relay",
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Only the command-line overridable fields are considered.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.Store.Driver != "" {
		c.Store.Driver = other.Store.Driver
	}
}

// Validate reports configuration that cannot start a relay.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Store.PostgresURL == "" {
			return fmt.Errorf("store.postgres_url is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Verifier.Mode {
	case VerifierStatic:
	case VerifierRemote:
		if c.Verifier.RemoteURL == "" {
			return fmt.Errorf("verifier.remote_url is required for remote verification")
		}
	case VerifierToken:
		if c.Verifier.TokenSecret == "" {
			return fmt.Errorf("verifier.token_secret is required for token verification")
		}
	default:
		return fmt.Errorf("unknown verifier mode %q", c.Verifier.Mode)
	}

	if c.IOTimeout <= 0 {
		return fmt.Errorf("io_timeout must be positive")
	}
	if c.ClientBuffer <= 0 {
		return fmt.Errorf("client_buffer must be positive")
	}
	return nil
}
