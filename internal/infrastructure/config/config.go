package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/garage-remote/internal/garage"
)

// Config is the root configuration structure for the garage remote.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Broker    BrokerConfig    `yaml:"broker"`
	Device    DeviceConfig    `yaml:"device"`
	Command   CommandConfig   `yaml:"command"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Database  DatabaseConfig  `yaml:"database"`
	Locale    LocaleConfig    `yaml:"locale"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// BrokerConfig contains MQTT broker connection settings.
type BrokerConfig struct {
	// URL is the broker address, e.g. "wss://broker.example:8884/mqtt".
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// KeepAlive is the MQTT keep-alive interval in seconds.
	KeepAlive int `yaml:"keepalive"`

	// ClientIDPrefix prefixes generated client ids.
	ClientIDPrefix string `yaml:"client_id_prefix"`

	// ConnectTimeout bounds the network dial in seconds. 0 keeps the
	// client library default.
	ConnectTimeout int `yaml:"connect_timeout"`

	// TLS applies to secure URL schemes (wss, mqtts, ssl, tls, tcps) only.
	TLS BrokerTLSConfig `yaml:"tls"`
}

// BrokerTLSConfig contains optional TLS material for the broker connection.
// With every field empty the system roots are used.
type BrokerTLSConfig struct {
	// CAFile is a PEM bundle trusted in addition to the system roots.
	CAFile string `yaml:"ca_file"`

	// CertFile and KeyFile enable client certificate authentication.
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// DeviceConfig identifies the door controller.
type DeviceConfig struct {
	ID string `yaml:"id"`

	// CommandTopic and StateTopic override garage/<id>/command and
	// garage/<id>/state when set.
	CommandTopic string `yaml:"command_topic"`
	StateTopic   string `yaml:"state_topic"`

	// AutoConnect makes `serve` connect at startup.
	AutoConnect bool `yaml:"auto_connect"`
}

// CommandConfig contains settings for outgoing commands.
type CommandConfig struct {
	// Source is stamped on every command as the client identity.
	Source string `yaml:"source"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// LocaleConfig contains UI language settings.
type LocaleConfig struct {
	// Default is the language requested when nothing has been stored yet.
	// It may be a full Accept-Language value.
	Default string `yaml:"default"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MetricsConfig contains Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults), skipped when path is empty
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GARAGE_SECTION_KEY
// For example: GARAGE_BROKER_URL, GARAGE_DEVICE_ID
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for defaults only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Broker: BrokerConfig{
			KeepAlive:      60,
			ClientIDPrefix: garage.DefaultClientIDPrefix,
			ConnectTimeout: 10,
		},
		Command: CommandConfig{
			Source: garage.DefaultCommandSource,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/api/v1/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Database: DatabaseConfig{
			Path:        "./data/garage-remote.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Locale: LocaleConfig{
			Default: "en",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GARAGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Broker
	if v := os.Getenv("GARAGE_BROKER_URL"); v != "" {
		cfg.Broker.URL = v
	}
	if v := os.Getenv("GARAGE_MQTT_USERNAME"); v != "" {
		cfg.Broker.Username = v
	}
	if v := os.Getenv("GARAGE_MQTT_PASSWORD"); v != "" {
		cfg.Broker.Password = v
	}

	// Device
	if v := os.Getenv("GARAGE_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}
	if v := os.Getenv("GARAGE_AUTO_CONNECT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Device.AutoConnect = b
		}
	}

	// Database
	if v := os.Getenv("GARAGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// API
	if v := os.Getenv("GARAGE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// Locale
	if v := os.Getenv("GARAGE_LOCALE"); v != "" {
		cfg.Locale.Default = v
	}

	// Logging
	if v := os.Getenv("GARAGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Broker and device settings are optional because connections can be made
// at runtime; they become required when device.auto_connect is set.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Broker validation
	if c.Broker.URL != "" && !strings.Contains(c.Broker.URL, "://") {
		errs = append(errs, "broker.url must include a scheme (e.g. wss://host:port/path)")
	}
	if c.Broker.KeepAlive < 0 {
		errs = append(errs, "broker.keepalive cannot be negative")
	}
	if c.Broker.ConnectTimeout < 0 {
		errs = append(errs, "broker.connect_timeout cannot be negative")
	}
	if (c.Broker.TLS.CertFile == "") != (c.Broker.TLS.KeyFile == "") {
		errs = append(errs, "broker.tls.cert_file and broker.tls.key_file must be set together")
	}

	// Device validation
	if c.Device.AutoConnect {
		if strings.TrimSpace(c.Broker.URL) == "" {
			errs = append(errs, "broker.url is required when device.auto_connect is enabled (set GARAGE_BROKER_URL)")
		}
		if strings.TrimSpace(c.Device.ID) == "" {
			errs = append(errs, "device.id is required when device.auto_connect is enabled (set GARAGE_DEVICE_ID)")
		}
	}

	// Command validation
	if strings.TrimSpace(c.Command.Source) == "" {
		errs = append(errs, "command.source is required")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// WebSocket validation
	if !strings.HasPrefix(c.WebSocket.Path, "/") {
		errs = append(errs, "websocket.path must start with /")
	}
	if c.WebSocket.MaxMessageSize <= 0 {
		errs = append(errs, "websocket.max_message_size must be positive")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// Locale validation
	if strings.TrimSpace(c.Locale.Default) == "" {
		errs = append(errs, "locale.default is required")
	}

	// Logging validation
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, "logging.format must be json or text")
	}

	// Metrics validation
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, "metrics.path must start with /")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ConnectionParams builds garage connection parameters from the broker
// and device sections.
func (c *Config) ConnectionParams() garage.ConnectionParams {
	return garage.ConnectionParams{
		URL:          c.Broker.URL,
		Username:     c.Broker.Username,
		Password:     c.Broker.Password,
		DeviceID:     c.Device.ID,
		CommandTopic: c.Device.CommandTopic,
		StateTopic:   c.Device.StateTopic,
	}
}

// GetConnectTimeout returns the broker dial timeout as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.Broker.ConnectTimeout) * time.Second
}

// GetKeepAlive returns the broker keep-alive interval as a Duration.
func (c *Config) GetKeepAlive() time.Duration {
	return time.Duration(c.Broker.KeepAlive) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
