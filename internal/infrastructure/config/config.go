package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the audio bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	MQTT     MQTTConfig     `yaml:"mqtt"`
	UDP      UDPConfig      `yaml:"udp"`
	ALSA     ALSAConfig     `yaml:"alsa"`
	Logging  LoggingConfig  `yaml:"logging"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
}

// MQTTConfig contains MQTT broker connection settings and the two bridged topics.
type MQTTConfig struct {
	BrokerAddress string `yaml:"broker_address"`
	ClientID      string `yaml:"client_id"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	QoS           int    `yaml:"qos"`

	// TopicVolume carries integer volume percentages.
	TopicVolume string `yaml:"topic_volume"`

	// TopicMessage carries text forwarded over UDP.
	TopicMessage string `yaml:"topic_message"`

	// StatusTopic is optional. When set, the bridge publishes a retained
	// online/offline status and registers an offline Last Will on it.
	StatusTopic string `yaml:"status_topic"`

	// ConnectTimeout bounds a single connect or subscribe round trip (seconds).
	ConnectTimeout int `yaml:"connect_timeout"`

	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTReconnectConfig contains session recovery settings.
type MQTTReconnectConfig struct {
	// RetryInterval is the pause between loss-driven connect attempts (seconds).
	RetryInterval int `yaml:"retry_interval"`

	// HealthCheckInterval is the period of the liveness probe (seconds).
	HealthCheckInterval int `yaml:"health_check_interval"`
}

// UDPConfig contains the datagram peer for forwarded messages.
type UDPConfig struct {
	ServerAddress string `yaml:"server_address"`
	ServerPort    int    `yaml:"server_port"`

	// Encoding is a WHATWG encoding label (e.g. "koi8-r", "utf-8", "windows-1251").
	Encoding string `yaml:"encoding"`
}

// ALSAConfig contains the output device controlled by volume messages.
type ALSAConfig struct {
	Device  string `yaml:"device"`
	Control string `yaml:"control"`
	Binary  string `yaml:"binary"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
type FileLoggingConfig struct {
	Path string `yaml:"path"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: AUDIOBRIDGE_SECTION_KEY
// For example: AUDIOBRIDGE_MQTT_BROKER, AUDIOBRIDGE_ALSA_DEVICE
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
// Topics, the UDP peer and the ALSA device have no defaults and must be configured.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			QoS:            0,
			ConnectTimeout: 10,
			Reconnect: MQTTReconnectConfig{
				RetryInterval:       5,
				HealthCheckInterval: 30,
			},
		},
		UDP: UDPConfig{
			Encoding: "koi8-r",
		},
		ALSA: ALSAConfig{
			Control: "Master",
			Binary:  "amixer",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: AUDIOBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("AUDIOBRIDGE_MQTT_BROKER"); v != "" {
		cfg.MQTT.BrokerAddress = v
	}
	if v := os.Getenv("AUDIOBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("AUDIOBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}

	// UDP
	if v := os.Getenv("AUDIOBRIDGE_UDP_HOST"); v != "" {
		cfg.UDP.ServerAddress = v
	}

	// ALSA
	if v := os.Getenv("AUDIOBRIDGE_ALSA_DEVICE"); v != "" {
		cfg.ALSA.Device = v
	}

	// InfluxDB
	if v := os.Getenv("AUDIOBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// brokerSchemes lists the URL schemes paho accepts for a broker address.
var brokerSchemes = map[string]bool{
	"tcp": true, "ssl": true, "tls": true,
	"ws": true, "wss": true,
	"mqtt": true, "mqtts": true,
}

// Validate checks the configuration for missing or inconsistent fields.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// MQTT validation
	if c.MQTT.BrokerAddress == "" {
		errs = append(errs, "mqtt.broker_address is required")
	} else if err := ValidateBrokerAddress(c.MQTT.BrokerAddress); err != nil {
		errs = append(errs, err.Error())
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	errs = append(errs, validateTopic("mqtt.topic_volume", c.MQTT.TopicVolume)...)
	errs = append(errs, validateTopic("mqtt.topic_message", c.MQTT.TopicMessage)...)
	if c.MQTT.TopicVolume != "" && c.MQTT.TopicVolume == c.MQTT.TopicMessage {
		errs = append(errs, "mqtt.topic_volume and mqtt.topic_message must differ")
	}
	if c.MQTT.StatusTopic != "" {
		errs = append(errs, validateTopic("mqtt.status_topic", c.MQTT.StatusTopic)...)
	}
	if c.MQTT.ConnectTimeout <= 0 {
		errs = append(errs, "mqtt.connect_timeout must be positive")
	}
	if c.MQTT.Reconnect.RetryInterval <= 0 {
		errs = append(errs, "mqtt.reconnect.retry_interval must be positive")
	}
	if c.MQTT.Reconnect.HealthCheckInterval <= 0 {
		errs = append(errs, "mqtt.reconnect.health_check_interval must be positive")
	}

	// UDP validation
	if c.UDP.ServerAddress == "" {
		errs = append(errs, "udp.server_address is required")
	}
	if c.UDP.ServerPort < 1 || c.UDP.ServerPort > 65535 {
		errs = append(errs, "udp.server_port must be between 1 and 65535")
	}
	if _, err := htmlindex.Get(c.UDP.Encoding); err != nil {
		errs = append(errs, fmt.Sprintf("udp.encoding %q is not a known encoding", c.UDP.Encoding))
	}

	// ALSA validation
	if c.ALSA.Device == "" {
		errs = append(errs, "alsa.device is required")
	}
	if c.ALSA.Control == "" {
		errs = append(errs, "alsa.control is required")
	}
	if c.ALSA.Binary == "" {
		errs = append(errs, "alsa.binary is required")
	}

	// Logging validation
	if strings.EqualFold(c.Logging.Output, "file") && c.Logging.File.Path == "" {
		errs = append(errs, "logging.file.path is required when logging.output is file")
	}

	// InfluxDB validation (only when enabled)
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" {
			errs = append(errs, "influxdb.org is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ValidateBrokerAddress checks that addr is a URL paho can dial.
func ValidateBrokerAddress(addr string) error {
	u, err := url.Parse(addr)
	if err != nil {
		return fmt.Errorf("mqtt.broker_address is not a valid URL: %w", err)
	}
	if !brokerSchemes[strings.ToLower(u.Scheme)] {
		return fmt.Errorf("mqtt.broker_address scheme %q is not supported", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("mqtt.broker_address %q has no host", addr)
	}
	return nil
}

// validateTopic checks a subscription topic is present and contains no wildcards.
func validateTopic(field, topic string) []string {
	if topic == "" {
		return []string{field + " is required"}
	}
	if strings.ContainsAny(topic, "+#") {
		return []string{field + " must not contain wildcards"}
	}
	return nil
}

// GetConnectTimeout returns the broker round-trip timeout as a Duration.
// Zero when unset; callers apply their own default.
func (c MQTTConfig) GetConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Second
}

// GetRetryInterval returns the loss-driven reconnect interval as a Duration.
func (c *Config) GetRetryInterval() time.Duration {
	return time.Duration(c.MQTT.Reconnect.RetryInterval) * time.Second
}

// GetHealthCheckInterval returns the liveness probe period as a Duration.
func (c *Config) GetHealthCheckInterval() time.Duration {
	return time.Duration(c.MQTT.Reconnect.HealthCheckInterval) * time.Second
}

// UDPPeer returns the forwarder peer as host:port.
func (c *Config) UDPPeer() string {
	return net.JoinHostPort(c.UDP.ServerAddress, strconv.Itoa(c.UDP.ServerPort))
}
