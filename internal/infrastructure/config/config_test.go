package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validConfig returns a configuration that passes validation.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.MQTT.BrokerAddress = "tcp://localhost:1883"
	cfg.MQTT.TopicVolume = "vol"
	cfg.MQTT.TopicMessage = "msg"
	cfg.UDP.ServerAddress = "h"
	cfg.UDP.ServerPort = 9000
	cfg.ALSA.Device = "d0"
	return cfg
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
mqtt:
  broker_address: "tcp://broker.local:1883"
  topic_volume: "audio/volume"
  topic_message: "audio/message"
  qos: 1
udp:
  server_address: "10.0.0.5"
  server_port: 9000
alsa:
  device: "hw:0"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.BrokerAddress != "tcp://broker.local:1883" {
		t.Errorf("MQTT.BrokerAddress = %q, want %q", cfg.MQTT.BrokerAddress, "tcp://broker.local:1883")
	}
	if cfg.MQTT.TopicVolume != "audio/volume" {
		t.Errorf("MQTT.TopicVolume = %q, want %q", cfg.MQTT.TopicVolume, "audio/volume")
	}
	if cfg.UDP.ServerPort != 9000 {
		t.Errorf("UDP.ServerPort = %d, want %d", cfg.UDP.ServerPort, 9000)
	}
	if cfg.ALSA.Device != "hw:0" {
		t.Errorf("ALSA.Device = %q, want %q", cfg.ALSA.Device, "hw:0")
	}

	// Defaults survive a partial file
	if cfg.ALSA.Control != "Master" {
		t.Errorf("ALSA.Control = %q, want default %q", cfg.ALSA.Control, "Master")
	}
	if cfg.UDP.Encoding != "koi8-r" {
		t.Errorf("UDP.Encoding = %q, want default %q", cfg.UDP.Encoding, "koi8-r")
	}
	if got := cfg.GetRetryInterval(); got != 5*time.Second {
		t.Errorf("GetRetryInterval() = %v, want %v", got, 5*time.Second)
	}
	if got := cfg.GetHealthCheckInterval(); got != 30*time.Second {
		t.Errorf("GetHealthCheckInterval() = %v, want %v", got, 30*time.Second)
	}
	if got := cfg.MQTT.GetConnectTimeout(); got != 10*time.Second {
		t.Errorf("MQTT.GetConnectTimeout() = %v, want %v", got, 10*time.Second)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_MissingFields(t *testing.T) {
	content := `
mqtt:
  broker_address: "tcp://localhost:1883"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}

	for _, field := range []string{"mqtt.topic_volume", "mqtt.topic_message", "udp.server_address", "udp.server_port", "alsa.device"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("Load() error = %v, want mention of %s", err, field)
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
mqtt:
  broker_address: "tcp://file-broker:1883"
  topic_volume: "vol"
  topic_message: "msg"
udp:
  server_address: "file-host"
  server_port: 9000
alsa:
  device: "file-device"
`
	t.Setenv("AUDIOBRIDGE_MQTT_BROKER", "ssl://env-broker:8883")
	t.Setenv("AUDIOBRIDGE_UDP_HOST", "env-host")
	t.Setenv("AUDIOBRIDGE_ALSA_DEVICE", "env-device")
	t.Setenv("AUDIOBRIDGE_MQTT_PASSWORD", "secret")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.BrokerAddress != "ssl://env-broker:8883" {
		t.Errorf("MQTT.BrokerAddress = %q, want env override", cfg.MQTT.BrokerAddress)
	}
	if cfg.UDP.ServerAddress != "env-host" {
		t.Errorf("UDP.ServerAddress = %q, want env override", cfg.UDP.ServerAddress)
	}
	if cfg.ALSA.Device != "env-device" {
		t.Errorf("ALSA.Device = %q, want env override", cfg.ALSA.Device)
	}
	if cfg.MQTT.Password != "secret" {
		t.Errorf("MQTT.Password not overridden from environment")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			modify: func(*Config) {},
		},
		{
			name:    "same topics",
			modify:  func(c *Config) { c.MQTT.TopicMessage = c.MQTT.TopicVolume },
			wantErr: "must differ",
		},
		{
			name:    "wildcard topic",
			modify:  func(c *Config) { c.MQTT.TopicVolume = "audio/+" },
			wantErr: "wildcards",
		},
		{
			name:    "bad broker scheme",
			modify:  func(c *Config) { c.MQTT.BrokerAddress = "http://localhost:1883" },
			wantErr: "scheme",
		},
		{
			name:    "broker without host",
			modify:  func(c *Config) { c.MQTT.BrokerAddress = "tcp://" },
			wantErr: "no host",
		},
		{
			name:    "invalid qos",
			modify:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "port out of range",
			modify:  func(c *Config) { c.UDP.ServerPort = 70000 },
			wantErr: "udp.server_port",
		},
		{
			name:    "unknown encoding",
			modify:  func(c *Config) { c.UDP.Encoding = "klingon" },
			wantErr: "udp.encoding",
		},
		{
			name:    "zero retry interval",
			modify:  func(c *Config) { c.MQTT.Reconnect.RetryInterval = 0 },
			wantErr: "retry_interval",
		},
		{
			name:    "file output without path",
			modify:  func(c *Config) { c.Logging.Output = "file" },
			wantErr: "logging.file.path",
		},
		{
			name: "influxdb enabled without url",
			modify: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.Org = "o"
				c.InfluxDB.Bucket = "b"
			},
			wantErr: "influxdb.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_UDPPeer(t *testing.T) {
	cfg := validConfig()
	if got := cfg.UDPPeer(); got != "h:9000" {
		t.Errorf("UDPPeer() = %q, want %q", got, "h:9000")
	}

	cfg.UDP.ServerAddress = "::1"
	if got := cfg.UDPPeer(); got != "[::1]:9000" {
		t.Errorf("UDPPeer() = %q, want %q", got, "[::1]:9000")
	}
}
