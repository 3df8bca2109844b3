package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-audiobridge/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-audiobridge/internal/infrastructure/logging"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestRun_InvalidConfigPath verifies run fails when the config file is missing.
func TestRun_InvalidConfigPath(t *testing.T) {
	t.Setenv("AUDIOBRIDGE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("run() error = %v, want loading config error", err)
	}
}

// TestRun_InvalidConfig verifies run fails when validation rejects the file.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("AUDIOBRIDGE_CONFIG", writeConfig(t, `
mqtt:
  broker_address: "tcp://127.0.0.1:1883"
  topic_volume: "same"
  topic_message: "same"
udp:
  server_address: "127.0.0.1"
  server_port: 9000
alsa:
  device: "default"
`))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail for duplicate topics")
	}
	if !strings.Contains(err.Error(), "must differ") {
		t.Errorf("run() error = %v, want topic validation error", err)
	}
}

// TestRun_BrokerDownNotFatal verifies run keeps running without a broker
// and exits cleanly on cancellation.
func TestRun_BrokerDownNotFatal(t *testing.T) {
	t.Setenv("AUDIOBRIDGE_CONFIG", writeConfig(t, `
mqtt:
  broker_address: "tcp://127.0.0.1:19999"
  topic_volume: "audio/volume"
  topic_message: "audio/message"
  connect_timeout: 1
udp:
  server_address: "127.0.0.1"
  server_port: 9000
alsa:
  device: "default"
logging:
  level: error
  output: stderr
`))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Errorf("run() error = %v, want nil on shutdown", err)
	}
}

func TestBuildRouter(t *testing.T) {
	cfg := &config.Config{
		MQTT: config.MQTTConfig{TopicVolume: "audio/volume", TopicMessage: "audio/message"},
		UDP:  config.UDPConfig{ServerAddress: "127.0.0.1", ServerPort: 9000, Encoding: "koi8-r"},
		ALSA: config.ALSAConfig{Device: "default"},
	}

	var buf bytes.Buffer
	log := logging.NewWithWriter(&buf, config.LoggingConfig{Level: "info", Format: "json"}, "test")

	router, err := buildRouter(cfg, log)
	if err != nil {
		t.Fatalf("buildRouter() error = %v", err)
	}
	topics := router.Topics()
	if len(topics) != 2 || topics[0] != "audio/volume" || topics[1] != "audio/message" {
		t.Errorf("Topics() = %v, want [audio/volume audio/message]", topics)
	}

	output := buf.String()
	for _, want := range []string{`"alsa_device":"default"`, `"udp_peer":"127.0.0.1:9000"`} {
		if !strings.Contains(output, want) {
			t.Errorf("startup log = %s, want %s", output, want)
		}
	}

	cfg.UDP.Encoding = "klingon"
	if _, err := buildRouter(cfg, logging.Default()); err == nil {
		t.Error("buildRouter() should fail for an unknown encoding")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("AUDIOBRIDGE_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("AUDIOBRIDGE_CONFIG", "/etc/audiobridge.yaml")
	if got := getConfigPath(); got != "/etc/audiobridge.yaml" {
		t.Errorf("getConfigPath() = %q, want %q", got, "/etc/audiobridge.yaml")
	}
}
