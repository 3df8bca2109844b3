// Gray Logic Audio Bridge
//
// Bridges two MQTT topics to local side effects:
//   - volume topic: integer percentages applied to an ALSA device via amixer
//   - message topic: text forwarded to a UDP peer as single datagrams
//
// The broker session is kept alive by a loss-driven retry loop and a
// periodic health probe that share one connect guard.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-audiobridge/internal/audio"
	"github.com/nerrad567/gray-logic-audiobridge/internal/bridge"
	"github.com/nerrad567/gray-logic-audiobridge/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-audiobridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-audiobridge/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-audiobridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-audiobridge/internal/udp"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the bridge and blocks until ctx is cancelled.
//
// Only configuration and client construction errors are returned. An
// unreachable broker at startup is logged and left to the health probe.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting audio bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log, err = logging.New(cfg.Logging, version)
	if err != nil {
		return fmt.Errorf("initialising logger: %w", err)
	}
	defer log.Close()
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
		"output", cfg.Logging.Output,
	)

	router, err := buildRouter(cfg, log)
	if err != nil {
		return err
	}

	mqttClient, err := mqtt.New(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("creating MQTT client: %w", err)
	}
	mqttClient.SetLogger(log)
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()

	recorder := connectTelemetry(ctx, cfg, mqttClient.ClientID(), log)
	if recorder != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := recorder.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
	}

	managerCfg := bridge.ManagerConfig{
		Session:       mqttClient,
		Router:        router,
		RetryInterval: cfg.GetRetryInterval(),
		OnConnected: func() {
			if pubErr := mqttClient.PublishOnline(); pubErr != nil {
				log.Warn("publishing online status failed", "error", pubErr)
			}
		},
		Logger: log,
	}
	if recorder != nil {
		managerCfg.Recorder = recorder
		router.SetRecorder(recorder)
	}

	manager, err := bridge.NewManager(managerCfg)
	if err != nil {
		return fmt.Errorf("creating connection manager: %w", err)
	}
	mqttClient.SetOnConnectionLost(manager.OnConnectionLost)

	log.Info("connecting to MQTT broker",
		"broker", cfg.MQTT.BrokerAddress,
		"client_id", mqttClient.ClientID(),
	)
	if startErr := manager.Start(ctx); startErr != nil {
		log.Warn("initial broker connect failed, health probe will retry", "error", startErr)
	}
	defer func() {
		log.Info("stopping connection manager")
		manager.Stop()
	}()

	checker := bridge.NewHealthChecker(manager, cfg.GetHealthCheckInterval())
	checker.SetLogger(log)
	checker.Start(ctx)
	defer func() {
		log.Info("stopping health checker")
		checker.Stop()
	}()

	log.Info("initialisation complete, waiting for shutdown signal",
		"volume_topic", cfg.MQTT.TopicVolume,
		"message_topic", cfg.MQTT.TopicMessage,
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. Health checker
	// 2. Connection manager (retry loop)
	// 3. InfluxDB (if enabled)
	// 4. MQTT (offline status, disconnect)
	// 5. Log file

	log.Info("audio bridge stopped")
	return nil
}

// buildRouter creates the volume and message routes.
func buildRouter(cfg *config.Config, log *logging.Logger) (*bridge.Router, error) {
	mixer, err := audio.NewMixer(audio.Config{
		Device:  cfg.ALSA.Device,
		Control: cfg.ALSA.Control,
		Binary:  cfg.ALSA.Binary,
	})
	if err != nil {
		return nil, fmt.Errorf("creating mixer: %w", err)
	}

	forwarder, err := udp.NewForwarder(udp.Config{
		Peer:     cfg.UDPPeer(),
		Encoding: cfg.UDP.Encoding,
	})
	if err != nil {
		return nil, fmt.Errorf("creating UDP forwarder: %w", err)
	}

	log.Info("audio outputs ready",
		"alsa_device", mixer.Device(),
		"udp_peer", forwarder.Peer(),
		"encoding", cfg.UDP.Encoding,
	)

	router := bridge.NewRouter()
	router.SetLogger(log)
	if err := router.HandleVolume(cfg.MQTT.TopicVolume, mixer); err != nil {
		return nil, fmt.Errorf("routing volume topic: %w", err)
	}
	if err := router.HandleText(cfg.MQTT.TopicMessage, forwarder); err != nil {
		return nil, fmt.Errorf("routing message topic: %w", err)
	}

	return router, nil
}

// connectTelemetry returns a recorder, or nil when telemetry is disabled
// or the server is unreachable. Telemetry is never required to run.
func connectTelemetry(ctx context.Context, cfg *config.Config, bridgeID string, log *logging.Logger) *influxdb.Client {
	client, err := influxdb.Connect(ctx, cfg.InfluxDB, bridgeID)
	if errors.Is(err, influxdb.ErrDisabled) {
		log.Info("InfluxDB disabled")
		return nil
	}
	if err != nil {
		log.Warn("InfluxDB unavailable, telemetry disabled", "error", err)
		return nil
	}

	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected",
		"url", cfg.InfluxDB.URL,
		"org", cfg.InfluxDB.Org,
		"bucket", cfg.InfluxDB.Bucket,
	)
	return client
}

// getConfigPath returns the configuration file path.
// Uses AUDIOBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("AUDIOBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
