package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mfarlowe/picow-agent/internal/constants"
	"github.com/mfarlowe/picow-agent/internal/models"
	"github.com/mfarlowe/picow-agent/internal/service_registry"
	"github.com/mfarlowe/picow-agent/internal/services"
	"github.com/mfarlowe/picow-agent/internal/state"
	"github.com/mfarlowe/picow-agent/internal/utils"
	"github.com/mfarlowe/picow-agent/pkg/board"
	"github.com/mfarlowe/picow-agent/pkg/clock"
	"github.com/mfarlowe/picow-agent/pkg/encryption"
	"github.com/mfarlowe/picow-agent/pkg/eventlog"
	"github.com/mfarlowe/picow-agent/pkg/fetch"
	"github.com/mfarlowe/picow-agent/pkg/file"
	"github.com/mfarlowe/picow-agent/pkg/gpio"
	"github.com/mfarlowe/picow-agent/pkg/identity"
	"github.com/mfarlowe/picow-agent/pkg/mqtt"
	"github.com/mfarlowe/picow-agent/pkg/s3"
	"github.com/mfarlowe/picow-agent/pkg/wifi"
)

func main() {
	// Set up structured logging with JSON output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	config, err := utils.LoadConfig(configPath, fileClient)
	if err != nil {
		logger.Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
	}

	// Shared runtime pieces: state store, NTP-corrected clock, event log
	store := state.NewStore()
	clk := clock.NewSyncedClock(clock.NewSystemClock())
	maxLogSize := config.Log.MaxSize
	if maxLogSize <= 0 {
		maxLogSize = constants.DefaultMaxLogSize
	}
	eventLog := eventlog.New(config.Log.Path, maxLogSize, fileClient, clk, logger)

	// Control output and its status blinker
	pin, err := buildPin(config, fileClient)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", config.Control.Driver).Msg("Failed to initialize control output")
	}
	blinker := gpio.NewBlinker(pin, logger)

	// Initialize DeviceInfo
	deviceInfo := identity.NewDeviceInfo(config.Identity.DeviceFile, fileClient)
	if err := deviceInfo.LoadDeviceInfo(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load device information")
	}
	if deviceInfo.GetDeviceID() == "" {
		if err := deviceInfo.SaveDeviceID(uuid.New().String()); err != nil {
			logger.Fatal().Err(err).Msg("Failed to persist generated device ID")
		}
	}

	// Optional AES-GCM support for secrets at rest
	var encryptionManager encryption.EncryptionManagerInterface
	if config.Security.AESKeyFile != "" {
		manager := encryption.NewEncryptionManager(fileClient)
		if err := manager.Initialize(config.Security.AESKeyFile); err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize encryption manager")
		}
		encryptionManager = manager
	}

	// Wi-Fi association is a hard startup requirement when enabled; nothing
	// else on the device is reachable without the link.
	var wifiService *services.WifiService
	if config.Wifi.Enabled {
		var psk encryption.EncryptionManagerInterface
		if config.Wifi.EncryptedPSK {
			if encryptionManager == nil {
				logger.Fatal().Msg("wifi.encrypted_psk requires security.aes_key_file")
			}
			psk = encryptionManager
		}
		creds, err := wifi.LoadCredentials(config.Wifi.CredentialsFile, fileClient, psk)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to load Wi-Fi credentials")
		}
		manager := wifi.NewNmcliManager(config.Wifi.Interface, creds, config.Wifi.CommandTimeout, fileClient, logger)
		wifiService = services.NewWifiService(manager, config.Wifi.PollInterval, config.Wifi.MaxPolls,
			config.Wifi.MonitorInterval, eventLog, blinker, store, logger)
		if err := wifiService.Connect(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("Exiting: could not establish Wi-Fi connectivity")
		}
	} else {
		// Wired or externally managed connectivity
		store.SetConnection(models.ConnectionConnected)
	}

	// Best-effort clock sync before the first event-log entries
	timeSyncService := services.NewTimeSyncService(config.TimeSync.Server, config.TimeSync.Interval,
		clk, eventLog, blinker, store, logger)
	if config.TimeSync.Enabled {
		if err := timeSyncService.SyncOnce(); err != nil {
			logger.Warn().Err(err).Msg("Initial time sync failed, continuing with system clock")
		}
	}

	// Update engine: image source, restart hook, installer
	source, location, err := buildUpdateSource(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize update source")
	}
	resetter := board.NewSystemResetter(logger)
	installer := services.NewImageInstaller(config.Services.Update.ImagePath, fileClient, eventLog, resetter, logger)
	updateService := services.NewUpdateService(source, location, config.Services.Update.ImagePath,
		config.Services.Update.FetchTimeout, fileClient, installer, blinker, eventLog, store, clk, logger)

	if config.Services.Update.CheckOnStart {
		result, err := updateService.CheckNow(context.Background())
		if err != nil {
			logger.Error().Err(err).Msg("Startup update check failed")
		} else {
			logger.Info().Str("status", result.Status.String()).Msg("Startup update check completed")
		}
	}

	// Shared MQTT connection, only needed by the status reporter
	var mqttClient mqtt.MQTTClient
	if config.Services.Status.Enabled {
		// Generate a unique MQTT Client ID by appending a UUID
		config.MQTT.ClientID = config.MQTT.ClientID + "-" + uuid.New().String()
		logger.Info().Str("client_id", config.MQTT.ClientID).Msg("Using MQTT client ID")

		service := mqtt.NewMqttService(fileClient)
		if err := service.Initialize(config.MQTT.Broker, config.MQTT.ClientID, config.MQTT.CACertificate); err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
		}
		mqttClient = service
	}

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(fileClient, eventLog, blinker, store, clk, logger)

	// Register all services based on the configuration
	if err := serviceRegistry.RegisterServices(config, deviceInfo, wifiService, timeSyncService,
		updateService, pin, mqttClient); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register services")
	}

	// Start all registered services in the registry
	if err := serviceRegistry.StartServices(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	logger.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		logger.Error().Err(err).Msg("Some services did not stop cleanly")
	}
	if mqttClient != nil {
		mqttClient.Disconnect(250)
	}
}

// buildPin constructs the control output named by the config. The memory
// driver is the default so the agent runs on hosts without GPIO hardware.
func buildPin(config *utils.Config, fileClient file.FileOperations) (gpio.Pin, error) {
	switch config.Control.Driver {
	case "sysfs":
		return gpio.NewSysfsPin(config.Control.GPIONumber, fileClient)
	case "serial_relay":
		return gpio.NewSerialRelayPin(config.Control.RelayPort, config.Control.RelayBaudRate,
			byte(config.Control.RelayChannel)), nil
	case "", "memory":
		return gpio.NewMemoryPin(), nil
	default:
		return nil, fmt.Errorf("unknown control driver %q", config.Control.Driver)
	}
}

// buildUpdateSource constructs the candidate-image fetcher and resolves the
// location the update service will poll.
func buildUpdateSource(config *utils.Config, logger zerolog.Logger) (fetch.Fetcher, string, error) {
	switch config.Services.Update.Source {
	case "s3":
		storage := s3.NewObjectStorage()
		if err := storage.Connect(config.S3.Endpoint, config.S3.AccessKey, config.S3.SecretKey, config.S3.UseSSL); err != nil {
			return nil, "", err
		}
		return storage, config.Services.Update.ObjectLocation, nil
	case "", "http":
		fetcher := fetch.NewHTTPFetcher(config.Services.Update.FetchTimeout, logger)
		location := fetch.RawContentURL(config.Services.Update.Repo, config.Services.Update.Branch,
			config.Services.Update.Script)
		return fetcher, location, nil
	default:
		return nil, "", fmt.Errorf("unknown update source %q", config.Services.Update.Source)
	}
}
