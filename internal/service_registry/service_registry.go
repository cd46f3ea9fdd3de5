package service_registry

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mfarlowe/picow-agent/internal/constants"
	"github.com/mfarlowe/picow-agent/internal/registry"
	"github.com/mfarlowe/picow-agent/internal/services"
	"github.com/mfarlowe/picow-agent/internal/state"
	"github.com/mfarlowe/picow-agent/internal/utils"
	"github.com/mfarlowe/picow-agent/pkg/clock"
	"github.com/mfarlowe/picow-agent/pkg/eventlog"
	"github.com/mfarlowe/picow-agent/pkg/file"
	"github.com/mfarlowe/picow-agent/pkg/gpio"
	"github.com/mfarlowe/picow-agent/pkg/identity"
	"github.com/mfarlowe/picow-agent/pkg/mqtt"
)

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration

	fileClient file.FileOperations
	eventLog   *eventlog.Logger
	blinker    *gpio.Blinker
	store      *state.Store
	clk        clock.Clock
	Logger     zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(fileClient file.FileOperations, eventLog *eventlog.Logger,
	blinker *gpio.Blinker, store *state.Store, clk clock.Clock, logger zerolog.Logger) *ServiceRegistry {

	return &ServiceRegistry{
		services:   make(map[string]registry.Service),
		fileClient: fileClient,
		eventLog:   eventLog,
		blinker:    blinker,
		store:      store,
		clk:        clk,
		Logger:     logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			// Stop already started services before returning
			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return err
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices registers the enabled long-running services in startup
// order. The connectivity monitor and time re-sync services are built
// before registration because startup also drives them directly; the rest
// are constructed here from configuration.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, deviceInfo identity.DeviceInfoInterface,
	wifiService *services.WifiService, timeSyncService *services.TimeSyncService,
	updateService *services.UpdateService, pin gpio.Pin, mqttClient mqtt.MQTTClient) error {

	webPort := config.Web.Port
	if webPort <= 0 {
		webPort = constants.DefaultHTTPPort
	}

	// Ordered service definitions with inline constructors
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (registry.Service, error)
	}{
		{
			name:    "wifi",
			enabled: config.Wifi.Enabled,
			constructor: func() (registry.Service, error) {
				return wifiService, nil
			},
		},
		{
			name:    "timesync",
			enabled: config.TimeSync.Enabled && config.TimeSync.Interval > 0,
			constructor: func() (registry.Service, error) {
				return timeSyncService, nil
			},
		},
		{
			name:    "web",
			enabled: true,
			constructor: func() (registry.Service, error) {
				return services.NewWebService(
					webPort,
					pin,
					updateService,
					sr.fileClient,
					sr.eventLog,
					sr.blinker,
					sr.store,
					sr.Logger,
				), nil
			},
		},
		{
			name:    "discovery",
			enabled: config.Services.Discovery.Enabled,
			constructor: func() (registry.Service, error) {
				return services.NewDiscoveryService(
					config.Services.Discovery.InstanceName,
					config.Services.Discovery.ServiceType,
					webPort,
					deviceInfo,
					sr.Logger,
				), nil
			},
		},
		{
			name:    "status",
			enabled: config.Services.Status.Enabled,
			constructor: func() (registry.Service, error) {
				if mqttClient == nil {
					return nil, errors.New("status service requires an MQTT connection")
				}
				return services.NewStatusService(
					config.Services.Status.Topic,
					config.Services.Status.Interval,
					config.Services.Status.Timeout,
					config.Services.Status.QOS,
					config.Services.Status.Fields,
					deviceInfo,
					mqttClient,
					sr.store,
					sr.clk,
					sr.Logger,
				), nil
			},
		},
	}

	// Register services in the predefined order
	registeredServices := []string{}
	for _, svc := range servicesInOrder {
		if svc.enabled {
			serviceInstance, err := svc.constructor()
			if err != nil {
				sr.Logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
				return err
			}
			sr.RegisterService(svc.name, serviceInstance)
			registeredServices = append(registeredServices, svc.name)
		}
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}
