package services

import (
	"errors"
	"fmt"

	"github.com/grandcat/zeroconf"
	"github.com/rs/zerolog"

	"github.com/mfarlowe/picow-agent/pkg/identity"
)

const (
	// defaultServiceType is the mDNS service type the panel advertises as.
	defaultServiceType = "_http._tcp"

	// discoveryDomain is the mDNS domain (typically "local.")
	discoveryDomain = "local."
)

// DiscoveryService announces the control panel over mDNS so it can be
// reached by name instead of by address.
type DiscoveryService struct {
	instanceName string
	serviceType  string
	port         int

	deviceInfo identity.DeviceInfoInterface
	logger     zerolog.Logger

	server *zeroconf.Server
}

// NewDiscoveryService initializes a new DiscoveryService.
func NewDiscoveryService(instanceName, serviceType string, port int,
	deviceInfo identity.DeviceInfoInterface, logger zerolog.Logger) *DiscoveryService {

	if serviceType == "" {
		serviceType = defaultServiceType
	}

	return &DiscoveryService{
		instanceName: instanceName,
		serviceType:  serviceType,
		port:         port,
		deviceInfo:   deviceInfo,
		logger:       logger,
	}
}

// Start registers the mDNS announcement.
func (s *DiscoveryService) Start() error {
	if s.server != nil {
		s.logger.Warn().Msg("DiscoveryService is already running")
		return errors.New("discovery service is already running")
	}

	instance := s.instanceName
	if instance == "" {
		instance = s.deviceInfo.GetDeviceIdentity().Name
	}
	if instance == "" {
		instance = s.deviceInfo.GetDeviceID()
	}
	if instance == "" {
		instance = "picow-agent"
	}

	txt := []string{"device_id=" + s.deviceInfo.GetDeviceID()}
	if model := s.deviceInfo.GetDeviceIdentity().Model; model != "" {
		txt = append(txt, "model="+model)
	}

	server, err := zeroconf.Register(instance, s.serviceType, discoveryDomain, s.port, txt, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	s.server = server

	s.logger.Info().Str("instance", instance).Str("type", s.serviceType).Int("port", s.port).Msg("DiscoveryService started successfully")
	return nil
}

// Stop withdraws the mDNS announcement.
func (s *DiscoveryService) Stop() error {
	if s.server == nil {
		s.logger.Warn().Msg("DiscoveryService is not running")
		return errors.New("discovery service is not running")
	}

	s.server.Shutdown()
	s.server = nil

	s.logger.Info().Msg("DiscoveryService stopped successfully")
	return nil
}
