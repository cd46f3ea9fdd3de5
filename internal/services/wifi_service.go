package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mfarlowe/picow-agent/internal/constants"
	"github.com/mfarlowe/picow-agent/internal/models"
	"github.com/mfarlowe/picow-agent/internal/state"
	"github.com/mfarlowe/picow-agent/pkg/eventlog"
	"github.com/mfarlowe/picow-agent/pkg/gpio"
	"github.com/mfarlowe/picow-agent/pkg/wifi"
)

// WifiService brings the device onto the configured network and keeps it
// there. Initial association is bounded and fatal on failure; the monitor
// loop runs for the life of the process and re-associates with the same
// bounded policy whenever the link drops, continuing regardless of outcome.
type WifiService struct {
	manager         wifi.Manager
	pollInterval    time.Duration
	maxPolls        int
	monitorInterval time.Duration

	eventLog *eventlog.Logger
	blinker  *gpio.Blinker
	store    *state.Store
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWifiService initializes a new WifiService.
func NewWifiService(manager wifi.Manager, pollInterval time.Duration, maxPolls int,
	monitorInterval time.Duration, eventLog *eventlog.Logger, blinker *gpio.Blinker,
	store *state.Store, logger zerolog.Logger) *WifiService {

	if pollInterval <= 0 {
		pollInterval = constants.AssociationPollInterval
	}
	if maxPolls <= 0 {
		maxPolls = constants.AssociationPollBudget
	}
	if monitorInterval <= 0 {
		monitorInterval = constants.MonitorInterval
	}

	return &WifiService{
		manager:         manager,
		pollInterval:    pollInterval,
		maxPolls:        maxPolls,
		monitorInterval: monitorInterval,
		eventLog:        eventLog,
		blinker:         blinker,
		store:           store,
		logger:          logger,
	}
}

// Connect performs the initial association. It returns an error only after
// the whole poll budget is spent without the link coming up; the caller
// treats that as fatal.
func (s *WifiService) Connect(ctx context.Context) error {
	connected, err := s.manager.IsConnected()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Could not read link state, assuming disconnected")
		connected = false
	}

	if !connected {
		s.logger.Info().Msg("Connecting to Wi-Fi...")
		s.store.SetConnection(models.ConnectionConnecting)
		if !s.associate(ctx) {
			s.store.SetConnection(models.ConnectionDisconnected)
			return fmt.Errorf("%w: failed to connect to Wi-Fi", models.ErrNetwork)
		}
	}

	s.store.SetConnection(models.ConnectionConnected)
	if ip, err := s.manager.IPAddress(); err == nil {
		s.logger.Info().Str("ip", ip).Msg("Connected to Wi-Fi")
	} else {
		s.logger.Info().Msg("Connected to Wi-Fi")
	}
	s.blinker.Flash(5, 100*time.Millisecond)

	return nil
}

// Start launches the connectivity monitor loop in a separate goroutine.
func (s *WifiService) Start() error {
	if s.ctx != nil {
		s.logger.Warn().Msg("WifiService is already running")
		return errors.New("wifi service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runMonitorLoop()
	}()

	s.logger.Info().Dur("interval", s.monitorInterval).Msg("WifiService started successfully")
	return nil
}

// Stop gracefully stops the connectivity monitor.
func (s *WifiService) Stop() error {
	if s.ctx == nil {
		s.logger.Warn().Msg("WifiService is not running")
		return errors.New("wifi service is not running")
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.logger.Info().Msg("WifiService stopped successfully")
	return nil
}

// runMonitorLoop polls the link and re-associates after a drop. The loop
// itself never terminates on failure; only Stop ends it.
func (s *WifiService) runMonitorLoop() {
	ticker := time.NewTicker(s.monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			connected, err := s.manager.IsConnected()
			if err != nil {
				s.logger.Warn().Err(err).Msg("Failed to read link state")
				continue
			}
			if connected {
				s.store.SetConnection(models.ConnectionConnected)
				continue
			}

			s.store.SetConnection(models.ConnectionConnecting)
			s.eventLog.Log("Wi-Fi disconnected, attempting reconnection")
			s.logger.Warn().Msg("Wi-Fi disconnected, attempting reconnection")

			if s.associate(s.ctx) {
				s.store.SetConnection(models.ConnectionConnected)
				s.eventLog.Log("Wi-Fi reconnected")
				s.logger.Info().Msg("Wi-Fi reconnected")
				s.blinker.Flash(3, 500*time.Millisecond)
			} else {
				s.store.SetConnection(models.ConnectionDisconnected)
				s.eventLog.Log("Wi-Fi reconnection failed")
				s.logger.Warn().Msg("Wi-Fi reconnection failed")
			}

		case <-s.ctx.Done():
			s.logger.Info().Msg("WifiService stopping gracefully")
			return
		}
	}
}

// associate runs one association attempt and polls the link until it comes
// up or the poll budget is spent.
func (s *WifiService) associate(ctx context.Context) bool {
	if err := s.manager.Associate(ctx); err != nil {
		// The platform may still bring the link up on its own, so the poll
		// loop runs regardless.
		s.logger.Warn().Err(err).Msg("Association attempt failed")
	}

	for i := 0; i < s.maxPolls; i++ {
		connected, err := s.manager.IsConnected()
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to read link state while associating")
		} else if connected {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(s.pollInterval):
		}
	}

	return false
}
