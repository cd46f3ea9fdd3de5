package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mfarlowe/picow-agent/internal/models"
	"github.com/mfarlowe/picow-agent/internal/probes"
	"github.com/mfarlowe/picow-agent/internal/state"
	"github.com/mfarlowe/picow-agent/internal/utils"
	"github.com/mfarlowe/picow-agent/pkg/clock"
	"github.com/mfarlowe/picow-agent/pkg/identity"
	"github.com/mfarlowe/picow-agent/pkg/mqtt"
)

// defaultStatusTimeout bounds one metrics collection pass.
const defaultStatusTimeout = 10 * time.Second

// StatusService periodically publishes the device's status over MQTT:
// control output level, connectivity, last update check and time sync, and
// a small set of system probes collected through the shared worker pool.
type StatusService struct {
	pubTopic string
	interval time.Duration
	timeout  time.Duration
	qos      int
	fields   map[string]struct{} // system probes to include; empty means all

	deviceInfo identity.DeviceInfoInterface
	mqttClient mqtt.MQTTClient
	registry   *probes.Registry
	workerPool *utils.WorkerPool
	store      *state.Store
	clk        clock.Clock
	logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStatusService initializes a new StatusService.
func NewStatusService(pubTopic string, interval, timeout time.Duration, qos int,
	fields []string, deviceInfo identity.DeviceInfoInterface, mqttClient mqtt.MQTTClient,
	store *state.Store, clk clock.Clock, logger zerolog.Logger) *StatusService {

	if timeout <= 0 {
		timeout = defaultStatusTimeout
	}

	registry := probes.NewRegistry()
	registry.Register(&probes.CPUProbe{Logger: logger})
	registry.Register(&probes.MemoryProbe{Logger: logger})
	registry.Register(&probes.UptimeProbe{Logger: logger})

	return &StatusService{
		pubTopic:   pubTopic,
		interval:   interval,
		timeout:    timeout,
		qos:        qos,
		fields:     utils.SliceToSet(fields),
		deviceInfo: deviceInfo,
		mqttClient: mqttClient,
		registry:   registry,
		store:      store,
		clk:        clk,
		logger:     logger,
	}
}

// Start launches the status loop in a separate goroutine.
func (s *StatusService) Start() error {
	if s.ctx != nil {
		s.logger.Warn().Msg("StatusService is already running")
		return errors.New("status service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.workerPool = utils.NewWorkerPool(4)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runStatusLoop()
	}()

	s.logger.Info().Str("topic", s.pubTopic).Dur("interval", s.interval).Msg("StatusService started successfully")
	return nil
}

// Stop gracefully stops the status service.
func (s *StatusService) Stop() error {
	if s.ctx == nil {
		s.logger.Warn().Msg("StatusService is not running")
		return errors.New("status service is not running")
	}

	s.cancel()
	s.wg.Wait()
	s.workerPool.Shutdown()

	s.ctx = nil
	s.cancel = nil
	s.workerPool = nil

	s.logger.Info().Msg("StatusService stopped successfully")
	return nil
}

// runStatusLoop publishes a status report at the configured interval.
func (s *StatusService) runStatusLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status := s.collectStatus()
			status.DeviceID = s.deviceInfo.GetDeviceID()

			if err := s.publishStatus(status); err != nil {
				s.logger.Error().Err(err).Msg("Failed to publish status")
			}

		case <-s.ctx.Done():
			s.logger.Info().Msg("StatusService stopping gracefully")
			return
		}
	}
}

// collectStatus assembles the report from the runtime state store and the
// enabled system probes, which run concurrently on the worker pool.
func (s *StatusService) collectStatus() *models.DeviceStatus {
	status := &models.DeviceStatus{
		Timestamp:  s.clk.Now().UTC(),
		LEDOn:      s.store.LEDOn(),
		Connection: s.store.Connection(),
	}
	if result, ok := s.store.LastUpdateCheck(); ok {
		status.LastUpdateCheck = &result
	}
	if syncedAt, ok := s.store.LastTimeSync(); ok {
		status.LastTimeSync = &syncedAt
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	// Every probe writes a distinct field of the report, so no lock is
	// needed around the concurrent collects.
	var wg sync.WaitGroup
	for name, probe := range s.registry.Probes() {
		if !s.fieldEnabled(name) {
			continue
		}
		wg.Add(1)
		s.workerPool.Submit(func() {
			defer wg.Done()
			probe.Collect(ctx, status)
		})
	}
	wg.Wait()

	return status
}

// fieldEnabled reports whether the named system probe is configured.
func (s *StatusService) fieldEnabled(name string) bool {
	if len(s.fields) == 0 {
		return true
	}
	_, ok := s.fields[name]
	return ok
}

// publishStatus sends the report via MQTT, retrying transient failures.
func (s *StatusService) publishStatus(status *models.DeviceStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to serialize status: %w", err)
	}

	retries := 3
	for i := 0; i < retries; i++ {
		token := s.mqttClient.Publish(s.pubTopic, byte(s.qos), false, payload)
		if token.Wait() && token.Error() == nil {
			s.logger.Debug().Msg("Status published successfully")
			return nil
		}
		s.logger.Warn().Err(token.Error()).Int("retry", i+1).Msg("Retrying to publish status...")
		time.Sleep(time.Duration(i+1) * time.Second)
	}

	return fmt.Errorf("failed to publish status after %d retries", retries)
}
